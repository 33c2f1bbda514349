package history

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/stagediff/stagediff/internal/alert"
	"github.com/stagediff/stagediff/internal/compare"
	"github.com/stagediff/stagediff/internal/logging"
)

//go:embed schema.sql
var schemaFS embed.FS

// SQLiteStore implements Store over a single SQLite file. Summary columns
// are denormalized from the report so list and stats queries never parse
// the report document.
type SQLiteStore struct {
	db     *sql.DB
	logger logging.Logger
}

// NewSQLiteStore opens (or creates) the database at path and applies the
// schema.
func NewSQLiteStore(path string, logger logging.Logger) (*SQLiteStore, error) {
	if logger == nil {
		return nil, errors.New("history: nil logger provided")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	logger.Info("history store initialized", logging.Field{Key: "path", Value: path})

	return &SQLiteStore{
		db:     db,
		logger: logger.With(logging.Field{Key: "component", Value: "history"}),
	}, nil
}

// applySchema applies the SQLite schema to the database and sets appropriate pragmas.
func applySchema(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",   // Write-Ahead Logging for better concurrency
		"PRAGMA synchronous=NORMAL", // Balance between safety and performance
		"PRAGMA foreign_keys=ON",    // Enable foreign key constraints
		"PRAGMA busy_timeout=5000",  // Wait up to 5 seconds on locked database
		"PRAGMA temp_store=MEMORY",  // Store temp tables in memory
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema.sql: %w", err)
	}
	if _, err := db.Exec(string(schemaSQL)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	return nil
}

// Ensure SQLiteStore implements Store at compile-time.
var _ Store = (*SQLiteStore)(nil)

// Append stores a finished report in a single transaction.
func (s *SQLiteStore) Append(ctx context.Context, report *compare.Report) (*Record, error) {
	if report == nil {
		return nil, errors.New("report cannot be nil")
	}

	id := uuid.New().String()
	createdAt := report.GeneratedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			s.logger.Warn("failed to rollback transaction", logging.Field{Key: "error", Value: rbErr.Error()})
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO comparisons
		  (id, dev_url, prod_url, created_at,
		   lines_added, lines_removed,
		   resources_only_dev, resources_only_prod, resources_common,
		   report_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, report.DevURL, report.ProdURL, createdAt.Unix(),
		report.Summary.LinesAdded, report.Summary.LinesRemoved,
		report.Summary.ResourcesOnlyDev, report.Summary.ResourcesOnlyProd, report.Summary.ResourcesCommon,
		string(reportJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to insert comparison: %w", err)
	}

	for i, a := range report.Alerts {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO alerts (id, comparison_id, position, severity, category, message, threshold, actual)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, uuid.New().String(), id, i, string(a.Severity), a.Category, a.Message,
			nullableFloat(a.Threshold), nullableFloat(a.Actual))
		if err != nil {
			return nil, fmt.Errorf("failed to insert alert: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("comparison stored",
		logging.Field{Key: "id", Value: id},
		logging.Field{Key: "alerts", Value: len(report.Alerts)})

	return &Record{
		ID:        id,
		DevURL:    report.DevURL,
		ProdURL:   report.ProdURL,
		CreatedAt: time.Unix(createdAt.Unix(), 0).UTC(),
		Summary:   report.Summary,
		Alerts:    report.Alerts,
		Report:    report,
	}, nil
}

// Get returns one comparison with its full report hydrated.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Record, error) {
	var rec Record
	var createdAt int64
	var reportJSON string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, dev_url, prod_url, created_at,
		       lines_added, lines_removed,
		       resources_only_dev, resources_only_prod, resources_common,
		       report_json
		FROM comparisons
		WHERE id = ?
	`, id).Scan(&rec.ID, &rec.DevURL, &rec.ProdURL, &createdAt,
		&rec.Summary.LinesAdded, &rec.Summary.LinesRemoved,
		&rec.Summary.ResourcesOnlyDev, &rec.Summary.ResourcesOnlyProd, &rec.Summary.ResourcesCommon,
		&reportJSON)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query comparison: %w", err)
	}

	rec.CreatedAt = time.Unix(createdAt, 0).UTC()

	var report compare.Report
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	rec.Report = &report

	alerts, err := s.alertsFor(ctx, rec.ID)
	if err != nil {
		return nil, err
	}
	rec.Alerts = alerts
	rec.Summary.AlertCounts = countBySeverity(alerts)

	return &rec, nil
}

// List returns recent comparisons, newest first. Reports stay nil.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, dev_url, prod_url, created_at,
		       lines_added, lines_removed,
		       resources_only_dev, resources_only_prod, resources_common
		FROM comparisons
		ORDER BY created_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query comparisons: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		var rec Record
		var createdAt int64
		if err := rows.Scan(&rec.ID, &rec.DevURL, &rec.ProdURL, &createdAt,
			&rec.Summary.LinesAdded, &rec.Summary.LinesRemoved,
			&rec.Summary.ResourcesOnlyDev, &rec.Summary.ResourcesOnlyProd, &rec.Summary.ResourcesCommon); err != nil {
			return nil, fmt.Errorf("failed to scan comparison: %w", err)
		}
		rec.CreatedAt = time.Unix(createdAt, 0).UTC()
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comparisons: %w", err)
	}

	for _, rec := range records {
		alerts, err := s.alertsFor(ctx, rec.ID)
		if err != nil {
			return nil, err
		}
		rec.Alerts = alerts
		rec.Summary.AlertCounts = countBySeverity(alerts)
	}

	return records, nil
}

// Stats aggregates totals across the whole store.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{AlertsBySeverity: make(map[alert.Severity]int)}

	var first, last sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), MIN(created_at), MAX(created_at) FROM comparisons
	`).Scan(&stats.TotalComparisons, &first, &last)
	if err != nil {
		return nil, fmt.Errorf("failed to query comparison totals: %w", err)
	}
	if first.Valid {
		t := time.Unix(first.Int64, 0).UTC()
		stats.FirstAt = &t
	}
	if last.Valid {
		t := time.Unix(last.Int64, 0).UTC()
		stats.LastAt = &t
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT severity, COUNT(*) FROM alerts GROUP BY severity
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query alert totals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var severity string
		var count int
		if err := rows.Scan(&severity, &count); err != nil {
			return nil, fmt.Errorf("failed to scan alert totals: %w", err)
		}
		stats.AlertsBySeverity[alert.Severity(severity)] = count
		stats.TotalAlerts += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alert totals: %w", err)
	}

	return stats, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing history store")
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) alertsFor(ctx context.Context, comparisonID string) ([]alert.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT severity, category, message, threshold, actual
		FROM alerts
		WHERE comparison_id = ?
		ORDER BY position
	`, comparisonID)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []alert.Record
	for rows.Next() {
		var a alert.Record
		var severity string
		var threshold, actual sql.NullFloat64
		if err := rows.Scan(&severity, &a.Category, &a.Message, &threshold, &actual); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		a.Severity = alert.Severity(severity)
		if threshold.Valid {
			v := threshold.Float64
			a.Threshold = &v
		}
		if actual.Valid {
			v := actual.Float64
			a.Actual = &v
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alerts: %w", err)
	}

	return alerts, nil
}

func countBySeverity(alerts []alert.Record) map[alert.Severity]int {
	counts := make(map[alert.Severity]int)
	for _, a := range alerts {
		counts[a.Severity]++
	}
	return counts
}

func nullableFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
