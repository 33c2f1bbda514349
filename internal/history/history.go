// Package history persists comparison results so regressions can be
// traced over time. The store keeps a compact summary row per comparison
// plus the triggered alerts; the full report travels as a JSON document
// and is only hydrated on point lookups.
package history

import (
	"context"
	"errors"
	"time"

	"github.com/stagediff/stagediff/internal/alert"
	"github.com/stagediff/stagediff/internal/compare"
)

// ErrNotFound is returned when no comparison exists for the given id.
var ErrNotFound = errors.New("history: comparison not found")

// Record is one stored comparison. Report is nil on list results; Get
// hydrates it from the stored document.
type Record struct {
	ID        string          `json:"id"`
	DevURL    string          `json:"dev_url"`
	ProdURL   string          `json:"prod_url"`
	CreatedAt time.Time       `json:"created_at"`
	Summary   compare.Summary `json:"summary"`
	Alerts    []alert.Record  `json:"alerts"`
	Report    *compare.Report `json:"report,omitempty"`
}

// Stats aggregates the whole store for the dashboard endpoint.
type Stats struct {
	TotalComparisons int                    `json:"total_comparisons"`
	TotalAlerts      int                    `json:"total_alerts"`
	AlertsBySeverity map[alert.Severity]int `json:"alerts_by_severity"`
	FirstAt          *time.Time             `json:"first_at,omitempty"`
	LastAt           *time.Time             `json:"last_at,omitempty"`
}

// Store is the minimal cross-package contract for comparison persistence.
// Implementations should be safe for concurrent use.
type Store interface {
	// Append stores a finished report and returns the persisted record.
	Append(ctx context.Context, report *compare.Report) (*Record, error)

	// Get returns one comparison with its full report hydrated.
	Get(ctx context.Context, id string) (*Record, error)

	// List returns recent comparisons, newest first, without reports.
	List(ctx context.Context, limit int) ([]*Record, error)

	// Stats aggregates totals across the whole store.
	Stats(ctx context.Context) (*Stats, error)

	Close() error
}
