package history

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"
)

// exportLimit caps how many rows an export pulls in one call.
const exportLimit = 10000

// ExportJSON writes every stored comparison summary to w as a JSON array,
// newest first.
func ExportJSON(ctx context.Context, s Store, w io.Writer) error {
	records, err := s.List(ctx, exportLimit)
	if err != nil {
		return fmt.Errorf("failed to list comparisons: %w", err)
	}
	if records == nil {
		records = []*Record{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	return nil
}

// csvHeader is the fixed column order of CSV exports.
var csvHeader = []string{
	"id", "created_at", "dev_url", "prod_url",
	"lines_added", "lines_removed",
	"resources_only_dev", "resources_only_prod", "resources_common",
	"alerts",
}

// ExportCSV writes one summary row per stored comparison to w.
func ExportCSV(ctx context.Context, s Store, w io.Writer) error {
	records, err := s.List(ctx, exportLimit)
	if err != nil {
		return fmt.Errorf("failed to list comparisons: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, rec := range records {
		row := []string{
			rec.ID,
			rec.CreatedAt.Format(time.RFC3339),
			rec.DevURL,
			rec.ProdURL,
			strconv.Itoa(rec.Summary.LinesAdded),
			strconv.Itoa(rec.Summary.LinesRemoved),
			strconv.Itoa(rec.Summary.ResourcesOnlyDev),
			strconv.Itoa(rec.Summary.ResourcesOnlyProd),
			strconv.Itoa(rec.Summary.ResourcesCommon),
			strconv.Itoa(len(rec.Alerts)),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
