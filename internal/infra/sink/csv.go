package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"

	"review-scout/internal/usecase/collect"
)

var csvHeader = []string{
	"task_id", "listing_id", "listing_name", "city",
	"review_id", "author", "rating", "date", "text",
	"has_response", "response_date", "response_text",
}

// CSV appends one row per collected review. Listings without reviews still
// produce one row so the listing itself is never lost in the export.
type CSV struct {
	mu   sync.Mutex
	path string
}

// NewCSV builds a CSV sink writing to path.
func NewCSV(path string) *CSV {
	return &CSV{path: path}
}

// Name implements collect.Sink.
func (s *CSV) Name() string { return "csv" }

// Write appends the task's reviews, writing the header on first creation.
func (s *CSV) Write(_ context.Context, res collect.TaskResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := os.Stat(s.path)
	writeHeader := err != nil || info.Size() == 0

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.path, err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(csvHeader); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	for _, l := range res.Listings {
		if len(l.Reviews) == 0 {
			row := []string{res.TaskID, l.ID, l.Name, l.City, "", "", "", "", "", "false", "", ""}
			if err := w.Write(row); err != nil {
				return fmt.Errorf("write listing row: %w", err)
			}
			continue
		}
		for _, r := range l.Reviews {
			row := []string{
				res.TaskID, l.ID, l.Name, l.City,
				r.ID, r.Author, strconv.Itoa(r.Rating), r.Date.String(), r.Text,
				strconv.FormatBool(r.HasResponse), "", "",
			}
			if r.Response != nil {
				row[10] = r.Response.Date.String()
				row[11] = r.Response.Text
			}
			if err := w.Write(row); err != nil {
				return fmt.Errorf("write review row: %w", err)
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
