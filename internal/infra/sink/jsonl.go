// Package sink implements the output sinks a finished task is handed to.
// The shapes here mirror the domain model exactly; formatting is the only
// concern these types own.
package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"review-scout/internal/domain/entity"
	"review-scout/internal/usecase/collect"
)

// taskRecord is the serialized form of one finished task.
type taskRecord struct {
	TaskID     string          `json:"task_id"`
	Query      queryRecord     `json:"query"`
	Outcome    string          `json:"outcome"`
	StartedAt  string          `json:"started_at"`
	FinishedAt string          `json:"finished_at"`
	Listings   []listingRecord `json:"listings"`
	Stats      statsRecord     `json:"stats"`
}

type queryRecord struct {
	Name    string   `json:"name"`
	Scope   string   `json:"scope"`
	City    string   `json:"city,omitempty"`
	Cities  []string `json:"cities,omitempty"`
	Site    string   `json:"site,omitempty"`
	Address string   `json:"address,omitempty"`
}

type listingRecord struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Address     string         `json:"address,omitempty"`
	City        string         `json:"city,omitempty"`
	Rating      float64        `json:"rating,omitempty"`
	ReviewCount int            `json:"review_count,omitempty"`
	Website     string         `json:"website,omitempty"`
	Phone       string         `json:"phone,omitempty"`
	Description string         `json:"description,omitempty"`
	Reviews     []reviewRecord `json:"reviews"`
	Stats       statsRecord    `json:"stats"`
}

type reviewRecord struct {
	ID           string `json:"id"`
	Author       string `json:"author,omitempty"`
	Rating       int    `json:"rating"`
	Text         string `json:"text,omitempty"`
	Date         string `json:"date,omitempty"`
	HasResponse  bool   `json:"has_response"`
	ResponseText string `json:"response_text,omitempty"`
	ResponseDate string `json:"response_date,omitempty"`
}

type statsRecord struct {
	TotalReviews    int     `json:"total_reviews"`
	Positive        int     `json:"positive"`
	Negative        int     `json:"negative"`
	Neutral         int     `json:"neutral"`
	Answered        int     `json:"answered"`
	Unanswered      int     `json:"unanswered"`
	AvgResponseDays float64 `json:"avg_response_days"`
	Rating          float64 `json:"rating"`
	RatingEstimated bool    `json:"rating_estimated,omitempty"`
}

func newTaskRecord(res collect.TaskResult) taskRecord {
	rec := taskRecord{
		TaskID: res.TaskID,
		Query: queryRecord{
			Name:    res.Query.Name,
			Scope:   string(res.Query.Scope),
			City:    res.Query.City,
			Cities:  res.Query.Cities,
			Site:    res.Query.Site,
			Address: res.Query.Address,
		},
		Outcome:    string(res.Outcome),
		StartedAt:  res.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
		FinishedAt: res.FinishedAt.Format("2006-01-02T15:04:05Z07:00"),
		Stats:      newStatsRecord(res.Stats),
	}
	for i, l := range res.Listings {
		lr := listingRecord{
			ID:          l.ID,
			Name:        l.Name,
			Address:     l.Address,
			City:        l.City,
			Rating:      l.Rating,
			ReviewCount: l.ReviewCount,
			Website:     l.Website,
			Phone:       l.Phone,
			Description: l.Description,
			Reviews:     make([]reviewRecord, 0, len(l.Reviews)),
		}
		if i < len(res.ListingStats) {
			lr.Stats = newStatsRecord(res.ListingStats[i])
		}
		for _, r := range l.Reviews {
			lr.Reviews = append(lr.Reviews, newReviewRecord(r))
		}
		rec.Listings = append(rec.Listings, lr)
	}
	return rec
}

func newReviewRecord(r entity.Review) reviewRecord {
	rr := reviewRecord{
		ID:          r.ID,
		Author:      r.Author,
		Rating:      r.Rating,
		Text:        r.Text,
		Date:        r.Date.String(),
		HasResponse: r.HasResponse,
	}
	if r.Response != nil {
		rr.ResponseText = r.Response.Text
		rr.ResponseDate = r.Response.Date.String()
	}
	return rr
}

func newStatsRecord(s entity.Stats) statsRecord {
	return statsRecord{
		TotalReviews:    s.TotalReviews,
		Positive:        s.Positive,
		Negative:        s.Negative,
		Neutral:         s.Neutral,
		Answered:        s.Answered,
		Unanswered:      s.Unanswered,
		AvgResponseDays: s.AvgResponseDays,
		Rating:          s.Rating,
		RatingEstimated: s.RatingEstimated,
	}
}

// JSONL appends one JSON object per finished task to a file.
type JSONL struct {
	mu   sync.Mutex
	path string
}

// NewJSONL builds a JSONL sink writing to path.
func NewJSONL(path string) *JSONL {
	return &JSONL{path: path}
}

// Name implements collect.Sink.
func (s *JSONL) Name() string { return "jsonl" }

// Write appends the task as one line.
func (s *JSONL) Write(_ context.Context, res collect.TaskResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.path, err)
	}
	defer func() { _ = f.Close() }()

	enc := json.NewEncoder(f)
	if err := enc.Encode(newTaskRecord(res)); err != nil {
		return fmt.Errorf("encode task %s: %w", res.TaskID, err)
	}
	return nil
}
