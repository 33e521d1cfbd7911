package sink

import (
	"context"
	"database/sql"
	"fmt"

	"review-scout/internal/resilience/circuitbreaker"
	"review-scout/internal/usecase/collect"
)

const createReviewsTable = `
CREATE TABLE IF NOT EXISTS collected_reviews (
	task_id       TEXT NOT NULL,
	query_name    TEXT NOT NULL,
	outcome       TEXT NOT NULL,
	listing_id    TEXT NOT NULL,
	listing_name  TEXT,
	city          TEXT,
	listing_rating DOUBLE PRECISION,
	review_id     TEXT NOT NULL,
	author        TEXT,
	rating        INTEGER,
	review_date   TEXT,
	review_text   TEXT,
	has_response  BOOLEAN NOT NULL DEFAULT FALSE,
	response_date TEXT,
	response_text TEXT,
	collected_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (task_id, listing_id, review_id)
)`

const insertReview = `
INSERT INTO collected_reviews (
	task_id, query_name, outcome,
	listing_id, listing_name, city, listing_rating,
	review_id, author, rating, review_date, review_text,
	has_response, response_date, response_text
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
ON CONFLICT (task_id, listing_id, review_id) DO NOTHING`

// Postgres writes finished tasks into one denormalized table. Synthetic
// review ids make the insert idempotent: re-running a task upserts nothing
// it already wrote.
type Postgres struct {
	db *circuitbreaker.DBCircuitBreaker
}

// NewPostgres wraps an open connection. The pgx stdlib driver is expected;
// the sink itself only speaks database/sql.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: circuitbreaker.NewDBCircuitBreaker(db)}
}

// Name implements collect.Sink.
func (s *Postgres) Name() string { return "postgres" }

// EnsureSchema creates the output table when missing.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createReviewsTable); err != nil {
		return fmt.Errorf("create collected_reviews: %w", err)
	}
	return nil
}

// Write inserts one row per review. Listings without reviews get a single
// placeholder row keyed by the listing id so the listing is not lost.
func (s *Postgres) Write(ctx context.Context, res collect.TaskResult) error {
	for _, l := range res.Listings {
		if len(l.Reviews) == 0 {
			if err := s.insert(ctx, res, l.ID, l.Name, l.City, l.Rating,
				"listing:"+l.ID, "", 0, "", "", false, "", ""); err != nil {
				return err
			}
			continue
		}
		for _, r := range l.Reviews {
			respDate, respText := "", ""
			if r.Response != nil {
				respDate = r.Response.Date.String()
				respText = r.Response.Text
			}
			if err := s.insert(ctx, res, l.ID, l.Name, l.City, l.Rating,
				r.ID, r.Author, r.Rating, r.Date.String(), r.Text,
				r.HasResponse, respDate, respText); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Postgres) insert(ctx context.Context, res collect.TaskResult,
	listingID, listingName, city string, listingRating float64,
	reviewID, author string, rating int, reviewDate, reviewText string,
	hasResponse bool, responseDate, responseText string,
) error {
	_, err := s.db.ExecContext(ctx, insertReview,
		res.TaskID, res.Query.Name, string(res.Outcome),
		listingID, listingName, city, listingRating,
		reviewID, author, rating, reviewDate, reviewText,
		hasResponse, responseDate, responseText,
	)
	if err != nil {
		return fmt.Errorf("insert review %s for %s: %w", reviewID, listingID, err)
	}
	return nil
}
