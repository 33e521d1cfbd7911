package similarity

import (
	"log/slog"

	"review-scout/internal/domain/entity"
)

// Select prunes discovered listings down to those plausibly matching the
// query name. Listings scoring at least max(Floor, best-Band) are kept; when
// nothing reaches the floor, only the single best-scoring listing survives,
// so a task always has a candidate but the aggregate is never polluted by
// unrelated organizations a fuzzy search happened to surface.
func Select(listings []entity.Listing, query string, cfg Config) []entity.Listing {
	if len(listings) == 0 {
		return listings
	}

	scores := make([]float64, len(listings))
	best := 0.0
	bestIdx := 0
	for i, l := range listings {
		scores[i] = Score(l.Name, query)
		if scores[i] > best {
			best = scores[i]
			bestIdx = i
		}
	}

	if best < cfg.Floor {
		slog.Debug("no listing reached similarity floor, keeping best only",
			slog.String("query", query),
			slog.String("best_name", listings[bestIdx].Name),
			slog.Float64("best_score", best))
		return []entity.Listing{listings[bestIdx]}
	}

	cutoff := cfg.Floor
	if band := best - cfg.Band; band > cutoff {
		cutoff = band
	}

	kept := make([]entity.Listing, 0, len(listings))
	for i, l := range listings {
		if scores[i] >= cutoff {
			kept = append(kept, l)
			continue
		}
		slog.Debug("listing pruned by similarity filter",
			slog.String("query", query),
			slog.String("name", l.Name),
			slog.Float64("score", scores[i]),
			slog.Float64("cutoff", cutoff))
	}
	return kept
}
