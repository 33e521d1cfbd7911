package review

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"review-scout/internal/domain/entity"
	"review-scout/internal/extract"
	"review-scout/internal/extract/datetext"
	"review-scout/internal/observability/metrics"
)

// Normalizer turns raw review nodes into entity.Review records. It is
// stateful on purpose: settle loops re-snapshot the whole review list on
// every growth step, so the same nodes arrive again and again, and the
// normalizer must absorb repeats without ever growing the result. Response
// nodes carry no id of their own and are attached to the review that
// precedes them in document order.
type Normalizer struct {
	extractor *extract.Extractor
	detector  *ResponseDetector
	logger    *slog.Logger
	now       func() time.Time

	seen map[string]*entity.Review
	out  []*entity.Review
	last *entity.Review
}

// NewNormalizer builds a normalizer for one listing. The listing name feeds
// organization-reply detection.
func NewNormalizer(ex *extract.Extractor, listingName string, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{
		extractor: ex,
		detector:  NewResponseDetector(listingName),
		logger:    logger,
		now:       time.Now,
		seen:      make(map[string]*entity.Review),
	}
}

// Batch folds one snapshot of review nodes into the accumulated result.
// It returns how many previously-unseen reviews the snapshot contributed.
func (n *Normalizer) Batch(nodes []*goquery.Selection) int {
	added := 0
	for _, node := range nodes {
		if n.fold(node) {
			added++
		}
	}
	return added
}

// Reviews returns the deduplicated reviews in document order.
func (n *Normalizer) Reviews() []entity.Review {
	out := make([]entity.Review, len(n.out))
	for i, r := range n.out {
		out[i] = *r
	}
	return out
}

func (n *Normalizer) fold(node *goquery.Selection) bool {
	author := n.field(extract.FieldReviewAuthor, node)
	text := n.field(extract.FieldReviewText, node)
	rawDate := n.field(extract.FieldReviewDate, node)

	if author == "" && text == "" {
		metrics.RecordNodeSkipped("no_signal")
		return false
	}

	if n.detector.IsResponse(node, author, text) {
		n.foldResponse(node, text, rawDate)
		return false
	}

	id := n.field(extract.FieldReviewID, node)
	if id == "" {
		id = SyntheticID(author, rawDate, text)
	}

	if prior, ok := n.seen[id]; ok {
		metrics.RecordReviewDeduplicated()
		n.last = prior
		return false
	}

	rev := &entity.Review{
		ID:     id,
		Author: author,
		Rating: parseStars(n.field(extract.FieldReviewRating, node)),
		Text:   text,
		Date:   n.resolveDate(rawDate),
	}

	n.seen[id] = rev
	n.out = append(n.out, rev)
	n.last = rev
	metrics.RecordReviewCollected("review")
	return true
}

func (n *Normalizer) foldResponse(node *goquery.Selection, text, rawDate string) {
	if n.last == nil {
		metrics.RecordNodeSkipped("orphan_response")
		n.logger.Debug("response node with no preceding review, skipped")
		return
	}
	if n.last.HasResponse {
		// Re-seen snapshot of a response already attached.
		metrics.RecordReviewDeduplicated()
		return
	}

	id := n.field(extract.FieldReviewID, node)
	if id == "" {
		id = SyntheticID(n.last.Author, rawDate, text)
	}

	n.last.HasResponse = true
	n.last.Response = &entity.Response{
		ID:   id,
		Text: text,
		Date: datetext.ResolveResponse(rawDate, n.last.Date, n.now()),
	}
	metrics.RecordReviewCollected("response")
}

func (n *Normalizer) field(name string, node *goquery.Selection) string {
	res := n.extractor.Extract(name, node)
	if !res.OK {
		return ""
	}
	return strings.TrimSpace(res.Value)
}

func (n *Normalizer) resolveDate(raw string) entity.DateValue {
	if raw == "" {
		return entity.DateValue{}
	}
	return datetext.Resolve(raw, n.now())
}

var starsRe = regexp.MustCompile(`\d+(?:[.,]\d+)?`)

// parseStars reads a star rating out of free text ("5", "4,5 из 5",
// "Оценка: 3"). Anything outside 1..5 collapses to 0, the unknown rating.
func parseStars(s string) int {
	m := starsRe.FindString(s)
	if m == "" {
		return 0
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", "."), 64)
	if err != nil {
		return 0
	}
	stars := int(f + 0.5)
	if stars < 1 || stars > 5 {
		return 0
	}
	return stars
}
