package review

import (
	"strings"

	"review-scout/internal/domain/entity"
)

// negativeMarkers are counted (and stripped) before positives so that
// "не рекомендую" never feeds the "рекомендую" positive marker.
var negativeMarkers = []string{
	"не рекомендую", "никогда больше", "ужас", "кошмар", "отвратительн",
	"хамств", "грубо", "обман", "развод", "разочарован", "недоволен",
	"недовольна", "плохо", "худш",
	"never again", "terrible", "awful", "horrible", "rude", "scam",
	"worst", "disappointed", "useless",
}

var positiveMarkers = []string{
	"отличн", "прекрасн", "замечательн", "великолепн", "рекомендую",
	"советую", "спасибо", "вежлив", "понравил", "доволен", "довольна",
	"супер", "лучш", "профессионал",
	"excellent", "great", "amazing", "wonderful", "recommend", "friendly",
	"perfect", "awesome", "helpful", "love it",
}

// Classifier buckets reviews into sentiment classes. Stars decide the bucket
// (1-2 negative, 3 neutral, 4-5 positive); a keyword-polarity score that
// disagrees by at least OverrideScore in the opposite direction flips it,
// because displayed stars and visible text occasionally disagree on these
// sources. Ties default to the star bucket.
type Classifier struct {
	// OverrideScore is the minimum |polarity| required to override the star
	// bucket. The production value is 2; it is tuned, not derived.
	OverrideScore int
}

// NewClassifier returns a classifier with the production override threshold.
func NewClassifier() Classifier {
	return Classifier{OverrideScore: 2}
}

// Classify buckets one review. A zero rating means unknown; then the text
// polarity alone decides, and a flat text leaves the review unbucketed.
func (c Classifier) Classify(rating int, text string) entity.Sentiment {
	score := Polarity(text)

	if rating < 1 || rating > 5 {
		switch {
		case score > 0:
			return entity.SentimentPositive
		case score < 0:
			return entity.SentimentNegative
		default:
			return entity.SentimentUnknown
		}
	}

	bucket := starBucket(rating)
	threshold := c.OverrideScore
	if threshold <= 0 {
		threshold = 2
	}

	switch bucket {
	case entity.SentimentPositive:
		if score <= -threshold {
			return entity.SentimentNegative
		}
	case entity.SentimentNegative:
		if score >= threshold {
			return entity.SentimentPositive
		}
	}
	return bucket
}

// Polarity counts positive markers minus negative markers in the text.
// Negative phrases are stripped as they match so their substrings cannot be
// double-counted as positives.
func Polarity(text string) int {
	lowered := strings.ToLower(text)
	score := 0
	for _, m := range negativeMarkers {
		for strings.Contains(lowered, m) {
			score--
			lowered = strings.Replace(lowered, m, " ", 1)
		}
	}
	for _, m := range positiveMarkers {
		for strings.Contains(lowered, m) {
			score++
			lowered = strings.Replace(lowered, m, " ", 1)
		}
	}
	return score
}

func starBucket(rating int) entity.Sentiment {
	switch {
	case rating <= 2:
		return entity.SentimentNegative
	case rating == 3:
		return entity.SentimentNeutral
	default:
		return entity.SentimentPositive
	}
}
