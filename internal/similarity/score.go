package similarity

import "strings"

// Scoring constants. The selection thresholds are empirically tuned values
// carried over from production behaviour; they are exposed as parameters in
// Config rather than rederived.
const (
	containmentBase   = 0.8
	containmentBonus  = 0.1
	firstWordBonus    = 0.1
	uniqueWordPenalty = 0.05

	// DefaultFloor is the minimum score a listing must reach to be kept.
	DefaultFloor = 0.6

	// DefaultBand is how far below the best score other listings may sit
	// and still be kept.
	DefaultBand = 0.15
)

// Config carries the selection thresholds.
type Config struct {
	Floor float64 `yaml:"floor"`
	Band  float64 `yaml:"band"`
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{Floor: DefaultFloor, Band: DefaultBand}
}

// Score rates how plausibly two organization names refer to the same entity,
// in [0, 1]. Both names are normalized first.
//
// Ladder: exact match scores 1.0; full containment of one name in the other
// scores 0.8-0.9; otherwise the word-set overlap ratio (shared words over the
// smaller word set) with a bonus when the leading words agree and a penalty
// per word unique to either side.
func Score(name, query string) float64 {
	a := Normalize(name)
	b := Normalize(query)
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	as := strings.Join(a, " ")
	bs := strings.Join(b, " ")
	if as == bs {
		return 1.0
	}

	if contained, ratio := containment(a, b); contained {
		return clamp(containmentBase + containmentBonus*ratio)
	}

	shared := 0
	aset := toSet(a)
	bset := toSet(b)
	for w := range aset {
		if _, ok := bset[w]; ok {
			shared++
		}
	}
	smaller := len(aset)
	if len(bset) < smaller {
		smaller = len(bset)
	}
	score := float64(shared) / float64(smaller)

	if a[0] == b[0] {
		score += firstWordBonus
	}

	unique := (len(aset) - shared) + (len(bset) - shared)
	score -= uniqueWordPenalty * float64(unique)

	return clamp(score)
}

// containment reports whether the shorter word sequence appears in full
// inside the longer one, and how much of the longer one it covers. Coverage
// spreads the result over the 0.8-0.9 band: "Smart Home" inside "Smart Home
// Agency" scores higher than inside a five-word name.
func containment(a, b []string) (bool, float64) {
	short, long := a, b
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 || len(long) == 0 || len(short) == len(long) {
		return false, 0
	}
	joined := " " + strings.Join(long, " ") + " "
	needle := " " + strings.Join(short, " ") + " "
	if !strings.Contains(joined, needle) {
		return false, 0
	}
	return true, float64(len(short)) / float64(len(long))
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
