// Package extract implements layered field extraction from content source
// snapshots. Each field is served by an ordered chain of strategies (ranked
// structural queries, node attributes, regex over flattened text, and a
// longest-fragment fallback); the first strategy whose value passes the
// field's validator wins. Strategies never fail loudly: an unmatched tier
// reports absent and the next tier takes over.
package extract

// Tier identifies which extraction strategy produced a value.
type Tier int

const (
	// TierStructural is a ranked structural (CSS) query.
	TierStructural Tier = iota + 1

	// TierAttribute reads machine-readable metadata on the node itself.
	TierAttribute

	// TierRegex matches a pattern over the node's flattened visible text.
	TierRegex

	// TierFallback takes the longest qualifying text fragment among children.
	TierFallback
)

// String returns the tier name used in logs and metrics labels.
func (t Tier) String() string {
	switch t {
	case TierStructural:
		return "structural"
	case TierAttribute:
		return "attribute"
	case TierRegex:
		return "regex"
	case TierFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Result is the typed outcome of one extraction attempt: a found value tagged
// with the tier that produced it, or absent.
type Result struct {
	Value string
	Tier  Tier
	OK    bool
}

// Found wraps a value produced by the given tier.
func Found(value string, tier Tier) Result {
	return Result{Value: value, Tier: tier, OK: true}
}

// Absent reports that no strategy produced a usable value.
func Absent() Result {
	return Result{}
}
