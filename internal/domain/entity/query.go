// Package entity defines the core domain entities and validation logic for the
// application. It contains the fundamental business objects such as Listing,
// Review and SearchQuery, along with their validation rules and domain-specific
// errors.
package entity

import "fmt"

// Scope determines how wide a search task casts its net.
type Scope string

const (
	// ScopeCity limits discovery to a single city.
	ScopeCity Scope = "city"

	// ScopeCountry fans discovery out over every configured city.
	ScopeCountry Scope = "country"
)

// SearchQuery describes one collection task. It is immutable for the life of
// the task: the pipeline receives it by value and never writes it back.
type SearchQuery struct {
	// Name is the target organization name to search for.
	Name string

	// Site optionally pins the search to one content source profile.
	Site string

	// Address optionally narrows fuzzy matches by street address.
	Address string

	// Scope selects city or country wide discovery.
	Scope Scope

	// City is the city to search in when Scope is ScopeCity.
	City string

	// Cities is the city list a country-scope task walks sequentially.
	Cities []string

	// MaxRecords caps how many listings the task collects. Zero means the
	// configured default applies.
	MaxRecords int
}

// Validate checks that the query is complete enough to run a task.
func (q *SearchQuery) Validate() error {
	if q.Name == "" {
		return &ValidationError{Field: "Name", Message: "query name must not be empty"}
	}

	switch q.Scope {
	case ScopeCity:
		if q.City == "" {
			return &ValidationError{Field: "City", Message: "city scope requires a city"}
		}
	case ScopeCountry:
		if len(q.Cities) == 0 {
			return &ValidationError{Field: "Cities", Message: "country scope requires at least one city"}
		}
	default:
		return &ValidationError{Field: "Scope", Message: fmt.Sprintf("unknown scope %q (must be city or country)", q.Scope)}
	}

	if q.MaxRecords < 0 {
		return &ValidationError{Field: "MaxRecords", Message: "max records must not be negative"}
	}

	return nil
}
