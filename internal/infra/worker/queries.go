package worker

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"review-scout/internal/domain/entity"
)

// queryFile is the on-disk shape of the scheduled queries list.
type queryFile struct {
	Queries []querySpec `yaml:"queries"`
}

type querySpec struct {
	Name       string   `yaml:"name"`
	Scope      string   `yaml:"scope"`
	City       string   `yaml:"city"`
	Cities     []string `yaml:"cities"`
	Site       string   `yaml:"site"`
	Address    string   `yaml:"address"`
	MaxRecords int      `yaml:"max_records"`
}

// LoadQueries reads the scheduled queries file and validates every entry.
// An empty file is an error: a worker with nothing to collect is
// misconfigured.
func LoadQueries(path string) ([]entity.SearchQuery, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read queries file %s: %w", path, err)
	}

	var f queryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse queries file %s: %w", path, err)
	}
	if len(f.Queries) == 0 {
		return nil, fmt.Errorf("queries file %s lists no queries", path)
	}

	queries := make([]entity.SearchQuery, 0, len(f.Queries))
	for i, q := range f.Queries {
		query := entity.SearchQuery{
			Name:       q.Name,
			Scope:      entity.Scope(q.Scope),
			City:       q.City,
			Cities:     q.Cities,
			Site:       q.Site,
			Address:    q.Address,
			MaxRecords: q.MaxRecords,
		}
		if query.Scope == "" {
			query.Scope = entity.ScopeCity
		}
		if err := query.Validate(); err != nil {
			return nil, fmt.Errorf("queries file %s entry %d: %w", path, i, err)
		}
		queries = append(queries, query)
	}
	return queries, nil
}
