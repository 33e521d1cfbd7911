package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"review-scout/internal/domain/entity"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"corporate prefix stripped", `ООО "Смарт Хоум"`, "смарт хоум"},
		{"latin form stripped", "LLC Smart Home", "smart home"},
		{"industry word dropped", "Клиника Улыбка", "улыбка"},
		{"industry word alone kept", "Клиника", "клиника"},
		{"whitespace collapsed", "  Smart   Home  ", "smart home"},
		{"quotes and punctuation", "«Смарт Хоум», ООО", "смарт хоум ооо"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizedString(tt.in))
		})
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		min  float64
		max  float64
	}{
		{"exact", "Smart Home", "Smart Home", 1.0, 1.0},
		{"exact after normalization", `ООО "Смарт Хоум"`, "Смарт Хоум", 1.0, 1.0},
		{"containment", "Smart Home Agency", "Smart Home", 0.8, 0.9},
		{"partial overlap different entity", "Smart Telecom", "Smart Home", 0.0, 0.59},
		{"disjoint", "Green Garden", "Smart Home", 0.0, 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.a, tt.b)
			assert.GreaterOrEqual(t, got, tt.min, "score below expected band")
			assert.LessOrEqual(t, got, tt.max, "score above expected band")
		})
	}
}

func TestSelect_ThresholdScenario(t *testing.T) {
	listings := []entity.Listing{
		{ID: "1", Name: "Smart Home"},
		{ID: "2", Name: "Smart Home Agency"},
		{ID: "3", Name: "Smart Telecom"},
	}

	kept := Select(listings, "Smart Home", DefaultConfig())

	ids := make([]string, 0, len(kept))
	for _, l := range kept {
		ids = append(ids, l.ID)
	}
	assert.Equal(t, []string{"1", "2"}, ids,
		"full-name containment keeps the first two, disjoint core word drops the third")
}

func TestSelect_NothingReachesFloor_KeepsBestOnly(t *testing.T) {
	listings := []entity.Listing{
		{ID: "1", Name: "Green Garden"},
		{ID: "2", Name: "Smart Telecom"},
	}

	kept := Select(listings, "Smart Home", DefaultConfig())

	assert.Len(t, kept, 1)
	assert.Equal(t, "2", kept[0].ID, "best-scoring listing survives")
}

func TestSelect_Empty(t *testing.T) {
	assert.Empty(t, Select(nil, "Smart Home", DefaultConfig()))
}
