package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()

	assert.Equal(t, "MDL", c.Currency())
	plans := c.All()
	require.Len(t, plans, 9)
	assert.Equal(t, "plan1", plans[0].ID)
	assert.Equal(t, "plan9", plans[8].ID)
	assert.Equal(t, AllCategories, []string{"standard", "pro", "individual", "transport"})
	assert.Equal(t, []string{"individual", "pro", "standard", "transport"}, c.Categories())

	p, err := c.Lookup("plan1")
	require.NoError(t, err)
	assert.True(t, p.EffectivePrice().Equal(decimal.NewFromInt(900)))

	p, err = c.Lookup("plan6")
	require.NoError(t, err)
	assert.Nil(t, p.DiscountPrice)
	assert.True(t, p.EffectivePrice().Equal(decimal.NewFromInt(2250)))

	_, err = c.Lookup("plan42")
	assert.Equal(t, ErrPlanNotFound, err)
}

func TestCatalog_ByCategory(t *testing.T) {
	c := Default()

	ids := func(plans []Plan) []string {
		out := make([]string, 0, len(plans))
		for _, p := range plans {
			out = append(out, p.ID)
		}
		return out
	}

	assert.Equal(t, []string{"plan3", "plan5"}, ids(c.ByCategory(CategoryPro)))
	assert.Equal(t, []string{"plan8", "plan9"}, ids(c.ByCategory(CategoryTransport)))
	assert.Empty(t, c.ByCategory("unknown"))
}

func TestCatalog_Candidate(t *testing.T) {
	c := Default()

	cand, err := c.Candidate("plan7")
	require.NoError(t, err)
	assert.Equal(t, "plan7", cand.ID)
	assert.Equal(t, "Abonament Individual 10 Antrenamente", cand.Name)
	require.NotNil(t, cand.DiscountPrice)
	assert.True(t, cand.DiscountPrice.Equal(decimal.NewFromInt(4185)))

	_, err = c.Candidate("nope")
	assert.Equal(t, ErrPlanNotFound, err)

	en, ok := c.Enrichment("plan4")
	assert.True(t, ok)
	assert.Equal(t, 24, en.Sessions)
	assert.Equal(t, "3 luni", en.Duration)
	assert.Equal(t, CategoryStandard, en.Category)

	_, ok = c.Enrichment("nope")
	assert.False(t, ok)
}

func TestNew_invalid(t *testing.T) {
	price := decimal.NewFromInt(100)
	neg := decimal.NewFromInt(-1)

	tests := []struct {
		name  string
		plans []Plan
	}{
		{name: "missing id", plans: []Plan{{Name: "a", Price: price}}},
		{name: "missing name", plans: []Plan{{ID: "a", Price: price}}},
		{name: "zero price", plans: []Plan{{ID: "a", Name: "a"}}},
		{name: "negative discount", plans: []Plan{{ID: "a", Name: "a", Price: price, DiscountPrice: &neg}}},
		{name: "duplicate id", plans: []Plan{{ID: "a", Name: "a", Price: price}, {ID: " a ", Name: "b", Price: price}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New("MDL", tc.plans...)
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Len(t, c.All(), 9)

	dir := t.TempDir()
	path := filepath.Join(dir, "plans.yaml")
	data := []byte(`currency: EUR
plans:
  - id: summer
    name: Summer camp
    sessions: 10
    duration: 2 weeks
    price: "150.50"
    category: pro
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	c, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "EUR", c.Currency())
	p, err := c.Lookup("summer")
	require.NoError(t, err)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("150.50")))

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("plans: [{id: x, name: x, price: 0}]"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}
