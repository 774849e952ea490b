package catalog_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/getaway-planner/internal/catalog"
)

func fixture() []catalog.Destination {
	return []catalog.Destination{
		{Name: "Gokarna", Tagline: "Quiet beaches"},
		{Name: "Coorg", Tagline: "Coffee hills"},
		{Name: "Goa", Tagline: "Sun and sand"},
	}
}

func TestNew_RejectsEmpty(t *testing.T) {
	_, err := catalog.New(nil)
	require.ErrorIs(t, err, catalog.ErrEmptyCatalog)
}

func TestNew_RejectsDuplicateNames(t *testing.T) {
	_, err := catalog.New([]catalog.Destination{{Name: "Coorg"}, {Name: "coorg"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestNew_RejectsBlankName(t *testing.T) {
	_, err := catalog.New([]catalog.Destination{{Name: "  "}})
	require.Error(t, err)
}

func TestAll_PreservesOrderAndIsCopy(t *testing.T) {
	c, err := catalog.New(fixture())
	require.NoError(t, err)

	all := c.All()
	require.Len(t, all, 3)
	assert.Equal(t, "Gokarna", all[0].Name)
	assert.Equal(t, "Goa", all[2].Name)

	all[0].Name = "mutated"
	assert.Equal(t, "Gokarna", c.All()[0].Name)
}

func TestGet_CaseInsensitive(t *testing.T) {
	c, err := catalog.New(fixture())
	require.NoError(t, err)

	d, ok := c.Get("COORG")
	require.True(t, ok)
	assert.Equal(t, "Coorg", d.Name)

	_, ok = c.Get("Atlantis")
	assert.False(t, ok)
}

func TestFindInText(t *testing.T) {
	c, err := catalog.New(fixture())
	require.NoError(t, err)

	d, ok := c.FindInText("I think I'll choose gokarna this time")
	require.True(t, ok)
	assert.Equal(t, "Gokarna", d.Name)

	_, ok = c.FindInText("Choose Atlantis")
	assert.False(t, ok)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "destinations.json")
	body := `[{"name":"Gokarna","comparisonData":{"budget":"₹32,000","travelTime":{"Mumbai":"8 hours"}}}]`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	c, err := catalog.Load(path)
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())
	d, _ := c.Get("gokarna")
	assert.Equal(t, "8 hours", d.ComparisonData.TravelTime["Mumbai"])
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := catalog.Load("/nonexistent/destinations.json")
	require.Error(t, err)
}

func TestParse_BadJSON(t *testing.T) {
	_, err := catalog.Parse([]byte("not-json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding")
}

func TestLoad_ShippedCatalog(t *testing.T) {
	c, err := catalog.Load(filepath.Join("..", "..", "data", "destinations.json"))
	require.NoError(t, err)
	require.NotZero(t, c.Len())

	cities := []string{"Mumbai", "Delhi", "Bangalore", "Pune", "Hyderabad", "Chennai"}
	for _, d := range c.All() {
		assert.NotEmpty(t, d.MatchCriteria.Vibes, d.Name)
		assert.NotEmpty(t, d.MatchCriteria.Interests, d.Name)
		assert.Contains(t, d.ComparisonData.Budget, "₹", d.Name)
		for _, city := range cities {
			assert.Contains(t, d.ComparisonData.TravelTime, city, "%s has no travel time from %s", d.Name, city)
		}
	}
}
