package powerup

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := NewCatalog(rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	return c
}

func TestNewCatalog_ParsesEmbeddedDefinitions(t *testing.T) {
	c := testCatalog(t)
	require.NotEmpty(t, c.All())
	for _, d := range c.All() {
		assert.NotEmpty(t, d.ID)
		assert.NotEmpty(t, d.Name)
		assert.True(t, d.Kind.Valid(), "kind %q of %q", d.Kind, d.ID)
	}
}

func TestCatalog_ContainsEveryKind(t *testing.T) {
	c := testCatalog(t)
	kinds := make(map[Kind]bool)
	for _, d := range c.All() {
		kinds[d.Kind] = true
	}
	for k := range kindArity {
		assert.True(t, kinds[k], "no catalog entry with kind %q", k)
	}
}

func TestGet(t *testing.T) {
	c := testCatalog(t)
	d, ok := c.Get("clutch_shield")
	require.True(t, ok)
	assert.Equal(t, KindClutchShield, d.Kind)
	assert.Greater(t, d.Value, 0)

	_, ok = c.Get("nonsense")
	assert.False(t, ok)
}

func TestRoll_DistinctIDs(t *testing.T) {
	c := testCatalog(t)
	for i := 0; i < 20; i++ {
		defs := c.Roll(3)
		require.Len(t, defs, 3)
		seen := make(map[string]bool, 3)
		for _, d := range defs {
			require.False(t, seen[d.ID], "duplicate %q in one roll", d.ID)
			seen[d.ID] = true
		}
	}
}

func TestRoll_ClampsToCatalogSize(t *testing.T) {
	c := testCatalog(t)
	defs := c.Roll(len(c.All()) + 10)
	assert.Len(t, defs, len(c.All()))
}

func TestKindArity(t *testing.T) {
	assert.Equal(t, 1, KindAnchorGuess.Arity())
	assert.Equal(t, 2, KindComparator.Arity())
	assert.Equal(t, 0, KindHint.Arity())
	assert.False(t, Kind("teleport").Valid())
}
