package game_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/gridtycoon/game"
)

func TestDefaultCatalog_Valid(t *testing.T) {
	cat := game.DefaultCatalog()
	require.NoError(t, cat.Validate())

	solar, ok := cat.Producer("0")
	require.True(t, ok)
	assert.Equal(t, "Solar Panel", solar.Name)
	assert.Equal(t, "1000", solar.BasePrice)
	assert.Equal(t, "2.4", solar.Stats.BaseKwh)
	assert.Equal(t, 60.0, solar.Stats.BaseEfficiency)

	batteries, ok := cat.Upgrade("sp_0")
	require.True(t, ok)
	assert.Equal(t, "750", batteries.Cost)
	assert.Equal(t, []game.UpgradeEffect{{Type: game.EffectKwhAdd, Target: "0", Value: 1}}, batteries.Effects)
}

func TestCatalog_ValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *game.Catalog)
	}{
		{"duplicate producer", func(c *game.Catalog) { c.Producers = append(c.Producers, c.Producers[0]) }},
		{"unknown type", func(c *game.Catalog) { c.Producers[0].Type = "steam" }},
		{"bad price", func(c *game.Catalog) { c.Producers[0].BasePrice = "cheap" }},
		{"negative price", func(c *game.Catalog) { c.Producers[0].BasePrice = "-1" }},
		{"efficiency range", func(c *game.Catalog) { c.Producers[0].Stats.BaseEfficiency = 120 }},
		{"dangling requires", func(c *game.Catalog) { c.Producers[1].Requires = "99" }},
		{"duplicate upgrade", func(c *game.Catalog) { c.Upgrades = append(c.Upgrades, c.Upgrades[0]) }},
		{"unknown effect", func(c *game.Catalog) { c.Upgrades[0].Effects[0].Type = "kwh_pow" }},
		{"unknown bound", func(c *game.Catalog) { c.Upgrades[0].ProducerBound = "99" }},
		{"unknown prerequisite", func(c *game.Catalog) { c.Upgrades[0].Requires = []string{"nope"} }},
		{"weather chance", func(c *game.Catalog) { c.Weather[0].Chance = 1.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := game.DefaultCatalog()
			tt.mutate(cat)

			err := cat.Validate()

			require.ErrorIs(t, err, game.ErrInvalidCatalog)
			var ce *game.CatalogError
			assert.ErrorAs(t, err, &ce)
		})
	}
}

func TestCatalog_AvailableProducers(t *testing.T) {
	cat := game.DefaultCatalog()

	ids := func(ts []game.ProducerTemplate) []string {
		var out []string
		for _, t := range ts {
			out = append(out, t.ItemID)
		}
		return out
	}

	assert.Equal(t, []string{"0", "2"}, ids(cat.AvailableProducers(nil, nil)))

	owned := []game.Producer{{ItemID: "0", Count: 1}, {ItemID: "1", Count: 2}}
	assert.Equal(t, []string{"0", "1", "2", "3"}, ids(cat.AvailableProducers(owned, nil)))
	assert.Equal(t, []string{"0", "1", "2", "3", "4"}, ids(cat.AvailableProducers(owned, []string{"4"})))
	assert.Equal(t, []string{"5", "6", "7"}, ids(cat.LockedProducers(owned, []string{"4"})))

	// dyson needs research and a reactor
	assert.NotContains(t, ids(cat.AvailableProducers(owned, []string{"5"})), "5")
}

func TestCatalog_AvailableUpgrades(t *testing.T) {
	cat := game.DefaultCatalog()

	assert.Empty(t, cat.AvailableUpgrades(nil, nil))

	owned := []game.Producer{{ItemID: "0", Count: 1}}
	got := cat.AvailableUpgrades(owned, nil)
	require.Len(t, got, 1)
	assert.Equal(t, "sp_0", got[0].ID)

	got = cat.AvailableUpgrades(owned, []game.Upgrade{{ID: "sp_0"}})
	require.Len(t, got, 1)
	assert.Equal(t, "sp_1", got[0].ID, "prerequisite met, owned upgrade hidden")
}

func TestGrouping(t *testing.T) {
	cat := game.DefaultCatalog()

	byType := game.ProducersByType(cat.Producers)
	assert.Len(t, byType[game.TypeSolar], 1)
	assert.Len(t, byType[game.TypeNuclear], 1)

	byProducer := game.UpgradesByProducer(cat.Upgrades)
	assert.Len(t, byProducer["0"], 2)
	assert.Len(t, byProducer[""], 1)
}
