package factory_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/gridtycoon/factory"
	"github.com/warp/gridtycoon/game"
	"gopkg.in/yaml.v3"
)

func TestLoadFile_YAML(t *testing.T) {
	f := factory.NewCatalogFactory()

	cat, err := f.LoadFile(filepath.Join("testdata", "catalog.yaml"))
	require.NoError(t, err)

	require.Len(t, cat.Producers, 3)
	solar, ok := cat.Producer("0")
	require.True(t, ok)
	assert.Equal(t, game.TypeSolar, solar.Type)
	assert.Equal(t, "1000", solar.BasePrice)
	assert.Equal(t, "1000", solar.CurrentPrice)
	assert.Equal(t, game.BaseStats{BaseKwh: "2.4", BaseEfficiency: 60}, solar.Stats)

	reactor, ok := cat.Producer("2")
	require.True(t, ok)
	assert.True(t, reactor.ResearchLocked)
	assert.Equal(t, "90000000000000000000", reactor.BasePrice, "amounts stay exact")

	wind, _ := cat.Producer("1")
	assert.Equal(t, "0", wind.Requires)
	assert.Equal(t, 0.5, wind.Risk)

	require.Len(t, cat.Weather, 2)
	assert.Equal(t, 2, *cat.Weather[0].Length)
	assert.Nil(t, cat.Weather[1].Length, "no length means a single day")
	assert.Equal(t, game.ScopeProducerType, cat.Weather[0].Effects[0].Affects)
	assert.Equal(t, []game.Mod{{Type: game.ModKwhMult, Value: "1.5"}}, cat.Weather[0].Effects[0].Mods)
}

func TestLoadFile_JSON(t *testing.T) {
	f := factory.NewCatalogFactory()

	cat, err := f.LoadFile(filepath.Join("testdata", "catalog.json"))
	require.NoError(t, err)

	require.Len(t, cat.Producers, 1)
	require.Len(t, cat.Upgrades, 1)
	assert.Equal(t, []game.UpgradeEffect{{Type: game.EffectKwhAdd, Target: "0", Value: 1}}, cat.Upgrades[0].Effects)
	assert.Empty(t, cat.Weather)
}

func TestLoadFile_Errors(t *testing.T) {
	f := factory.NewCatalogFactory()

	_, err := f.LoadFile(filepath.Join("testdata", "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "catalog.toml")
	require.NoError(t, os.WriteFile(path, []byte("x = 1"), 0o644))
	_, err = f.LoadFile(path)
	assert.ErrorContains(t, err, "unsupported catalog format")
}

func TestUpgradeCategories(t *testing.T) {
	cat, err := factory.NewCatalogFactory().LoadFile(filepath.Join("testdata", "catalog.yaml"))
	require.NoError(t, err)

	tests := []struct {
		id   string
		want game.UpgradeCategory
	}{
		{"sp_0", game.CategoryKwh},        // derived: targeted kwh effect
		{"sp_1", game.CategoryEfficiency}, // explicit
		{"wk_0", game.CategoryWorker},     // derived: worker effect
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			u, ok := cat.Upgrade(tt.id)
			require.True(t, ok)
			assert.Equal(t, tt.want, u.Category)
		})
	}

	sp1, _ := cat.Upgrade("sp_1")
	assert.Equal(t, []string{"sp_0"}, sp1.Requires)
	assert.True(t, sp1.Effects[0].IsPercentage)
}

func TestParse_Rejects(t *testing.T) {
	f := factory.NewCatalogFactory()

	tests := []struct {
		name string
		doc  string
	}{
		{"unknown producer type", `
producers:
  - {item_id: "0", name: X, type: steam, base_price: "1", base_kwh: "1", base_efficiency: 50}
`},
		{"bad price", `
producers:
  - {item_id: "0", name: X, type: solar, base_price: "lots", base_kwh: "1", base_efficiency: 50}
`},
		{"unknown category", `
producers:
  - {item_id: "0", name: X, type: solar, base_price: "1", base_kwh: "1", base_efficiency: 50}
upgrades:
  - {id: u, name: U, cost: "1", category: magic, effects: [{type: kwh_add, value: 1}]}
`},
		{"dangling requires", `
producers:
  - {item_id: "0", name: X, type: solar, base_price: "1", base_kwh: "1", base_efficiency: 50, requires: "9"}
`},
		{"unknown weather mod", `
producers:
  - {item_id: "0", name: X, type: solar, base_price: "1", base_kwh: "1", base_efficiency: 50}
weather:
  - {name: Fog, chance: 0.5, effects: [{affects: global, mods: [{type: kwh_pow, value: "2"}]}]}
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ParseYAML([]byte(tt.doc))
			assert.ErrorIs(t, err, game.ErrInvalidCatalog)
		})
	}

	_, err := f.ParseYAML([]byte("producers: [unterminated"))
	assert.ErrorContains(t, err, "failed to parse catalog YAML")
	_, err = f.ParseJSON([]byte("{"))
	assert.ErrorContains(t, err, "failed to parse catalog JSON")
}

func TestToDef_RoundTripsDefaultCatalog(t *testing.T) {
	// GIVEN: the built-in catalog written out as YAML
	f := factory.NewCatalogFactory()
	def := f.ToDef(game.DefaultCatalog())
	data, err := yaml.Marshal(def)
	require.NoError(t, err)

	// WHEN: it is parsed back
	cat, err := f.ParseYAML(data)
	require.NoError(t, err)

	// THEN: the same rules of the world come out
	want := game.DefaultCatalog()
	assert.Equal(t, len(want.Producers), len(cat.Producers))
	for _, p := range want.Producers {
		got, ok := cat.Producer(p.ItemID)
		require.True(t, ok, p.ItemID)
		assert.Equal(t, p.BasePrice, got.BasePrice)
		assert.Equal(t, p.Stats, got.Stats)
		assert.Equal(t, p.Requires, got.Requires)
		assert.Equal(t, p.ResearchLocked, got.ResearchLocked)
	}
	for _, u := range want.Upgrades {
		got, ok := cat.Upgrade(u.ID)
		require.True(t, ok, u.ID)
		assert.Equal(t, u.Cost, got.Cost)
		assert.Equal(t, u.Category, got.Category)
		assert.Equal(t, u.Effects, got.Effects)
	}
	assert.Equal(t, len(want.Weather), len(cat.Weather))
}
