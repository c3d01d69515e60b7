package game_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/gridtycoon/game"
)

func sunnyCatalog(length *int) *game.Catalog {
	cat := twinCatalog()
	cat.Weather = []game.Weather{{
		Name: "Sunny", Chance: 1, Length: length,
		Effects: []game.WeatherEffect{{
			Affects: game.ScopeProducerType, ProducerType: game.TypeSolar,
			Mods: []game.Mod{{Type: game.ModKwhMult, Value: "2"}},
		}},
	}}
	return cat
}

func TestSetWeather_FlowsThroughStats(t *testing.T) {
	g := newTestGame(t, twinCatalog())
	require.NoError(t, g.BuyProducer("0", 1))

	require.NoError(t, g.SetWeather(&game.Weather{
		Name: "Eclipse",
		Effects: []game.WeatherEffect{{
			Affects: game.ScopeProducer, ProducerTarget: "0",
			Mods: []game.Mod{{Type: game.ModKwhMult, Value: "0.5"}},
		}},
	}))

	stats, ok := g.ProducerStats("0")
	require.True(t, ok)
	assert.Equal(t, 1.2, stats.TotalKwh)
	assert.Equal(t, "Eclipse", g.Weather().Name)

	require.NoError(t, g.SetWeather(nil))
	assert.Nil(t, g.Weather())
	stats, _ = g.ProducerStats("0")
	assert.Equal(t, 2.4, stats.TotalKwh)
}

func TestSetWeather_RejectsNonPositiveLength(t *testing.T) {
	g := newTestGame(t, nil)
	zero := 0
	assert.ErrorIs(t, g.SetWeather(&game.Weather{Name: "Never", Length: &zero}), game.ErrInvalidModifier)
}

func TestWeather_RolledOnDayRollover(t *testing.T) {
	// GIVEN: a catalog whose only weather always hits and lasts two days
	length := 2
	g := newTestGame(t, sunnyCatalog(&length))
	require.NoError(t, g.BuyProducer("0", 1))
	log := &eventLog{}
	g.Subscribe(log.listen)

	// WHEN: the first day ends
	g.Pulses(pulsesPerDay)

	// THEN: the weather is active and doubles solar output
	w := g.Weather()
	require.NotNil(t, w)
	assert.Equal(t, "Sunny", w.Name)
	assert.Equal(t, 0, w.DaysActive)
	require.Len(t, log.of(game.EventWeather), 1)

	stats, _ := g.ProducerStats("0")
	assert.Equal(t, 4.8, stats.TotalKwh)

	// WHEN: the second day ends, the weather is still within its length
	g.Pulses(pulsesPerDay)
	assert.Equal(t, 1, g.Weather().DaysActive)
	assert.Len(t, log.of(game.EventWeather), 1)

	// WHEN: the third day ends it expires and is re-rolled
	g.Pulses(pulsesPerDay)
	assert.Equal(t, 0, g.Weather().DaysActive)
	assert.Len(t, log.of(game.EventWeather), 2)
}

func TestWeather_NilLengthLastsOneDay(t *testing.T) {
	cat := sunnyCatalog(nil)
	cat.Weather[0].Chance = 0
	g := newTestGame(t, cat)
	require.NoError(t, g.SetWeather(&game.Weather{Name: "Fog"}))

	g.Pulses(pulsesPerDay)

	assert.Nil(t, g.Weather(), "single-day weather expires and nothing new hits")
}
