package game_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/gridtycoon/game"
)

func solarProducer(count int) game.Producer {
	return game.Producer{
		ID: "p-1", ItemID: "0", Type: game.TypeSolar, Count: count,
		Stats: game.BaseStats{BaseKwh: "2.4", BaseEfficiency: 60},
	}
}

func kwhAdd(target string, v float64) game.Upgrade {
	return game.Upgrade{ID: "kwh-add", Effects: []game.UpgradeEffect{{Type: game.EffectKwhAdd, Target: target, Value: v}}}
}

// =============================================================================
// PRODUCER STATS
// =============================================================================

func TestComputeProducerStats_UpgradeScenario(t *testing.T) {
	// GIVEN: baseKwh 2.4, efficiency 60, count 3, one +1 kwh_add upgrade on it
	in := game.StatsInput{
		Producer:  solarProducer(3),
		Upgrades:  []game.Upgrade{kwhAdd("0", 1)},
		Workforce: true,
	}

	// WHEN: stats are computed
	got := game.ComputeProducerStats(in)

	// THEN: (2.4+1)*3 = 10.2 and 10.2*0.6 = 6.12
	assert.Equal(t, 10.2, got.TotalKwh)
	assert.Equal(t, 6.12, got.EffectiveKwh)
	assert.Equal(t, 60.0, got.TotalEfficiency)
	assert.Equal(t, got.EffectiveKwh, got.ProfitPerHour)
}

func TestComputeProducerStats_UpgradeTargetingOtherProducerIgnored(t *testing.T) {
	got := game.ComputeProducerStats(game.StatsInput{
		Producer: solarProducer(1),
		Upgrades: []game.Upgrade{kwhAdd("9", 100)},
	})
	assert.Equal(t, 2.4, got.TotalKwh)
}

func TestComputeProducerStats_UntargetedUpgradeIsGlobal(t *testing.T) {
	got := game.ComputeProducerStats(game.StatsInput{
		Producer: solarProducer(1),
		Upgrades: []game.Upgrade{kwhAdd("", 1.6)},
	})
	assert.Equal(t, 4.0, got.TotalKwh)
}

func TestComputeProducerStats_UpgradeMultIsPercentModifierMultIsRaw(t *testing.T) {
	// GIVEN: a 10 kWh producer at 100% efficiency
	p := game.Producer{ID: "p", ItemID: "x", Type: game.TypeWind, Count: 1,
		Stats: game.BaseStats{BaseKwh: "10", BaseEfficiency: 100}}

	// WHEN: an upgrade adds 50 (percent) and a modifier multiplies by 2 (raw)
	got := game.ComputeProducerStats(game.StatsInput{
		Producer: p,
		Upgrades: []game.Upgrade{{ID: "u", Effects: []game.UpgradeEffect{
			{Type: game.EffectKwhMult, Value: 50, IsPercentage: true},
		}}},
		Modifiers: []game.Modifier{{ID: "m", Affects: game.ScopeGlobal, Length: 5,
			Mods: []game.Mod{{Type: game.ModKwhMult, Value: "2"}}}},
	})

	// THEN: 10 * 1.5 * 2
	assert.Equal(t, 30.0, got.TotalKwh)
	assert.Equal(t, 30.0, got.EffectiveKwh)
}

func TestComputeProducerStats_ModifierScopes(t *testing.T) {
	boost := func(m game.Modifier) game.Modifier {
		m.ID, m.Length = "m", 1
		m.Mods = []game.Mod{{Type: game.ModKwhAdd, Value: "1"}}
		return m
	}
	tests := []struct {
		name string
		mod  game.Modifier
		want float64
	}{
		{"global", boost(game.Modifier{Affects: game.ScopeGlobal}), 3.4},
		{"same producer", boost(game.Modifier{Affects: game.ScopeProducer, Producer: "0"}), 3.4},
		{"other producer", boost(game.Modifier{Affects: game.ScopeProducer, Producer: "1"}), 2.4},
		{"same type", boost(game.Modifier{Affects: game.ScopeProducerType, ProducerType: game.TypeSolar}), 3.4},
		{"other type", boost(game.Modifier{Affects: game.ScopeProducerType, ProducerType: game.TypeWind}), 2.4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := game.ComputeProducerStats(game.StatsInput{
				Producer:  solarProducer(1),
				Modifiers: []game.Modifier{tt.mod},
			})
			assert.Equal(t, tt.want, got.TotalKwh)
		})
	}
}

func TestComputeProducerStats_ZeroCount(t *testing.T) {
	got := game.ComputeProducerStats(game.StatsInput{Producer: solarProducer(0)})
	assert.Zero(t, got.TotalKwh)
	assert.Zero(t, got.EffectiveKwh)
}

// =============================================================================
// WORKFORCE
// =============================================================================

func TestCompetenceContribution_Tiers(t *testing.T) {
	tests := []struct {
		competence float64
		want       float64
	}{
		{0, -140},
		{50, -40},
		{69, -2},
		{70, 0},
		{85, 30},
		{99, 58},
		{100, 30},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, game.CompetenceContribution(tt.competence), "competence %v", tt.competence)
	}
}

func TestComputeProducerStats_EfficiencyClampsAtZero(t *testing.T) {
	// GIVEN: one incompetent worker, 60 - 140 would go negative
	in := game.StatsInput{
		Producer:  solarProducer(3),
		Workers:   []game.Worker{{ID: "w", ProducerID: "p-1", Competence: 0}},
		Workforce: true,
	}

	got := game.ComputeProducerStats(in)

	assert.Equal(t, 0.0, got.TotalEfficiency)
	assert.Equal(t, 0.0, got.EffectiveKwh)
	assert.Equal(t, 7.2, got.TotalKwh)
}

func TestComputeProducerStats_EfficiencyClampsAtHundred(t *testing.T) {
	workers := []game.Worker{
		{ID: "a", ProducerID: "p-1", Competence: 100},
		{ID: "b", ProducerID: "p-1", Competence: 100},
	}
	got := game.ComputeProducerStats(game.StatsInput{Producer: solarProducer(1), Workers: workers, Workforce: true})

	assert.Equal(t, 100.0, got.TotalEfficiency)
	assert.Equal(t, 2.4, got.EffectiveKwh)
}

func TestComputeProducerStats_InactiveWorkersIgnored(t *testing.T) {
	workers := []game.Worker{
		{ID: "benched", ProducerID: "p-1", Competence: 100, Bench: &game.Bench{DaysRemaining: 2}},
		{ID: "suppressed", ProducerID: "p-1", Competence: 100, Suppressed: true},
		{ID: "elsewhere", ProducerID: "p-2", Competence: 100},
	}
	got := game.ComputeProducerStats(game.StatsInput{Producer: solarProducer(1), Workers: workers, Workforce: true})
	assert.Equal(t, 60.0, got.TotalEfficiency)
}

func TestComputeProducerStats_WorkforceDisabled(t *testing.T) {
	workers := []game.Worker{{ID: "w", ProducerID: "p-1", Competence: 0}}
	got := game.ComputeProducerStats(game.StatsInput{Producer: solarProducer(1), Workers: workers})
	assert.Equal(t, 60.0, got.TotalEfficiency)
}

func TestComputeProducerStats_CompetenceUpgrade(t *testing.T) {
	// GIVEN: a worker at 90 and a +20 competence upgrade, capped at 100
	workers := []game.Worker{{ID: "w", ProducerID: "p-1", Competence: 90}}
	upgrades := []game.Upgrade{{ID: "u", Effects: []game.UpgradeEffect{{Type: game.EffectWorkerCompetence, Value: 20}}}}

	got := game.ComputeProducerStats(game.StatsInput{
		Producer: solarProducer(1), Workers: workers, Upgrades: upgrades, Workforce: true,
	})

	// THEN: the worker counts as a master (+30)
	assert.Equal(t, 90.0, got.TotalEfficiency)
}

func TestComputeWorkerStats(t *testing.T) {
	workers := []game.Worker{
		{ID: "a", ProducerID: "p-1", Wage: 13, Competence: 80},
		{ID: "b", ProducerID: "p-1", Wage: 7, Competence: 60, Bench: &game.Bench{DaysRemaining: 1}},
		{ID: "c", ProducerID: "p-2", Wage: 100},
	}
	upgrades := []game.Upgrade{{ID: "u", Effects: []game.UpgradeEffect{
		{Type: game.EffectWageEfficiency, Value: 10, IsPercentage: true},
	}}}

	got := game.ComputeWorkerStats("p-1", "0", workers, upgrades)

	assert.Equal(t, 2, got.Workers)
	assert.Equal(t, 1, got.Active)
	assert.Equal(t, 20.0, got.TotalWageCost)
	assert.Equal(t, 18.0, got.EffectiveWageCost)
	assert.Equal(t, 20.0, got.Efficiency)
}

// =============================================================================
// GAME-LEVEL QUERIES
// =============================================================================

func TestGame_ProducerStats_NotFoundForUnowned(t *testing.T) {
	g := newTestGame(t, twinCatalog())

	_, ok := g.ProducerStats("0")

	assert.False(t, ok, "unowned producer must report not-found, not zero stats")
}

func TestGame_ProducerStats_Scenario(t *testing.T) {
	// GIVEN: 3 solar panels and the +1 kWh battery upgrade
	g := newTestGame(t, twinCatalog())
	require.NoError(t, g.BuyProducer("0", 3))
	require.NoError(t, g.BuyUpgrade("sp_0"))

	// WHEN
	stats, ok := g.ProducerStats("0")

	// THEN
	require.True(t, ok)
	assert.Equal(t, 10.2, stats.TotalKwh)
	assert.Equal(t, 6.12, stats.EffectiveKwh)
	assert.Equal(t, "6.12", g.TotalIncome())
}

func TestGame_WorkerStats(t *testing.T) {
	g := newTestGame(t, twinCatalog())
	require.NoError(t, g.BuyProducer("0", 1))
	producerID := g.Producers()[0].ID

	_, err := g.HireWorker(producerID, game.WorkerTemplate{JobName: "Technician", Wage: 13, Competence: 75})
	require.NoError(t, err)

	stats, ok := g.WorkerStats(producerID)
	require.True(t, ok)
	assert.Equal(t, 13.0, stats.TotalWageCost)
	assert.Equal(t, 10.0, stats.Efficiency)

	_, ok = g.WorkerStats("missing")
	assert.False(t, ok)
}
