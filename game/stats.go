package game

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/warp/gridtycoon/numeric"
)

// Competence tiers.
const (
	CompetenceBaseline = 70
	CompetenceMax      = 100
	MasteryBonus       = 30
)

// StatsInput is everything the production fold reads. It is a plain value
// so the fold stays pure and testable without a Game.
type StatsInput struct {
	Producer  Producer
	Workers   []Worker
	Upgrades  []Upgrade
	Modifiers []Modifier
	Workforce bool
}

// ProducerStats is the derived production record for one owned producer.
type ProducerStats struct {
	ItemID          string  `json:"itemId"`
	Count           int     `json:"count"`
	TotalKwh        float64 `json:"totalKwh"`
	TotalEfficiency float64 `json:"totalEfficiency"`
	EffectiveKwh    float64 `json:"effectiveKwh"`
	ProfitPerHour   float64 `json:"profitPerHour"`
}

// WorkerStats summarizes the staff of one producer.
type WorkerStats struct {
	ProducerID        string  `json:"producerId"`
	Workers           int     `json:"workers"`
	Active            int     `json:"active"`
	TotalWageCost     float64 `json:"totalWageCost"`
	EffectiveWageCost float64 `json:"effectiveWageCost"`
	Efficiency        float64 `json:"efficiency"`
}

// ComputeProducerStats folds efficiency, upgrades and modifiers in a fixed
// order: workforce tiers, upgrade kwh (percentage mult), modifier kwh (raw
// factor), then count and efficiency.
func ComputeProducerStats(in StatsInput) ProducerStats {
	p := in.Producer

	efficiency := p.Stats.BaseEfficiency
	if in.Workforce {
		bonus := competenceBonus(p.ItemID, in.Upgrades)
		for _, w := range in.Workers {
			if w.ProducerID != p.ID || !w.Active() {
				continue
			}
			efficiency += CompetenceContribution(math.Min(w.Competence+bonus, CompetenceMax))
		}
	}
	efficiency = clamp(efficiency, 0, 100)

	baseKwh := numeric.Parse(p.Stats.BaseKwh).Float64()
	multiplier := 1.0

	for _, u := range in.Upgrades {
		for _, e := range u.Effects {
			if !e.AppliesTo(p.ItemID) {
				continue
			}
			switch e.Type {
			case EffectKwhAdd:
				baseKwh += e.Value
			case EffectKwhMult:
				multiplier *= 1 + e.Value/100
			}
		}
	}

	for _, m := range in.Modifiers {
		if !m.AppliesTo(p.ItemID, p.Type) {
			continue
		}
		for _, mod := range m.Mods {
			v := numeric.Parse(mod.Value).Float64()
			switch mod.Type {
			case ModKwhAdd:
				baseKwh += v
			case ModKwhMult:
				multiplier *= v
			}
		}
	}

	totalKwh := round2(baseKwh * multiplier * float64(p.Count))
	effectiveKwh := round2(totalKwh * (efficiency / 100))

	return ProducerStats{
		ItemID:          p.ItemID,
		Count:           p.Count,
		TotalKwh:        totalKwh,
		TotalEfficiency: efficiency,
		EffectiveKwh:    effectiveKwh,
		ProfitPerHour:   effectiveKwh,
	}
}

// CompetenceContribution is the efficiency delta of one worker.
//
//	competence < 70   → -2 * (70 - competence)
//	competence == 100 → +30
//	otherwise         → +2 * (competence - 70)
func CompetenceContribution(competence float64) float64 {
	switch {
	case competence < CompetenceBaseline:
		return -2 * (CompetenceBaseline - competence)
	case competence >= CompetenceMax:
		return MasteryBonus
	default:
		return 2 * (competence - CompetenceBaseline)
	}
}

// ComputeWorkerStats sums wages of every worker assigned to producerID and
// the efficiency contribution of the active ones.
func ComputeWorkerStats(producerID, itemID string, workers []Worker, upgrades []Upgrade) WorkerStats {
	stats := WorkerStats{ProducerID: producerID}
	bonus := competenceBonus(itemID, upgrades)
	for _, w := range workers {
		if w.ProducerID != producerID {
			continue
		}
		stats.Workers++
		stats.TotalWageCost += w.Wage
		if w.Active() {
			stats.Active++
			stats.Efficiency += CompetenceContribution(math.Min(w.Competence+bonus, CompetenceMax))
		}
	}
	keep := 1 - clamp(effectSum(EffectWageEfficiency, itemID, upgrades), 0, 100)/100
	stats.TotalWageCost = round2(stats.TotalWageCost)
	stats.EffectiveWageCost = round2(stats.TotalWageCost * keep)
	return stats
}

func competenceBonus(itemID string, upgrades []Upgrade) float64 {
	return effectSum(EffectWorkerCompetence, itemID, upgrades)
}

// effectSum adds the values of every effect of type t that applies to itemID.
func effectSum(t EffectType, itemID string, upgrades []Upgrade) float64 {
	var sum float64
	for _, u := range upgrades {
		for _, e := range u.Effects {
			if e.Type == t && e.AppliesTo(itemID) {
				sum += e.Value
			}
		}
	}
	return sum
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// round2 rounds half away from zero on the decimal representation, so 6.125
// rounds to 6.13 rather than whatever its binary neighbour suggests.
func round2(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return decimal.NewFromFloat(x).Round(2).InexactFloat64()
}
