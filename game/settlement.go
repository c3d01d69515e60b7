package game

import (
	"time"

	"github.com/warp/gridtycoon/numeric"
)

// Settlement is the result of one hourly collection.
type Settlement struct {
	At         time.Time       `json:"at"`
	TotalKwh   string          `json:"totalKwh"`
	Dpkw       string          `json:"dpkw"`
	TotalMoney string          `json:"totalMoney"`
	Balance    string          `json:"balance"`
	Producers  []ProducerStats `json:"producers"`
}

// settle collects every owned producer's effective output, converts it to
// money at the effective dpkw and credits the balance. kwh is replaced,
// not accumulated.
func settle(s *State) Settlement {
	stats := make([]ProducerStats, 0, len(s.Entities.Producers))
	var totalKwh float64
	for _, p := range s.Entities.Producers {
		ps := producerStats(s, p)
		stats = append(stats, ps)
		totalKwh += ps.EffectiveKwh
	}

	dpkw := effectiveDpkw(s)
	money := numeric.Mul(numeric.Real(totalKwh), dpkw)
	s.Balance = numeric.Add(numeric.Parse(s.Balance), money).String()
	s.Kwh = numeric.Real(totalKwh).String()

	return Settlement{
		At:         s.Date,
		TotalKwh:   s.Kwh,
		Dpkw:       dpkw.String(),
		TotalMoney: money.String(),
		Balance:    s.Balance,
		Producers:  stats,
	}
}

// effectiveDpkw is (dpkw + Σcr_add) × Πcr_mult over global modifiers. With
// no conversion-rate mods it is the stored dpkw unchanged.
func effectiveDpkw(s *State) numeric.Value {
	base := numeric.Parse(s.Dpkw)
	var (
		add     float64
		mult    = 1.0
		touched bool
	)
	for _, m := range activeModifiers(s) {
		if m.Affects != ScopeGlobal {
			continue
		}
		for _, mod := range m.Mods {
			switch mod.Type {
			case ModCrAdd:
				add += numeric.Parse(mod.Value).Float64()
				touched = true
			case ModCrMult:
				mult *= numeric.Parse(mod.Value).Float64()
				touched = true
			}
		}
	}
	if !touched {
		return base
	}
	return numeric.Real((base.Float64() + add) * mult)
}
