package game

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/warp/gridtycoon/numeric"
)

// Daily workforce tuning.
const (
	HoursPerShift       = 24  // wage hours billed per day
	DailyExperience     = 1   // experience an active worker earns per day
	UnpaidBenchQuitGain = 10  // quit factor added per unpaid bench day
	FactorLimit         = 100 // quit or insanity at this level makes a worker leave
)

// ExperienceToLevel is the experience needed to leave level.
func ExperienceToLevel(level int) int { return 2*level + 4 }

// HireWorker assigns a new worker to the owned producer producerID.
func (g *Game) HireWorker(producerID string, t WorkerTemplate) (Worker, error) {
	var hired Worker
	var ev Event
	err := g.apply("", "", func(s *State) error {
		if _, ok := s.producerByID(producerID); !ok {
			return fmt.Errorf("%w: producer id %q", ErrUnknownProducer, producerID)
		}
		if t.Wage < 0 || t.Level < 0 || t.Experience < 0 {
			return fmt.Errorf("%w: negative worker attribute", ErrInvalidCount)
		}
		hired = Worker{
			ID:         g.newID(),
			ProducerID: producerID,
			Name:       t.Name,
			Icon:       t.Icon,
			JobName:    t.JobName,
			Wage:       t.Wage,
			Competence: clamp(t.Competence, 0, CompetenceMax),
			Level:      t.Level,
			Experience: t.Experience,
			Factors:    t.Factors,
			HiredAt:    g.now().UTC(),
		}
		s.Entities.Workers = append(s.Entities.Workers, hired)
		ev = Event{Kind: EventWorkerHired, Date: s.Date, Balance: s.Balance, Subject: hired.ID}
		return nil
	})
	if err != nil {
		return Worker{}, err
	}
	g.publish(ev)
	return hired, nil
}

// FireWorker removes a worker.
func (g *Game) FireWorker(id string) error {
	return g.apply(EventWorkerFired, id, func(s *State) error {
		i, ok := s.workerByID(id)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownWorker, id)
		}
		s.Entities.Workers = append(s.Entities.Workers[:i], s.Entities.Workers[i+1:]...)
		return nil
	})
}

// BenchWorker takes a worker off duty for days. Unpaid bench days raise the
// quit factor; paid bench days keep drawing wages.
func (g *Game) BenchWorker(id string, days int, paid bool) error {
	return g.updateWorker(id, func(w *Worker) error {
		if days <= 0 {
			return fmt.Errorf("%w: bench length %d", ErrInvalidCount, days)
		}
		w.Bench = &Bench{DaysRemaining: days, Paid: paid}
		return nil
	})
}

// UnbenchWorker returns a benched worker to duty immediately.
func (g *Game) UnbenchWorker(id string) error {
	return g.updateWorker(id, func(w *Worker) error {
		w.Bench = nil
		return nil
	})
}

// SuppressWorker toggles whether the worker counts toward production.
func (g *Game) SuppressWorker(id string, suppressed bool) error {
	return g.updateWorker(id, func(w *Worker) error {
		w.Suppressed = suppressed
		return nil
	})
}

// TrainWorker debits cost and raises competence, capped at 100.
func (g *Game) TrainWorker(id, cost string, increase float64) error {
	return g.apply("", id, func(s *State) error {
		i, ok := s.workerByID(id)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownWorker, id)
		}
		if increase < 0 {
			return fmt.Errorf("%w: competence increase %v", ErrInvalidCount, increase)
		}
		price := numeric.Parse(cost)
		balance := numeric.Parse(s.Balance)
		if price.IsNegative() {
			return fmt.Errorf("%w: negative cost %s", ErrInvalidCount, cost)
		}
		if numeric.Less(balance, price) {
			return &InsufficientBalanceError{Available: balance.String(), Requested: price.String()}
		}
		w := &s.Entities.Workers[i]
		w.Competence = math.Min(CompetenceMax, w.Competence+increase)
		s.Balance = numeric.Sub(balance, price).String()
		return nil
	})
}

// AddWorkerExperience grants exp and applies every level-up it pays for.
// A grant that would overflow the experience counter is rejected.
func (g *Game) AddWorkerExperience(id string, exp int) error {
	return g.updateWorker(id, func(w *Worker) error {
		if exp < 0 {
			return fmt.Errorf("%w: experience %d", ErrInvalidCount, exp)
		}
		if exp > math.MaxInt-max(w.Experience, 0) {
			return fmt.Errorf("%w: experience %d overflows", ErrInvalidCount, exp)
		}
		gainExperience(w, exp)
		return nil
	})
}

// gainExperience adds exp, saturating at math.MaxInt, and takes every level
// the total pays for in one step. Leaving level L costs 2L+4, so k levels
// from L cost k*(k+2L+3).
func gainExperience(w *Worker, exp int) {
	w.Level = max(w.Level, 0)
	total := max(w.Experience, 0)
	if exp > math.MaxInt-total {
		total = math.MaxInt
	} else {
		total += exp
	}

	k := levelsFor(w.Level, total)
	cost, _ := levelCost(w.Level, k)
	w.Level += k
	w.Experience = total - int(cost)
}

// levelsFor is the largest k with levelCost(level, k) <= exp.
func levelsFor(level, exp int) int {
	b := float64(2*level + 3)
	k := int((math.Sqrt(b*b+4*float64(exp)) - b) / 2)
	k = max(k, 0)
	fits := func(k int) bool {
		c, ok := levelCost(level, k)
		return ok && c <= uint64(exp)
	}
	for k > 0 && !fits(k) {
		k--
	}
	for fits(k + 1) {
		k++
	}
	return k
}

// levelCost is the experience needed to gain k levels from level. ok is
// false when the cost does not fit in 64 bits.
func levelCost(level, k int) (uint64, bool) {
	a := uint64(k)
	hi, lo := bits.Mul64(a, a+2*uint64(level)+3)
	return lo, hi == 0
}

// UpdateWorkerWage sets the hourly wage.
func (g *Game) UpdateWorkerWage(id string, wage float64) error {
	return g.updateWorker(id, func(w *Worker) error {
		if wage < 0 || math.IsNaN(wage) {
			return fmt.Errorf("%w: wage %v", ErrInvalidCount, wage)
		}
		w.Wage = wage
		return nil
	})
}

func (g *Game) updateWorker(id string, fn func(w *Worker) error) error {
	return g.apply("", id, func(s *State) error {
		i, ok := s.workerByID(id)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownWorker, id)
		}
		return fn(&s.Entities.Workers[i])
	})
}

// =============================================================================
// DAILY WORKFORCE
// =============================================================================

// DayReport summarizes the daily workforce pass.
type DayReport struct {
	Payroll string   `json:"payroll"`
	Quit    []string `json:"quit,omitempty"`
}

// workforceDay runs bench countdown, experience, factor drift, quits and
// payroll. It mutates s and reports what happened.
func workforceDay(s *State) DayReport {
	itemOf := make(map[string]string, len(s.Entities.Producers))
	for _, p := range s.Entities.Producers {
		itemOf[p.ID] = p.ItemID
	}
	upgrades := s.Entities.Upgrades

	var (
		payroll float64
		kept    = s.Entities.Workers[:0]
		report  DayReport
	)
	for _, w := range s.Entities.Workers {
		item := itemOf[w.ProducerID]
		quitDamp := 1 - clamp(effectSum(EffectQuitFactor, item, upgrades), 0, 100)/100
		wageKeep := 1 - clamp(effectSum(EffectWageEfficiency, item, upgrades), 0, 100)/100

		switch {
		case w.Bench != nil:
			if w.Bench.Paid {
				payroll += w.Wage * HoursPerShift * wageKeep
			} else {
				w.Factors.Quit += UnpaidBenchQuitGain * quitDamp
			}
			w.Bench.DaysRemaining--
			if w.Bench.DaysRemaining <= 0 {
				w.Bench = nil
			}
		case !w.Suppressed:
			payroll += w.Wage * HoursPerShift * wageKeep
			gainExperience(&w, DailyExperience)
			w.Factors.Happiness = clamp(w.Factors.Happiness+effectSum(EffectHappinessFactor, item, upgrades), 0, 100)
			w.Factors.Insanity = math.Max(0, w.Factors.Insanity+w.Factors.Risk-effectSum(EffectInsanityFactor, item, upgrades))
		}

		if w.Factors.Quit >= FactorLimit || w.Factors.Insanity >= FactorLimit {
			report.Quit = append(report.Quit, w.ID)
			continue
		}
		kept = append(kept, w)
	}
	s.Entities.Workers = kept

	cost := numeric.Real(payroll)
	s.Balance = numeric.Max(numeric.Zero, numeric.Sub(numeric.Parse(s.Balance), cost)).String()
	report.Payroll = cost.String()
	return report
}
