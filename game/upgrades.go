package game

import (
	"fmt"
	"slices"

	"github.com/warp/gridtycoon/numeric"
)

// BuyUpgrade buys the shop-listed upgrade id. The shop snapshot is the
// source of truth for availability and cost.
func (g *Game) BuyUpgrade(id string) error {
	err := g.apply(EventUpgradeBought, id, func(s *State) error {
		if s.ownsUpgrade(id) {
			return fmt.Errorf("%w: upgrade %q", ErrAlreadyOwned, id)
		}
		i := slices.IndexFunc(s.Shop.Upgrades, func(u Upgrade) bool { return u.ID == id })
		if i < 0 {
			return fmt.Errorf("%w: %q not in shop", ErrUnknownUpgrade, id)
		}
		u := cloneUpgrade(s.Shop.Upgrades[i])

		cost := numeric.Parse(u.Cost)
		balance := numeric.Parse(s.Balance)
		if numeric.Less(balance, cost) {
			return &InsufficientBalanceError{Available: balance.String(), Requested: cost.String()}
		}

		now := g.now().UTC()
		u.UnlockedAt = &now
		s.Entities.Upgrades = append(s.Entities.Upgrades, u)
		s.Balance = numeric.Sub(balance, cost).String()
		g.refreshShop(s)
		return nil
	})
	if err == nil {
		g.logger.Debug("upgrade bought", "upgrade", id)
	}
	return err
}

// =============================================================================
// ECONOMY
// =============================================================================

func (g *Game) AddBalance(amount string) error {
	return g.apply("", "", func(s *State) error {
		s.Balance = numeric.Add(numeric.Parse(s.Balance), numeric.Parse(amount)).String()
		return nil
	})
}

// SubtractBalance debits amount, never going below zero.
func (g *Game) SubtractBalance(amount string) error {
	return g.apply("", "", func(s *State) error {
		next := numeric.Sub(numeric.Parse(s.Balance), numeric.Parse(amount))
		s.Balance = numeric.Max(numeric.Zero, next).String()
		return nil
	})
}

func (g *Game) SetKwh(kwh string) error {
	return g.apply("", "", func(s *State) error {
		s.Kwh = numeric.Parse(kwh).String()
		return nil
	})
}

func (g *Game) AddKwh(kwh string) error {
	return g.apply("", "", func(s *State) error {
		s.Kwh = numeric.Add(numeric.Parse(s.Kwh), numeric.Parse(kwh)).String()
		return nil
	})
}

// SetDpkw sets the currency paid per kWh at settlement.
func (g *Game) SetDpkw(dpkw string) error {
	return g.apply("", "", func(s *State) error {
		v := numeric.Parse(dpkw)
		if v.IsNegative() {
			return fmt.Errorf("%w: negative dpkw %s", ErrInvalidSetting, dpkw)
		}
		s.Dpkw = v.String()
		return nil
	})
}

// =============================================================================
// MODIFIERS
// =============================================================================

// AddModifier activates a transient modifier. An empty ID is generated.
func (g *Game) AddModifier(m Modifier) (Modifier, error) {
	m = cloneModifier(m)
	err := g.apply("", "", func(s *State) error {
		if m.Length <= 0 {
			return fmt.Errorf("%w: length %d", ErrInvalidModifier, m.Length)
		}
		switch m.Affects {
		case ScopeGlobal:
		case ScopeProducer:
			if m.Producer == "" {
				return fmt.Errorf("%w: producer scope without producer", ErrInvalidModifier)
			}
		case ScopeProducerType:
			if !m.ProducerType.Valid() {
				return fmt.Errorf("%w: producer type %q", ErrInvalidModifier, m.ProducerType)
			}
		default:
			return fmt.Errorf("%w: scope %q", ErrInvalidModifier, m.Affects)
		}
		for _, mod := range m.Mods {
			if !mod.Type.Valid() {
				return fmt.Errorf("%w: mod %q", ErrInvalidModifier, mod.Type)
			}
		}
		if m.ID == "" {
			m.ID = g.newID()
		}
		if slices.ContainsFunc(s.Entities.Modifiers, func(x Modifier) bool { return x.ID == m.ID }) {
			return fmt.Errorf("%w: duplicate id %q", ErrInvalidModifier, m.ID)
		}
		s.Entities.Modifiers = append(s.Entities.Modifiers, m)
		return nil
	})
	if err != nil {
		return Modifier{}, err
	}
	return cloneModifier(m), nil
}

// RemoveModifier ends a modifier early. Unknown ids are ignored.
func (g *Game) RemoveModifier(id string) {
	_ = g.apply("", "", func(s *State) error {
		s.Entities.Modifiers = slices.DeleteFunc(s.Entities.Modifiers, func(m Modifier) bool { return m.ID == id })
		return nil
	})
}

// =============================================================================
// SETTINGS & UI
// =============================================================================

func (g *Game) ToggleAutoSave() {
	_ = g.apply("", "", func(s *State) error {
		s.Settings.AutoSave = !s.Settings.AutoSave
		return nil
	})
}

func (g *Game) SetAutoSave(on bool) {
	_ = g.apply("", "", func(s *State) error {
		s.Settings.AutoSave = on
		return nil
	})
}

// SetGameSpeed accepts SpeedNormal or SpeedFast.
func (g *Game) SetGameSpeed(speed Speed) error {
	return g.apply("", "", func(s *State) error {
		if !speed.Valid() {
			return fmt.Errorf("%w: game speed %d", ErrInvalidSetting, speed)
		}
		s.Settings.GameSpeed = speed
		return nil
	})
}

// SetWorkforce toggles worker effects on production.
func (g *Game) SetWorkforce(on bool) {
	_ = g.apply("", "", func(s *State) error {
		s.Settings.Workforce = on
		return nil
	})
}

// SelectProducer selects an owned producer by itemId. Empty clears it.
func (g *Game) SelectProducer(itemID string) error {
	return g.apply("", "", func(s *State) error {
		if itemID != "" {
			if _, ok := s.producerByItem(itemID); !ok {
				return fmt.Errorf("%w: %q not owned", ErrUnknownProducer, itemID)
			}
		}
		s.UI.SelectedProducer = itemID
		return nil
	})
}

func (g *Game) SetMainWindow(w Window) error {
	return g.apply("", "", func(s *State) error {
		if w != WindowMain && w != WindowSettings {
			return fmt.Errorf("%w: window %q", ErrInvalidSetting, w)
		}
		s.UI.MainWindow = w
		return nil
	})
}

func (g *Game) SetRightSideBar(tab RightTab) error {
	return g.apply("", "", func(s *State) error {
		if !slices.Contains([]RightTab{TabShop, TabProducers, TabWorkers, TabUpgrades}, tab) {
			return fmt.Errorf("%w: right tab %q", ErrInvalidSetting, tab)
		}
		s.UI.RightSideBar = tab
		return nil
	})
}

func (g *Game) SetLeftSideBar(tab LeftTab) error {
	return g.apply("", "", func(s *State) error {
		if tab != TabNews && tab != TabStats {
			return fmt.Errorf("%w: left tab %q", ErrInvalidSetting, tab)
		}
		s.UI.LeftSideBar = tab
		return nil
	})
}
