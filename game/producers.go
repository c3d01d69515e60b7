package game

import (
	"fmt"
	"slices"

	"github.com/warp/gridtycoon/numeric"
)

// BuyProducer buys count units of the shop-listed template itemID. The
// debit is the bulk cost from the current owned count, so buying a then b
// costs exactly what buying a+b costs.
func (g *Game) BuyProducer(itemID string, count int) error {
	err := g.apply(EventProducerBought, itemID, func(s *State) error {
		if count <= 0 || count > MaxBuyQuantity {
			return fmt.Errorf("%w: %d", ErrInvalidCount, count)
		}
		i := slices.IndexFunc(s.Shop.Producers, func(t ProducerTemplate) bool { return t.ItemID == itemID })
		if i < 0 {
			return fmt.Errorf("%w: %q not in shop", ErrUnknownProducer, itemID)
		}
		template := s.Shop.Producers[i]

		cost := shopPrice(template, s.Entities.Producers, s.Entities.Upgrades, count)
		balance := numeric.Parse(s.Balance)
		if numeric.Less(balance, cost) {
			return &InsufficientBalanceError{Available: balance.String(), Requested: cost.String()}
		}

		if j, ok := s.producerByItem(itemID); ok {
			s.Entities.Producers[j].Count += count
		} else {
			s.Entities.Producers = append(s.Entities.Producers, g.newProducer(template, count))
		}
		s.Balance = numeric.Sub(balance, cost).String()
		g.refreshShop(s)
		return nil
	})
	if err == nil {
		g.logger.Debug("producer bought", "itemId", itemID, "count", count)
	}
	return err
}

func (g *Game) newProducer(t ProducerTemplate, count int) Producer {
	return Producer{
		ID:             g.newID(),
		ItemID:         t.ItemID,
		Name:           t.Name,
		Icon:           t.Icon,
		BasePrice:      t.BasePrice,
		Type:           t.Type,
		Stats:          t.Stats,
		ResearchLocked: t.ResearchLocked,
		Requires:       t.Requires,
		Count:          count,
		UnlockedAt:     g.now().UTC(),
	}
}

// SellProducer removes count units of itemID and credits sellPrice. The
// producer entry stays at count zero so its workers keep their assignment.
func (g *Game) SellProducer(itemID string, count int, sellPrice string) error {
	return g.apply(EventProducerSold, itemID, func(s *State) error {
		i, ok := s.producerByItem(itemID)
		if !ok {
			return fmt.Errorf("%w: %q not owned", ErrUnknownProducer, itemID)
		}
		if count <= 0 || count > s.Entities.Producers[i].Count {
			return fmt.Errorf("%w: sell %d of %d", ErrInvalidCount, count, s.Entities.Producers[i].Count)
		}
		price := numeric.Parse(sellPrice)
		if price.IsNegative() {
			return fmt.Errorf("%w: negative sell price %s", ErrInvalidCount, sellPrice)
		}

		s.Entities.Producers[i].Count -= count
		s.Balance = numeric.Add(numeric.Parse(s.Balance), price).String()
		g.refreshShop(s)
		return nil
	})
}

// CalcProducerPrices sets the purchase quantity and reprices the shop.
func (g *Game) CalcProducerPrices(count int) error {
	return g.apply("", "", func(s *State) error {
		if count <= 0 || count > MaxBuyQuantity {
			return fmt.Errorf("%w: %d", ErrInvalidCount, count)
		}
		s.UI.BuyQuantity = count
		g.refreshShop(s)
		return nil
	})
}

// SetBuyQuantity is the purchase-quantity selector; it reprices the shop.
func (g *Game) SetBuyQuantity(count int) error {
	return g.CalcProducerPrices(count)
}

// RefreshShop rebuilds the shop snapshot from the catalog.
func (g *Game) RefreshShop() {
	_ = g.apply("", "", func(s *State) error {
		g.refreshShop(s)
		return nil
	})
}

// UnlockProducer lifts the research lock of a catalog template.
func (g *Game) UnlockProducer(itemID string) error {
	return g.apply("", itemID, func(s *State) error {
		if _, ok := g.catalog.Producer(itemID); !ok {
			return fmt.Errorf("%w: %q not in catalog", ErrUnknownProducer, itemID)
		}
		if !slices.Contains(s.Unlocked, itemID) {
			s.Unlocked = append(s.Unlocked, itemID)
		}
		g.refreshShop(s)
		return nil
	})
}

// BulkCost is the undiscounted price of quantity more units of itemID.
// Quantities past MaxBuyQuantity are clamped.
func (g *Game) BulkCost(itemID string, quantity int) string {
	quantity = min(quantity, MaxBuyQuantity)
	var out string
	g.read(func(s *State) {
		out = g.catalog.BulkCost(itemID, quantity, s.Entities.Producers).String()
	})
	return out
}
