package game

import (
	"github.com/shopspring/decimal"

	"github.com/warp/gridtycoon/numeric"
)

// PriceGrowth is the per-unit cost scaling factor.
const PriceGrowth = "1.15"

// MaxBuyQuantity caps a single purchase or price quote.
const MaxBuyQuantity = 1000

// growthScale bounds the fractional digits kept in 1.15^n. Powers up to
// n=16 are exact; past that the truncation sits far below a cent.
const growthScale = 32

var priceGrowth = decimal.RequireFromString(PriceGrowth)

// UnitPrice is the price of the next unit when owned units already exist:
// base * 1.15^owned, rounded to cents.
func UnitPrice(basePrice string, owned int) numeric.Value {
	return numeric.Parse(unitPrice(baseDecimal(basePrice), owned).String())
}

// BulkCost sums UnitPrice over quantity consecutive purchases starting at the
// current owned count of itemID. Unknown items cost zero. Callers bound
// quantity by MaxBuyQuantity.
func (c *Catalog) BulkCost(itemID string, quantity int, owned []Producer) numeric.Value {
	t, ok := c.Producer(itemID)
	if !ok {
		return numeric.Zero
	}
	return numeric.Parse(bulkCost(t.BasePrice, ownedCount(owned, itemID), quantity).String())
}

func bulkCost(basePrice string, owned, quantity int) decimal.Decimal {
	base := baseDecimal(basePrice)
	factor := growthFactor(owned)
	total := decimal.Zero
	for i := 0; i < quantity; i++ {
		total = total.Add(base.Mul(factor).Round(2))
		factor = factor.Mul(priceGrowth).Truncate(growthScale)
	}
	return total
}

func unitPrice(base decimal.Decimal, owned int) decimal.Decimal {
	return base.Mul(growthFactor(owned)).Round(2)
}

// growthFactor returns 1.15^n by squaring, truncated to growthScale digits.
func growthFactor(n int) decimal.Decimal {
	result := decimal.NewFromInt(1)
	base := priceGrowth
	for n > 0 {
		if n&1 == 1 {
			result = result.Mul(base).Truncate(growthScale)
		}
		base = base.Mul(base).Truncate(growthScale)
		n >>= 1
	}
	return result
}

// baseDecimal goes through numeric.Parse so malformed catalog strings price
// as zero, same as every other economy quantity.
func baseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(numeric.Parse(s).String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

func ownedCount(owned []Producer, itemID string) int {
	for _, p := range owned {
		if p.ItemID == itemID {
			return p.Count
		}
	}
	return 0
}

// =============================================================================
// DISCOUNTS
// =============================================================================

// discountRate is the summed cost_reduction percentage for itemID, clamped to [0,100].
func discountRate(itemID string, upgrades []Upgrade) decimal.Decimal {
	pct := decimal.Zero
	for _, u := range upgrades {
		for _, e := range u.Effects {
			if e.Type == EffectCostReduction && e.AppliesTo(itemID) {
				pct = pct.Add(decimal.NewFromFloat(e.Value))
			}
		}
	}
	hundred := decimal.NewFromInt(100)
	if pct.IsNegative() {
		pct = decimal.Zero
	}
	if pct.GreaterThan(hundred) {
		pct = hundred
	}
	return pct
}

// shopPrice applies owned cost_reduction upgrades to a bulk cost.
func shopPrice(t ProducerTemplate, owned []Producer, upgrades []Upgrade, quantity int) numeric.Value {
	cost := bulkCost(t.BasePrice, ownedCount(owned, t.ItemID), quantity)
	if pct := discountRate(t.ItemID, upgrades); !pct.IsZero() {
		keep := decimal.NewFromInt(100).Sub(pct).Div(decimal.NewFromInt(100))
		cost = cost.Mul(keep).Round(2)
	}
	return numeric.Parse(cost.String())
}
