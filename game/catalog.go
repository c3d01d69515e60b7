package game

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
)

// Catalog holds the static rules of the world. It is never mutated after
// construction; owned entities are copies.
type Catalog struct {
	Producers []ProducerTemplate `json:"producers"`
	Upgrades  []Upgrade          `json:"upgrades"`
	Weather   []Weather          `json:"weather"`
}

// Producer returns the template for itemID.
func (c *Catalog) Producer(itemID string) (ProducerTemplate, bool) {
	i := slices.IndexFunc(c.Producers, func(p ProducerTemplate) bool { return p.ItemID == itemID })
	if i < 0 {
		return ProducerTemplate{}, false
	}
	return c.Producers[i], true
}

// Upgrade returns the upgrade definition for id.
func (c *Catalog) Upgrade(id string) (Upgrade, bool) {
	i := slices.IndexFunc(c.Upgrades, func(u Upgrade) bool { return u.ID == id })
	if i < 0 {
		return Upgrade{}, false
	}
	return cloneUpgrade(c.Upgrades[i]), true
}

// =============================================================================
// AVAILABILITY
// =============================================================================

// AvailableProducers returns the templates the shop may offer. A
// research-locked template needs an unlock or an existing owned stack; a
// template with Requires needs at least one unit of that producer.
func (c *Catalog) AvailableProducers(owned []Producer, unlocked []string) []ProducerTemplate {
	var out []ProducerTemplate
	for _, t := range c.Producers {
		if producerAvailable(t, owned, unlocked) {
			out = append(out, t)
		}
	}
	return out
}

// LockedProducers is the complement of AvailableProducers.
func (c *Catalog) LockedProducers(owned []Producer, unlocked []string) []ProducerTemplate {
	var out []ProducerTemplate
	for _, t := range c.Producers {
		if !producerAvailable(t, owned, unlocked) {
			out = append(out, t)
		}
	}
	return out
}

func producerAvailable(t ProducerTemplate, owned []Producer, unlocked []string) bool {
	if t.ResearchLocked && !slices.Contains(unlocked, t.ItemID) && !ownsItem(owned, t.ItemID) {
		return false
	}
	if t.Requires != "" && !ownsItem(owned, t.Requires) {
		return false
	}
	return true
}

func ownsItem(owned []Producer, itemID string) bool {
	return slices.ContainsFunc(owned, func(p Producer) bool { return p.ItemID == itemID && p.Count > 0 })
}

// ProducersByType groups templates by technology, keeping catalog order.
func ProducersByType(templates []ProducerTemplate) map[ProducerType][]ProducerTemplate {
	out := make(map[ProducerType][]ProducerTemplate)
	for _, t := range templates {
		out[t.Type] = append(out[t.Type], t)
	}
	return out
}

// AvailableUpgrades returns upgrades whose prerequisites are met and that
// are not owned yet. A producer-bound upgrade needs that producer owned.
func (c *Catalog) AvailableUpgrades(ownedProducers []Producer, ownedUpgrades []Upgrade) []Upgrade {
	owns := func(id string) bool {
		return slices.ContainsFunc(ownedUpgrades, func(u Upgrade) bool { return u.ID == id })
	}

	var out []Upgrade
	for _, u := range c.Upgrades {
		if owns(u.ID) {
			continue
		}
		if u.ProducerBound != "" && !ownsItem(ownedProducers, u.ProducerBound) {
			continue
		}
		if !allOf(u.Requires, owns) {
			continue
		}
		out = append(out, cloneUpgrade(u))
	}
	return out
}

// UpgradesByProducer groups upgrades by bound itemId. Unbound upgrades are
// keyed by the empty string.
func UpgradesByProducer(upgrades []Upgrade) map[string][]Upgrade {
	out := make(map[string][]Upgrade)
	for _, u := range upgrades {
		out[u.ProducerBound] = append(out[u.ProducerBound], u)
	}
	return out
}

func allOf(ids []string, pred func(string) bool) bool {
	for _, id := range ids {
		if !pred(id) {
			return false
		}
	}
	return true
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks ids are unique and every reference resolves.
func (c *Catalog) Validate() error {
	producers := make(map[string]bool, len(c.Producers))
	for _, p := range c.Producers {
		if p.ItemID == "" {
			return &CatalogError{Kind: "producer", ID: p.Name, Reason: "missing itemId"}
		}
		if producers[p.ItemID] {
			return &CatalogError{Kind: "producer", ID: p.ItemID, Reason: "duplicate itemId"}
		}
		producers[p.ItemID] = true
		if !p.Type.Valid() {
			return &CatalogError{Kind: "producer", ID: p.ItemID, Reason: fmt.Sprintf("unknown type %q", p.Type)}
		}
		if err := checkAmount(p.BasePrice); err != nil {
			return &CatalogError{Kind: "producer", ID: p.ItemID, Reason: "basePrice: " + err.Error()}
		}
		if err := checkAmount(p.Stats.BaseKwh); err != nil {
			return &CatalogError{Kind: "producer", ID: p.ItemID, Reason: "baseKwh: " + err.Error()}
		}
		if p.Stats.BaseEfficiency < 0 || p.Stats.BaseEfficiency > 100 {
			return &CatalogError{Kind: "producer", ID: p.ItemID, Reason: "baseEfficiency out of range"}
		}
	}
	for _, p := range c.Producers {
		if p.Requires != "" && !producers[p.Requires] {
			return &CatalogError{Kind: "producer", ID: p.ItemID, Reason: fmt.Sprintf("requires unknown producer %q", p.Requires)}
		}
	}

	upgrades := make(map[string]bool, len(c.Upgrades))
	for _, u := range c.Upgrades {
		if u.ID == "" || upgrades[u.ID] {
			return &CatalogError{Kind: "upgrade", ID: u.ID, Reason: "missing or duplicate id"}
		}
		upgrades[u.ID] = true
		if err := checkAmount(u.Cost); err != nil {
			return &CatalogError{Kind: "upgrade", ID: u.ID, Reason: "cost: " + err.Error()}
		}
		if u.ProducerBound != "" && !producers[u.ProducerBound] {
			return &CatalogError{Kind: "upgrade", ID: u.ID, Reason: fmt.Sprintf("bound to unknown producer %q", u.ProducerBound)}
		}
		for _, e := range u.Effects {
			if !e.Type.Valid() {
				return &CatalogError{Kind: "upgrade", ID: u.ID, Reason: fmt.Sprintf("unknown effect %q", e.Type)}
			}
			if e.Target != "" && !producers[e.Target] {
				return &CatalogError{Kind: "upgrade", ID: u.ID, Reason: fmt.Sprintf("effect targets unknown producer %q", e.Target)}
			}
		}
	}
	for _, u := range c.Upgrades {
		for _, r := range u.Requires {
			if !upgrades[r] {
				return &CatalogError{Kind: "upgrade", ID: u.ID, Reason: fmt.Sprintf("requires unknown upgrade %q", r)}
			}
		}
	}

	for _, w := range c.Weather {
		if w.Chance < 0 || w.Chance > 1 {
			return &CatalogError{Kind: "weather", ID: w.Name, Reason: "chance must be within [0,1]"}
		}
		if w.Length != nil && *w.Length <= 0 {
			return &CatalogError{Kind: "weather", ID: w.Name, Reason: "length must be positive"}
		}
		for _, e := range w.Effects {
			for _, m := range e.Mods {
				if !m.Type.Valid() {
					return &CatalogError{Kind: "weather", ID: w.Name, Reason: fmt.Sprintf("unknown mod %q", m.Type)}
				}
			}
		}
	}
	return nil
}

func checkAmount(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return err
	}
	if d.IsNegative() {
		return fmt.Errorf("negative amount %s", s)
	}
	return nil
}

// =============================================================================
// DEFAULT CATALOG
// =============================================================================

func intPtr(i int) *int { return &i }

// DefaultCatalog returns the built-in world definition.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Producers: []ProducerTemplate{
			{ItemID: "0", Name: "Solar Panel", Icon: "solar-panel", BasePrice: "1000", Type: TypeSolar,
				Stats: BaseStats{BaseKwh: "2.4", BaseEfficiency: 60}},
			{ItemID: "1", Name: "Wind Turbine", Icon: "wind-turbine", BasePrice: "12000", Risk: 1, Type: TypeWind,
				Stats: BaseStats{BaseKwh: "18", BaseEfficiency: 55}, Requires: "0"},
			{ItemID: "2", Name: "Coal Plant", Icon: "coal-plant", BasePrice: "130000", Risk: 4, Type: TypeFossil,
				Stats: BaseStats{BaseKwh: "140", BaseEfficiency: 70}},
			{ItemID: "3", Name: "Hydro Dam", Icon: "hydro-dam", BasePrice: "1400000", Risk: 2, Type: TypeHydro,
				Stats: BaseStats{BaseKwh: "900", BaseEfficiency: 75}, Requires: "1"},
			{ItemID: "4", Name: "Nuclear Reactor", Icon: "nuclear-reactor", BasePrice: "20000000", Risk: 8, Type: TypeNuclear,
				Stats: BaseStats{BaseKwh: "7000", BaseEfficiency: 80}, ResearchLocked: true},
			{ItemID: "5", Name: "Dyson Swarm", Icon: "dyson-swarm", BasePrice: "3300000000", Risk: 5, Type: TypeDyson,
				Stats: BaseStats{BaseKwh: "260000", BaseEfficiency: 85}, ResearchLocked: true, Requires: "4"},
			{ItemID: "6", Name: "Black Hole Tap", Icon: "black-hole", BasePrice: "510000000000", Risk: 12, Type: TypeBlackHole,
				Stats: BaseStats{BaseKwh: "14000000", BaseEfficiency: 90}, ResearchLocked: true, Requires: "5"},
			{ItemID: "7", Name: "Blood Engine", Icon: "blood-engine", BasePrice: "75000000000000", Risk: 20, Type: TypeBlood,
				Stats: BaseStats{BaseKwh: "900000000", BaseEfficiency: 95}, ResearchLocked: true, Requires: "6"},
		},
		Upgrades: []Upgrade{
			{ID: "sp_0", Name: "Better Batteries", Icon: "battery", Cost: "750", Category: CategoryEfficiency,
				Description: "Solar panels store an extra kWh per unit.", ProducerBound: "0",
				Effects: []UpgradeEffect{{Type: EffectKwhAdd, Target: "0", Value: 1}}},
			{ID: "sp_1", Name: "Sun Tracking Mounts", Icon: "sun", Cost: "5000", Category: CategoryKwh,
				Description: "Panels follow the sun for 25% more output.", ProducerBound: "0", Requires: []string{"sp_0"},
				Effects: []UpgradeEffect{{Type: EffectKwhMult, Target: "0", Value: 25, IsPercentage: true}}},
			{ID: "wt_0", Name: "Carbon Blades", Icon: "blade", Cost: "9000", Category: CategoryKwh,
				Description: "Lighter blades spin in weaker wind.", ProducerBound: "1",
				Effects: []UpgradeEffect{{Type: EffectKwhAdd, Target: "1", Value: 6}}},
			{ID: "gl_0", Name: "Smart Grid", Icon: "grid", Cost: "50000", Category: CategoryGlobal,
				Description: "Every producer delivers 10% more.", ProducerBound: "2",
				Effects: []UpgradeEffect{{Type: EffectKwhMult, Value: 10, IsPercentage: true}}},
			{ID: "wk_0", Name: "Safety Training", Icon: "helmet", Cost: "20000", Category: CategoryWorker,
				Description: "Workers gain 10 competence on the job.", ProducerBound: "1",
				Effects: []UpgradeEffect{
					{Type: EffectWorkerCompetence, Value: 10},
					{Type: EffectInsanityFactor, Value: 1},
				}},
			{ID: "wk_1", Name: "Union Contract", Icon: "handshake", Cost: "60000", Category: CategoryWorker,
				Description: "Payroll runs 10% cheaper and staff are happier.", Requires: []string{"wk_0"},
				Effects: []UpgradeEffect{
					{Type: EffectWageEfficiency, Value: 10, IsPercentage: true},
					{Type: EffectHappinessFactor, Value: 2},
					{Type: EffectQuitFactor, Value: 25, IsPercentage: true},
				}},
			{ID: "ef_0", Name: "Bulk Procurement", Icon: "crate", Cost: "100000", Category: CategoryEfficiency,
				Description: "Producers cost 5% less.", ProducerBound: "2",
				Effects: []UpgradeEffect{{Type: EffectCostReduction, Value: 5, IsPercentage: true}}},
		},
		Weather: []Weather{
			{Name: "Heatwave", Chance: 0.05, Length: intPtr(3), Effects: []WeatherEffect{
				{Affects: ScopeGlobal, Mods: []Mod{{Type: ModCrMult, Value: "1.2"}}},
				{Affects: ScopeProducerType, ProducerType: TypeSolar, Mods: []Mod{{Type: ModKwhMult, Value: "1.1"}}},
			}},
			{Name: "Storm", Chance: 0.05, Length: intPtr(1), Effects: []WeatherEffect{
				{Affects: ScopeProducerType, ProducerType: TypeWind, Mods: []Mod{{Type: ModKwhMult, Value: "1.5"}}},
				{Affects: ScopeProducerType, ProducerType: TypeSolar, Mods: []Mod{{Type: ModKwhMult, Value: "0.3"}}},
			}},
			{Name: "Sunny", Chance: 0.2, Length: intPtr(2), Effects: []WeatherEffect{
				{Affects: ScopeProducerType, ProducerType: TypeSolar, Mods: []Mod{{Type: ModKwhMult, Value: "1.25"}}},
			}},
			{Name: "Overcast", Chance: 0.15, Effects: []WeatherEffect{
				{Affects: ScopeProducerType, ProducerType: TypeSolar, Mods: []Mod{{Type: ModKwhMult, Value: "0.6"}}},
			}},
			{Name: "Clear", Chance: 1},
		},
	}
}
