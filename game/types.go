/*
Package game provides the simulation core of the power-grid idle game.

PURPOSE:
  Players buy producers (power-generation units) and upgrades. A tick
  scheduler advances virtual time; once per simulated hour the engine
  aggregates every owned producer's output, applies upgrade and modifier
  stacking, and settles the income into the economy ledger.

KEY CONCEPTS IN THIS FILE (types.go):
  - ProducerTemplate / Producer: catalog entry vs. owned instance
  - Upgrade / UpgradeEffect: permanent, stacking effects
  - Modifier / Mod: transient, tick-limited effects (weather, events)
  - Worker: staff assigned to one producer
  - State: the aggregate root owned by Game

QUANTITIES:
  Balance, energy and prices are stored as canonical decimal strings and
  routed through package numeric for arithmetic. Rates that never need
  exactness (kWh output, efficiency) are float64.

SEE ALSO:
  - game.go: the Game controller and its mutators
  - stats.go: production aggregation
  - pricing.go: price curve
  - scheduler.go: tick state machine
*/
package game

import (
	"slices"
	"time"
)

// =============================================================================
// PRODUCERS
// =============================================================================

// ProducerType is the closed set of generation technologies.
type ProducerType string

const (
	TypeSolar     ProducerType = "solar"
	TypeFossil    ProducerType = "fossil"
	TypeNuclear   ProducerType = "nuclear"
	TypeHydro     ProducerType = "hydro"
	TypeWind      ProducerType = "wind"
	TypeDyson     ProducerType = "dyson"
	TypeBlackHole ProducerType = "black_hole"
	TypeBlood     ProducerType = "blood"
)

// ProducerTypes lists every valid ProducerType in display order.
var ProducerTypes = []ProducerType{
	TypeFossil, TypeSolar, TypeWind, TypeHydro, TypeNuclear, TypeDyson, TypeBlackHole, TypeBlood,
}

func (t ProducerType) Valid() bool { return slices.Contains(ProducerTypes, t) }

// BaseStats are the unmodified production figures of a template.
type BaseStats struct {
	BaseKwh        string  `json:"baseKwh"`
	BaseEfficiency float64 `json:"baseEfficiency"` // 0-100
}

// ProducerTemplate is an immutable catalog entry. The shop snapshot carries
// copies with CurrentPrice filled in for the selected purchase quantity.
type ProducerTemplate struct {
	ItemID         string       `json:"itemId"`
	Name           string       `json:"name"`
	Icon           string       `json:"icon,omitempty"`
	BasePrice      string       `json:"basePrice"`
	CurrentPrice   string       `json:"currentPrice"`
	Risk           float64      `json:"risk"`
	Type           ProducerType `json:"type"`
	Stats          BaseStats    `json:"stats"`
	ResearchLocked bool         `json:"researchLocked"`
	Requires       string       `json:"requires,omitempty"`
}

// Producer is an owned stack of units created from a template.
// There is at most one Producer per ItemID.
type Producer struct {
	ID             string       `json:"id"`
	ItemID         string       `json:"itemId"`
	Name           string       `json:"name"`
	Icon           string       `json:"icon,omitempty"`
	BasePrice      string       `json:"basePrice"`
	Type           ProducerType `json:"type"`
	Stats          BaseStats    `json:"stats"`
	ResearchLocked bool         `json:"researchLocked"`
	Requires       string       `json:"requires,omitempty"`
	CurrentPrice   string       `json:"currentPrice"`
	Count          int          `json:"count"`
	UnlockedAt     time.Time    `json:"unlockedAt"`
}

// =============================================================================
// UPGRADES
// =============================================================================

// EffectType tags an UpgradeEffect.
type EffectType string

const (
	EffectKwhAdd           EffectType = "kwh_add"
	EffectKwhMult          EffectType = "kwh_mult" // percentage points
	EffectCostReduction    EffectType = "cost_reduction"
	EffectWageEfficiency   EffectType = "wage_efficiency"
	EffectWorkerCompetence EffectType = "worker_competence"
	EffectInsanityFactor   EffectType = "insanity_factor"
	EffectHappinessFactor  EffectType = "happiness_factor"
	EffectQuitFactor       EffectType = "quit_factor"
)

var effectTypes = []EffectType{
	EffectKwhAdd, EffectKwhMult, EffectCostReduction, EffectWageEfficiency,
	EffectWorkerCompetence, EffectInsanityFactor, EffectHappinessFactor, EffectQuitFactor,
}

func (t EffectType) Valid() bool { return slices.Contains(effectTypes, t) }

// UpgradeEffect is one typed effect. An empty Target applies to every producer.
type UpgradeEffect struct {
	Type         EffectType `json:"type"`
	Target       string     `json:"target,omitempty"`
	Value        float64    `json:"value"`
	IsPercentage bool       `json:"isPercentage,omitempty"`
}

// AppliesTo reports whether the effect targets itemID.
func (e UpgradeEffect) AppliesTo(itemID string) bool {
	return e.Target == "" || e.Target == itemID
}

type UpgradeCategory string

const (
	CategoryWorker     UpgradeCategory = "worker"
	CategoryKwh        UpgradeCategory = "kwh"
	CategoryGlobal     UpgradeCategory = "global"
	CategoryEfficiency UpgradeCategory = "efficiency"
)

// Upgrade is a one-time purchase with permanent effects.
type Upgrade struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Icon          string          `json:"icon,omitempty"`
	Description   string          `json:"description,omitempty"`
	Cost          string          `json:"cost"`
	Category      UpgradeCategory `json:"category"`
	Requires      []string        `json:"requires"`
	ProducerBound string          `json:"producerBound,omitempty"`
	UnlockedAt    *time.Time      `json:"unlockedAt,omitempty"`
	Effects       []UpgradeEffect `json:"effects"`
}

// =============================================================================
// WORKERS
// =============================================================================

// WorkerFactors drive the daily workforce mechanics.
type WorkerFactors struct {
	Risk      float64 `json:"risk"`
	Quit      float64 `json:"quit"`
	Insanity  float64 `json:"insanity"`
	Happiness float64 `json:"happiness"`
}

// Bench marks a worker as temporarily inactive.
type Bench struct {
	DaysRemaining int  `json:"daysRemaining"`
	Paid          bool `json:"paid"`
}

// Worker is assigned to exactly one Producer (by Producer.ID).
type Worker struct {
	ID         string        `json:"id"`
	ProducerID string        `json:"producerId"`
	Name       string        `json:"name,omitempty"`
	Icon       string        `json:"icon,omitempty"`
	JobName    string        `json:"jobName"`
	Suppressed bool          `json:"isSuppressed"`
	Bench      *Bench        `json:"bench,omitempty"`
	Wage       float64       `json:"wage"` // per hour
	Competence float64       `json:"competence"`
	Level      int           `json:"level"`
	Experience int           `json:"experience"`
	Factors    WorkerFactors `json:"factors"`
	HiredAt    time.Time     `json:"hiredAt"`
}

// Active reports whether the worker contributes today.
func (w Worker) Active() bool { return !w.Suppressed && w.Bench == nil }

// WorkerTemplate is what a caller supplies when hiring.
type WorkerTemplate struct {
	Name       string        `json:"name,omitempty"`
	Icon       string        `json:"icon,omitempty"`
	JobName    string        `json:"jobName"`
	Wage       float64       `json:"wage"`
	Competence float64       `json:"competence"`
	Level      int           `json:"level"`
	Experience int           `json:"experience"`
	Factors    WorkerFactors `json:"factors"`
}

// =============================================================================
// MODIFIERS & WEATHER
// =============================================================================

// ModType tags a Mod. Conversion-rate (cr) mods act on dpkw at settlement.
type ModType string

const (
	ModKwhAdd  ModType = "kwh_add"
	ModKwhMult ModType = "kwh_mult" // raw factor, unlike EffectKwhMult
	ModCrAdd   ModType = "cr_add"
	ModCrMult  ModType = "cr_mult"
)

var modTypes = []ModType{ModKwhAdd, ModKwhMult, ModCrAdd, ModCrMult}

func (t ModType) Valid() bool { return slices.Contains(modTypes, t) }

type Mod struct {
	Type  ModType `json:"type"`
	Value string  `json:"value"`
}

// Scope selects which producers a modifier touches.
type Scope string

const (
	ScopeGlobal       Scope = "global"
	ScopeProducer     Scope = "producer"
	ScopeProducerType Scope = "producer_type"
)

// Modifier is a transient effect bundle. Length counts remaining pulses.
type Modifier struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Length       int          `json:"length"`
	Affects      Scope        `json:"affects"`
	Producer     string       `json:"producer,omitempty"`
	ProducerType ProducerType `json:"producerType,omitempty"`
	Mods         []Mod        `json:"mods"`
}

// AppliesTo reports whether the modifier touches a producer.
func (m Modifier) AppliesTo(itemID string, t ProducerType) bool {
	switch m.Affects {
	case ScopeGlobal:
		return true
	case ScopeProducer:
		return m.Producer != "" && m.Producer == itemID
	case ScopeProducerType:
		return m.ProducerType != "" && m.ProducerType == t
	}
	return false
}

// WeatherEffect is a scoped bundle of mods carried by a Weather.
type WeatherEffect struct {
	Affects        Scope        `json:"affects"`
	ProducerType   ProducerType `json:"producerType,omitempty"`
	ProducerTarget string       `json:"producerTarget,omitempty"` // itemId
	Mods           []Mod        `json:"mods"`
}

// Weather is rolled once per day. A nil Length lasts a single day.
type Weather struct {
	Name    string          `json:"name"`
	Effects []WeatherEffect `json:"effects,omitempty"`
	Chance  float64         `json:"chance"`
	Length  *int            `json:"length"`
}

// ActiveWeather is the weather currently in effect.
type ActiveWeather struct {
	Weather
	DaysActive int `json:"daysActive"`
}

// =============================================================================
// SETTINGS & UI
// =============================================================================

type Speed int

const (
	SpeedNormal Speed = 1
	SpeedFast   Speed = 2
)

func (s Speed) Valid() bool { return s == SpeedNormal || s == SpeedFast }

type Settings struct {
	AutoSave  bool  `json:"autoSave"`
	GameSpeed Speed `json:"gameSpeed"`
	Workforce bool  `json:"workforce"`
}

type Window string

const (
	WindowMain     Window = "main"
	WindowSettings Window = "settings"
)

type RightTab string

const (
	TabShop      RightTab = "shop"
	TabProducers RightTab = "producers"
	TabWorkers   RightTab = "workers"
	TabUpgrades  RightTab = "upgrades"
)

type LeftTab string

const (
	TabNews  LeftTab = "news"
	TabStats LeftTab = "stats"
)

type UI struct {
	SelectedProducer string   `json:"selectedProducer,omitempty"`
	MainWindow       Window   `json:"mainWindow"`
	RightSideBar     RightTab `json:"rightSideBar"`
	LeftSideBar      LeftTab  `json:"leftSideBar"`
	BuyQuantity      int      `json:"buyQuantity"`
}

// =============================================================================
// STATE
// =============================================================================

// Shop is the cached view of what can be bought right now, with live prices.
type Shop struct {
	Producers []ProducerTemplate `json:"producers"`
	Upgrades  []Upgrade          `json:"upgrades"`
}

// Entities holds owned collections. ItemID, upgrade ID, worker ID and
// modifier ID are unique within their collections.
type Entities struct {
	Workers   []Worker   `json:"workers"`
	Producers []Producer `json:"producers"`
	Upgrades  []Upgrade  `json:"upgrades"`
	Modifiers []Modifier `json:"modifiers"`
}

// Clock is the scheduler's position inside the current hour and day.
type Clock struct {
	SubTick   int `json:"subTick"`
	HourOfDay int `json:"hourOfDay"`
}

// State is the aggregate root. Game is its only writer.
type State struct {
	SaveName  string    `json:"saveName"`
	LastSaved time.Time `json:"lastSaved"`
	Version   string    `json:"version"`

	Balance string `json:"balance"`
	Kwh     string `json:"kwh"`
	Dpkw    string `json:"dpkw"`

	Date  time.Time `json:"date"`
	Clock Clock     `json:"clock"`

	Entities Entities `json:"entities"`
	Unlocked []string `json:"unlocked,omitempty"` // research-unlocked template ids
	Shop     Shop     `json:"shop"`
	Settings Settings `json:"settings"`
	UI       UI       `json:"ui"`

	CurrentWeather *ActiveWeather `json:"currentWeather"`
}

// =============================================================================
// LOOKUPS
// =============================================================================

func (s *State) producerByItem(itemID string) (int, bool) {
	i := slices.IndexFunc(s.Entities.Producers, func(p Producer) bool { return p.ItemID == itemID })
	return i, i >= 0
}

func (s *State) producerByID(id string) (int, bool) {
	i := slices.IndexFunc(s.Entities.Producers, func(p Producer) bool { return p.ID == id })
	return i, i >= 0
}

func (s *State) workerByID(id string) (int, bool) {
	i := slices.IndexFunc(s.Entities.Workers, func(w Worker) bool { return w.ID == id })
	return i, i >= 0
}

func (s *State) ownsUpgrade(id string) bool {
	return slices.ContainsFunc(s.Entities.Upgrades, func(u Upgrade) bool { return u.ID == id })
}
