/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. State and stats are
  returned as the game types themselves (they already carry JSON tags and
  are deep copies); intents get their own request types so the wire
  contract can evolve without touching the core.

NAMING CONVENTION:
  - *Request: Request body types from clients
  - *DTO: Response types assembled by the adapter
  - *Response: Small wrappers

TYPES:
  Producers: BuyProducerRequest, SellProducerRequest, UnlockProducerRequest
  Upgrades:  BuyUpgradeRequest
  Workers:   HireWorkerRequest, BenchWorkerRequest, TrainWorkerRequest,
             ExperienceRequest, WageRequest, SuppressRequest
  Economy:   AmountRequest, ModifierRequest, WeatherRequest
  Session:   SettingsRequest, UIRequest, SaveRequest, QuantityRequest
  Views:     StatsDTO, ShopDTO, HistoryDTO, CostDTO, ErrorResponse

VALIDATION:
  Validation is done in handlers and the game core, not in DTOs.

SEE ALSO:
  - handlers.go: Uses these types
  - game/types.go: State types returned directly
*/
package api

import (
	"github.com/warp/gridtycoon/game"
)

// =============================================================================
// INTENTS
// =============================================================================

// BuyProducerRequest buys count units of a catalog producer.
type BuyProducerRequest struct {
	ItemID string `json:"itemId"`
	Count  int    `json:"count"`
}

// SellProducerRequest sells count units and credits sellPrice in total.
type SellProducerRequest struct {
	ItemID    string `json:"itemId"`
	Count     int    `json:"count"`
	SellPrice string `json:"sellPrice"`
}

// UnlockProducerRequest completes research for a locked producer.
type UnlockProducerRequest struct {
	ItemID string `json:"itemId"`
}

// BuyUpgradeRequest buys an upgrade from the shop.
type BuyUpgradeRequest struct {
	ID string `json:"id"`
}

// HireWorkerRequest assigns a new worker to an owned producer.
type HireWorkerRequest struct {
	ProducerID string              `json:"producerId"`
	Worker     game.WorkerTemplate `json:"worker"`
}

// BenchWorkerRequest benches a worker for a number of days.
type BenchWorkerRequest struct {
	Days int  `json:"days"`
	Paid bool `json:"paid"`
}

// TrainWorkerRequest raises competence for a cost.
type TrainWorkerRequest struct {
	Cost     string  `json:"cost"`
	Increase float64 `json:"increase"`
}

// ExperienceRequest grants experience points.
type ExperienceRequest struct {
	Experience int `json:"experience"`
}

// WageRequest sets a worker's hourly wage.
type WageRequest struct {
	Wage float64 `json:"wage"`
}

// SuppressRequest toggles a worker's suppression.
type SuppressRequest struct {
	Suppressed bool `json:"suppressed"`
}

// AmountRequest carries a decimal amount for resource setters.
type AmountRequest struct {
	Amount string `json:"amount"`
}

// ModifierRequest adds a timed modifier. ID is generated by the game.
type ModifierRequest struct {
	Name         string     `json:"name"`
	Length       int        `json:"length"` // pulses
	Affects      game.Scope `json:"affects"`
	Producer     string     `json:"producer,omitempty"`
	ProducerType string     `json:"producerType,omitempty"`
	Mods         []game.Mod `json:"mods"`
}

// WeatherRequest forces the current weather. A null weather clears it.
type WeatherRequest struct {
	Weather *game.Weather `json:"weather"`
}

// SettingsRequest updates settings; nil fields are left unchanged.
type SettingsRequest struct {
	AutoSave  *bool       `json:"autoSave,omitempty"`
	GameSpeed *game.Speed `json:"gameSpeed,omitempty"`
	Workforce *bool       `json:"workforce,omitempty"`
}

// UIRequest updates UI state; nil fields are left unchanged.
type UIRequest struct {
	SelectedProducer *string        `json:"selectedProducer,omitempty"`
	MainWindow       *game.Window   `json:"mainWindow,omitempty"`
	RightSideBar     *game.RightTab `json:"rightSideBar,omitempty"`
	LeftSideBar      *game.LeftTab  `json:"leftSideBar,omitempty"`
}

// QuantityRequest sets the shop buy quantity.
type QuantityRequest struct {
	Quantity int `json:"quantity"`
}

// SaveRequest writes the session to a slot. An empty name keeps the
// current save name.
type SaveRequest struct {
	Name string `json:"name,omitempty"`
}

// =============================================================================
// VIEWS
// =============================================================================

// StatsDTO is the derived economy view.
type StatsDTO struct {
	TotalIncome string               `json:"totalIncome"`
	Dpkw        string               `json:"dpkw"`
	Producers   []game.ProducerStats `json:"producers"`
}

// ShopDTO is the shop with producers grouped by technology and upgrades
// grouped by the producer they are bound to ("" for unbound).
type ShopDTO struct {
	game.Shop
	ProducersByType    map[game.ProducerType][]game.ProducerTemplate `json:"producersByType"`
	UpgradesByProducer map[string][]game.Upgrade                     `json:"upgradesByProducer"`
}

// HistoryDTO lists recent settlements of the current session.
type HistoryDTO struct {
	Session string             `json:"session"`
	Entries []game.LedgerEntry `json:"entries"`
}

// CostDTO is the bulk cost of a quantity at current ownership.
type CostDTO struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
	Cost     string `json:"cost"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
