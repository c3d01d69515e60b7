/*
handlers.go - HTTP API handlers for the simulation

PURPOSE:
  Exposes the game intents over REST. Handles HTTP request/response and
  JSON serialization, and delegates every rule to the game core.

ENDPOINTS:
  State:
    GET    /api/state                    Full state snapshot
    GET    /api/catalog                  Static catalog
    GET    /api/stats                    Derived economy view
    GET    /api/stats/{itemId}           Stats of one owned producer
    GET    /api/history                  Recent hourly settlements

  Shop:
    GET    /api/shop                     Current shop
    GET    /api/shop/locked              Producers awaiting research or prerequisites
    GET    /api/shop/cost/{itemId}       Bulk cost (?quantity=n)
    POST   /api/shop/quantity            Set buy quantity

  Producers & upgrades:
    POST   /api/producers/buy            Buy units
    POST   /api/producers/sell           Sell units
    POST   /api/producers/unlock         Complete research
    POST   /api/upgrades/buy             Buy an upgrade

  Workers:
    GET    /api/workers                  List workers
    POST   /api/workers                  Hire
    DELETE /api/workers/{id}             Fire
    GET    /api/workers/{id}/stats       Staff stats of producer {id}
    POST   /api/workers/{id}/bench|unbench|train|experience|wage|suppress

  Economy:
    POST   /api/economy/balance/add|subtract
    PUT    /api/economy/kwh|dpkw
    POST   /api/economy/kwh/add
    GET    /api/modifiers, POST /api/modifiers, DELETE /api/modifiers/{id}
    PUT    /api/weather
    POST   /api/clock/next-hour

  Session:
    PUT    /api/settings, PUT /api/ui
    GET    /api/saves, POST /api/saves
    POST   /api/saves/{name}/load, DELETE /api/saves/{name}
    POST   /api/reset

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid input (bad body, count, setting, modifier, save)
  - 404: Unknown producer, upgrade, worker or save
  - 409: Conflict (insufficient balance, already owned)
  - 500: Internal errors

SECURITY NOTE:
  No authentication. The server is a single-player host; run it on
  localhost or behind an authenticating proxy.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/warp/gridtycoon/game"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Game   *game.Game
	Slots  game.SlotStore
	Ledger game.Ledger

	// Recorder, when set, names the ledger session of the running game.
	Recorder *game.LedgerRecorder
	Logger   *slog.Logger
}

// NewHandler creates a new handler over a game and its stores.
func NewHandler(g *game.Game, slots game.SlotStore, ledger game.Ledger) *Handler {
	return &Handler{
		Game:   g,
		Slots:  slots,
		Ledger: ledger,
		Logger: slog.Default().With("component", "api"),
	}
}

// =============================================================================
// STATE
// =============================================================================

// GetState returns the full state snapshot.
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Game.Snapshot())
}

// GetCatalog returns the static catalog.
func (h *Handler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Game.Catalog())
}

// GetStats returns the derived economy view.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatsDTO{
		TotalIncome: h.Game.TotalIncome(),
		Dpkw:        h.Game.Dpkw(),
		Producers:   h.Game.AllProducerStats(),
	})
}

// GetProducerStats returns the stats of one owned producer.
func (h *Handler) GetProducerStats(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemId")
	stats, ok := h.Game.ProducerStats(itemID)
	if !ok {
		writeError(w, http.StatusNotFound, "Producer not owned", nil)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GetHistory returns recent settlements of the current session.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	limit := 24
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = n
	}

	session := h.Game.Snapshot().SaveName
	if h.Recorder != nil {
		session = h.Recorder.Session()
	}
	entries, err := h.Ledger.Recent(r.Context(), session, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read history", err)
		return
	}
	if entries == nil {
		entries = []game.LedgerEntry{}
	}
	writeJSON(w, http.StatusOK, HistoryDTO{Session: session, Entries: entries})
}

// =============================================================================
// SHOP
// =============================================================================

// GetShop returns the current shop with its grouped views.
func (h *Handler) GetShop(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, shopView(h.Game.Shop()))
}

// GetLockedProducers lists producers not yet offered.
func (h *Handler) GetLockedProducers(w http.ResponseWriter, r *http.Request) {
	locked := h.Game.LockedProducers()
	if locked == nil {
		locked = []game.ProducerTemplate{}
	}
	writeJSON(w, http.StatusOK, locked)
}

// GetBulkCost prices a quantity of a producer at current ownership.
func (h *Handler) GetBulkCost(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemId")
	if _, ok := h.Game.Catalog().Producer(itemID); !ok {
		writeError(w, http.StatusNotFound, "Unknown producer", nil)
		return
	}
	qty := 1
	if s := r.URL.Query().Get("quantity"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > game.MaxBuyQuantity {
			writeError(w, http.StatusBadRequest, "Invalid quantity", err)
			return
		}
		qty = n
	}
	writeJSON(w, http.StatusOK, CostDTO{ItemID: itemID, Quantity: qty, Cost: h.Game.BulkCost(itemID, qty)})
}

// SetBuyQuantity reprices the shop for a new quantity.
func (h *Handler) SetBuyQuantity(w http.ResponseWriter, r *http.Request) {
	var req QuantityRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.Game.SetBuyQuantity(req.Quantity); err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shopView(h.Game.Shop()))
}

// =============================================================================
// PRODUCERS & UPGRADES
// =============================================================================

// BuyProducer buys units of a producer.
func (h *Handler) BuyProducer(w http.ResponseWriter, r *http.Request) {
	var req BuyProducerRequest
	if !decode(w, r, &req) {
		return
	}
	h.respond(w, h.Game.BuyProducer(req.ItemID, req.Count))
}

// SellProducer sells units of an owned producer.
func (h *Handler) SellProducer(w http.ResponseWriter, r *http.Request) {
	var req SellProducerRequest
	if !decode(w, r, &req) {
		return
	}
	h.respond(w, h.Game.SellProducer(req.ItemID, req.Count, req.SellPrice))
}

// UnlockProducer completes research for a producer.
func (h *Handler) UnlockProducer(w http.ResponseWriter, r *http.Request) {
	var req UnlockProducerRequest
	if !decode(w, r, &req) {
		return
	}
	h.respond(w, h.Game.UnlockProducer(req.ItemID))
}

// BuyUpgrade buys an upgrade from the shop.
func (h *Handler) BuyUpgrade(w http.ResponseWriter, r *http.Request) {
	var req BuyUpgradeRequest
	if !decode(w, r, &req) {
		return
	}
	h.respond(w, h.Game.BuyUpgrade(req.ID))
}

// =============================================================================
// WORKERS
// =============================================================================

// ListWorkers returns every worker.
func (h *Handler) ListWorkers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Game.Workers())
}

// HireWorker assigns a new worker to an owned producer.
func (h *Handler) HireWorker(w http.ResponseWriter, r *http.Request) {
	var req HireWorkerRequest
	if !decode(w, r, &req) {
		return
	}
	worker, err := h.Game.HireWorker(req.ProducerID, req.Worker)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, worker)
}

// FireWorker removes a worker.
func (h *Handler) FireWorker(w http.ResponseWriter, r *http.Request) {
	h.respond(w, h.Game.FireWorker(chi.URLParam(r, "id")))
}

// GetWorkerStats summarizes the staff of a producer.
func (h *Handler) GetWorkerStats(w http.ResponseWriter, r *http.Request) {
	stats, ok := h.Game.WorkerStats(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Producer not owned", nil)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// BenchWorker benches a worker.
func (h *Handler) BenchWorker(w http.ResponseWriter, r *http.Request) {
	var req BenchWorkerRequest
	if !decode(w, r, &req) {
		return
	}
	h.respond(w, h.Game.BenchWorker(chi.URLParam(r, "id"), req.Days, req.Paid))
}

// UnbenchWorker returns a benched worker to duty.
func (h *Handler) UnbenchWorker(w http.ResponseWriter, r *http.Request) {
	h.respond(w, h.Game.UnbenchWorker(chi.URLParam(r, "id")))
}

// TrainWorker raises a worker's competence.
func (h *Handler) TrainWorker(w http.ResponseWriter, r *http.Request) {
	var req TrainWorkerRequest
	if !decode(w, r, &req) {
		return
	}
	h.respond(w, h.Game.TrainWorker(chi.URLParam(r, "id"), req.Cost, req.Increase))
}

// AddWorkerExperience grants experience points.
func (h *Handler) AddWorkerExperience(w http.ResponseWriter, r *http.Request) {
	var req ExperienceRequest
	if !decode(w, r, &req) {
		return
	}
	h.respond(w, h.Game.AddWorkerExperience(chi.URLParam(r, "id"), req.Experience))
}

// UpdateWorkerWage sets a worker's wage.
func (h *Handler) UpdateWorkerWage(w http.ResponseWriter, r *http.Request) {
	var req WageRequest
	if !decode(w, r, &req) {
		return
	}
	h.respond(w, h.Game.UpdateWorkerWage(chi.URLParam(r, "id"), req.Wage))
}

// SuppressWorker toggles a worker's suppression.
func (h *Handler) SuppressWorker(w http.ResponseWriter, r *http.Request) {
	var req SuppressRequest
	if !decode(w, r, &req) {
		return
	}
	h.respond(w, h.Game.SuppressWorker(chi.URLParam(r, "id"), req.Suppressed))
}

// =============================================================================
// ECONOMY
// =============================================================================

// amountHandler adapts a resource setter to an AmountRequest endpoint.
func (h *Handler) amountHandler(set func(string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AmountRequest
		if !decode(w, r, &req) {
			return
		}
		h.respond(w, set(req.Amount))
	}
}

// ListModifiers returns the active modifiers.
func (h *Handler) ListModifiers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Game.Modifiers())
}

// AddModifier adds a timed modifier.
func (h *Handler) AddModifier(w http.ResponseWriter, r *http.Request) {
	var req ModifierRequest
	if !decode(w, r, &req) {
		return
	}
	m, err := h.Game.AddModifier(game.Modifier{
		Name:         req.Name,
		Length:       req.Length,
		Affects:      req.Affects,
		Producer:     req.Producer,
		ProducerType: game.ProducerType(req.ProducerType),
		Mods:         req.Mods,
	})
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// RemoveModifier drops a modifier before it expires.
func (h *Handler) RemoveModifier(w http.ResponseWriter, r *http.Request) {
	h.Game.RemoveModifier(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

// SetWeather forces or clears the current weather.
func (h *Handler) SetWeather(w http.ResponseWriter, r *http.Request) {
	var req WeatherRequest
	if !decode(w, r, &req) {
		return
	}
	h.respond(w, h.Game.SetWeather(req.Weather))
}

// NextHour skips to the next hour boundary.
func (h *Handler) NextHour(w http.ResponseWriter, r *http.Request) {
	h.Game.NextHour()
	writeJSON(w, http.StatusOK, h.Game.Snapshot())
}

// =============================================================================
// SESSION
// =============================================================================

// UpdateSettings applies the provided settings.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsRequest
	if !decode(w, r, &req) {
		return
	}
	// speed first: it is the only field that can be rejected
	if req.GameSpeed != nil {
		if err := h.Game.SetGameSpeed(*req.GameSpeed); err != nil {
			writeGameError(w, err)
			return
		}
	}
	if req.AutoSave != nil {
		h.Game.SetAutoSave(*req.AutoSave)
	}
	if req.Workforce != nil {
		h.Game.SetWorkforce(*req.Workforce)
	}
	writeJSON(w, http.StatusOK, h.Game.Settings())
}

// UpdateUI applies the provided UI fields in order, stopping at the first
// rejected one.
func (h *Handler) UpdateUI(w http.ResponseWriter, r *http.Request) {
	var req UIRequest
	if !decode(w, r, &req) {
		return
	}
	var steps []func() error
	if req.SelectedProducer != nil {
		steps = append(steps, func() error { return h.Game.SelectProducer(*req.SelectedProducer) })
	}
	if req.MainWindow != nil {
		steps = append(steps, func() error { return h.Game.SetMainWindow(*req.MainWindow) })
	}
	if req.RightSideBar != nil {
		steps = append(steps, func() error { return h.Game.SetRightSideBar(*req.RightSideBar) })
	}
	if req.LeftSideBar != nil {
		steps = append(steps, func() error { return h.Game.SetLeftSideBar(*req.LeftSideBar) })
	}
	for _, step := range steps {
		if err := step(); err != nil {
			writeGameError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, h.Game.UI())
}

// ListSaves returns stored save slots.
func (h *Handler) ListSaves(w http.ResponseWriter, r *http.Request) {
	infos, err := h.Slots.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list saves", err)
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

// CreateSave writes the session to a slot, renaming it first if asked.
func (h *Handler) CreateSave(w http.ResponseWriter, r *http.Request) {
	var req SaveRequest
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}
	if req.Name != "" {
		if err := h.Game.RenameSave(req.Name); err != nil {
			writeGameError(w, err)
			return
		}
	}
	save := h.Game.SaveGame()
	if err := h.Slots.Put(r.Context(), save.SaveName, save); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to write save", err)
		return
	}
	h.Logger.Info("game saved", "save", save.SaveName)
	writeJSON(w, http.StatusCreated, map[string]any{
		"name":      save.SaveName,
		"lastSaved": save.LastSaved,
	})
}

// LoadSave replaces the session with a stored save.
func (h *Handler) LoadSave(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	save, err := h.Slots.Get(r.Context(), name)
	if err != nil {
		writeGameError(w, err)
		return
	}
	h.respond(w, h.Game.LoadGame(save))
}

// DeleteSave removes a stored save.
func (h *Handler) DeleteSave(w http.ResponseWriter, r *http.Request) {
	if err := h.Slots.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		writeGameError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reset starts a fresh session. Stored saves are kept.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	h.Game.ResetGame()
	writeJSON(w, http.StatusOK, h.Game.Snapshot())
}

// SaveNow writes the session to its own slot; used on shutdown.
func (h *Handler) SaveNow(ctx context.Context) error {
	save := h.Game.SaveGame()
	return h.Slots.Put(ctx, save.SaveName, save)
}

// =============================================================================
// HELPERS
// =============================================================================

// respond writes the state snapshot on success, the mapped error otherwise.
func (h *Handler) respond(w http.ResponseWriter, err error) {
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Game.Snapshot())
}

func shopView(shop game.Shop) ShopDTO {
	return ShopDTO{
		Shop:               shop,
		ProducersByType:    game.ProducersByType(shop.Producers),
		UpgradesByProducer: game.UpgradesByProducer(shop.Upgrades),
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeGameError maps game error categories to HTTP status codes.
func writeGameError(w http.ResponseWriter, err error) {
	switch {
	case game.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case game.IsConflict(err):
		writeError(w, http.StatusConflict, "Conflict", err)
	case game.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Invalid request", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}
