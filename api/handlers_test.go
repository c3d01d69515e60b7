/*
handlers_test.go - Unit tests for API handlers

Tests for:
- Intent endpoints and their error mapping (400/404/409)
- Derived views (stats, shop, history)
- Save slots (create, list, load, delete)
*/
package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/gridtycoon/game"
	"github.com/warp/gridtycoon/game/store"
)

var testNow = time.Date(2024, time.March, 10, 15, 30, 0, 0, time.UTC)

type testServer struct {
	game   *game.Game
	slots  *store.Memory
	router http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	n := 0
	g := game.New(
		game.WithClock(func() time.Time { return testNow }),
		game.WithIDGenerator(func() string { n++; return "id-" + strconv.Itoa(n) }),
		game.WithRand(rand.New(rand.NewPCG(1, 2))),
		game.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	mem := store.NewMemory()
	rec := game.NewLedgerRecorder(g, mem)
	rec.Attach()

	h := NewHandler(g, mem, mem)
	h.Recorder = rec
	h.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return &testServer{game: g, slots: mem, router: NewRouter(h, RouterConfig{})}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// =============================================================================
// PRODUCERS
// =============================================================================

func TestBuyProducer_Success(t *testing.T) {
	// GIVEN: a fresh game
	s := newTestServer(t)

	// WHEN: buying two solar panels
	rec := s.do(t, http.MethodPost, "/api/producers/buy", BuyProducerRequest{ItemID: "0", Count: 2})

	// THEN: the new state is returned with 1000 + 1150 debited
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	state := decodeBody[game.State](t, rec)
	assert.Equal(t, "7850", state.Balance)
	require.Len(t, state.Entities.Producers, 1)
	assert.Equal(t, 2, state.Entities.Producers[0].Count)
}

func TestBuyProducer_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		req  BuyProducerRequest
		code int
	}{
		{"unknown item", BuyProducerRequest{ItemID: "99", Count: 1}, http.StatusNotFound},
		{"zero count", BuyProducerRequest{ItemID: "0", Count: 0}, http.StatusBadRequest},
		{"unaffordable", BuyProducerRequest{ItemID: "0", Count: 50}, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)

			rec := s.do(t, http.MethodPost, "/api/producers/buy", tt.req)

			assert.Equal(t, tt.code, rec.Code)
			resp := decodeBody[ErrorResponse](t, rec)
			assert.NotEmpty(t, resp.Details)
			assert.Equal(t, "10000", s.game.Balance(), "state unchanged")
		})
	}
}

func TestBuyProducer_MalformedBody(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/producers/buy", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()

	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSellProducer(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.game.BuyProducer("0", 1))

	rec := s.do(t, http.MethodPost, "/api/producers/sell", SellProducerRequest{ItemID: "0", Count: 1, SellPrice: "500"})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "9500", s.game.Balance())

	rec = s.do(t, http.MethodPost, "/api/producers/sell", SellProducerRequest{ItemID: "0", Count: 1, SellPrice: "500"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "nothing left to sell")
}

func TestSellProducer_PriceIsTotal(t *testing.T) {
	// GIVEN: two owned panels (1000 + 1150 spent)
	s := newTestServer(t)
	require.NoError(t, s.game.BuyProducer("0", 2))

	// WHEN: both are sold for 500
	rec := s.do(t, http.MethodPost, "/api/producers/sell", SellProducerRequest{ItemID: "0", Count: 2, SellPrice: "500"})

	// THEN: 500 is credited once, not per unit
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "8350", s.game.Balance())
}

func TestUpgrades_BuyTwiceConflicts(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.game.BuyProducer("0", 1))

	rec := s.do(t, http.MethodPost, "/api/upgrades/buy", BuyUpgradeRequest{ID: "sp_0"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "8250", s.game.Balance())

	rec = s.do(t, http.MethodPost, "/api/upgrades/buy", BuyUpgradeRequest{ID: "sp_0"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

// =============================================================================
// VIEWS
// =============================================================================

func TestStats(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.game.BuyProducer("0", 1))

	rec := s.do(t, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decodeBody[StatsDTO](t, rec)
	require.Len(t, stats.Producers, 1)
	assert.Equal(t, s.game.TotalIncome(), stats.TotalIncome)

	rec = s.do(t, http.MethodGet, "/api/stats/0", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	one := decodeBody[game.ProducerStats](t, rec)
	assert.Equal(t, 2.4, one.TotalKwh)

	rec = s.do(t, http.MethodGet, "/api/stats/2", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestShop(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/shop/quantity", QuantityRequest{Quantity: 3})
	require.Equal(t, http.StatusOK, rec.Code)
	shop := decodeBody[game.Shop](t, rec)
	require.NotEmpty(t, shop.Producers)
	assert.Equal(t, "3472.5", shop.Producers[0].CurrentPrice)

	rec = s.do(t, http.MethodGet, "/api/shop/cost/0?quantity=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2150", decodeBody[CostDTO](t, rec).Cost)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/shop/cost/0?quantity=-1", nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet,
		"/api/shop/cost/0?quantity="+strconv.Itoa(game.MaxBuyQuantity+1), nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/shop/quantity",
		QuantityRequest{Quantity: game.MaxBuyQuantity + 1}).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/shop/cost/99", nil).Code)

	rec = s.do(t, http.MethodGet, "/api/shop/locked", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decodeBody[[]game.ProducerTemplate](t, rec))
}

func TestShop_Grouped(t *testing.T) {
	// GIVEN: an owned solar panel, so its bound upgrade is offered
	s := newTestServer(t)
	require.NoError(t, s.game.BuyProducer("0", 1))

	// WHEN: reading the shop
	rec := s.do(t, http.MethodGet, "/api/shop", nil)

	// THEN: producers are grouped by type and upgrades by bound producer
	require.Equal(t, http.StatusOK, rec.Code)
	shop := decodeBody[ShopDTO](t, rec)
	require.NotEmpty(t, shop.Producers)
	solar := shop.ProducersByType[game.TypeSolar]
	require.Len(t, solar, 1)
	assert.Equal(t, "0", solar[0].ItemID)
	assert.Equal(t, "1150", solar[0].CurrentPrice)
	require.Len(t, shop.UpgradesByProducer["0"], 1)
	assert.Equal(t, "sp_0", shop.UpgradesByProducer["0"][0].ID)
}

func TestHistory(t *testing.T) {
	// GIVEN: one owned panel and two hours of play
	s := newTestServer(t)
	require.NoError(t, s.game.BuyProducer("0", 1))
	s.game.Pulses(2 * game.TicksPerHour)

	// WHEN: reading the history
	rec := s.do(t, http.MethodGet, "/api/history?limit=1", nil)

	// THEN: the latest settlement of this session is returned
	require.Equal(t, http.StatusOK, rec.Code)
	hist := decodeBody[HistoryDTO](t, rec)
	assert.Equal(t, game.InitialSaveName, hist.Session)
	require.Len(t, hist.Entries, 1)
	assert.Equal(t, s.game.Balance(), hist.Entries[0].Balance)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/history?limit=x", nil).Code)
}

// =============================================================================
// WORKERS
// =============================================================================

func TestWorkers_Lifecycle(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.game.BuyProducer("0", 1))
	producerID := s.game.Producers()[0].ID

	// hire
	rec := s.do(t, http.MethodPost, "/api/workers", HireWorkerRequest{
		ProducerID: producerID,
		Worker:     game.WorkerTemplate{JobName: "Technician", Wage: 2, Competence: 70},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	worker := decodeBody[game.Worker](t, rec)
	assert.Equal(t, producerID, worker.ProducerID)

	// stats
	rec = s.do(t, http.MethodGet, "/api/workers/"+producerID+"/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decodeBody[game.WorkerStats](t, rec).Active)

	// bench
	rec = s.do(t, http.MethodPost, "/api/workers/"+worker.ID+"/bench", BenchWorkerRequest{Days: 2, Paid: true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotNil(t, s.game.Workers()[0].Bench)

	// train beyond balance
	rec = s.do(t, http.MethodPost, "/api/workers/"+worker.ID+"/train", TrainWorkerRequest{Cost: "1000000", Increase: 5})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// fire
	rec = s.do(t, http.MethodDelete, "/api/workers/"+worker.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, s.game.Workers())

	rec = s.do(t, http.MethodDelete, "/api/workers/"+worker.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHireWorker_UnknownProducer(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/workers", HireWorkerRequest{ProducerID: "ghost"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// ECONOMY
// =============================================================================

func TestEconomySetters(t *testing.T) {
	s := newTestServer(t)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/economy/balance/add", AmountRequest{Amount: "500"}).Code)
	assert.Equal(t, "10500", s.game.Balance())

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/economy/balance/subtract", AmountRequest{Amount: "20000"}).Code)
	assert.Equal(t, "0", s.game.Balance())

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPut, "/api/economy/dpkw", AmountRequest{Amount: "2.5"}).Code)
	assert.Equal(t, "2.5", s.game.Dpkw())
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPut, "/api/economy/dpkw", AmountRequest{Amount: "-1"}).Code)
}

func TestModifiers(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/modifiers", ModifierRequest{
		Name: "Grid Subsidy", Length: 10, Affects: game.ScopeGlobal,
		Mods: []game.Mod{{Type: game.ModCrMult, Value: "2"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	m := decodeBody[game.Modifier](t, rec)
	assert.NotEmpty(t, m.ID)
	assert.Len(t, s.game.Modifiers(), 1)

	rec = s.do(t, http.MethodPost, "/api/modifiers", ModifierRequest{Name: "bad", Length: 0, Affects: game.ScopeGlobal})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/modifiers/"+m.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, s.game.Modifiers())
}

func TestWeatherAndClock(t *testing.T) {
	s := newTestServer(t)
	days := 2

	rec := s.do(t, http.MethodPut, "/api/weather", WeatherRequest{Weather: &game.Weather{Name: "Eclipse", Length: &days}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, s.game.Weather())
	assert.Equal(t, "Eclipse", s.game.Weather().Name)

	rec = s.do(t, http.MethodPut, "/api/weather", WeatherRequest{})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, s.game.Weather())

	before := s.game.Date()
	rec = s.do(t, http.MethodPost, "/api/clock/next-hour", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, before.Add(time.Hour), s.game.Date())
}

// =============================================================================
// SESSION
// =============================================================================

func TestSettingsAndUI(t *testing.T) {
	s := newTestServer(t)
	speed := game.SpeedFast
	off := false

	rec := s.do(t, http.MethodPut, "/api/settings", SettingsRequest{GameSpeed: &speed, AutoSave: &off})
	require.Equal(t, http.StatusOK, rec.Code)
	settings := decodeBody[game.Settings](t, rec)
	assert.Equal(t, game.SpeedFast, settings.GameSpeed)
	assert.False(t, settings.AutoSave)
	assert.True(t, settings.Workforce, "untouched")

	bad := game.Speed(3)
	rec = s.do(t, http.MethodPut, "/api/settings", SettingsRequest{GameSpeed: &bad})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	tab := game.TabWorkers
	rec = s.do(t, http.MethodPut, "/api/ui", UIRequest{RightSideBar: &tab})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, game.TabWorkers, s.game.UI().RightSideBar)

	ghost := "99"
	rec = s.do(t, http.MethodPut, "/api/ui", UIRequest{SelectedProducer: &ghost})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSaves_RoundTrip(t *testing.T) {
	// GIVEN: a session saved under a new name
	s := newTestServer(t)
	require.NoError(t, s.game.BuyProducer("0", 1))
	rec := s.do(t, http.MethodPost, "/api/saves", SaveRequest{Name: "Grid One"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// WHEN: the game is reset and the save is loaded back
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/reset", nil).Code)
	assert.Equal(t, "10000", s.game.Balance())

	rec = s.do(t, http.MethodGet, "/api/saves", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	infos := decodeBody[[]game.SlotInfo](t, rec)
	require.Len(t, infos, 1)
	assert.Equal(t, "Grid One", infos[0].Name)

	rec = s.do(t, http.MethodPost, "/api/saves/Grid%20One/load", nil)

	// THEN: the saved session is back
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "9000", s.game.Balance())
	assert.Equal(t, "Grid One", s.game.Snapshot().SaveName)
}

func TestSaves_NotFound(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/api/saves/nope/load", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/api/saves/nope", nil).Code)
}

func TestSaves_DefaultName(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/saves", nil)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	_, err := s.slots.Get(t.Context(), game.InitialSaveName)
	assert.NoError(t, err)

	rec = s.do(t, http.MethodDelete, "/api/saves/"+"New%20Game", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRateLimiter(t *testing.T) {
	s := newTestServer(t)
	h := NewHandler(s.game, s.slots, s.slots)
	router := NewRouter(h, RouterConfig{Limiter: NewRateLimiter(1, 2)})

	codes := make([]int, 0, 3)
	for range 3 {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/state", nil))
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
