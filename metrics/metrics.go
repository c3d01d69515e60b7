// Package metrics exposes game and server observability as Prometheus
// collectors. The collector is fed by game events, so the game package never
// imports it.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"github.com/warp/gridtycoon/game"
)

const namespace = "gridtycoon"

// Collector gathers game metrics on its own registry.
type Collector struct {
	registry *prometheus.Registry

	Events       *prometheus.CounterVec
	Balance      prometheus.Gauge
	HourlyKwh    prometheus.Gauge
	HourlyIncome prometheus.Gauge
	Earned       prometheus.Counter
	Payroll      prometheus.Counter
	Quits        prometheus.Counter
	WSClients    prometheus.Gauge
	Requests     *prometheus.CounterVec
}

// New creates a collector with every metric registered.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Game events published, by kind.",
		}, []string{"kind"}),
		Balance: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "balance",
			Help:      "Balance after the last hour settlement.",
		}),
		HourlyKwh: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "settlement_kwh",
			Help:      "Energy collected in the last hour settlement.",
		}),
		HourlyIncome: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "settlement_money",
			Help:      "Money credited in the last hour settlement.",
		}),
		Earned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "money_earned_total",
			Help:      "Money credited by settlements since start.",
		}),
		Payroll: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payroll_total",
			Help:      "Wages debited at day rollovers since start.",
		}),
		Quits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_quits_total",
			Help:      "Workers who quit at day rollovers.",
		}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_clients",
			Help:      "Connected websocket clients.",
		}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
	}
	c.registry.MustRegister(
		c.Events, c.Balance, c.HourlyKwh, c.HourlyIncome,
		c.Earned, c.Payroll, c.Quits, c.WSClients, c.Requests,
		collectors.NewGoCollector(),
	)
	return c
}

// Observe is a game.Listener. Pulses are counted but otherwise ignored.
func (c *Collector) Observe(ev game.Event) {
	c.Events.WithLabelValues(string(ev.Kind)).Inc()

	switch ev.Kind {
	case game.EventHour:
		if ev.Settlement == nil {
			return
		}
		c.Balance.Set(parse(ev.Settlement.Balance))
		c.HourlyKwh.Set(parse(ev.Settlement.TotalKwh))
		money := parse(ev.Settlement.TotalMoney)
		c.HourlyIncome.Set(money)
		if money > 0 {
			c.Earned.Add(money)
		}
	case game.EventDay:
		if ev.Day == nil {
			return
		}
		if wages := parse(ev.Day.Payroll); wages > 0 {
			c.Payroll.Add(wages)
		}
		c.Quits.Add(float64(len(ev.Day.Quit)))
	case game.EventLoaded, game.EventReset:
		c.Balance.Set(parse(ev.Balance))
	}
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Instrument counts requests handled by next.
func (c *Collector) Instrument(next http.Handler) http.Handler {
	return promhttp.InstrumentHandlerCounter(c.Requests, next)
}

// parse reads a decimal game amount. Amounts beyond float64 saturate, which
// is acceptable for a gauge.
func parse(s string) float64 {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	return d.InexactFloat64()
}
