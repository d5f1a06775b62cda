// Package metrics exposes Prometheus counters/gauges for the matching
// engine, spec §11, following the teacher's
// observability/metrics/potso.go singleton-registry pattern: a package-level
// struct of CounterVec/GaugeVec built once behind sync.Once and registered
// against the default registry.
package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics tracks instruction throughput and rejection codes for the
// matching engine.
type EngineMetrics struct {
	ordersPlaced   *prometheus.CounterVec
	ordersCanceled *prometheus.CounterVec
	fills          *prometheus.CounterVec
	liquidations   *prometheus.CounterVec
	rejections     *prometheus.CounterVec
	openInterest   *prometheus.GaugeVec
}

var (
	engineOnce     sync.Once
	engineRegistry *EngineMetrics
)

// Engine returns the process-wide engine metrics registry, creating and
// registering it on first use.
func Engine() *EngineMetrics {
	engineOnce.Do(func() {
		engineRegistry = &EngineMetrics{
			ordersPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "novaperp_orders_placed_total",
				Help: "Count of successfully placed orders by market and type.",
			}, []string{"market", "type"}),
			ordersCanceled: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "novaperp_orders_canceled_total",
				Help: "Count of canceled orders by market.",
			}, []string{"market"}),
			fills: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "novaperp_fills_total",
				Help: "Count of filled order legs by market and method.",
			}, []string{"market", "method"}),
			liquidations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "novaperp_liquidations_total",
				Help: "Count of liquidation instructions by market and kind.",
			}, []string{"market", "kind"}),
			rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "novaperp_instruction_rejections_total",
				Help: "Count of rejected instructions by wire error code.",
			}, []string{"code"}),
			openInterest: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "novaperp_open_interest_base",
				Help: "Current long/short open interest per market, base precision.",
			}, []string{"market", "side"}),
		}
		prometheus.MustRegister(
			engineRegistry.ordersPlaced,
			engineRegistry.ordersCanceled,
			engineRegistry.fills,
			engineRegistry.liquidations,
			engineRegistry.rejections,
			engineRegistry.openInterest,
		)
	})
	return engineRegistry
}

func (m *EngineMetrics) ObserveOrderPlaced(marketIndex uint16, orderType string) {
	if m == nil {
		return
	}
	m.ordersPlaced.WithLabelValues(marketLabel(marketIndex), orderType).Inc()
}

func (m *EngineMetrics) ObserveOrderCanceled(marketIndex uint16) {
	if m == nil {
		return
	}
	m.ordersCanceled.WithLabelValues(marketLabel(marketIndex)).Inc()
}

func (m *EngineMetrics) ObserveFill(marketIndex uint16, method string) {
	if m == nil {
		return
	}
	m.fills.WithLabelValues(marketLabel(marketIndex), method).Inc()
}

func (m *EngineMetrics) ObserveLiquidation(marketIndex uint16, kind string) {
	if m == nil {
		return
	}
	m.liquidations.WithLabelValues(marketLabel(marketIndex), kind).Inc()
}

func (m *EngineMetrics) ObserveRejection(code string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(code).Inc()
}

func (m *EngineMetrics) SetOpenInterest(marketIndex uint16, long, short float64) {
	if m == nil {
		return
	}
	label := marketLabel(marketIndex)
	m.openInterest.WithLabelValues(label, "long").Set(long)
	m.openInterest.WithLabelValues(label, "short").Set(short)
}

func marketLabel(marketIndex uint16) string {
	return strconv.FormatUint(uint64(marketIndex), 10)
}
