package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	IterationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "trading_iterations_total", Help: "Trading iterations run"},
		[]string{"symbol", "result"},
	)
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orders_total", Help: "Orders submitted"},
		[]string{"symbol", "side", "style"},
	)
	LiquidationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "liquidations_total", Help: "Liquidate-all calls before a direction flip"},
		[]string{"symbol"},
	)
	BacktestsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "backtests_total", Help: "Backtest runs triggered"},
	)
	UpstreamErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "upstream_errors_total", Help: "Failed collaborator calls"},
		[]string{"collaborator"},
	)
)

func init() {
	prometheus.MustRegister(IterationsTotal, OrdersTotal, LiquidationsTotal, BacktestsTotal, UpstreamErrorsTotal)
}

// Handler returns the /metrics endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
