package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	GridsOpened = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bbgrid_grids_opened_total",
			Help: "Total number of grids entered (by direction).",
		},
		[]string{"direction"},
	)

	RungOrders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bbgrid_rung_orders_total",
			Help: "Rung order submissions (result: filled|failed).",
		},
		[]string{"result"},
	)

	CostRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bbgrid_cost_rejections_total",
			Help: "Rungs not submitted because cost exceeded the net target (stage: grid|rung).",
		},
		[]string{"stage"},
	)

	StopModifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bbgrid_stop_modifications_total",
			Help: "Stop-loss cascade modifications (result: ok|failed|skipped).",
		},
		[]string{"result"},
	)

	DynamicTPCloses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bbgrid_dynamic_tp_closes_total",
			Help: "Rungs closed by the dynamic take-profit sweep (result: ok|failed).",
		},
		[]string{"result"},
	)

	PositionsClosed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bbgrid_positions_closed_total",
			Help: "Close events handled, by close reason.",
		},
		[]string{"reason"},
	)

	ActiveGrids = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bbgrid_active_grids",
			Help: "Current number of grids in the active set.",
		},
	)

	RungRiskFraction = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bbgrid_rung_risk_fraction",
			Help: "Last risk fraction computed for each rung before capping.",
		},
		[]string{"rung"},
	)

	FreeMargin = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bbgrid_free_margin",
			Help: "Free margin of the executor (paper or live).",
		},
	)
)

func init() {
	prometheus.MustRegister(
		GridsOpened,
		RungOrders,
		CostRejections,
		StopModifications,
		DynamicTPCloses,
		PositionsClosed,
		ActiveGrids,
		RungRiskFraction,
		FreeMargin,
	)
}
