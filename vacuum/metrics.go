package vacuum

import (
	"github.com/go-home-io/klyqa/plugins/common"
	"github.com/prometheus/client_golang/prometheus"
)

// Dispatch results.
const (
	resultAck        = "ack"
	resultNoAnswer   = "no_answer"
	resultMismatch   = "mismatch"
	resultParseError = "parse_error"
	resultCancelled  = "cancelled"
	resultSendError  = "send_error"
)

// Vacuum metrics shared by all entities.
type metrics struct {
	dispatches   *prometheus.CounterVec
	reapTimeouts *prometheus.CounterVec
	projections  *prometheus.CounterVec
	battery      *prometheus.GaugeVec
	on           *prometheus.GaugeVec
}

// Creates metrics and registers them.
// Nil registerer leaves metrics unregistered.
func newMetrics(reg prometheus.Registerer, logger common.ILoggerProvider) *metrics {
	labels := []string{"device_id"}
	m := &metrics{
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "klyqa_vacuum_dispatch_total",
			Help: "Commands sent to vacuum cleaners by result",
		}, []string{"device_id", "result"}),
		reapTimeouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "klyqa_vacuum_reap_timeout_total",
			Help: "Background sends which didn't finish within grace period",
		}, labels),
		projections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "klyqa_vacuum_report_total",
			Help: "Device reports by projection outcome",
		}, []string{"device_id", "outcome"}),
		battery: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "klyqa_vacuum_battery_percent",
			Help: "Battery percentage (0-100)",
		}, labels),
		on: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "klyqa_vacuum_power_on",
			Help: "Power state (1=on, 0=off)",
		}, labels),
	}

	if nil == reg {
		return m
	}

	for _, c := range []prometheus.Collector{m.dispatches, m.reapTimeouts, m.projections, m.battery, m.on} {
		if err := reg.Register(c); err != nil {
			logger.Error("Failed to register metric", err, common.LogSystemToken, logSystem)
		}
	}

	return m
}

func (m *metrics) dispatched(uid string, result string) {
	m.dispatches.WithLabelValues(uid, result).Inc()
}

func (m *metrics) projected(uid string, outcome Outcome, battery int, on bool) {
	m.projections.WithLabelValues(uid, outcome.String()).Inc()
	if outcome != OutcomeAccepted {
		return
	}

	m.battery.WithLabelValues(uid).Set(float64(battery))
	if on {
		m.on.WithLabelValues(uid).Set(1)
	} else {
		m.on.WithLabelValues(uid).Set(0)
	}
}
