package network

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts coordinator activity. A nil *Metrics records nothing.
type Metrics struct {
	routed     prometheus.Counter
	monitor    prometheus.Counter
	recoveries prometheus.Counter
	dropped    prometheus.Counter
	idle       prometheus.Gauge
}

// NewMetrics creates the network metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		routed: f.NewCounter(prometheus.CounterOpts{
			Name: "intcode_network_packets_routed_total",
			Help: "Packets delivered from one machine to another",
		}),
		monitor: f.NewCounter(prometheus.CounterOpts{
			Name: "intcode_network_monitor_packets_total",
			Help: "Packets sent to the monitor address",
		}),
		recoveries: f.NewCounter(prometheus.CounterOpts{
			Name: "intcode_network_recoveries_total",
			Help: "Monitor packets re-sent to machine 0 to break an idle network",
		}),
		dropped: f.NewCounter(prometheus.CounterOpts{
			Name: "intcode_network_dropped_packets_total",
			Help: "Packets addressed to neither a machine nor the monitor",
		}),
		idle: f.NewGauge(prometheus.GaugeOpts{
			Name: "intcode_network_idle_machines",
			Help: "Machines whose last input poll found an empty queue",
		}),
	}
}

func (m *Metrics) incRouted() {
	if m != nil {
		m.routed.Inc()
	}
}

func (m *Metrics) incMonitor() {
	if m != nil {
		m.monitor.Inc()
	}
}

func (m *Metrics) incRecoveries() {
	if m != nil {
		m.recoveries.Inc()
	}
}

func (m *Metrics) incDropped() {
	if m != nil {
		m.dropped.Inc()
	}
}

func (m *Metrics) setIdle(n int) {
	if m != nil {
		m.idle.Set(float64(n))
	}
}
