package sched

import "github.com/prometheus/client_golang/prometheus"

type metrics struct {
	workCalls *prometheus.CounterVec
	produced  *prometheus.CounterVec
	consumed  *prometheus.CounterVec
	passes    prometheus.Counter
}

// newMetrics builds the collectors and, when reg is non-nil, registers
// them there. With a nil Registerer the counters still work but are not
// exported anywhere.
func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		workCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flow_work_calls_total",
			Help: "Work invocations per block",
		}, []string{"block"}),
		produced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flow_items_produced_total",
			Help: "Items produced per block, summed over output ports",
		}, []string{"block"}),
		consumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flow_items_consumed_total",
			Help: "Items consumed per block, summed over input ports",
		}, []string{"block"}),
		passes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flow_scheduler_passes_total",
			Help: "Completed scheduler passes over the graph",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.workCalls, m.produced, m.consumed, m.passes)
	}
	return m
}
