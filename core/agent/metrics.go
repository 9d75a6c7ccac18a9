package agent

import "github.com/prometheus/client_golang/prometheus"

// Metrics are the operational counters the agent loop updates as it works
// (an ambient operational concern the "GUI"/"vote counting" Non-goals do
// not exclude, see SPEC_FULL.md). They live on whatever registry is passed
// to NewMetrics; the agent-daemon passes its own, which the HTTP API's
// /metrics route does not serve. RemoteFailures is registered but not
// incremented anywhere.
type Metrics struct {
	Pings          prometheus.Counter
	PingFailures   prometheus.Counter
	Applies        *prometheus.CounterVec
	RemoteFailures prometheus.Counter
}

// NewMetrics registers the counters on reg and returns the handle used to
// update them.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Pings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ivxv_admin_pings_total",
			Help: "Total number of service pings attempted by the agent loop.",
		}),
		PingFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ivxv_admin_ping_failures_total",
			Help: "Total number of service pings that returned a non-zero exit or version drift.",
		}),
		Applies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ivxv_admin_applies_total",
			Help: "Total number of configuration/list apply attempts, by command type.",
		}, []string{"type"}),
		RemoteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ivxv_admin_remote_failures_total",
			Help: "Total number of non-zero-exit SSH/SCP invocations.",
		}),
	}
	reg.MustRegister(m.Pings, m.PingFailures, m.Applies, m.RemoteFailures)
	return m
}
