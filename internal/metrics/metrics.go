package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ActivityEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kudos_activity_events_total",
			Help: "Activity pipeline events by kind and outcome",
		},
		[]string{"kind", "outcome"}, // kudos|badge|follow , delivered|dropped|failed
	)

	EmailsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kudos_emails_total",
			Help: "Email delivery attempts by template and outcome",
		},
		[]string{"template", "outcome"}, // sent|failed|skipped
	)

	StreamClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "kudos_stream_clients",
			Help: "Currently connected SSE clients",
		},
	)
)

func MustRegister(r prometheus.Registerer) {
	r.MustRegister(
		ActivityEventsTotal,
		EmailsTotal,
		StreamClients,
	)
}
