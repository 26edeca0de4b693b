package handlers

import "github.com/prometheus/client_golang/prometheus"

type SupportMetrics struct {
	SupportRequests *prometheus.CounterVec
}

func (m *SupportMetrics) IncSupport(status string) {
	if m == nil || m.SupportRequests == nil {
		return
	}

	m.SupportRequests.WithLabelValues(status).Inc()
}
