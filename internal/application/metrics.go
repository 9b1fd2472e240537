package application

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts auth outcomes. A nil *Metrics records nothing.
type Metrics struct {
	signups         *prometheus.CounterVec
	logins          *prometheus.CounterVec
	tokenRejections *prometheus.CounterVec
}

// NewMetrics registers the auth counters on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		signups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_signups_total",
			Help: "Signup attempts by result",
		}, []string{"result"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_logins_total",
			Help: "Login attempts by result",
		}, []string{"result"}),
		tokenRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_token_rejections_total",
			Help: "Requests rejected by the authorization guard",
		}, []string{"reason"}),
	}
	reg.MustRegister(m.signups, m.logins, m.tokenRejections)
	return m
}

func (m *Metrics) signup(result string) {
	if m == nil {
		return
	}
	m.signups.WithLabelValues(result).Inc()
}

func (m *Metrics) login(result string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(result).Inc()
}

// TokenRejected records a guard rejection. reason is missing, expired or invalid.
func (m *Metrics) TokenRejected(reason string) {
	if m == nil {
		return
	}
	m.tokenRejections.WithLabelValues(reason).Inc()
}
