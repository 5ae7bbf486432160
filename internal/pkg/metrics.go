package pkg

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 业务计数器，每个实例一个独立的 registry
type Metrics struct {
	registry      *prometheus.Registry
	Registrations prometheus.Counter
	Approvals     prometheus.Counter
	Rejections    prometheus.Counter
	Resolutions   prometheus.Counter
	Notifications prometheus.Counter
	PolicyDenials *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		Registrations: f.NewCounter(prometheus.CounterOpts{
			Name: "portal_accounts_registered_total",
			Help: "Accounts created through registration",
		}),
		Approvals: f.NewCounter(prometheus.CounterOpts{
			Name: "portal_accounts_approved_total",
			Help: "Accounts approved by a community admin",
		}),
		Rejections: f.NewCounter(prometheus.CounterOpts{
			Name: "portal_accounts_rejected_total",
			Help: "Accounts rejected and deleted by a community admin",
		}),
		Resolutions: f.NewCounter(prometheus.CounterOpts{
			Name: "portal_reports_resolved_total",
			Help: "Reports marked resolved",
		}),
		Notifications: f.NewCounter(prometheus.CounterOpts{
			Name: "portal_notifications_total",
			Help: "Notifications appended to the log",
		}),
		PolicyDenials: f.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_policy_denials_total",
			Help: "Authorization policy denials by reason",
		}, []string{"reason"}),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
