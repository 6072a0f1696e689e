package metrics

import (
	"net/http"

	"github.com/anonto42/nano-midea/notifier/internal/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Reporter counts notification outcomes for Prometheus
type Reporter struct {
	outcomes *prometheus.CounterVec
	written  *prometheus.CounterVec
}

// NewReporter creates the counters and registers them with reg
func NewReporter(reg prometheus.Registerer) *Reporter {
	r := &Reporter{
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifier_operations_total",
			Help: "Notification operations by operation, type and final status",
		}, []string{"operation", "type", "status"}),
		written: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifier_notifications_written_total",
			Help: "Notification documents committed to the store",
		}, []string{"type"}),
	}
	reg.MustRegister(r.outcomes, r.written)
	return r
}

func (r *Reporter) Report(o services.Outcome) {
	r.outcomes.WithLabelValues(o.Operation, o.Type, string(o.Status)).Inc()
	if o.Status == services.StatusDelivered {
		r.written.WithLabelValues(o.Type).Add(float64(o.Recipients))
	}
}

// Handler returns an http.Handler for Prometheus scraping
func Handler() http.Handler {
	return promhttp.Handler()
}
