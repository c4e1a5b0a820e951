package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests"},
		[]string{"route", "method", "status"},
	)
	ReqDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Request duration seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	InFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "http_in_flight_requests", Help: "In-flight HTTP requests"},
	)
	AuthEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "auth_events_total", Help: "Authentication outcomes by flow"},
		[]string{"flow", "result"},
	)
	MailJobs = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "notifier_mail_jobs_total", Help: "Queued mail jobs handled by the notifier"},
		[]string{"result"},
	)
)

// MustRegister registers the HTTP and auth collectors on reg.
func MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(RequestsTotal, ReqDuration, InFlight, AuthEvents)
}

// MustRegisterNotifier registers the notifier collectors on reg.
func MustRegisterNotifier(reg prometheus.Registerer) {
	reg.MustRegister(MailJobs)
}
