// Package metrics — счётчики Prometheus для HTTP и доменных операций маркетплейса.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics хранит все коллекторы сервиса.
type Metrics struct {
	requests        *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	dealOps         *prometheus.CounterVec
	blockedMessages *prometheus.CounterVec
	messagesSent    prometheus.Counter
	checkouts       *prometheus.CounterVec
	webhookEvents   *prometheus.CounterVec
	events          *prometheus.CounterVec
}

// New регистрирует коллекторы в reg. Для тестов передаётся prometheus.NewRegistry().
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		dealOps: f.NewCounterVec(prometheus.CounterOpts{
			Name: "marketplace_deal_operations_total",
			Help: "Deal operations by kind and result",
		}, []string{"operation", "result"}),
		blockedMessages: f.NewCounterVec(prometheus.CounterOpts{
			Name: "marketplace_messages_blocked_total",
			Help: "Messages rejected by the off-platform contact filter",
		}, []string{"token"}),
		messagesSent: f.NewCounter(prometheus.CounterOpts{
			Name: "marketplace_messages_sent_total",
			Help: "Messages stored",
		}),
		checkouts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "marketplace_checkout_sessions_total",
			Help: "Checkout sessions requested from the payment provider",
		}, []string{"kind", "result"}),
		webhookEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "marketplace_webhook_events_total",
			Help: "Payment provider webhook events by type and outcome",
		}, []string{"type", "result"}),
		events: f.NewCounterVec(prometheus.CounterOpts{
			Name: "marketplace_events_published_total",
			Help: "Domain events handed to the broker",
		}, []string{"type", "result"}),
	}
}

// DealOperation учитывает операцию над сделкой (create, accept, complete, paid).
func (m *Metrics) DealOperation(op, result string) {
	m.dealOps.WithLabelValues(op, result).Inc()
}

func (m *Metrics) MessageBlocked(token string) {
	m.blockedMessages.WithLabelValues(token).Inc()
}

func (m *Metrics) MessageSent() {
	m.messagesSent.Inc()
}

func (m *Metrics) Checkout(kind, result string) {
	m.checkouts.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) WebhookEvent(eventType, result string) {
	m.webhookEvents.WithLabelValues(eventType, result).Inc()
}

func (m *Metrics) EventPublished(eventType, result string) {
	m.events.WithLabelValues(eventType, result).Inc()
}

// Middleware пишет счётчик и длительность запросов. В path пишется шаблон маршрута chi,
// чтобы ID в URL не раздували число серий.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		path := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
		m.duration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}
