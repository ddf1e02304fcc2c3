package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MetricsManager holds the auth service Prometheus collectors.
// All Observe* helpers are safe to call on a nil receiver.
type MetricsManager struct {
	Registry             *prometheus.Registry
	LoginsTotal          *prometheus.CounterVec
	SignupsTotal         *prometheus.CounterVec
	CodeVerifications    *prometheus.CounterVec
	PasswordResetsTotal  *prometheus.CounterVec
	SessionsExpiredTotal prometheus.Counter
	MailDeliveriesTotal  *prometheus.CounterVec
	HTTPRequestLatency   *prometheus.HistogramVec
}

func NewMetricsManager(serviceName string) *MetricsManager {
	registry := prometheus.NewRegistry()

	m := &MetricsManager{
		Registry: registry,
		LoginsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		SignupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "signups_total",
			Help:      "Signup lifecycle events by stage (started, verified, abandoned).",
		}, []string{"stage"}),
		CodeVerifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "code_verifications_total",
			Help:      "One-time code checks by result.",
		}, []string{"result"}),
		PasswordResetsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "password_resets_total",
			Help:      "Password reset requests and completions by stage and result.",
		}, []string{"stage", "result"}),
		SessionsExpiredTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "sessions_expired_total",
			Help:      "Sessions cleared because of inactivity.",
		}),
		MailDeliveriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "mail_deliveries_total",
			Help:      "Email delivery attempts by transport and result.",
		}, []string{"transport", "result"}),
		HTTPRequestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: serviceName,
			Name:      "http_request_latency_seconds",
			Help:      "Latency of HTTP requests by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}

	registry.MustRegister(
		m.LoginsTotal,
		m.SignupsTotal,
		m.CodeVerifications,
		m.PasswordResetsTotal,
		m.SessionsExpiredTotal,
		m.MailDeliveriesTotal,
		m.HTTPRequestLatency,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

func (m *MetricsManager) ObserveLogin(result string) {
	if m == nil {
		return
	}
	m.LoginsTotal.WithLabelValues(result).Inc()
}

func (m *MetricsManager) ObserveSignup(stage string) {
	if m == nil {
		return
	}
	m.SignupsTotal.WithLabelValues(stage).Inc()
}

func (m *MetricsManager) ObserveCodeVerification(result string) {
	if m == nil {
		return
	}
	m.CodeVerifications.WithLabelValues(result).Inc()
}

func (m *MetricsManager) ObservePasswordReset(stage, result string) {
	if m == nil {
		return
	}
	m.PasswordResetsTotal.WithLabelValues(stage, result).Inc()
}

func (m *MetricsManager) ObserveSessionExpired() {
	if m == nil {
		return
	}
	m.SessionsExpiredTotal.Inc()
}

func (m *MetricsManager) ObserveMailDelivery(transport, result string) {
	if m == nil {
		return
	}
	m.MailDeliveriesTotal.WithLabelValues(transport, result).Inc()
}

func (m *MetricsManager) ObserveHTTPRequest(route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestLatency.WithLabelValues(route, status).Observe(d.Seconds())
}

// StartMetricsServer serves /metrics on port until ctx is cancelled.
// An empty port disables the server.
func StartMetricsServer(ctx context.Context, port string, logger *zap.Logger, registry *prometheus.Registry) error {
	if port == "" {
		logger.Info("Prometheus metrics server port not configured, server will not start")
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("Prometheus metrics server starting", zap.String("port", port), zap.String("path", "/metrics"))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
