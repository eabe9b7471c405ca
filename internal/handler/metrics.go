package handler

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// Metrics holds all Prometheus collectors for the streamdi backend.
var Metrics = struct {
	ViewsTotal       prometheus.Counter
	TogglesTotal     *prometheus.CounterVec
	ReportsTotal     *prometheus.CounterVec
	VideosBlocked    prometheus.Counter
	ProfilesCreated  prometheus.Counter
	RequestDuration  *prometheus.HistogramVec
	DBPoolActive     prometheus.GaugeFunc
	DBPoolIdle       prometheus.GaugeFunc
	RequestsInFlight prometheus.Gauge
	CacheHits        prometheus.Counter
	CacheMisses      prometheus.Counter
}{}

// InitMetrics registers all Prometheus metrics. Call once at startup.
func InitMetrics(pool *pgxpool.Pool) {
	Metrics.ViewsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "streamdi_views_total",
			Help: "Total counted (session-deduplicated) video views.",
		},
	)

	Metrics.TogglesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamdi_engagement_toggles_total",
			Help: "Total like and subscription toggles, by kind and direction.",
		},
		[]string{"kind", "direction"},
	)

	Metrics.ReportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamdi_reports_total",
			Help: "Total abuse reports submitted, by reason.",
		},
		[]string{"reason"},
	)

	Metrics.VideosBlocked = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "streamdi_videos_blocked_total",
			Help: "Total videos blocked by the moderation threshold.",
		},
	)

	Metrics.ProfilesCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "streamdi_profiles_created_total",
			Help: "Total profiles provisioned on first sign-in.",
		},
	)

	Metrics.RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "streamdi_api_request_duration_seconds",
			Help:    "HTTP request duration in seconds, by endpoint and method.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	Metrics.RequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "streamdi_requests_in_flight",
			Help: "Number of HTTP requests currently being served.",
		},
	)

	Metrics.CacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "streamdi_cache_hits_total",
			Help: "Total Redis cache hits.",
		},
	)

	Metrics.CacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "streamdi_cache_misses_total",
			Help: "Total Redis cache misses.",
		},
	)

	// DB pool gauges — read live stats from pgxpool
	if pool != nil {
		Metrics.DBPoolActive = prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "streamdi_db_connection_pool_active",
				Help: "Number of active database connections.",
			},
			func() float64 {
				return float64(pool.Stat().AcquiredConns())
			},
		)

		Metrics.DBPoolIdle = prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "streamdi_db_connection_pool_idle",
				Help: "Number of idle database connections.",
			},
			func() float64 {
				return float64(pool.Stat().IdleConns())
			},
		)

		prometheus.MustRegister(Metrics.DBPoolActive)
		prometheus.MustRegister(Metrics.DBPoolIdle)
	}

	prometheus.MustRegister(
		Metrics.ViewsTotal,
		Metrics.TogglesTotal,
		Metrics.ReportsTotal,
		Metrics.VideosBlocked,
		Metrics.ProfilesCreated,
		Metrics.RequestDuration,
		Metrics.RequestsInFlight,
		Metrics.CacheHits,
		Metrics.CacheMisses,
	)
}

// MetricsMiddleware records request duration and in-flight count for Prometheus.
func MetricsMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		// Don't instrument the /metrics endpoint itself
		if c.Path() == "/metrics" {
			return c.Next()
		}

		// Copy path and method into owned strings BEFORE c.Next() — Fiber
		// returns slices backed by the fasthttp buffer which can be reused
		// or overwritten by handlers (especially fasthttpadaptor).
		path := string([]byte(c.Path()))
		method := string([]byte(c.Method()))
		endpoint := sanitizeEndpoint(path)

		Metrics.RequestsInFlight.Inc()
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())

		Metrics.RequestDuration.WithLabelValues(endpoint, method, status).Observe(duration)
		Metrics.RequestsInFlight.Dec()

		return err
	}
}

// sanitizeEndpoint normalizes paths to avoid cardinality explosion.
func sanitizeEndpoint(path string) string {
	switch {
	case len(path) > 12 && path[:12] == "/api/videos/":
		return "/api/videos/:videoId"
	case len(path) > 14 && path[:14] == "/api/channels/":
		return "/api/channels/:handle"
	case len(path) > 13 && path[:13] == "/api/reports/":
		return "/api/reports/:reportId"
	default:
		return path
	}
}

// MetricsHandler serves the Prometheus /metrics endpoint via Fiber.
func MetricsHandler() fiber.Handler {
	httpHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c fiber.Ctx) error {
		httpHandler(c.Context())
		return nil
	}
}
