package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"astronomy-explorer/models"
)

// ChartService то, что серверу нужно от explorer.Explorer.
type ChartService interface {
	Chart(ctx context.Context, endpointName string, raw models.RawRequest) (models.ChartResult, error)
	TransportName() string
}

// Options настройки прокси-сервера.
type Options struct {
	Service        ChartService
	Logger         *slog.Logger
	AllowedOrigins []string
	// TrustedProxies адреса или подсети обратных прокси, которым разрешено
	// передавать IP клиента в X-Forwarded-For. Пусто: доверять только сокету.
	TrustedProxies []string
	RateLimitRPS   float64
	RateLimitBurst int
	DefaultLat     float64
	DefaultLng     float64
	Now            func() time.Time
}

// NewRouter собирает gin-движок со всеми маршрутами прокси.
func NewRouter(opts Options) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	router := gin.New()
	if err := router.SetTrustedProxies(opts.TrustedProxies); err != nil {
		opts.Logger.Warn("invalid trusted proxies, using peer address only", "proxies", opts.TrustedProxies, "error", err)
		_ = router.SetTrustedProxies(nil)
	}
	router.Use(
		gin.Recovery(),
		requestID(),
		requestLogger(opts.Logger),
		cors.New(corsConfig(opts.AllowedOrigins)),
	)

	h := &handler{
		service:    opts.Service,
		logger:     opts.Logger,
		defaultLat: opts.DefaultLat,
		defaultLng: opts.DefaultLng,
		now:        opts.Now,
	}

	api := router.Group("/api")
	api.GET("/health", h.health)
	api.GET("/subjects", h.subjects)
	api.GET("/styles", h.styles)

	limited := api.Group("", rateLimit(opts.RateLimitRPS, opts.RateLimitBurst, opts.Logger))
	limited.GET("/chart", h.chart)
	limited.GET("/moon-phase", h.moonPhase)

	return router
}

// NewServer оборачивает роутер в http.Server с таймаутами.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:           addr,
		Handler:        handler,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   60 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
}

func corsConfig(allowed []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{http.MethodGet, http.MethodOptions}
	cfg.ExposeHeaders = []string{requestIDHeader}
	if len(allowed) > 0 {
		cfg.AllowOrigins = allowed
	} else {
		cfg.AllowAllOrigins = true
	}
	return cfg
}
