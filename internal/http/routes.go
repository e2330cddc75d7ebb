package http

import (
	nethttp "net/http"
	"time"

	"avatar_bot/internal/http/handlers"
	"avatar_bot/internal/http/middleware"
	"avatar_bot/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/cors"
)

// Options carries what the router needs beyond the handlers.
type Options struct {
	ServiceAPIKey  string
	AllowedOrigins []string
	Redis          *redis.Client // nil: in-process rate limiting
	RateLimit      int
	RateWindow     time.Duration
}

// NewRouter builds the gin engine with every route and wraps it in CORS.
func NewRouter(h *handlers.Handler, health *handlers.HealthHandler, hub *ws.Hub, opts Options) nethttp.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLog(), middleware.Metrics())
	RegisterRoutes(r, h, health, hub, opts)

	return cors.New(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{nethttp.MethodGet, nethttp.MethodPost, nethttp.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: false,
	}).Handler(r)
}

func RegisterRoutes(r *gin.Engine, h *handlers.Handler, health *handlers.HealthHandler, hub *ws.Hub, opts Options) {
	if opts.RateLimit <= 0 {
		opts.RateLimit = 120
	}
	if opts.RateWindow <= 0 {
		opts.RateWindow = time.Minute
	}

	// Health checks (no rate limiting)
	r.GET("/health", health.Health)
	r.GET("/healthz", health.Liveness)
	r.GET("/readyz", health.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")

	// Ledger API for the bot process
	accounts := v1.Group("/accounts/:id", middleware.ServiceKey(opts.ServiceAPIKey))
	{
		accounts.POST("", h.GetOrCreateAccount)
		accounts.GET("", h.GetAccount)
		accounts.GET("/balance", h.GetBalance)
		accounts.POST("/quota/:mode/consume", h.ConsumeFree)
		accounts.POST("/debit", h.Debit)
		accounts.POST("/credit", h.Credit)
		accounts.POST("/charge/:mode", h.ChargeGeneration)
		accounts.POST("/referral", h.Attribute)
		accounts.POST("/referral/settle", h.SettleReferral)
		accounts.GET("/referral/stats", h.ReferralStats)
		accounts.GET("/audit", h.AuditLog)
	}

	// Mini App
	public := v1.Group("", middleware.RedisRateLimit(opts.Redis, opts.RateLimit, opts.RateWindow))
	public.POST("/auth", h.Auth)

	jwt := middleware.JWT(h.Tokens)
	me := public.Group("/me", jwt, middleware.UserRateLimit(opts.Redis, opts.RateLimit, opts.RateWindow))
	{
		me.GET("", h.Me)
		me.GET("/referral", h.MyReferral)
	}

	r.GET("/ws", ws.HandleWS(hub, h.Tokens, opts.AllowedOrigins))
}
