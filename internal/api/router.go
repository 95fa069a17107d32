package api

import (
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"hotel-desk-backend/config"
	"hotel-desk-backend/internal/auth"
	"hotel-desk-backend/internal/metrics"
	"hotel-desk-backend/internal/mw"
	"hotel-desk-backend/internal/parse"
	"hotel-desk-backend/internal/store"
	"hotel-desk-backend/internal/upload"
)

// Deps are the collaborators wired into the router.
type Deps struct {
	Store    store.Store
	Auth     *auth.Manager
	Uploads  *upload.Saver
	Notifier Notifier
	WebPush  *webpush.Options
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.Config, deps Deps) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := parse.RegisterValidators(); err != nil {
		logger.Error("failed to register form validators", zap.Error(err))
	}

	r := gin.New()
	r.Use(gin.Recovery(), mw.RequestID(), mw.Logger(logger))
	r.MaxMultipartMemory = cfg.Booking.MaxMultipartMemory

	corsCfg := cors.DefaultConfig()
	if len(cfg.Server.CORSOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.Server.CORSOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AddAllowHeaders("Authorization", mw.RequestIDHeader)
	corsCfg.AddExposeHeaders(mw.RequestIDHeader)
	r.Use(cors.New(corsCfg))

	ttl := time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(ttl, 2*ttl)
	caching := mw.Cache(cacheStore, ttl)
	rateLimiter := mw.RateLimiter(mw.NewIPRateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst))
	staffOnly := mw.RequireStaff(deps.Auth)

	handler := NewHandler(deps, cfg.Booking, cacheStore)

	r.GET("/healthz", handler.Health)
	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
		api.GET("/rooms/availability", caching, handler.GetAvailability)

		staff := api.Group("", staffOnly)
		staff.POST("/bookings", handler.CreateBooking)
		staff.GET("/subscriptions", handler.GetSubscription)
		staff.PUT("/subscriptions", handler.PutSubscription)
		staff.DELETE("/subscriptions", handler.DeleteSubscription)
	}

	return r
}

// Health reports whether the database answers.
func (h *Handler) Health(c *gin.Context) {
	sqlDB, err := h.store.DB().DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
