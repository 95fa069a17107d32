package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"hotel-desk-backend/config"
	"hotel-desk-backend/internal/metrics"
	"hotel-desk-backend/internal/store"
	"hotel-desk-backend/internal/upload"
)

// Notifier announces committed bookings. Dispatch must not block.
type Notifier interface {
	Dispatch(bookingID int64) bool
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store    store.Store
	webpush  *webpush.Options
	uploads  *upload.Saver
	notifier Notifier
	cache    *cache.Cache
	metrics  *metrics.Metrics
	logger   *zap.Logger
	booking  config.BookingConfig
	now      func() time.Time
}

// NewHandler creates a new API handler. notifier, cache and metrics may be nil.
func NewHandler(deps Deps, bookingCfg config.BookingConfig, responseCache *cache.Cache) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if bookingCfg.Location == nil {
		bookingCfg.Location = time.UTC
	}
	if bookingCfg.TxTimeout <= 0 {
		bookingCfg.TxTimeout = 15 * time.Second
	}
	if bookingCfg.MaxMultipartMemory <= 0 {
		bookingCfg.MaxMultipartMemory = 32 << 20
	}
	return &Handler{
		store:    deps.Store,
		webpush:  deps.WebPush,
		uploads:  deps.Uploads,
		notifier: deps.Notifier,
		cache:    responseCache,
		metrics:  deps.Metrics,
		logger:   logger,
		booking:  bookingCfg,
		now:      time.Now,
	}
}
