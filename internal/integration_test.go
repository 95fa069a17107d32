package internal

import (
	"bytes"
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"hotel-desk-backend/config"
	"hotel-desk-backend/internal/api"
	"hotel-desk-backend/internal/auth"
	"hotel-desk-backend/internal/db"
	"hotel-desk-backend/internal/model"
	"hotel-desk-backend/internal/notification"
	"hotel-desk-backend/internal/store"
	"hotel-desk-backend/internal/sweeper"
	"hotel-desk-backend/internal/upload"
)

type app struct {
	db     *gorm.DB
	store  store.Store
	router *gin.Engine
	token  string
}

func newApp(t *testing.T, notifier api.Notifier) *app {
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Server:   config.ServerConfig{RateLimitPerSec: 1000, RateLimitBurst: 1000, CacheTTLSeconds: 30},
		Database: config.DatabaseConfig{Driver: "sqlite", DSN: fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())},
		Auth:     config.AuthConfig{JWTSecret: "integration", Issuer: "hotel-desk", StaffRoles: []string{"admin", "frontdesk"}},
		Booking:  config.BookingConfig{Location: time.UTC, TxTimeout: 5 * time.Second, MaxMultipartMemory: 1 << 20},
		Seed: config.SeedConfig{
			Prefix:        "GH",
			StartCounter:  41,
			TaxName:       "GST",
			TaxPercentage: 18,
			Rooms: []config.SeedRoom{
				{Number: "201", Occupancy: 2, PriceAC: 2000, PriceNonAC: 1500, OnlinePriceAC: 2200, OnlinePriceNonAC: 1700, ExtraBedPrice: 400},
				{Number: "202", Occupancy: 4, PriceAC: 3000, PriceNonAC: 2500, OnlinePriceAC: 3300, OnlinePriceNonAC: 2700, ExtraBedPrice: 400},
			},
		},
	}

	gormDB, err := db.Init(&cfg.Database, nil)
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	s := store.NewGormStore(gormDB, nil, nil)
	require.NoError(t, s.Seed(context.Background(), cfg.Seed))

	manager := auth.NewManager(cfg.Auth)
	token, err := manager.Generate(9, "Night desk", "frontdesk", time.Hour)
	require.NoError(t, err)

	router := api.NewRouter(cfg, api.Deps{
		Store:    s,
		Auth:     manager,
		Uploads:  upload.NewSaver(t.TempDir(), 1<<20),
		Notifier: notifier,
	})
	return &app{db: gormDB, store: s, router: router, token: token}
}

func (a *app) roomID(t *testing.T, number string) string {
	var room model.Room
	require.NoError(t, a.db.Where("room_number = ?", number).First(&room).Error)
	return fmt.Sprint(room.ID)
}

func (a *app) bookingRequest(t *testing.T, fields map[string][]string) *http.Request {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, vals := range fields {
		for _, v := range vals {
			require.NoError(t, w.WriteField(k, v))
		}
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/bookings", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+a.token)
	return req
}

func (a *app) book(t *testing.T, fields map[string][]string) (int, map[string]any) {
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, a.bookingRequest(t, fields))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func roomStatus(t *testing.T, gormDB *gorm.DB, number string) model.RoomStatus {
	var room model.Room
	require.NoError(t, gormDB.Where("room_number = ?", number).First(&room).Error)
	return room.Status
}

// TestBookingLifecycle takes an advance booking through confirmation and
// arrival, checking the database after each step.
func TestBookingLifecycle(t *testing.T) {
	a := newApp(t, nil)
	room201, room202 := a.roomID(t, "201"), a.roomID(t, "202")
	checkIn := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Hour)
	checkOut := checkIn.Add(48 * time.Hour)

	var bookingID float64
	t.Run("Advance booking holds the room", func(t *testing.T) {
		code, body := a.book(t, map[string][]string{
			"room_ids":        {room201},
			"adults":          {"2"},
			"check_in":        {checkIn.Format(time.RFC3339)},
			"check_out":       {checkOut.Format(time.RFC3339)},
			"booking_type":    {"advance"},
			"is_online":       {"true"},
			"customer_name":   {"Meera Iyer"},
			"customer_phone":  {"9811122233"},
			"advance_payment": {"1000"},
			"payment_method":  {"online"},
			"transaction_ref": {"UPI-778"},
		})
		require.Equal(t, http.StatusCreated, code, body)

		booking := body["booking"].(map[string]any)
		assert.Equal(t, model.PlaceholderReference, booking["reference"])
		assert.Equal(t, "advance", booking["status"])
		assert.Equal(t, "advance", body["bookingType"])
		bookingID = booking["id"].(float64)

		assert.Equal(t, model.RoomReserved, roomStatus(t, a.db, "201"))
		var prefix model.BookingPrefix
		require.NoError(t, a.db.First(&prefix).Error)
		assert.Equal(t, int64(41), prefix.Counter)
	})

	t.Run("Confirmation assigns a reference and replaces the rooms", func(t *testing.T) {
		code, body := a.book(t, map[string][]string{
			"booking_id":   {fmt.Sprint(int64(bookingID))},
			"room_ids":     {room202},
			"adults":       {"2"},
			"children":     {"2"},
			"extra_beds":   {"1"},
			"is_acs":       {"1"},
			"apply_tax":    {"yes"},
			"check_in":     {checkIn.Format(time.RFC3339)},
			"check_out":    {checkOut.Format(time.RFC3339)},
			"booking_type": {"direct"},
		})
		require.Equal(t, http.StatusCreated, code, body)
		assert.Equal(t, true, body["isUpdate"])
		assert.Equal(t, true, body["taxApplied"])

		booking := body["booking"].(map[string]any)
		assert.Equal(t, bookingID, booking["id"])
		assert.Equal(t, "GH0041", booking["reference"])
		assert.Equal(t, "confirmed", booking["status"])

		rooms := booking["rooms"].([]any)
		require.Len(t, rooms, 1)
		line := rooms[0].(map[string]any)
		assert.Equal(t, 3000.0, line["bookedPrice"])
		assert.Equal(t, 400.0, line["extraBedPrice"])
		assert.InDelta(t, 540.0+72.0, line["taxAmount"].(float64), 0.001)

		assert.Equal(t, model.RoomAvailable, roomStatus(t, a.db, "201"))
		assert.Equal(t, model.RoomReserved, roomStatus(t, a.db, "202"))

		var payments int64
		a.db.Model(&model.Payment{}).Count(&payments)
		assert.Equal(t, int64(1), payments)
	})

	t.Run("Sweeper marks the room occupied once the stay starts", func(t *testing.T) {
		svc := sweeper.NewService(config.SweeperConfig{Enabled: true}, a.store, nil, nil)
		assert.Zero(t, svc.SweepOnce(context.Background()))

		n, err := a.store.PromoteArrivals(context.Background(), checkIn.Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		assert.Equal(t, model.RoomOccupied, roomStatus(t, a.db, "202"))
	})
}

// TestConcurrentBookingsForOneRoom submits the same stay many times at once;
// exactly one may win.
func TestConcurrentBookingsForOneRoom(t *testing.T) {
	a := newApp(t, nil)
	room201 := a.roomID(t, "201")

	const attempts = 8
	var created, conflicts atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		req := a.bookingRequest(t, map[string][]string{
			"room_ids":  {room201},
			"check_in":  {"2031-01-10"},
			"check_out": {"2031-01-12"},
		})
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := httptest.NewRecorder()
			a.router.ServeHTTP(rec, req)
			switch rec.Code {
			case http.StatusCreated:
				created.Add(1)
			case http.StatusConflict:
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), created.Load())
	assert.Equal(t, int32(attempts-1), conflicts.Load())

	var lines int64
	a.db.Model(&model.BookingRoom{}).Count(&lines)
	assert.Equal(t, int64(1), lines)
}

// clientKeys returns the p256dh and auth values a browser would register.
func clientKeys(t *testing.T) (string, string) {
	key, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)
	secret := make([]byte, 16)
	_, err = rand.Read(secret)
	require.NoError(t, err)
	return base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()), base64.RawURLEncoding.EncodeToString(secret)
}

// TestBookingNotifications sends real web push requests to a fake push
// service and checks that a gone endpoint is forgotten.
func TestBookingNotifications(t *testing.T) {
	var delivered atomic.Int32
	pushService := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		delivered.Add(1)
		if r.URL.Path == "/gone" {
			w.WriteHeader(http.StatusGone)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer pushService.Close()

	private, public, err := webpush.GenerateVAPIDKeys()
	require.NoError(t, err)

	// The worker pool needs the database, so build the app first and attach
	// the pool through a forwarding notifier.
	forward := &forwardingNotifier{}
	a := newApp(t, forward)
	pool := notification.NewWorkerPool(1, a.db, &webpush.Options{
		VAPIDPublicKey:  public,
		VAPIDPrivateKey: private,
		Subscriber:      "mailto:desk@example.com",
		TTL:             60,
	}, nil, nil)
	forward.set(pool)

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		pool.Wait()
	}()
	pool.Start(ctx)

	for _, path := range []string{"/live", "/gone"} {
		p256dh, authKey := clientKeys(t)
		require.NoError(t, a.db.Create(&model.StaffSubscription{
			Endpoint:  pushService.URL + path,
			P256DH:    p256dh,
			Auth:      authKey,
			CreatedAt: time.Now(),
		}).Error)
	}

	code, body := a.book(t, map[string][]string{
		"room_ids":  {a.roomID(t, "202")},
		"check_in":  {"2031-02-01"},
		"check_out": {"2031-02-03"},
	})
	require.Equal(t, http.StatusCreated, code, body)

	assert.Eventually(t, func() bool {
		var n int64
		a.db.Model(&model.StaffSubscription{}).Count(&n)
		return delivered.Load() == 2 && n == 1
	}, 5*time.Second, 20*time.Millisecond)

	var remaining model.StaffSubscription
	require.NoError(t, a.db.First(&remaining).Error)
	assert.Equal(t, pushService.URL+"/live", remaining.Endpoint)
}

type forwardingNotifier struct {
	mu     sync.Mutex
	target api.Notifier
}

func (f *forwardingNotifier) set(n api.Notifier) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.target = n
}

func (f *forwardingNotifier) Dispatch(id int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.target == nil {
		return false
	}
	return f.target.Dispatch(id)
}
