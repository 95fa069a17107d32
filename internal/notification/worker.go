package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"hotel-desk-backend/internal/metrics"
	"hotel-desk-backend/internal/model"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// Message is the JSON payload delivered to front-desk devices.
type Message struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	BookingID int64  `json:"bookingId"`
	Reference string `json:"reference"`
}

// WorkerPool announces committed bookings to every subscribed front-desk device.
type WorkerPool struct {
	size    int
	jobs    chan int64
	db      *gorm.DB
	webpush *webpush.Options
	sender  NotificationSender
	logger  *zap.Logger
	metrics *metrics.Metrics
	wg      sync.WaitGroup
}

// NewWorkerPool creates a new worker pool. The queue holds 16 jobs per worker.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options, logger *zap.Logger, m *metrics.Metrics) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan int64, size*16),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
		logger:  logger.Named("notification"),
		metrics: m,
	}
}

// Start launches the worker goroutines. They exit when ctx is cancelled.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}
}

// Wait blocks until every worker has returned.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()
	wp.logger.Debug("worker started", zap.Int("worker", id))
	for {
		select {
		case bookingID := <-wp.jobs:
			wp.notifyBooking(ctx, bookingID)
		case <-ctx.Done():
			wp.logger.Debug("worker shutting down", zap.Int("worker", id))
			return
		}
	}
}

// Dispatch queues a booking announcement. It never blocks; when the queue is
// full the announcement is dropped and false is returned.
func (wp *WorkerPool) Dispatch(bookingID int64) bool {
	select {
	case wp.jobs <- bookingID:
		return true
	default:
		wp.logger.Warn("notification queue full, dropping", zap.Int64("booking_id", bookingID))
		return false
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan int64 {
	return wp.jobs
}

func (wp *WorkerPool) notifyBooking(ctx context.Context, bookingID int64) {
	var subscriptions []model.StaffSubscription
	if err := wp.db.WithContext(ctx).Find(&subscriptions).Error; err != nil {
		wp.logger.Error("failed to load subscriptions", zap.Error(err))
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	msg := Message{Title: "New booking", BookingID: bookingID, Body: fmt.Sprintf("Booking #%d saved", bookingID)}
	var booking model.Booking
	err := wp.db.WithContext(ctx).Preload("Rooms.Room").First(&booking, bookingID).Error
	if err != nil {
		wp.logger.Warn("failed to load booking for notification", zap.Int64("booking_id", bookingID), zap.Error(err))
	} else {
		msg = describe(booking)
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		wp.logger.Error("failed to encode notification", zap.Error(err))
		return
	}

	wp.logger.Info("sending booking notifications", zap.Int64("booking_id", bookingID), zap.Int("subscriptions", len(subscriptions)))
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, payload)
	}
}

func describe(b model.Booking) Message {
	numbers := make([]string, 0, len(b.Rooms))
	for _, line := range b.Rooms {
		numbers = append(numbers, line.Room.RoomNumber)
	}

	title := "New booking"
	label := b.Reference
	if b.Status == model.BookingAdvance {
		title = "Advance booking"
		label = fmt.Sprintf("#%d", b.ID)
	}
	body := label
	if len(b.Rooms) > 0 {
		body = fmt.Sprintf("%s: room %s", label, strings.Join(numbers, ", "))
		in := b.Rooms[0].CheckIn.Format("02 Jan 15:04")
		out := b.Rooms[0].CheckOut.Format("02 Jan 15:04")
		body = fmt.Sprintf("%s, %s to %s", body, in, out)
	}
	return Message{Title: title, Body: body, BookingID: b.ID, Reference: b.Reference}
}

func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.StaffSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		wp.metrics.PushResult("error")
		wp.logger.Warn("failed to send notification", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		return
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound:
		wp.metrics.PushResult("gone")
		wp.logger.Info("subscription expired, deleting", zap.String("endpoint", sub.Endpoint))
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			wp.logger.Error("failed to delete expired subscription", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		}
	case resp.StatusCode >= 400:
		wp.metrics.PushResult("rejected")
		wp.logger.Warn("push service rejected notification", zap.String("endpoint", sub.Endpoint), zap.Int("status", resp.StatusCode))
	default:
		wp.metrics.PushResult("sent")
	}
}
