package api

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hotel-desk-backend/internal/domain"
	"hotel-desk-backend/internal/metrics"
	"hotel-desk-backend/internal/model"
	"hotel-desk-backend/internal/mw"
	"hotel-desk-backend/internal/parse"
	"hotel-desk-backend/internal/store"
)

type bookingResponse struct {
	Message     string            `json:"message"`
	Booking     *model.Booking    `json:"booking"`
	TaxApplied  bool              `json:"taxApplied"`
	BookingType model.BookingType `json:"bookingType"`
	IsUpdate    bool              `json:"isUpdate"`
}

// bookingForm is the booking form as posted by the front desk. Per-room
// fields repeat once per entry of room_ids.
type bookingForm struct {
	RoomIDs   []int64    `form:"room_ids" binding:"required,min=1,max=20,dive,gt=0"`
	Adults    []int      `form:"adults" binding:"omitempty,dive,gte=1,lte=50"`
	Children  []int      `form:"children" binding:"omitempty,dive,gte=0,lte=50"`
	ExtraBeds []int      `form:"extra_beds" binding:"omitempty,dive,gte=0,lte=10"`
	IsACs     []string   `form:"is_acs" binding:"omitempty,dive,boolish"`
	CheckIn   parse.Time `form:"check_in"`
	CheckOut  parse.Time `form:"check_out"`
	IsOnline  parse.Bool `form:"is_online"`
	ApplyTax  parse.Bool `form:"apply_tax"`

	BookingType string `form:"booking_type" binding:"omitempty,oneof=direct advance"`
	BookingID   int64  `form:"booking_id" binding:"gte=0"`

	CustomerID      int64  `form:"customer_id" binding:"gte=0"`
	CustomerName    string `form:"customer_name" binding:"max=255"`
	CustomerPhone   string `form:"customer_phone" binding:"max=32"`
	CustomerEmail   string `form:"customer_email" binding:"omitempty,email"`
	CustomerAddress string `form:"customer_address"`

	OccupantNames     []string `form:"occupant_names"`
	OccupantAddresses []string `form:"occupant_addresses"`
	OccupantPhones    []string `form:"occupant_phones"`

	AdvancePayment float64 `form:"advance_payment" binding:"gte=0"`
	PaymentMethod  string  `form:"payment_method"`
	PaymentNote    string  `form:"payment_note"`
	TransactionRef string  `form:"transaction_ref"`
}

// CreateBooking handles POST /api/bookings. The form may be multipart (with
// occupant photos) or url-encoded.
func (h *Handler) CreateBooking(c *gin.Context) {
	start := time.Now()

	if err := c.Request.ParseMultipartForm(h.booking.MaxMultipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		h.metrics.ObserveBooking(typeLabel(""), metrics.OutcomeInvalid, time.Since(start))
		respondError(c, http.StatusBadRequest, "validation_error", "invalid form body", nil)
		return
	}

	var form bookingForm
	if err := c.ShouldBind(&form); err != nil {
		h.metrics.ObserveBooking(typeLabel(""), metrics.OutcomeInvalid, time.Since(start))
		respondDomainError(c, parse.BindError(err))
		return
	}
	req, err := form.request(h.booking.Location)
	if err != nil {
		h.metrics.ObserveBooking(typeLabel(req.Type), metrics.OutcomeInvalid, time.Since(start))
		respondDomainError(c, err)
		return
	}

	photos, err := h.savePhotos(c.Request.MultipartForm, &req)
	if err != nil {
		h.removePhotos(photos)
		h.metrics.ObserveBooking(typeLabel(req.Type), outcomeOf(err), time.Since(start))
		respondDomainError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.booking.TxTimeout)
	defer cancel()
	req.Now = h.now()

	result, err := h.store.CreateBooking(ctx, req)
	if err != nil {
		h.removePhotos(photos)
		h.metrics.ObserveBooking(typeLabel(req.Type), outcomeOf(err), time.Since(start))
		if outcomeOf(err) == metrics.OutcomeError {
			h.logger.Error("failed to create booking", zap.String("request_id", mw.GetRequestID(c)), zap.Error(err))
		}
		respondDomainError(c, err)
		return
	}

	outcome, message := metrics.OutcomeCreated, "Booking created successfully"
	if result.IsUpdate {
		outcome, message = metrics.OutcomeUpdated, "Booking updated successfully"
	}
	h.metrics.ObserveBooking(typeLabel(result.Type), outcome, time.Since(start))

	if h.cache != nil {
		h.cache.Flush()
	}
	if h.notifier != nil {
		h.notifier.Dispatch(result.Booking.ID)
	}

	c.JSON(http.StatusCreated, bookingResponse{
		Message:     message,
		Booking:     result.Booking,
		TaxApplied:  result.TaxApplied,
		BookingType: result.Type,
		IsUpdate:    result.IsUpdate,
	})
}

// request converts the bound form into a store request. Missing per-room
// fields default to one adult, no children, no extra beds and non-AC.
func (f bookingForm) request(loc *time.Location) (store.BookingRequest, error) {
	n := len(f.RoomIDs)
	req := store.BookingRequest{
		RoomIDs:           f.RoomIDs,
		CheckIn:           f.CheckIn.In(loc),
		CheckOut:          f.CheckOut.In(loc),
		IsOnline:          bool(f.IsOnline),
		ApplyTax:          bool(f.ApplyTax),
		Type:              model.BookingType(f.BookingType),
		ExistingBookingID: f.BookingID,
		CustomerID:        f.CustomerID,
	}
	if req.Type == "" {
		req.Type = model.BookingTypeDirect
	}

	var err error
	if req.Adults, err = perRoom("adults", f.Adults, n, 1); err != nil {
		return req, err
	}
	if req.Children, err = perRoom("children", f.Children, n, 0); err != nil {
		return req, err
	}
	if req.ExtraBeds, err = perRoom("extra_beds", f.ExtraBeds, n, 0); err != nil {
		return req, err
	}
	acs, err := perRoom("is_acs", f.IsACs, n, "")
	if err != nil {
		return req, err
	}
	req.IsACs = make([]bool, n)
	for i, raw := range acs {
		// Already checked by the boolish tag.
		req.IsACs[i], _ = parse.ParseBool(raw)
	}

	if f.CustomerName != "" || f.CustomerPhone != "" {
		req.Customer = &store.CustomerInput{
			Name:    strings.TrimSpace(f.CustomerName),
			Phone:   strings.TrimSpace(f.CustomerPhone),
			Email:   strings.TrimSpace(f.CustomerEmail),
			Address: strings.TrimSpace(f.CustomerAddress),
		}
	}

	names, err := perRoom("occupant_names", f.OccupantNames, n, "")
	if err != nil {
		return req, err
	}
	addresses, err := perRoom("occupant_addresses", f.OccupantAddresses, n, "")
	if err != nil {
		return req, err
	}
	phones, err := perRoom("occupant_phones", f.OccupantPhones, n, "")
	if err != nil {
		return req, err
	}
	req.Occupants = make([]store.OccupantInput, n)
	for i := range req.Occupants {
		req.Occupants[i] = store.OccupantInput{
			Name:    strings.TrimSpace(names[i]),
			Address: strings.TrimSpace(addresses[i]),
			Phone:   strings.TrimSpace(phones[i]),
		}
	}

	if f.AdvancePayment != 0 {
		req.Payment = &store.PaymentInput{
			Amount:         f.AdvancePayment,
			Method:         model.PaymentMethod(strings.TrimSpace(f.PaymentMethod)),
			Note:           f.PaymentNote,
			TransactionRef: f.TransactionRef,
		}
	}
	return req, nil
}

// perRoom checks that a repeated field has one value per room, filling it
// with def when the field was left out entirely.
func perRoom[T any](field string, values []T, n int, def T) ([]T, error) {
	if len(values) == 0 {
		out := make([]T, n)
		for i := range out {
			out[i] = def
		}
		return out, nil
	}
	if len(values) != n {
		return nil, domain.ValidationError{Field: field, Msg: fmt.Sprintf("expected %d values, got %d", n, len(values))}
	}
	return values, nil
}

// typeLabel keeps the metrics label set closed.
func typeLabel(t model.BookingType) string {
	switch t {
	case model.BookingTypeDirect, model.BookingTypeAdvance:
		return string(t)
	}
	return "unknown"
}

func photoField(i int) string {
	return fmt.Sprintf("occupant_photos[%d]", i)
}

// savePhotos stores any occupant photos and records their paths on req. The
// returned paths must be removed if the booking is not committed.
func (h *Handler) savePhotos(form *multipart.Form, req *store.BookingRequest) ([]string, error) {
	if form == nil || len(form.File) == 0 {
		return nil, nil
	}
	var saved []string
	for i := range req.RoomIDs {
		files := form.File[photoField(i)]
		if len(files) == 0 {
			continue
		}
		if h.uploads == nil {
			return saved, errors.New("photo uploads are not configured")
		}
		path, err := h.uploads.Save(photoField(i), files[0])
		if err != nil {
			return saved, err
		}
		saved = append(saved, path)
		req.Occupants[i].PhotoPath = path
	}
	return saved, nil
}

func (h *Handler) removePhotos(paths []string) {
	if len(paths) == 0 || h.uploads == nil {
		return
	}
	if err := h.uploads.Remove(paths...); err != nil {
		h.logger.Warn("failed to remove orphaned photos", zap.Strings("paths", paths), zap.Error(err))
	}
}

func outcomeOf(err error) string {
	switch {
	case domain.IsValidation(err):
		return metrics.OutcomeInvalid
	case domain.IsNotFound(err):
		return metrics.OutcomeNotFound
	case domain.IsConflict(err):
		return metrics.OutcomeConflict
	default:
		return metrics.OutcomeError
	}
}
