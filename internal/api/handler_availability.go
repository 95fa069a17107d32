package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hotel-desk-backend/internal/domain"
	"hotel-desk-backend/internal/parse"
)

type availabilityQuery struct {
	CheckIn  parse.Time `form:"check_in"`
	CheckOut parse.Time `form:"check_out"`
}

// GetAvailability lists the rooms free for the whole requested stay.
func (h *Handler) GetAvailability(c *gin.Context) {
	var q availabilityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondDomainError(c, parse.BindError(err))
		return
	}
	if q.CheckIn.IsZero() || q.CheckOut.IsZero() {
		respondDomainError(c, domain.ValidationError{Field: "check_in", Msg: "check_in and check_out are required"})
		return
	}
	checkIn, checkOut := q.CheckIn.In(h.booking.Location), q.CheckOut.In(h.booking.Location)

	rooms, err := h.store.AvailableRooms(c.Request.Context(), checkIn, checkOut)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"checkIn":  checkIn,
		"checkOut": checkOut,
		"rooms":    rooms,
	})
}
