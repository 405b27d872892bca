// Booking HTTP handlers.
//
// This file exposes the room-booking endpoints:
//   - POST /bookings   (validate, persist, and forward a booking request)
//   - GET  /bookings   (list the session's bookings, paginated)
//
// Validation failures return 422 with the full list of violated rules so the
// client can surface every problem at once. The webhook outcome is included in
// the success envelope; a failed delivery is a degraded success ("saved
// locally only"), not an error.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/averko/go-room-assistant/internal/domain"
	"github.com/averko/go-room-assistant/internal/services"
	"github.com/averko/go-room-assistant/internal/webhook"
)

//
// DTOs
//

// PostBookingResponse is the JSON envelope for an accepted booking.
type PostBookingResponse struct {
	// Booking is the normalized, persisted record.
	Booking *domain.Booking `json:"booking"`
	// Webhook reports the external delivery outcome.
	Webhook webhook.Outcome `json:"webhook"`
}

// ValidationErrorResponse extends the standard error envelope with the full
// list of violated rules.
type ValidationErrorResponse struct {
	RequestID string   `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	Code      string   `json:"code" example:"validation_failed"`
	Message   string   `json:"message" example:"booking validation failed"`
	Problems  []string `json:"problems"`
}

// ListBookingsResponse contains a page of session bookings and pagination metadata.
type ListBookingsResponse struct {
	Bookings   []domain.Booking `json:"bookings"`
	Pagination Pagination       `json:"pagination"`
}

//
// Handlers
//

// PostBooking godoc
// @ID          postBooking
// @Summary     Submit a room-booking request
// @Description Validates the booking form, persists the normalized record with
// @Description a fresh submission id, and forwards it to the configured webhook.
// @Description All rule violations are reported together with status 422.
// @Tags        Bookings
// @Accept      json
// @Produce     json
//
// @Param       X-Session-ID  header  string  false "Session identity (defaults to demo-session)"  example(sess-42)
// @Param       body          body    services.BookingInput  true  "Booking form payload"
//
// @Success     201  {object}  handlers.PostBookingResponse     "Accepted booking with delivery outcome"
// @Failure     400  {object}  handlers.ErrorResponse           "Malformed payload"
// @Failure     409  {object}  handlers.ErrorResponse           "A submission is already in progress"
// @Failure     422  {object}  handlers.ValidationErrorResponse "Validation failed"
// @Failure     429  {object}  handlers.ErrorResponse           "Cooldown between submissions"
// @Failure     500  {object}  handlers.ErrorResponse           "Internal error"
// @Router      /bookings [post]
func (h *Handlers) PostBooking(c *gin.Context) {
	ctx := c.Request.Context()

	var in services.BookingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "malformed booking payload")
		return
	}

	b, outcome, err := h.bookingSvc.Submit(ctx, sessionID(c), in)
	if err != nil {
		if ve, isVE := services.AsValidationError(err); isVE {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, ValidationErrorResponse{
				RequestID: c.Writer.Header().Get("X-Request-ID"),
				Code:      ErrCodeValidationFailed,
				Message:   "booking validation failed",
				Problems:  ve.Problems,
			})
			return
		}
		switch {
		case errors.Is(err, services.ErrCooldown):
			c.Header("Retry-After", "5")
			fail(c, http.StatusTooManyRequests, ErrCodeCooldown, err.Error())
		case errors.Is(err, services.ErrSubmissionInFlight):
			fail(c, http.StatusConflict, ErrCodeInFlight, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeSubmitFailed, err.Error())
		}
		return
	}

	ok(c, http.StatusCreated, PostBookingResponse{Booking: b, Webhook: outcome})
}

// ListBookings godoc
// @ID          listBookings
// @Summary     List bookings in the session
// @Description Returns a paginated list of bookings for the caller's session,
// @Description newest first.
// @Tags        Bookings
// @Produce     json
//
// @Param       X-Session-ID  header  string  false "Session identity (defaults to demo-session)"  example(sess-42)
// @Param       page          query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size     query   int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListBookingsResponse
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /bookings [get]
func (h *Handlers) ListBookings(c *gin.Context) {
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)

	items, total, err := h.bookingSvc.ListPage(ctx, sessionID(c), page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListBookingsResponse{
		Bookings: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}
