package handlers

import (
	"errors"
	"net/http"

	"artisanhub/models"
	"artisanhub/services/booking"
	"artisanhub/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookingHandler exposes the coordinator over REST. Each mutation endpoint
// maps to exactly one coordinator call.
type BookingHandler struct {
	Service booking.BookingService
	Logger  *zap.Logger
}

// NewBookingHandler constructs the handler.
func NewBookingHandler(svc booking.BookingService, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{Service: svc, Logger: logger}
}

// CreateBooking handles POST /api/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	actorID, actorRole := actor(c)
	if actorRole != models.RoleCustomer {
		c.JSON(http.StatusForbidden, utils.ErrorResponse{Code: "not_allowed", Message: "only customers create bookings"})
		return
	}

	var input booking.CreateBookingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse{Code: "invalid_input", Message: "invalid booking request", Details: err.Error()})
		return
	}

	b, err := h.Service.Create(c.Request.Context(), actorID, input)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

// GetBooking handles GET /api/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	b, err := h.Service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	actorID, _ := actor(c)
	if b.UserID != actorID && b.ArtisanID != actorID {
		c.JSON(http.StatusForbidden, utils.ErrorResponse{Code: "not_allowed", Message: "booking belongs to another party"})
		return
	}
	c.JSON(http.StatusOK, b)
}

// ConfirmBooking handles PUT /api/bookings/:id/confirm.
func (h *BookingHandler) ConfirmBooking(c *gin.Context) {
	h.transition(c, models.StatusConfirmed)
}

// StartBooking handles PUT /api/bookings/:id/start.
func (h *BookingHandler) StartBooking(c *gin.Context) {
	h.transition(c, models.StatusInProgress)
}

// CompleteBooking handles PUT /api/bookings/:id/complete.
func (h *BookingHandler) CompleteBooking(c *gin.Context) {
	h.transition(c, models.StatusCompleted)
}

// CancelBooking handles PUT /api/bookings/:id/cancel.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	var input struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&input) // reason is optional

	actorID, actorRole := actor(c)
	b, err := h.Service.Cancel(c.Request.Context(), c.Param("id"), input.Reason, actorID, actorRole)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// DeleteBooking handles DELETE /api/bookings/:id (pending bookings only).
func (h *BookingHandler) DeleteBooking(c *gin.Context) {
	actorID, actorRole := actor(c)
	if err := h.Service.Delete(c.Request.Context(), c.Param("id"), actorID, actorRole); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *BookingHandler) transition(c *gin.Context, status string) {
	var input struct {
		Message string `json:"message"`
	}
	_ = c.ShouldBindJSON(&input) // message is optional

	actorID, actorRole := actor(c)
	b, err := h.Service.AddStatus(c.Request.Context(), c.Param("id"), status, input.Message, actorID, actorRole)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// fail maps domain errors to HTTP statuses with their structured reason code.
func (h *BookingHandler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	var conflict *booking.ConflictError
	var transition *booking.InvalidTransitionError
	var authz *booking.AuthorizationError
	var missing *booking.NotFoundError
	var invalid *booking.ValidationError
	switch {
	case errors.As(err, &conflict):
		status = http.StatusConflict
	case errors.As(err, &transition):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &authz):
		status = http.StatusForbidden
	case errors.As(err, &missing):
		status = http.StatusNotFound
	case errors.As(err, &invalid):
		status = http.StatusBadRequest
	default:
		h.Logger.Error("booking operation failed", zap.Error(err))
	}
	c.JSON(status, utils.ErrorResponse{Code: booking.CodeOf(err), Message: err.Error()})
}

// actor reads the authenticated identity set by the auth middleware.
func actor(c *gin.Context) (id, role string) {
	return c.GetString("identityID"), c.GetString("identityRole")
}
