package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"artisanhub/models"
	"artisanhub/services/booking"
	"artisanhub/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedService returns a fixed booking or error for every call.
type scriptedService struct {
	booking *models.Booking
	err     error
}

func (s *scriptedService) Create(ctx context.Context, userID string, in booking.CreateBookingInput) (*models.Booking, error) {
	return s.booking, s.err
}

func (s *scriptedService) AddStatus(ctx context.Context, id, status, msg, actorID, role string) (*models.Booking, error) {
	return s.booking, s.err
}

func (s *scriptedService) Cancel(ctx context.Context, id, reason, actorID, role string) (*models.Booking, error) {
	return s.booking, s.err
}

func (s *scriptedService) Delete(ctx context.Context, id, actorID, role string) error {
	return s.err
}

func (s *scriptedService) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	return s.booking, s.err
}

func newTestRouter(svc booking.BookingService, actorID, actorRole string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("identityID", actorID)
		c.Set("identityRole", actorRole)
	})
	h := NewBookingHandler(svc, utils.GetLogger())
	r.POST("/api/bookings", h.CreateBooking)
	r.GET("/api/bookings/:id", h.GetBooking)
	r.PUT("/api/bookings/:id/confirm", h.ConfirmBooking)
	r.PUT("/api/bookings/:id/cancel", h.CancelBooking)
	r.DELETE("/api/bookings/:id", h.DeleteBooking)
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateBookingReturns201(t *testing.T) {
	b := &models.Booking{ID: "b-1", UserID: "user-1", CurrentStatus: models.StatusPending}
	r := newTestRouter(&scriptedService{booking: b}, "user-1", models.RoleCustomer)

	body := `{"artisanId":"artisan-1","serviceId":"svc-1","scheduledDate":"2024-01-01","scheduledTime":"10:00","duration":60}`
	w := do(r, http.MethodPost, "/api/bookings", body)

	require.Equal(t, http.StatusCreated, w.Code)
	var got models.Booking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "b-1", got.ID)
}

func TestCreateBookingRejectsArtisans(t *testing.T) {
	r := newTestRouter(&scriptedService{}, "artisan-1", models.RoleArtisan)
	w := do(r, http.MethodPost, "/api/bookings", `{"artisanId":"a","serviceId":"s","scheduledDate":"2024-01-01","scheduledTime":"10:00","duration":60}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDomainErrorsMapToStatusCodes(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"conflict", booking.NewConflictError("overlap"), http.StatusConflict, "booking_conflict"},
		{"invalid transition", booking.NewInvalidTransitionError("invalid_transition", "bad edge"), http.StatusUnprocessableEntity, "invalid_transition"},
		{"window closed", booking.NewInvalidTransitionError("cancellation_window_closed", "too late"), http.StatusUnprocessableEntity, "cancellation_window_closed"},
		{"authorization", booking.NewAuthorizationError("wrong role"), http.StatusForbidden, "not_allowed"},
		{"not found", booking.NewNotFoundError("missing"), http.StatusNotFound, "not_found"},
		{"validation", booking.NewValidationError("bad draft"), http.StatusBadRequest, "invalid_input"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(&scriptedService{err: tc.err}, "artisan-1", models.RoleArtisan)
			w := do(r, http.MethodPut, "/api/bookings/b-1/confirm", "")

			require.Equal(t, tc.status, w.Code)
			var resp utils.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tc.code, resp.Code)
		})
	}
}

func TestGetBookingHidesOtherParties(t *testing.T) {
	b := &models.Booking{ID: "b-1", UserID: "user-1", ArtisanID: "artisan-1"}
	r := newTestRouter(&scriptedService{booking: b}, "user-2", models.RoleCustomer)

	w := do(r, http.MethodGet, "/api/bookings/b-1", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeleteBookingReturns204(t *testing.T) {
	r := newTestRouter(&scriptedService{}, "user-1", models.RoleCustomer)
	w := do(r, http.MethodDelete, "/api/bookings/b-1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestCancelPassesReasonThrough(t *testing.T) {
	b := &models.Booking{
		ID:            "b-1",
		UserID:        "user-1",
		CurrentStatus: models.StatusCancelled,
		Status: []models.StatusEntry{{
			Status:    models.StatusCancelled,
			Message:   "change of plans",
			Timestamp: time.Now(),
		}},
	}
	r := newTestRouter(&scriptedService{booking: b}, "user-1", models.RoleCustomer)

	w := do(r, http.MethodPut, "/api/bookings/b-1/cancel", `{"reason":"change of plans"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var got models.Booking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, models.StatusCancelled, got.CurrentStatus)
}
