package booking

import (
	"context"
	"fmt"
	"time"

	artisanRepo "artisanhub/database/repository/artisan"
	bookingRepo "artisanhub/database/repository/booking"
	"artisanhub/models"
	"artisanhub/observability"
	"artisanhub/services/geo"
	"artisanhub/services/notify"
	"artisanhub/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	minDurationMinutes = 15
	minutesPerDay      = 24 * 60
)

// DefaultBookingService orchestrates the booking lifecycle: it owns the
// state machine, serializes mutations per booking, and triggers fan-out
// after each successful mutation.
type DefaultBookingService struct {
	Repo      bookingRepo.BookingRepository
	Artisans  artisanRepo.ArtisanRepository
	Flows     *notify.Flows
	Reminders ReminderScheduler // optional
	Locations *geo.LocationStore

	CommissionRate float64       // e.g. 0.10
	CancelWindow   time.Duration // e.g. 2h

	locks *bookingLocks
}

// NewDefaultBookingService wires the coordinator.
func NewDefaultBookingService(
	repo bookingRepo.BookingRepository,
	artisans artisanRepo.ArtisanRepository,
	flows *notify.Flows,
	reminders ReminderScheduler,
	locations *geo.LocationStore,
	commissionRate float64,
	cancelWindow time.Duration,
) *DefaultBookingService {
	return &DefaultBookingService{
		Repo:           repo,
		Artisans:       artisans,
		Flows:          flows,
		Reminders:      reminders,
		Locations:      locations,
		CommissionRate: commissionRate,
		CancelWindow:   cancelWindow,
		locks:          newBookingLocks(),
	}
}

// Create validates the draft, rejects overlapping bookings for the artisan,
// and persists the booking with a single pending history entry.
func (s *DefaultBookingService) Create(ctx context.Context, userID string, input CreateBookingInput) (*models.Booking, error) {
	startMinute, err := validateDraft(input)
	if err != nil {
		return nil, err
	}
	endMinute := startMinute + input.Duration

	artisan, err := s.Artisans.GetByID(ctx, input.ArtisanID)
	if err != nil {
		return nil, NewNotFoundError(fmt.Sprintf("artisan %s not found", input.ArtisanID))
	}
	if !artisan.Available {
		return nil, NewConflictError(fmt.Sprintf("artisan %s is not accepting bookings", input.ArtisanID))
	}

	conflicts, err := s.Repo.FindConflicting(ctx, input.ArtisanID, input.ScheduledDate, startMinute, endMinute)
	if err != nil {
		return nil, fmt.Errorf("failed to check for conflicting bookings: %w", err)
	}
	if len(conflicts) > 0 {
		return nil, NewConflictError("artisan already has a booking in the requested time window")
	}

	now := time.Now()
	paymentTiming := input.PaymentTiming
	if paymentTiming == "" {
		paymentTiming = models.PayAfterDelivery
	}
	b := &models.Booking{
		ID:            uuid.New().String(),
		UserID:        userID,
		ArtisanID:     input.ArtisanID,
		ServiceID:     input.ServiceID,
		ScheduledDate: input.ScheduledDate,
		ScheduledTime: input.ScheduledTime,
		Duration:      input.Duration,
		StartMinute:   startMinute,
		EndMinute:     endMinute,
		Price:         input.Price,
		PaymentTiming: paymentTiming,
		PaymentMethod: input.PaymentMethod,
		PaymentStatus: models.PaymentPending,
		Status: []models.StatusEntry{{
			Status:    models.StatusPending,
			Message:   "booking requested",
			Timestamp: now,
		}},
		CurrentStatus: models.StatusPending,
		UserLocation:  input.UserLocation,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	// Snapshot the artisan's last known position for distance display.
	if s.Locations != nil {
		if sample, ok := s.Locations.Latest(input.ArtisanID); ok {
			loc := sample.Location
			b.ArtisanLocation = &loc
		}
	}

	if err := s.Repo.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to persist booking: %w", err)
	}

	if s.Flows != nil {
		s.Flows.Router.Notify(b.ArtisanID, models.EventNotification, map[string]any{
			"type":      "booking_request",
			"bookingId": b.ID,
			"serviceId": b.ServiceID,
			"date":      b.ScheduledDate,
			"time":      b.ScheduledTime,
		})
	}
	return b, nil
}

// AddStatus applies one transition of the state machine. Calls on the same
// booking are serialized by a per-booking mutex.
func (s *DefaultBookingService) AddStatus(ctx context.Context, bookingID, newStatus, message, actorID, actorRole string) (*models.Booking, error) {
	lock := s.locks.get(bookingID)
	lock.Lock()
	defer lock.Unlock()

	b, err := s.Repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, NewNotFoundError(fmt.Sprintf("booking %s not found", bookingID))
	}
	if err := validateTransition(b, newStatus, actorID, actorRole); err != nil {
		return nil, err
	}

	entry := models.StatusEntry{Status: newStatus, Message: message, Timestamp: time.Now()}
	extra := map[string]any{}
	if newStatus == models.StatusCompleted {
		commission := b.Price * s.CommissionRate
		b.Commission = commission
		b.ArtisanEarnings = b.Price - commission
		extra["commission"] = b.Commission
		extra["artisan_earnings"] = b.ArtisanEarnings
	}

	if err := s.Repo.AppendStatus(ctx, bookingID, entry, extra); err != nil {
		return nil, fmt.Errorf("failed to append booking status: %w", err)
	}
	b.Status = append(b.Status, entry)
	b.CurrentStatus = newStatus
	b.UpdatedAt = entry.Timestamp
	observability.BookingTransitions.WithLabelValues(newStatus).Inc()

	s.afterTransition(ctx, b, entry)
	return b, nil
}

// Cancel is the cancellation edge of the state machine, gated by the
// cancellation window. A prepaid booking is flipped to refunded.
func (s *DefaultBookingService) Cancel(ctx context.Context, bookingID, reason, actorID, actorRole string) (*models.Booking, error) {
	lock := s.locks.get(bookingID)
	lock.Lock()
	defer lock.Unlock()

	b, err := s.Repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, NewNotFoundError(fmt.Sprintf("booking %s not found", bookingID))
	}
	if err := validateCancel(b, actorID, actorRole, s.CancelWindow, time.Now()); err != nil {
		return nil, err
	}

	entry := models.StatusEntry{Status: models.StatusCancelled, Message: reason, Timestamp: time.Now()}
	extra := map[string]any{}
	if b.PaymentStatus == models.PaymentPaid && b.PaymentTiming == models.PayBeforeDelivery {
		b.PaymentStatus = models.PaymentRefunded
		extra["payment_status"] = models.PaymentRefunded
	}

	if err := s.Repo.AppendStatus(ctx, bookingID, entry, extra); err != nil {
		return nil, fmt.Errorf("failed to append booking status: %w", err)
	}
	b.Status = append(b.Status, entry)
	b.CurrentStatus = models.StatusCancelled
	b.UpdatedAt = entry.Timestamp
	observability.BookingTransitions.WithLabelValues(models.StatusCancelled).Inc()

	s.afterTransition(ctx, b, entry)
	return b, nil
}

// Delete removes a booking that has not been acted on. Only the customer who
// created a still-pending booking may delete it.
func (s *DefaultBookingService) Delete(ctx context.Context, bookingID, actorID, actorRole string) error {
	lock := s.locks.get(bookingID)
	lock.Lock()
	defer lock.Unlock()

	b, err := s.Repo.GetByID(ctx, bookingID)
	if err != nil {
		return NewNotFoundError(fmt.Sprintf("booking %s not found", bookingID))
	}
	if actorRole != models.RoleCustomer || actorID != b.UserID {
		return NewAuthorizationError("only the booking customer may delete it")
	}
	if b.CurrentStatus != models.StatusPending {
		return NewInvalidTransitionError("invalid_transition", "only pending bookings may be deleted")
	}
	return s.Repo.Delete(ctx, bookingID)
}

// GetByID loads a booking.
func (s *DefaultBookingService) GetByID(ctx context.Context, bookingID string) (*models.Booking, error) {
	b, err := s.Repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, NewNotFoundError(fmt.Sprintf("booking %s not found", bookingID))
	}
	return b, nil
}

// afterTransition runs the fan-out and any deferred work for a transition.
func (s *DefaultBookingService) afterTransition(ctx context.Context, b *models.Booking, entry models.StatusEntry) {
	if s.Flows != nil {
		s.Flows.BroadcastStatus(b, entry)
	}
	if entry.Status == models.StatusConfirmed && s.Reminders != nil {
		if err := s.Reminders.ScheduleReminder(ctx, b); err != nil {
			utils.GetLogger().Warn("failed to schedule booking reminder",
				zap.String("bookingId", b.ID), zap.Error(err))
		}
	}
}

// validateDraft sanity-checks the booking request and returns the start
// minute from midnight.
func validateDraft(input CreateBookingInput) (int, error) {
	if input.Duration < minDurationMinutes {
		return 0, NewValidationError(fmt.Sprintf("duration must be at least %d minutes", minDurationMinutes))
	}
	if input.Price < 0 {
		return 0, NewValidationError("price must not be negative")
	}
	if input.PaymentTiming != "" && input.PaymentTiming != models.PayBeforeDelivery && input.PaymentTiming != models.PayAfterDelivery {
		return 0, NewValidationError("paymentTiming must be before_delivery or after_delivery")
	}
	if _, err := time.Parse("2006-01-02", input.ScheduledDate); err != nil {
		return 0, NewValidationError("scheduledDate must be formatted YYYY-MM-DD")
	}
	t, err := time.Parse("15:04", input.ScheduledTime)
	if err != nil {
		return 0, NewValidationError("scheduledTime must be formatted HH:MM")
	}
	if input.UserLocation != nil && !input.UserLocation.Valid() {
		return 0, NewValidationError("userLocation is out of range")
	}
	startMinute := t.Hour()*60 + t.Minute()
	// Conflict detection is scoped to one calendar day, so a window spilling
	// past midnight would never be checked against the next day's bookings.
	if startMinute+input.Duration > minutesPerDay {
		return 0, NewValidationError("booking must end by midnight of its scheduled date")
	}
	return startMinute, nil
}
