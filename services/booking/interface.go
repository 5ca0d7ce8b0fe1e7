package booking

import (
	"context"

	"artisanhub/models"
)

// CreateBookingInput is the customer's booking request.
type CreateBookingInput struct {
	ArtisanID     string              `json:"artisanId" binding:"required"`
	ServiceID     string              `json:"serviceId" binding:"required"`
	ScheduledDate string              `json:"scheduledDate" binding:"required"` // "YYYY-MM-DD"
	ScheduledTime string              `json:"scheduledTime" binding:"required"` // "HH:MM"
	Duration      int                 `json:"duration" binding:"required"`
	Price         float64             `json:"price"`
	PaymentTiming string              `json:"paymentTiming"`
	PaymentMethod string              `json:"paymentMethod"`
	UserLocation  *models.Coordinates `json:"userLocation,omitempty"`
}

// BookingService is the single mutation surface for bookings. Every status
// change funnels through it so that persistence and fan-out stay consistent.
type BookingService interface {
	Create(ctx context.Context, userID string, input CreateBookingInput) (*models.Booking, error)
	AddStatus(ctx context.Context, bookingID, newStatus, message, actorID, actorRole string) (*models.Booking, error)
	Cancel(ctx context.Context, bookingID, reason, actorID, actorRole string) (*models.Booking, error)
	Delete(ctx context.Context, bookingID, actorID, actorRole string) error
	GetByID(ctx context.Context, bookingID string) (*models.Booking, error)
}

// ReminderScheduler queues a deferred reminder for a confirmed booking.
// Implemented with asynq; nil disables reminders.
type ReminderScheduler interface {
	ScheduleReminder(ctx context.Context, booking *models.Booking) error
}
