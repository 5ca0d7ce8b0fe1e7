package bookingRepo

import (
	"context"

	"artisanhub/models"
)

// BookingRepository defines the persistence surface the booking coordinator
// needs. It is deliberately narrow: all writes go through the coordinator.
type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, bookingID string) (*models.Booking, error)
	// AppendStatus pushes a history entry and updates the denormalized
	// current status (and any extra fields, e.g. commission) atomically.
	AppendStatus(ctx context.Context, bookingID string, entry models.StatusEntry, extra map[string]any) error
	// FindConflicting returns non-terminal bookings for the artisan on the
	// given date whose [start, end) minute window intersects the requested one.
	FindConflicting(ctx context.Context, artisanID, date string, startMinute, endMinute int) ([]models.Booking, error)
	// FindActiveByArtisan returns confirmed or in-progress bookings for the
	// artisan, used for the location broadcast.
	FindActiveByArtisan(ctx context.Context, artisanID string) ([]models.Booking, error)
	// Delete removes a booking document. Callers must ensure the booking is
	// still pending; confirmed bookings are never hard-deleted.
	Delete(ctx context.Context, bookingID string) error
}
