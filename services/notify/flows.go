package notify

import (
	"context"
	"time"

	bookingRepo "artisanhub/database/repository/booking"
	"artisanhub/models"
	"artisanhub/services/geo"
	"artisanhub/utils"

	"go.uber.org/zap"
)

// Flows are the specialized fan-out paths built on Notify/NotifyMany.
type Flows struct {
	Router   *Router
	Bookings bookingRepo.BookingRepository
}

// NewFlows constructs the flow layer.
func NewFlows(router *Router, bookings bookingRepo.BookingRepository) *Flows {
	return &Flows{Router: router, Bookings: bookings}
}

// BroadcastLocation pushes the artisan's latest position to every customer
// holding a confirmed or in-progress booking with that artisan. When the
// booking carries a customer location snapshot, an ETA is attached.
func (f *Flows) BroadcastLocation(ctx context.Context, sample models.LocationSample) {
	bookings, err := f.Bookings.FindActiveByArtisan(ctx, sample.ArtisanID)
	if err != nil {
		utils.GetLogger().Warn("location broadcast: failed to load active bookings",
			zap.String("artisanId", sample.ArtisanID), zap.Error(err))
		return
	}
	for _, b := range bookings {
		payload := models.LocationBroadcast{
			ArtisanID: sample.ArtisanID,
			Location:  sample.Location,
			BookingID: b.ID,
		}
		if b.UserLocation != nil {
			payload.ETAMinutes = geo.ETAMinutes(sample.Location, *b.UserLocation)
		}
		f.Router.Notify(b.UserID, models.EventArtisanLocationUpdate, payload)
	}
}

// BroadcastStatus pushes a transition to both parties of the booking.
func (f *Flows) BroadcastStatus(booking *models.Booking, entry models.StatusEntry) {
	payload := models.BookingUpdated{
		BookingID: booking.ID,
		Status:    entry.Status,
		Message:   entry.Message,
		Timestamp: entry.Timestamp,
	}
	f.Router.NotifyMany([]string{booking.UserID, booking.ArtisanID}, models.EventBookingUpdated, payload)
}

// RelayChat delivers the message to the recipient and echoes an
// acknowledgment back to the sender. Messages are not persisted.
func (f *Flows) RelayChat(senderID string, payload models.ChatPayload) {
	msg := models.ChatMessage{
		SenderID:    senderID,
		RecipientID: payload.RecipientID,
		BookingID:   payload.BookingID,
		Message:     payload.Message,
		SentAt:      time.Now(),
	}
	f.Router.Notify(payload.RecipientID, models.EventNewMessage, msg)
	f.Router.Notify(senderID, models.EventMessageSent, msg)
}

// RelayTyping forwards the ephemeral typing indicator. Fire-and-forget.
func (f *Flows) RelayTyping(senderID, recipientID string, typing bool) {
	event := models.EventUserTyping
	if !typing {
		event = models.EventUserStopTyping
	}
	f.Router.Notify(recipientID, event, models.TypingEvent{SenderID: senderID})
}
