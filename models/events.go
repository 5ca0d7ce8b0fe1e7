package models

import "time"

// Client -> server event names carried over the live connection.
const (
	EventUpdateLocation      = "update-location"
	EventBookingStatusUpdate = "booking-status-update"
	EventSendMessage         = "send-message"
	EventTypingStart         = "typing-start"
	EventTypingStop          = "typing-stop"
	EventSetOnline           = "set-online"
	EventSetOffline          = "set-offline"
)

// Server -> client event names.
const (
	EventArtisanLocationUpdate = "artisan-location-update"
	EventBookingUpdated        = "booking-updated"
	EventNewMessage            = "new-message"
	EventMessageSent           = "message-sent"
	EventUserTyping            = "user-typing"
	EventUserStopTyping        = "user-stop-typing"
	EventNotification          = "notification"
	EventError                 = "error"
)

// UpdateLocationPayload is the body of an update-location event.
type UpdateLocationPayload struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// StatusUpdatePayload is the body of a booking-status-update event.
type StatusUpdatePayload struct {
	BookingID string `json:"bookingId"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

// ChatPayload is the body of a send-message event.
type ChatPayload struct {
	RecipientID string `json:"recipientId"`
	Message     string `json:"message"`
	BookingID   string `json:"bookingId"`
}

// TypingPayload is the body of typing-start / typing-stop events.
type TypingPayload struct {
	RecipientID string `json:"recipientId"`
}

// LocationBroadcast is pushed to customers with active bookings when their
// artisan reports a new position.
type LocationBroadcast struct {
	ArtisanID  string      `json:"artisanId"`
	Location   Coordinates `json:"location"`
	BookingID  string      `json:"bookingId"`
	ETAMinutes int         `json:"etaMinutes,omitempty"`
}

// BookingUpdated is pushed to both parties on every status transition.
type BookingUpdated struct {
	BookingID string    `json:"bookingId"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatMessage is relayed to the recipient (new-message) and echoed back to
// the sender (message-sent).
type ChatMessage struct {
	SenderID    string    `json:"senderId"`
	RecipientID string    `json:"recipientId"`
	BookingID   string    `json:"bookingId"`
	Message     string    `json:"message"`
	SentAt      time.Time `json:"sentAt"`
}

// TypingEvent is the ephemeral typing indicator relayed to the recipient.
type TypingEvent struct {
	SenderID string `json:"senderId"`
}
