package models

import "time"

// Booking status values. A booking walks pending -> confirmed -> in_progress
// -> completed; cancelled is reachable from pending or confirmed only.
const (
	StatusPending    = "pending"
	StatusConfirmed  = "confirmed"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// Payment status values. Payments run through an external processor; the core
// only carries these flags through.
const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentRefunded = "refunded"
	PaymentFailed   = "failed"
)

// Payment timing values.
const (
	PayBeforeDelivery = "before_delivery"
	PayAfterDelivery  = "after_delivery"
)

// Actor roles.
const (
	RoleCustomer = "customer"
	RoleArtisan  = "artisan"
)

// StatusEntry is one record in a booking's append-only status history.
type StatusEntry struct {
	Status    string    `bson:"status" json:"status"`
	Message   string    `bson:"message" json:"message"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// Booking represents a scheduled engagement between a customer and an artisan.
type Booking struct {
	ID        string `bson:"id" json:"id"`                // Unique booking identifier (UUID)
	UserID    string `bson:"user_id" json:"userId"`       // Customer who made the booking
	ArtisanID string `bson:"artisan_id" json:"artisanId"` // Artisan who was booked
	ServiceID string `bson:"service_id" json:"serviceId"` // Service being booked

	ScheduledDate string `bson:"scheduled_date" json:"scheduledDate"` // "YYYY-MM-DD"
	ScheduledTime string `bson:"scheduled_time" json:"scheduledTime"` // "HH:MM" local time
	Duration      int    `bson:"duration" json:"duration"`            // Minutes, >= 15
	StartMinute   int    `bson:"start_minute" json:"-"`               // Minutes from midnight, denormalized for overlap queries
	EndMinute     int    `bson:"end_minute" json:"-"`                 // StartMinute + Duration

	Price           float64 `bson:"price" json:"price"`
	PaymentTiming   string  `bson:"payment_timing" json:"paymentTiming"` // before_delivery | after_delivery
	PaymentMethod   string  `bson:"payment_method" json:"paymentMethod"`
	PaymentStatus   string  `bson:"payment_status" json:"paymentStatus"`
	Commission      float64 `bson:"commission,omitempty" json:"commission,omitempty"`            // Platform cut, set on completion
	ArtisanEarnings float64 `bson:"artisan_earnings,omitempty" json:"artisanEarnings,omitempty"` // Price minus commission, set on completion

	// Status is the append-only history; CurrentStatus is always the status
	// of the last entry.
	Status        []StatusEntry `bson:"status" json:"status"`
	CurrentStatus string        `bson:"current_status" json:"currentStatus"`

	// Location snapshots taken at creation time, for distance display. Live
	// tracking is carried separately by LocationSample.
	ArtisanLocation *Coordinates `bson:"artisan_location,omitempty" json:"artisanLocation,omitempty"`
	UserLocation    *Coordinates `bson:"user_location,omitempty" json:"userLocation,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// LastStatus returns the tail of the status history, or nil for an empty one.
func (b *Booking) LastStatus() *StatusEntry {
	if len(b.Status) == 0 {
		return nil
	}
	return &b.Status[len(b.Status)-1]
}

// IsTerminal reports whether the booking accepts no further transitions.
func (b *Booking) IsTerminal() bool {
	return b.CurrentStatus == StatusCompleted || b.CurrentStatus == StatusCancelled
}

// StartAt resolves the scheduled date and time into a wall-clock instant in
// the given location.
func (b *Booking) StartAt(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", b.ScheduledDate+" "+b.ScheduledTime, loc)
}
