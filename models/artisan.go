package models

import "time"

// Artisan carries the slice of the artisan profile the realtime core needs:
// availability for booking creation and durable presence fields. The full
// profile is owned by the CRUD layer.
type Artisan struct {
	ID        string    `bson:"id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Available bool      `bson:"available" json:"available"` // Accepting new bookings
	IsOnline  bool      `bson:"is_online" json:"isOnline"`
	LastSeen  time.Time `bson:"last_seen" json:"lastSeen"`
}
