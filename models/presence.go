package models

import "time"

// PresenceEntry records which live connection an identity is reachable on.
// At most one connection per identity; a re-register overwrites the previous
// entry (last writer wins).
type PresenceEntry struct {
	IdentityID   string    `json:"identityId"`
	Role         string    `json:"role"` // customer | artisan
	ConnectionID string    `json:"connectionId"`
	LastSeen     time.Time `json:"lastSeen"`
}
