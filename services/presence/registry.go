package presence

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	artisanRepo "artisanhub/database/repository/artisan"
	"artisanhub/models"
	"artisanhub/utils"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// mirrorTTL bounds how stale a mirrored entry can get if a server instance
// dies without unregistering its connections.
const mirrorTTL = 5 * time.Minute

// Registry tracks which identity is reachable on which live connection.
// Entries are process-local; when a mirror client is supplied they are also
// written to Redis so other instances and workers can observe presence.
//
// One connection per identity: a re-register overwrites the previous entry.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]models.PresenceEntry

	artisans artisanRepo.ArtisanRepository
	mirror   *redis.Client // optional
}

// NewRegistry constructs a registry. The artisan repository receives the
// durable isOnline/lastSeen side effects; mirror may be nil.
func NewRegistry(artisans artisanRepo.ArtisanRepository, mirror *redis.Client) *Registry {
	return &Registry{
		entries:  make(map[string]models.PresenceEntry),
		artisans: artisans,
		mirror:   mirror,
	}
}

// Register records the identity as reachable on connectionID, overwriting any
// prior entry for the same identity.
func (r *Registry) Register(ctx context.Context, identityID, role, connectionID string) {
	entry := models.PresenceEntry{
		IdentityID:   identityID,
		Role:         role,
		ConnectionID: connectionID,
		LastSeen:     time.Now(),
	}
	r.mu.Lock()
	r.entries[identityID] = entry
	r.mu.Unlock()

	r.sideEffects(ctx, entry, true)
}

// Unregister removes the identity's entry, but only when it still belongs to
// connectionID. A stale socket closing after the identity reconnected must
// not tear down the fresh connection's entry, so the late close is ignored.
// Reports whether the entry was removed.
func (r *Registry) Unregister(ctx context.Context, identityID, connectionID string) bool {
	r.mu.Lock()
	entry, ok := r.entries[identityID]
	if !ok || entry.ConnectionID != connectionID {
		r.mu.Unlock()
		return false
	}
	delete(r.entries, identityID)
	r.mu.Unlock()

	entry.LastSeen = time.Now()
	r.sideEffects(ctx, entry, false)
	return true
}

// IsOnline reports whether the identity has a live connection.
func (r *Registry) IsOnline(identityID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[identityID]
	return ok
}

// Resolve returns the connection handle for the identity, if reachable.
func (r *Registry) Resolve(identityID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[identityID]
	if !ok {
		return "", false
	}
	return entry.ConnectionID, true
}

// Entry returns a copy of the identity's presence entry.
func (r *Registry) Entry(identityID string) (models.PresenceEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[identityID]
	return entry, ok
}

// sideEffects persists artisan presence and refreshes the Redis mirror.
// Failures are logged and swallowed: presence must never fail a connection.
func (r *Registry) sideEffects(ctx context.Context, entry models.PresenceEntry, online bool) {
	logger := utils.GetLogger()

	if entry.Role == models.RoleArtisan && r.artisans != nil {
		if err := r.artisans.SetOnlineStatus(ctx, entry.IdentityID, online, entry.LastSeen); err != nil {
			logger.Warn("failed to persist artisan presence",
				zap.String("artisanId", entry.IdentityID), zap.Error(err))
		}
	}

	if r.mirror == nil {
		return
	}
	key := "presence:" + entry.IdentityID
	if online {
		data, err := json.Marshal(entry)
		if err == nil {
			err = r.mirror.Set(ctx, key, data, mirrorTTL).Err()
		}
		if err != nil {
			logger.Warn("failed to mirror presence entry",
				zap.String("identityId", entry.IdentityID), zap.Error(err))
		}
	} else if err := r.mirror.Del(ctx, key).Err(); err != nil {
		logger.Warn("failed to clear mirrored presence entry",
			zap.String("identityId", entry.IdentityID), zap.Error(err))
	}
}
