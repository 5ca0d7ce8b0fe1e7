package geo

import (
	"sync"
	"time"

	"artisanhub/models"
)

// LocationStore keeps the latest reported position per artisan. Each new
// sample overwrites the previous one; no history is retained.
type LocationStore struct {
	mu      sync.RWMutex
	samples map[string]models.LocationSample
}

// NewLocationStore creates an empty store.
func NewLocationStore() *LocationStore {
	return &LocationStore{samples: make(map[string]models.LocationSample)}
}

// Upsert records the artisan's latest position.
func (s *LocationStore) Upsert(artisanID string, loc models.Coordinates, online bool) models.LocationSample {
	sample := models.LocationSample{
		ArtisanID:  artisanID,
		Location:   loc,
		CapturedAt: time.Now(),
		Online:     online,
	}
	s.mu.Lock()
	s.samples[artisanID] = sample
	s.mu.Unlock()
	return sample
}

// Latest returns the most recent sample for the artisan, if any.
func (s *LocationStore) Latest(artisanID string) (models.LocationSample, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sample, ok := s.samples[artisanID]
	return sample, ok
}

// SetOnline flips the online flag on the artisan's latest sample without
// touching the position. A no-op when no sample exists yet.
func (s *LocationStore) SetOnline(artisanID string, online bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sample, ok := s.samples[artisanID]; ok {
		sample.Online = online
		s.samples[artisanID] = sample
	}
}
