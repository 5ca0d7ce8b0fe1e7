package booking

import "sync"

// bookingLocks hands out one mutex per booking ID so that concurrent status
// mutations on the same booking are serialized. Mutexes are kept for the
// process lifetime; the set is bounded by the number of bookings touched.
type bookingLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newBookingLocks() *bookingLocks {
	return &bookingLocks{locks: make(map[string]*sync.Mutex)}
}

func (s *bookingLocks) get(bookingID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, exists := s.locks[bookingID]
	if !exists {
		lock = &sync.Mutex{}
		s.locks[bookingID] = lock
	}
	return lock
}
