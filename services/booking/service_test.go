package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"artisanhub/models"
	"artisanhub/services/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memBookingRepo is an in-memory BookingRepository.
type memBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]*models.Booking
}

func newMemBookingRepo() *memBookingRepo {
	return &memBookingRepo{bookings: make(map[string]*models.Booking)}
}

func (r *memBookingRepo) Create(ctx context.Context, b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *b
	r.bookings[b.ID] = &cp
	return nil
}

func (r *memBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, errors.New("not found")
	}
	cp := *b
	cp.Status = append([]models.StatusEntry(nil), b.Status...)
	return &cp, nil
}

func (r *memBookingRepo) AppendStatus(ctx context.Context, id string, entry models.StatusEntry, extra map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return errors.New("not found")
	}
	b.Status = append(b.Status, entry)
	b.CurrentStatus = entry.Status
	b.UpdatedAt = entry.Timestamp
	if v, ok := extra["commission"]; ok {
		b.Commission = v.(float64)
	}
	if v, ok := extra["artisan_earnings"]; ok {
		b.ArtisanEarnings = v.(float64)
	}
	if v, ok := extra["payment_status"]; ok {
		b.PaymentStatus = v.(string)
	}
	return nil
}

func (r *memBookingRepo) FindConflicting(ctx context.Context, artisanID, date string, start, end int) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if b.ArtisanID != artisanID || b.ScheduledDate != date || b.IsTerminal() {
			continue
		}
		if b.StartMinute < end && b.EndMinute > start {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *memBookingRepo) FindActiveByArtisan(ctx context.Context, artisanID string) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if b.ArtisanID == artisanID &&
			(b.CurrentStatus == models.StatusConfirmed || b.CurrentStatus == models.StatusInProgress) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *memBookingRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.bookings, id)
	return nil
}

// memArtisanRepo serves one always-available artisan per ID.
type memArtisanRepo struct{ unavailable map[string]bool }

func (r *memArtisanRepo) GetByID(ctx context.Context, id string) (*models.Artisan, error) {
	return &models.Artisan{ID: id, Available: !r.unavailable[id]}, nil
}

func (r *memArtisanRepo) SetOnlineStatus(ctx context.Context, id string, online bool, lastSeen time.Time) error {
	return nil
}

// recordingSink captures delivered events per connection.
type recordingSink struct {
	mu     sync.Mutex
	events map[string][]string // connectionID -> event names
}

func newRecordingSink() *recordingSink {
	return &recordingSink{events: make(map[string][]string)}
}

func (s *recordingSink) Deliver(connID, event string, payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[connID] = append(s.events[connID], event)
	return nil
}

// staticResolver treats identity IDs as their own connection IDs for the
// identities listed as online.
type staticResolver struct{ online map[string]bool }

func (r *staticResolver) Resolve(id string) (string, bool) {
	if r.online[id] {
		return id, true
	}
	return "", false
}

func newTestService(repo *memBookingRepo, sink *recordingSink, online ...string) *DefaultBookingService {
	res := &staticResolver{online: make(map[string]bool)}
	for _, id := range online {
		res.online[id] = true
	}
	router := notify.NewRouter(res, sink)
	return NewDefaultBookingService(
		repo,
		&memArtisanRepo{},
		notify.NewFlows(router, repo),
		nil,
		nil,
		0.10,
		2*time.Hour,
	)
}

func draft(artisanID, date, at string, duration int) CreateBookingInput {
	return CreateBookingInput{
		ArtisanID:     artisanID,
		ServiceID:     "svc-1",
		ScheduledDate: date,
		ScheduledTime: at,
		Duration:      duration,
		Price:         100,
	}
}

func TestCreateInitializesPendingHistory(t *testing.T) {
	svc := newTestService(newMemBookingRepo(), newRecordingSink())

	b, err := svc.Create(context.Background(), "user-1", draft("artisan-1", "2024-01-01", "10:00", 60))
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, b.CurrentStatus)
	require.Len(t, b.Status, 1)
	assert.Equal(t, models.StatusPending, b.Status[0].Status)
	assert.Equal(t, 600, b.StartMinute)
	assert.Equal(t, 660, b.EndMinute)
	assert.Equal(t, models.PaymentPending, b.PaymentStatus)
}

func TestCreateRejectsOverlap(t *testing.T) {
	svc := newTestService(newMemBookingRepo(), newRecordingSink())
	ctx := context.Background()

	_, err := svc.Create(ctx, "user-1", draft("artisan-1", "2024-01-01", "10:00", 60))
	require.NoError(t, err)

	_, err = svc.Create(ctx, "user-2", draft("artisan-1", "2024-01-01", "10:30", 60))
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)

	// Adjacent windows do not overlap.
	_, err = svc.Create(ctx, "user-2", draft("artisan-1", "2024-01-01", "11:00", 60))
	assert.NoError(t, err)

	// Same window for a different artisan is fine.
	_, err = svc.Create(ctx, "user-2", draft("artisan-2", "2024-01-01", "10:00", 60))
	assert.NoError(t, err)
}

func TestCreateValidatesDraft(t *testing.T) {
	svc := newTestService(newMemBookingRepo(), newRecordingSink())
	ctx := context.Background()

	var invalid *ValidationError

	_, err := svc.Create(ctx, "user-1", draft("artisan-1", "2024-01-01", "10:00", 10))
	require.ErrorAs(t, err, &invalid)

	bad := draft("artisan-1", "2024-01-01", "10:00", 60)
	bad.Price = -5
	_, err = svc.Create(ctx, "user-1", bad)
	require.ErrorAs(t, err, &invalid)

	bad = draft("artisan-1", "01/01/2024", "10:00", 60)
	_, err = svc.Create(ctx, "user-1", bad)
	require.ErrorAs(t, err, &invalid)
}

func TestCreateRejectsWindowCrossingMidnight(t *testing.T) {
	svc := newTestService(newMemBookingRepo(), newRecordingSink())
	ctx := context.Background()

	// 23:30 + 60min spills into the next day, outside the conflict query's
	// calendar-day scope.
	_, err := svc.Create(ctx, "user-1", draft("artisan-1", "2024-01-01", "23:30", 60))
	var invalid *ValidationError
	require.ErrorAs(t, err, &invalid)

	// Ending exactly at midnight is fine.
	_, err = svc.Create(ctx, "user-1", draft("artisan-1", "2024-01-01", "23:00", 60))
	assert.NoError(t, err)
}

func TestFullLifecycleKeepsHistoryInvariant(t *testing.T) {
	svc := newTestService(newMemBookingRepo(), newRecordingSink())
	ctx := context.Background()

	b, err := svc.Create(ctx, "user-1", draft("artisan-1", "2024-01-01", "10:00", 60))
	require.NoError(t, err)

	for _, status := range []string{models.StatusConfirmed, models.StatusInProgress, models.StatusCompleted} {
		b, err = svc.AddStatus(ctx, b.ID, status, "", "artisan-1", models.RoleArtisan)
		require.NoError(t, err)
		assert.Equal(t, status, b.CurrentStatus)
		assert.Equal(t, b.CurrentStatus, b.LastStatus().Status)
	}

	require.Len(t, b.Status, 4)
	assert.True(t, b.IsTerminal())
}

func TestIllegalTransitionLeavesHistoryUntouched(t *testing.T) {
	repo := newMemBookingRepo()
	svc := newTestService(repo, newRecordingSink())
	ctx := context.Background()

	b, err := svc.Create(ctx, "user-1", draft("artisan-1", "2024-01-01", "10:00", 60))
	require.NoError(t, err)

	illegal := []string{models.StatusInProgress, models.StatusCompleted, models.StatusPending}
	for _, status := range illegal {
		_, err := svc.AddStatus(ctx, b.ID, status, "", "artisan-1", models.RoleArtisan)
		var bad *InvalidTransitionError
		require.ErrorAs(t, err, &bad, "pending -> %s must be rejected", status)
	}

	stored, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Status, 1)
	assert.Equal(t, models.StatusPending, stored.CurrentStatus)
}

func TestTerminalStatesAcceptNoTransitions(t *testing.T) {
	svc := newTestService(newMemBookingRepo(), newRecordingSink())
	ctx := context.Background()

	b, _ := svc.Create(ctx, "user-1", draft("artisan-1", "2024-01-01", "10:00", 60))
	b, _ = svc.AddStatus(ctx, b.ID, models.StatusConfirmed, "", "artisan-1", models.RoleArtisan)
	b, _ = svc.AddStatus(ctx, b.ID, models.StatusInProgress, "", "artisan-1", models.RoleArtisan)
	b, err := svc.AddStatus(ctx, b.ID, models.StatusCompleted, "", "artisan-1", models.RoleArtisan)
	require.NoError(t, err)

	_, err = svc.AddStatus(ctx, b.ID, models.StatusConfirmed, "", "artisan-1", models.RoleArtisan)
	var bad *InvalidTransitionError
	require.ErrorAs(t, err, &bad)

	_, err = svc.Cancel(ctx, b.ID, "too late", "user-1", models.RoleCustomer)
	require.ErrorAs(t, err, &bad)
}

func TestCustomerMayNotDriveTheLifecycle(t *testing.T) {
	svc := newTestService(newMemBookingRepo(), newRecordingSink())
	ctx := context.Background()

	b, err := svc.Create(ctx, "user-1", draft("artisan-1", "2024-01-01", "10:00", 60))
	require.NoError(t, err)

	_, err = svc.AddStatus(ctx, b.ID, models.StatusConfirmed, "", "user-1", models.RoleCustomer)
	var denied *AuthorizationError
	require.ErrorAs(t, err, &denied)

	// A different artisan is rejected too.
	_, err = svc.AddStatus(ctx, b.ID, models.StatusConfirmed, "", "artisan-9", models.RoleArtisan)
	require.ErrorAs(t, err, &denied)
}

// upcomingStart resolves a start instant the given lead ahead of now. A
// window that would spill past midnight is pushed to the next day's 00:00 so
// that drafts stay valid regardless of when the test runs; the push keeps a
// 3-hour lead above the cancellation window and a 1-hour lead below it.
func upcomingStart(lead time.Duration) time.Time {
	start := time.Now().Add(lead)
	if start.Hour()*60+start.Minute()+60 > 24*60 {
		start = time.Date(start.Year(), start.Month(), start.Day()+1, 0, 0, 0, 0, time.Local)
	}
	return start
}

func TestCancellationWindow(t *testing.T) {
	svc := newTestService(newMemBookingRepo(), newRecordingSink())
	ctx := context.Background()

	mk := func(userID string, startIn time.Duration) *models.Booking {
		start := upcomingStart(startIn)
		in := draft("artisan-1", start.Format("2006-01-02"), start.Format("15:04"), 60)
		b, err := svc.Create(ctx, userID, in)
		require.NoError(t, err)
		b, err = svc.AddStatus(ctx, b.ID, models.StatusConfirmed, "", "artisan-1", models.RoleArtisan)
		require.NoError(t, err)
		return b
	}

	// Confirmed, 3 hours out: cancellable by the customer.
	b := mk("user-1", 3*time.Hour)
	got, err := svc.Cancel(ctx, b.ID, "change of plans", "user-1", models.RoleCustomer)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.CurrentStatus)
	assert.Equal(t, "change of plans", got.LastStatus().Message)

	// Confirmed, 1 hour out: window closed.
	b2 := mk("user-3", time.Hour)
	_, err = svc.Cancel(ctx, b2.ID, "too late", "user-3", models.RoleCustomer)
	var bad *InvalidTransitionError
	require.ErrorAs(t, err, &bad)
	assert.Equal(t, "cancellation_window_closed", bad.Code)
}

func TestPendingAlwaysCancellable(t *testing.T) {
	svc := newTestService(newMemBookingRepo(), newRecordingSink())
	ctx := context.Background()

	// Pending and starting within the window; still cancellable.
	start := upcomingStart(30 * time.Minute)
	b, err := svc.Create(ctx, "user-1", draft("artisan-1", start.Format("2006-01-02"), start.Format("15:04"), 60))
	require.NoError(t, err)

	got, err := svc.Cancel(ctx, b.ID, "never mind", "user-1", models.RoleCustomer)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.CurrentStatus)
}

func TestCancelRefundsPrepaidBooking(t *testing.T) {
	repo := newMemBookingRepo()
	svc := newTestService(repo, newRecordingSink())
	ctx := context.Background()

	in := draft("artisan-1", "2030-01-01", "10:00", 60)
	in.PaymentTiming = models.PayBeforeDelivery
	b, err := svc.Create(ctx, "user-1", in)
	require.NoError(t, err)

	// Simulate the external processor marking the booking paid.
	repo.mu.Lock()
	repo.bookings[b.ID].PaymentStatus = models.PaymentPaid
	repo.mu.Unlock()

	got, err := svc.Cancel(ctx, b.ID, "refund me", "user-1", models.RoleCustomer)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentRefunded, got.PaymentStatus)
}

func TestCompletionComputesCommission(t *testing.T) {
	svc := newTestService(newMemBookingRepo(), newRecordingSink())
	ctx := context.Background()

	b, _ := svc.Create(ctx, "user-1", draft("artisan-1", "2024-01-01", "10:00", 60))
	b, _ = svc.AddStatus(ctx, b.ID, models.StatusConfirmed, "", "artisan-1", models.RoleArtisan)
	b, _ = svc.AddStatus(ctx, b.ID, models.StatusInProgress, "", "artisan-1", models.RoleArtisan)
	b, err := svc.AddStatus(ctx, b.ID, models.StatusCompleted, "all done", "artisan-1", models.RoleArtisan)
	require.NoError(t, err)

	assert.InDelta(t, 10.0, b.Commission, 1e-9)
	assert.InDelta(t, 90.0, b.ArtisanEarnings, 1e-9)
}

func TestStatusBroadcastReachesBothPartiesExactlyOnce(t *testing.T) {
	sink := newRecordingSink()
	svc := newTestService(newMemBookingRepo(), sink, "user-1", "artisan-1")
	ctx := context.Background()

	b, err := svc.Create(ctx, "user-1", draft("artisan-1", "2024-01-01", "10:00", 60))
	require.NoError(t, err)
	sink.mu.Lock()
	sink.events = make(map[string][]string) // drop the booking_request notification
	sink.mu.Unlock()

	_, err = svc.AddStatus(ctx, b.ID, models.StatusConfirmed, "on my way", "artisan-1", models.RoleArtisan)
	require.NoError(t, err)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Equal(t, []string{models.EventBookingUpdated}, sink.events["user-1"])
	assert.Equal(t, []string{models.EventBookingUpdated}, sink.events["artisan-1"])
}

func TestStatusBroadcastSkipsOfflineParty(t *testing.T) {
	sink := newRecordingSink()
	svc := newTestService(newMemBookingRepo(), sink, "artisan-1") // customer offline
	ctx := context.Background()

	b, err := svc.Create(ctx, "user-1", draft("artisan-1", "2024-01-01", "10:00", 60))
	require.NoError(t, err)

	_, err = svc.AddStatus(ctx, b.ID, models.StatusConfirmed, "", "artisan-1", models.RoleArtisan)
	require.NoError(t, err)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Empty(t, sink.events["user-1"])
	assert.NotEmpty(t, sink.events["artisan-1"])
}

func TestDeleteOnlyPending(t *testing.T) {
	svc := newTestService(newMemBookingRepo(), newRecordingSink())
	ctx := context.Background()

	b, err := svc.Create(ctx, "user-1", draft("artisan-1", "2024-01-01", "10:00", 60))
	require.NoError(t, err)

	var denied *AuthorizationError
	require.ErrorAs(t, svc.Delete(ctx, b.ID, "user-2", models.RoleCustomer), &denied)

	require.NoError(t, svc.Delete(ctx, b.ID, "user-1", models.RoleCustomer))
	_, err = svc.GetByID(ctx, b.ID)
	var missing *NotFoundError
	require.ErrorAs(t, err, &missing)
}

func TestConcurrentStatusUpdatesSerialized(t *testing.T) {
	svc := newTestService(newMemBookingRepo(), newRecordingSink())
	ctx := context.Background()

	b, err := svc.Create(ctx, "user-1", draft("artisan-1", "2024-01-01", "10:00", 60))
	require.NoError(t, err)

	var wg sync.WaitGroup
	successes := make(chan string, 16)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.AddStatus(ctx, b.ID, models.StatusConfirmed, "", "artisan-1", models.RoleArtisan); err == nil {
				successes <- models.StatusConfirmed
			}
		}()
	}
	wg.Wait()
	close(successes)

	// Exactly one confirm wins; the rest hit invalid_transition.
	var wins int
	for range successes {
		wins++
	}
	assert.Equal(t, 1, wins)

	got, err := svc.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, got.Status, 2)
	assert.Equal(t, models.StatusConfirmed, got.CurrentStatus)
}

func TestCreateRejectsUnknownWindowOverlapAcrossDurations(t *testing.T) {
	svc := newTestService(newMemBookingRepo(), newRecordingSink())
	ctx := context.Background()

	_, err := svc.Create(ctx, "user-1", draft("artisan-1", "2024-01-01", "09:00", 120))
	require.NoError(t, err)

	// A short booking inside the long window conflicts.
	_, err = svc.Create(ctx, "user-2", draft("artisan-1", "2024-01-01", "09:45", 15))
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "booking_conflict", conflict.Code)
}
