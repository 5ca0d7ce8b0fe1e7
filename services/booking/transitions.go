package booking

import (
	"fmt"
	"time"

	"artisanhub/models"
)

// edge is one directed transition in the booking state machine.
type edge struct {
	from, to string
}

// allowedEdges maps each legal transition to the role that may trigger it.
// Cancellation is handled separately because either party may cancel,
// subject to the cancellation window.
var allowedEdges = map[edge]string{
	{models.StatusPending, models.StatusConfirmed}:    models.RoleArtisan,
	{models.StatusConfirmed, models.StatusInProgress}: models.RoleArtisan,
	{models.StatusInProgress, models.StatusCompleted}: models.RoleArtisan,
}

// cancellableFrom lists the states cancellation is reachable from.
var cancellableFrom = map[string]bool{
	models.StatusPending:   true,
	models.StatusConfirmed: true,
}

// validateTransition checks the edge against the allowed set and the actor's
// role and identity. Cancellation edges are validated by validateCancel.
func validateTransition(b *models.Booking, newStatus, actorID, actorRole string) error {
	if newStatus == models.StatusCancelled {
		return NewInvalidTransitionError("invalid_transition", "use the cancel operation to cancel a booking")
	}
	role, ok := allowedEdges[edge{b.CurrentStatus, newStatus}]
	if !ok {
		return NewInvalidTransitionError("invalid_transition",
			fmt.Sprintf("cannot move booking from %s to %s", b.CurrentStatus, newStatus))
	}
	if actorRole != role {
		return NewAuthorizationError(fmt.Sprintf("only the %s may set status %s", role, newStatus))
	}
	if err := requireParty(b, actorID, actorRole); err != nil {
		return err
	}
	return nil
}

// validateCancel checks that the actor is a party to the booking and that the
// cancellation window is still open.
func validateCancel(b *models.Booking, actorID, actorRole string, window time.Duration, now time.Time) error {
	if err := requireParty(b, actorID, actorRole); err != nil {
		return err
	}
	if !cancellableFrom[b.CurrentStatus] {
		return NewInvalidTransitionError("invalid_transition",
			fmt.Sprintf("cannot cancel a booking in status %s", b.CurrentStatus))
	}
	if !canBeCancelled(b, window, now) {
		return NewInvalidTransitionError("cancellation_window_closed",
			fmt.Sprintf("confirmed bookings can only be cancelled more than %v before the scheduled start", window))
	}
	return nil
}

// canBeCancelled reports whether the booking may still be cancelled: pending
// bookings always, confirmed ones only strictly more than the window before
// the scheduled start. Exactly at the boundary is not cancellable.
func canBeCancelled(b *models.Booking, window time.Duration, now time.Time) bool {
	if b.CurrentStatus == models.StatusPending {
		return true
	}
	if b.CurrentStatus != models.StatusConfirmed {
		return false
	}
	start, err := b.StartAt(time.Local)
	if err != nil {
		return false
	}
	return start.Sub(now) > window
}

// requireParty verifies the actor's identity matches the booking side implied
// by the role.
func requireParty(b *models.Booking, actorID, actorRole string) error {
	switch actorRole {
	case models.RoleArtisan:
		if actorID != b.ArtisanID {
			return NewAuthorizationError("booking belongs to a different artisan")
		}
	case models.RoleCustomer:
		if actorID != b.UserID {
			return NewAuthorizationError("booking belongs to a different customer")
		}
	default:
		return NewAuthorizationError("unknown actor role " + actorRole)
	}
	return nil
}
