package notify

import (
	"artisanhub/observability"
	"artisanhub/utils"

	"go.uber.org/zap"
)

// Resolver maps an identity to its live connection handle. Implemented by
// the presence registry.
type Resolver interface {
	Resolve(identityID string) (string, bool)
}

// Sink pushes an event onto a specific live connection. Implemented by the
// websocket hub. Delivery to one connection is in submission order.
type Sink interface {
	Deliver(connectionID, event string, payload any) error
}

// Router delivers events to identities through their live connections.
// Delivery is at-most-once and best-effort: when the recipient has no
// reachable connection the event is dropped, never queued.
type Router struct {
	Presence Resolver
	Sink     Sink
}

// NewRouter constructs a router over the given presence resolver and sink.
func NewRouter(presence Resolver, sink Sink) *Router {
	return &Router{Presence: presence, Sink: sink}
}

// Notify delivers the event to the identity's connection if it is reachable.
// Returns true when the event was handed to the connection.
func (r *Router) Notify(identityID, event string, payload any) bool {
	connID, ok := r.Presence.Resolve(identityID)
	if !ok {
		observability.EventsDropped.WithLabelValues(event).Inc()
		return false
	}
	if err := r.Sink.Deliver(connID, event, payload); err != nil {
		utils.GetLogger().Debug("event delivery failed",
			zap.String("identityId", identityID),
			zap.String("event", event),
			zap.Error(err))
		observability.EventsDropped.WithLabelValues(event).Inc()
		return false
	}
	observability.EventsDelivered.WithLabelValues(event).Inc()
	return true
}

// NotifyMany applies Notify to each identity. No ordering guarantee across
// recipients; each recipient sees its own events in submission order.
func (r *Router) NotifyMany(identityIDs []string, event string, payload any) {
	for _, id := range identityIDs {
		r.Notify(id, event, payload)
	}
}
