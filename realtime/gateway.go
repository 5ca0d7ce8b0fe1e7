package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"artisanhub/models"
	"artisanhub/observability"
	"artisanhub/services/booking"
	"artisanhub/services/geo"
	"artisanhub/services/notify"
	"artisanhub/services/presence"
	"artisanhub/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// inbound is a client frame before its data is decoded per event.
type inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Gateway owns the live-connection surface: it authenticates sockets,
// registers presence, and routes inbound events to the coordinator and the
// fan-out flows.
type Gateway struct {
	Hub       *Hub
	Presence  *presence.Registry
	Flows     *notify.Flows
	Bookings  booking.BookingService
	Locations *geo.LocationStore

	upgrader websocket.Upgrader

	// Keepalive tuning. A peer that misses pongWait is considered dead and
	// its session reaped, instead of lingering until the TCP timeout.
	pongWait   time.Duration
	pingPeriod time.Duration
}

// NewGateway wires the gateway.
func NewGateway(hub *Hub, reg *presence.Registry, flows *notify.Flows, bookings booking.BookingService, locations *geo.LocationStore) *Gateway {
	return &Gateway{
		Hub:       hub,
		Presence:  reg,
		Flows:     flows,
		Bookings:  bookings,
		Locations: locations,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients connect cross-origin from the app shell.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		pongWait:   60 * time.Second,
		pingPeriod: 54 * time.Second,
	}
}

// HandleConnection upgrades an authenticated request to a websocket and runs
// its read loop. A bad or missing token refuses the connection before the
// upgrade.
func (g *Gateway) HandleConnection(c *gin.Context) {
	logger := utils.GetLogger()

	token := c.Query("token")
	if token == "" {
		utils.JSONError(c, http.StatusUnauthorized, "authentication required", "missing token")
		return
	}
	identityID, role, err := utils.ExtractIdentityFromToken(token)
	if err != nil {
		utils.JSONError(c, http.StatusUnauthorized, "authentication failed", err.Error())
		return
	}
	if role != models.RoleCustomer && role != models.RoleArtisan {
		utils.JSONError(c, http.StatusUnauthorized, "authentication failed", "unknown role")
		return
	}

	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	session := NewSession(uuid.New().String(), identityID, role, conn)
	g.Hub.Add(session)
	observability.ConnectionsOpen.Inc()

	ctx := context.Background()
	g.Presence.Register(ctx, identityID, role, session.ID)
	logger.Info("connection opened",
		zap.String("identityId", identityID), zap.String("role", role))

	defer func() {
		// A reconnect supersedes this session's presence entry; only the
		// entry's current owner may take the identity offline.
		if g.Presence.Unregister(ctx, identityID, session.ID) && role == models.RoleArtisan {
			g.Locations.SetOnline(identityID, false)
		}
		g.Hub.Remove(session.ID)
		observability.ConnectionsOpen.Dec()
		session.Close()
		logger.Info("connection closed", zap.String("identityId", identityID))
	}()

	_ = conn.SetReadDeadline(time.Now().Add(g.pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(g.pongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(g.pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if session.Ping() != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var frame inbound
		if err := json.Unmarshal(raw, &frame); err != nil {
			logger.Debug("malformed frame", zap.String("identityId", identityID), zap.Error(err))
			continue
		}
		g.dispatch(ctx, session, frame)
	}
}

// dispatch routes one inbound event. Per-event failures never tear the
// connection down.
func (g *Gateway) dispatch(ctx context.Context, s *Session, frame inbound) {
	switch frame.Event {
	case models.EventUpdateLocation:
		g.handleLocationUpdate(ctx, s, frame.Data)
	case models.EventBookingStatusUpdate:
		g.handleStatusUpdate(ctx, s, frame.Data)
	case models.EventSendMessage:
		var payload models.ChatPayload
		if err := json.Unmarshal(frame.Data, &payload); err != nil || payload.RecipientID == "" {
			g.sendError(s, "invalid_input", "malformed chat message")
			return
		}
		g.Flows.RelayChat(s.IdentityID, payload)
	case models.EventTypingStart, models.EventTypingStop:
		var payload models.TypingPayload
		if err := json.Unmarshal(frame.Data, &payload); err != nil || payload.RecipientID == "" {
			return // fire-and-forget, silently ignored
		}
		g.Flows.RelayTyping(s.IdentityID, payload.RecipientID, frame.Event == models.EventTypingStart)
	case models.EventSetOnline, models.EventSetOffline:
		g.handlePresenceOverride(ctx, s, frame.Event == models.EventSetOnline)
	default:
		g.sendError(s, "unknown_event", "unsupported event "+frame.Event)
	}
}

// handleLocationUpdate records the artisan's position and fans it out to
// customers with active bookings. Malformed samples are logged and dropped.
func (g *Gateway) handleLocationUpdate(ctx context.Context, s *Session, data json.RawMessage) {
	logger := utils.GetLogger()
	if s.Role != models.RoleArtisan {
		g.sendError(s, "not_allowed", "only artisans report locations")
		return
	}
	var payload models.UpdateLocationPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		logger.Debug("dropping malformed location update",
			zap.String("artisanId", s.IdentityID), zap.Error(err))
		return
	}
	coords := models.Coordinates{Latitude: payload.Latitude, Longitude: payload.Longitude}
	if !coords.Valid() {
		logger.Debug("dropping out-of-range location update",
			zap.String("artisanId", s.IdentityID),
			zap.Float64("lat", coords.Latitude), zap.Float64("lng", coords.Longitude))
		return
	}
	sample := g.Locations.Upsert(s.IdentityID, coords, true)
	g.Flows.BroadcastLocation(ctx, sample)
}

// handleStatusUpdate funnels a socket-initiated transition through the
// coordinator. Cancellations take the cancel path with its window rule.
func (g *Gateway) handleStatusUpdate(ctx context.Context, s *Session, data json.RawMessage) {
	var payload models.StatusUpdatePayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.BookingID == "" {
		g.sendError(s, "invalid_input", "malformed status update")
		return
	}

	var err error
	if payload.Status == models.StatusCancelled {
		_, err = g.Bookings.Cancel(ctx, payload.BookingID, payload.Message, s.IdentityID, s.Role)
	} else {
		_, err = g.Bookings.AddStatus(ctx, payload.BookingID, payload.Status, payload.Message, s.IdentityID, s.Role)
	}
	if err != nil {
		g.sendError(s, booking.CodeOf(err), err.Error())
	}
}

// handlePresenceOverride lets an artisan explicitly toggle availability
// without dropping the socket.
func (g *Gateway) handlePresenceOverride(ctx context.Context, s *Session, online bool) {
	if s.Role != models.RoleArtisan {
		g.sendError(s, "not_allowed", "only artisans toggle presence")
		return
	}
	if online {
		g.Presence.Register(ctx, s.IdentityID, s.Role, s.ID)
		g.Locations.SetOnline(s.IdentityID, true)
	} else if g.Presence.Unregister(ctx, s.IdentityID, s.ID) {
		g.Locations.SetOnline(s.IdentityID, false)
	}
}

// sendError pushes a structured error event; the connection stays open.
func (g *Gateway) sendError(s *Session, code, message string) {
	_ = s.Send(models.EventError, utils.ErrorResponse{Code: code, Message: message})
}
