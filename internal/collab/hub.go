// Package collab implements the in-memory presence and room
// coordination engine behind the realtime channel: who is online, how
// pairwise collaboration requests become shared rooms, and how chat and
// drawing events fan out to room members with last-state recovery on
// rejoin.
package collab

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"collab-app/internal/database"
	"collab-app/pkg/logger"
	"collab-app/pkg/metrics"
)

type inboundEvent struct {
	client *Client
	env    Envelope
}

// Hub owns all realtime state: the connection registry, the room
// directory, the room state cache, and the physical connection groups
// backing each room. Every inbound event is handled to completion on
// the hub's single Run goroutine before the next is processed, so none
// of this state needs locking.
type Hub struct {
	registry  *ConnectionRegistry
	directory *RoomDirectory
	cache     *RoomStateCache

	// groups is the transport-level broadcast group per room. It tracks
	// live connections and drifts from the directory's logical
	// membership across reconnects; join-room reconciles the two.
	groups map[string]map[*Client]struct{}

	// activity is the per-room last-activity timestamp driving the
	// optional idle sweep.
	activity map[string]time.Time

	names database.NameResolver

	events     chan inboundEvent
	unregister chan *Client
	shutdown   chan struct{}

	idleTTL       time.Duration
	sweepInterval time.Duration
	now           func() time.Time
}

// NewHub creates a hub. names may be nil, in which case notifications
// go out undecorated. idleTTL zero disables the room sweep entirely.
func NewHub(names database.NameResolver, idleTTL, sweepInterval time.Duration) *Hub {
	return &Hub{
		registry:      NewConnectionRegistry(),
		directory:     NewRoomDirectory(),
		cache:         NewRoomStateCache(),
		groups:        make(map[string]map[*Client]struct{}),
		activity:      make(map[string]time.Time),
		names:         names,
		events:        make(chan inboundEvent, 64),
		unregister:    make(chan *Client, 16),
		shutdown:      make(chan struct{}),
		idleTTL:       idleTTL,
		sweepInterval: sweepInterval,
		now:           time.Now,
	}
}

// Run is the hub's event loop. It must run in its own goroutine and is
// the only goroutine that touches registry, directory, cache, or
// groups.
func (h *Hub) Run() {
	var sweep <-chan time.Time
	if h.idleTTL > 0 {
		ticker := time.NewTicker(h.sweepInterval)
		defer ticker.Stop()
		sweep = ticker.C
	}

	for {
		select {
		case <-h.shutdown:
			return
		case client := <-h.unregister:
			h.handleDisconnect(client)
		case ev := <-h.events:
			h.handleEvent(ev.client, ev.env)
		case <-sweep:
			h.sweepIdleRooms()
		}
	}
}

// Shutdown stops the event loop.
func (h *Hub) Shutdown() {
	close(h.shutdown)
}

// handleEvent dispatches one inbound event. Nothing here is allowed to
// take down the loop: a panicking handler is logged and the connection
// and process live on.
func (h *Hub) handleEvent(client *Client, env Envelope) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Recovered from panic handling %s: %v", env.Event, r)
		}
	}()

	label := env.Event
	if _, ok := knownInboundEvents[label]; !ok {
		label = "unknown"
	}
	metrics.EventsReceived.WithLabelValues(label).Inc()

	switch env.Event {
	case EventPresenceOnline:
		h.handlePresenceOnline(client, env.Data)
	case EventRequestCollaboration:
		h.handleRequestCollaboration(client, env.Data)
	case EventAcceptCollaboration:
		h.handleAcceptCollaboration(client, env.Data)
	case EventRejectCollaboration:
		h.handleRejectCollaboration(client, env.Data)
	case EventJoinRoom:
		h.handleJoinRoom(client, env.Data)
	case EventChatMessage:
		h.handleChatMessage(client, env.Data)
	case EventDrawingEvent:
		h.handleDrawingEvent(client, env.Data)
	case EventRequestCanvasState:
		h.handleRequestCanvasState(client, env.Data)
	case EventSaveCanvasState:
		h.handleSaveCanvasState(client, env.Data)
	case EventEndSession:
		h.handleEndSession(client, env.Data)
	case EventInviteToRoom:
		h.handleInviteToRoom(client, env.Data)
	case EventAcceptRoomInvitation:
		h.handleAcceptRoomInvitation(client, env.Data)
	case EventRejectRoomInvitation:
		h.handleRejectRoomInvitation(client, env.Data)
	case EventGetRoomUsers:
		h.handleGetRoomUsers(client, env.Data)
	default:
		h.sendError(client, fmt.Sprintf("unknown event: %s", env.Event))
	}
}

// --- presence ---

func (h *Hub) handlePresenceOnline(client *Client, data json.RawMessage) {
	var p presenceOnlinePayload
	if err := decodePayload(data, &p); err != nil || p.UserID == "" {
		h.sendError(client, "userId is required")
		return
	}

	userID := p.UserID.String()
	h.registry.Register(userID, client)
	metrics.ActiveConnections.Set(float64(h.registry.Len()))
	logger.Info("User %s online from %s", userID, client.addr)

	h.broadcastAll(EventPresenceChanged, presenceChangedPayload{UserID: userID, Status: "online"})
	client.enqueue(EventActiveUsers, usersPayload{Users: h.registry.ListAll()})
}

func (h *Hub) handleDisconnect(client *Client) {
	if userID, removed := h.registry.Remove(client); removed {
		metrics.ActiveConnections.Set(float64(h.registry.Len()))
		logger.Info("User %s offline", userID)
		h.broadcastAll(EventPresenceChanged, presenceChangedPayload{UserID: userID, Status: "offline"})
	}

	for roomID, group := range h.groups {
		if _, ok := group[client]; ok {
			delete(group, client)
			if len(group) == 0 {
				delete(h.groups, roomID)
			}
		}
	}
}

// --- pairwise collaboration ---

func (h *Hub) handleRequestCollaboration(client *Client, data json.RawMessage) {
	var p requestCollaborationPayload
	if err := decodePayload(data, &p); err != nil || p.SenderID == "" || p.ReceiverID == "" {
		h.sendError(client, "senderId and receiverId are required")
		return
	}

	// Receiver offline: the request is dropped with no feedback, the
	// sender's own timeout is its only signal.
	receiver, ok := h.registry.Lookup(p.ReceiverID.String())
	if !ok {
		return
	}

	requestID := p.RequestID.String()
	if requestID == "" {
		requestID = mintRequestID()
	}

	senderName := p.SenderName
	if senderName == "" {
		senderName = h.resolveName(p.SenderID.String())
	}

	receiver.enqueue(EventCollaborationRequest, collaborationRequestPayload{
		SenderID:   p.SenderID.String(),
		SenderName: senderName,
		RequestID:  requestID,
	})
}

func (h *Hub) handleAcceptCollaboration(client *Client, data json.RawMessage) {
	var p acceptCollaborationPayload
	if err := decodePayload(data, &p); err != nil || p.SenderID == "" || p.ReceiverID == "" {
		h.sendError(client, "senderId and receiverId are required")
		return
	}

	senderID := p.SenderID.String()
	receiverID := p.ReceiverID.String()

	roomID := h.directory.GetOrCreateRoomForPair(senderID, receiverID)
	h.touch(roomID)
	metrics.ActiveRooms.Set(float64(h.directory.Len()))

	// Join whichever parties are reachable; a momentarily unreachable
	// side is skipped, its membership stands and join-room heals it.
	senderConn, senderOnline := h.registry.Lookup(senderID)
	if senderOnline {
		h.joinGroup(roomID, senderConn)
	}
	if receiverConn, ok := h.registry.Lookup(receiverID); ok {
		h.joinGroup(roomID, receiverConn)
	}

	accepted := collaborationAcceptedPayload{RoomID: roomID}
	if senderOnline {
		senderConn.enqueue(EventCollaborationAccepted, accepted)
	}
	if !senderOnline || senderConn != client {
		client.enqueue(EventCollaborationAccepted, accepted)
	}

	h.broadcastGroup(roomID, EventUserJoinedRoom, userJoinedRoomPayload{
		RoomID: roomID,
		UserID: receiverID,
		Users:  h.directory.Members(roomID),
	}, nil)

	logger.Info("Collaboration accepted: %s + %s -> %s", senderID, receiverID, roomID)
}

func (h *Hub) handleRejectCollaboration(client *Client, data json.RawMessage) {
	var p rejectCollaborationPayload
	if err := decodePayload(data, &p); err != nil || p.SenderID == "" || p.RequestID == "" {
		h.sendError(client, "senderId and requestId are required")
		return
	}

	sender, ok := h.registry.Lookup(p.SenderID.String())
	if !ok {
		return
	}

	sender.enqueue(EventCollaborationRejected, collaborationRejectedPayload{
		RequestID: p.RequestID.String(),
		Message:   "Request rejected",
	})
}

// --- room membership ---

func (h *Hub) handleJoinRoom(client *Client, data json.RawMessage) {
	var p roomPayload
	if err := decodePayload(data, &p); err != nil || p.RoomID == "" {
		h.sendError(client, "roomId is required")
		return
	}

	roomID := p.RoomID.String()
	h.joinGroup(roomID, client)
	h.touch(roomID)

	// Replay the chat history to the joiner only, in append order.
	for _, msg := range h.cache.History(roomID) {
		client.enqueue(EventChatMessage, msg)
	}

	// Reconcile: any directory member with a live connection that has
	// not yet rejoined the physical group is pulled back in. Logical
	// membership and connection groups drift across reconnects; this is
	// the self-healing step that closes the gap.
	for _, userID := range h.directory.Members(roomID) {
		if conn, ok := h.registry.Lookup(userID); ok {
			h.joinGroup(roomID, conn)
		}
	}
}

func (h *Hub) handleInviteToRoom(client *Client, data json.RawMessage) {
	var p roomInvitationPayload
	if err := decodePayload(data, &p); err != nil || p.RoomID == "" || p.UserID == "" || p.InviterID == "" {
		h.sendError(client, "roomId, userId and inviterId are required")
		return
	}

	// Invitee offline: dropped silently, same policy as a direct
	// collaboration request.
	target, ok := h.registry.Lookup(p.UserID.String())
	if !ok {
		return
	}

	inviterName := p.InviterName
	if inviterName == "" {
		inviterName = h.resolveName(p.InviterID.String())
	}

	target.enqueue(EventRoomInvitation, roomInvitationNotice{
		RoomID:      p.RoomID.String(),
		InviterID:   p.InviterID.String(),
		InviterName: inviterName,
	})
}

func (h *Hub) handleAcceptRoomInvitation(client *Client, data json.RawMessage) {
	var p roomInvitationPayload
	if err := decodePayload(data, &p); err != nil || p.RoomID == "" || p.UserID == "" || p.InviterID == "" {
		// This path is user-triggered with UI waiting on it; unlike the
		// fire-and-forget request paths a malformed accept is answered,
		// never swallowed.
		h.sendError(client, "roomId, userId and inviterId are required")
		return
	}

	roomID := p.RoomID.String()
	userID := p.UserID.String()

	h.directory.AddMember(roomID, userID)
	h.touch(roomID)
	metrics.ActiveRooms.Set(float64(h.directory.Len()))

	if conn, ok := h.registry.Lookup(userID); ok {
		h.joinGroup(roomID, conn)
	}

	if inviter, ok := h.registry.Lookup(p.InviterID.String()); ok {
		inviter.enqueue(EventInvitationAccepted, invitationReplyNotice{RoomID: roomID, UserID: userID})
	}

	h.broadcastGroup(roomID, EventUserJoinedRoom, userJoinedRoomPayload{
		RoomID: roomID,
		UserID: userID,
		Users:  h.directory.Members(roomID),
	}, nil)
}

func (h *Hub) handleRejectRoomInvitation(client *Client, data json.RawMessage) {
	var p roomInvitationPayload
	if err := decodePayload(data, &p); err != nil || p.RoomID == "" || p.UserID == "" || p.InviterID == "" {
		h.sendError(client, "roomId, userId and inviterId are required")
		return
	}

	inviter, ok := h.registry.Lookup(p.InviterID.String())
	if !ok {
		return
	}

	inviter.enqueue(EventInvitationRejected, invitationReplyNotice{
		RoomID: p.RoomID.String(),
		UserID: p.UserID.String(),
	})
}

func (h *Hub) handleGetRoomUsers(client *Client, data json.RawMessage) {
	var p roomPayload
	if err := decodePayload(data, &p); err != nil || p.RoomID == "" {
		h.sendError(client, "roomId is required")
		return
	}

	roomID := p.RoomID.String()
	members := h.directory.Members(roomID)
	names := h.resolveNames(members)

	users := make([]roomUser, 0, len(members))
	for _, userID := range members {
		users = append(users, roomUser{ID: userID, Name: names[userID]})
	}

	client.enqueue(EventRoomUsers, roomUsersPayload{RoomID: roomID, Users: users})
}

func (h *Hub) handleEndSession(client *Client, data json.RawMessage) {
	var p roomPayload
	if err := decodePayload(data, &p); err != nil || p.RoomID == "" {
		h.sendError(client, "roomId is required")
		return
	}

	roomID := p.RoomID.String()
	h.broadcastGroup(roomID, EventSessionEnded, nil, nil)

	// Directory and cache entries go together; after this the room id
	// means nothing anywhere.
	delete(h.groups, roomID)
	delete(h.activity, roomID)
	h.directory.Remove(roomID)
	h.cache.Drop(roomID)
	metrics.ActiveRooms.Set(float64(h.directory.Len()))

	logger.Info("Session ended for %s", roomID)
}

// --- relay ---

func (h *Hub) handleChatMessage(client *Client, data json.RawMessage) {
	var p chatMessagePayload
	if err := decodePayload(data, &p); err != nil || p.RoomID == "" || len(p.Message) == 0 {
		h.sendError(client, "roomId and message are required")
		return
	}

	roomID := p.RoomID.String()
	h.cache.AppendMessage(roomID, p.Message)
	h.touch(roomID)

	// Echoed to the sender too: the client's local state is not assumed
	// authoritative, the echo confirms ordering.
	h.broadcastGroup(roomID, EventChatMessage, p.Message, nil)
}

func (h *Hub) handleDrawingEvent(client *Client, data json.RawMessage) {
	var p drawingEventPayload
	if err := decodePayload(data, &p); err != nil || p.RoomID == "" || len(p.Data) == 0 {
		h.sendError(client, "roomId and data are required")
		return
	}

	roomID := p.RoomID.String()
	h.touch(roomID)

	// The sender already rendered locally; strokes are not cached since
	// they only make sense on top of every stroke before them.
	h.broadcastGroup(roomID, EventDrawingEvent, p.Data, client)
}

func (h *Hub) handleRequestCanvasState(client *Client, data json.RawMessage) {
	var p roomPayload
	if err := decodePayload(data, &p); err != nil || p.RoomID == "" {
		h.sendError(client, "roomId is required")
		return
	}

	if blob, ok := h.cache.Snapshot(p.RoomID.String()); ok {
		client.enqueue(EventCanvasState, canvasStatePayload{ImageData: blob})
	}
}

func (h *Hub) handleSaveCanvasState(client *Client, data json.RawMessage) {
	var p saveCanvasStatePayload
	if err := decodePayload(data, &p); err != nil || p.RoomID == "" || len(p.ImageData) == 0 {
		h.sendError(client, "roomId and imageData are required")
		return
	}

	roomID := p.RoomID.String()
	h.cache.SaveSnapshot(roomID, p.ImageData)
	h.touch(roomID)

	h.broadcastGroup(roomID, EventCanvasState, canvasStatePayload{ImageData: p.ImageData}, client)
}

// --- group plumbing ---

func (h *Hub) joinGroup(roomID string, client *Client) {
	group := h.groups[roomID]
	if group == nil {
		group = make(map[*Client]struct{})
		h.groups[roomID] = group
	}
	group[client] = struct{}{}
}

func (h *Hub) broadcastGroup(roomID, event string, payload interface{}, except *Client) {
	for client := range h.groups[roomID] {
		if client == except {
			continue
		}
		client.enqueue(event, payload)
		metrics.EventsRelayed.Inc()
	}
}

func (h *Hub) broadcastAll(event string, payload interface{}) {
	for _, client := range h.registry.All() {
		client.enqueue(event, payload)
	}
}

func (h *Hub) sendError(client *Client, message string) {
	metrics.EventErrors.Inc()
	logger.Warn("Rejecting event from %s: %s", client.addr, message)
	client.enqueue(EventError, errorPayload{Message: message})
}

func (h *Hub) touch(roomID string) {
	h.activity[roomID] = h.now()
}

// sweepIdleRooms discards rooms whose connection group is empty and
// whose last activity is older than the idle TTL. Rooms a sweep has
// never seen get a timestamp and a grace period instead.
func (h *Hub) sweepIdleRooms() {
	now := h.now()
	for _, roomID := range h.directory.RoomIDs() {
		if len(h.groups[roomID]) > 0 {
			continue
		}
		last, ok := h.activity[roomID]
		if !ok {
			h.activity[roomID] = now
			continue
		}
		if now.Sub(last) > h.idleTTL {
			h.directory.Remove(roomID)
			h.cache.Drop(roomID)
			delete(h.activity, roomID)
			delete(h.groups, roomID)
			logger.Info("Swept idle room %s", roomID)
		}
	}
	metrics.ActiveRooms.Set(float64(h.directory.Len()))
}

// --- name decoration ---

func (h *Hub) resolveName(userID string) string {
	return h.resolveNames([]string{userID})[userID]
}

// resolveNames decorates notifications with display names. Lookup
// failures degrade to undecorated notifications, never to a failed
// protocol transition.
func (h *Hub) resolveNames(userIDs []string) map[string]string {
	if h.names == nil || len(userIDs) == 0 {
		return map[string]string{}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	names, err := h.names.ResolveNames(ctx, userIDs)
	if err != nil {
		logger.Warn("Name lookup failed: %v", err)
		return map[string]string{}
	}
	return names
}

func mintRequestID() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10)
}
