package collab

import (
	"encoding/json"
	"fmt"
)

// Inbound event names (client -> server).
const (
	EventPresenceOnline       = "presence-online"
	EventRequestCollaboration = "request-collaboration"
	EventAcceptCollaboration  = "accept-collaboration"
	EventRejectCollaboration  = "reject-collaboration"
	EventJoinRoom             = "join-room"
	EventChatMessage          = "chat-message"
	EventDrawingEvent         = "drawing-event"
	EventRequestCanvasState   = "request-canvas-state"
	EventSaveCanvasState      = "save-canvas-state"
	EventEndSession           = "end-session"
	EventInviteToRoom         = "invite-to-room"
	EventAcceptRoomInvitation = "accept-room-invitation"
	EventRejectRoomInvitation = "reject-room-invitation"
	EventGetRoomUsers         = "get-room-users"
)

// Outbound event names (server -> client).
const (
	EventPresenceChanged       = "presence-changed"
	EventCollaborationRequest  = "collaboration-request"
	EventCollaborationAccepted = "collaboration-accepted"
	EventCollaborationRejected = "collaboration-rejected"
	EventRoomInvitation        = "room-invitation"
	EventInvitationAccepted    = "invitation-accepted"
	EventInvitationRejected    = "invitation-rejected"
	EventUserJoinedRoom        = "user-joined-room"
	EventCanvasState           = "canvas-state"
	EventSessionEnded          = "session-ended"
	EventActiveUsers           = "active-users"
	EventRoomUsers             = "room-users"
	EventError                 = "error"
)

// knownInboundEvents keeps client-supplied names from becoming an
// unbounded metrics label set.
var knownInboundEvents = map[string]struct{}{
	EventPresenceOnline:       {},
	EventRequestCollaboration: {},
	EventAcceptCollaboration:  {},
	EventRejectCollaboration:  {},
	EventJoinRoom:             {},
	EventChatMessage:          {},
	EventDrawingEvent:         {},
	EventRequestCanvasState:   {},
	EventSaveCanvasState:      {},
	EventEndSession:           {},
	EventInviteToRoom:         {},
	EventAcceptRoomInvitation: {},
	EventRejectRoomInvitation: {},
	EventGetRoomUsers:         {},
}

// Envelope is the wire frame for every realtime event in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ID is an identifier field that tolerates the loose typing of inbound
// traffic: clients have been seen sending identifiers as JSON strings,
// bare numbers, and objects wrapping an "id" field. All three decode to
// one canonical string so that 5 and "5" are the same map key.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	if len(b) == 0 {
		return fmt.Errorf("empty identifier")
	}

	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	case '{':
		var wrapped struct {
			ID ID `json:"id"`
		}
		if err := json.Unmarshal(b, &wrapped); err != nil {
			return err
		}
		*id = wrapped.ID
		return nil
	case 'n': // null
		*id = ""
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("identifier must be a string or number")
		}
		*id = ID(n.String())
		return nil
	}
}

func (id ID) String() string { return string(id) }

// Per-event payload schemas. Fields marked required are enforced by the
// hub before any state is touched; a violation aborts the event with an
// error reply and no mutation.

type presenceOnlinePayload struct {
	UserID ID `json:"userId"`
}

type requestCollaborationPayload struct {
	SenderID     ID     `json:"senderId"`
	ReceiverID   ID     `json:"receiverId"`
	SenderName   string `json:"senderName,omitempty"`
	ReceiverName string `json:"receiverName,omitempty"`
	RequestID    ID     `json:"requestId,omitempty"`
}

type acceptCollaborationPayload struct {
	SenderID   ID `json:"senderId"`
	ReceiverID ID `json:"receiverId"`
}

type rejectCollaborationPayload struct {
	SenderID  ID `json:"senderId"`
	RequestID ID `json:"requestId"`
}

type roomPayload struct {
	RoomID ID `json:"roomId"`
}

type chatMessagePayload struct {
	RoomID  ID              `json:"roomId"`
	Message json.RawMessage `json:"message"`
}

type drawingEventPayload struct {
	RoomID ID              `json:"roomId"`
	Data   json.RawMessage `json:"data"`
}

type saveCanvasStatePayload struct {
	RoomID    ID              `json:"roomId"`
	ImageData json.RawMessage `json:"imageData"`
}

type roomInvitationPayload struct {
	RoomID      ID     `json:"roomId"`
	UserID      ID     `json:"userId"`
	InviterID   ID     `json:"inviterId"`
	InviterName string `json:"inviterName,omitempty"`
}

// Outbound payload shapes.

type presenceChangedPayload struct {
	UserID string `json:"userId"`
	Status string `json:"status"`
}

type collaborationRequestPayload struct {
	SenderID   string `json:"senderId"`
	SenderName string `json:"senderName,omitempty"`
	RequestID  string `json:"requestId"`
}

type collaborationAcceptedPayload struct {
	RoomID string `json:"roomId"`
}

type collaborationRejectedPayload struct {
	RequestID string `json:"requestId"`
	Message   string `json:"message"`
}

type roomInvitationNotice struct {
	RoomID      string `json:"roomId"`
	InviterID   string `json:"inviterId"`
	InviterName string `json:"inviterName,omitempty"`
}

type invitationReplyNotice struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
}

type userJoinedRoomPayload struct {
	RoomID string   `json:"roomId"`
	UserID string   `json:"userId"`
	Users  []string `json:"users"`
}

type canvasStatePayload struct {
	ImageData json.RawMessage `json:"imageData"`
}

type usersPayload struct {
	Users []string `json:"users"`
}

type roomUsersPayload struct {
	RoomID string     `json:"roomId"`
	Users  []roomUser `json:"users"`
}

type roomUser struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// decodePayload unmarshals an event's data into its schema struct.
// A nil data section decodes every field to its zero value, which the
// required-field checks then reject.
func decodePayload(data json.RawMessage, v interface{}) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
