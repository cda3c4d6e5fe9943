package protocol

import (
	"encoding/json"
	"time"

	"github.com/dkeye/Signal/internal/core"
	"github.com/dkeye/Signal/internal/domain"
)

const (
	TypeWelcome          MessageType = "welcome"
	TypeJoined           MessageType = "joined"
	TypeUserJoined       MessageType = "user-joined"
	TypeExistingUsers    MessageType = "existing-users"
	TypeUserLeft         MessageType = "user-left"
	TypeChatMessage      MessageType = "chat-message"
	TypeRecordingControl MessageType = "recording-control"
	TypeUserStatus       MessageType = "user-status"
	TypeError            MessageType = "error"
)

// TimeLayout is ISO-8601 in UTC with millisecond precision.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

func Stamp(t time.Time) string { return t.UTC().Format(TimeLayout) }

type Welcome struct {
	Type         MessageType         `json:"type"`
	ConnectionID domain.ConnectionID `json:"connectionId"`
	Server       string              `json:"server,omitempty"`
	Version      string              `json:"version,omitempty"`
	Timestamp    string              `json:"timestamp"`
}

type Joined struct {
	Type      MessageType   `json:"type"`
	RoomID    domain.RoomID `json:"roomId"`
	UserID    domain.UserID `json:"userId"`
	Role      domain.Role   `json:"userType"`
	Timestamp string        `json:"timestamp"`
}

type UserJoined struct {
	Type      MessageType     `json:"type"`
	UserID    domain.UserID   `json:"userId"`
	Role      domain.Role     `json:"userType"`
	Metadata  domain.Metadata `json:"metadata"`
	Timestamp string          `json:"timestamp"`
}

type ExistingUsers struct {
	Type         MessageType           `json:"type"`
	Participants []core.ParticipantDTO `json:"participants"`
	Timestamp    string                `json:"timestamp"`
}

type UserLeft struct {
	Type      MessageType   `json:"type"`
	UserID    domain.UserID `json:"userId"`
	Timestamp string        `json:"timestamp"`
}

type ChatMessage struct {
	Type        MessageType     `json:"type"`
	FromUserID  domain.UserID   `json:"fromUserId"`
	FromRole    domain.Role     `json:"fromUserType"`
	Message     json.RawMessage `json:"message,omitempty"`
	MessageType string          `json:"messageType"`
	Timestamp   string          `json:"timestamp"`
}

type RecordingControl struct {
	Type        MessageType   `json:"type"`
	Action      string        `json:"action"`
	RecordingID string        `json:"recordingId,omitempty"`
	URL         string        `json:"url,omitempty"`
	FromUserID  domain.UserID `json:"fromUserId"`
	Timestamp   string        `json:"timestamp"`
}

type UserStatus struct {
	Type      MessageType   `json:"type"`
	UserID    domain.UserID `json:"userId"`
	Status    string        `json:"status"`
	Timestamp string        `json:"timestamp"`
}

type Error struct {
	Type      MessageType `json:"type"`
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	Timestamp string      `json:"timestamp"`
}

// NewError builds the error envelope for err, which should wrap a domain sentinel.
func NewError(err error, now time.Time) Error {
	return Error{
		Type:      TypeError,
		Code:      domain.Code(err),
		Message:   err.Error(),
		Timestamp: Stamp(now),
	}
}

const DefaultChatMessageType = "text"

// Relayed returns the frame forwarded to the target of a negotiation message:
// the sender's original fields plus fromUserId and timestamp.
func Relayed(n Negotiation, from domain.UserID, now time.Time) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(n.Payload)+2)
	for k, v := range n.Payload {
		out[k] = v
	}
	fromRaw, err := json.Marshal(from)
	if err != nil {
		return nil, err
	}
	tsRaw, err := json.Marshal(Stamp(now))
	if err != nil {
		return nil, err
	}
	out["fromUserId"] = fromRaw
	out["timestamp"] = tsRaw
	return out, nil
}

// Encode marshals an outbound message into a frame.
func Encode(v any) (core.Frame, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return core.Frame(b), nil
}
