package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/dkeye/Signal/internal/domain"
)

type MessageType string

const (
	TypeJoin         MessageType = "join"
	TypeOffer        MessageType = "offer"
	TypeAnswer       MessageType = "answer"
	TypeICECandidate MessageType = "ice-candidate"
	TypeChat         MessageType = "chat"
	TypeRecording    MessageType = "recording"
	TypePresence     MessageType = "presence"
	TypeDisconnect   MessageType = "disconnect"
)

// Inbound is implemented by every parsed client message.
type Inbound interface {
	Type() MessageType
}

// Join fields are left unvalidated here: missing fields or non-object
// metadata are an invalid join, not an unparseable message, and the router
// reports them as such.
type Join struct {
	RoomID   domain.RoomID   `json:"roomId"`
	UserID   domain.UserID   `json:"userId"`
	Role     domain.Role     `json:"userType"`
	Metadata json.RawMessage `json:"metadata"`
}

// DecodeMetadata returns the join metadata as an object. Absent or null
// metadata is empty.
func (j Join) DecodeMetadata() (domain.Metadata, error) {
	md := domain.Metadata{}
	if len(j.Metadata) == 0 {
		return md, nil
	}
	if err := json.Unmarshal(j.Metadata, &md); err != nil {
		return nil, err
	}
	if md == nil {
		md = domain.Metadata{}
	}
	return md, nil
}

// Negotiation is an offer, answer or ice-candidate. Payload holds every field
// of the original frame except targetUserId, untouched.
type Negotiation struct {
	Kind         MessageType
	TargetUserID domain.UserID
	Payload      map[string]json.RawMessage
}

// Chat.Message is relayed as sent; clients may send text or structured bodies.
type Chat struct {
	Message     json.RawMessage `json:"message"`
	MessageType string          `json:"messageType"`
}

// Recording fields are checked by the receiving clients, not here: the role
// gate applies before any field is looked at.
type Recording struct {
	Action      string `json:"action"`
	RecordingID string `json:"recordingId"`
	URL         string `json:"url"`
}

type Presence struct {
	Status string `json:"status"`
}

type Disconnect struct{}

func (Join) Type() MessageType { return TypeJoin }
func (n Negotiation) Type() MessageType { return n.Kind }
func (Chat) Type() MessageType { return TypeChat }
func (Recording) Type() MessageType { return TypeRecording }
func (Presence) Type() MessageType { return TypePresence }
func (Disconnect) Type() MessageType { return TypeDisconnect }

const fieldTargetUserID = "targetUserId"

// Parse decodes a raw frame into its concrete message type.
// Errors wrap domain.ErrInvalidMessage or domain.ErrUnknownType.
func Parse(data []byte) (Inbound, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidMessage, err)
	}
	var t MessageType
	raw, ok := fields["type"]
	if !ok {
		return nil, fmt.Errorf("%w: missing type", domain.ErrUnknownType)
	}
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("%w: type: %s", domain.ErrUnknownType, raw)
	}

	switch t {
	case TypeJoin:
		var m Join
		return decode(data, &m)
	case TypeOffer, TypeAnswer, TypeICECandidate:
		return parseNegotiation(t, fields)
	case TypeChat:
		var m Chat
		return decode(data, &m)
	case TypeRecording:
		var m Recording
		return decode(data, &m)
	case TypePresence:
		var m Presence
		return decode(data, &m)
	case TypeDisconnect:
		return Disconnect{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownType, t)
	}
}

func decode[T Inbound, P interface {
	*T
	Inbound
}](data []byte, m P) (Inbound, error) {
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidMessage, m.Type(), err)
	}
	return *m, nil
}

func parseNegotiation(t MessageType, fields map[string]json.RawMessage) (Inbound, error) {
	n := Negotiation{Kind: t, Payload: make(map[string]json.RawMessage, len(fields))}
	for k, v := range fields {
		if k == fieldTargetUserID {
			// A null or non-string target resolves to nobody.
			_ = json.Unmarshal(v, &n.TargetUserID)
			continue
		}
		n.Payload[k] = v
	}
	return n, nil
}
