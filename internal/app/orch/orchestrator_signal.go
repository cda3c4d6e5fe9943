package orch

import (
	"github.com/dkeye/Signal/internal/app"
	"github.com/dkeye/Signal/internal/domain"
	"github.com/dkeye/Signal/internal/protocol"
	"github.com/rs/zerolog/log"
)

// member returns cid's record if it is currently in a room. Messages from
// connections that have not joined are dropped silently.
func (o *Orchestrator) member(cid domain.ConnectionID) (domain.Connection, bool) {
	conn, err := o.Registry.Lookup(cid)
	if err != nil || !conn.InRoom() {
		return domain.Connection{}, false
	}
	return conn, true
}

// RouteDirected forwards an opaque negotiation payload to one participant of
// the sender's room.
func (o *Orchestrator) RouteDirected(cid domain.ConnectionID, n protocol.Negotiation) error {
	conn, ok := o.member(cid)
	if !ok {
		return nil
	}
	room, ok := o.Rooms.Get(conn.RoomID)
	if !ok {
		return nil
	}
	if n.TargetUserID == "" {
		return domain.ErrUserNotFound
	}
	out, err := protocol.Relayed(n, conn.UserID, o.now())
	if err != nil {
		return err
	}
	frame, err := protocol.Encode(out)
	if err != nil {
		return err
	}
	delivered := room.SendToUser(n.TargetUserID, func(to domain.ConnectionID) {
		o.Registry.SendFrame(to, frame)
	})
	if !delivered {
		return domain.ErrUserNotFound
	}
	log.Debug().Str("module", "orch").Str("room", string(conn.RoomID)).Str("from", string(conn.UserID)).Str("to", string(n.TargetUserID)).Str("kind", string(n.Kind)).Msg("relayed")
	return nil
}

func (o *Orchestrator) Chat(cid domain.ConnectionID, m protocol.Chat) {
	conn, ok := o.member(cid)
	if !ok {
		return
	}
	kind := m.MessageType
	if kind == "" {
		kind = protocol.DefaultChatMessageType
	}
	o.BroadcastToRoom(conn.RoomID, cid, protocol.ChatMessage{
		Type:        protocol.TypeChatMessage,
		FromUserID:  conn.UserID,
		FromRole:    conn.Role,
		Message:     m.Message,
		MessageType: kind,
		Timestamp:   protocol.Stamp(o.now()),
	})
}

// Recording broadcasts a recording-control event to the whole room, the
// sender included. Only the policy's privileged role may do so.
func (o *Orchestrator) Recording(cid domain.ConnectionID, m protocol.Recording) error {
	conn, ok := o.member(cid)
	if !ok {
		return nil
	}
	if o.Policy == nil || !o.Policy.Allow(conn.Role, app.ActionRecordingControl) {
		return domain.ErrUnauthorized
	}
	n := o.BroadcastToRoom(conn.RoomID, domain.NoConnection, protocol.RecordingControl{
		Type:        protocol.TypeRecordingControl,
		Action:      m.Action,
		RecordingID: m.RecordingID,
		URL:         m.URL,
		FromUserID:  conn.UserID,
		Timestamp:   protocol.Stamp(o.now()),
	})
	log.Info().Str("module", "orch").Str("room", string(conn.RoomID)).Str("action", m.Action).Int("sent_to", n).Msg("recording control")
	return nil
}

// Presence records a heartbeat. A non-empty status is shared with the room.
// Liveness is advisory: nobody is evicted for missing heartbeats.
func (o *Orchestrator) Presence(cid domain.ConnectionID, m protocol.Presence) {
	o.Registry.Touch(cid)
	if m.Status == "" {
		return
	}
	conn, ok := o.member(cid)
	if !ok {
		return
	}
	o.BroadcastToRoom(conn.RoomID, cid, protocol.UserStatus{
		Type:      protocol.TypeUserStatus,
		UserID:    conn.UserID,
		Status:    m.Status,
		Timestamp: protocol.Stamp(o.now()),
	})
}
