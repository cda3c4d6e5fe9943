package orch

import (
	"errors"
	"time"

	"github.com/dkeye/Signal/internal/app"
	"github.com/dkeye/Signal/internal/core"
	"github.com/dkeye/Signal/internal/domain"
	"github.com/dkeye/Signal/internal/protocol"
	"github.com/rs/zerolog/log"
)

// Orchestrator is the room router. It is built once at startup and shared by
// every connection handler.
type Orchestrator struct {
	Registry *app.Registry
	Rooms    core.RoomManager
	Policy   app.Policy

	// Server and Version are advertised in the welcome message.
	Server  string
	Version string

	// Clock defaults to time.Now.
	Clock func() time.Time
}

type Stats struct {
	Connections int `json:"connections"`
	Rooms       int `json:"rooms"`
}

func (o *Orchestrator) now() time.Time {
	if o.Clock != nil {
		return o.Clock()
	}
	return time.Now()
}

// Connect registers a new transport and greets it.
func (o *Orchestrator) Connect(sig core.SignalConnection) domain.ConnectionID {
	cid := o.Registry.Register(sig)
	o.Registry.SendTo(cid, protocol.Welcome{
		Type:         protocol.TypeWelcome,
		ConnectionID: cid,
		Server:       o.Server,
		Version:      o.Version,
		Timestamp:    protocol.Stamp(o.now()),
	})
	return cid
}

// OnDisconnect handles a closed transport exactly like an explicit leave,
// then forgets the connection.
func (o *Orchestrator) OnDisconnect(cid domain.ConnectionID) {
	if conn, err := o.Registry.Lookup(cid); err == nil && conn.InRoom() {
		o.Leave(cid, conn.RoomID)
	}
	o.Registry.Deregister(cid)
}

// Dispatch parses one inbound frame and executes it. Protocol errors are
// reported to the sender only.
func (o *Orchestrator) Dispatch(cid domain.ConnectionID, data []byte) {
	msg, err := protocol.Parse(data)
	if err != nil {
		o.reportError(cid, err)
		return
	}
	log.Debug().Str("module", "orch").Str("cid", string(cid)).Str("type", string(msg.Type())).Msg("dispatch")

	switch m := msg.(type) {
	case protocol.Join:
		err = o.Join(cid, m)
	case protocol.Negotiation:
		err = o.RouteDirected(cid, m)
	case protocol.Chat:
		o.Chat(cid, m)
	case protocol.Recording:
		err = o.Recording(cid, m)
	case protocol.Presence:
		o.Presence(cid, m)
	case protocol.Disconnect:
		o.LeaveCurrent(cid)
	default:
		err = domain.ErrUnknownType
	}
	if err != nil {
		o.reportError(cid, err)
	}
}

// ReportError sends an error envelope for err to cid.
func (o *Orchestrator) ReportError(cid domain.ConnectionID, err error) {
	o.reportError(cid, err)
}

func (o *Orchestrator) reportError(cid domain.ConnectionID, err error) {
	if errors.Is(err, domain.ErrConnectionNotFound) {
		return
	}
	log.Warn().Err(err).Str("module", "orch").Str("cid", string(cid)).Msg("request rejected")
	o.Registry.SendTo(cid, protocol.NewError(err, o.now()))
}

// BroadcastToRoom delivers msg to every participant of roomID except
// exclude. Pass domain.NoConnection to reach everyone.
func (o *Orchestrator) BroadcastToRoom(roomID domain.RoomID, exclude domain.ConnectionID, msg any) int {
	room, ok := o.Rooms.Get(roomID)
	if !ok {
		return 0
	}
	frame, err := protocol.Encode(msg)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("room", string(roomID)).Msg("encode broadcast")
		return 0
	}
	return room.Broadcast(exclude, func(to domain.ConnectionID) {
		o.Registry.SendFrame(to, frame)
	})
}

func (o *Orchestrator) Stats() Stats {
	return Stats{
		Connections: o.Registry.Count(),
		Rooms:       o.Rooms.Count(),
	}
}

func (o *Orchestrator) RoomList() []core.RoomInfo {
	return o.Rooms.List()
}

func (o *Orchestrator) Participants(roomID domain.RoomID) ([]core.ParticipantInfo, bool) {
	room, ok := o.Rooms.Get(roomID)
	if !ok {
		return nil, false
	}
	return room.Snapshot(), true
}

// Shutdown closes every transport; read loops then run the disconnect path.
func (o *Orchestrator) Shutdown() int {
	return o.Registry.CloseAll()
}
