package app

import (
	"sync"
	"time"

	"github.com/dkeye/Signal/internal/core"
	"github.com/dkeye/Signal/internal/domain"
	"github.com/dkeye/Signal/internal/protocol"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type connEntry struct {
	conn   domain.Connection
	signal core.SignalConnection
}

// Registry owns every live connection and its transport handle.
type Registry struct {
	mu    sync.RWMutex
	conns map[domain.ConnectionID]*connEntry
	now   func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[domain.ConnectionID]*connEntry),
		now:   time.Now,
	}
}

// Register allocates a fresh connection id for sig. It never fails.
func (r *Registry) Register(sig core.SignalConnection) domain.ConnectionID {
	id := domain.ConnectionID(uuid.NewString())
	now := r.now()
	r.mu.Lock()
	r.conns[id] = &connEntry{
		conn:   domain.Connection{ID: id, ConnectedAt: now, LastHeartbeatAt: now},
		signal: sig,
	}
	total := len(r.conns)
	r.mu.Unlock()
	log.Info().Str("module", "app.registry").Str("cid", string(id)).Int("total", total).Msg("registered connection")
	return id
}

// Lookup returns a copy of the connection record.
func (r *Registry) Lookup(id domain.ConnectionID) (domain.Connection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[id]
	if !ok {
		return domain.Connection{}, domain.ErrConnectionNotFound
	}
	c := e.conn
	c.Metadata = c.Metadata.Clone()
	return c, nil
}

// SetRoomMembership updates only the connection's own join fields; room-side
// bookkeeping belongs to the caller.
func (r *Registry) SetRoomMembership(
	id domain.ConnectionID,
	roomID domain.RoomID,
	userID domain.UserID,
	role domain.Role,
	metadata domain.Metadata,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok {
		return domain.ErrConnectionNotFound
	}
	e.conn.RoomID = roomID
	e.conn.UserID = userID
	e.conn.Role = role
	e.conn.Metadata = metadata
	log.Info().Str("module", "app.registry").Str("cid", string(id)).Str("room", string(roomID)).Str("user", string(userID)).Msg("set room membership")
	return nil
}

func (r *Registry) ClearRoomMembership(id domain.ConnectionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.conns[id]; ok {
		e.conn.RoomID = ""
		e.conn.UserID = ""
		e.conn.Role = ""
		e.conn.Metadata = nil
	}
}

// Deregister removes the record. Callers must leave the room first.
func (r *Registry) Deregister(id domain.ConnectionID) {
	r.mu.Lock()
	delete(r.conns, id)
	total := len(r.conns)
	r.mu.Unlock()
	log.Info().Str("module", "app.registry").Str("cid", string(id)).Int("total", total).Msg("deregistered connection")
}

// Touch records a heartbeat.
func (r *Registry) Touch(id domain.ConnectionID) {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.conns[id]; ok {
		e.conn.LastHeartbeatAt = now
	}
}

// SendTo is best effort: a closed or saturated transport drops the message.
func (r *Registry) SendTo(id domain.ConnectionID, msg any) {
	frame, err := protocol.Encode(msg)
	if err != nil {
		log.Error().Err(err).Str("module", "app.registry").Str("cid", string(id)).Msg("encode message")
		return
	}
	r.SendFrame(id, frame)
}

// SendFrame delivers an already encoded frame. Unknown ids are ignored.
func (r *Registry) SendFrame(id domain.ConnectionID, frame core.Frame) {
	r.mu.RLock()
	var sig core.SignalConnection
	if e, ok := r.conns[id]; ok {
		sig = e.signal
	}
	r.mu.RUnlock()
	if sig == nil {
		return
	}
	if err := sig.TrySend(frame); err != nil {
		log.Debug().Err(err).Str("module", "app.registry").Str("cid", string(id)).Msg("message dropped")
	}
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// CloseAll closes every transport. Each adapter read loop then reports its
// disconnect through the normal path.
func (r *Registry) CloseAll() int {
	r.mu.RLock()
	sigs := make([]core.SignalConnection, 0, len(r.conns))
	for _, e := range r.conns {
		if e.signal != nil {
			sigs = append(sigs, e.signal)
		}
	}
	r.mu.RUnlock()
	for _, sig := range sigs {
		sig.Close()
	}
	log.Info().Str("module", "app.registry").Int("count", len(sigs)).Msg("closed all connections")
	return len(sigs)
}
