package orch

import (
	"errors"
	"fmt"

	"github.com/dkeye/Signal/internal/core"
	"github.com/dkeye/Signal/internal/domain"
	"github.com/dkeye/Signal/internal/protocol"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type joinRules struct {
	RoomID domain.RoomID `validate:"required"`
	UserID domain.UserID `validate:"required"`
	Role   domain.Role   `validate:"required"`
}

// Join adds cid to req.RoomID under req.UserID. A connection that is already
// in a room moves: it leaves the old room only once the new join succeeded,
// so a rejected join changes nothing.
func (o *Orchestrator) Join(cid domain.ConnectionID, req protocol.Join) error {
	if err := validate.Struct(joinRules{RoomID: req.RoomID, UserID: req.UserID, Role: req.Role}); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidJoin, err)
	}
	metadata, err := req.DecodeMetadata()
	if err != nil {
		return fmt.Errorf("%w: metadata: %v", domain.ErrInvalidJoin, err)
	}
	prev, err := o.Registry.Lookup(cid)
	if err != nil {
		return err
	}
	if prev.InRoom() && prev.RoomID == req.RoomID && prev.UserID == req.UserID {
		return fmt.Errorf("join room %s: %w", req.RoomID, domain.ErrUserAlreadyInRoom)
	}

	p := &domain.Participant{
		ConnectionID: cid,
		UserID:       req.UserID,
		Role:         req.Role,
		JoinedAt:     o.now(),
		Metadata:     metadata,
	}

	for {
		room := o.Rooms.GetOrCreate(req.RoomID)
		err := room.Join(p, func(others []core.Member) {
			o.onJoined(cid, p, req.RoomID, others)
		})
		if errors.Is(err, core.ErrRoomClosed) {
			// Emptied and destroyed between lookup and lock; a fresh room is due.
			continue
		}
		if err != nil {
			return fmt.Errorf("join room %s: %w", req.RoomID, err)
		}
		break
	}

	if prev.InRoom() {
		log.Info().Str("module", "orch").Str("cid", string(cid)).Str("from_room", string(prev.RoomID)).Msg("leaving previous room")
		o.leaveRoom(cid, prev.RoomID, prev.UserID)
	}
	log.Info().Str("module", "orch").Str("cid", string(cid)).Str("room", string(req.RoomID)).Str("user", string(req.UserID)).Str("role", string(req.Role)).Msg("joined room")
	return nil
}

// onJoined runs under the room lock, right after p was inserted.
func (o *Orchestrator) onJoined(cid domain.ConnectionID, p *domain.Participant, roomID domain.RoomID, others []core.Member) {
	if err := o.Registry.SetRoomMembership(cid, roomID, p.UserID, p.Role, p.Metadata); err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("cid", string(cid)).Msg("set membership")
	}
	now := protocol.Stamp(o.now())

	o.Registry.SendTo(cid, protocol.Joined{
		Type:      protocol.TypeJoined,
		RoomID:    roomID,
		UserID:    p.UserID,
		Role:      p.Role,
		Timestamp: now,
	})

	// A connection renaming itself in its own room still has its old entry.
	others = lo.Reject(others, func(m core.Member, _ int) bool {
		return m.ConnectionID == cid
	})
	if len(others) == 0 {
		return
	}

	joined, err := protocol.Encode(protocol.UserJoined{
		Type:      protocol.TypeUserJoined,
		UserID:    p.UserID,
		Role:      p.Role,
		Metadata:  p.Metadata.Clone(),
		Timestamp: now,
	})
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("encode user-joined")
	} else {
		for _, m := range others {
			o.Registry.SendFrame(m.ConnectionID, joined)
		}
	}

	o.Registry.SendTo(cid, protocol.ExistingUsers{
		Type: protocol.TypeExistingUsers,
		Participants: lo.Map(others, func(m core.Member, _ int) core.ParticipantDTO {
			return m.ParticipantDTO
		}),
		Timestamp: now,
	})
}

// Leave removes cid's participant from roomID. It is idempotent and is the
// single path for both explicit leave and transport close.
func (o *Orchestrator) Leave(cid domain.ConnectionID, roomID domain.RoomID) {
	conn, err := o.Registry.Lookup(cid)
	if err != nil {
		return
	}
	if conn.RoomID == roomID {
		defer o.Registry.ClearRoomMembership(cid)
	}
	if conn.UserID == "" {
		return
	}
	o.leaveRoom(cid, roomID, conn.UserID)
}

// leaveRoom does the room side of a leave: it removes uid if it is still
// bound to cid, tells the remaining participants and destroys an emptied
// room. Registry membership is left to the caller.
func (o *Orchestrator) leaveRoom(cid domain.ConnectionID, roomID domain.RoomID, uid domain.UserID) {
	room, ok := o.Rooms.Get(roomID)
	if !ok {
		return
	}
	removed, empty := room.Leave(cid, uid, func(remaining []domain.ConnectionID) {
		frame, err := protocol.Encode(protocol.UserLeft{
			Type:      protocol.TypeUserLeft,
			UserID:    uid,
			Timestamp: protocol.Stamp(o.now()),
		})
		if err != nil {
			log.Error().Err(err).Str("module", "orch").Msg("encode user-left")
			return
		}
		for _, to := range remaining {
			if to == cid {
				continue
			}
			o.Registry.SendFrame(to, frame)
		}
	})
	if !removed {
		return
	}
	if empty {
		o.Rooms.Remove(roomID, room)
	}
	log.Info().Str("module", "orch").Str("cid", string(cid)).Str("room", string(roomID)).Str("user", string(uid)).Bool("room_destroyed", empty).Msg("left room")
}

// LeaveCurrent leaves whatever room cid is in, if any.
func (o *Orchestrator) LeaveCurrent(cid domain.ConnectionID) {
	conn, err := o.Registry.Lookup(cid)
	if err != nil || !conn.InRoom() {
		return
	}
	o.Leave(cid, conn.RoomID)
}
