package core

import (
	"sync"
	"time"

	"github.com/dkeye/Signal/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// roomImpl is a threadsafe in-memory room.
// It never closes adapter-owned resources.
type roomImpl struct {
	mu     sync.RWMutex
	room   *domain.Room
	closed bool
}

func NewRoomService(id domain.RoomID, now time.Time) RoomService {
	return &roomImpl{room: domain.NewRoom(id, now)}
}

func (r *roomImpl) ID() domain.RoomID { return r.room.ID }

func (r *roomImpl) Info() RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return RoomInfo{
		ID:               r.room.ID,
		ParticipantCount: len(r.room.Participants),
		CreatedAt:        r.room.CreatedAt,
	}
}

func (r *roomImpl) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.room.Participants)
}

func (r *roomImpl) Snapshot() []ParticipantInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.MapToSlice(r.room.Participants, func(_ domain.UserID, p *domain.Participant) ParticipantInfo {
		return ParticipantInfo{ParticipantDTO: toDTO(p), JoinedAt: p.JoinedAt}
	})
}

func (r *roomImpl) Join(p *domain.Participant, onJoined func(others []Member)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRoomClosed
	}
	if _, ok := r.room.Participants[p.UserID]; ok {
		return domain.ErrUserAlreadyInRoom
	}
	r.room.Participants[p.UserID] = p
	log.Info().Str("module", "core.room").Str("room", string(r.room.ID)).Str("user", string(p.UserID)).Msg("participant added")

	if onJoined != nil {
		others := lo.FilterMap(lo.Values(r.room.Participants), func(o *domain.Participant, _ int) (Member, bool) {
			return Member{ConnectionID: o.ConnectionID, ParticipantDTO: toDTO(o)}, o.UserID != p.UserID
		})
		onJoined(others)
	}
	return nil
}

func (r *roomImpl) Leave(cid domain.ConnectionID, uid domain.UserID, onLeft func(remaining []domain.ConnectionID)) (bool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false, true
	}
	p, ok := r.room.Participants[uid]
	if !ok || p.ConnectionID != cid {
		return false, len(r.room.Participants) == 0
	}
	delete(r.room.Participants, uid)
	log.Info().Str("module", "core.room").Str("room", string(r.room.ID)).Str("user", string(uid)).Msg("participant removed")

	empty := len(r.room.Participants) == 0
	if empty {
		r.closed = true
	}
	if onLeft != nil {
		onLeft(r.connections(domain.NoConnection))
	}
	return true, empty
}

func (r *roomImpl) Broadcast(exclude domain.ConnectionID, deliver Deliver) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	targets := r.connections(exclude)
	for _, cid := range targets {
		deliver(cid)
	}
	log.Debug().Str("module", "core.room").Str("room", string(r.room.ID)).Int("sent_to", len(targets)).Msg("broadcast")
	return len(targets)
}

func (r *roomImpl) SendToUser(uid domain.UserID, deliver Deliver) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.room.Participants[uid]
	if !ok {
		return false
	}
	deliver(p.ConnectionID)
	return true
}

func (r *roomImpl) Has(cid domain.ConnectionID, uid domain.UserID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.room.Participants[uid]
	return ok && p.ConnectionID == cid
}

// connections must be called with r.mu held.
func (r *roomImpl) connections(exclude domain.ConnectionID) []domain.ConnectionID {
	out := make([]domain.ConnectionID, 0, len(r.room.Participants))
	for _, p := range r.room.Participants {
		if p.ConnectionID == exclude && exclude != domain.NoConnection {
			continue
		}
		out = append(out, p.ConnectionID)
	}
	return out
}

func toDTO(p *domain.Participant) ParticipantDTO {
	return ParticipantDTO{UserID: p.UserID, Role: p.Role, Metadata: p.Metadata.Clone()}
}
