package core

import (
	"errors"
	"time"

	"github.com/dkeye/Signal/internal/domain"
)

// ErrRoomClosed is returned when a room was destroyed between lookup and use.
// Callers should fetch a fresh room and retry.
var ErrRoomClosed = errors.New("room closed")

// ParticipantDTO is a read-only view for APIs (no transport fields).
type ParticipantDTO struct {
	UserID   domain.UserID   `json:"userId"`
	Role     domain.Role     `json:"userType"`
	Metadata domain.Metadata `json:"metadata"`
}

// ParticipantInfo extends ParticipantDTO with bookkeeping fields for the REST API.
type ParticipantInfo struct {
	ParticipantDTO
	JoinedAt time.Time `json:"joinedAt"`
}

// Member pairs a participant view with the connection it is bound to.
type Member struct {
	ConnectionID domain.ConnectionID
	ParticipantDTO
}

type RoomInfo struct {
	ID               domain.RoomID `json:"roomId"`
	ParticipantCount int           `json:"participants"`
	CreatedAt        time.Time     `json:"createdAt"`
}

// Deliver sends an already-built message to one connection.
type Deliver func(to domain.ConnectionID)

// RoomService is the core-facing API of a room.
// Every method runs under the room's lock, so callbacks observe a consistent
// roster and must not call back into the same room.
type RoomService interface {
	ID() domain.RoomID
	Info() RoomInfo
	MemberCount() int
	Snapshot() []ParticipantInfo

	// Join inserts p and then calls onJoined with the other participants.
	Join(p *domain.Participant, onJoined func(others []Member)) error
	// Leave removes uid if it is still bound to cid, then calls onLeft with
	// the remaining participants. It reports whether a removal happened and
	// whether the room is now empty (and therefore closed).
	Leave(cid domain.ConnectionID, uid domain.UserID, onLeft func(remaining []domain.ConnectionID)) (removed, empty bool)
	// Broadcast calls deliver for every participant except exclude.
	Broadcast(exclude domain.ConnectionID, deliver Deliver) int
	// SendToUser calls deliver for uid's connection if uid is present.
	SendToUser(uid domain.UserID, deliver Deliver) bool
	// Has reports whether cid is a participant under uid.
	Has(cid domain.ConnectionID, uid domain.UserID) bool
}

type RoomManager interface {
	GetOrCreate(id domain.RoomID) RoomService
	Get(id domain.RoomID) (RoomService, bool)
	// Remove deletes id only if it still maps to room.
	Remove(id domain.RoomID, room RoomService)
	List() []RoomInfo
	Count() int
}
