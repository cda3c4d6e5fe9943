package domain

import "time"

type RoomID string

// Participant is a room's view of a joined connection.
// ConnectionID is a back-reference; the registry owns the connection.
type Participant struct {
	ConnectionID ConnectionID
	UserID       UserID
	Role         Role
	JoinedAt     time.Time
	Metadata     Metadata
}

type Room struct {
	ID           RoomID
	CreatedAt    time.Time
	Participants map[UserID]*Participant
}

func NewRoom(id RoomID, now time.Time) *Room {
	return &Room{
		ID:           id,
		CreatedAt:    now,
		Participants: make(map[UserID]*Participant),
	}
}
