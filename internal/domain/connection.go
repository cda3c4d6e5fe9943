package domain

import "time"

type ConnectionID string

// NoConnection is never assigned to a live connection; it is used as the
// "exclude none" sentinel for broadcasts.
const NoConnection ConnectionID = ""

// Connection is the registry's record of one transport session.
// RoomID and UserID are both set or both empty.
type Connection struct {
	ID              ConnectionID
	RoomID          RoomID
	UserID          UserID
	Role            Role
	Metadata        Metadata
	ConnectedAt     time.Time
	LastHeartbeatAt time.Time
}

func (c Connection) InRoom() bool {
	return c.RoomID != "" && c.UserID != ""
}
