package core

import (
	"testing"
	"time"

	"github.com/dkeye/Signal/internal/domain"
	"github.com/stretchr/testify/require"
)

func participant(cid, uid string) *domain.Participant {
	return &domain.Participant{
		ConnectionID: domain.ConnectionID(cid),
		UserID:       domain.UserID(uid),
		Role:         "patient",
		Metadata:     domain.Metadata{"uid": uid},
	}
}

func TestRoom_JoinReportsOthers(t *testing.T) {
	req := require.New(t)
	room := NewRoomService("R1", time.Now())

	req.NoError(room.Join(participant("c1", "a"), func(others []Member) {
		req.Empty(others)
	}))

	var seen []Member
	req.NoError(room.Join(participant("c2", "b"), func(others []Member) {
		seen = others
	}))
	req.Len(seen, 1)
	req.Equal(domain.ConnectionID("c1"), seen[0].ConnectionID)
	req.Equal(domain.UserID("a"), seen[0].UserID)
	req.Equal(2, room.MemberCount())
}

func TestRoom_JoinDuplicateUserID(t *testing.T) {
	req := require.New(t)
	room := NewRoomService("R1", time.Now())
	req.NoError(room.Join(participant("c1", "a"), nil))

	called := false
	err := room.Join(participant("c2", "a"), func([]Member) { called = true })

	req.ErrorIs(err, domain.ErrUserAlreadyInRoom)
	req.False(called)
	req.True(room.Has("c1", "a"))
	req.False(room.Has("c2", "a"))
}

func TestRoom_LeaveRequiresMatchingConnection(t *testing.T) {
	req := require.New(t)
	room := NewRoomService("R1", time.Now())
	req.NoError(room.Join(participant("c1", "a"), nil))

	removed, empty := room.Leave("c9", "a", nil)
	req.False(removed)
	req.False(empty)
	req.Equal(1, room.MemberCount())
}

func TestRoom_LeaveLastClosesRoom(t *testing.T) {
	req := require.New(t)
	room := NewRoomService("R1", time.Now())
	req.NoError(room.Join(participant("c1", "a"), nil))
	req.NoError(room.Join(participant("c2", "b"), nil))

	var remaining []domain.ConnectionID
	removed, empty := room.Leave("c1", "a", func(r []domain.ConnectionID) { remaining = r })
	req.True(removed)
	req.False(empty)
	req.Equal([]domain.ConnectionID{"c2"}, remaining)

	removed, empty = room.Leave("c2", "b", nil)
	req.True(removed)
	req.True(empty)

	// A closed room refuses new members
	req.ErrorIs(room.Join(participant("c3", "c"), nil), ErrRoomClosed)
	removed, _ = room.Leave("c2", "b", nil)
	req.False(removed)
}

func TestRoom_BroadcastAndSendToUser(t *testing.T) {
	req := require.New(t)
	room := NewRoomService("R1", time.Now())
	req.NoError(room.Join(participant("c1", "a"), nil))
	req.NoError(room.Join(participant("c2", "b"), nil))

	var got []domain.ConnectionID
	collect := func(to domain.ConnectionID) { got = append(got, to) }

	req.Equal(1, room.Broadcast("c1", collect))
	req.Equal([]domain.ConnectionID{"c2"}, got)

	got = nil
	req.Equal(2, room.Broadcast(domain.NoConnection, collect))
	req.ElementsMatch([]domain.ConnectionID{"c1", "c2"}, got)

	got = nil
	req.True(room.SendToUser("b", collect))
	req.False(room.SendToUser("zz", collect))
	req.Equal([]domain.ConnectionID{"c2"}, got)
}

func TestRoom_SnapshotDoesNotAliasMetadata(t *testing.T) {
	req := require.New(t)
	room := NewRoomService("R1", time.Now())
	req.NoError(room.Join(participant("c1", "a"), nil))

	snap := room.Snapshot()
	req.Len(snap, 1)
	snap[0].Metadata["uid"] = "mutated"

	req.Equal("a", room.Snapshot()[0].Metadata["uid"])
	req.Equal(1, room.Info().ParticipantCount)
	req.Equal(domain.RoomID("R1"), room.ID())
}
