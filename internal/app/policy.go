package app

import "github.com/dkeye/Signal/internal/domain"

type Action int

const (
	ActionRecordingControl Action = iota
)

// Policy decides which roles may perform restricted room actions.
type Policy interface {
	Allow(role domain.Role, action Action) bool
}

// RolePolicy restricts recording control to one privileged role.
type RolePolicy struct {
	RecordingRole domain.Role
}

func (p RolePolicy) Allow(role domain.Role, action Action) bool {
	switch action {
	case ActionRecordingControl:
		return role != "" && role == p.RecordingRole
	default:
		return true
	}
}
