package orch

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/dkeye/Signal/internal/app"
	"github.com/dkeye/Signal/internal/core"
	"github.com/dkeye/Signal/internal/domain"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu     sync.Mutex
	frames []map[string]any
	closed bool
}

func (f *fakeConn) TrySend(fr core.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return core.ErrClosed
	}
	var m map[string]any
	if err := json.Unmarshal(fr, &m); err != nil {
		return err
	}
	f.frames = append(f.frames, m)
	return nil
}

func (f *fakeConn) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeConn) messages() []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]any(nil), f.frames...)
}

func (f *fakeConn) types() []string {
	var out []string
	for _, m := range f.messages() {
		out = append(out, m["type"].(string))
	}
	return out
}

func (f *fakeConn) ofType(t string) []map[string]any {
	var out []map[string]any
	for _, m := range f.messages() {
		if m["type"] == t {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeConn) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = nil
}

func newTestOrchestrator() *Orchestrator {
	return &Orchestrator{
		Registry: app.NewRegistry(),
		Rooms:    app.NewRoomManager(),
		Policy:   app.RolePolicy{RecordingRole: "clinician"},
		Server:   "signal-test",
		Version:  "1.0.0",
	}
}

func connect(o *Orchestrator) (domain.ConnectionID, *fakeConn) {
	fc := &fakeConn{}
	return o.Connect(fc), fc
}

func send(o *Orchestrator, cid domain.ConnectionID, raw string) {
	o.Dispatch(cid, []byte(raw))
}

// joined connects a new client and joins it, clearing its inbox afterwards.
func joined(t *testing.T, o *Orchestrator, room, user, role string) (domain.ConnectionID, *fakeConn) {
	t.Helper()
	cid, fc := connect(o)
	send(o, cid, `{"type":"join","roomId":"`+room+`","userId":"`+user+`","userType":"`+role+`"}`)
	require.Len(t, fc.ofType("joined"), 1, "join of %s failed: %v", user, fc.messages())
	fc.reset()
	return cid, fc
}

func memberCount(t *testing.T, o *Orchestrator, room string) int {
	t.Helper()
	r, ok := o.Rooms.Get(domain.RoomID(room))
	if !ok {
		return 0
	}
	return r.MemberCount()
}
