package protocol

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/dkeye/Signal/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestParse_Join(t *testing.T) {
	req := require.New(t)

	msg, err := Parse([]byte(`{"type":"join","roomId":"R1","userId":"doc1","userType":"clinician","metadata":{"name":"Dr. A"}}`))
	req.NoError(err)

	join, ok := msg.(Join)
	req.True(ok)
	req.Equal(domain.RoomID("R1"), join.RoomID)
	req.Equal(domain.UserID("doc1"), join.UserID)
	req.Equal(domain.Role("clinician"), join.Role)
	md, err := join.DecodeMetadata()
	req.NoError(err)
	req.Equal("Dr. A", md["name"])
}

func TestJoin_DecodeMetadata(t *testing.T) {
	req := require.New(t)

	for _, raw := range []string{
		`{"type":"join"}`,
		`{"type":"join","metadata":null}`,
	} {
		msg, err := Parse([]byte(raw))
		req.NoError(err)
		md, err := msg.(Join).DecodeMetadata()
		req.NoError(err, raw)
		req.NotNil(md)
		req.Empty(md)
	}

	msg, err := Parse([]byte(`{"type":"join","metadata":"nope"}`))
	req.NoError(err)
	_, err = msg.(Join).DecodeMetadata()
	req.Error(err)
}

func TestParse_JoinWithMissingFieldsIsNotAParseError(t *testing.T) {
	msg, err := Parse([]byte(`{"type":"join","roomId":"R1"}`))
	require.NoError(t, err)
	require.Equal(t, TypeJoin, msg.Type())
}

func TestParse_NegotiationKeepsPayloadAndStripsTarget(t *testing.T) {
	req := require.New(t)

	msg, err := Parse([]byte(`{"type":"offer","targetUserId":"pat1","sdp":{"type":"offer","sdp":"v=0"},"extra":[1,2]}`))
	req.NoError(err)

	n, ok := msg.(Negotiation)
	req.True(ok)
	req.Equal(TypeOffer, n.Type())
	req.Equal(domain.UserID("pat1"), n.TargetUserID)
	req.NotContains(n.Payload, "targetUserId")
	req.JSONEq(`{"type":"offer","sdp":"v=0"}`, string(n.Payload["sdp"]))
	req.JSONEq(`[1,2]`, string(n.Payload["extra"]))
	req.JSONEq(`"offer"`, string(n.Payload["type"]))
}

func TestParse_NegotiationKinds(t *testing.T) {
	for _, kind := range []MessageType{TypeOffer, TypeAnswer, TypeICECandidate} {
		msg, err := Parse([]byte(`{"type":"` + string(kind) + `","targetUserId":"x"}`))
		require.NoError(t, err)
		require.Equal(t, kind, msg.Type())
	}
}

func TestParse_RecordingFieldsAreOptional(t *testing.T) {
	msg, err := Parse([]byte(`{"type":"recording"}`))
	require.NoError(t, err)
	require.Equal(t, Recording{}, msg)

	msg, err = Parse([]byte(`{"type":"recording","action":"start","recordingId":"rec-1"}`))
	require.NoError(t, err)
	require.Equal(t, Recording{Action: "start", RecordingID: "rec-1"}, msg)
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want error
	}{
		{"not json", `{not json`, domain.ErrInvalidMessage},
		{"not an object", `[1,2,3]`, domain.ErrInvalidMessage},
		{"wrong field type", `{"type":"presence","status":5}`, domain.ErrInvalidMessage},
		{"missing type", `{"roomId":"R1"}`, domain.ErrUnknownType},
		{"non-string type", `{"type":5}`, domain.ErrUnknownType},
		{"null type", `{"type":null}`, domain.ErrUnknownType},
		{"unknown type", `{"type":"teleport"}`, domain.ErrUnknownType},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.in))
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestParse_ChatKeepsStructuredBody(t *testing.T) {
	msg, err := Parse([]byte(`{"type":"chat","message":{"text":"hi","mentions":["pat1"]}}`))
	require.NoError(t, err)
	require.JSONEq(t, `{"text":"hi","mentions":["pat1"]}`, string(msg.(Chat).Message))
}

func TestRelayed_AddsSenderAndTimestamp(t *testing.T) {
	req := require.New(t)

	msg, err := Parse([]byte(`{"type":"ice-candidate","targetUserId":"pat1","candidate":{"candidate":"a=1","sdpMid":"0"}}`))
	req.NoError(err)

	at := time.Date(2026, 1, 2, 3, 4, 5, 6_000_000, time.UTC)
	out, err := Relayed(msg.(Negotiation), "doc1", at)
	req.NoError(err)

	b, err := json.Marshal(out)
	req.NoError(err)
	req.JSONEq(`{
		"type":"ice-candidate",
		"candidate":{"candidate":"a=1","sdpMid":"0"},
		"fromUserId":"doc1",
		"timestamp":"2026-01-02T03:04:05.006Z"
	}`, string(b))
}

func TestNewError_UsesWireCode(t *testing.T) {
	e := NewError(domain.ErrUnauthorized, time.Now())
	require.Equal(t, TypeError, e.Type)
	require.Equal(t, domain.CodeUnauthorized, e.Code)
	require.NotEmpty(t, e.Message)
}
