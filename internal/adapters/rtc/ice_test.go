package rtc

import (
	"testing"

	"github.com/dkeye/Signal/internal/config"
	"github.com/stretchr/testify/require"
)

func TestICEServers_DefaultsWhenEmpty(t *testing.T) {
	got, err := ICEServers(nil)
	require.NoError(t, err)
	require.Equal(t, DefaultICEServers(), got)
}

func TestICEServers_ConvertsTurnWithCredentials(t *testing.T) {
	req := require.New(t)

	got, err := ICEServers([]config.ICEServer{
		{URLs: []string{"stun:stun.example.org:3478"}},
		{URLs: []string{"turn:turn.example.org:3478?transport=udp"}, Username: "u", Credential: "p"},
	})
	req.NoError(err)
	req.Len(got, 2)
	req.Empty(got[0].Username)
	req.Nil(got[0].Credential)
	req.Equal("u", got[1].Username)
	req.Equal("p", got[1].Credential)
}

func TestICEServers_RejectsBadInput(t *testing.T) {
	cases := [][]config.ICEServer{
		{{}},
		{{URLs: []string{"http://not-ice"}}},
		{{URLs: []string{"turn:turn.example.org"}}},
	}
	for _, in := range cases {
		_, err := ICEServers(in)
		require.Error(t, err, "%+v", in)
	}
}
