package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeClientCandidate(t *testing.T) {
	raw := `{
		"type": "ice-candidate",
		"targetSessionId": "7b0c0b2d-9c3e-4a57-9f10-1f3a0a3d8a11",
		"candidate": {
			"candidate": "candidate:1 1 UDP 2122252543 192.168.1.5 50000 typ host",
			"sdpMid": "0",
			"sdpMLineIndex": 0
		},
		"someFutureField": true
	}`
	msg, err := Decode([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, TypeICECandidate, msg.Type)
	assert.True(t, msg.IsSignaling())
	require.NotNil(t, msg.Candidate)
	assert.Contains(t, msg.Candidate.Candidate, "typ host")
	require.NotNil(t, msg.Candidate.SDPMid)
	assert.Equal(t, "0", *msg.Candidate.SDPMid)
}

func TestEncodeOmitsAbsentFields(t *testing.T) {
	data, err := UserLeft("some-session").Encode()
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Equal(t, "user-left", fields["type"])
	assert.Equal(t, "some-session", fields["sessionId"])
	assert.NotContains(t, fields, "volume")
	assert.NotContains(t, fields, "shouldInitiate")
	assert.NotContains(t, fields, "offer")
}

func TestUserJoinedCarriesZeroVolume(t *testing.T) {
	data, err := UserJoined("sid", "steve", false, 0).Encode()
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Contains(t, fields, "volume", "pointer fields survive the zero value")
	assert.Contains(t, fields, "shouldInitiate")
}

func TestIsSignaling(t *testing.T) {
	assert.True(t, Message{Type: TypeOffer}.IsSignaling())
	assert.True(t, Message{Type: TypeAnswer}.IsSignaling())
	assert.True(t, Message{Type: TypeICECandidate}.IsSignaling())
	assert.False(t, Message{Type: TypeJoin}.IsSignaling())
	assert.False(t, Message{Type: TypeLeave}.IsSignaling())
}
