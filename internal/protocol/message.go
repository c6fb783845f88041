// Package protocol defines the signaling wire format: one JSON message per
// WebSocket text frame, a single envelope with optional fields per type.
// Unknown fields are ignored on decode.
package protocol

import (
	"encoding/json"

	"github.com/pion/webrtc/v4"

	"github.com/dkeye/ProximityVoice/internal/domain"
)

const (
	TypeJoin         = "join"
	TypeJoined       = "joined"
	TypeError        = "error"
	TypeUserJoined   = "user-joined"
	TypeUpdateVolume = "update-volume"
	TypeUserLeft     = "user-left"
	TypeOffer        = "offer"
	TypeAnswer       = "answer"
	TypeICECandidate = "ice-candidate"
	TypeLeave        = "leave"
)

type Message struct {
	Type            string           `json:"type"`
	SessionID       domain.SessionID `json:"sessionId,omitempty"`
	TargetSessionID domain.SessionID `json:"targetSessionId,omitempty"`
	FromSessionID   domain.SessionID `json:"fromSessionId,omitempty"`
	FromUsername    string           `json:"fromUsername,omitempty"`
	Username        string           `json:"username,omitempty"`
	Message         string           `json:"message,omitempty"`
	ShouldInitiate  *bool            `json:"shouldInitiate,omitempty"`
	Volume          *float64         `json:"volume,omitempty"`

	Offer     *webrtc.SessionDescription `json:"offer,omitempty"`
	Answer    *webrtc.SessionDescription `json:"answer,omitempty"`
	Candidate *webrtc.ICECandidateInit   `json:"candidate,omitempty"`
}

// IsSignaling reports whether the message is a peer-to-peer negotiation
// payload that the relay forwards without interpreting.
func (m Message) IsSignaling() bool {
	switch m.Type {
	case TypeOffer, TypeAnswer, TypeICECandidate:
		return true
	}
	return false
}

func (m Message) Encode() ([]byte, error) { return json.Marshal(m) }

func Decode(data []byte) (Message, error) {
	var m Message
	err := json.Unmarshal(data, &m)
	return m, err
}

func Joined(username string) Message {
	return Message{Type: TypeJoined, Username: username}
}

func Error(text string) Message {
	return Message{Type: TypeError, Message: text}
}

func UserJoined(sid domain.SessionID, username string, shouldInitiate bool, volume float64) Message {
	return Message{
		Type:           TypeUserJoined,
		SessionID:      sid,
		Username:       username,
		ShouldInitiate: &shouldInitiate,
		Volume:         &volume,
	}
}

func UpdateVolume(sid domain.SessionID, volume float64) Message {
	return Message{Type: TypeUpdateVolume, SessionID: sid, Volume: &volume}
}

func UserLeft(sid domain.SessionID) Message {
	return Message{Type: TypeUserLeft, SessionID: sid}
}
