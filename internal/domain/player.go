// Package domain contains entities without logic, just meta-data
package domain

import "errors"

const MaxPlayerNameLen = 36

var (
	ErrNameEmpty   = errors.New("player name empty")
	ErrNameTooLong = errors.New("player name too long")
)

// PlayerID is the in-world identity of a player, distinct from the voice
// SessionID issued for it.
type PlayerID string

// ValidatePlayerName checks the display name snapshotted at registration.
func ValidatePlayerName(name string) error {
	if len(name) == 0 {
		return ErrNameEmpty
	}
	if len(name) > MaxPlayerNameLen {
		return ErrNameTooLong
	}
	return nil
}
