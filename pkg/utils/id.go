package utils

import (
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"
)

const roomCodeChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const roomCodeLen = 6

// GenRoomCode generates a 6-character alphanumeric room code. Uppercase
// only so codes stay easy to read out loud and type on a phone.
func GenRoomCode() string {
	b := make([]byte, roomCodeLen)
	max := big.NewInt(int64(len(roomCodeChars)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			b[i] = roomCodeChars[0]
			continue
		}
		b[i] = roomCodeChars[n.Int64()]
	}
	return string(b)
}

// NewPlayerID returns a fresh player identifier, stable for the lifetime
// of the room the player belongs to.
func NewPlayerID() string {
	return uuid.NewString()
}
