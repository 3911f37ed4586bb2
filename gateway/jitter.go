package gateway

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

// uniformJitter returns a random duration in [0, max). Used to stagger the
// first heartbeat tick after Hello so that many shards connecting at once
// don't all beat in lockstep.
func uniformJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0
	}
	randUint := binary.BigEndian.Uint64(buf[:])
	randFloat := float64(randUint>>11) / (1 << 53)
	return time.Duration(randFloat * float64(max))
}
