package gateway

import (
	"context"

	"github.com/coder/websocket"
)

// readResult is one outcome of a blocking Conn.Read, normalized so the
// owning goroutine can select over it alongside the heartbeat timer and its
// own shutdown signal without holding any protocol state itself.
type readResult struct {
	text string

	closed       bool // a close frame (or "no status") was observed
	hasCloseCode bool
	closeCode    uint16
	closeReason  string

	err error // a genuine transport error, distinct from a close
}

// startReader spawns the subordinate goroutine that turns blocking reads
// into channel values, one per inbound frame, until it produces a terminal
// result (close or error) or ctx is cancelled. ctx must be scoped to the
// connection, not the shard, so a reconnect reliably reaps the old reader.
// The goroutine holds no session or connection state of its own beyond the
// closed-over conn and ctx, preserving the single-owner invariant for
// everything else on Shard.
func startReader(ctx context.Context, conn Conn) <-chan readResult {
	ch := make(chan readResult, 1)
	go func() {
		defer close(ch)
		for {
			mt, data, err := conn.Read(ctx)

			var res readResult
			terminal := false
			switch {
			case err != nil:
				terminal = true
				if cf, noStatus, isClose := closeFrameFromError(err); isClose {
					res = readResult{closed: true, hasCloseCode: !noStatus, closeCode: cf.Code, closeReason: cf.Reason}
				} else {
					res = readResult{err: err}
				}
			case mt == websocket.MessageText:
				res = readResult{text: string(data)}
			default:
				// Binary frames are dropped per the envelope contract;
				// keep reading for the next frame instead of surfacing
				// anything for this one.
				continue
			}

			select {
			case ch <- res:
			case <-ctx.Done():
				return
			}
			if terminal {
				return
			}
		}
	}()
	return ch
}
