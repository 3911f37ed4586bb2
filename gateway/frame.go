package gateway

import (
	"errors"
	"time"
)

// frameOutcome is what processing one inbound text frame implies for the
// run loop: an event/error to emit, and any side effect (start heartbeating,
// drop the session, self-close) the loop must carry out next.
type frameOutcome struct {
	event    Event
	deserErr *DeserializeError

	helloInterval *time.Duration

	sendHeartbeatNow bool
	ackReceived      bool

	dropSession bool
	selfClose   *CloseFrame
}

// processFrame interprets one decoded text frame and advances session
// bookkeeping (sequence number, Ready/Resumed session state). It never
// touches the connection or heartbeat timer directly; the caller (run) owns
// those and acts on the returned outcome.
func (s *Shard) processFrame(text string) frameOutcome {
	d, err := decodeFrame(text)
	if err != nil {
		return frameOutcome{deserErr: deserializeErrorFromDecode(err)}
	}

	if d.Seq != nil {
		s.mu.Lock()
		s.session.Advance(*d.Seq)
		s.mu.Unlock()
	}

	switch d.Op {
	case OpHello:
		iv := time.Duration(d.Hello.HeartbeatInterval) * time.Millisecond
		return frameOutcome{helloInterval: &iv}

	case OpDispatch:
		ev, err := adaptDispatch(d.EventName, d.DispatchRaw)
		if err != nil {
			return frameOutcome{deserErr: &DeserializeError{Event: d.EventName, Raw: string(d.DispatchRaw), Cause: err}}
		}
		switch d.EventName {
		case EventNameReady:
			ready, ok := ev.(ReadyEvent)
			if !ok {
				return frameOutcome{deserErr: &DeserializeError{Event: EventNameReady, Cause: errUnexpectedEventType}}
			}
			seq := uint64(0)
			if d.Seq != nil {
				seq = *d.Seq
			}
			s.mu.Lock()
			s.session = NewSession(ready.SessionID, seq)
			s.resumeURL = ready.ResumeGatewayURL
			s.state = StateActive
			s.mu.Unlock()
		case EventNameResumed:
			s.setState(StateActive)
		}
		return frameOutcome{event: ev}

	case OpHeartbeat:
		return frameOutcome{sendHeartbeatNow: true}

	case OpHeartbeatACK:
		return frameOutcome{ackReceived: true}

	case OpReconnect:
		frame := ResumeCloseFrame
		return frameOutcome{selfClose: &frame}

	case OpInvalidSession:
		frame := ResumeCloseFrame
		out := frameOutcome{selfClose: &frame}
		if d.InvalidSession != nil && !d.InvalidSession.Resumable {
			out.dropSession = true
		}
		return out
	}

	return frameOutcome{}
}

var errUnexpectedEventType = errors.New("gateway: decoded event had an unexpected concrete type")
