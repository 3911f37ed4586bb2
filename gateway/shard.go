package gateway

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"
)

// ShardID identifies a shard's position in a multi-shard deployment.
type ShardID struct {
	Number int
	Total  int
}

// State is the coarse lifecycle state of a Shard.
type State int

const (
	StateDisconnected State = iota
	StateIdentifying
	StateResuming
	StateActive
	StateFatallyClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateIdentifying:
		return "identifying"
	case StateResuming:
		return "resuming"
	case StateActive:
		return "active"
	case StateFatallyClosed:
		return "fatally_closed"
	default:
		return "unknown"
	}
}

// ErrShardClosed is returned by NextEvent once the shard has fatally closed
// or been explicitly closed by the caller; every call after that point
// returns it again, since a closed channel is always safe to receive from.
var ErrShardClosed = fmt.Errorf("gateway: shard closed")

type eventResult struct {
	event Event
	err   error
}

// Shard drives a single Gateway connection's handshake, heartbeat, resume
// and reconnect lifecycle. All protocol state is owned exclusively by one
// internal goroutine; Shard's exported methods only ever touch it through
// a mutex-guarded snapshot or the output channel.
type Shard struct {
	token          string
	id             ShardID
	intents        uint64
	dialer         Dialer
	defaultURL     string
	apiVersion     int
	largeThreshold int
	logger         zerolog.Logger

	runCtx    context.Context
	runCancel context.CancelFunc
	out       chan eventResult
	startOnce sync.Once
	closeOnce sync.Once

	mu                sync.Mutex
	state             State
	reconnectAttempts int
	session           *Session
	resumeURL         string
}

// ShardOption customizes a Shard at construction time.
type ShardOption func(*Shard)

// WithLogger injects a structured logger. The default is a disabled logger,
// never a package-global, so embedding applications control their own log
// destination and level.
func WithLogger(l zerolog.Logger) ShardOption {
	return func(s *Shard) { s.logger = l }
}

// WithDefaultGatewayURL overrides the URL used when no resume URL is known.
func WithDefaultGatewayURL(url string) ShardOption {
	return func(s *Shard) { s.defaultURL = url }
}

// WithAPIVersion overrides the gateway API version query parameter.
func WithAPIVersion(v int) ShardOption {
	return func(s *Shard) { s.apiVersion = v }
}

// WithLargeThreshold overrides the large_threshold sent with Identify.
func WithLargeThreshold(n int) ShardOption {
	return func(s *Shard) {
		if n > maxLargeThreshold {
			n = maxLargeThreshold
		}
		s.largeThreshold = n
	}
}

// WithDialer overrides how connections are opened; primarily for tests.
func WithDialer(d Dialer) ShardOption {
	return func(s *Shard) { s.dialer = d }
}

// WithInitialSession seeds the shard with a session recovered from an
// earlier process (see the session store adapters), so the first connection
// attempts a Resume instead of a fresh Identify. resumeURL may be empty, in
// which case the default gateway URL is used.
func WithInitialSession(sessionID string, seq uint64, resumeURL string) ShardOption {
	return func(s *Shard) {
		if sessionID == "" {
			return
		}
		s.session = NewSession(sessionID, seq)
		s.resumeURL = resumeURL
	}
}

// New constructs a Shard. It does not connect until NextEvent is first
// called.
func New(token string, id ShardID, intents uint64, opts ...ShardOption) *Shard {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Shard{
		token:          token,
		id:             id,
		intents:        intents,
		dialer:         websocketDialer{},
		defaultURL:     DefaultGatewayURL,
		apiVersion:     APIVersion,
		largeThreshold: maxLargeThreshold,
		logger:         zerolog.Nop(),
		runCtx:         ctx,
		runCancel:      cancel,
		out:            make(chan eventResult),
		state:          StateDisconnected,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the shard's position.
func (s *Shard) ID() ShardID { return s.id }

// State returns the shard's current lifecycle state.
func (s *Shard) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SessionSnapshot returns the current session id and sequence, if any.
func (s *Shard) SessionSnapshot() (sessionID string, seq uint64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return "", 0, false
	}
	return s.session.ID(), s.session.Sequence(), true
}

// ResumeURL returns the gateway-preferred URL for the next reconnect, or
// empty if no session has supplied one.
func (s *Shard) ResumeURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resumeURL
}

// ReconnectAttempts returns the number of consecutive failed connect
// attempts since the last successful connection.
func (s *Shard) ReconnectAttempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reconnectAttempts
}

func (s *Shard) getState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Shard) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// NextEvent returns the next event this shard produces, starting the
// internal connection loop on first call. It blocks until an event is
// available, ctx is done, or the shard closes. Once the shard closes, every
// subsequent call returns ErrShardClosed.
func (s *Shard) NextEvent(ctx context.Context) (Event, error) {
	s.startOnce.Do(func() { go s.run() })
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r, ok := <-s.out:
		if !ok {
			return nil, ErrShardClosed
		}
		return r.event, r.err
	}
}

// Close stops the shard: any in-flight connect, read or write is cancelled,
// a best-effort close frame is sent if a connection is open, and the run
// loop exits, after which NextEvent returns ErrShardClosed. State is left
// as it was. Close is idempotent.
func (s *Shard) Close() error {
	s.closeOnce.Do(s.runCancel)
	return nil
}

// emit delivers an event or error to the consumer, blocking until NextEvent
// receives it or the shard is closed. Because out is unbuffered, this is
// exactly the backpressure point that ties reconnect pacing to the caller's
// poll rate: the loop cannot begin its next attempt until this one has been
// observed.
func (s *Shard) emit(ev Event, err error) bool {
	select {
	case s.out <- eventResult{event: ev, err: err}:
		return true
	case <-s.runCtx.Done():
		return false
	}
}

func (s *Shard) connectURL() string {
	s.mu.Lock()
	base := s.resumeURL
	s.mu.Unlock()
	if base == "" {
		base = s.defaultURL
	}
	return fmt.Sprintf("%s/?v=%d&encoding=json", strings.TrimSuffix(base, "/"), s.apiVersion)
}

func (s *Shard) hasResumableSession() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session != nil
}

func (s *Shard) identifyPayload() IdentifyPayload {
	return IdentifyPayload{
		Token:          s.token,
		Properties:     defaultIdentifyProperties(),
		LargeThreshold: s.largeThreshold,
		Shard:          [2]int{s.id.Number, s.id.Total},
		Intents:        s.intents,
	}
}

func (s *Shard) resumePayload() ResumePayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ResumePayload{Token: s.token, SessionID: s.session.ID(), Seq: s.session.Sequence()}
}

func (s *Shard) heartbeatData() *uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	seq := s.session.Sequence()
	return &seq
}

// run is the single goroutine that owns the connection, the pending-outbound
// write, the heartbeat timer and the session for this shard's entire
// lifetime. Nothing else ever mutates these.
func (s *Shard) run() {
	defer close(s.out)

	var conn Conn
	var connCancel context.CancelFunc
	var readCh <-chan readResult
	var heartbeatTimer *time.Timer
	var tickerC <-chan time.Time
	var heartbeatInterval time.Duration
	ackPending := false
	identified := false

	defer func() {
		if conn != nil {
			_ = conn.Close(websocket.StatusNormalClosure, "")
		}
	}()

	cleanup := func(next State, resetAttempts bool) {
		if conn != nil {
			_ = conn.Close(websocket.StatusNormalClosure, "")
			conn = nil
		}
		if connCancel != nil {
			connCancel()
			connCancel = nil
		}
		if heartbeatTimer != nil {
			heartbeatTimer.Stop()
			heartbeatTimer = nil
		}
		tickerC = nil
		heartbeatInterval = 0
		readCh = nil
		identified = false
		ackPending = false
		s.mu.Lock()
		s.state = next
		if resetAttempts {
			s.reconnectAttempts = 0
		}
		s.mu.Unlock()
	}

	for {
		if s.getState() == StateFatallyClosed {
			if conn != nil {
				_ = conn.Close(websocket.StatusNormalClosure, "")
			}
			return
		}

		if conn == nil {
			correlationID := newCorrelationID()
			url := s.connectURL()
			log := s.connLogger(correlationID)

			c, err := s.dialer.Dial(s.runCtx, url)
			if err != nil {
				s.mu.Lock()
				s.reconnectAttempts++
				attempt := s.reconnectAttempts
				s.resumeURL = ""
				s.mu.Unlock()
				log.Warn().Err(err).Int("attempt", attempt).Msg("gateway dial failed")
				if !s.emit(nil, &ReconnectError{Attempt: attempt, Cause: err}) {
					return
				}
				select {
				case <-s.runCtx.Done():
					return
				default:
				}
				continue
			}

			log.Info().Msg("gateway connected")
			conn = c
			connCtx, cancel := context.WithCancel(s.runCtx)
			connCancel = cancel
			readCh = startReader(connCtx, conn)
			s.mu.Lock()
			s.reconnectAttempts = 0
			s.state = StateIdentifying
			s.mu.Unlock()
			continue
		}

		select {
		case <-s.runCtx.Done():
			return

		case <-tickerC:
			if ackPending {
				frame := ResumeCloseFrame
				_ = newCloseEnvelope(&frame).writeTo(s.runCtx, conn)
				cleanup(StateDisconnected, true)
				continue
			}
			data, _ := marshalOutbound(OpHeartbeat, s.heartbeatData())
			if err := newTextEnvelope(string(data)).writeTo(s.runCtx, conn); err != nil {
				if !s.emit(abnormalClose, nil) {
					return
				}
				cleanup(StateDisconnected, true)
				continue
			}
			ackPending = true
			heartbeatTimer.Reset(heartbeatInterval)

		case res, ok := <-readCh:
			if !ok {
				// Reader exited after its terminal result was consumed;
				// stop selecting on the closed channel.
				readCh = nil
				continue
			}

			switch {
			case res.err != nil:
				if !s.emit(abnormalClose, nil) {
					return
				}
				cleanup(StateDisconnected, true)
				continue

			case res.closed:
				var frame *CloseFrame
				class := CloseResumable
				if res.hasCloseCode {
					frame = &CloseFrame{Code: res.closeCode, Reason: res.closeReason}
					class = ClassifyClose(int(res.closeCode))
				}
				if !s.emit(GatewayCloseEvent{Frame: frame}, nil) {
					return
				}
				if class == CloseFatal {
					cleanup(StateFatallyClosed, false)
				} else {
					cleanup(StateDisconnected, true)
				}
				continue
			}

			outcome := s.processFrame(res.text)

			if outcome.deserErr != nil {
				if !s.emit(nil, outcome.deserErr) {
					return
				}
			}
			if outcome.event != nil {
				if !s.emit(outcome.event, nil) {
					return
				}
			}

			if outcome.helloInterval != nil && !identified {
				heartbeatInterval = *outcome.helloInterval
				heartbeatTimer = time.NewTimer(uniformJitter(heartbeatInterval))
				tickerC = heartbeatTimer.C

				var payload []byte
				var err error
				if s.hasResumableSession() {
					payload, err = marshalOutbound(OpResume, s.resumePayload())
					s.setState(StateResuming)
				} else {
					payload, err = marshalOutbound(OpIdentify, s.identifyPayload())
					s.setState(StateIdentifying)
				}
				if err == nil {
					err = newTextEnvelope(string(payload)).writeTo(s.runCtx, conn)
				}
				if err != nil {
					if !s.emit(abnormalClose, nil) {
						return
					}
					cleanup(StateDisconnected, true)
					continue
				}
				identified = true
				continue
			}

			if outcome.dropSession {
				s.mu.Lock()
				s.session = nil
				s.resumeURL = ""
				s.mu.Unlock()
			}

			if outcome.selfClose != nil {
				_ = newCloseEnvelope(outcome.selfClose).writeTo(s.runCtx, conn)
				cleanup(StateDisconnected, true)
				continue
			}

			if outcome.sendHeartbeatNow {
				data, _ := marshalOutbound(OpHeartbeat, s.heartbeatData())
				if err := newTextEnvelope(string(data)).writeTo(s.runCtx, conn); err != nil {
					if !s.emit(abnormalClose, nil) {
						return
					}
					cleanup(StateDisconnected, true)
					continue
				}
				ackPending = true
				if heartbeatTimer != nil {
					heartbeatTimer.Reset(heartbeatInterval)
				}
			}

			if outcome.ackReceived {
				ackPending = false
			}
		}
	}
}
