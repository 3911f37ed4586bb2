package gateway

import "github.com/goccy/go-json"

// Event is the type NextEvent yields. Concrete dispatch events implement
// this marker interface; Event bodies this package doesn't model by name
// surface as UnhandledEvent, carrying the raw payload through untouched.
// Serializing the full, open-world catalog of Discord domain objects
// (guilds, channels, users, interactions, ...) is out of scope for this
// package; callers that need a typed body for an event beyond Ready and
// Resumed decode UnhandledEvent.Raw themselves.
type Event interface {
	eventName() string
}

const (
	EventNameReady   = "READY"
	EventNameResumed = "RESUMED"
)

// ReadyEvent is dispatched once Identify (or Resume) succeeds on a fresh
// session.
type ReadyEvent struct {
	Version          int    `json:"v"`
	SessionID        string `json:"session_id"`
	ResumeGatewayURL string `json:"resume_gateway_url"`
}

func (ReadyEvent) eventName() string { return EventNameReady }

// ResumedEvent is dispatched when a Resume succeeds and replay has finished.
type ResumedEvent struct{}

func (ResumedEvent) eventName() string { return EventNameResumed }

// UnhandledEvent is yielded for any dispatch name this package has no typed
// variant for. Raw is the event's undecoded "d" payload.
type UnhandledEvent struct {
	Name string
	Raw  json.RawMessage
}

func (e UnhandledEvent) eventName() string { return e.Name }

// GatewayCloseEvent is a pseudo-event surfacing a close observed on the
// wire: a close frame sent by the gateway, AbnormalCloseFrame when the
// socket dropped without a close handshake, or nil for a "no status" close.
type GatewayCloseEvent struct {
	Frame *CloseFrame
}

func (GatewayCloseEvent) eventName() string { return "GATEWAY_CLOSE" }

// abnormalClose is yielded when the connection drops without a close frame
// (coder/websocket surfaces this as a plain I/O error, not a CloseError).
var abnormalClose = GatewayCloseEvent{Frame: &AbnormalCloseFrame}

type eventConstructor func(json.RawMessage) (Event, error)

var eventRegistry = map[string]eventConstructor{
	EventNameReady: func(raw json.RawMessage) (Event, error) {
		var ev ReadyEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, err
		}
		return ev, nil
	},
	EventNameResumed: func(json.RawMessage) (Event, error) {
		return ResumedEvent{}, nil
	},
}

func adaptDispatch(name string, raw json.RawMessage) (Event, error) {
	if ctor, ok := eventRegistry[name]; ok {
		return ctor(raw)
	}
	return UnhandledEvent{Name: name, Raw: raw}, nil
}
