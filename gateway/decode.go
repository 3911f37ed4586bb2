package gateway

import (
	"fmt"

	"github.com/goccy/go-json"
)

// DecodeErrorKind classifies why a frame failed to decode.
type DecodeErrorKind int

const (
	DecodeMalformed DecodeErrorKind = iota
	DecodeUnknownOpcode
	DecodeSchemaMismatch
)

func (k DecodeErrorKind) String() string {
	switch k {
	case DecodeMalformed:
		return "malformed"
	case DecodeUnknownOpcode:
		return "unknown-opcode"
	case DecodeSchemaMismatch:
		return "schema-mismatch"
	default:
		return "unknown"
	}
}

// DecodeError reports a frame that failed to decode into a known shape. Raw
// carries the offending JSON text for diagnostics.
type DecodeError struct {
	Kind DecodeErrorKind
	Raw  string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("gateway: decode %s: %v", e.Kind, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

type rawFrame struct {
	Op   Opcode          `json:"op"`
	Seq  *uint64         `json:"s"`
	Type *string         `json:"t"`
	Data json.RawMessage `json:"d"`
}

// decodedFrame is the result of decoding one text frame: the opcode plus
// whichever typed payload applies to it.
type decodedFrame struct {
	Op            Opcode
	Seq           *uint64
	EventName     string
	DispatchRaw   json.RawMessage
	Hello         *helloPayload
	InvalidSession *invalidSessionPayload
}

type helloPayload struct {
	HeartbeatInterval int `json:"heartbeat_interval"`
}

type invalidSessionPayload struct {
	Resumable bool
}

func (p *invalidSessionPayload) UnmarshalJSON(b []byte) error {
	var resumable bool
	if err := json.Unmarshal(b, &resumable); err != nil {
		return err
	}
	p.Resumable = resumable
	return nil
}

func decodeFrame(text string) (*decodedFrame, error) {
	var raw rawFrame
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, &DecodeError{Kind: DecodeMalformed, Raw: text, Err: err}
	}
	if !isKnownOpcode(raw.Op) {
		return nil, &DecodeError{Kind: DecodeUnknownOpcode, Raw: text, Err: fmt.Errorf("unknown opcode %d", raw.Op)}
	}

	d := &decodedFrame{Op: raw.Op, Seq: raw.Seq}

	switch raw.Op {
	case OpHello:
		h := new(helloPayload)
		if err := json.Unmarshal(raw.Data, h); err != nil {
			return nil, &DecodeError{Kind: DecodeSchemaMismatch, Raw: text, Err: err}
		}
		d.Hello = h

	case OpInvalidSession:
		inv := new(invalidSessionPayload)
		if err := json.Unmarshal(raw.Data, inv); err != nil {
			return nil, &DecodeError{Kind: DecodeSchemaMismatch, Raw: text, Err: err}
		}
		d.InvalidSession = inv

	case OpDispatch:
		if raw.Type == nil {
			return nil, &DecodeError{Kind: DecodeSchemaMismatch, Raw: text, Err: fmt.Errorf("dispatch frame missing event name")}
		}
		d.EventName = *raw.Type
		d.DispatchRaw = raw.Data
	}

	return d, nil
}

func marshalOutbound(op Opcode, data any) ([]byte, error) {
	return json.Marshal(outboundFrame{Op: op, Data: data})
}
