package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/coder/websocket"
)

// EnvelopeKind distinguishes the shapes an Envelope can take.
type EnvelopeKind int

const (
	EnvelopeText EnvelopeKind = iota
	EnvelopeClose
)

// Envelope is a normalized inbound or outbound WebSocket frame. Binary, ping
// and pong frames never surface as an Envelope; coder/websocket answers pings
// internally and this package treats binary frames as noise to be dropped.
type Envelope struct {
	Kind EnvelopeKind
	Text string

	// Close is nil for a "no status" close (WebSocket code 1005) and
	// populated otherwise. Only meaningful when Kind == EnvelopeClose.
	Close *CloseFrame
}

// AbnormalCloseFrame is the synthetic close surfaced to callers when the
// transport fails without a close handshake (WebSocket code 1006, which is
// never sent on the wire).
var AbnormalCloseFrame = CloseFrame{Code: 1006}

func newTextEnvelope(text string) Envelope {
	return Envelope{Kind: EnvelopeText, Text: text}
}

func newCloseEnvelope(frame *CloseFrame) Envelope {
	return Envelope{Kind: EnvelopeClose, Close: frame}
}

func (e Envelope) writeTo(ctx context.Context, conn Conn) error {
	switch e.Kind {
	case EnvelopeText:
		return conn.Write(ctx, websocket.MessageText, []byte(e.Text))
	case EnvelopeClose:
		if e.Close == nil {
			return conn.Close(websocket.StatusNormalClosure, "")
		}
		return conn.Close(websocket.StatusCode(e.Close.Code), e.Close.Reason)
	default:
		return fmt.Errorf("gateway: cannot write envelope of kind %d", e.Kind)
	}
}

// closeFrameFromError extracts a CloseFrame from a read error, if the error
// represents a peer-initiated close rather than a transport failure.
func closeFrameFromError(err error) (CloseFrame, bool, bool) {
	var ce websocket.CloseError
	if !errors.As(err, &ce) {
		return CloseFrame{}, false, false
	}
	if ce.Code == websocket.StatusNoStatusRcvd {
		return CloseFrame{}, true, true
	}
	return CloseFrame{Code: uint16(ce.Code), Reason: ce.Reason}, false, true
}
