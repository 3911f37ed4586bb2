package gateway

import (
	"context"
	"testing"

	"github.com/coder/websocket"
)

func TestEnvelopeWriteText(t *testing.T) {
	conn := newFakeConn()
	env := newTextEnvelope(`{"op":1,"d":null}`)
	if err := env.writeTo(context.Background(), conn); err != nil {
		t.Fatalf("writeTo returned error: %v", err)
	}

	select {
	case data := <-conn.writes:
		if string(data) != `{"op":1,"d":null}` {
			t.Errorf("wrote %s, want the envelope text verbatim", data)
		}
	default:
		t.Fatal("text envelope produced no write")
	}
}

func TestEnvelopeWriteClose(t *testing.T) {
	conn := newFakeConn()
	frame := CloseFrame{Code: 4000, Reason: "resuming"}
	if err := newCloseEnvelope(&frame).writeTo(context.Background(), conn); err != nil {
		t.Fatalf("writeTo returned error: %v", err)
	}

	select {
	case cf := <-conn.closes:
		if cf != frame {
			t.Errorf("closed with %+v, want %+v", cf, frame)
		}
	default:
		t.Fatal("close envelope produced no close")
	}
}

func TestEnvelopeWriteBareClose(t *testing.T) {
	conn := newFakeConn()
	if err := newCloseEnvelope(nil).writeTo(context.Background(), conn); err != nil {
		t.Fatalf("writeTo returned error: %v", err)
	}

	select {
	case cf := <-conn.closes:
		if cf.Code != uint16(websocket.StatusNormalClosure) {
			t.Errorf("bare close used code %d, want normal closure", cf.Code)
		}
	default:
		t.Fatal("bare close envelope produced no close")
	}
}

func TestCloseFrameFromError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantFrame  CloseFrame
		wantNoCode bool
		wantClose  bool
	}{
		{
			name:      "close with code",
			err:       websocket.CloseError{Code: 4004, Reason: "Authentication failed"},
			wantFrame: CloseFrame{Code: 4004, Reason: "Authentication failed"},
			wantClose: true,
		},
		{
			name:       "no status close",
			err:        websocket.CloseError{Code: websocket.StatusNoStatusRcvd},
			wantNoCode: true,
			wantClose:  true,
		},
		{
			name:      "plain transport error",
			err:       context.DeadlineExceeded,
			wantClose: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, noStatus, isClose := closeFrameFromError(tt.err)
			if isClose != tt.wantClose {
				t.Fatalf("isClose = %v, want %v", isClose, tt.wantClose)
			}
			if !tt.wantClose {
				return
			}
			if noStatus != tt.wantNoCode {
				t.Errorf("noStatus = %v, want %v", noStatus, tt.wantNoCode)
			}
			if !tt.wantNoCode && frame != tt.wantFrame {
				t.Errorf("frame = %+v, want %+v", frame, tt.wantFrame)
			}
		})
	}
}
