package gateway

import (
	"github.com/rs/xid"
	"github.com/rs/zerolog"
)

// Structured-logging field names, kept as constants so call sites stay
// consistent and grep-able across the package.
const (
	LogCtxShard       = "shard"
	LogCtxSession     = "session"
	LogCtxOpcode      = "opcode"
	LogCtxEvent       = "event"
	LogCtxCloseCode   = "close_code"
	LogCtxCorrelation = "corr_id"
)

// newCorrelationID returns a short, sortable id used to tie together the log
// lines produced by a single connection attempt.
func newCorrelationID() string {
	return xid.New().String()
}

func (s *Shard) connLogger(correlationID string) zerolog.Logger {
	return s.logger.With().
		Int(LogCtxShard, s.id.Number).
		Str(LogCtxCorrelation, correlationID).
		Logger()
}
