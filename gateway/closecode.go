package gateway

// CloseClass is the outcome of classifying a Gateway close code.
type CloseClass int

const (
	CloseResumable CloseClass = iota
	CloseFatal
	CloseUnknown
)

// Gateway close codes.
// See: https://discord.com/developers/docs/topics/opcodes-and-status-codes#gateway-close-event-codes
const (
	CloseUnknownError         = 4000
	CloseUnknownOpcode        = 4001
	CloseDecodeError          = 4002
	CloseNotAuthenticated     = 4003
	CloseAuthenticationFailed = 4004 // fatal
	CloseAlreadyAuthenticated = 4005
	CloseInvalidSeq           = 4007
	CloseRateLimited          = 4008
	CloseSessionTimedOut      = 4009
	CloseInvalidShard         = 4010 // fatal
	CloseShardingRequired     = 4011 // fatal
	CloseInvalidAPIVersion    = 4012 // fatal
	CloseInvalidIntents       = 4013 // fatal
	CloseDisallowedIntents    = 4014 // fatal
)

var resumableCloseCodes = map[int]bool{
	CloseUnknownError:         true,
	CloseUnknownOpcode:        true,
	CloseDecodeError:          true,
	CloseNotAuthenticated:     true,
	CloseAlreadyAuthenticated: true,
	CloseInvalidSeq:           true,
	CloseRateLimited:          true,
	CloseSessionTimedOut:      true,
}

var fatalCloseCodes = map[int]bool{
	CloseAuthenticationFailed: true,
	CloseInvalidShard:         true,
	CloseShardingRequired:     true,
	CloseInvalidAPIVersion:    true,
	CloseInvalidIntents:       true,
	CloseDisallowedIntents:    true,
}

// ClassifyClose buckets a close code as Resumable, Fatal, or Unknown. Codes
// outside the 4000-4999 band and any code inside it that isn't explicitly
// listed both classify as Unknown.
func ClassifyClose(code int) CloseClass {
	switch {
	case fatalCloseCodes[code]:
		return CloseFatal
	case resumableCloseCodes[code]:
		return CloseResumable
	default:
		return CloseUnknown
	}
}

// CanReconnect reports whether a shard should attempt to reconnect after
// observing this close class. Unknown is treated as Resumable.
func CanReconnect(class CloseClass) bool {
	return class != CloseFatal
}

// CloseFrame is a close event: either a protocol close code with a reason, or
// "no status" (WebSocket close code 1005) when the peer closed without one.
type CloseFrame struct {
	Code   uint16
	Reason string
}

// ResumeCloseFrame is the frame the shard sends when it voluntarily drops the
// connection in order to reconnect and resume.
var ResumeCloseFrame = CloseFrame{Code: CloseUnknownError}
