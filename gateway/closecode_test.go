package gateway

import "testing"

func TestClassifyClose(t *testing.T) {
	tests := []struct {
		code int
		want CloseClass
	}{
		{CloseUnknownError, CloseResumable},
		{CloseUnknownOpcode, CloseResumable},
		{CloseDecodeError, CloseResumable},
		{CloseNotAuthenticated, CloseResumable},
		{CloseAuthenticationFailed, CloseFatal},
		{CloseAlreadyAuthenticated, CloseResumable},
		{CloseInvalidSeq, CloseResumable},
		{CloseRateLimited, CloseResumable},
		{CloseSessionTimedOut, CloseResumable},
		{CloseInvalidShard, CloseFatal},
		{CloseShardingRequired, CloseFatal},
		{CloseInvalidAPIVersion, CloseFatal},
		{CloseInvalidIntents, CloseFatal},
		{CloseDisallowedIntents, CloseFatal},
		{4006, CloseUnknown},
		{4999, CloseUnknown},
		{1000, CloseUnknown},
		{1006, CloseUnknown},
		{0, CloseUnknown},
	}

	for _, tt := range tests {
		if got := ClassifyClose(tt.code); got != tt.want {
			t.Errorf("ClassifyClose(%d) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestCanReconnect(t *testing.T) {
	tests := []struct {
		class CloseClass
		want  bool
	}{
		{CloseResumable, true},
		{CloseUnknown, true},
		{CloseFatal, false},
	}

	for _, tt := range tests {
		if got := CanReconnect(tt.class); got != tt.want {
			t.Errorf("CanReconnect(%v) = %v, want %v", tt.class, got, tt.want)
		}
	}
}

func TestResumeCloseFrame(t *testing.T) {
	if ResumeCloseFrame.Code != 4000 {
		t.Errorf("ResumeCloseFrame.Code = %d, want 4000", ResumeCloseFrame.Code)
	}
	if ResumeCloseFrame.Reason != "" {
		t.Errorf("ResumeCloseFrame.Reason = %q, want empty", ResumeCloseFrame.Reason)
	}
}
