package gateway

import (
	"testing"
	"time"
)

func TestDefaultBackoff(t *testing.T) {
	tests := []struct {
		name         string
		attempt      int
		wantMinDelay time.Duration
		wantMaxDelay time.Duration
	}{
		{
			name:         "first attempt (0) should be around 1s",
			attempt:      0,
			wantMinDelay: 1 * time.Second,
			wantMaxDelay: 1500 * time.Millisecond,
		},
		{
			name:         "second attempt (1) should be around 2s",
			attempt:      1,
			wantMinDelay: 2 * time.Second,
			wantMaxDelay: 3 * time.Second,
		},
		{
			name:         "third attempt (2) should be around 4s",
			attempt:      2,
			wantMinDelay: 4 * time.Second,
			wantMaxDelay: 6 * time.Second,
		},
		{
			name:         "seventh attempt (6) should be capped at 60s",
			attempt:      6,
			wantMinDelay: 60 * time.Second,
			wantMaxDelay: 90 * time.Second,
		},
		{
			name:         "large attempt should still be capped at 60s",
			attempt:      100,
			wantMinDelay: 60 * time.Second,
			wantMaxDelay: 90 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 10; i++ {
				got := DefaultBackoff(tt.attempt)
				if got < tt.wantMinDelay {
					t.Errorf("DefaultBackoff(%d) = %v, want >= %v", tt.attempt, got, tt.wantMinDelay)
				}
				if got > tt.wantMaxDelay {
					t.Errorf("DefaultBackoff(%d) = %v, want <= %v", tt.attempt, got, tt.wantMaxDelay)
				}
			}
		})
	}
}

func TestDefaultBackoffJitterVariability(t *testing.T) {
	results := make(map[time.Duration]bool)
	for i := 0; i < 100; i++ {
		delay := DefaultBackoff(2)
		results[delay] = true
	}
	if len(results) < 5 {
		t.Errorf("expected jitter to produce at least 5 unique values, got %d", len(results))
	}
}

func TestUniformJitter(t *testing.T) {
	max := 40 * time.Millisecond
	for i := 0; i < 100; i++ {
		got := uniformJitter(max)
		if got < 0 || got >= max {
			t.Fatalf("uniformJitter(%v) = %v, want in [0, %v)", max, got, max)
		}
	}
}

func TestUniformJitterZero(t *testing.T) {
	if got := uniformJitter(0); got != 0 {
		t.Errorf("uniformJitter(0) = %v, want 0", got)
	}
	if got := uniformJitter(-time.Second); got != 0 {
		t.Errorf("uniformJitter(negative) = %v, want 0", got)
	}
}
