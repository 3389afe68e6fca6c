package session

import "testing"

func TestStatusString(t *testing.T) {
	cases := []struct {
		status Status
		want   string
	}{
		{StatusIdle, "Idle"},
		{StatusLoading, "Loading"},
		{StatusPlaying, "Playing"},
		{StatusPaused, "Paused"},
		{Status(99), "Unknown"},
	}
	for _, tc := range cases {
		if got := tc.status.String(); got != tc.want {
			t.Errorf("Status(%d).String() = %q, want %q", tc.status, got, tc.want)
		}
	}
}

func TestStatusIsActive(t *testing.T) {
	if StatusIdle.IsActive() || StatusLoading.IsActive() {
		t.Error("idle/loading must not be active")
	}
	if !StatusPlaying.IsActive() || !StatusPaused.IsActive() {
		t.Error("playing/paused must be active")
	}
}
