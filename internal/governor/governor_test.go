// File path: internal/governor/governor_test.go
package governor

import (
	"errors"
	"testing"
)

func TestHealthyThresholds(t *testing.T) {
	cases := []struct {
		percent float64
		healthy bool
	}{
		{50, true},
		{75, true},
		{80, true},
		{85, true},
		{90, true},
		{95, true},
		{96, false},
		{99.9, false},
	}
	for _, tc := range cases {
		g := NewWithSampler(func() (float64, error) { return tc.percent, nil })
		if got := g.Healthy(); got != tc.healthy {
			t.Errorf("percent %.1f: healthy=%v, want %v", tc.percent, got, tc.healthy)
		}
	}
}

func TestHealthyFailsOpen(t *testing.T) {
	g := NewWithSampler(func() (float64, error) { return 0, errors.New("no proc") })
	if !g.Healthy() {
		t.Fatal("sampler error should fail open")
	}
	var nilGov *Governor
	if !nilGov.Healthy() {
		t.Fatal("nil governor should fail open")
	}
	if !NewWithSampler(nil).Healthy() {
		t.Fatal("nil sampler should fail open")
	}
}
