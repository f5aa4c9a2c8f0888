package platform

import "testing"

func TestDetect(t *testing.T) {
	tests := []struct {
		goos     string
		expected Mode
	}{
		{"windows", EventLoopDriven},
		{"linux", Direct},
		{"darwin", Direct},
		{"freebsd", Direct},
		{"", Direct},
	}

	for _, test := range tests {
		t.Run(test.goos, func(t *testing.T) {
			if got := detect(test.goos); got != test.expected {
				t.Errorf("detect(%q) = %v, want %v", test.goos, got, test.expected)
			}
		})
	}
}

func TestModeString(t *testing.T) {
	if got := EventLoopDriven.String(); got != "event-loop" {
		t.Errorf("expected %q, got %q", "event-loop", got)
	}
	if got := Direct.String(); got != "direct" {
		t.Errorf("expected %q, got %q", "direct", got)
	}
}
