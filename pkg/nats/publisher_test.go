package nats

import "testing"

func TestRunSubject(t *testing.T) {
	tests := []struct {
		eventType string
		want      string
	}{
		{"run.created", "research.run.run.created"},
		{"step.started", "research.run.step.started"},
		{"final.answer.done", "research.run.final.answer.done"},
	}
	for _, tt := range tests {
		if got := runSubject(tt.eventType); got != tt.want {
			t.Errorf("runSubject(%q) = %q, want %q", tt.eventType, got, tt.want)
		}
	}
}
