package internal

import (
	"testing"
)

// recordingPublisher captures publisher calls for inspection.
type recordingPublisher struct {
	published  [][]StreamStep
	clears     int
	transcript []MessageWithSteps
}

func (p *recordingPublisher) PublishSteps(steps []StreamStep) {
	p.published = append(p.published, steps)
}

func (p *recordingPublisher) ClearSteps() {
	p.clears++
}

func (p *recordingPublisher) AppendMessage(msg MessageWithSteps) {
	p.transcript = append(p.transcript, msg)
}

func TestStartTurnRejectsConcurrentTurn(t *testing.T) {
	pub := &recordingPublisher{}
	acc := NewTurnAccumulator(pub)

	id, err := acc.StartTurn()
	if err != nil {
		t.Fatalf("StartTurn() error = %v", err)
	}
	if id == "" {
		t.Error("StartTurn() returned empty turn ID")
	}

	if _, err := acc.StartTurn(); err != ErrTurnInFlight {
		t.Errorf("second StartTurn() error = %v, want ErrTurnInFlight", err)
	}

	acc.EndTurn()
	id2, err := acc.StartTurn()
	if err != nil {
		t.Fatalf("StartTurn() after EndTurn() error = %v", err)
	}
	if id2 == id {
		t.Error("new turn reused the previous turn ID")
	}
}

func TestOnChunkAppendGuard(t *testing.T) {
	tests := []struct {
		name      string
		chunk     string
		wantSteps int
	}{
		{
			name:      "one step appended",
			chunk:     "step: a\nContent: x\n",
			wantSteps: 1,
		},
		{
			name:      "two steps appended",
			chunk:     "step: a\nContent: x\nstep: b\nContent: y\n",
			wantSteps: 2,
		},
		{
			name:      "zero steps ignored",
			chunk:     "nothing to see\n",
			wantSteps: 0,
		},
		{
			name:      "three steps discarded",
			chunk:     "step: a\nContent: x\nstep: b\nContent: y\nstep: c\nContent: z\n",
			wantSteps: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &recordingPublisher{}
			acc := NewTurnAccumulator(pub)
			if _, err := acc.StartTurn(); err != nil {
				t.Fatalf("StartTurn() error = %v", err)
			}

			acc.OnChunk(tt.chunk)

			if got := len(acc.Steps()); got != tt.wantSteps {
				t.Errorf("buffer has %d steps, want %d", got, tt.wantSteps)
			}
			if tt.wantSteps > 0 && len(pub.published) != 1 {
				t.Errorf("published %d times, want 1", len(pub.published))
			}
			if tt.wantSteps == 0 && len(pub.published) != 0 {
				t.Errorf("published %d times, want 0", len(pub.published))
			}
		})
	}
}

func TestOnChunkIgnoredWhenNoTurnActive(t *testing.T) {
	pub := &recordingPublisher{}
	acc := NewTurnAccumulator(pub)

	acc.OnChunk("step: a\nContent: x\n")

	if len(acc.Steps()) != 0 {
		t.Error("OnChunk() without an active turn should not buffer steps")
	}
}

func TestEndTurnDerivesLastNonEmptyContent(t *testing.T) {
	pub := &recordingPublisher{}
	acc := NewTurnAccumulator(pub)
	if _, err := acc.StartTurn(); err != nil {
		t.Fatalf("StartTurn() error = %v", err)
	}

	acc.OnChunk("step: a\nContent: {'text': 'A'}\n")
	acc.OnChunk("step: b\nContent: \n")

	acc.EndTurn()

	if len(pub.transcript) != 1 {
		t.Fatalf("transcript has %d messages, want 1", len(pub.transcript))
	}
	msg := pub.transcript[0]
	if msg.Role != RoleAI {
		t.Errorf("role = %q, want %q", msg.Role, RoleAI)
	}
	if msg.Content != "A" {
		t.Errorf("content = %q, want %q (last non-empty, scanning from the end)", msg.Content, "A")
	}
	if len(msg.Steps) != 2 {
		t.Errorf("message carries %d steps, want 2", len(msg.Steps))
	}
}

func TestEndTurnAllEmptyContentYieldsEmptyMessage(t *testing.T) {
	pub := &recordingPublisher{}
	acc := NewTurnAccumulator(pub)
	if _, err := acc.StartTurn(); err != nil {
		t.Fatalf("StartTurn() error = %v", err)
	}

	acc.OnChunk("step: a\nContent: \n")
	acc.EndTurn()

	if len(pub.transcript) != 1 {
		t.Fatalf("transcript has %d messages, want 1", len(pub.transcript))
	}
	if pub.transcript[0].Content != "" {
		t.Errorf("content = %q, want empty", pub.transcript[0].Content)
	}
}

func TestEndTurnWithEmptyBufferEmitsNothing(t *testing.T) {
	pub := &recordingPublisher{}
	acc := NewTurnAccumulator(pub)
	if _, err := acc.StartTurn(); err != nil {
		t.Fatalf("StartTurn() error = %v", err)
	}

	acc.EndTurn()

	if len(pub.transcript) != 0 {
		t.Errorf("transcript has %d messages, want 0", len(pub.transcript))
	}
	if pub.clears != 2 {
		// one clear from StartTurn, one from EndTurn
		t.Errorf("display cleared %d times, want 2", pub.clears)
	}
}

func TestFailTurnDiscardsPartialSteps(t *testing.T) {
	pub := &recordingPublisher{}
	acc := NewTurnAccumulator(pub)
	if _, err := acc.StartTurn(); err != nil {
		t.Fatalf("StartTurn() error = %v", err)
	}

	acc.OnChunk("step: a\nContent: partial\n")
	acc.FailTurn()

	if len(pub.transcript) != 1 {
		t.Fatalf("transcript has %d messages, want 1", len(pub.transcript))
	}
	msg := pub.transcript[0]
	if msg.Content != TurnErrorMessage {
		t.Errorf("content = %q, want the fixed error message", msg.Content)
	}
	if len(msg.Steps) != 0 {
		t.Errorf("error message carries %d steps, want 0", len(msg.Steps))
	}
	if len(acc.Steps()) != 0 {
		t.Error("buffer not reset after FailTurn()")
	}
}

func TestEndToEndTurn(t *testing.T) {
	pub := &recordingPublisher{}
	acc := NewTurnAccumulator(pub)
	if _, err := acc.StartTurn(); err != nil {
		t.Fatalf("StartTurn() error = %v", err)
	}

	acc.OnChunk("step: search\nContent: {'text': 'found 3 papers'}\n")
	acc.EndTurn()

	if len(pub.transcript) != 1 {
		t.Fatalf("transcript has %d messages, want 1", len(pub.transcript))
	}
	msg := pub.transcript[0]
	if msg.Role != RoleAI || msg.Content != "found 3 papers" {
		t.Errorf("final message = {%s, %q}, want {ai, %q}", msg.Role, msg.Content, "found 3 papers")
	}
}
