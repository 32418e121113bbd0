package internal

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// TurnErrorMessage is shown in place of a reply when a turn fails.
const TurnErrorMessage = "Sorry, there was an error processing your request."

// ErrTurnInFlight is returned when a new turn starts before the previous one
// finished. Interleaving two turns' steps into one buffer would corrupt both
// transcripts, so concurrent sends are rejected rather than merged.
var ErrTurnInFlight = errors.New("a turn is already in flight")

// TurnPublisher receives a turn's output as it becomes available.
// PublishSteps is called with the full step buffer each time it grows;
// ClearSteps retires the incremental display; AppendMessage commits one
// message to the transcript.
type TurnPublisher interface {
	PublishSteps(steps []StreamStep)
	ClearSteps()
	AppendMessage(msg MessageWithSteps)
}

// TurnAccumulator owns the step buffer for the in-flight assistant turn.
// Each turn gets its own identifier and an empty buffer; the buffer belongs
// exclusively to that turn.
//
// Not safe for concurrent use. Callers drive it from a single goroutine, one
// chunk at a time, which keeps steps in strict arrival order.
type TurnAccumulator struct {
	publisher TurnPublisher
	turnID    string
	steps     []StreamStep
	active    bool
}

// NewTurnAccumulator creates an accumulator publishing to p.
func NewTurnAccumulator(p TurnPublisher) *TurnAccumulator {
	return &TurnAccumulator{publisher: p}
}

// StartTurn resets the buffer for a new turn and clears any prior
// incremental display. Returns the new turn's identifier.
func (a *TurnAccumulator) StartTurn() (string, error) {
	if a.active {
		return "", ErrTurnInFlight
	}

	a.turnID = uuid.NewString()
	a.steps = nil
	a.active = true
	a.publisher.ClearSteps()

	return a.turnID, nil
}

// OnChunk decodes one delivery of stream text and appends its steps to the
// buffer. A chunk decoding to zero steps carries no record; a chunk decoding
// to three or more is a burst of backlogged output, which the reference
// behavior discards rather than flooding the display. Only 1- or 2-step
// chunks are appended.
func (a *TurnAccumulator) OnChunk(chunk string) {
	if !a.active {
		return
	}

	steps := DecodeChunk(chunk)
	if len(steps) == 0 || len(steps) > 2 {
		return
	}

	a.steps = append(a.steps, steps...)
	a.publisher.PublishSteps(a.Steps())
}

// EndTurn clears the incremental display and, if any steps accumulated,
// commits one assistant message whose content is the last step (scanning
// from the end) with non-empty normalized content. No steps, no message.
func (a *TurnAccumulator) EndTurn() {
	a.publisher.ClearSteps()

	if len(a.steps) > 0 {
		finalContent := ""
		for i := len(a.steps) - 1; i >= 0; i-- {
			parsed := NormalizeContent(a.steps[i].Content)
			if strings.TrimSpace(parsed) != "" {
				finalContent = parsed
				break
			}
		}

		a.publisher.AppendMessage(MessageWithSteps{
			Message: Message{Role: RoleAI, Content: finalContent},
			Steps:   a.steps,
		})
	}

	a.steps = nil
	a.active = false
}

// FailTurn handles a request-level failure: the incremental display is
// cleared and a single fixed error message is committed. Steps accumulated
// so far are discarded, never half-applied.
func (a *TurnAccumulator) FailTurn() {
	a.publisher.ClearSteps()
	a.publisher.AppendMessage(MessageWithSteps{
		Message: Message{Role: RoleAI, Content: TurnErrorMessage},
	})

	a.steps = nil
	a.active = false
}

// Steps returns a copy of the current buffer.
func (a *TurnAccumulator) Steps() []StreamStep {
	out := make([]StreamStep, len(a.steps))
	copy(out, a.steps)
	return out
}

// TurnID returns the identifier of the current or most recent turn.
func (a *TurnAccumulator) TurnID() string {
	return a.turnID
}

// Active reports whether a turn is in flight.
func (a *TurnAccumulator) Active() bool {
	return a.active
}
