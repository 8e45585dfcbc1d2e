package collab

import (
	"context"
	"strings"

	"github.com/tandemkit/tandem/schema"
)

// Result is the outcome of a collaboration run.
type Result struct {
	// State is the full shared conversation.
	State *schema.State
	// Answer is the final deliverable with the stop marker stripped.
	// Empty when the run ended without one.
	Answer string
	// Answered reports whether an agent produced a final answer.
	Answered bool
}

// Run seeds the conversation with the user's question and executes the
// graph to completion.
func (d *Duo) Run(ctx context.Context, question string) (*Result, error) {
	state := schema.NewState(schema.NewUserMessage(question))
	final, err := d.graph.Run(ctx, state)
	if err != nil {
		return &Result{State: final}, err
	}
	answer, ok := FinalAnswer(final)
	return &Result{State: final, Answer: answer, Answered: ok}, nil
}

// FinalAnswer extracts the deliverable from the last message. The stop
// marker and surrounding whitespace are stripped.
func FinalAnswer(state *schema.State) (string, bool) {
	last := state.Last()
	if last == nil {
		return "", false
	}
	idx := strings.Index(last.Content, FinalAnswerMarker)
	if idx < 0 {
		return "", false
	}
	answer := last.Content[idx+len(FinalAnswerMarker):]
	answer = strings.TrimSpace(strings.TrimLeft(answer, ": \t\n"))
	if answer == "" {
		// Marker at the end; the deliverable is whatever preceded it.
		answer = strings.TrimSpace(last.Content[:idx])
	}
	return answer, true
}
