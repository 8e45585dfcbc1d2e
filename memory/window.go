// Package memory bounds the conversation history handed to the model on
// each turn. The shared state keeps everything; the window decides what
// the model actually sees.
package memory

import (
	"github.com/tandemkit/tandem/schema"
)

// TokenCounter counts model tokens in a text.
type TokenCounter interface {
	Count(text string) int
}

// Window trims message history by count and token budget. Zero values
// disable the respective limit.
type Window struct {
	MaxMessages int
	MaxTokens   int
	Counter     TokenCounter
}

// DefaultWindow keeps the last 40 messages within ~24k tokens.
func DefaultWindow() Window {
	return Window{MaxMessages: 40, MaxTokens: 24000, Counter: EstimateCounter{}}
}

// Trim returns the most recent messages that fit the window. The cut
// never strands tool messages from the assistant turn that issued their
// calls; the whole turn is dropped together.
func (w Window) Trim(messages []schema.Message) []schema.Message {
	if len(messages) == 0 {
		return messages
	}

	start := 0
	if w.MaxMessages > 0 && len(messages) > w.MaxMessages {
		start = len(messages) - w.MaxMessages
	}

	if w.MaxTokens > 0 {
		counter := w.Counter
		if counter == nil {
			counter = EstimateCounter{}
		}
		budget := w.MaxTokens
		cut := len(messages)
		for cut > start {
			cost := messageTokens(counter, messages[cut-1])
			// The newest message always survives, even over budget:
			// an empty request is worse than an oversized one.
			if cost > budget && cut < len(messages) {
				break
			}
			budget -= cost
			cut--
		}
		if cut > start {
			start = cut
		}
	}

	start = alignToTurn(messages, start)
	return messages[start:]
}

// alignToTurn moves the cut forward past any tool messages whose issuing
// assistant message fell before the cut.
func alignToTurn(messages []schema.Message, start int) int {
	for start < len(messages) && messages[start].Role == schema.RoleTool {
		start++
	}
	return start
}

func messageTokens(counter TokenCounter, msg schema.Message) int {
	total := counter.Count(msg.Content)
	for _, call := range msg.ToolCalls {
		total += counter.Count(call.Name) + counter.Count(string(call.Args))
	}
	return total
}

// EstimateCounter approximates tokens as chars/4 (conservative
// overestimate for English text).
type EstimateCounter struct{}

func (EstimateCounter) Count(text string) int {
	return (len(text) + 3) / 4
}
