package schema

import "encoding/json"

// State is the shared conversation state threaded through a graph run.
// Nodes append messages and set Sender to their own name; the graph
// engine owns routing decisions based on the last message and Sender.
type State struct {
	Messages []Message `json:"messages"`
	Sender   string    `json:"sender,omitempty"`
}

// NewState builds a state seeded with the given messages.
func NewState(messages ...Message) *State {
	s := &State{}
	s.Messages = append(s.Messages, messages...)
	return s
}

// Append adds messages to the state.
func (s *State) Append(messages ...Message) {
	s.Messages = append(s.Messages, messages...)
}

// Last returns the most recent message, or nil if the state is empty.
func (s *State) Last() *Message {
	if len(s.Messages) == 0 {
		return nil
	}
	return &s.Messages[len(s.Messages)-1]
}

// Clone deep-copies the state.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	clone := &State{Sender: s.Sender}
	if len(s.Messages) > 0 {
		clone.Messages = make([]Message, len(s.Messages))
		for i := range s.Messages {
			clone.Messages[i] = *s.Messages[i].Clone()
		}
	}
	return clone
}

// MarshalJSON implements json.Marshaler so empty states serialize with an
// explicit message array, which the checkpoint store relies on.
func (s *State) MarshalJSON() ([]byte, error) {
	type alias State
	a := alias(*s)
	if a.Messages == nil {
		a.Messages = []Message{}
	}
	return json.Marshal(a)
}
