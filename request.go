package nimcheck

import (
	"errors"
	"slices"
)

var ErrNoMessages = errors.New("request has no messages")

// Request is one chat completion request. Build a fresh value per call;
// adapters never mutate the caller's request.
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float32   `json:"temperature,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
}

func NewRequest(model string, messages ...Message) (*Request, error) {
	if len(messages) == 0 {
		return nil, ErrNoMessages
	}
	return &Request{
		Model:    model,
		Messages: messages,
	}, nil
}

func (r *Request) Clone() *Request {
	clone := *r
	clone.Messages = slices.Clone(r.Messages)
	return &clone
}
