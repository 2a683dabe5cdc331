package nimcheck

import (
	"encoding/json"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// EncodeChatRequest converts a Request into the OpenAI-compatible wire
// document both transports accept.
func EncodeChatRequest(req *Request) (openai.ChatCompletionRequest, error) {
	if len(req.Messages) == 0 {
		return openai.ChatCompletionRequest{}, ErrNoMessages
	}
	out := openai.ChatCompletionRequest{
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stream:      req.Stream,
	}
	out.Messages = make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem, RoleUser, RoleAssistant:
		default:
			return openai.ChatCompletionRequest{}, fmt.Errorf("%w: %q", ErrInvalidMessageRole, msg.Role)
		}
		m := openai.ChatCompletionMessage{Role: msg.Role}
		if len(msg.Parts) == 1 && msg.Parts[0].Type == PartTypeText {
			m.Content = msg.Parts[0].Text
		} else {
			for _, part := range msg.Parts {
				switch part.Type {
				case PartTypeText:
					m.MultiContent = append(m.MultiContent, openai.ChatMessagePart{
						Type: openai.ChatMessagePartTypeText,
						Text: part.Text,
					})
				case PartTypeImage:
					m.MultiContent = append(m.MultiContent, openai.ChatMessagePart{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL: part.URL,
						},
					})
				default:
					return openai.ChatCompletionRequest{}, fmt.Errorf("%w: unsupported part type %q", ErrInvalidMessageContent, part.Type)
				}
			}
		}
		out.Messages = append(out.Messages, m)
	}
	return out, nil
}

// DecodeChatResponse parses a non-streaming chat completion document.
func DecodeChatResponse(body []byte) (*Response, error) {
	var wire openai.ChatCompletionResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, &ProtocolError{Reason: "parse chat completion", Err: err}
	}
	if len(wire.Choices) == 0 {
		return nil, &ProtocolError{Reason: "chat completion", Err: ErrNoChoices}
	}
	resp := &Response{
		ID:      wire.ID,
		Model:   wire.Model,
		Choices: make([]Choice, 0, len(wire.Choices)),
	}
	for _, c := range wire.Choices {
		resp.Choices = append(resp.Choices, Choice{
			Index: c.Index,
			Message: Message{
				Role:  c.Message.Role,
				Parts: []ContentPart{TextPart(c.Message.Content)},
			},
			FinishReason: string(c.FinishReason),
		})
	}
	return resp, nil
}
