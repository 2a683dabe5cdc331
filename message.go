package nimcheck

import (
	"encoding/base64"
	"errors"
	"fmt"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var (
	ErrInvalidMessageRole    = errors.New("invalid message role")
	ErrInvalidMessageContent = errors.New("invalid message content")
)

type Message struct {
	Role  string        `json:"role"`
	Parts []ContentPart `json:"parts"`
}

const (
	PartTypeText  = "text"
	PartTypeImage = "image"
)

type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	URL  string `json:"url,omitempty"`
}

func TextPart(text string) ContentPart {
	return ContentPart{Type: PartTypeText, Text: text}
}

// ImagePart references an image by URI. For inline images, build the URI
// with ImageDataURI.
func ImagePart(url string) ContentPart {
	return ContentPart{Type: PartTypeImage, URL: url}
}

// ImageDataURI encodes raw image bytes as a self-contained data URI.
func ImageDataURI(mimeType string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

func SystemMessage(text string) Message {
	return Message{Role: RoleSystem, Parts: []ContentPart{TextPart(text)}}
}

func UserMessage(parts ...ContentPart) Message {
	return Message{Role: RoleUser, Parts: parts}
}

func AssistantMessage(parts ...ContentPart) Message {
	return Message{Role: RoleAssistant, Parts: parts}
}
