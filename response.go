package nimcheck

import "strings"

type Response struct {
	ID      string   `json:"id,omitempty"`
	Model   string   `json:"model,omitempty"`
	Choices []Choice `json:"choices"`
}

type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason,omitempty"`
}

// Content returns the text content of the first choice. Callers consult
// only the first choice; the rest is carried for completeness.
func (r *Response) Content() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, part := range r.Choices[0].Message.Parts {
		if part.Type == PartTypeText {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

// HealthStatus is the result of a single best-effort readiness probe.
type HealthStatus struct {
	Ready   bool   `json:"ready"`
	Message string `json:"message"`
}
