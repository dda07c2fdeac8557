package gemini

type Content struct {
	Role  string  `json:"role,omitempty"`
	Parts []*Part `json:"parts"`
}

type Part struct {
	Text string `json:"text"`
}

// GenerateContentRequest is the body of a generateContent call.
type GenerateContentRequest struct {
	Contents []*Content `json:"contents"`
}

// GenerateContentResponse keeps only what the relay reads. Every level may be
// absent in a valid response.
type GenerateContentResponse struct {
	Candidates []*Candidate `json:"candidates,omitempty"`
}

type Candidate struct {
	Content      *Content `json:"content,omitempty"`
	FinishReason string   `json:"finishReason,omitempty"`
}

// errorEnvelope is the body Google APIs return on failure.
type errorEnvelope struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// NewPromptRequest wraps a single prompt into a one-turn request. The prompt
// is copied as is.
func NewPromptRequest(prompt string) *GenerateContentRequest {
	return &GenerateContentRequest{
		Contents: []*Content{
			{
				Parts: []*Part{
					{
						Text: prompt,
					},
				},
			},
		},
	}
}

// Text returns candidates[0].content.parts[0].text, and false when any link
// of that path is missing or the text itself is empty.
func (r *GenerateContentResponse) Text() (string, bool) {
	if r == nil || len(r.Candidates) == 0 {
		return "", false
	}
	c := r.Candidates[0]
	if c == nil || c.Content == nil || len(c.Content.Parts) == 0 || c.Content.Parts[0] == nil {
		return "", false
	}
	text := c.Content.Parts[0].Text
	return text, text != ""
}
