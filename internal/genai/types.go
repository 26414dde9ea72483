package genai

// Wire types for the generative language endpoint. Request bodies carry a
// list of conversational turns; each turn holds ordered parts that are either
// plain text or inline binary data.

type GenerateRequest struct {
	Contents []Content `json:"contents"`
}

type Content struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// Part is a union: exactly one of Text or InlineData is set.
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

// InlineData embeds base64-encoded binary content in a request.
type InlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type GenerateResponse struct {
	Candidates []Candidate `json:"candidates"`
}

// Candidate is one proposed answer; only the first is ever consumed.
type Candidate struct {
	Content *Content `json:"content"`
}

// TextPart builds a text part.
func TextPart(text string) Part {
	return Part{Text: text}
}

// ImagePart builds an inline image part.
func ImagePart(mimeType, data string) Part {
	return Part{InlineData: &InlineData{MimeType: mimeType, Data: data}}
}
