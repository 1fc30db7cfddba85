package llm

// Role is the author of a chat message.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message is one chat message sent to the model.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest asks the model for one reply. JSONMode requests a reply
// that is a single JSON object.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
	JSONMode    bool
}

// Usage counts the tokens a completion consumed.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Total returns input plus output tokens.
func (u Usage) Total() int { return u.InputTokens + u.OutputTokens }

// CompletionResponse is the model's reply.
type CompletionResponse struct {
	Content string
	Model   string
	// Truncated is set when the reply stopped at the token limit, which
	// usually leaves the JSON document unterminated.
	Truncated bool
	Usage     Usage
}
