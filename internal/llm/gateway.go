package llm

import "context"

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is one role-tagged prompt block sent to the model.
type Message struct {
	Role    string
	Content string
}

// Usage accumulates token accounting across gateway calls.
type Usage struct {
	InputTokens              int64
	OutputTokens             int64
	CacheCreationInputTokens int64
	CacheReadInputTokens     int64
}

func (u Usage) TotalTokens() int64 {
	return u.InputTokens + u.OutputTokens
}

func (u *Usage) Add(other Usage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.CacheCreationInputTokens += other.CacheCreationInputTokens
	u.CacheReadInputTokens += other.CacheReadInputTokens
}

// Gateway is the model boundary: it takes role-tagged messages and returns
// the raw generated text. Transport, auth and timeout handling live behind
// this interface; callers treat any error as a terminal gateway failure.
type Gateway interface {
	Invoke(ctx context.Context, messages []Message) (string, Usage, error)
}

// SplitSystem separates system blocks from the conversation messages, since
// some providers carry system instructions out of band.
func SplitSystem(messages []Message) (system []string, rest []Message) {
	for _, m := range messages {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		rest = append(rest, m)
	}
	return system, rest
}
