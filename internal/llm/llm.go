// Package llm talks to an OpenAI-compatible chat completion endpoint for
// replies, day summaries, player analysis and next-day suggestions.
//
// The memory pipeline never depends on it: every caller has a rule-based
// fallback for when the adapter is missing or fails.
package llm

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rcliao/village-memory/internal/model"
)

var (
	// ErrEmptyResponse is returned when the completion has no usable text.
	ErrEmptyResponse = errors.New("llm: empty response")
	// ErrMalformedJSON is returned when a structured reply cannot be parsed.
	ErrMalformedJSON = errors.New("llm: malformed JSON")
	// ErrMissingAPIKey is returned when no API key can be resolved.
	ErrMissingAPIKey = errors.New("llm: missing API key")
)

// Response caps.
const (
	MaxFacts       = 12
	MaxInsights    = 6
	MaxSuggestions = 6
)

// Role is a chat message author.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat message.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatInput is a reply request. Zero Temperature and MaxTokens use the
// adapter's configured values.
type ChatInput struct {
	SystemPrompt string    `json:"systemPrompt"`
	Messages     []Message `json:"messages"`
	Temperature  float64   `json:"temperature,omitempty"`
	MaxTokens    int       `json:"maxTokens,omitempty"`
}

// Usage reports token counts.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// ChatResult is a reply plus the raw provider payload.
type ChatResult struct {
	Text  string          `json:"text"`
	Usage Usage           `json:"usage"`
	Raw   json.RawMessage `json:"raw,omitempty"`
}

// FactInput asks for free-form facts about a conversation.
type FactInput struct {
	NpcName      string
	NpcRole      string
	Conversation []Message
	MaxFacts     int
}

// FactResult holds extracted fact sentences.
type FactResult struct {
	Facts []string
	Raw   json.RawMessage
}

// SummaryInput asks for a day summary.
type SummaryInput struct {
	DayIndex      int
	Conversation  []Message
	MaxParagraphs int
}

// SummaryResult holds the summary text.
type SummaryResult struct {
	Summary string
	Raw     json.RawMessage
}

// InsightInput asks for observations about the player.
type InsightInput struct {
	Conversation []Message
	MaxInsights  int
}

// InsightResult holds validated insight seeds.
type InsightResult struct {
	Insights []model.InsightSeed
	Raw      json.RawMessage
}

// Suggestion is a proposed next-day activity.
type Suggestion struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// KickoffInput asks for next-day suggestions.
type KickoffInput struct {
	DayIndex        int
	PreviousSummary string
	Insights        []model.PlayerInsight
	MaxSuggestions  int
}

// KickoffResult holds suggestions.
type KickoffResult struct {
	Suggestions []Suggestion
	Raw         json.RawMessage
}

// Adapter is the LLM capability. Failures are returned to the caller.
type Adapter interface {
	GenerateReply(ctx context.Context, in ChatInput) (*ChatResult, error)
	ExtractFacts(ctx context.Context, in FactInput) (*FactResult, error)
	SummarizeDay(ctx context.Context, in SummaryInput) (*SummaryResult, error)
	AnalyzePlayer(ctx context.Context, in InsightInput) (*InsightResult, error)
	SuggestNextDay(ctx context.Context, in KickoffInput) (*KickoffResult, error)
}

// FromEntries converts log entries into chat messages. Player lines become
// user messages and NPC lines assistant messages.
func FromEntries(entries []model.ConversationEntry) []Message {
	out := make([]Message, 0, len(entries))
	for _, e := range entries {
		role := RoleAssistant
		if e.Speaker == model.SpeakerPlayer {
			role = RoleUser
		}
		out = append(out, Message{Role: role, Content: e.Text})
	}
	return out
}
