package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/rcliao/village-memory/internal/model"
	"github.com/rcliao/village-memory/internal/observe"
)

// OpenAIAdapter implements Adapter against any OpenAI-compatible endpoint.
type OpenAIAdapter struct {
	client  oai.Client
	cfg     Config
	logger  *slog.Logger
	metrics *observe.Metrics
}

var _ Adapter = (*OpenAIAdapter)(nil)

// AdapterOption configures an OpenAIAdapter.
type AdapterOption func(*adapterOptions)

type adapterOptions struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observe.Metrics
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) AdapterOption {
	return func(o *adapterOptions) { o.httpClient = c }
}

// WithLogger sets the adapter logger.
func WithLogger(l *slog.Logger) AdapterOption {
	return func(o *adapterOptions) { o.logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *observe.Metrics) AdapterOption {
	return func(o *adapterOptions) { o.metrics = m }
}

// NewOpenAIAdapter builds an adapter for cfg. Requests are never retried.
func NewOpenAIAdapter(cfg Config, apiKey string, opts ...AdapterOption) (*OpenAIAdapter, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid llm config: %w", err)
	}
	o := adapterOptions{}
	for _, fn := range opts {
		fn(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.metrics == nil {
		o.metrics = observe.DefaultMetrics()
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	client := oai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")+"/"),
		option.WithHTTPClient(o.httpClient),
		option.WithMaxRetries(0),
	)
	return &OpenAIAdapter{
		client:  client,
		cfg:     cfg,
		logger:  o.logger.With("component", "llm", "provider", cfg.Provider, "model", cfg.Model),
		metrics: o.metrics,
	}, nil
}

// GenerateReply returns an in-character reply.
func (a *OpenAIAdapter) GenerateReply(ctx context.Context, in ChatInput) (*ChatResult, error) {
	temp := in.Temperature
	if temp == 0 {
		temp = a.cfg.Temperature
	}
	maxTokens := in.MaxTokens
	if maxTokens == 0 {
		maxTokens = a.cfg.MaxCompletionTokens
	}
	return a.complete(ctx, "reply", in.SystemPrompt, in.Messages, temp, maxTokens)
}

// ExtractFacts asks for short facts as a JSON array of strings.
func (a *OpenAIAdapter) ExtractFacts(ctx context.Context, in FactInput) (*FactResult, error) {
	limit := capLimit(in.MaxFacts, 4, MaxFacts)
	system := strings.Join([]string{
		"You extract memory facts from a conversation with the player.",
		"Return a JSON array of short, specific facts.",
		"Only include information the player said or implied.",
		fmt.Sprintf("Max facts: %d.", limit),
		"Do not include any extra text outside JSON.",
	}, "\n")
	user := Message{Role: RoleUser, Content: formatConversation(in.Conversation, in.NpcName, in.NpcRole)}

	res, err := a.complete(ctx, "extract_facts", system, []Message{user}, 0.2, min(a.cfg.MaxCompletionTokens, 240))
	if err != nil {
		return nil, err
	}
	var facts []string
	if err := DecodeArray(res.Text, &facts); err != nil {
		return &FactResult{Raw: res.Raw}, err
	}
	out := &FactResult{Raw: res.Raw}
	for _, f := range facts {
		if f = strings.TrimSpace(f); f != "" && len(out.Facts) < limit {
			out.Facts = append(out.Facts, f)
		}
	}
	return out, nil
}

// SummarizeDay writes a short summary of the day's conversations.
func (a *OpenAIAdapter) SummarizeDay(ctx context.Context, in SummaryInput) (*SummaryResult, error) {
	paragraphs := in.MaxParagraphs
	if paragraphs <= 0 {
		paragraphs = 2
	}
	system := strings.Join([]string{
		"You summarize the day for a cozy village sim.",
		"Write a warm, concise summary of the day's highlights.",
		fmt.Sprintf("Day index: %d.", in.DayIndex),
		fmt.Sprintf("Max paragraphs: %d.", paragraphs),
	}, "\n")
	user := Message{Role: RoleUser, Content: formatConversation(in.Conversation, "", "")}

	res, err := a.complete(ctx, "summarize_day", system, []Message{user}, 0.4, min(a.cfg.MaxCompletionTokens, 320))
	if err != nil {
		return nil, err
	}
	return &SummaryResult{Summary: res.Text, Raw: res.Raw}, nil
}

// AnalyzePlayer asks for categorized insights about the player. Insights
// with an unknown category or no text are dropped.
func (a *OpenAIAdapter) AnalyzePlayer(ctx context.Context, in InsightInput) (*InsightResult, error) {
	limit := capLimit(in.MaxInsights, 4, MaxInsights)
	system := strings.Join([]string{
		"You analyze the player's interactions in a cozy village sim.",
		"Extract 2-4 concise insights about the player.",
		"Use only what the player said or implied.",
		"Categories: preference, goal, value, habit, interest, style.",
		`Return JSON only with shape: {"insights":[{"text":"...","category":"preference"}]}`,
		"If unsure, return an empty insights array.",
	}, "\n")
	user := Message{Role: RoleUser, Content: formatConversation(in.Conversation, "", "")}

	res, err := a.complete(ctx, "analyze_player", system, []Message{user}, 0.2, min(a.cfg.MaxCompletionTokens, 280))
	if err != nil {
		return nil, err
	}
	var body struct {
		Insights []model.InsightSeed `json:"insights"`
	}
	if err := DecodeObject(res.Text, &body); err != nil {
		return &InsightResult{Raw: res.Raw}, err
	}
	out := &InsightResult{Raw: res.Raw}
	for _, s := range body.Insights {
		s.Text = strings.TrimSpace(s.Text)
		if s.Text == "" || !model.ValidInsightCategories[s.Category] {
			a.logger.Debug("insight dropped", "category", s.Category)
			continue
		}
		if len(out.Insights) < limit {
			out.Insights = append(out.Insights, s)
		}
	}
	return out, nil
}

// SuggestNextDay asks for next-day activities.
func (a *OpenAIAdapter) SuggestNextDay(ctx context.Context, in KickoffInput) (*KickoffResult, error) {
	limit := capLimit(in.MaxSuggestions, 5, MaxSuggestions)
	system := strings.Join([]string{
		"You are a cozy village guide.",
		"Suggest 3-5 next-day activities based on yesterday's summary and player insights.",
		"Keep each suggestion warm, concrete, and short.",
		`Return JSON only with shape: {"suggestions":[{"title":"...","detail":"..."}]}`,
	}, "\n")

	summary := in.PreviousSummary
	if summary == "" {
		summary = "No summary available."
	}
	lines := []string{
		fmt.Sprintf("Day index: %d.", in.DayIndex),
		"Yesterday summary: " + summary,
	}
	if len(in.Insights) == 0 {
		lines = append(lines, "Player insights: none.")
	} else {
		insights := make([]string, len(in.Insights))
		for i, ins := range in.Insights {
			insights[i] = fmt.Sprintf("- (%s) %s", ins.Category, ins.Text)
		}
		lines = append(lines, "Player insights:\n"+strings.Join(insights, "\n"))
	}
	user := Message{Role: RoleUser, Content: strings.Join(lines, "\n")}

	res, err := a.complete(ctx, "suggest_next_day", system, []Message{user}, 0.4, min(a.cfg.MaxCompletionTokens, 260))
	if err != nil {
		return nil, err
	}
	var body struct {
		Suggestions []Suggestion `json:"suggestions"`
	}
	if err := DecodeObject(res.Text, &body); err != nil {
		return &KickoffResult{Raw: res.Raw}, err
	}
	out := &KickoffResult{Raw: res.Raw}
	for _, s := range body.Suggestions {
		if strings.TrimSpace(s.Title) == "" || strings.TrimSpace(s.Detail) == "" {
			continue
		}
		if len(out.Suggestions) < limit {
			out.Suggestions = append(out.Suggestions, s)
		}
	}
	return out, nil
}

func (a *OpenAIAdapter) complete(ctx context.Context, op, system string, msgs []Message, temperature float64, maxTokens int) (*ChatResult, error) {
	start := time.Now()
	params := oai.ChatCompletionNewParams{
		Model:               shared.ChatModel(a.cfg.Model),
		Messages:            convertMessages(system, msgs),
		Temperature:         param.NewOpt(temperature),
		MaxCompletionTokens: param.NewOpt(int64(maxTokens)),
	}

	resp, err := a.client.Chat.Completions.New(ctx, params)
	elapsed := time.Since(start)
	if err != nil {
		a.metrics.RecordLLM(ctx, op, "error", elapsed.Seconds())
		a.logger.Error("llm request failed", "op", op, "err", err, "elapsed", elapsed)
		return nil, fmt.Errorf("llm %s: %w", op, err)
	}

	var text string
	if len(resp.Choices) > 0 {
		text = strings.TrimSpace(resp.Choices[0].Message.Content)
	}
	if text == "" {
		a.metrics.RecordLLM(ctx, op, "empty", elapsed.Seconds())
		return nil, fmt.Errorf("llm %s: %w", op, ErrEmptyResponse)
	}
	a.metrics.RecordLLM(ctx, op, "ok", elapsed.Seconds())
	a.logger.Debug("llm request done", "op", op, "tokens", resp.Usage.TotalTokens, "elapsed", elapsed)

	return &ChatResult{
		Text: text,
		Usage: Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
		Raw: json.RawMessage(resp.RawJSON()),
	}, nil
}

func convertMessages(system string, msgs []Message) []oai.ChatCompletionMessageParamUnion {
	out := make([]oai.ChatCompletionMessageParamUnion, 0, len(msgs)+1)
	if system != "" {
		out = append(out, oai.SystemMessage(system))
	}
	for _, m := range msgs {
		switch m.Role {
		case RoleSystem:
			out = append(out, oai.SystemMessage(m.Content))
		case RoleAssistant:
			out = append(out, oai.AssistantMessage(m.Content))
		default:
			out = append(out, oai.UserMessage(m.Content))
		}
	}
	return out
}

func formatConversation(msgs []Message, npcName, npcRole string) string {
	header := "Conversation:"
	if npcName != "" {
		if npcRole == "" {
			npcRole = "npc"
		}
		header = fmt.Sprintf("%s (%s) conversation:", npcName, npcRole)
	}
	lines := []string{header}
	for _, m := range msgs {
		lines = append(lines, fmt.Sprintf("%s: %s", m.Role, m.Content))
	}
	return strings.Join(lines, "\n")
}

func capLimit(requested, def, ceiling int) int {
	if requested <= 0 {
		requested = def
	}
	return min(requested, ceiling)
}
