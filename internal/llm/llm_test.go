package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/village-memory/internal/model"
	"github.com/rcliao/village-memory/internal/retrieval"
	"github.com/rcliao/village-memory/internal/store"
)

type capturedRequest struct {
	Model               string  `json:"model"`
	Temperature         float64 `json:"temperature"`
	MaxCompletionTokens int     `json:"max_completion_tokens"`
	Messages            []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

type fakeProvider struct {
	mu       sync.Mutex
	requests []capturedRequest
	auth     string
	reply    string
	status   int
}

func (f *fakeProvider) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req capturedRequest
		require.NoError(t, json.Unmarshal(body, &req))

		f.mu.Lock()
		f.requests = append(f.requests, req)
		f.auth = r.Header.Get("Authorization")
		reply, status := f.reply, f.status
		f.mu.Unlock()

		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if status != 0 {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			return
		}
		resp := map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   req.Model,
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": reply},
			}},
			"usage": map[string]any{"prompt_tokens": 11, "completion_tokens": 7, "total_tokens": 18},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}
}

func (f *fakeProvider) last(t *testing.T) capturedRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

func newTestAdapter(t *testing.T, reply string) (*OpenAIAdapter, *fakeProvider) {
	t.Helper()
	fp := &fakeProvider{reply: reply}
	srv := httptest.NewServer(fp.handler(t))
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL + "/v1"
	cfg.Timeout = 5 * time.Second
	a, err := NewOpenAIAdapter(cfg, "test-key", WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return a, fp
}

func TestNewOpenAIAdapterRequiresKey(t *testing.T) {
	_, err := NewOpenAIAdapter(DefaultConfig(), "")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestGenerateReply(t *testing.T) {
	a, fp := newTestAdapter(t, "  Happy to help with the bridge.  ")

	res, err := a.GenerateReply(context.Background(), ChatInput{
		SystemPrompt: "You are Theo.",
		Messages: []Message{
			{Role: RoleUser, Content: "hi"},
			{Role: RoleAssistant, Content: "hello"},
			{Role: RoleUser, Content: "bridge?"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Happy to help with the bridge.", res.Text)
	assert.Equal(t, Usage{PromptTokens: 11, CompletionTokens: 7, TotalTokens: 18}, res.Usage)
	assert.NotEmpty(t, res.Raw)

	req := fp.last(t)
	assert.Equal(t, "Bearer test-key", fp.auth)
	assert.Equal(t, "gpt-oss-120b", req.Model)
	assert.InDelta(t, 0.7, req.Temperature, 1e-9)
	assert.Equal(t, 240, req.MaxCompletionTokens)
	require.Len(t, req.Messages, 4)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Equal(t, "You are Theo.", req.Messages[0].Content)
	assert.Equal(t, "assistant", req.Messages[2].Role)
}

func TestGenerateReplyEmpty(t *testing.T) {
	a, _ := newTestAdapter(t, "   ")
	_, err := a.GenerateReply(context.Background(), ChatInput{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestProviderErrorPropagates(t *testing.T) {
	a, fp := newTestAdapter(t, "unused")
	fp.status = http.StatusInternalServerError

	_, err := a.GenerateReply(context.Background(), ChatInput{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	require.Error(t, err)
	assert.Len(t, fp.requests, 1, "requests are not retried")
}

func TestExtractFacts(t *testing.T) {
	a, fp := newTestAdapter(t, "```json\n[\"Player needs oak planks\", \" \", \"Player likes lanterns\"]\n```")

	res, err := a.ExtractFacts(context.Background(), FactInput{
		NpcName:      "Theo",
		NpcRole:      "Carpenter",
		Conversation: []Message{{Role: RoleUser, Content: "I need oak planks"}},
		MaxFacts:     50,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Player needs oak planks", "Player likes lanterns"}, res.Facts)

	req := fp.last(t)
	assert.Contains(t, req.Messages[0].Content, "Max facts: 12.")
	assert.InDelta(t, 0.2, req.Temperature, 1e-9)
	assert.True(t, strings.HasPrefix(req.Messages[1].Content, "Theo (Carpenter) conversation:\nuser: I need oak planks"))
}

func TestExtractFactsMalformed(t *testing.T) {
	a, _ := newTestAdapter(t, "I could not find any facts.")
	_, err := a.ExtractFacts(context.Background(), FactInput{})
	assert.ErrorIs(t, err, ErrMalformedJSON)
}

func TestSummarizeDay(t *testing.T) {
	a, fp := newTestAdapter(t, "A gentle day of planning.")

	res, err := a.SummarizeDay(context.Background(), SummaryInput{DayIndex: 3})
	require.NoError(t, err)
	assert.Equal(t, "A gentle day of planning.", res.Summary)

	req := fp.last(t)
	assert.Contains(t, req.Messages[0].Content, "Day index: 3.")
	assert.Contains(t, req.Messages[0].Content, "Max paragraphs: 2.")
	assert.Equal(t, 240, req.MaxCompletionTokens, "capped by configured max")
}

func TestAnalyzePlayerFiltersCategories(t *testing.T) {
	a, _ := newTestAdapter(t, `Sure! {"insights":[
		{"text":"Enjoys quiet evenings","category":"preference"},
		{"text":"Secretly a dragon","category":"lore"},
		{"text":"","category":"goal"},
		{"text":"Wants to fix the bridge","category":"goal"}
	]}`)

	res, err := a.AnalyzePlayer(context.Background(), InsightInput{})
	require.NoError(t, err)
	assert.Equal(t, []model.InsightSeed{
		{Text: "Enjoys quiet evenings", Category: model.InsightPreference},
		{Text: "Wants to fix the bridge", Category: model.InsightGoal},
	}, res.Insights)
}

func TestSuggestNextDay(t *testing.T) {
	a, fp := newTestAdapter(t, `{"suggestions":[
		{"title":"Visit Jun","detail":"Plan the herb patch."},
		{"title":"","detail":"missing title"},
		{"title":"Check the bridge","detail":"Measure the planks."}
	]}`)

	res, err := a.SuggestNextDay(context.Background(), KickoffInput{
		DayIndex: 2,
		Insights: []model.PlayerInsight{{Text: "Enjoys gardening", Category: model.InsightInterest}},
	})
	require.NoError(t, err)
	assert.Equal(t, []Suggestion{
		{Title: "Visit Jun", Detail: "Plan the herb patch."},
		{Title: "Check the bridge", Detail: "Measure the planks."},
	}, res.Suggestions)

	user := fp.last(t).Messages[1].Content
	assert.Contains(t, user, "Day index: 2.")
	assert.Contains(t, user, "Yesterday summary: No summary available.")
	assert.Contains(t, user, "Player insights:\n- (interest) Enjoys gardening")
}

func TestSuggestNextDayNoInsights(t *testing.T) {
	a, fp := newTestAdapter(t, `{"suggestions":[]}`)
	_, err := a.SuggestNextDay(context.Background(), KickoffInput{DayIndex: 1, PreviousSummary: "Quiet."})
	require.NoError(t, err)
	user := fp.last(t).Messages[1].Content
	assert.Contains(t, user, "Yesterday summary: Quiet.")
	assert.Contains(t, user, "Player insights: none.")
}

func TestDecodeHelpers(t *testing.T) {
	var arr []string
	require.NoError(t, DecodeArray("noise [\"a\",\"b\"] trailing", &arr))
	assert.Equal(t, []string{"a", "b"}, arr)

	var obj map[string]int
	require.NoError(t, DecodeObject("```JSON\n{\"n\": 2}\n```", &obj))
	assert.Equal(t, 2, obj["n"])

	assert.ErrorIs(t, DecodeObject("nothing here", &obj), ErrMalformedJSON)
	assert.ErrorIs(t, DecodeArray("[not json]", &arr), ErrMalformedJSON)
}

func TestFromEntries(t *testing.T) {
	msgs := FromEntries([]model.ConversationEntry{
		{Speaker: model.SpeakerPlayer, Text: "hi"},
		{Speaker: model.SpeakerNPC, Text: "hello"},
	})
	assert.Equal(t, []Message{{Role: RoleUser, Content: "hi"}, {Role: RoleAssistant, Content: "hello"}}, msgs)
}

func TestBuildChatInput(t *testing.T) {
	c := &retrieval.Context{NpcID: "theo", Prompt: "You are Theo, the Carpenter."}
	history := []model.ConversationEntry{
		{Speaker: model.SpeakerPlayer, Text: "morning"},
		{Speaker: model.SpeakerNPC, Text: "morning to you"},
	}

	in := BuildChatInput(c, history, "need planks")
	assert.True(t, strings.HasPrefix(in.SystemPrompt, "You are Theo, the Carpenter.\n\nGuidelines:\n- Stay in character"))
	require.Len(t, in.Messages, 7)
	assert.Equal(t, "I need sturdy planks for the bridge repairs.", in.Messages[0].Content)
	assert.Equal(t, RoleAssistant, in.Messages[5].Role)
	assert.Equal(t, Message{Role: RoleUser, Content: "need planks"}, in.Messages[6])
}

func TestFewShotFallback(t *testing.T) {
	assert.Len(t, FewShot("mira"), 2)
	assert.Equal(t, fallbackShot, FewShot("stranger"))
}

func TestResolve(t *testing.T) {
	env := map[string]string{
		"CEREBRAS_API_KEY":        "env-key",
		"VILLAGE_LLM_MODEL":       "llama-3.3-70b",
		"VILLAGE_LLM_TEMPERATURE": "nope",
	}
	getenv := func(k string) string { return env[k] }

	cfg, key, err := Resolve(DefaultConfig(), Overrides{}, getenv)
	require.NoError(t, err)
	assert.Equal(t, "env-key", key)
	assert.Equal(t, "llama-3.3-70b", cfg.Model)
	assert.InDelta(t, 0.7, cfg.Temperature, 1e-9)

	m, override := "qwen", "stored-key"
	cfg, key, err = Resolve(DefaultConfig(), Overrides{Model: &m, APIKeyOverride: &override}, getenv)
	require.NoError(t, err)
	assert.Equal(t, "qwen", cfg.Model, "stored overrides win over env")
	assert.Equal(t, "stored-key", key)

	_, _, err = Resolve(DefaultConfig(), Overrides{}, func(string) string { return "" })
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestConfigValidateJoinsErrors(t *testing.T) {
	cfg := Config{Provider: "nope", Temperature: 3}
	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"provider", "base_url", "model", "api_key_env", "temperature", "max_completion_tokens"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestOverrideStore(t *testing.T) {
	ctx := context.Background()
	s := NewOverrideStore(store.NewMemStorage())

	o, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, o.Model)

	m := "llama"
	require.NoError(t, s.Save(ctx, Overrides{Model: &m}))
	o, err = s.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, o.Model)
	assert.Equal(t, "llama", *o.Model)

	bad := 99.0
	err = s.Save(ctx, Overrides{Temperature: &bad})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrMissingAPIKey))

	require.NoError(t, s.Clear(ctx))
	o, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, o.Model)
}
