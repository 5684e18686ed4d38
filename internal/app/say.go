package app

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rcliao/village-memory/internal/llm"
	"github.com/rcliao/village-memory/internal/memory"
	"github.com/rcliao/village-memory/internal/model"
	"github.com/rcliao/village-memory/internal/retrieval"
)

// Turn is the outcome of one player line.
type Turn struct {
	NPC     model.NPC               `json:"npc"`
	Player  model.ConversationEntry `json:"player"`
	Reply   model.ConversationEntry `json:"reply"`
	Memory  *memory.Result          `json:"memory"`
	Context *retrieval.Context      `json:"context"`

	// Fallback is set when the reply did not come from the LLM.
	Fallback bool   `json:"fallback"`
	Warning  string `json:"warning,omitempty"`
}

// Say records a player line to npcKey, updates memory, marks the visit and
// produces the villager's reply.
func (a *App) Say(ctx context.Context, npcKey, text string) (*Turn, error) {
	npc, err := a.NPC(npcKey)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("say to %s: text is required", npc.ID)
	}

	history, err := a.Log.Recent(ctx, npc.ID, a.Config.Memory.RecentLimit)
	if err != nil {
		return nil, err
	}
	player, err := a.Log.Append(ctx, model.ConversationEntry{NpcID: npc.ID, Speaker: model.SpeakerPlayer, Text: text})
	if err != nil {
		return nil, err
	}
	res, err := a.Pipeline.ExtractAndStore(ctx, player)
	if err != nil {
		return nil, fmt.Errorf("update memory: %w", err)
	}
	if _, err := a.Days.MarkVisited(ctx, npc.ID); err != nil {
		a.logger.Error("persist day cycle failed", "npc_id", npc.ID, "err", err)
	}
	mc, err := a.Contexts.Build(ctx, npc)
	if err != nil {
		return nil, err
	}

	turn := &Turn{NPC: npc, Player: player, Memory: res, Context: mc}
	reply := ""
	if a.LLM != nil {
		out, err := a.LLM.GenerateReply(ctx, llm.BuildChatInput(mc, history, text))
		if err != nil {
			a.logger.Warn("reply generation failed, using fallback", "npc_id", npc.ID, "err", err)
			turn.Warning = "LLM unavailable. Using fallback reply."
		} else {
			reply = out.Text
		}
	}
	if reply == "" {
		reply = FallbackReply(npc, mc, text)
		turn.Fallback = true
	}

	turn.Reply, err = a.Log.Append(ctx, model.ConversationEntry{NpcID: npc.ID, Speaker: model.SpeakerNPC, Text: reply})
	if err != nil {
		return nil, err
	}
	return turn, nil
}

// Greet builds the memory context for npcKey and an opening line.
func (a *App) Greet(ctx context.Context, npcKey string) (string, *retrieval.Context, error) {
	npc, err := a.NPC(npcKey)
	if err != nil {
		return "", nil, err
	}
	mc, err := a.Contexts.Build(ctx, npc)
	if err != nil {
		return "", nil, err
	}
	return Greeting(npc, mc), mc, nil
}

// Greeting opens a conversation by recalling the top memory.
func Greeting(npc model.NPC, mc *retrieval.Context) string {
	recall := " What would you like to share today?"
	if len(mc.TopMemories) > 0 {
		recall = " " + recallLine(mc.TopMemories[0])
	}
	return fmt.Sprintf("%s %s%s", npc.Name, mc.Personality.GreetingStyle, recall)
}

// FallbackReply is the reply used when no LLM answered.
func FallbackReply(npc model.NPC, mc *retrieval.Context, playerText string) string {
	var recall string
	if len(mc.TopMemories) > 0 {
		recall = " " + recallLine(mc.TopMemories[0])
	}
	return fmt.Sprintf("%s %s %q%s", npc.Name, mc.Personality.ReplyStyle, playerText, recall)
}

var (
	leadingPlayerRe = regexp.MustCompile(`(?i)^player `)
	youFeelsRe      = regexp.MustCompile(`(?i)^you feels `)
)

func recallLine(f model.MemoryFact) string {
	sentence := leadingPlayerRe.ReplaceAllString(f.Content, "you ")
	sentence = youFeelsRe.ReplaceAllString(sentence, "you felt ")
	sentence = strings.TrimRight(sentence, ".!? ")
	r, size := utf8.DecodeRuneInString(sentence)
	if size > 0 {
		sentence = string(unicode.ToLower(r)) + sentence[size:]
	}
	return "I remember " + sentence + "."
}
