package retrieval

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rcliao/village-memory/internal/model"
)

const proactivity = "Be proactive: bring up a relevant memory or open task when it fits, and nudge the player toward their current goal."

var playerPrefixRe = regexp.MustCompile(`(?i)^player\s+`)

// BuildPrompt renders the memory prompt for c. Sections with nothing to say
// are left out, except key memories which always render.
func BuildPrompt(npc model.NPC, c *Context) string {
	p := c.Personality
	lines := []string{
		fmt.Sprintf("You are %s, the %s.", npc.Name, npc.Role),
		fmt.Sprintf("%s. Tone: %s.", p.Title, p.Tone),
		fmt.Sprintf("Focus: %s.", p.Focus),
		p.PromptGuidance,
		proactivity,
	}

	if len(c.TopMemories) == 0 {
		lines = append(lines, "Key memories: none yet.")
	} else {
		lines = append(lines, "Key memories:\n"+bullets(c.TopMemories, formatFact))
	}
	if len(c.LinkedMemories) > 0 {
		lines = append(lines, "Linked memories:\n"+bullets(c.LinkedMemories, formatFact))
	}
	if len(c.PlayerInsights) > 0 {
		lines = append(lines, "Player insights:\n"+bullets(c.PlayerInsights, func(in model.PlayerInsight) string {
			return fmt.Sprintf("%s (%s)", in.Text, in.Category)
		}))
	}
	if c.ActiveTask != nil {
		lines = append(lines, "Active task: "+formatFact(*c.ActiveTask))
	}
	if c.ActiveThread != nil {
		lines = append(lines, fmt.Sprintf("Active thread: %s (step %d)", c.ActiveThread.Label, c.ActiveThread.Sequence))
	}
	if c.FocusQuestion != "" {
		lines = append(lines, "Focus question: "+c.FocusQuestion)
	}
	if len(c.RecentConversation) > 0 {
		lines = append(lines, "Recent conversation snippets:\n"+bullets(c.RecentConversation, func(e model.ConversationEntry) string {
			speaker := "Player"
			if e.Speaker == model.SpeakerNPC {
				speaker = npc.Name
			}
			return speaker + ": " + e.Text
		}))
	}
	return strings.Join(lines, "\n")
}

func formatFact(f model.MemoryFact) string {
	return playerPrefixRe.ReplaceAllString(f.Content, "The player ")
}

func bullets[T any](items []T, format func(T) string) string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = "- " + format(it)
	}
	return strings.Join(out, "\n")
}
