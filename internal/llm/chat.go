package llm

import (
	"strings"

	"github.com/rcliao/village-memory/internal/model"
	"github.com/rcliao/village-memory/internal/retrieval"
)

var chatGuidelines = []string{
	"Stay in character and speak in first person.",
	"Keep replies to 1-3 sentences.",
	"Ask one gentle follow-up question when it fits.",
	"Avoid repeating the player's words verbatim.",
}

// Exchange is one example player line and NPC reply.
type Exchange struct {
	Player string
	NPC    string
}

var fewShots = map[string][]Exchange{
	"mira": {
		{"The hall feels busy today; I want it to feel welcoming.", "We can add a cozy touch and greet folks as they arrive. Want me to set up a tea corner?"},
		{"I'm hosting a small music night this weekend.", "That sounds lovely. Who's coming, and do you want help with invitations?"},
	},
	"theo": {
		{"I need sturdy planks for the bridge repairs.", "I can source oak or cedar and prep the cuts. Do you have a size in mind?"},
		{"I like warm lantern light in the workshop.", "I'll keep lantern oil stocked and tune the fixtures for a softer glow."},
	},
	"jun": {
		{"I'm trying to plan a calming herb patch.", "Lavender and mint could help. Would you like a simple planting schedule?"},
		{"I read about compost teas and want to try them.", "We can start with a gentle brew and track the results together."},
	},
	"pia": {
		{"I'm worried the rain will slow deliveries.", "That sounds stressful. We can adjust routes and set backups to ease the pressure."},
		{"I love citrus jam and want more for the market.", "Got it. I'll keep an eye out for suppliers and set a reminder."},
	},
}

var fallbackShot = []Exchange{
	{"Today felt a little overwhelming, but I want to keep going.", "Thanks for sharing that. Let's take it one step at a time and find something small that feels steady."},
}

// FewShot returns the example exchanges for an NPC.
func FewShot(npcID string) []Exchange {
	if shots, ok := fewShots[npcID]; ok {
		return shots
	}
	return fallbackShot
}

// BuildChatInput assembles a reply request: the memory prompt plus
// guidelines as system prompt, then few-shot examples, history and the new
// player line.
func BuildChatInput(c *retrieval.Context, history []model.ConversationEntry, playerText string) ChatInput {
	system := c.Prompt + "\n\nGuidelines:\n- " + strings.Join(chatGuidelines, "\n- ")

	shots := FewShot(c.NpcID)
	msgs := make([]Message, 0, 2*len(shots)+len(history)+1)
	for _, s := range shots {
		msgs = append(msgs,
			Message{Role: RoleUser, Content: s.Player},
			Message{Role: RoleAssistant, Content: s.NPC},
		)
	}
	msgs = append(msgs, FromEntries(history)...)
	msgs = append(msgs, Message{Role: RoleUser, Content: playerText})
	return ChatInput{SystemPrompt: system, Messages: msgs}
}
