// Package retrieval ranks an NPC's memories and assembles the memory context
// and prompt used for a conversation turn.
package retrieval

import "github.com/rcliao/village-memory/internal/model"

// Weights balance the three ranking components.
type Weights struct {
	Recency  float64 `json:"recencyWeight"`
	Salience float64 `json:"salienceWeight"`
	Type     float64 `json:"typeWeight"`
}

// Personality shapes which memories an NPC surfaces and how it speaks.
type Personality struct {
	Key            string           `json:"key"`
	Title          string           `json:"title"`
	Tone           string           `json:"tone"`
	Focus          string           `json:"focus"`
	MemoryTypes    []model.FactType `json:"memoryTypes"`
	Weights        Weights          `json:"weights"`
	GreetingStyle  string           `json:"greetingStyle"`
	ReplyStyle     string           `json:"replyStyle"`
	PromptGuidance string           `json:"promptGuidance"`
}

// Focuses reports whether typ is one of the personality's focus types.
func (p Personality) Focuses(typ model.FactType) bool {
	for _, t := range p.MemoryTypes {
		if t == typ {
			return true
		}
	}
	return false
}

// Personality keys.
const (
	Bartender  = "bartender"
	Shopkeeper = "shopkeeper"
	Neighbor   = "neighbor"
	Librarian  = "librarian"
)

var personalities = map[string]Personality{
	Bartender: {
		Key:            Bartender,
		Title:          "Emotional Anchor",
		Tone:           "empathetic, warm, lightly humorous",
		Focus:          "feelings, stressors, coping routines, and mood shifts",
		MemoryTypes:    []model.FactType{model.TypeEmotion, model.TypeEvent, model.TypeRelationship},
		Weights:        Weights{Recency: 0.25, Salience: 0.45, Type: 0.3},
		GreetingStyle:  "smiles with a calm, grounding presence.",
		ReplyStyle:     "leans in gently, offering reassurance and a soft laugh.",
		PromptGuidance: "Reflect emotions, validate struggles, and suggest small comforts.",
	},
	Shopkeeper: {
		Key:            Shopkeeper,
		Title:          "Practical Helper",
		Tone:           "upbeat, efficient, detail-oriented",
		Focus:          "purchases, preferences, routines, schedules, and errands",
		MemoryTypes:    []model.FactType{model.TypeItem, model.TypePreference, model.TypeSchedule},
		Weights:        Weights{Recency: 0.3, Salience: 0.35, Type: 0.35},
		GreetingStyle:  "greets you with bright eyes and a ready checklist.",
		ReplyStyle:     "nods quickly, already thinking about practical next steps.",
		PromptGuidance: "Keep replies concise, actionable, and preference-aware.",
	},
	Neighbor: {
		Key:            Neighbor,
		Title:          "Social Connector",
		Tone:           "chatty, curious, community-focused",
		Focus:          "relationships, local events, introductions, and social energy",
		MemoryTypes:    []model.FactType{model.TypeRelationship, model.TypeEvent, model.TypeGoal},
		Weights:        Weights{Recency: 0.25, Salience: 0.3, Type: 0.45},
		GreetingStyle:  "waves eagerly, full of neighborhood warmth.",
		ReplyStyle:     "shares a friendly, inquisitive reply.",
		PromptGuidance: "Ask about people, invitations, and community happenings.",
	},
	Librarian: {
		Key:            Librarian,
		Title:          "Reflective Guide",
		Tone:           "thoughtful, gentle, precise",
		Focus:          "ideas, learning goals, books, and long-term projects",
		MemoryTypes:    []model.FactType{model.TypeGoal, model.TypePreference, model.TypeEvent},
		Weights:        Weights{Recency: 0.2, Salience: 0.35, Type: 0.45},
		GreetingStyle:  "offers a quiet smile, ready to listen.",
		ReplyStyle:     "responds with calm curiosity and careful phrasing.",
		PromptGuidance: "Invite reflection, curiosity, and follow-up exploration.",
	},
}

var personalityByID = map[string]string{
	"mira":         Neighbor,
	"theo":         Shopkeeper,
	"jun":          Librarian,
	"pia":          Bartender,
	"notice-board": Neighbor,
}

var personalityByRole = map[string]string{
	"Hall Host":      Neighbor,
	"Carpenter":      Shopkeeper,
	"Garden Keeper":  Librarian,
	"Market Scout":   Bartender,
	"Bulletin Board": Neighbor,
}

// PersonalityKey resolves the personality key by NPC id, then by role,
// falling back to the neighbor.
func PersonalityKey(npcID, role string) string {
	if k, ok := personalityByID[npcID]; ok {
		return k
	}
	if k, ok := personalityByRole[role]; ok {
		return k
	}
	return Neighbor
}

// Lookup returns the personality for an NPC.
func Lookup(npcID, role string) Personality {
	return personalities[PersonalityKey(npcID, role)]
}
