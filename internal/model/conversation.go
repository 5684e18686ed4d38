package model

import "time"

// Speaker identifies who said a conversation line.
type Speaker string

const (
	SpeakerPlayer Speaker = "player"
	SpeakerNPC    Speaker = "npc"
)

// ConversationEntry is one utterance in the append-only conversation log.
type ConversationEntry struct {
	ID        string    `json:"id"`
	NpcID     string    `json:"npcId"`
	DayIndex  int       `json:"dayIndex"`
	Timestamp time.Time `json:"timestamp"`
	Speaker   Speaker   `json:"speaker"`
	Text      string    `json:"text"`
}
