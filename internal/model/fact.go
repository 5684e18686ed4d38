// Package model defines the core memory data types.
package model

import "time"

// FactType is the closed set of memory fact kinds.
type FactType string

const (
	TypeEmotion      FactType = "emotion"
	TypePreference   FactType = "preference"
	TypeRelationship FactType = "relationship"
	TypeSchedule     FactType = "schedule"
	TypeGoal         FactType = "goal"
	TypeTask         FactType = "task"
	TypeItem         FactType = "item"
	TypeEvent        FactType = "event"
)

// ValidTypes are the allowed fact types.
var ValidTypes = map[FactType]bool{
	TypeEmotion:      true,
	TypePreference:   true,
	TypeRelationship: true,
	TypeSchedule:     true,
	TypeGoal:         true,
	TypeTask:         true,
	TypeItem:         true,
	TypeEvent:        true,
}

// Status is the lifecycle state of a task fact.
type Status string

const (
	StatusOpen Status = "open"
	StatusDone Status = "done"
)

// ValidStatuses are the allowed task statuses. The empty status means unset.
var ValidStatuses = map[Status]bool{
	"":         true,
	StatusOpen: true,
	StatusDone: true,
}

// Anchor is a normalized entity reference used to relate facts.
type Anchor struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Key returns the "type:value" identity of the anchor.
func (a Anchor) Key() string {
	return a.Type + ":" + a.Value
}

// Link is a directed, labeled reference to another fact.
type Link struct {
	TargetID string `json:"targetId"`
	Label    string `json:"label"`
}

// Link labels.
const (
	LabelRelated       = "related to"
	LabelContext       = "context"
	LabelCreatedBy     = "created by"
	LabelCreatorOf     = "creator of"
	LabelArtistInGenre = "artist in genre"
	LabelGenreOfArtist = "genre of artist"
)

// ValidLabels are the allowed link labels.
var ValidLabels = map[string]bool{
	LabelRelated:       true,
	LabelContext:       true,
	LabelCreatedBy:     true,
	LabelCreatorOf:     true,
	LabelArtistInGenre: true,
	LabelGenreOfArtist: true,
}

// MemoryFact is one structured memory an NPC holds about the player.
type MemoryFact struct {
	ID              string    `json:"id"`
	NpcID           string    `json:"npcId"`
	Type            FactType  `json:"type"`
	Content         string    `json:"content"`
	Tags            []Tag     `json:"tags"`
	Salience        float64   `json:"salience"`
	Mentions        int       `json:"mentions"`
	Status          Status    `json:"status,omitempty"`
	ThreadID        string    `json:"threadId,omitempty"`
	ThreadSequence  int       `json:"threadSequence,omitempty"`
	Anchors         []Anchor  `json:"anchors,omitempty"`
	Links           []Link    `json:"links,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	LastMentionedAt time.Time `json:"lastMentionedAt"`
}

// SemanticKey identifies the logical memory independent of its id.
func (f MemoryFact) SemanticKey() string {
	return f.NpcID + "|" + string(f.Type) + "|" + NormalizeText(f.Content)
}

// HasTag reports whether the fact carries the tag.
func (f MemoryFact) HasTag(t Tag) bool {
	for _, tag := range f.Tags {
		if tag == t {
			return true
		}
	}
	return false
}

// TagValues returns the values of every tag in the group.
func (f MemoryFact) TagValues(group string) []string {
	var out []string
	for _, tag := range f.Tags {
		if tag.Group == group {
			out = append(out, tag.Value)
		}
	}
	return out
}

// IsOpenTask reports whether the fact is a task that is not done.
func (f MemoryFact) IsOpenTask() bool {
	return f.Type == TypeTask && f.Status != StatusDone
}

// Clone returns a deep copy so callers can mutate slices freely.
func (f MemoryFact) Clone() MemoryFact {
	c := f
	c.Tags = append([]Tag(nil), f.Tags...)
	c.Anchors = append([]Anchor(nil), f.Anchors...)
	c.Links = append([]Link(nil), f.Links...)
	return c
}
