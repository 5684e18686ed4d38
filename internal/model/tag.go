package model

import (
	"fmt"
	"strings"
)

// Tag groups used across extraction and threading.
const (
	GroupType         = "type"
	GroupDay          = "day"
	GroupNPC          = "npc"
	GroupPlace        = "place"
	GroupPerson       = "person"
	GroupProject      = "project"
	GroupActivity     = "activity"
	GroupMaterial     = "material"
	GroupTool         = "tool"
	GroupPlant        = "plant"
	GroupProduct      = "product"
	GroupGenre        = "genre"
	GroupTitle        = "title"
	GroupEmotion      = "emotion"
	GroupPreference   = "preference"
	GroupGoal         = "goal"
	GroupTask         = "task"
	GroupRelationship = "relationship"
	GroupSchedule     = "schedule"
	GroupItem         = "item"
	GroupEvent        = "event"
)

// GeneralValue marks the catch-all event tag.
const GeneralValue = "general"

// Tag is a "group:value" label. It serializes to its string form.
type Tag struct {
	Group string
	Value string
}

// NewTag builds a tag with a normalized value.
func NewTag(group, value string) Tag {
	return Tag{Group: group, Value: NormalizeValue(value)}
}

// String renders the tag as "group:value".
func (t Tag) String() string {
	return t.Group + ":" + t.Value
}

// ParseTag parses a "group:value" string.
func ParseTag(s string) (Tag, error) {
	group, value, ok := strings.Cut(s, ":")
	if !ok || group == "" || value == "" {
		return Tag{}, fmt.Errorf("invalid tag %q", s)
	}
	return Tag{Group: group, Value: value}, nil
}

// MarshalText implements encoding.TextMarshaler.
func (t Tag) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tag) UnmarshalText(b []byte) error {
	parsed, err := ParseTag(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// UnionTags appends the tags of b missing from a, preserving order.
func UnionTags(a, b []Tag) []Tag {
	out := make([]Tag, 0, len(a)+len(b))
	seen := make(map[Tag]bool, len(a)+len(b))
	for _, list := range [][]Tag{a, b} {
		for _, t := range list {
			if seen[t] {
				continue
			}
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
