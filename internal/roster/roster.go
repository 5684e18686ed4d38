// Package roster lists the villagers the player can talk to.
package roster

import (
	"strings"

	"github.com/rcliao/village-memory/internal/model"
)

// Default is the built-in village roster.
var Default = []model.NPC{
	{ID: "mira", Name: "Mira", Role: "Hall Host"},
	{ID: "theo", Name: "Theo", Role: "Carpenter"},
	{ID: "jun", Name: "Jun", Role: "Garden Keeper"},
	{ID: "pia", Name: "Pia", Role: "Market Scout"},
}

// Roster is an ordered set of NPCs.
type Roster []model.NPC

// Find looks an NPC up by id or case-insensitive name.
func (r Roster) Find(key string) (model.NPC, bool) {
	for _, n := range r {
		if n.ID == key || strings.EqualFold(n.Name, key) {
			return n, true
		}
	}
	return model.NPC{}, false
}

// IDs returns the NPC ids in roster order.
func (r Roster) IDs() []string {
	ids := make([]string, len(r))
	for i, n := range r {
		ids[i] = n.ID
	}
	return ids
}
