package model

// NPC identifies a villager the player can talk to.
type NPC struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Role string `json:"role" yaml:"role"`
}
