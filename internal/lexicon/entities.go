package lexicon

import "github.com/rcliao/village-memory/internal/model"

// Entry is one canonical entity and the phrases that refer to it.
type Entry struct {
	Value   string
	Aliases []string
}

// Table groups entries under a tag group.
type Table struct {
	Group   string
	Entries []Entry
}

func entry(value string, aliases ...string) Entry {
	return Entry{Value: value, Aliases: append([]string{value}, aliases...)}
}

// Places around the village.
var Places = Table{Group: model.GroupPlace, Entries: []Entry{
	entry("community hall", "the hall", "town hall"),
	entry("craft shop", "carpentry shop"),
	entry("grove", "the grove", "orchard"),
	entry("market", "market corner", "market stalls"),
	entry("notice board", "bulletin board"),
	entry("plaza", "town square", "square"),
	entry("creek", "stream"),
	entry("coast", "beach", "shore"),
	entry("pond"),
	entry("library"),
	entry("cafe", "tea house"),
}}

// Projects the player works on with villagers.
var Projects = Table{Group: model.GroupProject, Entries: []Entry{
	entry("bridge", "bridges"),
	entry("bench", "benches"),
	entry("workshop"),
	entry("garden bed", "garden beds", "raised bed"),
	entry("herb patch", "herb garden"),
	entry("playlist", "playlists", "mixtape"),
	entry("music night", "concert"),
	entry("mural"),
	entry("festival", "fete"),
	entry("fence", "fences"),
	entry("greenhouse"),
	entry("market stall", "stall"),
}}

// Activities the player does.
var Activities = Table{Group: model.GroupActivity, Entries: []Entry{
	entry("build", "building", "built", "builds"),
	entry("plant", "planting", "planted"),
	entry("cook", "cooking", "cooked", "bake", "baking"),
	entry("paint", "painting", "painted"),
	entry("fish", "fishing"),
	entry("garden", "gardening"),
	entry("decorate", "decorating"),
	entry("host", "hosting"),
	entry("repair", "repairing", "repairs", "fix", "fixing"),
	entry("sketch", "sketching", "drawing"),
	entry("read", "reading"),
	entry("hike", "hiking", "walk", "walking"),
	entry("dance", "dancing"),
	entry("sing", "singing"),
}}

// Materials used in crafting.
var Materials = Table{Group: model.GroupMaterial, Entries: []Entry{
	entry("cedar"),
	entry("oak"),
	entry("pine"),
	entry("maple"),
	entry("stone", "stones"),
	entry("clay"),
	entry("rope"),
	entry("nails", "nail"),
	entry("planks", "plank", "boards"),
	entry("fabric", "cloth"),
	entry("yarn"),
	entry("glass"),
}}

// Tools.
var Tools = Table{Group: model.GroupTool, Entries: []Entry{
	entry("hammer"),
	entry("saw"),
	entry("chisel"),
	entry("drill"),
	entry("shovel"),
	entry("trowel"),
	entry("watering can"),
	entry("paintbrush", "brush"),
	entry("ladder"),
}}

// Plants tended in the grove and gardens.
var Plants = Table{Group: model.GroupPlant, Entries: []Entry{
	entry("basil"),
	entry("tulips", "tulip"),
	entry("roses", "rose"),
	entry("chamomile"),
	entry("mint"),
	entry("lavender"),
	entry("sunflowers", "sunflower"),
	entry("tomatoes", "tomato"),
	entry("herbs", "herb"),
	entry("seedlings", "seedling", "seeds"),
}}

// Products sold or shared around the village.
var Products = Table{Group: model.GroupProduct, Entries: []Entry{
	entry("tea"),
	entry("scones", "scone"),
	entry("jam", "citrus jam"),
	entry("honey"),
	entry("bread", "loaf"),
	entry("lantern", "lanterns", "lantern oil"),
	entry("checklist", "to-do list", "list"),
	entry("flyer", "flyers", "poster", "posters"),
	entry("cider"),
	entry("pie", "pies"),
}}

// StaticTables are the entity tables that do not depend on the roster.
var StaticTables = []Table{Places, Projects, Activities, Materials, Tools, Plants, Products}
