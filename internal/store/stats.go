package store

import (
	"context"
	"os"
	"sort"
)

// Stats holds storage statistics.
type Stats struct {
	Backend      string     `json:"backend"`
	DBPath       string     `json:"db_path,omitempty"`
	DBSizeBytes  int64      `json:"db_size_bytes,omitempty"`
	TotalFacts   int        `json:"total_facts"`
	OpenTasks    int        `json:"open_tasks"`
	TotalEntries int        `json:"total_entries"`
	Settings     int        `json:"settings"`
	NPCs         []NPCStats `json:"npcs"`
}

// NPCStats holds per-NPC counts.
type NPCStats struct {
	NpcID   string `json:"npc_id"`
	Facts   int    `json:"facts"`
	Threads int    `json:"threads"`
	Entries int    `json:"entries"`
}

// Collect computes statistics over any Storage.
func Collect(ctx context.Context, s Storage) (*Stats, error) {
	st := &Stats{Backend: "memory"}
	if sq, ok := s.(*SQLiteStore); ok {
		st.Backend = "sqlite"
		st.DBPath = sq.Path()
		if info, err := os.Stat(sq.Path()); err == nil {
			st.DBSizeBytes = info.Size()
		}
	}

	facts, err := s.LoadFacts(ctx)
	if err != nil {
		return st, err
	}
	entries, err := s.LoadEntries(ctx)
	if err != nil {
		return st, err
	}
	settings, err := s.LoadSettings(ctx)
	if err != nil {
		return st, err
	}

	byNPC := map[string]*NPCStats{}
	threads := map[string]map[string]bool{}
	get := func(id string) *NPCStats {
		ns, ok := byNPC[id]
		if !ok {
			ns = &NPCStats{NpcID: id}
			byNPC[id] = ns
			threads[id] = map[string]bool{}
		}
		return ns
	}
	for _, f := range facts {
		ns := get(f.NpcID)
		ns.Facts++
		if f.ThreadID != "" && !threads[f.NpcID][f.ThreadID] {
			threads[f.NpcID][f.ThreadID] = true
			ns.Threads++
		}
		if f.IsOpenTask() {
			st.OpenTasks++
		}
	}
	for _, e := range entries {
		get(e.NpcID).Entries++
	}

	st.TotalFacts = len(facts)
	st.TotalEntries = len(entries)
	st.Settings = len(settings)
	for _, ns := range byNPC {
		st.NPCs = append(st.NPCs, *ns)
	}
	sort.Slice(st.NPCs, func(i, j int) bool {
		if st.NPCs[i].Facts != st.NPCs[j].Facts {
			return st.NPCs[i].Facts > st.NPCs[j].Facts
		}
		return st.NPCs[i].NpcID < st.NPCs[j].NpcID
	})
	return st, nil
}
