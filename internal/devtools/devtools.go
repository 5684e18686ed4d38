// Package devtools builds inspection views over stored memories: a link
// graph and facts grouped by thread.
package devtools

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rcliao/village-memory/internal/memory"
	"github.com/rcliao/village-memory/internal/model"
)

// Unthreaded groups facts that have no thread.
const Unthreaded = "unthreaded"

// Node is one fact in the memory graph.
type Node struct {
	ID              string         `json:"id"`
	NpcID           string         `json:"npcId"`
	Type            model.FactType `json:"type"`
	Content         string         `json:"content"`
	Status          model.Status   `json:"status,omitempty"`
	ThreadID        string         `json:"threadId,omitempty"`
	ThreadSequence  int            `json:"threadSequence,omitempty"`
	Anchors         []model.Anchor `json:"anchors"`
	LinkCount       int            `json:"linkCount"`
	LastMentionedAt time.Time      `json:"lastMentionedAt"`
}

// Edge is one link whose target exists.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label"`
}

// Graph is the memory link graph.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// BuildGraph returns nodes newest first and one edge per distinct link.
// Links to facts outside the set are dropped.
func BuildGraph(facts []model.MemoryFact) Graph {
	sorted := append([]model.MemoryFact(nil), facts...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].LastMentionedAt.After(sorted[j].LastMentionedAt)
	})

	ids := make(map[string]bool, len(sorted))
	for _, f := range sorted {
		ids[f.ID] = true
	}

	g := Graph{Nodes: make([]Node, 0, len(sorted)), Edges: []Edge{}}
	seen := map[Edge]bool{}
	counts := map[string]int{}
	for _, f := range sorted {
		for _, l := range f.Links {
			e := Edge{Source: f.ID, Target: l.TargetID, Label: l.Label}
			if !ids[l.TargetID] || seen[e] {
				continue
			}
			seen[e] = true
			counts[f.ID]++
			g.Edges = append(g.Edges, e)
		}
	}
	for _, f := range sorted {
		anchors := f.Anchors
		if anchors == nil {
			anchors = []model.Anchor{}
		}
		g.Nodes = append(g.Nodes, Node{
			ID:              f.ID,
			NpcID:           f.NpcID,
			Type:            f.Type,
			Content:         f.Content,
			Status:          f.Status,
			ThreadID:        f.ThreadID,
			ThreadSequence:  f.ThreadSequence,
			Anchors:         anchors,
			LinkCount:       counts[f.ID],
			LastMentionedAt: f.LastMentionedAt,
		})
	}
	return g
}

// ThreadGroup is the facts of one thread in sequence order.
type ThreadGroup struct {
	ThreadID        string             `json:"threadId"`
	Label           string             `json:"label"`
	NpcID           string             `json:"npcId,omitempty"`
	LastMentionedAt time.Time          `json:"lastMentionedAt"`
	Facts           []model.MemoryFact `json:"facts"`
	HasOpenTasks    bool               `json:"hasOpenTasks"`
}

// GroupByThread groups facts by thread id, most recently active thread
// first. Facts without a thread land in the Unthreaded group.
func GroupByThread(facts []model.MemoryFact) []ThreadGroup {
	index := map[string]int{}
	var groups []ThreadGroup
	for _, f := range facts {
		id := f.ThreadID
		if id == "" {
			id = Unthreaded
		}
		i, ok := index[id]
		if !ok {
			i = len(groups)
			index[id] = i
			groups = append(groups, newGroup(id))
		}
		g := &groups[i]
		g.Facts = append(g.Facts, f)
		if f.LastMentionedAt.After(g.LastMentionedAt) {
			g.LastMentionedAt = f.LastMentionedAt
		}
		if f.IsOpenTask() {
			g.HasOpenTasks = true
		}
	}

	for i := range groups {
		fs := groups[i].Facts
		sort.SliceStable(fs, func(a, b int) bool {
			sa, sb := sequenceKey(fs[a]), sequenceKey(fs[b])
			if sa != sb {
				return sa < sb
			}
			return fs[a].CreatedAt.Before(fs[b].CreatedAt)
		})
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].LastMentionedAt.After(groups[j].LastMentionedAt)
	})
	return groups
}

func newGroup(threadID string) ThreadGroup {
	if threadID == Unthreaded {
		return ThreadGroup{ThreadID: threadID, Label: "Unthreaded"}
	}
	label := memory.ThreadLabel(threadID)
	if label == "" {
		label = "Thread"
	}
	npc, _, _ := strings.Cut(threadID, ":")
	return ThreadGroup{ThreadID: threadID, Label: label, NpcID: npc}
}

// Facts without a sequence sort after every sequenced fact.
func sequenceKey(f model.MemoryFact) int {
	if f.ThreadSequence <= 0 {
		return math.MaxInt
	}
	return f.ThreadSequence
}
