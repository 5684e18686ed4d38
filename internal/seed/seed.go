// Package seed replays scripted conversations through the conversation log
// and the memory pipeline so a fresh village has something to remember.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/rcliao/village-memory/internal/memory"
	"github.com/rcliao/village-memory/internal/model"
)

//go:embed scripts.yaml
var defaultScripts []byte

// Turn is one scripted exchange.
type Turn struct {
	Player string `yaml:"player" json:"player"`
	NPC    string `yaml:"npc" json:"npc"`
}

// Script is the conversation replayed with one NPC.
type Script struct {
	NpcID string `yaml:"npc_id" json:"npcId"`
	Turns []Turn `yaml:"turns" json:"turns"`
}

// Pipeline consumes player entries.
type Pipeline interface {
	ExtractAndStore(ctx context.Context, entry model.ConversationEntry) (*memory.Result, error)
}

// EntryLog records the replayed lines.
type EntryLog interface {
	Append(ctx context.Context, e model.ConversationEntry) (model.ConversationEntry, error)
	ActiveDay() int
}

// DefaultScripts returns the built-in scripts.
func DefaultScripts() ([]Script, error) {
	return LoadScripts(bytes.NewReader(defaultScripts))
}

// LoadScripts decodes a YAML list of scripts.
func LoadScripts(r io.Reader) ([]Script, error) {
	var scripts []Script
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&scripts); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode scripts: %w", err)
	}
	for i, s := range scripts {
		if s.NpcID == "" {
			return nil, fmt.Errorf("scripts[%d]: npc_id is required", i)
		}
	}
	return scripts, nil
}

// ForRoster picks a script for every NPC in roster order. NPCs without one
// get a short generic script.
func ForRoster(scripts []Script, npcs []model.NPC) []Script {
	byID := make(map[string]Script, len(scripts))
	for _, s := range scripts {
		byID[s.NpcID] = s
	}
	out := make([]Script, 0, len(npcs))
	for _, npc := range npcs {
		if s, ok := byID[npc.ID]; ok {
			out = append(out, s)
			continue
		}
		out = append(out, fallbackScript(npc))
	}
	return out
}

func fallbackScript(npc model.NPC) Script {
	return Script{
		NpcID: npc.ID,
		Turns: []Turn{
			{
				Player: fmt.Sprintf("I feel grateful for how calm the plaza felt today, %s.", npc.Name),
				NPC:    npc.Name + " nods thoughtfully and listens.",
			},
			{
				Player: "I like warm tea, and I plan to rest tomorrow.",
				NPC:    npc.Name + " smiles and offers a gentle suggestion.",
			},
		},
	}
}

// NPCResult summarizes one replayed script.
type NPCResult struct {
	NpcID      string `json:"npcId"`
	EntryCount int    `json:"entryCount"`
	FactsAdded int    `json:"factsAdded"`
	TotalFacts int    `json:"totalFacts"`
}

// Result summarizes a replay.
type Result struct {
	DayIndex        int         `json:"dayIndex"`
	TotalEntries    int         `json:"totalEntries"`
	TotalFactsAdded int         `json:"totalFactsAdded"`
	GeneratedAt     time.Time   `json:"generatedAt"`
	PerNPC          []NPCResult `json:"perNpc"`
}

// Options tune a replay.
type Options struct {
	Now    func() time.Time
	Logger *slog.Logger
}

// Run replays scripts on the log's active day. Scripts for different NPCs
// run concurrently; turns within a script keep their order and get
// timestamps one second apart.
func Run(ctx context.Context, p Pipeline, log EntryLog, scripts []Script, opts Options) (*Result, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	logger := opts.Logger.With("component", "seed")

	day := log.ActiveDay()
	base := opts.Now().UTC()
	results := make([]NPCResult, len(scripts))

	g, gctx := errgroup.WithContext(ctx)
	for i, script := range scripts {
		i, script := i, script
		g.Go(func() error {
			res, err := runScript(gctx, p, log, script, day, base)
			if err != nil {
				return fmt.Errorf("seed %s: %w", script.NpcID, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &Result{DayIndex: day, GeneratedAt: base, PerNPC: results}
	for _, r := range results {
		out.TotalEntries += r.EntryCount
		out.TotalFactsAdded += r.FactsAdded
	}
	logger.Info("synthetic chat seeded", "day", day, "entries", out.TotalEntries, "facts_added", out.TotalFactsAdded)
	return out, nil
}

func runScript(ctx context.Context, p Pipeline, log EntryLog, s Script, day int, base time.Time) (NPCResult, error) {
	res := NPCResult{NpcID: s.NpcID}
	tick := 0
	next := func() time.Time {
		t := base.Add(time.Duration(tick) * time.Second)
		tick++
		return t
	}

	for _, turn := range s.Turns {
		player, err := log.Append(ctx, model.ConversationEntry{
			NpcID: s.NpcID, Speaker: model.SpeakerPlayer, Text: turn.Player, DayIndex: day, Timestamp: next(),
		})
		if err != nil {
			return res, err
		}
		if _, err := log.Append(ctx, model.ConversationEntry{
			NpcID: s.NpcID, Speaker: model.SpeakerNPC, Text: turn.NPC, DayIndex: day, Timestamp: next(),
		}); err != nil {
			return res, err
		}
		res.EntryCount += 2

		mr, err := p.ExtractAndStore(ctx, player)
		if err != nil {
			return res, err
		}
		res.FactsAdded += mr.Added
		res.TotalFacts = mr.TotalFacts
	}
	return res, nil
}
