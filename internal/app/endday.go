package app

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/rcliao/village-memory/internal/daysummary"
	"github.com/rcliao/village-memory/internal/llm"
	"github.com/rcliao/village-memory/internal/model"
	"github.com/rcliao/village-memory/internal/profile"
)

// ErrDayIncomplete is returned when ending a day before every villager was
// visited.
var ErrDayIncomplete = errors.New("day is not complete")

const (
	quietSummary     = "The village feels quiet tonight. You can still start a new day."
	kickoffLimit     = 4
	dayInsightLimit  = 4
	summaryParagraph = 2
)

// EndDayResult is what the player sees when a day closes.
type EndDayResult struct {
	Snapshot daysummary.Snapshot `json:"snapshot"`
	NextDay  int                 `json:"nextDay"`
	Warnings []string            `json:"warnings,omitempty"`
}

// EndDay summarizes the active day, folds new insights into the player
// profile, proposes activities for tomorrow and advances the day. Without
// force the day must be complete. LLM failures fall back to rule-based
// output and are reported as warnings.
func (a *App) EndDay(ctx context.Context, force bool) (*EndDayResult, error) {
	if !force && !a.Days.IsComplete() {
		st := a.Days.State()
		return nil, fmt.Errorf("%w: visited %d of %d villagers", ErrDayIncomplete, len(st.VisitedNpcIDs), len(a.Days.Required()))
	}
	day := a.Days.State().DayIndex
	now := a.now().UTC()

	entries, err := a.Log.ForDay(ctx, day)
	if err != nil {
		return nil, err
	}
	facts, err := a.Facts.All(ctx)
	if err != nil {
		return nil, err
	}

	res := &EndDayResult{}
	convo := a.dayConversation(entries)
	summary, seeds := a.reflect(ctx, day, convo, res)

	p, err := a.Profiles.Apply(ctx, seeds, now)
	if err != nil {
		return nil, err
	}

	snap := daysummary.Snapshot{
		DayIndex:       day,
		Summary:        summary,
		Highlights:     daysummary.BuildHighlights(facts, a.Roster, day),
		Suggestions:    a.suggest(ctx, day, summary, p.Insights, facts, res),
		PlayerInsights: insightsFor(p, seeds),
		CreatedAt:      now,
	}
	if err := a.Summaries.Save(ctx, snap); err != nil {
		return nil, err
	}

	state, err := a.Days.Advance(ctx)
	if err != nil {
		return nil, err
	}
	a.Log.SetActiveDay(state.DayIndex)
	a.logger.Info("day ended", "day", day, "next_day", state.DayIndex,
		"highlights", len(snap.Highlights), "suggestions", len(snap.Suggestions), "insights", len(seeds))

	res.Snapshot = snap
	res.NextDay = state.DayIndex
	return res, nil
}

// reflect runs the summary and player analysis side by side.
func (a *App) reflect(ctx context.Context, day int, convo []llm.Message, res *EndDayResult) (string, []model.InsightSeed) {
	if a.LLM == nil {
		res.Warnings = append(res.Warnings, "Summary unavailable right now.")
		return quietSummary, nil
	}

	var (
		summary     = quietSummary
		seeds       []model.InsightSeed
		summaryErr  error
		analysisErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := a.LLM.SummarizeDay(gctx, llm.SummaryInput{DayIndex: day, Conversation: convo, MaxParagraphs: summaryParagraph})
		if err != nil {
			summaryErr = err
			return nil
		}
		summary = out.Summary
		return nil
	})
	g.Go(func() error {
		out, err := a.LLM.AnalyzePlayer(gctx, llm.InsightInput{Conversation: convo, MaxInsights: dayInsightLimit})
		if err != nil {
			analysisErr = err
			return nil
		}
		seeds = out.Insights
		return nil
	})
	_ = g.Wait()

	if summaryErr != nil {
		a.logger.Warn("day summary failed", "day", day, "err", summaryErr)
		res.Warnings = append(res.Warnings, "Summary unavailable right now.")
		summary = quietSummary
	}
	if analysisErr != nil {
		a.logger.Warn("player analysis failed", "day", day, "err", analysisErr)
	}
	return summary, seeds
}

func (a *App) suggest(ctx context.Context, day int, summary string, insights []model.PlayerInsight, facts []model.MemoryFact, res *EndDayResult) []daysummary.Suggestion {
	fallback := daysummary.BuildSuggestionFallbacks(facts, day, kickoffLimit)
	if a.LLM == nil {
		return fallback
	}
	out, err := a.LLM.SuggestNextDay(ctx, llm.KickoffInput{
		DayIndex:        day + 1,
		PreviousSummary: summary,
		Insights:        insights,
		MaxSuggestions:  kickoffLimit,
	})
	if err != nil {
		a.logger.Warn("next day suggestions failed", "day", day+1, "err", err)
		res.Warnings = append(res.Warnings, "Suggestions unavailable right now.")
		return fallback
	}
	if len(out.Suggestions) == 0 {
		return fallback
	}
	suggestions := make([]daysummary.Suggestion, len(out.Suggestions))
	for i, s := range out.Suggestions {
		suggestions[i] = daysummary.Suggestion{Title: s.Title, Detail: s.Detail}
	}
	return suggestions
}

// dayConversation renders a day's entries for the summary prompts.
func (a *App) dayConversation(entries []model.ConversationEntry) []llm.Message {
	if len(entries) == 0 {
		return []llm.Message{{Role: llm.RoleUser, Content: "No conversations were recorded today."}}
	}
	out := make([]llm.Message, len(entries))
	for i, e := range entries {
		speaker, role := "Player", llm.RoleUser
		if e.Speaker == model.SpeakerNPC {
			role = llm.RoleAssistant
			speaker = e.NpcID
			if npc, ok := a.Roster.Find(e.NpcID); ok {
				speaker = npc.Name
			}
		}
		out[i] = llm.Message{Role: role, Content: speaker + ": " + e.Text}
	}
	return out
}

// insightsFor returns the merged profile entries for the day's seeds.
func insightsFor(p model.PlayerProfile, seeds []model.InsightSeed) []model.PlayerInsight {
	ids := make([]string, 0, len(seeds))
	for _, s := range seeds {
		ids = append(ids, profile.InsightID(s.Category, s.Text))
	}
	var out []model.PlayerInsight
	for _, in := range p.Insights {
		if slices.Contains(ids, in.ID) {
			out = append(out, in)
		}
	}
	return out
}
