// Package automations holds the concrete automations shipped with memoriae.
// They are deliberately thin: each one exercises the engine end to end
// (pressure, scheduling, queueing, the tool loop) without much domain logic
// of its own.
package automations

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/harms-haus/memoriae/internal/automation"
	"github.com/harms-haus/memoriae/internal/category"
	"github.com/harms-haus/memoriae/internal/config"
	"github.com/harms-haus/memoriae/internal/db"
	"github.com/harms-haus/memoriae/internal/queue"
	"github.com/harms-haus/memoriae/internal/seed"
	"github.com/harms-haus/memoriae/internal/toolcall"
)

// TaggerID is the auto-tagger's stable identifier.
const TaggerID = "auto-tagger"

// taggerThreshold is the pressure at which re-tagging is triggered.
const taggerThreshold = 50.0

// Tagger asks the model to pick matching categories for a seed whenever the
// category tree around it has shifted enough.
type Tagger struct {
	queue *queue.Queue
	cfg   *config.Config
}

var (
	_ automation.Automation    = (*Tagger)(nil)
	_ automation.SeedValidator = (*Tagger)(nil)
)

// NewTagger creates the auto-tagger.
func NewTagger(q *queue.Queue, cfg *config.Config) *Tagger {
	return &Tagger{queue: q, cfg: cfg}
}

func (t *Tagger) ID() string   { return TaggerID }
func (t *Tagger) Name() string { return "Auto Tagger" }

func (t *Tagger) Enabled() bool {
	return !t.cfg.AutomationDisabled(TaggerID)
}

func (t *Tagger) PressureThreshold() (float64, bool) {
	return taggerThreshold, true
}

// CalculatePressure treats every structural change near a seed's tags as a
// reason to reconsider them. Renames and moves weigh more than removals: the
// seed's existing tags are likelier to have drifted in meaning.
func (t *Tagger) CalculatePressure(item *seed.Seed, actx *automation.Context, events []category.ChangeEvent) float64 {
	var total float64
	for _, ev := range events {
		switch ev.Kind {
		case category.ChangeRename, category.ChangeMove:
			total += 30
		case category.ChangeRemove:
			total += 20
		case category.ChangeAddChild:
			total += 15
		}
	}
	return total
}

func (t *Tagger) HandlePressure(ctx context.Context, item *seed.Seed, amount float64, actx *automation.Context) error {
	return t.queue.Enqueue(TaggerID, item.ID, actx.UserID, int(amount))
}

// ValidateSeed skips seeds with nothing to classify.
func (t *Tagger) ValidateSeed(item *seed.Seed) bool {
	return item.Status == seed.StatusActive &&
		strings.TrimSpace(item.Title+item.Content) != ""
}

func (t *Tagger) Process(ctx context.Context, item *seed.Seed, actx *automation.Context) ([]seed.Transaction, error) {
	if actx.LLM == nil {
		return nil, nil
	}

	categories, err := db.ListCategories(actx.DB, actx.UserID)
	if err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		return nil, nil
	}

	known := make(map[string]bool, len(categories))
	var catalog strings.Builder
	for _, c := range categories {
		known[c.ID] = true
		fmt.Fprintf(&catalog, "- %s (id: %s)\n", c.Path, c.ID)
	}

	loop := toolcall.NewLoop(actx.LLM, actx.Logger)
	result, err := loop.Run(ctx, toolcall.Request{
		SystemPrompt: "You classify personal idea notes into a category tree. " +
			"Pick only categories that genuinely fit; an empty selection is valid. " +
			"When you are done, call finish and answer with a JSON array of category ids.",
		UserPrompt: fmt.Sprintf(
			"Categories:\n%s\nNote title: %s\nNote content:\n%s\n\nWhich category ids apply?",
			catalog.String(), item.Title, item.Content),
		MaxIterations: t.cfg.ToolLoopMaxIterations,
	})
	if err != nil {
		return nil, err
	}

	picked := categoryIDs(result.Output)
	var txs []seed.Transaction
	for _, id := range picked {
		if !known[id] {
			actx.Logger.Debug("model picked unknown category", zap.String("category", id))
			continue
		}
		if item.HasCategory(id) {
			continue
		}
		txs = append(txs, seed.AddCategory(id))
	}
	return txs, nil
}

// categoryIDs extracts category IDs from the loop's final output, which is
// either a parsed JSON array or raw text that may still contain one.
func categoryIDs(output any) []string {
	switch v := output.(type) {
	case []any:
		var ids []string
		for _, e := range v {
			if s, ok := e.(string); ok && s != "" {
				ids = append(ids, s)
			}
		}
		return ids
	case string:
		var arr []any
		if err := json.Unmarshal([]byte(strings.TrimSpace(v)), &arr); err != nil {
			return nil
		}
		return categoryIDs(arr)
	default:
		return nil
	}
}
