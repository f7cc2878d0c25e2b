package automations

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harms-haus/memoriae/internal/automation"
	"github.com/harms-haus/memoriae/internal/category"
	"github.com/harms-haus/memoriae/internal/config"
	"github.com/harms-haus/memoriae/internal/db"
	"github.com/harms-haus/memoriae/internal/queue"
	"github.com/harms-haus/memoriae/internal/seed"
)

// FollowUpID is the follow-up nudger's stable identifier.
const FollowUpID = "follow-up"

const followUpThreshold = 60.0

// followUpNotePrefix marks the nudger's own notes in a seed's log. The daily
// idempotence check keys on it.
const followUpNotePrefix = "Follow-up due"

// FollowUp nudges seeds whose scheduled follow-up date has arrived by
// appending a note to their log, at most once per day.
type FollowUp struct {
	queue *queue.Queue
	cfg   *config.Config

	// now is replaceable in tests
	now func() time.Time
}

var (
	_ automation.Automation    = (*FollowUp)(nil)
	_ automation.SeedValidator = (*FollowUp)(nil)
)

// NewFollowUp creates the follow-up nudger.
func NewFollowUp(q *queue.Queue, cfg *config.Config) *FollowUp {
	return &FollowUp{queue: q, cfg: cfg, now: time.Now}
}

func (f *FollowUp) ID() string   { return FollowUpID }
func (f *FollowUp) Name() string { return "Follow-Up Nudger" }

func (f *FollowUp) Enabled() bool {
	return !f.cfg.AutomationDisabled(FollowUpID)
}

func (f *FollowUp) PressureThreshold() (float64, bool) {
	return followUpThreshold, true
}

// CalculatePressure only reacts to removals: losing a tagged category is a
// signal the seed may be falling off the owner's radar.
func (f *FollowUp) CalculatePressure(item *seed.Seed, actx *automation.Context, events []category.ChangeEvent) float64 {
	if item.FollowUpAt == 0 {
		return 0
	}
	var total float64
	for _, ev := range events {
		if ev.Kind == category.ChangeRemove {
			total += 20
		}
	}
	return total
}

func (f *FollowUp) HandlePressure(ctx context.Context, item *seed.Seed, amount float64, actx *automation.Context) error {
	return f.queue.Enqueue(FollowUpID, item.ID, actx.UserID, int(amount))
}

// ValidateSeed skips seeds with no follow-up scheduled.
func (f *FollowUp) ValidateSeed(item *seed.Seed) bool {
	return item.Status == seed.StatusActive && item.FollowUpAt > 0
}

// Process appends the nudge note if the follow-up is due. It reads the
// seed's own log to stay idempotent per calendar day, so running twice in
// one day adds nothing.
func (f *FollowUp) Process(ctx context.Context, item *seed.Seed, actx *automation.Context) ([]seed.Transaction, error) {
	now := f.now()
	if item.FollowUpAt == 0 || item.FollowUpAt > now.Unix() {
		return nil, nil
	}

	log, err := db.LoadTransactions(actx.DB, item.ID)
	if err != nil {
		return nil, err
	}
	today := now.UTC().Format("2006-01-02")
	for _, tx := range log {
		if tx.Type != seed.TxNoteAdded {
			continue
		}
		note, _ := tx.Payload["note"].(string)
		if !strings.HasPrefix(note, followUpNotePrefix) {
			continue
		}
		if time.Unix(tx.CreatedAt, 0).UTC().Format("2006-01-02") == today {
			return nil, nil
		}
	}

	subject := item.Title
	if subject == "" {
		subject = item.ID
	}
	note := fmt.Sprintf("%s: %s (scheduled %s)",
		followUpNotePrefix, subject,
		time.Unix(item.FollowUpAt, 0).UTC().Format("2006-01-02"))
	return []seed.Transaction{seed.AddNote(note)}, nil
}
