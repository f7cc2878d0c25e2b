package automations

import (
	"github.com/harms-haus/memoriae/internal/automation"
	"github.com/harms-haus/memoriae/internal/config"
	"github.com/harms-haus/memoriae/internal/queue"
)

// RegisterAll registers every built-in automation. Automations the config
// disables are still registered (so queued jobs for them resolve and drop
// cleanly) but report themselves disabled.
func RegisterAll(reg *automation.Registry, q *queue.Queue, cfg *config.Config) error {
	if err := reg.Register(NewTagger(q, cfg)); err != nil {
		return err
	}
	return reg.Register(NewFollowUp(q, cfg))
}
