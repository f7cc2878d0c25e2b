// Package ops implements the operation layer: one file per operation, each a
// pure function over an Env plus a typed input, returning a typed output.
// Every surface (CLI, MCP, web) goes through here.
package ops

import (
	"database/sql"

	"go.uber.org/zap"

	"github.com/harms-haus/memoriae/internal/automation"
	"github.com/harms-haus/memoriae/internal/cascade"
	"github.com/harms-haus/memoriae/internal/config"
	"github.com/harms-haus/memoriae/internal/errors"
	"github.com/harms-haus/memoriae/internal/pressure"
	"github.com/harms-haus/memoriae/internal/queue"
)

// Pagination limits
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Env bundles the engine components the operations drive.
type Env struct {
	DB       *sql.DB
	Cfg      *config.Config
	Registry *automation.Registry
	Queue    *queue.Queue
	Pressure *pressure.Store
	Cascade  *cascade.Resolver
	Logger   *zap.Logger
}

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

// clampLimit applies the default and maximum page size.
func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

// requireUser validates the caller identity every operation needs.
func requireUser(userID string) error {
	if userID == "" {
		return errors.NewInvalidRequest("user_id is required")
	}
	return nil
}
