// Package pressure owns the durable pressure table: one clamped 0-100
// counter per (seed, automation) pair. No other package writes these rows.
package pressure

import (
	"database/sql"
	"math"
	"time"

	"github.com/harms-haus/memoriae/internal/errors"
)

// Point is one pressure row.
type Point struct {
	SeedID       string
	AutomationID string
	Amount       float64
	UpdatedAt    int64
}

// Store provides all reads and writes of pressure points.
type Store struct {
	db *sql.DB
}

// NewStore creates a pressure store over the given database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// clamp bounds v to [0,100]; non-finite values collapse to 0.
func clamp(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Min(100, math.Max(0, v))
}

// Get returns the point for a pair. Absence is reported via ok=false, not an
// error.
func (s *Store) Get(seedID, automationID string) (*Point, bool, error) {
	row := s.db.QueryRow(
		`SELECT seed_id, automation_id, amount, updated_at
		 FROM pressure_points WHERE seed_id = ? AND automation_id = ?`,
		seedID, automationID,
	)
	var p Point
	err := row.Scan(&p.SeedID, &p.AutomationID, &p.Amount, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.NewInternal(err)
	}
	return &p, true, nil
}

// Add accumulates delta onto a pair's pressure. The delta is clamped to
// [0,100] first (non-finite collapses to 0), and the sum is clamped to 100.
// A pair with no row yet starts from zero.
func (s *Store) Add(seedID, automationID string, delta float64) (*Point, error) {
	current := 0.0
	if p, ok, err := s.Get(seedID, automationID); err != nil {
		return nil, err
	} else if ok {
		current = p.Amount
	}
	return s.Set(seedID, automationID, current+clamp(delta))
}

// Set overwrites a pair's pressure via upsert, clamped to [0,100].
func (s *Store) Set(seedID, automationID string, value float64) (*Point, error) {
	p := &Point{
		SeedID:       seedID,
		AutomationID: automationID,
		Amount:       clamp(value),
		UpdatedAt:    time.Now().Unix(),
	}
	_, err := s.db.Exec(
		`INSERT INTO pressure_points (seed_id, automation_id, amount, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(seed_id, automation_id) DO UPDATE SET
		   amount = excluded.amount,
		   updated_at = excluded.updated_at`,
		p.SeedID, p.AutomationID, p.Amount, p.UpdatedAt,
	)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return p, nil
}

// Reset forces a pair's pressure to zero.
func (s *Store) Reset(seedID, automationID string) error {
	_, err := s.Set(seedID, automationID, 0)
	return err
}

// ResetAllForSeed zeroes every row for a seed and returns how many rows
// changed.
func (s *Store) ResetAllForSeed(seedID string) (int64, error) {
	return s.resetWhere(`seed_id = ?`, seedID)
}

// ResetAllForAutomation zeroes every row for an automation and returns how
// many rows changed.
func (s *Store) ResetAllForAutomation(automationID string) (int64, error) {
	return s.resetWhere(`automation_id = ?`, automationID)
}

func (s *Store) resetWhere(where string, arg any) (int64, error) {
	res, err := s.db.Exec(
		`UPDATE pressure_points SET amount = 0, updated_at = ? WHERE `+where,
		time.Now().Unix(), arg,
	)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

// DeleteAllForSeed removes every row for a seed (bulk cleanup on seed
// removal).
func (s *Store) DeleteAllForSeed(seedID string) error {
	_, err := s.db.Exec(`DELETE FROM pressure_points WHERE seed_id = ?`, seedID)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// DeleteAllForAutomation removes every row for an automation.
func (s *Store) DeleteAllForAutomation(automationID string) error {
	_, err := s.db.Exec(`DELETE FROM pressure_points WHERE automation_id = ?`, automationID)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// all returns every row, optionally filtered to one automation.
func (s *Store) all(automationID string) ([]Point, error) {
	query := `SELECT seed_id, automation_id, amount, updated_at FROM pressure_points`
	var args []any
	if automationID != "" {
		query += ` WHERE automation_id = ?`
		args = append(args, automationID)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var points []Point
	for rows.Next() {
		var p Point
		if err := rows.Scan(&p.SeedID, &p.AutomationID, &p.Amount, &p.UpdatedAt); err != nil {
			return nil, errors.NewInternal(err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return points, nil
}
