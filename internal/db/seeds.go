package db

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/harms-haus/memoriae/internal/errors"
	"github.com/harms-haus/memoriae/internal/seed"
)

// InsertSeed creates the seed row. The seed's state lives in its transaction
// log; the row itself only anchors ownership and lifecycle.
func InsertSeed(db *sql.DB, id, userID string, createdAt int64) error {
	_, err := db.Exec(
		`INSERT INTO seeds (id, user_id, created_at) VALUES (?, ?, ?)`,
		id, userID, createdAt,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// SeedOwner returns the owner of a live seed.
func SeedOwner(db *sql.DB, id string) (string, error) {
	var userID string
	err := db.QueryRow(
		`SELECT user_id FROM seeds WHERE id = ? AND deleted_at IS NULL`, id,
	).Scan(&userID)
	if err == sql.ErrNoRows {
		return "", errors.NewNotFound("seed", id)
	}
	if err != nil {
		return "", errors.NewInternal(err)
	}
	return userID, nil
}

// execer is the subset of *sql.DB and *sql.Tx the append path needs, so a
// batch of log entries can land under one database transaction.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

// AppendTransaction appends one entry to a seed's log. The entry's seq is
// assigned here so entries within the same second keep their insert order.
// Category tagging entries also maintain the seed_categories join table,
// which is a queryable index over the log, never a source of truth.
func AppendTransaction(db *sql.DB, tx *seed.Transaction) error {
	return appendTransaction(db, tx)
}

// AppendTransactions appends a batch of entries atomically: either every
// entry lands or none do.
func AppendTransactions(db *sql.DB, txs []seed.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	dbtx, err := db.Begin()
	if err != nil {
		return errors.NewInternal(err)
	}
	for i := range txs {
		if err := appendTransaction(dbtx, &txs[i]); err != nil {
			dbtx.Rollback()
			return err
		}
	}
	if err := dbtx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

func appendTransaction(db execer, tx *seed.Transaction) error {
	payload, err := json.Marshal(tx.Payload)
	if err != nil {
		return errors.NewInternal(err)
	}
	if tx.CreatedAt == 0 {
		tx.CreatedAt = time.Now().Unix()
	}

	err = db.QueryRow(
		`INSERT INTO seed_transactions (id, seed_id, tx_type, payload_json, created_at, seq)
		 VALUES (?, ?, ?, ?, ?,
		   (SELECT COALESCE(MAX(seq), 0) + 1 FROM seed_transactions WHERE seed_id = ?))
		 RETURNING seq`,
		tx.ID, tx.SeedID, tx.Type, string(payload), tx.CreatedAt, tx.SeedID,
	).Scan(&tx.Seq)
	if err != nil {
		return errors.NewInternal(err)
	}

	switch tx.Type {
	case seed.TxCategoryAdded:
		if catID, ok := tx.Payload["category_id"].(string); ok && catID != "" {
			if _, err := db.Exec(
				`INSERT OR IGNORE INTO seed_categories (seed_id, category_id) VALUES (?, ?)`,
				tx.SeedID, catID,
			); err != nil {
				return errors.NewInternal(err)
			}
		}
	case seed.TxCategoryRemoved:
		if catID, ok := tx.Payload["category_id"].(string); ok && catID != "" {
			if _, err := db.Exec(
				`DELETE FROM seed_categories WHERE seed_id = ? AND category_id = ?`,
				tx.SeedID, catID,
			); err != nil {
				return errors.NewInternal(err)
			}
		}
	}

	return nil
}

// LoadTransactions returns a seed's full log ordered by (created_at, seq).
func LoadTransactions(db *sql.DB, seedID string) ([]seed.Transaction, error) {
	rows, err := db.Query(
		`SELECT id, seed_id, tx_type, payload_json, created_at, seq
		 FROM seed_transactions WHERE seed_id = ?
		 ORDER BY created_at, seq`,
		seedID,
	)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var log []seed.Transaction
	for rows.Next() {
		var tx seed.Transaction
		var payload string
		if err := rows.Scan(&tx.ID, &tx.SeedID, &tx.Type, &payload, &tx.CreatedAt, &tx.Seq); err != nil {
			return nil, errors.NewInternal(err)
		}
		if err := json.Unmarshal([]byte(payload), &tx.Payload); err != nil {
			// A malformed payload must not make the whole seed unreadable
			tx.Payload = map[string]any{}
		}
		log = append(log, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return log, nil
}

// LoadSeed loads a seed's full current state by folding its log.
func LoadSeed(db *sql.DB, id string) (*seed.Seed, error) {
	userID, err := SeedOwner(db, id)
	if err != nil {
		return nil, err
	}
	log, err := LoadTransactions(db, id)
	if err != nil {
		return nil, err
	}
	return seed.ComputeState(id, userID, log), nil
}

// LoadSeedForUser loads a seed and verifies ownership.
func LoadSeedForUser(db *sql.DB, id, userID string) (*seed.Seed, error) {
	s, err := LoadSeed(db, id)
	if err != nil {
		return nil, err
	}
	if s.UserID != userID {
		return nil, errors.NewNotFound("seed", id)
	}
	return s, nil
}

// ListSeedIDs returns live seed IDs for a user, newest first.
func ListSeedIDs(db *sql.DB, userID string, limit, offset int) ([]string, error) {
	rows, err := db.Query(
		`SELECT id FROM seeds
		 WHERE user_id = ? AND deleted_at IS NULL
		 ORDER BY created_at DESC
		 LIMIT ? OFFSET ?`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

// SoftDeleteSeed marks a seed deleted. The log is retained.
func SoftDeleteSeed(db *sql.DB, id string) error {
	res, err := db.Exec(
		`UPDATE seeds SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`,
		time.Now().Unix(), id,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if n == 0 {
		return errors.NewNotFound("seed", id)
	}
	return nil
}

// SeedIDsForCategories returns the live seed IDs tagged with any of the given
// categories, deduplicated, scoped to one user.
func SeedIDsForCategories(db *sql.DB, userID string, categoryIDs []string) ([]string, error) {
	if len(categoryIDs) == 0 {
		return nil, nil
	}

	query := `SELECT DISTINCT sc.seed_id
		 FROM seed_categories sc
		 JOIN seeds s ON s.id = sc.seed_id
		 WHERE s.user_id = ? AND s.deleted_at IS NULL AND sc.category_id IN (`
	args := []any{userID}
	for i, id := range categoryIDs {
		if i > 0 {
			query += ","
		}
		query += "?"
		args = append(args, id)
	}
	query += ")"

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

func scanIDs(rows *sql.Rows) ([]string, error) {
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.NewInternal(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return ids, nil
}
