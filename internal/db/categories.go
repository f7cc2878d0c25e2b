package db

import (
	"database/sql"
	"strings"
	"time"

	"github.com/harms-haus/memoriae/internal/category"
	"github.com/harms-haus/memoriae/internal/errors"
)

// InsertCategory creates a category node.
func InsertCategory(db *sql.DB, c *category.Category) error {
	parent := sql.NullString{String: c.ParentID, Valid: c.ParentID != ""}
	_, err := db.Exec(
		`INSERT INTO categories (id, user_id, name, name_norm, path, parent_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.Name, c.NameNorm, c.Path, parent, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return errors.NewConflict("category path already exists: " + c.Path)
		}
		return errors.NewInternal(err)
	}
	return nil
}

// GetCategory retrieves a category by ID.
func GetCategory(db *sql.DB, id string) (*category.Category, error) {
	row := db.QueryRow(
		`SELECT id, user_id, name, name_norm, path, parent_id, created_at, updated_at
		 FROM categories WHERE id = ?`, id,
	)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("category", id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return c, nil
}

// ListCategories returns all of a user's categories ordered by path.
func ListCategories(db *sql.DB, userID string) ([]*category.Category, error) {
	rows, err := db.Query(
		`SELECT id, user_id, name, name_norm, path, parent_id, created_at, updated_at
		 FROM categories WHERE user_id = ? ORDER BY path`, userID,
	)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var cats []*category.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		cats = append(cats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return cats, nil
}

// DescendantCategoryIDs returns IDs of nodes whose path is a strict
// descendant of oldPath ("/work" matches "/work/sub", not "/workshop").
func DescendantCategoryIDs(db *sql.DB, userID, oldPath string) ([]string, error) {
	if oldPath == "" {
		return nil, nil
	}
	prefix := strings.TrimSuffix(oldPath, "/") + "/"
	rows, err := db.Query(
		`SELECT id FROM categories
		 WHERE user_id = ? AND path LIKE ? ESCAPE '\'`,
		userID, escapeLike(prefix)+"%",
	)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

// RenameCategory updates a node's name and path, and rewrites the paths of
// its whole subtree in one statement.
func RenameCategory(db *sql.DB, id, name, nameNorm, oldPath, newPath string) error {
	now := time.Now().Unix()
	if _, err := db.Exec(
		`UPDATE categories SET name = ?, name_norm = ?, path = ?, updated_at = ? WHERE id = ?`,
		name, nameNorm, newPath, now, id,
	); err != nil {
		return errors.NewInternal(err)
	}
	return rewriteSubtreePaths(db, id, oldPath, newPath, now)
}

// MoveCategory reparents a node and rewrites its subtree paths.
func MoveCategory(db *sql.DB, id, newParentID, oldPath, newPath string) error {
	now := time.Now().Unix()
	parent := sql.NullString{String: newParentID, Valid: newParentID != ""}
	if _, err := db.Exec(
		`UPDATE categories SET parent_id = ?, path = ?, updated_at = ? WHERE id = ?`,
		parent, newPath, now, id,
	); err != nil {
		return errors.NewInternal(err)
	}
	return rewriteSubtreePaths(db, id, oldPath, newPath, now)
}

// rewriteSubtreePaths replaces the oldPath prefix with newPath on every
// strict descendant of the changed node.
func rewriteSubtreePaths(db *sql.DB, userIDSourceNodeID, oldPath, newPath string, now int64) error {
	var userID string
	if err := db.QueryRow(`SELECT user_id FROM categories WHERE id = ?`, userIDSourceNodeID).Scan(&userID); err != nil {
		return errors.NewInternal(err)
	}
	prefix := strings.TrimSuffix(oldPath, "/") + "/"
	newPrefix := strings.TrimSuffix(newPath, "/") + "/"
	_, err := db.Exec(
		`UPDATE categories
		 SET path = ? || substr(path, ?), updated_at = ?
		 WHERE user_id = ? AND path LIKE ? ESCAPE '\'`,
		newPrefix, len(prefix)+1, now, userID, escapeLike(prefix)+"%",
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// PromoteChildren reparents a node's direct children to the node's own
// parent and rewrites every descendant path accordingly. Must run before the
// node itself is deleted.
func PromoteChildren(db *sql.DB, id string) error {
	node, err := GetCategory(db, id)
	if err != nil {
		return err
	}
	parentPath := ""
	if node.ParentID != "" {
		parent, err := GetCategory(db, node.ParentID)
		if err != nil {
			return err
		}
		parentPath = parent.Path
	}

	now := time.Now().Unix()
	parent := sql.NullString{String: node.ParentID, Valid: node.ParentID != ""}
	if _, err := db.Exec(
		`UPDATE categories SET parent_id = ?, updated_at = ? WHERE parent_id = ?`,
		parent, now, id,
	); err != nil {
		return errors.NewInternal(err)
	}
	return rewriteSubtreePaths(db, id, node.Path, parentPath, now)
}

// DeleteCategory removes a node and its tagging rows. Descendant nodes are
// reparented to the deleted node's parent by the operation layer before this
// is called; this only removes the single node.
func DeleteCategory(db *sql.DB, id string) error {
	if _, err := db.Exec(`DELETE FROM seed_categories WHERE category_id = ?`, id); err != nil {
		return errors.NewInternal(err)
	}
	res, err := db.Exec(`DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return errors.NewInternal(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if n == 0 {
		return errors.NewNotFound("category", id)
	}
	return nil
}

// escapeLike escapes LIKE wildcards so a path containing % or _ matches
// literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// scannable covers *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

func scanCategory(row scannable) (*category.Category, error) {
	var c category.Category
	var parent sql.NullString
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.NameNorm, &c.Path, &parent, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	if parent.Valid {
		c.ParentID = parent.String
	}
	return &c, nil
}
