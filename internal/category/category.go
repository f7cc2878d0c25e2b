package category

import "strings"

// Category is one node in a user's hierarchical tag tree. Path is a
// materialized path ("/work/ideas") kept consistent with ParentID; moving or
// renaming a node rewrites the paths of its whole subtree.
type Category struct {
	// ID is a ULID that uniquely identifies this category
	ID string `json:"id"`

	// UserID identifies the owner
	UserID string `json:"user_id"`

	// Name is the display name of the node
	Name string `json:"name"`

	// NameNorm is the normalized name used for lookups
	NameNorm string `json:"name_norm"`

	// Path is the materialized path from the root, e.g. "/work/ideas"
	Path string `json:"path"`

	// ParentID is the parent node's ID, empty for a root node
	ParentID string `json:"parent_id,omitempty"`

	// CreatedAt is the Unix timestamp when the node was created
	CreatedAt int64 `json:"created_at"`

	// UpdatedAt is the Unix timestamp when the node was last changed
	UpdatedAt int64 `json:"updated_at"`
}

// ChangeKind classifies a structural mutation of the tree.
type ChangeKind string

const (
	ChangeRename   ChangeKind = "rename"
	ChangeMove     ChangeKind = "move"
	ChangeRemove   ChangeKind = "remove"
	ChangeAddChild ChangeKind = "add_child"
)

// ChangeEvent describes one structural mutation. It is a transient value:
// constructed by the operation that mutated the tree and consumed within a
// single cascade, never persisted.
type ChangeEvent struct {
	Kind        ChangeKind
	CategoryID  string
	OldPath     string
	NewPath     string
	OldParentID string
	NewParentID string
}

// ChildPath joins a parent path and a node name into a child path.
// An empty parent path yields a root-level path.
func ChildPath(parentPath, name string) string {
	parentPath = strings.TrimSuffix(parentPath, "/")
	return parentPath + "/" + name
}

// IsDescendantPath reports whether path is a strict descendant of ancestor.
// "/work/sub" descends from "/work"; "/workshop" does not.
func IsDescendantPath(path, ancestor string) bool {
	if ancestor == "" || path == "" {
		return false
	}
	return strings.HasPrefix(path, strings.TrimSuffix(ancestor, "/")+"/")
}
