package seed

import "strings"

// Status values for a seed.
const (
	StatusActive   = "active"
	StatusArchived = "archived"
)

// Seed represents an idea note. Its fields are computed state: the durable
// record of a seed is its ordered transaction log, and Seed is the result of
// folding that log (see ComputeState).
type Seed struct {
	// ID is a ULID that uniquely identifies this seed
	ID string `json:"id"`

	// UserID identifies the owner
	UserID string `json:"user_id"`

	// Title is an optional human-readable title
	Title string `json:"title,omitempty"`

	// Content is the main body text (markdown)
	Content string `json:"content"`

	// CategoryIDs are the hierarchy nodes this seed is tagged with
	CategoryIDs []string `json:"category_ids,omitempty"`

	// Notes are free-form annotations appended by automations or the user
	Notes []string `json:"notes,omitempty"`

	// Status is one of StatusActive, StatusArchived
	Status string `json:"status"`

	// FollowUpAt is a Unix timestamp for a pending follow-up, 0 if none
	FollowUpAt int64 `json:"follow_up_at,omitempty"`

	// CreatedAt is the Unix timestamp of the creating transaction
	CreatedAt int64 `json:"created_at"`

	// UpdatedAt is the Unix timestamp of the latest transaction
	UpdatedAt int64 `json:"updated_at"`
}

// HasCategory reports whether the seed is tagged with the given category.
func (s *Seed) HasCategory(categoryID string) bool {
	for _, id := range s.CategoryIDs {
		if id == categoryID {
			return true
		}
	}
	return false
}

// Normalize lowercases, trims, and collapses internal whitespace.
// Used for titles and category names so lookups are case-insensitive.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), " ")
}
