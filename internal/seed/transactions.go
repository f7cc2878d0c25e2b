package seed

import "sort"

// Transaction types. A seed's durable record is an append-only log of these
// variants; past entries are never mutated.
const (
	TxCreated           = "created"
	TxTitleSet          = "title_set"
	TxContentSet        = "content_set"
	TxCategoryAdded     = "category_added"
	TxCategoryRemoved   = "category_removed"
	TxNoteAdded         = "note_added"
	TxFollowUpScheduled = "followup_scheduled"
	TxFollowUpResolved  = "followup_resolved"
	TxStatusSet         = "status_set"
)

// Transaction is one entry in a seed's log.
type Transaction struct {
	// ID is a ULID for the transaction itself
	ID string `json:"id"`

	// SeedID identifies the seed this entry belongs to
	SeedID string `json:"seed_id"`

	// Type is one of the Tx* constants
	Type string `json:"type"`

	// Payload carries the variant's data (JSON object in storage)
	Payload map[string]any `json:"payload,omitempty"`

	// CreatedAt is the Unix timestamp of the entry
	CreatedAt int64 `json:"created_at"`

	// Seq orders entries created within the same second
	Seq int64 `json:"seq"`
}

// Created builds the initial transaction for a new seed.
func Created(title, content string) Transaction {
	return Transaction{Type: TxCreated, Payload: map[string]any{
		"title":   title,
		"content": content,
	}}
}

// SetTitle builds a title change transaction.
func SetTitle(title string) Transaction {
	return Transaction{Type: TxTitleSet, Payload: map[string]any{"title": title}}
}

// SetContent builds a content change transaction.
func SetContent(content string) Transaction {
	return Transaction{Type: TxContentSet, Payload: map[string]any{"content": content}}
}

// AddCategory builds a category tagging transaction.
func AddCategory(categoryID string) Transaction {
	return Transaction{Type: TxCategoryAdded, Payload: map[string]any{"category_id": categoryID}}
}

// RemoveCategory builds a category untagging transaction.
func RemoveCategory(categoryID string) Transaction {
	return Transaction{Type: TxCategoryRemoved, Payload: map[string]any{"category_id": categoryID}}
}

// AddNote builds an annotation transaction.
func AddNote(note string) Transaction {
	return Transaction{Type: TxNoteAdded, Payload: map[string]any{"note": note}}
}

// ScheduleFollowUp builds a follow-up scheduling transaction.
func ScheduleFollowUp(dueAt int64) Transaction {
	return Transaction{Type: TxFollowUpScheduled, Payload: map[string]any{"due_at": dueAt}}
}

// ResolveFollowUp builds a follow-up resolution transaction.
func ResolveFollowUp() Transaction {
	return Transaction{Type: TxFollowUpResolved, Payload: map[string]any{}}
}

// SetStatus builds a status change transaction.
func SetStatus(status string) Transaction {
	return Transaction{Type: TxStatusSet, Payload: map[string]any{"status": status}}
}

// ComputeState folds a seed's transaction log into its current state.
// The fold is pure: entries are sorted by (CreatedAt, Seq) and applied left
// to right; unknown types and malformed payloads are ignored rather than
// failing the whole seed.
func ComputeState(id, userID string, log []Transaction) *Seed {
	sorted := make([]Transaction, len(log))
	copy(sorted, log)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].CreatedAt != sorted[j].CreatedAt {
			return sorted[i].CreatedAt < sorted[j].CreatedAt
		}
		return sorted[i].Seq < sorted[j].Seq
	})

	s := &Seed{
		ID:     id,
		UserID: userID,
		Status: StatusActive,
	}
	for _, tx := range sorted {
		apply(s, tx)
		if tx.CreatedAt > s.UpdatedAt {
			s.UpdatedAt = tx.CreatedAt
		}
	}
	return s
}

func apply(s *Seed, tx Transaction) {
	switch tx.Type {
	case TxCreated:
		s.Title = payloadString(tx, "title")
		s.Content = payloadString(tx, "content")
		s.CreatedAt = tx.CreatedAt
	case TxTitleSet:
		s.Title = payloadString(tx, "title")
	case TxContentSet:
		s.Content = payloadString(tx, "content")
	case TxCategoryAdded:
		id := payloadString(tx, "category_id")
		if id != "" && !s.HasCategory(id) {
			s.CategoryIDs = append(s.CategoryIDs, id)
		}
	case TxCategoryRemoved:
		id := payloadString(tx, "category_id")
		for i, existing := range s.CategoryIDs {
			if existing == id {
				s.CategoryIDs = append(s.CategoryIDs[:i], s.CategoryIDs[i+1:]...)
				break
			}
		}
	case TxNoteAdded:
		if note := payloadString(tx, "note"); note != "" {
			s.Notes = append(s.Notes, note)
		}
	case TxFollowUpScheduled:
		s.FollowUpAt = payloadInt64(tx, "due_at")
	case TxFollowUpResolved:
		s.FollowUpAt = 0
	case TxStatusSet:
		if st := payloadString(tx, "status"); st == StatusActive || st == StatusArchived {
			s.Status = st
		}
	}
}

func payloadString(tx Transaction, key string) string {
	v, _ := tx.Payload[key].(string)
	return v
}

func payloadInt64(tx Transaction, key string) int64 {
	switch v := tx.Payload[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		// JSON round-trips numbers as float64
		return int64(v)
	default:
		return 0
	}
}
