package seed

import "testing"

func at(tx Transaction, ts, seq int64) Transaction {
	tx.CreatedAt = ts
	tx.Seq = seq
	return tx
}

func TestComputeStateBasicFold(t *testing.T) {
	log := []Transaction{
		at(Created("First idea", "plant a garden"), 100, 0),
		at(SetContent("plant a vegetable garden"), 200, 0),
		at(AddCategory("cat-1"), 300, 0),
		at(AddNote("needs research"), 400, 0),
	}

	s := ComputeState("seed-1", "user-1", log)
	if s.Title != "First idea" {
		t.Errorf("Title = %q", s.Title)
	}
	if s.Content != "plant a vegetable garden" {
		t.Errorf("Content = %q", s.Content)
	}
	if !s.HasCategory("cat-1") {
		t.Error("expected cat-1 tag")
	}
	if len(s.Notes) != 1 || s.Notes[0] != "needs research" {
		t.Errorf("Notes = %v", s.Notes)
	}
	if s.CreatedAt != 100 || s.UpdatedAt != 400 {
		t.Errorf("CreatedAt=%d UpdatedAt=%d", s.CreatedAt, s.UpdatedAt)
	}
	if s.Status != StatusActive {
		t.Errorf("Status = %q", s.Status)
	}
}

func TestComputeStateOrdersByTimestampThenSeq(t *testing.T) {
	// Delivered out of order; fold must sort before applying.
	log := []Transaction{
		at(SetTitle("third"), 100, 2),
		at(Created("first", "body"), 100, 0),
		at(SetTitle("second"), 100, 1),
	}
	s := ComputeState("seed-1", "user-1", log)
	if s.Title != "third" {
		t.Errorf("Title = %q, want third", s.Title)
	}
}

func TestComputeStateCategoryAddRemove(t *testing.T) {
	log := []Transaction{
		at(Created("t", "c"), 1, 0),
		at(AddCategory("a"), 2, 0),
		at(AddCategory("b"), 3, 0),
		at(AddCategory("a"), 4, 0), // duplicate add is a no-op
		at(RemoveCategory("a"), 5, 0),
	}
	s := ComputeState("seed-1", "user-1", log)
	if len(s.CategoryIDs) != 1 || s.CategoryIDs[0] != "b" {
		t.Errorf("CategoryIDs = %v, want [b]", s.CategoryIDs)
	}
}

func TestComputeStateFollowUpCycle(t *testing.T) {
	log := []Transaction{
		at(Created("t", "c"), 1, 0),
		at(ScheduleFollowUp(5000), 2, 0),
	}
	s := ComputeState("seed-1", "user-1", log)
	if s.FollowUpAt != 5000 {
		t.Errorf("FollowUpAt = %d, want 5000", s.FollowUpAt)
	}

	log = append(log, at(ResolveFollowUp(), 3, 0))
	s = ComputeState("seed-1", "user-1", log)
	if s.FollowUpAt != 0 {
		t.Errorf("FollowUpAt = %d, want 0 after resolve", s.FollowUpAt)
	}
}

func TestComputeStateFollowUpFromJSONNumbers(t *testing.T) {
	// Payloads loaded from storage arrive with float64 numbers.
	tx := Transaction{Type: TxFollowUpScheduled, Payload: map[string]any{"due_at": float64(7200)}, CreatedAt: 1}
	s := ComputeState("seed-1", "user-1", []Transaction{tx})
	if s.FollowUpAt != 7200 {
		t.Errorf("FollowUpAt = %d, want 7200", s.FollowUpAt)
	}
}

func TestComputeStateIgnoresUnknownTypes(t *testing.T) {
	log := []Transaction{
		at(Created("t", "c"), 1, 0),
		{Type: "mystery", Payload: map[string]any{"x": 1}, CreatedAt: 2},
	}
	s := ComputeState("seed-1", "user-1", log)
	if s.Title != "t" {
		t.Errorf("Title = %q", s.Title)
	}
	if s.UpdatedAt != 2 {
		t.Errorf("UpdatedAt = %d, unknown entries still advance the clock", s.UpdatedAt)
	}
}

func TestComputeStateStatus(t *testing.T) {
	log := []Transaction{
		at(Created("t", "c"), 1, 0),
		at(SetStatus(StatusArchived), 2, 0),
		at(SetStatus("bogus"), 3, 0), // invalid status ignored
	}
	s := ComputeState("seed-1", "user-1", log)
	if s.Status != StatusArchived {
		t.Errorf("Status = %q, want archived", s.Status)
	}
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"  Hello   World ": "hello world",
		"UPPER":            "upper",
		"":                 "",
		"\ttabs\tand\n":    "tabs and",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}
