package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"testing"

	"go.uber.org/zap"

	"github.com/harms-haus/memoriae/internal/automation"
	"github.com/harms-haus/memoriae/internal/automations"
	"github.com/harms-haus/memoriae/internal/cascade"
	"github.com/harms-haus/memoriae/internal/config"
	"github.com/harms-haus/memoriae/internal/db"
	"github.com/harms-haus/memoriae/internal/ops"
	"github.com/harms-haus/memoriae/internal/pressure"
	"github.com/harms-haus/memoriae/internal/queue"
	"github.com/harms-haus/memoriae/internal/scheduler"
)

// setupTestEngine builds a full engine over a temporary database.
func setupTestEngine(t *testing.T) *engine {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("failed to init test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cfg := config.DefaultConfig()
	reg := automation.NewRegistry()
	q := queue.New(database)
	if err := automations.RegisterAll(reg, q, cfg); err != nil {
		t.Fatalf("failed to register automations: %v", err)
	}
	store := pressure.NewStore(database)
	logger := zap.NewNop()

	return &engine{
		env: &ops.Env{
			DB:       database,
			Cfg:      cfg,
			Registry: reg,
			Queue:    q,
			Pressure: store,
			Cascade:  cascade.NewResolver(database, store, reg, cfg, logger),
			Logger:   logger,
		},
		worker: queue.NewWorker(q, reg, cfg, logger),
		sched:  scheduler.New(database, store, reg, cfg, logger),
	}
}

// runApp runs the CLI with the given args and returns captured stdout.
func runApp(t *testing.T, eng *engine, args ...string) (string, error) {
	t.Helper()
	app := newCLIApp(eng)

	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := app.Run(append([]string{"memoriae"}, args...))

	w.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	os.Stdout = oldStdout

	return buf.String(), err
}

// TestParseIDs tests the parseIDs helper function.
func TestParseIDs(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: nil,
		},
		{
			name:     "single id",
			input:    "cat-1",
			expected: []string{"cat-1"},
		},
		{
			name:     "multiple ids",
			input:    "cat-1,cat-2,cat-3",
			expected: []string{"cat-1", "cat-2", "cat-3"},
		},
		{
			name:     "ids with spaces",
			input:    " cat-1 , cat-2 ",
			expected: []string{"cat-1", "cat-2"},
		},
		{
			name:     "empty entries filtered",
			input:    "cat-1,,cat-2,",
			expected: []string{"cat-1", "cat-2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseIDs(tt.input)
			if len(result) != len(tt.expected) {
				t.Errorf("expected %d ids, got %d", len(tt.expected), len(result))
				return
			}
			for i, id := range result {
				if id != tt.expected[i] {
					t.Errorf("expected id[%d]=%q, got %q", i, tt.expected[i], id)
				}
			}
		})
	}
}

// TestCLIStore tests the store command with piped stdin.
func TestCLIStore(t *testing.T) {
	eng := setupTestEngine(t)
	app := newCLIApp(eng)

	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	oldStdin := os.Stdin
	stdinR, stdinW, _ := os.Pipe()
	os.Stdin = stdinR

	go func() {
		_, _ = stdinW.WriteString("plant a lemon tree")
		stdinW.Close()
	}()

	err := app.Run([]string{"memoriae", "store", "--title=lemon"})

	os.Stdin = oldStdin
	w.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	os.Stdout = oldStdout

	if err != nil {
		t.Fatalf("store command failed: %v", err)
	}

	var output ops.StoreSeedOutput
	if err := json.Unmarshal(buf.Bytes(), &output); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, buf.String())
	}
	if output.ID == "" {
		t.Error("expected non-empty ID")
	}
	if output.Enqueued == 0 {
		t.Error("expected automations enqueued for the new seed")
	}
}

// TestCLIFetchAndList tests fetch and list over a stored seed.
func TestCLIFetchAndList(t *testing.T) {
	eng := setupTestEngine(t)

	stored, err := ops.StoreSeed(context.Background(), eng.env, ops.StoreSeedInput{
		UserID:  defaultUser,
		Title:   "fetch-test",
		Content: "remember this",
	})
	if err != nil {
		t.Fatalf("failed to store test seed: %v", err)
	}

	out, err := runApp(t, eng, "fetch", "--log", stored.ID)
	if err != nil {
		t.Fatalf("fetch command failed: %v", err)
	}
	var fetched ops.FetchSeedOutput
	if err := json.Unmarshal([]byte(out), &fetched); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if fetched.Seed.ID != stored.ID {
		t.Errorf("expected ID=%s, got %s", stored.ID, fetched.Seed.ID)
	}
	if len(fetched.Log) != 1 {
		t.Errorf("expected 1 log entry, got %d", len(fetched.Log))
	}

	out, err = runApp(t, eng, "list")
	if err != nil {
		t.Fatalf("list command failed: %v", err)
	}
	var listed ops.ListSeedsOutput
	if err := json.Unmarshal([]byte(out), &listed); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if len(listed.Seeds) != 1 {
		t.Errorf("expected 1 seed, got %d", len(listed.Seeds))
	}
}

// TestCLIFetchNotFound tests that fetching a missing seed exits non-zero.
func TestCLIFetchNotFound(t *testing.T) {
	eng := setupTestEngine(t)

	_, err := runApp(t, eng, "fetch", "no-such-id")
	if err == nil {
		t.Fatal("expected an error for a missing seed")
	}
}

// TestCLICategory tests the category subcommands.
func TestCLICategory(t *testing.T) {
	eng := setupTestEngine(t)

	out, err := runApp(t, eng, "category", "create", "work")
	if err != nil {
		t.Fatalf("category create failed: %v", err)
	}
	var created ops.CreateCategoryOutput
	if err := json.Unmarshal([]byte(out), &created); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if created.Category.Path != "/work" {
		t.Errorf("expected path /work, got %s", created.Category.Path)
	}

	out, err = runApp(t, eng, "category", "rename", created.Category.ID, "projects")
	if err != nil {
		t.Fatalf("category rename failed: %v", err)
	}
	var renamed ops.RenameCategoryOutput
	if err := json.Unmarshal([]byte(out), &renamed); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if renamed.Category.Path != "/projects" {
		t.Errorf("expected path /projects, got %s", renamed.Category.Path)
	}

	out, err = runApp(t, eng, "category", "list")
	if err != nil {
		t.Fatalf("category list failed: %v", err)
	}
	var listed ops.ListCategoriesOutput
	if err := json.Unmarshal([]byte(out), &listed); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if len(listed.Categories) != 1 {
		t.Errorf("expected 1 category, got %d", len(listed.Categories))
	}
}

// TestCLIAutomation tests the automation subcommands.
func TestCLIAutomation(t *testing.T) {
	eng := setupTestEngine(t)

	out, err := runApp(t, eng, "automation", "list")
	if err != nil {
		t.Fatalf("automation list failed: %v", err)
	}
	var listed struct {
		Automations []struct {
			ID      string `json:"id"`
			Enabled bool   `json:"enabled"`
		} `json:"automations"`
	}
	if err := json.Unmarshal([]byte(out), &listed); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if len(listed.Automations) != 2 {
		t.Fatalf("expected 2 automations, got %d", len(listed.Automations))
	}

	out, err = runApp(t, eng, "automation", "enqueue", listed.Automations[0].ID, "seed-1")
	if err != nil {
		t.Fatalf("automation enqueue failed: %v", err)
	}
	var enq map[string]string
	if err := json.Unmarshal([]byte(out), &enq); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if enq["key"] != listed.Automations[0].ID+"-seed-1" {
		t.Errorf("key = %q", enq["key"])
	}

	if _, err := runApp(t, eng, "automation", "enqueue", "ghost", "seed-1"); err == nil {
		t.Error("expected an error for an unknown automation")
	}
}

// TestCLISettings tests the settings subcommands.
func TestCLISettings(t *testing.T) {
	eng := setupTestEngine(t)

	if _, err := runApp(t, eng, "settings", "set", "--api-key=sk-test-9999", "--model=gpt-4o"); err != nil {
		t.Fatalf("settings set failed: %v", err)
	}

	out, err := runApp(t, eng, "settings", "get")
	if err != nil {
		t.Fatalf("settings get failed: %v", err)
	}
	var got ops.GetSettingsOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if !got.HasAPIKey {
		t.Error("expected has_api_key true")
	}
	if got.APIKeySuffix != "9999" {
		t.Errorf("expected api key suffix 9999, got %s", got.APIKeySuffix)
	}
	if got.LLMModel != "gpt-4o" {
		t.Errorf("expected model gpt-4o, got %s", got.LLMModel)
	}
}

// TestIsCLIMode tests the mode dispatch helper.
func TestIsCLIMode(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	tests := []struct {
		args []string
		want bool
	}{
		{[]string{"memoriae"}, false},
		{[]string{"memoriae", "store"}, true},
		{[]string{"memoriae", "serve"}, true},
		{[]string{"memoriae", "--help"}, true},
		{[]string{"memoriae", "-v"}, true},
		{[]string{"memoriae", "bogus"}, false},
	}
	for _, tt := range tests {
		os.Args = tt.args
		if got := isCLIMode(); got != tt.want {
			t.Errorf("isCLIMode(%v) = %v, want %v", tt.args, got, tt.want)
		}
	}
}
