package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.EvalIntervalSec != 300 {
		t.Errorf("EvalIntervalSec = %d, want 300", cfg.EvalIntervalSec)
	}
	if cfg.ToolLoopMaxIterations != 20 {
		t.Errorf("ToolLoopMaxIterations = %d, want 20", cfg.ToolLoopMaxIterations)
	}
	if cfg.WorkerCount != 2 {
		t.Errorf("WorkerCount = %d, want 2", cfg.WorkerCount)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	content := `{"eval_interval_sec": 60, "worker_count": 4, "llm_model": "gpt-4o"}`
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.EvalIntervalSec != 60 {
		t.Errorf("EvalIntervalSec = %d, want 60", cfg.EvalIntervalSec)
	}
	if cfg.WorkerCount != 4 {
		t.Errorf("WorkerCount = %d, want 4", cfg.WorkerCount)
	}
	if cfg.LLMModel != "gpt-4o" {
		t.Errorf("LLMModel = %q, want gpt-4o", cfg.LLMModel)
	}
	// Untouched values keep their defaults
	if cfg.BreakerThreshold != 5 {
		t.Errorf("BreakerThreshold = %d, want 5", cfg.BreakerThreshold)
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte("{nope"), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(dir); err == nil {
		t.Error("Load should fail on invalid JSON")
	}
}

func TestMergeDisabledAutomations(t *testing.T) {
	base := &Config{DisabledAutomations: []string{"muse", "tagger"}}
	overlay := &Config{DisabledAutomations: []string{"tagger", "followup"}}
	merged := Merge(Merge(DefaultConfig(), base), overlay)

	want := []string{"muse", "tagger", "followup"}
	if len(merged.DisabledAutomations) != len(want) {
		t.Fatalf("DisabledAutomations = %v, want %v", merged.DisabledAutomations, want)
	}
	for i, s := range want {
		if merged.DisabledAutomations[i] != s {
			t.Errorf("DisabledAutomations[%d] = %q, want %q", i, merged.DisabledAutomations[i], s)
		}
	}
}
