package ops

import (
	"context"
	"testing"
)

func TestSettings_RoundTripMasksKey(t *testing.T) {
	env := testEnv(t)

	out, err := GetSettings(context.Background(), env, GetSettingsInput{UserID: testUser})
	if err != nil {
		t.Fatalf("GetSettings failed: %v", err)
	}
	if out.HasAPIKey {
		t.Error("fresh user should have no API key")
	}

	_, err = UpdateSettings(context.Background(), env, UpdateSettingsInput{
		UserID:    testUser,
		LLMAPIKey: stringPtr("sk-test-9876"),
		LLMModel:  stringPtr("gpt-4o"),
	})
	if err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}

	out, err = GetSettings(context.Background(), env, GetSettingsInput{UserID: testUser})
	if err != nil {
		t.Fatalf("GetSettings failed: %v", err)
	}
	if !out.HasAPIKey {
		t.Error("HasAPIKey = false after update")
	}
	if out.APIKeySuffix != "9876" {
		t.Errorf("APIKeySuffix = %q, want 9876", out.APIKeySuffix)
	}
	if out.LLMModel != "gpt-4o" {
		t.Errorf("LLMModel = %q, want gpt-4o", out.LLMModel)
	}

	// Partial update leaves the other fields alone; empty string clears.
	_, err = UpdateSettings(context.Background(), env, UpdateSettingsInput{
		UserID:    testUser,
		LLMAPIKey: stringPtr(""),
	})
	if err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}
	out, err = GetSettings(context.Background(), env, GetSettingsInput{UserID: testUser})
	if err != nil {
		t.Fatalf("GetSettings failed: %v", err)
	}
	if out.HasAPIKey {
		t.Error("API key should have been cleared")
	}
	if out.LLMModel != "gpt-4o" {
		t.Errorf("LLMModel = %q, want gpt-4o preserved", out.LLMModel)
	}
}
