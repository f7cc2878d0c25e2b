package ops

import (
	"context"
	"strings"

	"github.com/harms-haus/memoriae/internal/db"
)

// GetSettingsInput contains parameters for the GetSettings operation.
type GetSettingsInput struct {
	UserID string
}

// GetSettingsOutput contains the result of the GetSettings operation. The API
// key is masked; only its presence is reported.
type GetSettingsOutput struct {
	LLMBaseURL   string `json:"llm_base_url"`
	LLMModel     string `json:"llm_model"`
	HasAPIKey    bool   `json:"has_api_key"`
	APIKeySuffix string `json:"api_key_suffix,omitempty"`
}

// GetSettings reads the user's model settings without exposing the secret.
func GetSettings(ctx context.Context, env *Env, input GetSettingsInput) (*GetSettingsOutput, error) {
	if err := requireUser(input.UserID); err != nil {
		return nil, err
	}
	s, err := db.GetUserSettings(env.DB, input.UserID)
	if err != nil {
		return nil, err
	}
	out := &GetSettingsOutput{
		LLMBaseURL: s.LLMBaseURL,
		LLMModel:   s.LLMModel,
		HasAPIKey:  s.LLMAPIKey != "",
	}
	if n := len(s.LLMAPIKey); n > 4 {
		out.APIKeySuffix = s.LLMAPIKey[n-4:]
	}
	return out, nil
}

// UpdateSettingsInput contains parameters for the UpdateSettings operation.
// Nil pointer fields are left unchanged; an empty string clears the field.
type UpdateSettingsInput struct {
	UserID     string
	LLMBaseURL *string
	LLMAPIKey  *string
	LLMModel   *string
}

// UpdateSettingsOutput contains the result of the UpdateSettings operation.
type UpdateSettingsOutput struct {
	Updated bool `json:"updated"`
}

// UpdateSettings upserts the user's model settings.
func UpdateSettings(ctx context.Context, env *Env, input UpdateSettingsInput) (*UpdateSettingsOutput, error) {
	if err := requireUser(input.UserID); err != nil {
		return nil, err
	}
	current, err := db.GetUserSettings(env.DB, input.UserID)
	if err != nil {
		return nil, err
	}
	current.UserID = input.UserID
	if input.LLMBaseURL != nil {
		current.LLMBaseURL = strings.TrimSpace(*input.LLMBaseURL)
	}
	if input.LLMAPIKey != nil {
		current.LLMAPIKey = strings.TrimSpace(*input.LLMAPIKey)
	}
	if input.LLMModel != nil {
		current.LLMModel = strings.TrimSpace(*input.LLMModel)
	}
	if err := db.UpsertUserSettings(env.DB, current); err != nil {
		return nil, err
	}
	return &UpdateSettingsOutput{Updated: true}, nil
}
