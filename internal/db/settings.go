package db

import (
	"database/sql"
	"time"

	"github.com/harms-haus/memoriae/internal/errors"
)

// UserSettings holds per-user configuration, currently the language-model
// endpoint. Absent values fall back to the application config's defaults.
type UserSettings struct {
	UserID     string
	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string
	UpdatedAt  int64
}

// GetUserSettings retrieves settings for a user. A user with no row gets a
// zero-valued settings struct, not an error.
func GetUserSettings(db *sql.DB, userID string) (*UserSettings, error) {
	row := db.QueryRow(
		`SELECT user_id, llm_base_url, llm_api_key, llm_model, updated_at
		 FROM user_settings WHERE user_id = ?`, userID,
	)
	var s UserSettings
	var baseURL, apiKey, model sql.NullString
	err := row.Scan(&s.UserID, &baseURL, &apiKey, &model, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return &UserSettings{UserID: userID}, nil
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	s.LLMBaseURL = baseURL.String
	s.LLMAPIKey = apiKey.String
	s.LLMModel = model.String
	return &s, nil
}

// UpsertUserSettings stores settings for a user, keyed by user ID.
func UpsertUserSettings(db *sql.DB, s *UserSettings) error {
	s.UpdatedAt = time.Now().Unix()
	_, err := db.Exec(
		`INSERT INTO user_settings (user_id, llm_base_url, llm_api_key, llm_model, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		   llm_base_url = excluded.llm_base_url,
		   llm_api_key  = excluded.llm_api_key,
		   llm_model    = excluded.llm_model,
		   updated_at   = excluded.updated_at`,
		s.UserID, s.LLMBaseURL, s.LLMAPIKey, s.LLMModel, s.UpdatedAt,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}
