package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/pavelanni/interviewer/internal/model"
)

// SetMetadata upserts a key-value pair in the app_metadata table.
func (s *Store) SetMetadata(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO app_metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = ?`,
		key, value, value,
	)
	return err
}

// GetMetadata returns the value for a metadata key.
// Returns empty string and nil error if the key is missing.
func (s *Store) GetMetadata(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM app_metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetDeploymentInfo records how the running server is configured.
func (s *Store) SetDeploymentInfo(ctx context.Context, info model.DeploymentInfo) error {
	pairs := []struct{ k, v string }{
		{"ai_provider", info.Provider},
		{"ai_model", info.Model},
		{"prompt_variant", info.PromptVariant},
		{"readiness", info.Readiness},
		{"started_at", info.StartedAt.UTC().Format(time.RFC3339)},
	}
	for _, p := range pairs {
		if err := s.SetMetadata(ctx, p.k, p.v); err != nil {
			return err
		}
	}
	return nil
}

// GetDeploymentInfo reads the fields written by SetDeploymentInfo.
func (s *Store) GetDeploymentInfo(ctx context.Context) (model.DeploymentInfo, error) {
	var info model.DeploymentInfo
	var err error

	if info.SchemaVersion, err = s.GetMetadata(ctx, "schema_version"); err != nil {
		return info, err
	}
	if info.Provider, err = s.GetMetadata(ctx, "ai_provider"); err != nil {
		return info, err
	}
	if info.Model, err = s.GetMetadata(ctx, "ai_model"); err != nil {
		return info, err
	}
	if info.PromptVariant, err = s.GetMetadata(ctx, "prompt_variant"); err != nil {
		return info, err
	}
	if info.Readiness, err = s.GetMetadata(ctx, "readiness"); err != nil {
		return info, err
	}
	started, err := s.GetMetadata(ctx, "started_at")
	if err != nil {
		return info, err
	}
	if started != "" {
		info.StartedAt, err = time.Parse(time.RFC3339, started)
		if err != nil {
			return info, err
		}
	}
	return info, nil
}
