package repositories

import (
	"context"

	"github.com/satriahrh/suara/domain/entities"
)

// SettingsRepository holds the process-wide settings
type SettingsRepository interface {
	// Get returns a snapshot that later Set calls do not affect
	Get(ctx context.Context) (entities.Settings, error)
	// Set replaces the settings as a whole
	Set(ctx context.Context, settings entities.Settings) error
}
