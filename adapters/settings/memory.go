package settings

import (
	"context"
	"sync/atomic"

	"github.com/satriahrh/suara/domain/entities"
	"github.com/satriahrh/suara/domain/repositories"
)

// MemoryStore keeps settings in process. Readers load a pointer to an
// immutable value, writers swap the pointer.
type MemoryStore struct {
	current atomic.Pointer[entities.Settings]
}

var _ repositories.SettingsRepository = (*MemoryStore)(nil)

// NewMemoryStore creates a store holding initial
func NewMemoryStore(initial entities.Settings) *MemoryStore {
	s := &MemoryStore{}
	s.current.Store(&initial)
	return s
}

// Get returns a copy of the current settings
func (s *MemoryStore) Get(ctx context.Context) (entities.Settings, error) {
	return *s.current.Load(), nil
}

// Set replaces the settings
func (s *MemoryStore) Set(ctx context.Context, settings entities.Settings) error {
	s.current.Store(&settings)
	return nil
}
