package services

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
	"github.com/custodia-labs/folio/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// ConfigCheck resolves a candidate set of configuration values and
// reports whether they form a valid configuration.
type ConfigCheck func(values map[string]any) (domain.Config, error)

// SettingsService reads and updates the persisted configuration. Updates
// are validated before they are written.
type SettingsService struct {
	configStore driven.ConfigStore
	check       ConfigCheck
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, check ConfigCheck) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		check:       check,
	}
}

// Path returns the configuration file location.
func (s *SettingsService) Path() string {
	return s.configStore.Path()
}

// List returns every stored entry sorted by key.
func (s *SettingsService) List() []domain.Setting {
	keys := s.configStore.Keys("")
	sort.Strings(keys)

	settings := make([]domain.Setting, 0, len(keys))
	for _, k := range keys {
		v, _ := s.configStore.Get(k)
		settings = append(settings, domain.Setting{Key: k, Value: v})
	}
	return settings
}

// Get returns a stored value.
func (s *SettingsService) Get(key string) (any, bool) {
	return s.configStore.Get(key)
}

// Effective resolves the configuration from the stored values alone.
func (s *SettingsService) Effective() (domain.Config, error) {
	return s.check(s.values())
}

// Set validates the configuration with key changed to value and
// persists it only if the result is valid.
func (s *SettingsService) Set(key string, value any) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", domain.ErrConfigInvalid)
	}

	candidate := s.values()
	candidate[key] = value
	if _, err := s.check(candidate); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}

	if err := s.configStore.Set(key, value); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (s *SettingsService) values() map[string]any {
	values := make(map[string]any)
	for _, k := range s.configStore.Keys("") {
		if v, ok := s.configStore.Get(k); ok {
			values[k] = v
		}
	}
	return values
}
