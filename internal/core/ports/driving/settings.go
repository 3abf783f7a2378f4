package driving

import "github.com/custodia-labs/folio/internal/core/domain"

// SettingsService reads and updates the persisted configuration.
type SettingsService interface {
	// Path returns the configuration file location.
	Path() string

	// List returns every stored entry sorted by key.
	List() []domain.Setting

	// Get returns a stored value.
	Get(key string) (any, bool)

	// Effective resolves the configuration from the stored values.
	Effective() (domain.Config, error)

	// Set validates and persists one value.
	Set(key string, value any) error
}
