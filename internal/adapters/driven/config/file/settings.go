package file

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/titlegrid-labs/titlegrid-cli/internal/core/services"
)

// Settings is the runtime configuration read from config.toml.
// Zero values mean "use the built-in default".
type Settings struct {
	// Verbose enables debug logging.
	Verbose bool `toml:"verbose"`

	// DataDir overrides where the session database lives.
	DataDir string `toml:"data_dir"`

	Search SearchSettings `toml:"search"`
}

// SearchSettings tunes the search orchestrator.
type SearchSettings struct {
	// MaxConcurrent bounds in-flight source dispatches.
	MaxConcurrent int `toml:"max_concurrent"`

	// DispatchTimeoutSeconds caps one source dispatch.
	DispatchTimeoutSeconds int `toml:"dispatch_timeout_seconds"`

	// CacheTTLMinutes bounds how long source results are reused.
	CacheTTLMinutes int `toml:"cache_ttl_minutes"`

	// YearsBack is the default search reach for queries that do not
	// set one.
	YearsBack int `toml:"years_back"`

	// MaxResults is the default cap on merged documents.
	MaxResults int `toml:"max_results"`
}

// DefaultConfigDir returns ~/.titlegrid.
func DefaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".titlegrid"), nil
}

// LoadSettings reads config.toml from the config directory. A missing
// file yields zero settings; defaults apply downstream.
func LoadSettings(configDir string) (*Settings, error) {
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Settings{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var s Settings
	if err := toml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &s, nil
}

// OrchestratorConfig maps the settings onto the orchestrator's
// configuration. Unset fields stay zero so the orchestrator applies
// its own defaults.
func (s *Settings) OrchestratorConfig() services.Config {
	return services.Config{
		MaxConcurrent:     s.Search.MaxConcurrent,
		DispatchTimeout:   time.Duration(s.Search.DispatchTimeoutSeconds) * time.Second,
		CacheTTL:          time.Duration(s.Search.CacheTTLMinutes) * time.Minute,
		DefaultYearsBack:  s.Search.YearsBack,
		DefaultMaxResults: s.Search.MaxResults,
	}
}
