package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/titlegrid-labs/titlegrid-cli/internal/core/domain"
)

// SourcesFileName is the registry seed file under the config directory.
const SourcesFileName = "sources.toml"

// sourcesFile is the TOML shape of the seed file.
type sourcesFile struct {
	Sources []sourceEntry `toml:"sources"`
}

// sourceEntry is one descriptor in sources.toml.
type sourceEntry struct {
	Region        string `toml:"region"`
	Subregion     string `toml:"subregion"`
	Connector     string `toml:"connector"`
	Tier          string `toml:"tier"`
	Access        string `toml:"access"`
	RequiresAuth  bool   `toml:"requires_auth"`
	BaseURL       string `toml:"base_url,omitempty"`
	RatePerMinute int    `toml:"rate_per_minute,omitempty"`
	Notes         string `toml:"notes,omitempty"`
}

// LoadSources reads source descriptors from sources.toml in the config
// directory, writing the default seed first if the file does not exist.
func LoadSources(configDir string) ([]domain.SourceDescriptor, error) {
	path := filepath.Join(configDir, SourcesFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := writeDefaultSources(path); err != nil {
			return nil, err
		}
	}
	return ReadSources(path)
}

// ReadSources parses a sources file into descriptors. Entries missing a
// region, subregion or connector are rejected; a bad seed file is a
// configuration error, not something to silently skip.
func ReadSources(path string) ([]domain.SourceDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var f sourcesFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	descriptors := make([]domain.SourceDescriptor, 0, len(f.Sources))
	for i, e := range f.Sources {
		if e.Region == "" || e.Subregion == "" || e.Connector == "" {
			return nil, fmt.Errorf("%s: source %d needs region, subregion and connector", path, i+1)
		}
		descriptors = append(descriptors, domain.SourceDescriptor{
			Jurisdiction:  domain.Jurisdiction{Region: e.Region, Subregion: e.Subregion},
			ConnectorType: e.Connector,
			Tier:          domain.ParsePriorityTier(e.Tier),
			AccessMethod:  accessMethod(e),
			RequiresAuth:  e.RequiresAuth,
			BaseURL:       e.BaseURL,
			RatePerMinute: e.RatePerMinute,
			Notes:         e.Notes,
		})
	}
	return descriptors, nil
}

// accessMethod resolves the declared access method, falling back to a
// sensible default for the connector type.
func accessMethod(e sourceEntry) domain.AccessMethod {
	switch e.Access {
	case string(domain.AccessAPI), string(domain.AccessScrape), string(domain.AccessManual), string(domain.AccessMock):
		return domain.AccessMethod(e.Access)
	}
	if e.Connector == "mock" {
		return domain.AccessMock
	}
	return domain.AccessAPI
}

// writeDefaultSources seeds the file with the built-in coverage.
func writeDefaultSources(path string) error {
	seed := sourcesFile{Sources: defaultSources()}
	data, err := toml.Marshal(seed)
	if err != nil {
		return fmt.Errorf("marshalling default sources: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// defaultSources is the out-of-the-box coverage: one real portal with a
// mock fallback, plus mock-only counties for demoing multi-county
// searches.
func defaultSources() []sourceEntry {
	return []sourceEntry{
		{
			Region:        "MD",
			Subregion:     "Montgomery",
			Connector:     "mdland",
			Tier:          "primary",
			Access:        "scrape",
			RequiresAuth:  true,
			BaseURL:       "https://mdlandrec.net",
			RatePerMinute: 12,
			Notes:         "State land records portal; free account required.",
		},
		{
			Region:    "MD",
			Subregion: "Montgomery",
			Connector: "mock",
			Tier:      "mock",
			Access:    "mock",
		},
		{
			Region:    "CA",
			Subregion: "Los Angeles",
			Connector: "mock",
			Tier:      "mock",
			Access:    "mock",
		},
		{
			Region:    "IL",
			Subregion: "Cook",
			Connector: "mock",
			Tier:      "mock",
			Access:    "mock",
		},
	}
}
