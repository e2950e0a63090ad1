package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Config holds application configuration.
type Config struct {
	// RemoteBaseURL is the base URL of the remote content service.
	// Empty means no remote is configured; sync attempts fail until set.
	RemoteBaseURL string `json:"remote_base_url,omitempty"`

	// ProbePath is the path probed to detect connectivity, relative to
	// RemoteBaseURL. Defaults to "/health".
	ProbePath string `json:"probe_path,omitempty"`

	// ProbeIntervalSecs is how often the network monitor polls for
	// connectivity transitions. Defaults to 30 seconds.
	ProbeIntervalSecs int `json:"probe_interval_secs,omitempty"`

	// FeatureLimit is the number of facts returned by featured/recent
	// listings. Defaults to 10.
	FeatureLimit int `json:"feature_limit,omitempty"`

	// CacheMaxFacts caps the cached_facts collection. After every upsert
	// the oldest entries by cached_at beyond the cap are pruned.
	// 0 disables pruning (unbounded cache).
	CacheMaxFacts int `json:"cache_max_facts,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// If set to 1, all database access is serialized (reduces "database is
	// locked" errors). 0 means use sql.DB default.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	// 0 means use sql.DB default. Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ProbePath:         "/health",
		ProbeIntervalSecs: 30,
		FeatureLimit:      10,
		CacheMaxFacts:     5000,
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.roam.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.RemoteBaseURL = overlay.RemoteBaseURL
	if result.RemoteBaseURL == "" {
		result.RemoteBaseURL = base.RemoteBaseURL
	}

	result.ProbePath = overlay.ProbePath
	if result.ProbePath == "" {
		result.ProbePath = base.ProbePath
	}

	result.ProbeIntervalSecs = overlay.ProbeIntervalSecs
	if result.ProbeIntervalSecs == 0 {
		result.ProbeIntervalSecs = base.ProbeIntervalSecs
	}

	result.FeatureLimit = overlay.FeatureLimit
	if result.FeatureLimit == 0 {
		result.FeatureLimit = base.FeatureLimit
	}

	result.CacheMaxFacts = overlay.CacheMaxFacts
	if result.CacheMaxFacts == 0 {
		result.CacheMaxFacts = base.CacheMaxFacts
	}

	result.DBMaxOpenConns = overlay.DBMaxOpenConns
	if result.DBMaxOpenConns == 0 {
		result.DBMaxOpenConns = base.DBMaxOpenConns
	}

	result.DBMaxIdleConns = overlay.DBMaxIdleConns
	if result.DBMaxIdleConns == 0 {
		result.DBMaxIdleConns = base.DBMaxIdleConns
	}

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
