package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Config represents the redpen configuration
type Config struct {
	// Analysis provider settings
	AnalyzerURL string `json:"analyzer_url"`
	Scope       string `json:"scope"`

	// Scheduling
	IntervalMS int `json:"interval_ms"`

	// Cache tuning
	CacheCapacity   int `json:"cache_capacity"`
	CacheTTLSeconds int `json:"cache_ttl_seconds"`

	// Per-target analysis size bound, in runes
	MaxTextLen int `json:"max_text_len"`

	// Hotkey in "ctrl+shift+k" form; empty disables the hotkey
	Hotkey string `json:"hotkey"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		AnalyzerURL:     "", // empty means the built-in demo analyzer
		Scope:           "local",
		IntervalMS:      100,
		CacheCapacity:   500,
		CacheTTLSeconds: 10,
		MaxTextLen:      120_000,
		Hotkey:          "ctrl+k",
	}
}

// Manager handles configuration loading and saving
type Manager struct {
	configPath string
	config     *Config
}

// NewManager creates a configuration manager rooted at dir. Settings
// live in dir/.redpen/config.json.
func NewManager(dir string) *Manager {
	return &Manager{
		configPath: filepath.Join(dir, ".redpen", "config.json"),
		config:     DefaultConfig(),
	}
}

// Load reads the configuration from disk, creating defaults if needed
func (m *Manager) Load() error {
	if err := os.MkdirAll(filepath.Dir(m.configPath), 0o755); err != nil {
		return fmt.Errorf("failed to create .redpen directory: %w", err)
	}

	if _, err := os.Stat(m.configPath); os.IsNotExist(err) {
		// First run: write the defaults so the user has a file to edit
		return m.Save()
	}

	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("failed to parse config JSON: %w", err)
	}

	config.AnalyzerURL = expandString(config.AnalyzerURL)
	config.Scope = expandString(config.Scope)

	m.config = &config
	return nil
}

// Save writes the current configuration to disk
func (m *Manager) Save() error {
	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(m.configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Get returns the current configuration
func (m *Manager) Get() *Config {
	return m.config
}

// Set updates a configuration value and saves
func (m *Manager) Set(key, value string) error {
	switch key {
	case "analyzer_url":
		m.config.AnalyzerURL = value
	case "scope":
		m.config.Scope = value
	case "interval_ms":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("interval_ms: %w", err)
		}
		m.config.IntervalMS = n
	case "cache_capacity":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("cache_capacity: %w", err)
		}
		m.config.CacheCapacity = n
	case "cache_ttl_seconds":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("cache_ttl_seconds: %w", err)
		}
		m.config.CacheTTLSeconds = n
	case "max_text_len":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("max_text_len: %w", err)
		}
		m.config.MaxTextLen = n
	case "hotkey":
		m.config.Hotkey = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}

	return m.Save()
}

// ParseHotkey converts the "ctrl+shift+k" textual form into its parts.
// The last +-separated token is the key; everything before it must be a
// recognized modifier.
func ParseHotkey(s string) (key string, ctrl, alt, shift bool, err error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "+")
	if len(parts) == 0 || parts[len(parts)-1] == "" {
		return "", false, false, false, fmt.Errorf("empty hotkey")
	}
	key = parts[len(parts)-1]
	for _, mod := range parts[:len(parts)-1] {
		switch mod {
		case "ctrl", "control":
			ctrl = true
		case "alt":
			alt = true
		case "shift":
			shift = true
		default:
			return "", false, false, false, fmt.Errorf("unknown modifier %q", mod)
		}
	}
	return key, ctrl, alt, shift, nil
}

// expandString expands environment variables in a string.
// Supports $VAR and ${VAR} syntax.
func expandString(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		var varName string
		if strings.HasPrefix(match, "${") {
			varName = match[2 : len(match)-1]
		} else {
			varName = match[1:]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}

		// Return original if env var not found
		return match
	})
}
