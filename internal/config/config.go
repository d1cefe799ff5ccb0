// Package config handles configuration for streamchat.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Environment variables that override the config file
const (
	EnvEndpoint = "STREAMCHAT_ENDPOINT"
)

// configDirName is the directory under $HOME holding streamchat files
const configDirName = ".streamchat"

// MarkdownConfig configures markdown rendering options
type MarkdownConfig struct {
	Style            string `json:"style"`              // glamour style name or path to JSON style
	EnableEmoji      bool   `json:"enable_emoji"`       // Convert :emoji: to unicode
	PreserveNewLines bool   `json:"preserve_newlines"`  // Preserve original line breaks
	TableWrap        bool   `json:"table_wrap"`         // Enable word wrap in table cells
	InlineTableLinks bool   `json:"inline_table_links"` // Render links inline in tables
}

// Config represents the user configuration
type Config struct {
	// Endpoint is the chat URL that receives {"messages": [...]} and streams back
	// "data: " blocks.
	Endpoint string `json:"endpoint"`
	// TimeoutSeconds bounds a whole request including the stream. Zero disables
	// the timeout so long answers are never cut off.
	TimeoutSeconds int `json:"timeout_seconds"`
	// ClientProfile selects the TLS fingerprint of the transport.
	ClientProfile string `json:"client_profile"`
	// AssistantName labels assistant messages in the TUI.
	AssistantName string `json:"assistant_name"`
	// Verbose enables debug logging to LogFile.
	Verbose         bool           `json:"verbose"`
	LogFile         string         `json:"log_file,omitempty"`
	CopyToClipboard bool           `json:"copy_to_clipboard"`
	TUITheme        string         `json:"tui_theme,omitempty"`
	Markdown        MarkdownConfig `json:"markdown,omitempty"`
}

// DefaultMarkdownConfig returns the default markdown configuration
func DefaultMarkdownConfig() MarkdownConfig {
	return MarkdownConfig{
		Style:            "dark",
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
		InlineTableLinks: false,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Endpoint:        "http://localhost:8080/api/chat",
		TimeoutSeconds:  0,
		ClientProfile:   "chrome_120",
		AssistantName:   "Assistant",
		Verbose:         false,
		CopyToClipboard: false,
		TUITheme:        "tokyonight",
		Markdown:        DefaultMarkdownConfig(),
	}
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, configDirName), nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// GetLogPath returns the log file path from config, defaulting to the config dir
func GetLogPath(cfg Config) (string, error) {
	if cfg.LogFile != "" {
		return cfg.LogFile, nil
	}
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "streamchat.log"), nil
}

// LoadConfig loads the configuration from disk
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	configPath, err := GetConfigPath()
	if err != nil {
		return cfg, err
	}

	return loadConfigFile(configPath)
}

// loadConfigFile reads path over the defaults. A missing file yields defaults.
func loadConfigFile(configPath string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Use defaults if config doesn't exist
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// ApplyEnvOverrides returns cfg with environment overrides applied
func ApplyEnvOverrides(cfg Config) Config {
	if endpoint := strings.TrimSpace(os.Getenv(EnvEndpoint)); endpoint != "" {
		cfg.Endpoint = endpoint
	}
	return cfg
}

// SaveConfig saves the configuration to disk
func SaveConfig(cfg Config) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.json")

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setters maps config keys to functions that parse and apply a value
var setters = map[string]func(cfg *Config, value string) error{
	"endpoint": func(cfg *Config, v string) error {
		if !strings.HasPrefix(v, "http://") && !strings.HasPrefix(v, "https://") {
			return fmt.Errorf("endpoint must be an http or https URL")
		}
		cfg.Endpoint = v
		return nil
	},
	"timeout_seconds": func(cfg *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("timeout_seconds must be a non-negative integer")
		}
		cfg.TimeoutSeconds = n
		return nil
	},
	"client_profile": func(cfg *Config, v string) error {
		cfg.ClientProfile = v
		return nil
	},
	"assistant_name": func(cfg *Config, v string) error {
		cfg.AssistantName = v
		return nil
	},
	"verbose":           boolSetter(func(cfg *Config, b bool) { cfg.Verbose = b }),
	"copy_to_clipboard": boolSetter(func(cfg *Config, b bool) { cfg.CopyToClipboard = b }),
	"log_file": func(cfg *Config, v string) error {
		cfg.LogFile = v
		return nil
	},
	"tui_theme": func(cfg *Config, v string) error {
		cfg.TUITheme = v
		return nil
	},
	"markdown.style": func(cfg *Config, v string) error {
		cfg.Markdown.Style = v
		return nil
	},
	"markdown.enable_emoji":       boolSetter(func(cfg *Config, b bool) { cfg.Markdown.EnableEmoji = b }),
	"markdown.preserve_newlines":  boolSetter(func(cfg *Config, b bool) { cfg.Markdown.PreserveNewLines = b }),
	"markdown.table_wrap":         boolSetter(func(cfg *Config, b bool) { cfg.Markdown.TableWrap = b }),
	"markdown.inline_table_links": boolSetter(func(cfg *Config, b bool) { cfg.Markdown.InlineTableLinks = b }),
}

func boolSetter(apply func(cfg *Config, b bool)) func(cfg *Config, value string) error {
	return func(cfg *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("expected true or false, got %q", v)
		}
		apply(cfg, b)
		return nil
	}
}

// SetValue parses value and assigns it to the field named by key
func SetValue(cfg *Config, key, value string) error {
	set, ok := setters[strings.ToLower(key)]
	if !ok {
		return fmt.Errorf("unknown config key %q (valid keys: %s)", key, strings.Join(Keys(), ", "))
	}
	if err := set(cfg, strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return nil
}

// Keys returns the settable config keys in sorted order
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
