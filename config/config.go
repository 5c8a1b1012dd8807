// Package config provides configuration loading for newtab using TOML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Completion settings for the suggestion backend
type Completion struct {
	Provider       string `toml:"provider"` // "openai" or "anthropic"
	Model          string `toml:"model"`    // empty = the provider's default
	BaseURL        string `toml:"baseURL"`  // empty = the provider's public API
	TimeoutSeconds int    `toml:"timeoutSeconds"`
}

// Timeout returns the request timeout as a duration.
func (c Completion) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Storage settings for pins, keys and backgrounds
type Storage struct {
	Backend string `toml:"backend"` // "file" or "sqlite"
	Path    string `toml:"path"`    // empty = under ~/.config/newtab
}

// Server settings
type Server struct {
	Addr string `toml:"addr"`
}

// Display settings
type Display struct {
	Theme string `toml:"theme"`
}

// Search settings
type Search struct {
	FallbackURL string `toml:"fallbackURL"` // %s is replaced by the escaped query
}

// Log settings
type Log struct {
	Level string `toml:"level"`
	File  string `toml:"file"` // TUI log file; empty = ~/.config/newtab/newtab.log
}

// Keybindings for the terminal page, in bubbletea key notation
type Keybindings struct {
	Reset       string `toml:"reset"`
	ToggleTheme string `toml:"toggleTheme"`
	NextTheme   string `toml:"nextTheme"`
}

// Config is the main configuration struct
type Config struct {
	Completion  Completion  `toml:"completion"`
	Storage     Storage     `toml:"storage"`
	Server      Server      `toml:"server"`
	Display     Display     `toml:"display"`
	Search      Search      `toml:"search"`
	Log         Log         `toml:"log"`
	Keybindings Keybindings `toml:"keybindings"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Completion: Completion{
			Provider:       "openai",
			TimeoutSeconds: 10,
		},
		Storage: Storage{
			Backend: "file",
		},
		Server: Server{
			Addr: "127.0.0.1:7878",
		},
		Display: Display{
			Theme: "default-dark",
		},
		Search: Search{
			FallbackURL: "https://www.google.com/search?q=%s",
		},
		Log: Log{
			Level: "info",
		},
		Keybindings: Keybindings{
			Reset:       "ctrl+u",
			ToggleTheme: "ctrl+t",
			NextTheme:   "ctrl+n",
		},
	}
}

// Dir returns the configuration directory path.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "newtab"), nil
}

// ConfigPath returns the path to the user's config file.
func ConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load loads configuration, layering user config on top of defaults.
// Returns the default config if no user config exists.
func Load() (*Config, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return Default(), nil // Return defaults if we can't determine path
	}
	return LoadFile(configPath)
}

// LoadFile loads the config at path over the defaults. A missing file
// yields the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}

	userCfg, err := loadFromTOML(path)
	if err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}
	return merge(cfg, userCfg), nil
}

// loadFromTOML loads a TOML config file and returns the config.
func loadFromTOML(path string) (*Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config TOML: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return &cfg, nil
}

// FormatError renders a config error for the terminal. TOML parse errors
// include the offending line.
func FormatError(err error) string {
	var perr toml.ParseError
	if errors.As(err, &perr) {
		return perr.ErrorWithPosition()
	}
	return err.Error()
}

// merge layers user config on top of defaults.
// Only non-zero values from user config override defaults.
func merge(defaults, user *Config) *Config {
	result := *defaults

	// Completion
	mergeString(&result.Completion.Provider, user.Completion.Provider)
	mergeString(&result.Completion.Model, user.Completion.Model)
	mergeString(&result.Completion.BaseURL, user.Completion.BaseURL)
	if user.Completion.TimeoutSeconds != 0 {
		result.Completion.TimeoutSeconds = user.Completion.TimeoutSeconds
	}

	// Storage
	mergeString(&result.Storage.Backend, user.Storage.Backend)
	mergeString(&result.Storage.Path, user.Storage.Path)

	mergeString(&result.Server.Addr, user.Server.Addr)
	mergeString(&result.Display.Theme, user.Display.Theme)
	mergeString(&result.Search.FallbackURL, user.Search.FallbackURL)

	// Log
	mergeString(&result.Log.Level, user.Log.Level)
	mergeString(&result.Log.File, user.Log.File)

	// Keybindings - override each if set
	mergeString(&result.Keybindings.Reset, user.Keybindings.Reset)
	mergeString(&result.Keybindings.ToggleTheme, user.Keybindings.ToggleTheme)
	mergeString(&result.Keybindings.NextTheme, user.Keybindings.NextTheme)

	return &result
}

func mergeString(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

// DefaultTOML returns the default configuration as a TOML string.
// Used for --init-config to generate a user config file.
func DefaultTOML() string {
	return `# newtab configuration
# Save to ~/.config/newtab/config.toml and customize
# Only include settings you want to change from defaults

# Search suggestions
[completion]
provider = "openai"           # "openai" or "anthropic"
model = ""                    # empty = provider default (gpt-4-turbo for openai)
baseURL = ""                  # OpenAI-compatible endpoint (empty = api.openai.com)
timeoutSeconds = 10

# Where pins, API keys and backgrounds are kept
[storage]
backend = "file"              # "file" or "sqlite"
path = ""                     # empty = ~/.config/newtab/storage (or newtab.db)

# newtab serve
[server]
addr = "127.0.0.1:7878"

[display]
theme = "default-dark"

# Used when no provider matches the input
[search]
fallbackURL = "https://www.google.com/search?q=%s"

[log]
level = "info"                # trace, debug, info, warn, error
file = ""                     # TUI log file (empty = ~/.config/newtab/newtab.log)

# Terminal page keys
[keybindings]
reset = "ctrl+u"
toggleTheme = "ctrl+t"
nextTheme = "ctrl+n"
`
}
