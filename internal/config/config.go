package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/ini.v1"
)

// Config represents the teampulse configuration file
type Config struct {
	file *ini.File
}

// DefaultPath returns ~/.teampulse/config
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".teampulse", "config"), nil
}

// Load reads the configuration file at path. An empty path means the
// default location. A missing file yields an empty config.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return &Config{file: ini.Empty()}, nil
	}

	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	return &Config{file: file}, nil
}

// Empty returns a config with no keys set.
func Empty() *Config {
	return &Config{file: ini.Empty()}
}

// GetString retrieves a string value from the config
// section.key format (e.g., "fetch.slack.workspace")
func (c *Config) GetString(key string) string {
	section, keyName := parseKey(key)
	if section == "" {
		return ""
	}

	return c.file.Section(section).Key(keyName).String()
}

// GetInt retrieves an integer value from the config
func (c *Config) GetInt(key string) (int, error) {
	val := c.GetString(key)
	if val == "" {
		return 0, nil
	}

	intVal, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value for %s: %w", key, err)
	}

	return intVal, nil
}

// GetDuration retrieves a Go duration ("45m", "1h") from the config
func (c *Config) GetDuration(key string) (time.Duration, error) {
	val := c.GetString(key)
	if val == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid duration value for %s: %w", key, err)
	}

	return d, nil
}

// GetBool retrieves a boolean value from the config
func (c *Config) GetBool(key string) bool {
	switch strings.ToLower(c.GetString(key)) {
	case "true", "yes", "1", "on":
		return true
	}
	return false
}

// HasKey checks if a key exists in the config
func (c *Config) HasKey(key string) bool {
	section, keyName := parseKey(key)
	if section == "" {
		return false
	}

	sec, err := c.file.GetSection(section)
	if err != nil {
		return false
	}

	return sec.HasKey(keyName)
}

// parseKey splits a dotted key into section and key name
// e.g., "fetch.slack.workspace" -> ("fetch.slack", "workspace")
// For Git config compatibility, we use the last dot as the separator
func parseKey(key string) (string, string) {
	lastDot := strings.LastIndex(key, ".")
	if lastDot == -1 {
		return "", ""
	}

	return key[:lastDot], key[lastDot+1:]
}

// GetStringWithFallback retrieves a string value with a fallback default
func (c *Config) GetStringWithFallback(key, fallback string) string {
	if c.HasKey(key) {
		return c.GetString(key)
	}
	return fallback
}

// GetIntWithFallback retrieves an int value with a fallback default
func (c *Config) GetIntWithFallback(key string, fallback int) int {
	if c.HasKey(key) {
		val, err := c.GetInt(key)
		if err == nil {
			return val
		}
	}
	return fallback
}

// Settings are the resolved values every command reads.
type Settings struct {
	ExportPath        string
	Timezone          string
	InteractionWindow time.Duration
	LexiconPath       string
	Concurrency       int
	ServerAddr        string
	LogLevel          string
	LogFormat         string
	SlackWorkspace    string
	SlackDays         int
}

// Defaults used when neither a flag nor the config file sets a value.
const (
	DefaultTimezone    = "UTC"
	DefaultWindow      = time.Hour
	DefaultConcurrency = 4
	DefaultServerAddr  = "127.0.0.1:8080"
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"
	DefaultSlackDays   = 7
)

// Settings resolves every known key against its default.
func (c *Config) Settings() (Settings, error) {
	s := Settings{
		ExportPath:     c.GetString("export.path"),
		Timezone:       c.GetStringWithFallback("analysis.timezone", DefaultTimezone),
		LexiconPath:    c.GetString("analysis.lexicon"),
		Concurrency:    c.GetIntWithFallback("analysis.concurrency", DefaultConcurrency),
		ServerAddr:     c.GetStringWithFallback("server.addr", DefaultServerAddr),
		LogLevel:       c.GetStringWithFallback("log.level", DefaultLogLevel),
		LogFormat:      c.GetStringWithFallback("log.format", DefaultLogFormat),
		SlackWorkspace: c.GetString("fetch.slack.workspace"),
		SlackDays:      c.GetIntWithFallback("fetch.slack.days", DefaultSlackDays),
	}

	window, err := c.GetDuration("analysis.window")
	if err != nil {
		return Settings{}, err
	}
	if window <= 0 {
		window = DefaultWindow
	}
	s.InteractionWindow = window

	if _, err := s.Location(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Location loads the analysis timezone.
func (s Settings) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid analysis.timezone %q: %w", s.Timezone, err)
	}
	return loc, nil
}
