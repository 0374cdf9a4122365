// Package config loads client settings: defaults, then a TOML file, then
// TADA_* environment variables. Flags are applied by the caller before Validate.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/Makepad-fr/tada/internal/model"
)

const (
	DefaultAPIURL   = "http://localhost:5000"
	DefaultTheme    = "classic"
	DefaultLogLevel = "warn"

	projectConfigFile = "tada.toml"
)

// Config holds the client settings.
type Config struct {
	APIURL        string `toml:"api_url" validate:"required,url"`
	Theme         string `toml:"theme" validate:"oneof=classic neon mono"`
	LogLevel      string `toml:"log_level" validate:"oneof=debug info warn error"`
	LogFile       string `toml:"log_file"`
	SortColumn    string `toml:"sort_column" validate:"oneof=Description DueDate IsDone"`
	SortAscending bool   `toml:"sort_ascending"`

	// Path of the file that was loaded, if any.
	Source string `toml:"-"`
}

var validate = validator.New()

// Defaults returns a Config with every field at its default.
func Defaults() *Config {
	return &Config{
		APIURL:     DefaultAPIURL,
		Theme:      DefaultTheme,
		LogLevel:   DefaultLogLevel,
		SortColumn: model.ColumnDueDate,
	}
}

// Load builds the configuration. A non-empty path must exist; otherwise
// ./tada.toml and then the user config file are tried.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if err := loadFile(cfg, expandPath(path)); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	} else if p := findConfigFile(); p != "" {
		if err := loadFile(cfg, p); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", p, err)
		}
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field values once flags have been applied.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: invalid value %q (%s)", tomlName(fe.StructField()), fmt.Sprint(fe.Value()), fe.Tag()))
	}
	return fmt.Errorf("config: %s", strings.Join(msgs, "; "))
}

// Filter is the list filter the configuration starts with.
func (c *Config) Filter() model.Filter {
	return model.Filter{ColumnName: c.SortColumn, SortAscending: c.SortAscending}
}

func loadFile(cfg *Config, path string) error {
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	cfg.Source = path
	return nil
}

func loadFromEnv(cfg *Config) error {
	if v := os.Getenv("TADA_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("TADA_THEME"); v != "" {
		cfg.Theme = v
	}
	if v := os.Getenv("TADA_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("TADA_LOG_FILE"); v != "" {
		cfg.LogFile = expandPath(v)
	}
	if v := os.Getenv("TADA_SORT_COLUMN"); v != "" {
		cfg.SortColumn = v
	}
	if v := os.Getenv("TADA_SORT_ASC"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TADA_SORT_ASC: %w", err)
		}
		cfg.SortAscending = b
	}
	return nil
}

func findConfigFile() string {
	if fileExists(projectConfigFile) {
		return projectConfigFile
	}
	if p := userConfigFile(); p != "" && fileExists(p) {
		return p
	}
	return ""
}

func userConfigFile() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "tada", "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "tada", "config.toml")
}

func fileExists(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && !fi.IsDir()
}

// expandPath expands a leading ~/ and environment variables.
func expandPath(p string) string {
	p = os.ExpandEnv(p)
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

func tomlName(field string) string {
	switch field {
	case "APIURL":
		return "api_url"
	case "LogLevel":
		return "log_level"
	case "SortColumn":
		return "sort_column"
	default:
		return strings.ToLower(field)
	}
}
