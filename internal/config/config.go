// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/srcpack/srcpack/internal/issue"
	"github.com/srcpack/srcpack/pkg/cueutil"
)

const (
	// AppName is the application name.
	AppName = "srcpack"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes every environment override (SRCPACK_ESCAPE_POLICY).
	EnvPrefix = "SRCPACK"
	// DotEnvFile is loaded from the working directory when present.
	DotEnvFile = ".env"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the srcpack configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	// Allow tests to override the config directory
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// ConfigFilePath returns the default config file location.
func ConfigFilePath() (string, error) {
	cfgDir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt), nil
}

// newViper returns a viper instance carrying the defaults and the SRCPACK_*
// environment bindings.
func newViper() *viper.Viper {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("prefix", defaults.Prefix)
	v.SetDefault("recurse", defaults.Recurse)
	v.SetDefault("escape_policy", string(defaults.EscapePolicy))
	v.SetDefault("max_header_bytes", defaults.MaxHeaderBytes)
	v.SetDefault("cache_size", defaults.CacheSize)
	v.SetDefault("fix_perms", defaults.FixPerms)
	v.SetDefault("comment_styles", map[string]any{})
	v.SetDefault("log.level", string(defaults.Log.Level))
	v.SetDefault("ui.color_scheme", string(defaults.UI.ColorScheme))
	v.SetDefault("ui.verbose", defaults.UI.Verbose)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// loadWithOptions performs option-driven config loading without mutating
// package-level state other than the process environment (.env values).
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	if err := loadDotEnv(opts); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("load environment file").
			WithResource(opts.envFile()).
			WithSuggestion("Check that the file uses KEY=value lines").
			Wrap(err).
			BuildError()
	}

	v := newViper()
	resolvedPath := ""

	// A config file passed with --config is used exclusively.
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Check that the file exists and is readable").
				WithSuggestion("Use 'srcpack config init' to create a default configuration").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		if err := loadCUEIntoViper(v, opts.ConfigFilePath); err != nil {
			return nil, "", cueLoadError(opts.ConfigFilePath, err)
		}
		resolvedPath = opts.ConfigFilePath
	} else {
		cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
		if err != nil {
			return nil, "", err
		}

		// A project-local config.cue wins over the user config.
		candidates := []string{
			filepath.Join(opts.WorkDir, ConfigFileName+"."+ConfigFileExt),
			filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt),
		}
		for _, path := range candidates {
			if !fileExists(path) {
				continue
			}
			if err := loadCUEIntoViper(v, path); err != nil {
				return nil, "", cueLoadError(path, err)
			}
			resolvedPath = path
			break
		}
		// If no config file found, use defaults (no error)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.CommentStyles == nil {
		cfg.CommentStyles = map[string]CommentStyle{}
	}

	// Environment overrides bypass the CUE schema, so check again.
	if valid, errs := cfg.IsValid(); !valid {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Check SRCPACK_* environment variables and the config file for typos").
			WithSuggestion("Run 'srcpack config show' to see the effective configuration").
			Wrap(errors.Join(errs...)).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

func cueLoadError(path string, err error) error {
	return issue.NewErrorContext().
		WithOperation("load configuration").
		WithResource(path).
		WithSuggestion("Check that the file contains valid CUE syntax").
		WithSuggestion("Verify the configuration values match the expected schema").
		WithSuggestion("Run 'srcpack config init' for a commented default file").
		Wrap(err).
		BuildError()
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

// loadDotEnv exports the variables of the .env file into the process
// environment. Variables that are already set keep their value. A missing
// default .env file is not an error; a missing explicit one is.
func loadDotEnv(opts LoadOptions) error {
	path := opts.envFile()
	if opts.EnvFile == "" && !fileExists(path) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// loadCUEIntoViper validates a CUE file against the #Config schema and
// merges its contents into Viper, keeping defaults for absent fields.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	configMap, err := cueutil.DecodeMap(configSchema, data, "#Config", cueutil.WithFilename(path))
	if err != nil {
		return err
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false
	}
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes a default config file to the config directory
// unless one exists. It returns the file path and whether it was created.
func CreateDefaultConfig() (string, bool, error) {
	cfgPath, err := ConfigFilePath()
	if err != nil {
		return "", false, err
	}

	if _, err := os.Stat(cfgPath); err == nil {
		return cfgPath, false, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
		return "", false, fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(cfgPath, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", false, fmt.Errorf("failed to write config file: %w", err)
	}

	return cfgPath, true, nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// srcpack configuration file\n")
	sb.WriteString("// Every field is optional; SRCPACK_* environment variables override these values.\n\n")

	sb.WriteString(fmt.Sprintf("prefix: %q\n", cfg.Prefix))
	sb.WriteString(fmt.Sprintf("recurse: %v\n", cfg.Recurse))
	sb.WriteString(fmt.Sprintf("escape_policy: %q\n", cfg.EscapePolicy))
	sb.WriteString(fmt.Sprintf("max_header_bytes: %d\n", cfg.MaxHeaderBytes))
	sb.WriteString(fmt.Sprintf("cache_size: %d\n", cfg.CacheSize))
	sb.WriteString(fmt.Sprintf("fix_perms: %v\n", cfg.FixPerms))

	if len(cfg.CommentStyles) > 0 {
		sb.WriteString("\ncomment_styles: {\n")
		for _, ext := range sortedKeys(cfg.CommentStyles) {
			s := cfg.CommentStyles[ext]
			sb.WriteString(fmt.Sprintf("\t%q: {\n", ext))
			if len(s.Line) > 0 {
				quoted := make([]string, len(s.Line))
				for i, l := range s.Line {
					quoted[i] = fmt.Sprintf("%q", l)
				}
				sb.WriteString(fmt.Sprintf("\t\tline: [%s]\n", strings.Join(quoted, ", ")))
			}
			if s.BlockStart != "" {
				sb.WriteString(fmt.Sprintf("\t\tblock_start: %q\n", s.BlockStart))
				sb.WriteString(fmt.Sprintf("\t\tblock_end: %q\n", s.BlockEnd))
			}
			sb.WriteString("\t}\n")
		}
		sb.WriteString("}\n")
	}

	sb.WriteString("\nlog: {\n")
	sb.WriteString(fmt.Sprintf("\tlevel: %q\n", cfg.Log.Level))
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	sb.WriteString(fmt.Sprintf("\tcolor_scheme: %q\n", cfg.UI.ColorScheme))
	sb.WriteString(fmt.Sprintf("\tverbose: %v\n", cfg.UI.Verbose))
	sb.WriteString("}\n")

	return sb.String()
}
