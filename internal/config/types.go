// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/srcpack/srcpack/pkg/manifest"
	"github.com/srcpack/srcpack/pkg/stage"
)

const (
	// LogLevelDebug logs every copied and excluded file.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo logs missing sources and progress.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn logs recoverable resolution problems only.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError logs failures only.
	LogLevelError LogLevel = "error"

	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"
)

var (
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidCommentStyle is the sentinel error wrapped by InvalidCommentStyleError.
	ErrInvalidCommentStyle = errors.New("invalid comment style")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// LogLevel is the minimum level written to stderr.
	LogLevel string

	// InvalidLogLevelError is returned when a LogLevel value is not recognized.
	// It wraps ErrInvalidLogLevel for errors.Is() compatibility.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// InvalidCommentStyleError is returned when a configured comment style
	// has neither line leaders nor a complete block delimiter pair.
	InvalidCommentStyleError struct {
		Extension string
		Reason    string
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// CommentStyle configures header detection for one file extension.
	CommentStyle struct {
		// Line lists line comment leaders such as "#" or "//".
		Line []string `json:"line,omitempty" yaml:"line,omitempty" toml:"line,omitempty" mapstructure:"line"`
		// BlockStart and BlockEnd delimit block comments.
		BlockStart string `json:"block_start,omitempty" yaml:"block_start,omitempty" toml:"block_start,omitempty" mapstructure:"block_start"`
		BlockEnd   string `json:"block_end,omitempty" yaml:"block_end,omitempty" toml:"block_end,omitempty" mapstructure:"block_end"`
	}

	// LogConfig configures logging.
	LogConfig struct {
		// Level is the minimum level written to stderr
		Level LogLevel `json:"level" yaml:"level" toml:"level" mapstructure:"level"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// ColorScheme sets the color scheme
		ColorScheme ColorScheme `json:"color_scheme" yaml:"color_scheme" toml:"color_scheme" mapstructure:"color_scheme"`
		// Verbose enables verbose output
		Verbose bool `json:"verbose" yaml:"verbose" toml:"verbose" mapstructure:"verbose"`
	}

	// Config holds the application configuration.
	Config struct {
		// Prefix is the install prefix below the staging root
		Prefix string `json:"prefix" yaml:"prefix" toml:"prefix" mapstructure:"prefix"`
		// Recurse follows pack: references of referenced files
		Recurse bool `json:"recurse" yaml:"recurse" toml:"recurse" mapstructure:"recurse"`
		// EscapePolicy handles destinations above the prefix root
		EscapePolicy stage.EscapePolicy `json:"escape_policy" yaml:"escape_policy" toml:"escape_policy" mapstructure:"escape_policy"`
		// MaxHeaderBytes bounds how much of each file is scanned for a header
		MaxHeaderBytes int `json:"max_header_bytes" yaml:"max_header_bytes" toml:"max_header_bytes" mapstructure:"max_header_bytes"`
		// CacheSize is the number of parsed headers kept in memory
		CacheSize int `json:"cache_size" yaml:"cache_size" toml:"cache_size" mapstructure:"cache_size"`
		// FixPerms clamps staged permissions to 0755/0644
		FixPerms bool `json:"fix_perms" yaml:"fix_perms" toml:"fix_perms" mapstructure:"fix_perms"`
		// CommentStyles adds or replaces comment styles by extension
		CommentStyles map[string]CommentStyle `json:"comment_styles" yaml:"comment_styles" toml:"comment_styles" mapstructure:"comment_styles"`
		// Log configures logging
		Log LogConfig `json:"log" yaml:"log" toml:"log" mapstructure:"log"`
		// UI configures the user interface
		UI UIConfig `json:"ui" yaml:"ui" toml:"ui" mapstructure:"ui"`
	}
)

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Prefix:         "",
		Recurse:        true,
		EscapePolicy:   stage.EscapeWarn,
		MaxHeaderBytes: manifest.DefaultMaxHeaderBytes,
		CacheSize:      manifest.DefaultCacheSize,
		FixPerms:       false,
		CommentStyles:  map[string]CommentStyle{},
		Log: LogConfig{
			Level: LogLevelWarn,
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
			Verbose:     false,
		},
	}
}

// ManifestOptions translates the header-related settings into extractor
// options.
func (c *Config) ManifestOptions() []manifest.Option {
	opts := []manifest.Option{manifest.WithMaxHeaderBytes(c.MaxHeaderBytes)}
	if len(c.CommentStyles) > 0 {
		styles := make(map[string]manifest.CommentStyle, len(c.CommentStyles))
		for ext, s := range c.CommentStyles {
			styles[ext] = manifest.CommentStyle{
				Line:       slices.Clone(s.Line),
				BlockStart: s.BlockStart,
				BlockEnd:   s.BlockEnd,
			}
		}
		opts = append(opts, manifest.WithStyles(styles))
	}
	return opts
}

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string { return string(l) }

// IsValid returns whether the LogLevel is one of the defined levels.
func (l LogLevel) IsValid() (bool, []error) {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true, nil
	default:
		return false, []error{&InvalidLogLevelError{Value: l}}
	}
}

// Error implements the error interface for InvalidLogLevelError.
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns ErrInvalidLogLevel for errors.Is() compatibility.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

// String returns the string representation of the ColorScheme.
func (c ColorScheme) String() string { return string(c) }

// IsValid returns whether the ColorScheme is one of the defined schemes.
func (c ColorScheme) IsValid() (bool, []error) {
	switch c {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: c}}
	}
}

// Error implements the error interface for InvalidColorSchemeError.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns ErrInvalidColorScheme for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// IsValid returns whether the style can detect a comment at all.
func (s CommentStyle) IsValid(ext string) (bool, []error) {
	switch {
	case (s.BlockStart == "") != (s.BlockEnd == ""):
		return false, []error{&InvalidCommentStyleError{Extension: ext, Reason: "block_start and block_end must be set together"}}
	case len(s.Line) == 0 && s.BlockStart == "":
		return false, []error{&InvalidCommentStyleError{Extension: ext, Reason: "no line leader or block delimiters"}}
	}
	return true, nil
}

// Error implements the error interface for InvalidCommentStyleError.
func (e *InvalidCommentStyleError) Error() string {
	return fmt.Sprintf("invalid comment style for %q: %s", e.Extension, e.Reason)
}

// Unwrap returns ErrInvalidCommentStyle for errors.Is() compatibility.
func (e *InvalidCommentStyleError) Unwrap() error { return ErrInvalidCommentStyle }

// IsValid returns whether the Config has valid fields. Comment styles are
// checked in extension order so the reported errors are stable.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if err := c.EscapePolicy.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.MaxHeaderBytes < 0 {
		errs = append(errs, fmt.Errorf("max_header_bytes must not be negative, got %d", c.MaxHeaderBytes))
	}
	if c.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("cache_size must not be negative, got %d", c.CacheSize))
	}
	for _, ext := range slices.Sorted(maps.Keys(c.CommentStyles)) {
		if valid, fieldErrs := c.CommentStyles[ext].IsValid(ext); !valid {
			errs = append(errs, fieldErrs...)
		}
	}
	if valid, fieldErrs := c.Log.Level.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.UI.ColorScheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	if len(e.FieldErrors) == 1 {
		return fmt.Sprintf("invalid config: %v", e.FieldErrors[0])
	}
	return fmt.Sprintf("invalid config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidConfig followed by the field errors, so callers
// can match both the config sentinel and the individual field sentinels.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}
