// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	formatYAML outputFormat = "yaml"
	formatJSON outputFormat = "json"
	formatTOML outputFormat = "toml"
	formatText outputFormat = "text"
)

// outputFormat names a machine-readable encoding, or "text" for styled output.
type outputFormat string

func parseFormat(s string, allowed ...outputFormat) (outputFormat, error) {
	f := outputFormat(strings.ToLower(strings.TrimSpace(s)))
	if f == "yml" {
		f = formatYAML
	}
	for _, a := range allowed {
		if f == a {
			return f, nil
		}
	}
	names := make([]string, len(allowed))
	for i, a := range allowed {
		names[i] = string(a)
	}
	return "", usageError("unknown format %q (valid: %s)", s, strings.Join(names, ", "))
}

// formatForFile infers the encoding from a file extension.
func formatForFile(path string) (outputFormat, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	return parseFormat(ext, formatYAML, formatJSON, formatTOML)
}

// encode writes v to w in format f.
func encode(w io.Writer, f outputFormat, v any) error {
	switch f {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatTOML:
		return toml.NewEncoder(w).Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("format %q cannot encode data", f)
	}
}
