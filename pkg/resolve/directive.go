// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"errors"
	"fmt"
	"strings"
)

// globMeta are the characters that turn a directive source into a pattern.
const globMeta = "*?[{"

var (
	// ErrEmptySource is returned for directives such as "=dest" that name no source.
	ErrEmptySource = errors.New("directive has no source")
)

// Directive is one parsed "src[=dest]" token of a pack: field.
type Directive struct {
	// Raw is the token as written, escapes included.
	Raw string
	// Source is the unescaped source path, relative to the declaring file.
	Source string
	// Pattern is the source part with escapes intact, used for glob expansion.
	Pattern string
	// Dest is the unescaped destination. Only meaningful when HasDest is set.
	Dest string
	// HasDest reports whether an '=' was present. An empty Dest with HasDest
	// set excludes the source from the output.
	HasDest bool

	glob bool
}

// ParseDirective splits raw on its first unescaped '='.
func ParseDirective(raw string) (Directive, error) {
	d := Directive{Raw: raw}

	split := -1
	escaped := false
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case c == '=':
			split = i
		case strings.IndexByte(globMeta, c) >= 0:
			d.glob = true
		}
		if split >= 0 {
			break
		}
	}

	src := raw
	if split >= 0 {
		src = raw[:split]
		d.Dest = unescape(raw[split+1:])
		d.HasDest = true
	}
	d.Pattern = src
	d.Source = unescape(src)
	if d.Source == "" {
		return Directive{}, fmt.Errorf("%w: %q", ErrEmptySource, raw)
	}
	return d, nil
}

// IsGlob reports whether the source contains unescaped glob metacharacters.
func (d Directive) IsGlob() bool {
	return d.glob
}

// Excludes reports whether the directive suppresses its sources.
func (d Directive) Excludes() bool {
	return d.HasDest && d.Dest == ""
}

func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
