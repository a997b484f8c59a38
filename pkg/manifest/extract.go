// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

// DefaultMaxHeaderBytes bounds how much of a file is read. Headers always sit
// near the top of a file.
const DefaultMaxHeaderBytes = 8 << 10

// fieldLine matches a "key: value" header line.
var fieldLine = regexp.MustCompile(`^([\w-]+):[ \t]*(.*)$`)

type (
	// Extractor reads and parses the leading comment block of files.
	// It holds no per-file state and may be reused across files.
	Extractor struct {
		styles   map[string]CommentStyle
		fallback CommentStyle
		maxBytes int
	}

	// Option configures an Extractor.
	Option func(*Extractor)
)

// WithStyles adds or replaces comment styles by extension (without dot).
func WithStyles(styles map[string]CommentStyle) Option {
	return func(e *Extractor) {
		for ext, s := range styles {
			e.styles[strings.ToLower(strings.TrimPrefix(ext, "."))] = s
		}
	}
}

// WithDefaultStyle sets the style used for unknown extensions.
func WithDefaultStyle(s CommentStyle) Option {
	return func(e *Extractor) { e.fallback = s }
}

// WithMaxHeaderBytes sets the read limit. Non-positive values are ignored.
func WithMaxHeaderBytes(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.maxBytes = n
		}
	}
}

// NewExtractor creates an Extractor with the default comment styles.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		styles:   DefaultStyles(),
		fallback: DefaultStyle,
		maxBytes: DefaultMaxHeaderBytes,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Styles returns a copy of the configured comment styles.
func (e *Extractor) Styles() map[string]CommentStyle {
	return maps.Clone(e.styles)
}

// Extract reads the header of the file at path. The caller is expected to
// have checked that the file exists; any read error is returned as-is.
func (e *Extractor) Extract(path string) (*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest source: %w", err)
	}
	defer func() { _ = f.Close() }()

	src, err := io.ReadAll(io.LimitReader(f, int64(e.maxBytes)))
	if err != nil {
		return nil, fmt.Errorf("read manifest source %s: %w", path, err)
	}
	return e.Parse(path, src), nil
}

// Parse builds a Record from the already-read head of a file. The path only
// selects the comment style and the derived id.
func (e *Extractor) Parse(path string, src []byte) *Record {
	rec := &Record{Path: path}

	style := styleFor(e.styles, e.fallback, path)
	if block, ok := findBlock(string(src), style); ok {
		rec.HasHeader = true
		fields, comment := splitBlock(block)
		rec.Comment = comment
		parseFields(rec, fields)
	}

	if rec.ID == "" {
		rec.ID = deriveID(path)
	}
	rec.Pack = SplitList(rec.rawPack)
	rec.Depends = splitDepends(rec.rawDepends)
	return rec
}

// findBlock returns the de-commented lines of the first comment block.
func findBlock(src string, style CommentStyle) ([]string, bool) {
	lines := strings.Split(src, "\n")
	for i, raw := range lines {
		line := trimLine(raw)
		if style.HasBlock() && strings.HasPrefix(line, style.BlockStart) {
			return blockBody(lines[i:], style), true
		}
		if _, ok := style.lineLeader(line); ok {
			var out []string
			for _, next := range lines[i:] {
				t := trimLine(next)
				leader, ok := style.lineLeader(t)
				if !ok {
					break
				}
				out = append(out, stripLeader(t, leader))
			}
			return out, true
		}
	}
	return nil, false
}

func blockBody(lines []string, style CommentStyle) []string {
	first := trimLine(lines[0])[len(style.BlockStart):]
	if end := strings.Index(first, style.BlockEnd); end >= 0 {
		return []string{stripBlockLine(first[:end])}
	}

	out := []string{stripBlockLine(first)}
	for _, raw := range lines[1:] {
		line := strings.TrimRight(raw, "\r")
		if end := strings.Index(line, style.BlockEnd); end >= 0 {
			out = append(out, stripBlockLine(line[:end]))
			break
		}
		out = append(out, stripBlockLine(line))
	}
	return out
}

func trimLine(s string) string {
	return strings.TrimLeft(strings.TrimRight(s, "\r"), " \t")
}

func stripLeader(line, leader string) string {
	for strings.HasPrefix(line, leader) {
		line = line[len(leader):]
	}
	return strings.TrimRight(strings.TrimLeft(line, " \t"), " \t")
}

func stripBlockLine(line string) string {
	return strings.TrimRight(strings.TrimLeft(line, " \t*"), " \t")
}

// splitBlock separates the field section from the free-text comment at the
// first blank line.
func splitBlock(lines []string) ([]string, string) {
	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	for i, l := range lines {
		if l == "" {
			return lines[:i], strings.Trim(strings.Join(lines[i+1:], "\n"), "\n")
		}
	}
	return lines, ""
}

func parseFields(rec *Record, lines []string) {
	var (
		key   string
		value []string
	)
	flush := func() {
		if key != "" {
			rec.set(key, strings.Join(value, "\n"))
		}
	}

	for _, line := range lines {
		if m := fieldLine.FindStringSubmatch(line); m != nil {
			flush()
			key = strings.ToLower(m[1])
			value = []string{m[2]}
			continue
		}
		if key == "" {
			rec.Malformed = append(rec.Malformed, line)
			continue
		}
		value = append(value, line)
	}
	flush()
}

// SplitList splits a pack: value on runs of commas and whitespace. A
// backslash protects the following character from splitting; the backslash
// itself is kept so that directive parsing can honor escaped '=' signs.
func SplitList(raw string) []string {
	var (
		out     []string
		cur     strings.Builder
		escaped bool
	)
	for _, r := range raw {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			cur.WriteRune(r)
			escaped = true
		case r == ',' || unicode.IsSpace(r):
			if cur.Len() > 0 {
				out = append(out, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

func splitDepends(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// deriveID strips the directory and the final extension from path.
func deriveID(path string) string {
	base := filepath.Base(filepath.FromSlash(path))
	ext := filepath.Ext(base)
	if ext == base || len(ext) < 2 {
		return base
	}
	for _, r := range ext[1:] {
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return base
		}
	}
	return strings.TrimSuffix(base, ext)
}
