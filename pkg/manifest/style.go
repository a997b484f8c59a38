// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"path/filepath"
	"strings"
)

// CommentStyle describes how a file type writes comments. A style may define
// line leaders, a block delimiter pair, or both.
type CommentStyle struct {
	// Line lists the line comment leaders, e.g. "#" or "//".
	Line []string
	// BlockStart and BlockEnd delimit block comments, e.g. "/*" and "*/".
	BlockStart string
	BlockEnd   string
}

// HasBlock reports whether the style defines block comments.
func (s CommentStyle) HasBlock() bool {
	return s.BlockStart != "" && s.BlockEnd != ""
}

// lineLeader returns the leader the (left-trimmed) line starts with.
func (s CommentStyle) lineLeader(line string) (string, bool) {
	for _, l := range s.Line {
		if l == "" || !strings.HasPrefix(line, l) {
			continue
		}
		// A shebang is not a comment, even for '#'-commented languages.
		if l == "#" && strings.HasPrefix(line, "#!") {
			return "", false
		}
		return l, true
	}
	return "", false
}

var (
	hashStyle  = CommentStyle{Line: []string{"#"}}
	slashStyle = CommentStyle{Line: []string{"//"}, BlockStart: "/*", BlockEnd: "*/"}
	dashStyle  = CommentStyle{Line: []string{"--"}}
	semiStyle  = CommentStyle{Line: []string{";"}}

	// DefaultStyle is used for extensions without a configured style. It
	// accepts '#' comment runs and C-style blocks.
	DefaultStyle = CommentStyle{Line: []string{"#"}, BlockStart: "/*", BlockEnd: "*/"}
)

// DefaultStyles maps lowercase extensions (without dot) to comment styles.
func DefaultStyles() map[string]CommentStyle {
	styles := map[string]CommentStyle{
		"php": {Line: []string{"#", "//"}, BlockStart: "/*", BlockEnd: "*/"},
		"lua": {Line: []string{"--"}, BlockStart: "--[[", BlockEnd: "]]"},
	}
	for _, ext := range []string{"sh", "bash", "zsh", "py", "rb", "pl", "pm", "r", "tcl", "awk", "mk", "cmake", "yaml", "yml", "toml", "conf", "cfg"} {
		styles[ext] = hashStyle
	}
	for _, ext := range []string{"go", "c", "h", "cc", "cpp", "hpp", "java", "js", "mjs", "ts", "rs", "swift", "kt", "scala", "cs", "css", "scss", "dart"} {
		styles[ext] = slashStyle
	}
	for _, ext := range []string{"sql", "hs", "ada"} {
		styles[ext] = dashStyle
	}
	for _, ext := range []string{"ini", "el", "lisp", "clj", "asm", "s"} {
		styles[ext] = semiStyle
	}
	return styles
}

// styleFor picks the style for path from styles, falling back to def.
func styleFor(styles map[string]CommentStyle, def CommentStyle, path string) CommentStyle {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if s, ok := styles[ext]; ok && (len(s.Line) > 0 || s.HasBlock()) {
		return s
	}
	return def
}
