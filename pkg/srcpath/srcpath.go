// SPDX-License-Identifier: MPL-2.0

// Package srcpath provides the slash-separated path helpers used by the
// manifest resolver. Paths handled here are always relative to the resolution
// root and always use '/' as separator, independent of the host OS; callers
// convert with filepath.FromSlash right before touching the filesystem.
package srcpath

import (
	"path"
	"strings"
)

// Normalize consolidates "./" and "name/../" segments of p.
//
// A "./" segment is dropped when it starts the path or follows a '/'.
// A "name/../" pair is dropped when name consists only of word characters,
// dots and dashes and is not itself "..". Pairs are collapsed until none are
// left, so Normalize(Normalize(p)) == Normalize(p). Leading "../" segments that
// have nothing to consolidate against are kept as-is, and so are trailing
// slashes, which mark directory targets.
func Normalize(p string) string {
	if p == "" {
		return ""
	}

	segs := strings.Split(p, "/")
	last := len(segs) - 1

	kept := make([]string, 0, len(segs))
	for i, seg := range segs {
		// "." only counts as a segment when a '/' follows it.
		if seg == "." && i < last {
			continue
		}
		if seg == ".." && i < last && len(kept) > 0 && collapsible(kept[len(kept)-1]) {
			kept = kept[:len(kept)-1]
			continue
		}
		kept = append(kept, seg)
	}

	return strings.Join(kept, "/")
}

// collapsible reports whether seg may be cancelled out by a following "..".
func collapsible(seg string) bool {
	if seg == "" || seg == ".." {
		return false
	}
	for i := 0; i < len(seg); i++ {
		c := seg[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '_', c == '.', c == '-':
		default:
			return false
		}
	}
	return true
}

// Split separates p into its directory part (including the trailing slash, or
// empty for a bare file name) and its final element.
func Split(p string) (dir, name string) {
	i := strings.LastIndexByte(p, '/')
	return p[:i+1], p[i+1:]
}

// Base returns the final element of p, ignoring a trailing slash.
func Base(p string) string {
	return path.Base(p)
}

// IsDirTarget reports whether p names a directory target ("images/").
func IsDirTarget(p string) bool {
	return strings.HasSuffix(p, "/")
}

// Escapes reports whether p leaves the tree it is relative to: it starts with
// a "../" segment or is absolute.
func Escapes(p string) bool {
	return p == ".." || strings.HasPrefix(p, "../") || strings.HasPrefix(p, "/")
}
