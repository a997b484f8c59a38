// SPDX-License-Identifier: MPL-2.0

// Package resolve builds the source→destination mapping of a packaging run.
//
// Resolution happens in two passes. Build walks the files reachable from an
// entry file through their "pack:" directives and records, per declaring file
// (the origin), which sources it references and where it wants them to go.
// Graph.Resolve then applies the override chain: a file's declaration about
// its own destination wins over what other files assigned to it, and a file
// sitting at an assigned destination may redirect or exclude it.
//
// Directives use the form "src[=dest]". A missing "=dest" keeps the source
// path, an empty dest excludes the source, and a dest ending in '/' names a
// directory the source is placed into. Sources may be doublestar globs.
package resolve
