// SPDX-License-Identifier: MPL-2.0

// Package manifest extracts packaging metadata from the leading comment block
// of source files.
//
// A header looks like this in a shell script:
//
//	#!/bin/sh
//	# title: backup helper
//	# version: 1.2
//	# pack: lib.sh, README=README.txt, icons/*.png=share/icons/
//	#
//	# Free text after the first blank line becomes the comment.
//
// Field keys are case-insensitive. A value continues on following lines until
// the next "key:" line. The pack: field lists directives separated by commas
// or whitespace; a backslash escapes a literal comma, space or '='.
package manifest
