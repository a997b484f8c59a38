// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable errors and a catalog of Markdown
// explanations rendered with glamour for the srcpack CLI.
package issue
