// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the srcpack CLI commands.
//
// Every command is built from an App, the composition root holding the
// configuration provider and output streams, so tests can run commands
// against buffers and temporary directories.
package cmd
