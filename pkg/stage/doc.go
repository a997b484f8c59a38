// SPDX-License-Identifier: MPL-2.0

// Package stage materializes a resolved mapping into a staging tree and
// provides the post-staging filters (Unprefix, FixPerms) applied before the
// tree is handed to an archive writer.
package stage
