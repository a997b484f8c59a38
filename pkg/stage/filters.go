// SPDX-License-Identifier: MPL-2.0

package stage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/srcpack/srcpack/pkg/resolve"
	"github.com/srcpack/srcpack/pkg/srcpath"
)

// writableByOthers are the bits FixPerms clears.
const writableByOthers fs.FileMode = 0o022

// FixPerms clamps every entry below root to at most 0755 (directories and
// executables) or 0644 (other files) by clearing group and other write
// bits. Setuid, setgid and sticky bits are kept. Symlinks are not followed
// and root itself is left alone.
func FixPerms(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return &resolve.IOError{Op: "walk", Path: path, Err: err}
		}
		if path == root || d.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return &resolve.IOError{Op: "stat", Path: path, Err: err}
		}
		mode := info.Mode() & (fs.ModePerm | fs.ModeSetuid | fs.ModeSetgid | fs.ModeSticky)
		fixed := mode &^ writableByOthers
		if fixed == mode {
			return nil
		}
		if err := os.Chmod(path, fixed); err != nil {
			return &resolve.IOError{Op: "chmod", Path: path, Err: err}
		}
		return nil
	})
}

// Unprefix replaces the staging tree at root with the contents of its
// sub-directory sub ("usr/share/app"), so the packaged files sit at the top
// level. Everything outside sub is discarded. A missing sub returns an error
// wrapping ErrPrefixDirMissing and leaves root untouched.
func Unprefix(root, sub string) error {
	sub = srcpath.Normalize(sub)
	if sub == "" || sub == "." || sub == "./" {
		return nil
	}
	if srcpath.Escapes(sub) {
		return &resolve.PathEscapeError{Source: root, Dest: sub}
	}

	from := filepath.Join(root, filepath.FromSlash(sub))
	info, err := os.Stat(from)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s", ErrPrefixDirMissing, sub)
	case err != nil:
		return &resolve.IOError{Op: "stat", Path: from, Err: err}
	case !info.IsDir():
		return fmt.Errorf("unprefix %s: not a directory", sub)
	}

	rootInfo, err := os.Stat(root)
	if err != nil {
		return &resolve.IOError{Op: "stat", Path: root, Err: err}
	}

	clean := filepath.Clean(root)
	keep, err := os.MkdirTemp(filepath.Dir(clean), "."+filepath.Base(clean)+"-unprefix-")
	if err != nil {
		return &resolve.IOError{Op: "mkdir", Path: filepath.Dir(clean), Err: err}
	}

	entries, err := os.ReadDir(from)
	if err != nil {
		_ = os.RemoveAll(keep)
		return &resolve.IOError{Op: "read", Path: from, Err: err}
	}
	for _, entry := range entries {
		if err := os.Rename(filepath.Join(from, entry.Name()), filepath.Join(keep, entry.Name())); err != nil {
			return &resolve.IOError{Op: "move", Path: entry.Name(), Err: err}
		}
	}

	if err := os.RemoveAll(clean); err != nil {
		return &resolve.IOError{Op: "remove", Path: clean, Err: err}
	}
	if err := os.Rename(keep, clean); err != nil {
		return &resolve.IOError{Op: "move", Path: keep, Err: err}
	}
	if err := os.Chmod(clean, rootInfo.Mode().Perm()); err != nil {
		return &resolve.IOError{Op: "chmod", Path: clean, Err: err}
	}
	return nil
}
