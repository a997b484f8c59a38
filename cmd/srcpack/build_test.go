// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"

	"github.com/srcpack/srcpack/internal/config"
	"github.com/srcpack/srcpack/internal/issue"
	"github.com/srcpack/srcpack/internal/testutil"
	"github.com/srcpack/srcpack/pkg/resolve"
)

func TestBuild_StagesReferencedFiles(t *testing.T) {
	t.Parallel()

	project := writeProject(t)
	staging := t.TempDir()

	res := runCLI(t, nil, "build", "-C", project, "--staging", staging, "--prefix", "usr", "bin/tool.sh")
	if res.err != nil {
		t.Fatalf("build failed: %v\nstderr: %s", res.err, res.stderr)
	}

	want := []string{
		"usr/bin/share/doc/tool/README.md",
		"usr/bin/share/tool/common.sh",
		"usr/bin/share/tool/net.sh",
		"usr/bin/tool.sh",
		"usr/lib/etc/tool/net.conf",
	}
	if got := testutil.TreePaths(t, staging); !slices.Equal(got, want) {
		t.Errorf("staged files = %v, want %v", got, want)
	}
	if !strings.Contains(res.stdout, "staged 5 of") {
		t.Errorf("summary missing from stdout: %q", res.stdout)
	}
	if !strings.Contains(res.stdout, "1 excluded") {
		t.Errorf("expected excluded count in summary: %q", res.stdout)
	}
}

func TestBuild_Only(t *testing.T) {
	t.Parallel()

	project := writeProject(t)
	staging := t.TempDir()

	res := runCLI(t, nil, "build", "-C", project, "--staging", staging, "--only", "bin/tool.sh")
	if res.err != nil {
		t.Fatalf("build failed: %v", res.err)
	}

	// net.sh is copied but its own references are not followed.
	tree := testutil.ReadTree(t, staging)
	if _, ok := tree["lib/etc/tool/net.conf"]; ok {
		t.Error("--only should not follow references of referenced files")
	}
	if _, ok := tree["bin/share/tool/net.sh"]; !ok {
		t.Errorf("directly referenced file missing: %v", testutil.TreePaths(t, staging))
	}
}

func TestBuild_RecurseFalseFromConfig(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Recurse = false
	project := writeProject(t)
	staging := t.TempDir()

	res := runCLI(t, &stubConfig{cfg: cfg}, "build", "-C", project, "--staging", staging, "bin/tool.sh")
	if res.err != nil {
		t.Fatalf("build failed: %v", res.err)
	}
	if _, ok := testutil.ReadTree(t, staging)["lib/etc/tool/net.conf"]; ok {
		t.Error("recurse: false should behave like --only")
	}
}

func TestBuild_RequiresStaging(t *testing.T) {
	t.Parallel()

	res := runCLI(t, nil, "build", "-C", writeProject(t), "bin/tool.sh")

	var exitErr *ExitError
	if !errors.As(res.err, &exitErr) || exitErr.Code != ExitUsage {
		t.Fatalf("expected usage ExitError, got %v", res.err)
	}
}

func TestBuild_MissingEntry(t *testing.T) {
	t.Parallel()

	res := runCLI(t, nil, "build", "-C", t.TempDir(), "--staging", t.TempDir(), "nope.sh")

	var exitErr *ExitError
	if !errors.As(res.err, &exitErr) || exitErr.Code != ExitFailure {
		t.Fatalf("expected failure ExitError, got %v", res.err)
	}
	var ae *issue.ActionableError
	if !errors.As(res.err, &ae) || ae.Issue != issue.EntryNotFoundId {
		t.Errorf("expected EntryNotFound actionable error, got %v", res.err)
	}
	if !strings.Contains(res.stderr, "-C") {
		t.Errorf("suggestions should be printed to stderr, got %q", res.stderr)
	}
}

func TestBuild_EscapePolicies(t *testing.T) {
	t.Parallel()

	newProject := func(t *testing.T) string {
		t.Helper()
		dir := t.TempDir()
		testutil.WriteTree(t, dir, map[string]string{
			"x.sh":  "# pack: a.txt=../up.txt\n",
			"a.txt": "a\n",
		})
		return dir
	}

	t.Run("warn writes", func(t *testing.T) {
		t.Parallel()
		staging := t.TempDir()
		res := runCLI(t, nil, "build", "-C", newProject(t), "--staging", staging, "--prefix", "usr", "x.sh")
		if res.err != nil {
			t.Fatalf("build failed: %v", res.err)
		}
		if _, err := os.Stat(filepath.Join(staging, "up.txt")); err != nil {
			t.Errorf("warn policy should write the escaping file: %v", err)
		}
		if !strings.Contains(res.stdout, string(resolve.WarnPathEscape)) {
			t.Errorf("summary should mention the escape: %q", res.stdout)
		}
	})

	t.Run("skip drops", func(t *testing.T) {
		t.Parallel()
		staging := t.TempDir()
		res := runCLI(t, nil, "build", "-C", newProject(t), "--staging", staging, "--prefix", "usr", "--escape-policy", "skip", "x.sh")
		if res.err != nil {
			t.Fatalf("build failed: %v", res.err)
		}
		if _, err := os.Stat(filepath.Join(staging, "up.txt")); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("skip policy should not write the escaping file, stat err = %v", err)
		}
	})

	t.Run("error aborts", func(t *testing.T) {
		t.Parallel()
		res := runCLI(t, nil, "build", "-C", newProject(t), "--staging", t.TempDir(), "--escape-policy", "error", "x.sh")
		if !errors.Is(res.err, resolve.ErrPathEscape) {
			t.Fatalf("expected ErrPathEscape, got %v", res.err)
		}
		var ae *issue.ActionableError
		if !errors.As(res.err, &ae) || ae.Issue != issue.PathEscapeId {
			t.Errorf("expected PathEscape issue, got %v", res.err)
		}
	})

	t.Run("invalid flag", func(t *testing.T) {
		t.Parallel()
		res := runCLI(t, nil, "build", "-C", newProject(t), "--staging", t.TempDir(), "--escape-policy", "ignore", "x.sh")
		var exitErr *ExitError
		if !errors.As(res.err, &exitErr) || exitErr.Code != ExitUsage {
			t.Errorf("expected usage ExitError, got %v", res.err)
		}
	})
}

func TestBuild_Unprefix(t *testing.T) {
	t.Parallel()

	project := writeProject(t)
	staging := t.TempDir()

	res := runCLI(t, nil, "build", "-C", project, "--staging", staging, "--prefix", "usr", "--unprefix", "usr/bin", "bin/tool.sh")
	if res.err != nil {
		t.Fatalf("build failed: %v", res.err)
	}

	want := []string{
		"share/doc/tool/README.md",
		"share/tool/common.sh",
		"share/tool/net.sh",
		"tool.sh",
	}
	if got := testutil.TreePaths(t, staging); !slices.Equal(got, want) {
		t.Errorf("staged files = %v, want %v", got, want)
	}
}

func TestBuild_UnprefixMissingIsLogged(t *testing.T) {
	t.Parallel()

	project := writeProject(t)
	staging := t.TempDir()

	res := runCLI(t, nil, "build", "-C", project, "--staging", staging, "--unprefix", "opt", "bin/tool.sh")
	if res.err != nil {
		t.Fatalf("a missing unprefix directory should not fail the build: %v", res.err)
	}
	if !strings.Contains(res.stderr, "nothing to unprefix") {
		t.Errorf("expected an error log line, got %q", res.stderr)
	}
	if _, ok := testutil.ReadTree(t, staging)["bin/tool.sh"]; !ok {
		t.Error("staged tree should be left in place")
	}
}

func TestBuild_FixPerms(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not meaningful on Windows")
	}

	project := t.TempDir()
	testutil.MustWriteFile(t, project, "run.sh", "# pack: data.txt\n", 0o777)
	testutil.MustWriteFile(t, project, "data.txt", "d\n", 0o666)
	if err := os.Chmod(filepath.Join(project, "run.sh"), 0o777); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(filepath.Join(project, "data.txt"), 0o666); err != nil {
		t.Fatal(err)
	}
	staging := t.TempDir()

	res := runCLI(t, nil, "build", "-C", project, "--staging", staging, "--fix-perms", "run.sh")
	if res.err != nil {
		t.Fatalf("build failed: %v", res.err)
	}

	for name, want := range map[string]os.FileMode{"run.sh": 0o755, "data.txt": 0o644} {
		info, err := os.Stat(filepath.Join(staging, name))
		if err != nil {
			t.Fatal(err)
		}
		if got := info.Mode().Perm(); got != want {
			t.Errorf("%s mode = %o, want %o", name, got, want)
		}
	}
}

func TestBuild_MetaOut(t *testing.T) {
	t.Parallel()

	project := writeProject(t)
	metaPath := filepath.Join(t.TempDir(), "meta.json")

	res := runCLI(t, nil, "build", "-C", project, "--staging", t.TempDir(), "--meta-out", metaPath, "--license", "MIT", "bin/tool.sh")
	if res.err != nil {
		t.Fatalf("build failed: %v", res.err)
	}

	data, err := os.ReadFile(metaPath)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"name": "tool"`, `"version": "1.2.0"`, `"license": "MIT"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("metadata missing %s:\n%s", want, data)
		}
	}
}

func TestBuild_MergesMetadataWithoutMetaOut(t *testing.T) {
	t.Parallel()

	project := writeProject(t)

	res := runCLI(t, nil, "build", "-v", "-C", project, "--staging", t.TempDir(), "--version", "2.0.0", "bin/tool.sh")
	if res.err != nil {
		t.Fatalf("build failed: %v\nstderr: %s", res.err, res.stderr)
	}
	for _, want := range []string{"package metadata", "name=tool", "version=2.0.0"} {
		if !strings.Contains(res.stderr, want) {
			t.Errorf("expected %q in debug output, got:\n%s", want, res.stderr)
		}
	}
}

func TestBuild_ConfigLoadFailure(t *testing.T) {
	t.Parallel()

	loadErr := issue.NewErrorContext().WithOperation("load configuration").Wrap(errors.New("bad cue")).BuildError()
	res := runCLI(t, &stubConfig{err: loadErr}, "build", "--staging", t.TempDir(), "x.sh")

	var ae *issue.ActionableError
	if !errors.As(res.err, &ae) || ae.Issue != issue.ConfigLoadFailedId {
		t.Errorf("expected config errors to link the ConfigLoadFailed issue, got %v", res.err)
	}
}
