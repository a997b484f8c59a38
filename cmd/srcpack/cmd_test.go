// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/srcpack/srcpack/internal/config"
	"github.com/srcpack/srcpack/internal/testutil"
)

// stubConfig returns a fixed configuration so tests do not depend on the
// user's config directory or SRCPACK_* variables.
type stubConfig struct {
	cfg  *config.Config
	err  error
	seen []config.LoadOptions
}

func (s *stubConfig) Load(_ context.Context, opts config.LoadOptions) (*config.Config, error) {
	s.seen = append(s.seen, opts)
	if s.err != nil {
		return nil, s.err
	}
	cfg := *s.cfg
	return &cfg, nil
}

type cliResult struct {
	stdout string
	stderr string
	err    error
}

func runCLI(t *testing.T, provider ConfigProvider, args ...string) cliResult {
	t.Helper()

	if provider == nil {
		provider = &stubConfig{cfg: config.DefaultConfig()}
	}
	var stdout, stderr bytes.Buffer
	app := NewApp(Dependencies{Config: provider, Stdout: &stdout, Stderr: &stderr})

	root := NewRootCommand(app)
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.ExecuteContext(context.Background())

	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// writeProject lays out a small project with an entry script.
func writeProject(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{
		"bin/tool.sh": `#!/bin/sh
# id: tool
# title: Deploy helper
# version: 1.2.0
# author: Jo Doe <jo@example.com>
# pack: ../lib/*.sh=share/tool/ ../README.md=share/doc/tool/ ../notes.txt=
#
# Ships the deploy helper.

echo deploy
`,
		"lib/common.sh": "echo common\n",
		"lib/net.sh":    "# pack: net.conf=etc/tool/\n",
		"lib/net.conf":  "port=1\n",
		"README.md":     "readme\n",
		"notes.txt":     "private\n",
	})
	return dir
}

func writeFile(t *testing.T, dir, rel, content string) string {
	t.Helper()
	return testutil.MustWriteFile(t, dir, rel, content, 0o644)
}
