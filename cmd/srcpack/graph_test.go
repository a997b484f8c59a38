// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/srcpack/srcpack/pkg/resolve"
)

func TestGraph_Formats(t *testing.T) {
	t.Parallel()

	decoders := map[string]func([]byte, any) error{
		"yaml": yaml.Unmarshal,
		"json": json.Unmarshal,
		"toml": toml.Unmarshal,
	}

	for format, decode := range decoders {
		t.Run(format, func(t *testing.T) {
			t.Parallel()

			res := runCLI(t, nil, "graph", "-C", writeProject(t), "--format", format, "bin/tool.sh")
			if res.err != nil {
				t.Fatalf("graph failed: %v", res.err)
			}

			var m resolve.Mapping
			if err := decode([]byte(res.stdout), &m); err != nil {
				t.Fatalf("output does not decode as %s: %v\n%s", format, err, res.stdout)
			}
			if m.Entry != "bin/tool.sh" {
				t.Errorf("Entry = %q", m.Entry)
			}
			if got := m.Dests("notes.txt"); len(got) != 0 {
				t.Errorf("notes.txt should be excluded, got %v", got)
			}
			if got := m.Dests("lib/net.conf"); len(got) != 1 || got[0] != "lib/etc/tool/" {
				t.Errorf("lib/net.conf dests = %v", got)
			}
		})
	}
}

func TestGraph_Text(t *testing.T) {
	t.Parallel()

	res := runCLI(t, nil, "graph", "-C", writeProject(t), "-o", "text", "bin/tool.sh")
	if res.err != nil {
		t.Fatalf("graph failed: %v", res.err)
	}
	for _, want := range []string{"bin/tool.sh", "lib/common.sh -> ", "(excluded)", "[" + resolve.RootOrigin + "]"} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("text output missing %q:\n%s", want, res.stdout)
		}
	}
}

func TestGraph_WarningsAreReported(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "x.sh", "# pack: gone.txt nothing/*.md\n")

	res := runCLI(t, nil, "graph", "-C", dir, "-o", "text", "x.sh")
	if res.err != nil {
		t.Fatalf("missing files should not fail graph: %v", res.err)
	}
	if !strings.Contains(res.stdout, "1 missing-file") || !strings.Contains(res.stdout, "1 empty-glob") {
		t.Errorf("warnings summary missing:\n%s", res.stdout)
	}
	if !strings.Contains(res.stderr, "skipping non-existent file") {
		t.Errorf("expected the resolver warning on stderr, got %q", res.stderr)
	}
}

func TestGraph_UnknownFormat(t *testing.T) {
	t.Parallel()

	res := runCLI(t, nil, "graph", "--format", "xml", "x.sh")
	var exitErr *ExitError
	if !errors.As(res.err, &exitErr) || exitErr.Code != ExitUsage {
		t.Errorf("expected usage ExitError, got %v", res.err)
	}
}
