// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srcpack/srcpack/internal/testutil"
	"github.com/srcpack/srcpack/pkg/manifest"
)

func build(t *testing.T, root, entry string, only bool) (*Graph, *Mapping) {
	t.Helper()

	b := NewBuilder(manifest.NewExtractor(), Options{Root: root, Only: only})
	g, err := b.Build(context.Background(), entry)
	require.NoError(t, err)
	return g, g.Resolve()
}

func pairs(m *Mapping) map[string][]string {
	out := make(map[string][]string)
	for _, p := range m.Pairs() {
		out[p.Source] = append(out[p.Source], p.Dest)
	}
	return out
}

func kinds(ws []Warning) []WarningKind {
	out := make([]WarningKind, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Kind)
	}
	return out
}

func TestBuild_Scenario(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"main.src":   "# pack: util.src, README=README.txt\n\necho main\n",
		"util.src":   "# pack: helper.src\n\necho util\n",
		"helper.src": "echo helper\n",
		"README":     "read me\n",
	})

	g, m := build(t, root, "main.src", false)

	assert.Equal(t, []Edge{
		{Source: "main.src", Dest: "main.src"},
		{Source: "util.src", Dest: "util.src"},
		{Source: "README", Dest: "README.txt"},
		{Source: "helper.src", Dest: "helper.src"},
	}, m.Pairs())
	assert.Equal(t, 4, g.VisitedCount())
	assert.Empty(t, m.Warnings)
	assert.Equal(t, "main.src", m.Entry)
	assert.Equal(t, []string{RootOrigin, "main.src", "util.src", "helper.src", "README"}, g.Origins())
}

func TestBuild_CycleTerminates(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"a.src": "# pack: b.src\n",
		"b.src": "# pack: a.src\n",
	})

	g, m := build(t, root, "a.src", false)

	assert.Equal(t, 2, g.VisitedCount())
	assert.True(t, g.Visited("a.src"))
	assert.True(t, g.Visited("b.src"))
	assert.Equal(t, map[string][]string{"a.src": {"a.src"}, "b.src": {"b.src"}}, pairs(m))
}

func TestBuild_SelfExclusionWins(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"y.src": "# pack: x=keep.txt\n",
		"x":     "# pack: x=\n",
	})

	_, m := build(t, root, "y.src", false)

	assert.Empty(t, m.Dests("x"))
	assert.Equal(t, map[string][]string{"y.src": {"y.src"}}, pairs(m))

	var declared []string
	for _, e := range m.Entries {
		if e.Source == "x" {
			declared = append(declared, e.Declared)
			assert.True(t, e.Excluded(), "entry from %s should be excluded", e.Origin)
		}
	}
	assert.ElementsMatch(t, []string{"keep.txt", ""}, declared)
}

func TestBuild_SelfExclusionAnyOrder(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"main.src":  "# pack: empty.src, other.src\n",
		"other.src": "# pack: empty.src=copy.src\n",
		"empty.src": "# pack: empty.src=\n",
	})

	for _, entry := range []string{"main.src", "other.src", "empty.src"} {
		_, m := build(t, root, entry, false)
		assert.Empty(t, m.Dests("empty.src"), "entry %s", entry)
	}
}

func TestBuild_RenamePropagation(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"dir/main.src": "# pack: a.txt=b.txt\n",
		"dir/a.txt":    "a\n",
	})

	_, m := build(t, root, "dir/main.src", false)

	assert.Equal(t, []string{"dir/b.txt"}, m.Dests("dir/a.txt"))
	assert.Empty(t, m.Dests("dir/b.txt"))
}

func TestBuild_RenameSurvivesSelfListing(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"main.src":  "# pack: a.txt=b.txt\n",
		"a.txt":     "# pack: a.txt, extra.txt\n",
		"extra.txt": "extra\n",
	})

	_, m := build(t, root, "main.src", false)

	assert.Equal(t, []string{"b.txt", "a.txt"}, m.Dests("a.txt"))
	assert.Equal(t, []string{"extra.txt"}, m.Dests("extra.txt"))
}

func TestBuild_TrailingSlashDirectoryKeepsItsName(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"app/main.src":     "# pack: assets/, conf/=etc/\n",
		"app/assets/a.css": "a",
		"app/conf/x.conf":  "x",
	})

	_, m := build(t, root, "app/main.src", false)

	assert.Equal(t, []string{"app/assets"}, m.Dests("app/assets/"))
	assert.Equal(t, []string{"app/etc/"}, m.Dests("app/conf/"))
}

func TestBuild_DestinationRedirect(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"main.src": "# pack: a.txt=b.txt, b.txt\n",
		"a.txt":    "a\n",
		"b.txt":    "# pack: b.txt=doc/b.txt\n",
	})

	_, m := build(t, root, "main.src", false)

	assert.Equal(t, []string{"doc/b.txt"}, m.Dests("a.txt"))
	assert.Equal(t, []string{"doc/b.txt"}, m.Dests("b.txt"))
}

func TestBuild_GlobDirectoryRewrite(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"app/main.src":       "# pack: sub/*.png=images/\n",
		"app/sub/b.png":      "b",
		"app/sub/a.png":      "a",
		"app/sub/skip.txt":   "no",
		"app/sub/deep/c.png": "c",
	})

	_, m := build(t, root, "app/main.src", false)

	assert.Equal(t, map[string][]string{
		"app/main.src":  {"app/main.src"},
		"app/sub/a.png": {"app/images/"},
		"app/sub/b.png": {"app/images/"},
	}, pairs(m))
	assert.Empty(t, m.Warnings)
}

func TestBuild_GlobRecursiveAndParent(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"app/main.src":          "# pack: ../shared/**/*.sh\n",
		"shared/a.sh":           "a",
		"shared/lib/b.sh":       "b",
		"shared/lib/readme.txt": "r",
	})

	_, m := build(t, root, "app/main.src", false)

	assert.Equal(t, []string{"shared/a.sh"}, m.Dests("shared/a.sh"))
	assert.Equal(t, []string{"shared/lib/b.sh"}, m.Dests("shared/lib/b.sh"))
	assert.Empty(t, m.Dests("shared/lib/readme.txt"))
}

func TestBuild_Only(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"main.src":   "# pack: util.src\n",
		"util.src":   "# pack: helper.src\n",
		"helper.src": "echo\n",
	})

	g, m := build(t, root, "main.src", true)

	assert.Equal(t, 1, g.VisitedCount())
	assert.Equal(t, map[string][]string{"main.src": {"main.src"}, "util.src": {"util.src"}}, pairs(m))
}

func TestBuild_RecoverableWarnings(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"main.src": "# stray text\n# pack: gone.src, none/*.png, =x, ../../up.txt=../../up.txt\n",
	})

	var buf bytes.Buffer
	b := NewBuilder(manifest.NewExtractor(), Options{Root: root, Logger: log.New(&buf)})
	g, err := b.Build(context.Background(), "main.src")
	require.NoError(t, err)
	m := g.Resolve()

	assert.Equal(t, []WarningKind{
		WarnMalformed, WarnEmptyGlob, WarnMalformed, WarnMissingFile, WarnMissingFile, WarnPathEscape,
	}, kinds(m.Warnings))
	assert.Equal(t, []string{"../../up.txt"}, m.Dests("../../up.txt"))
	assert.Contains(t, buf.String(), "skipping non-existent file")
	assert.Contains(t, buf.String(), "nothing matched")
}

func TestBuild_MissingEntry(t *testing.T) {
	t.Parallel()

	g, m := build(t, t.TempDir(), "nope.src", false)

	assert.Equal(t, []WarningKind{WarnMissingFile}, kinds(m.Warnings))
	assert.Equal(t, 1, g.VisitedCount())
	assert.Equal(t, []Edge{{Source: "nope.src", Dest: "nope.src"}}, m.Pairs())
}

func TestBuild_EntryNormalized(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{"lib/main.src": "echo\n"})

	_, m := build(t, root, "./lib/x/../main.src", false)

	assert.Equal(t, "lib/main.src", m.Entry)
}

func TestBuild_EmptyEntry(t *testing.T) {
	t.Parallel()

	_, err := NewBuilder(manifest.NewExtractor(), Options{}).Build(context.Background(), "")
	require.ErrorIs(t, err, ErrEmptySource)
}

func TestBuild_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewBuilder(manifest.NewExtractor(), Options{Root: t.TempDir()}).Build(ctx, "main.src")
	require.ErrorIs(t, err, context.Canceled)
}

type failingSource struct{}

func (failingSource) Extract(string) (*manifest.Record, error) {
	return nil, errors.New("disk on fire")
}

func TestBuild_ReadFailureAborts(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{"main.src": "echo\n"})

	_, err := NewBuilder(failingSource{}, Options{Root: root}).Build(context.Background(), "main.src")

	require.ErrorIs(t, err, ErrIO)
	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "read", ioErr.Op)
}

func TestBuild_UsesCache(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"a.src": "# pack: b.src\n",
		"b.src": "# pack: a.src\n",
	})

	cache, err := manifest.NewCache(manifest.NewExtractor(), 0)
	require.NoError(t, err)
	b := NewBuilder(cache, Options{Root: root})

	for range 2 {
		_, err := b.Build(context.Background(), "a.src")
		require.NoError(t, err)
	}
	assert.Equal(t, 2, cache.Len())
}
