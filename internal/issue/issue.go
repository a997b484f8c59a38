// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

// Catalog entries. Zero means "no issue".
const (
	EntryNotFoundId Id = iota + 1
	ManifestReadFailedId
	MalformedManifestId
	PathEscapeId
	StagingWriteFailedId
	PrefixDirMissingId
	ConfigLoadFailedId
	PermissionDeniedId
)

type (
	// Id identifies a catalog Issue.
	Id int

	// MarkdownMsg is Markdown text rendered with glamour.
	MarkdownMsg string

	// HttpLink is a documentation URL.
	HttpLink string

	// Issue is a long-form explanation of a failure class.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
		extLinks []HttpLink
	}
)

// Id returns the catalog ID.
func (i *Issue) Id() Id {
	return i.id
}

// MarkdownMsg returns the unrendered message.
func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// DocLinks returns the srcpack documentation links.
func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

// ExtLinks returns links to external references.
func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the message for a terminal. stylePath is a glamour style
// name ("dark", "light", "notty") or a path to a JSON style file.
func (i *Issue) Render(stylePath string) (string, error) {
	md := string(i.mdMsg)
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md += "\n\n## See also\n"
		for _, link := range i.docLinks {
			md += "\n- " + string(link)
		}
		for _, link := range i.extLinks {
			md += "\n- " + string(link)
		}
	}
	return render(md, stylePath)
}

var (
	render = glamour.Render

	entryNotFoundIssue = &Issue{
		id: EntryNotFoundId,
		mdMsg: `
# Entry file not found!

The file passed to srcpack does not exist, so there is nothing to resolve.

## Things you can try:
- Check the path for typos
- Paths are relative to the current directory unless --root is given:
~~~
$ srcpack build --root ./src bin/tool.sh
~~~`,
	}

	manifestReadFailedIssue = &Issue{
		id: ManifestReadFailedId,
		mdMsg: `
# Could not read a file header!

srcpack reads the first lines of every referenced file to find its ` + "`pack:`" + ` field.
One of those files exists but could not be read.

## Things you can try:
- Check the file permissions
- Make sure the path is a regular file and not a broken mount`,
	}

	malformedManifestIssue = &Issue{
		id: MalformedManifestId,
		mdMsg: `
# Header line ignored!

A line inside a header comment block is not of the form ` + "`key: value`" + `.
Malformed lines are skipped and the rest of the header is still used.

## Example header:
~~~sh
#!/bin/sh
# title: Deploy helper
# pack: lib/*.sh=share/tool/ README.md=
~~~

## Things you can try:
- Continue a multi-line value with a line that starts with whitespace
- Escape '=' and glob characters in file names with a backslash`,
	}

	pathEscapeIssue = &Issue{
		id: PathEscapeId,
		mdMsg: `
# Destination outside the prefix!

A ` + "`pack:`" + ` directive maps a file to a path that climbs above the install prefix,
for example ` + "`../etc/tool.conf`" + `.

## Things you can try:
- Rewrite the destination so it stays below the prefix
- Choose how such files are handled:
~~~
$ srcpack build --escape-policy skip bin/tool.sh
~~~
  ` + "`warn`" + ` writes the file anyway, ` + "`skip`" + ` drops it, ` + "`error`" + ` aborts the run.`,
	}

	stagingWriteFailedIssue = &Issue{
		id: StagingWriteFailedId,
		mdMsg: `
# Could not write to the staging directory!

Copying a resolved file into the staging directory failed.

## Things you can try:
- Check that the staging directory is writable
- Check the free disk space
- Remove a stale staging directory from a previous run and retry`,
	}

	prefixDirMissingIssue = &Issue{
		id: PrefixDirMissingId,
		mdMsg: `
# Nothing to unprefix!

The directory requested with --unprefix does not exist below the staging root.
No files were moved.

## Things you can try:
- Run ` + "`srcpack graph`" + ` to see where files are placed
- Pass the prefix exactly as used with --prefix`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

srcpack could not load its configuration file.

## Things you can try:
- Check the CUE syntax of the config file
- Print the effective configuration:
~~~
$ srcpack config show
~~~

- Start over from the defaults:
~~~
$ srcpack config init
~~~`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

You don't have permission to read a source file or to write to the staging directory.

## Things you can try:
- Check file and directory permissions
- Stage into a directory you own
- Use --fix-perms so staged files do not keep restrictive modes`,
	}

	issues = map[Id]*Issue{
		entryNotFoundIssue.Id():      entryNotFoundIssue,
		manifestReadFailedIssue.Id(): manifestReadFailedIssue,
		malformedManifestIssue.Id():  malformedManifestIssue,
		pathEscapeIssue.Id():         pathEscapeIssue,
		stagingWriteFailedIssue.Id(): stagingWriteFailedIssue,
		prefixDirMissingIssue.Id():   prefixDirMissingIssue,
		configLoadFailedIssue.Id():   configLoadFailedIssue,
		permissionDeniedIssue.Id():   permissionDeniedIssue,
	}
)

// Values returns every catalog entry ordered by Id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, i)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return out
}

// Get returns the entry for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
