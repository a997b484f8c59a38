// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/srcpack/srcpack/internal/config"
	"github.com/srcpack/srcpack/pkg/pkgmeta"
	"github.com/srcpack/srcpack/pkg/stage"
)

type (
	// resolveFlags are the flags shared by every command that resolves an
	// entry file. Flags that were not given leave the configuration alone.
	resolveFlags struct {
		flags        *pflag.FlagSet
		root         string
		only         bool
		prefix       string
		escapePolicy string
		maxHeader    int
	}

	// metaFlags collect explicit package attribute overrides.
	metaFlags struct {
		flags  *pflag.FlagSet
		values map[pkgmeta.Attribute]*string
	}
)

func (rf *resolveFlags) bind(cmd *cobra.Command) {
	rf.flags = cmd.Flags()
	rf.flags.StringVarP(&rf.root, "chdir", "C", "", "resolve manifest paths relative to `DIR`")
	rf.flags.BoolVar(&rf.only, "only", false, "do not follow references of referenced files")
	rf.flags.StringVar(&rf.prefix, "prefix", "", "install prefix below the staging root")
	rf.flags.StringVar(&rf.escapePolicy, "escape-policy", "", "handling of destinations above the prefix: warn, skip or error")
	rf.flags.IntVar(&rf.maxHeader, "max-header-bytes", 0, "bytes scanned for a header at the top of each file")
}

// apply overlays the given flags on cfg.
func (rf *resolveFlags) apply(cfg *config.Config) error {
	if rf.flags == nil {
		return nil
	}
	if rf.flags.Changed("only") {
		cfg.Recurse = !rf.only
	}
	if rf.flags.Changed("prefix") {
		cfg.Prefix = rf.prefix
	}
	if rf.flags.Changed("escape-policy") {
		policy := stage.EscapePolicy(rf.escapePolicy)
		if err := policy.Validate(); err != nil {
			return &ExitError{Code: ExitUsage, Err: err}
		}
		cfg.EscapePolicy = policy
	}
	if rf.flags.Changed("max-header-bytes") {
		if rf.maxHeader <= 0 {
			return usageError("--max-header-bytes must be positive, got %d", rf.maxHeader)
		}
		cfg.MaxHeaderBytes = rf.maxHeader
	}
	return nil
}

func (mf *metaFlags) bind(cmd *cobra.Command) {
	mf.flags = cmd.Flags()
	mf.values = make(map[pkgmeta.Attribute]*string)
	for _, attr := range pkgmeta.AllAttributes() {
		mf.values[attr] = mf.flags.String(string(attr), "", fmt.Sprintf("package %s (overrides the entry header)", attr))
	}
}

// attributes returns the attribute set holding the explicitly given flags.
func (mf *metaFlags) attributes() (*pkgmeta.Attributes, error) {
	attrs := &pkgmeta.Attributes{}
	if mf.flags == nil {
		return attrs, nil
	}
	for _, attr := range pkgmeta.AllAttributes() {
		if !mf.flags.Changed(string(attr)) {
			continue
		}
		if err := attrs.Set(attr, *mf.values[attr]); err != nil {
			return nil, err
		}
	}
	return attrs, nil
}
