// SPDX-License-Identifier: MPL-2.0

// Package pkgmeta merges the header of an entry file into the attributes of
// the package being built. Attributes the caller set explicitly always win.
package pkgmeta

import (
	"errors"
	"fmt"
	"strings"

	"github.com/srcpack/srcpack/pkg/manifest"
)

// Package attributes a header can provide.
const (
	AttrName         Attribute = "name"
	AttrVersion      Attribute = "version"
	AttrEpoch        Attribute = "epoch"
	AttrArchitecture Attribute = "architecture"
	AttrDescription  Attribute = "description"
	AttrURL          Attribute = "url"
	AttrCategory     Attribute = "category"
	AttrPriority     Attribute = "priority"
	AttrLicense      Attribute = "license"
	AttrVendor       Attribute = "vendor"
	AttrMaintainer   Attribute = "maintainer"
)

// ErrUnknownAttribute is returned by ParseAttribute for unknown names.
var ErrUnknownAttribute = errors.New("unknown package attribute")

type (
	// Attribute names one package attribute.
	Attribute string

	// Attributes is the outer package's attribute set.
	Attributes struct {
		Name         string `json:"name" yaml:"name" toml:"name"`
		Version      string `json:"version,omitempty" yaml:"version,omitempty" toml:"version,omitempty"`
		Epoch        string `json:"epoch,omitempty" yaml:"epoch,omitempty" toml:"epoch,omitempty"`
		Architecture string `json:"architecture,omitempty" yaml:"architecture,omitempty" toml:"architecture,omitempty"`
		Description  string `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
		URL          string `json:"url,omitempty" yaml:"url,omitempty" toml:"url,omitempty"`
		Category     string `json:"category,omitempty" yaml:"category,omitempty" toml:"category,omitempty"`
		Priority     string `json:"priority,omitempty" yaml:"priority,omitempty" toml:"priority,omitempty"`
		License      string `json:"license,omitempty" yaml:"license,omitempty" toml:"license,omitempty"`
		Vendor       string `json:"vendor,omitempty" yaml:"vendor,omitempty" toml:"vendor,omitempty"`
		Maintainer   string `json:"maintainer,omitempty" yaml:"maintainer,omitempty" toml:"maintainer,omitempty"`
		// Depends is informational; it is never used for traversal.
		Depends []string `json:"depends,omitempty" yaml:"depends,omitempty" toml:"depends,omitempty"`
		// Meta holds every field of the entry header, including the ones
		// without a dedicated attribute.
		Meta map[string]string `json:"meta,omitempty" yaml:"meta,omitempty" toml:"meta,omitempty"`

		given map[Attribute]struct{}
	}
)

// AllAttributes returns every attribute in display order.
func AllAttributes() []Attribute {
	return []Attribute{
		AttrName, AttrVersion, AttrEpoch, AttrArchitecture, AttrDescription, AttrURL,
		AttrCategory, AttrPriority, AttrLicense, AttrVendor, AttrMaintainer,
	}
}

// ParseAttribute validates a case-insensitive attribute name.
func ParseAttribute(name string) (Attribute, error) {
	attr := Attribute(strings.ToLower(strings.TrimSpace(name)))
	if attr.field(&Attributes{}) == nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownAttribute, name)
	}
	return attr, nil
}

func (a Attribute) field(attrs *Attributes) *string {
	switch a {
	case AttrName:
		return &attrs.Name
	case AttrVersion:
		return &attrs.Version
	case AttrEpoch:
		return &attrs.Epoch
	case AttrArchitecture:
		return &attrs.Architecture
	case AttrDescription:
		return &attrs.Description
	case AttrURL:
		return &attrs.URL
	case AttrCategory:
		return &attrs.Category
	case AttrPriority:
		return &attrs.Priority
	case AttrLicense:
		return &attrs.License
	case AttrVendor:
		return &attrs.Vendor
	case AttrMaintainer:
		return &attrs.Maintainer
	}
	return nil
}

// Set assigns an attribute explicitly. Apply never overrides it afterwards,
// even when value is empty.
func (a *Attributes) Set(attr Attribute, value string) error {
	p := attr.field(a)
	if p == nil {
		return fmt.Errorf("%w: %q", ErrUnknownAttribute, attr)
	}
	*p = value
	if a.given == nil {
		a.given = make(map[Attribute]struct{})
	}
	a.given[attr] = struct{}{}
	return nil
}

// Get returns the current value of attr.
func (a *Attributes) Get(attr Attribute) string {
	if p := attr.field(a); p != nil {
		return *p
	}
	return ""
}

// Given reports whether attr was set explicitly.
func (a *Attributes) Given(attr Attribute) bool {
	_, ok := a.given[attr]
	return ok
}

// Apply copies the header fields of rec onto a. Name, version and epoch are
// filled only while still empty; the remaining attributes only when they were
// not set explicitly. The author fills both vendor and maintainer, and url
// falls back to homepage.
func Apply(a *Attributes, rec *manifest.Record) {
	fillEmpty := func(attr Attribute, v string) {
		if p := attr.field(a); *p == "" && !a.Given(attr) {
			*p = v
		}
	}
	fillUnlessGiven := func(attr Attribute, v string) {
		if !a.Given(attr) {
			*attr.field(a) = v
		}
	}

	fillEmpty(AttrName, rec.ID)
	fillEmpty(AttrVersion, rec.Version)
	fillEmpty(AttrEpoch, rec.Epoch)

	fillUnlessGiven(AttrArchitecture, rec.Architecture)
	fillUnlessGiven(AttrDescription, description(rec))
	url := rec.URL
	if url == "" {
		url = rec.Homepage
	}
	fillUnlessGiven(AttrURL, url)
	fillUnlessGiven(AttrCategory, rec.Category)
	fillUnlessGiven(AttrPriority, rec.Priority)
	fillUnlessGiven(AttrLicense, rec.License)
	fillUnlessGiven(AttrVendor, rec.Author)
	fillUnlessGiven(AttrMaintainer, rec.Author)

	if len(a.Depends) == 0 {
		a.Depends = append([]string(nil), rec.Depends...)
	}
	a.Meta = rec.Fields()
}

// description joins the description field and the free-text comment.
func description(rec *manifest.Record) string {
	switch {
	case rec.Description == "":
		return rec.Comment
	case rec.Comment == "":
		return rec.Description
	}
	return rec.Description + "\n" + rec.Comment
}

// Markdown renders the attributes as a short markdown document.
func (a *Attributes) Markdown() string {
	var b strings.Builder

	title := a.Name
	if a.Version != "" {
		title += " " + a.Version
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	if a.Description != "" {
		summary, rest, _ := strings.Cut(a.Description, "\n")
		fmt.Fprintf(&b, "**%s**\n\n", summary)
		if rest = strings.TrimSpace(rest); rest != "" {
			b.WriteString(rest + "\n\n")
		}
	}

	b.WriteString("| Attribute | Value |\n|---|---|\n")
	for _, attr := range AllAttributes() {
		if attr == AttrName || attr == AttrDescription {
			continue
		}
		if v := a.Get(attr); v != "" {
			fmt.Fprintf(&b, "| %s | %s |\n", attr, strings.ReplaceAll(v, "|", `\|`))
		}
	}
	if len(a.Depends) > 0 {
		fmt.Fprintf(&b, "| depends | %s |\n", strings.Join(a.Depends, ", "))
	}
	return b.String()
}
