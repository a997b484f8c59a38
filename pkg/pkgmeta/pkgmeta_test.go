// SPDX-License-Identifier: MPL-2.0

package pkgmeta

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/srcpack/srcpack/pkg/manifest"
)

const header = `#!/usr/bin/env ruby
# title: generic script source
# description: Packs scripts
# version: 0.7
# architecture: all
# license: MITL
# author: someone <someone@example.org>
# homepage: https://example.org/app
# category: devel
# depends: ruby, rake
# state: beta
#
# Longer text.
`

func parse(t *testing.T) *manifest.Record {
	t.Helper()
	return manifest.NewExtractor().Parse("app/main.rb", []byte(header))
}

func TestApply_FillsFromHeader(t *testing.T) {
	t.Parallel()

	var attrs Attributes
	Apply(&attrs, parse(t))

	want := map[Attribute]string{
		AttrName:         "main",
		AttrVersion:      "0.7",
		AttrArchitecture: "all",
		AttrDescription:  "Packs scripts\nLonger text.",
		AttrURL:          "https://example.org/app",
		AttrCategory:     "devel",
		AttrLicense:      "MITL",
		AttrVendor:       "someone <someone@example.org>",
		AttrMaintainer:   "someone <someone@example.org>",
	}
	for attr, v := range want {
		if got := attrs.Get(attr); got != v {
			t.Errorf("%s = %q, want %q", attr, got, v)
		}
	}
	if !reflect.DeepEqual(attrs.Depends, []string{"ruby", "rake"}) {
		t.Errorf("Depends = %q", attrs.Depends)
	}
	if attrs.Meta["state"] != "beta" || attrs.Meta["title"] != "generic script source" {
		t.Errorf("Meta = %v, want header fields", attrs.Meta)
	}
}

func TestApply_ExplicitWins(t *testing.T) {
	t.Parallel()

	var attrs Attributes
	for attr, v := range map[Attribute]string{
		AttrName:       "custom",
		AttrLicense:    "MIT",
		AttrMaintainer: "ops <ops@example.org>",
		AttrURL:        "",
	} {
		if err := attrs.Set(attr, v); err != nil {
			t.Fatal(err)
		}
	}

	Apply(&attrs, parse(t))

	if attrs.Name != "custom" || attrs.License != "MIT" {
		t.Errorf("explicit attributes overridden: name=%q license=%q", attrs.Name, attrs.License)
	}
	if attrs.Maintainer != "ops <ops@example.org>" {
		t.Errorf("Maintainer = %q", attrs.Maintainer)
	}
	if attrs.Vendor != "someone <someone@example.org>" {
		t.Errorf("Vendor = %q, want author", attrs.Vendor)
	}
	if attrs.URL != "" {
		t.Errorf("URL = %q, explicitly empty value must be kept", attrs.URL)
	}
}

func TestApply_PreservesPresetVersion(t *testing.T) {
	t.Parallel()

	attrs := Attributes{Version: "2.0"}
	Apply(&attrs, parse(t))

	if attrs.Version != "2.0" {
		t.Errorf("Version = %q, want preset %q", attrs.Version, "2.0")
	}
}

func TestApply_NoHeader(t *testing.T) {
	t.Parallel()

	var attrs Attributes
	Apply(&attrs, manifest.NewExtractor().Parse("tool.sh", []byte("echo hi\n")))

	if attrs.Name != "tool" {
		t.Errorf("Name = %q, want derived %q", attrs.Name, "tool")
	}
	if attrs.Description != "" || attrs.Vendor != "" {
		t.Errorf("unexpected attributes: %+v", attrs)
	}
}

func TestParseAttribute(t *testing.T) {
	t.Parallel()

	attr, err := ParseAttribute(" License ")
	if err != nil || attr != AttrLicense {
		t.Errorf("ParseAttribute() = %q, %v", attr, err)
	}

	if _, err := ParseAttribute("color"); !errors.Is(err, ErrUnknownAttribute) {
		t.Errorf("ParseAttribute(color) error = %v, want ErrUnknownAttribute", err)
	}

	var attrs Attributes
	if err := attrs.Set("color", "red"); !errors.Is(err, ErrUnknownAttribute) {
		t.Errorf("Set(color) error = %v, want ErrUnknownAttribute", err)
	}
}

func TestMarkdown(t *testing.T) {
	t.Parallel()

	var attrs Attributes
	Apply(&attrs, parse(t))
	md := attrs.Markdown()

	for _, want := range []string{"# main 0.7", "**Packs scripts**", "Longer text.", "| license | MITL |", "| depends | ruby, rake |"} {
		if !strings.Contains(md, want) {
			t.Errorf("Markdown() missing %q:\n%s", want, md)
		}
	}
}
