// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"sort"
	"strings"
)

// Known field keys. Keys are always lowercase.
const (
	KeyID           = "id"
	KeyTitle        = "title"
	KeyDescription  = "description"
	KeyVersion      = "version"
	KeyEpoch        = "epoch"
	KeyArchitecture = "architecture"
	KeyLicense      = "license"
	KeyAuthor       = "author"
	KeyURL          = "url"
	KeyHomepage     = "homepage"
	KeyCategory     = "category"
	KeyPriority     = "priority"
	KeyType         = "type"
	KeyDepends      = "depends"
	KeyPack         = "pack"
	KeyComment      = "comment"
)

// Record is the parsed header of one file. It is built once by an Extractor
// and never modified afterwards.
type Record struct {
	// Path is the file the record was extracted from.
	Path string
	// HasHeader is false when the file carries no comment block at all.
	HasHeader bool

	ID           string
	Title        string
	Description  string
	Version      string
	Epoch        string
	Architecture string
	License      string
	Author       string
	URL          string
	Homepage     string
	Category     string
	Priority     string
	Type         string

	// Depends lists the comma-separated entries of the depends: field.
	Depends []string
	// Pack holds the raw directive tokens of the pack: field, escapes intact.
	Pack []string
	// Comment is the free text following the first blank line of the header.
	Comment string
	// Extra holds every field that has no dedicated struct member.
	Extra map[string]string
	// Malformed collects header lines that were neither a field nor a
	// continuation of one. They are ignored otherwise.
	Malformed []string

	rawPack    string
	rawDepends string
}

// Get returns the value of the field with the given key. The second result is
// false when the header did not declare it.
func (r *Record) Get(key string) (string, bool) {
	key = strings.ToLower(key)
	if p := r.known(key); p != nil {
		return *p, *p != ""
	}
	switch key {
	case KeyPack:
		return r.rawPack, r.rawPack != ""
	case KeyDepends:
		return r.rawDepends, r.rawDepends != ""
	case KeyComment:
		return r.Comment, r.Comment != ""
	}
	v, ok := r.Extra[key]
	return v, ok
}

// Fields returns every declared field as a flat key/value map, including the
// derived id and the free-text comment.
func (r *Record) Fields() map[string]string {
	out := make(map[string]string, len(r.Extra)+16)
	for _, key := range knownKeys {
		if v, ok := r.Get(key); ok {
			out[key] = v
		}
	}
	for k, v := range r.Extra {
		if _, dup := out[k]; !dup {
			out[k] = v
		}
	}
	return out
}

// Keys returns the sorted keys of Fields.
func (r *Record) Keys() []string {
	fields := r.Fields()
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var knownKeys = []string{
	KeyID, KeyTitle, KeyDescription, KeyVersion, KeyEpoch, KeyArchitecture,
	KeyLicense, KeyAuthor, KeyURL, KeyHomepage, KeyCategory, KeyPriority,
	KeyType, KeyDepends, KeyPack, KeyComment,
}

func (r *Record) known(key string) *string {
	switch key {
	case KeyID:
		return &r.ID
	case KeyTitle:
		return &r.Title
	case KeyDescription:
		return &r.Description
	case KeyVersion:
		return &r.Version
	case KeyEpoch:
		return &r.Epoch
	case KeyArchitecture:
		return &r.Architecture
	case KeyLicense:
		return &r.License
	case KeyAuthor:
		return &r.Author
	case KeyURL:
		return &r.URL
	case KeyHomepage:
		return &r.Homepage
	case KeyCategory:
		return &r.Category
	case KeyPriority:
		return &r.Priority
	case KeyType:
		return &r.Type
	}
	return nil
}

// set assigns a parsed field; later assignments of the same key win.
func (r *Record) set(key, value string) {
	if p := r.known(key); p != nil {
		*p = value
		return
	}
	switch key {
	case KeyPack:
		r.rawPack = value
	case KeyDepends:
		r.rawDepends = value
	default:
		r.extra()[key] = value
	}
}

func (r *Record) extra() map[string]string {
	if r.Extra == nil {
		r.Extra = make(map[string]string)
	}
	return r.Extra
}
