// SPDX-License-Identifier: MPL-2.0

package resolve

type (
	// Entry is one edge after override resolution.
	Entry struct {
		// Origin is the file whose directive produced the edge, or RootOrigin.
		Origin string `json:"origin" yaml:"origin" toml:"origin"`
		Source string `json:"source" yaml:"source" toml:"source"`
		// Declared is the destination the origin asked for.
		Declared string `json:"declared" yaml:"declared" toml:"declared"`
		// Dest is the final destination; empty means excluded.
		Dest string `json:"dest" yaml:"dest" toml:"dest"`
		// Escapes is set when Dest points above the prefix root.
		Escapes bool `json:"escapes,omitempty" yaml:"escapes,omitempty" toml:"escapes,omitempty"`
	}

	// Mapping is the resolved source→destination plan of one run.
	Mapping struct {
		Entry    string    `json:"entry" yaml:"entry" toml:"entry"`
		Entries  []Entry   `json:"entries" yaml:"entries" toml:"entries"`
		Warnings []Warning `json:"warnings,omitempty" yaml:"warnings,omitempty" toml:"warnings,omitempty"`
	}
)

// Excluded reports whether the entry is suppressed from the output.
func (e Entry) Excluded() bool {
	return e.Dest == ""
}

// Pairs returns the distinct (source, dest) pairs that produce output, in
// resolution order.
func (m *Mapping) Pairs() []Edge {
	seen := make(map[Edge]struct{}, len(m.Entries))
	out := make([]Edge, 0, len(m.Entries))
	for _, e := range m.Entries {
		if e.Excluded() {
			continue
		}
		pair := Edge{Source: e.Source, Dest: e.Dest}
		if _, dup := seen[pair]; dup {
			continue
		}
		seen[pair] = struct{}{}
		out = append(out, pair)
	}
	return out
}

// Dests returns the distinct final destinations of src, excluding "".
func (m *Mapping) Dests(src string) []string {
	var out []string
	for _, p := range m.Pairs() {
		if p.Source == src {
			out = append(out, p.Dest)
		}
	}
	return out
}
