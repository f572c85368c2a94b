// Package maps holds the catalog of known map variants and their
// currently served versions.
package maps

import (
	"fmt"
	"sort"
)

type Variant struct {
	Name           string `json:"name"`
	DefaultVersion string `json:"default_version"`
}

// catalog lists the map variants the remote host serves, with the version
// path segment each one is currently published under.
var catalog = map[string]string{
	"ChernarusPlus-Top": "1.26.0",
	"ChernarusPlus-Sat": "1.26.0",
	"Livonia-Top":       "1.26.0",
	"Livonia-Sat":       "1.26.0",
	"Sakhal-Top":        "1.3.0",
	"Sakhal-Sat":        "1.3.0",
}

// DefaultVersion returns the published version for a known map name.
func DefaultVersion(name string) (string, error) {
	v, ok := catalog[name]
	if !ok {
		return "", fmt.Errorf("unknown map: %q", name)
	}
	return v, nil
}

// Known reports whether name is in the catalog.
func Known(name string) bool {
	_, ok := catalog[name]
	return ok
}

// Variants returns the catalog sorted by name.
func Variants() []Variant {
	out := make([]Variant, 0, len(catalog))
	for name, version := range catalog {
		out = append(out, Variant{Name: name, DefaultVersion: version})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
