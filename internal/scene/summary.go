// Package scene talks to the external tool that inspects linked scene files.
//
// The tool is run twice per source: once to write a summary of the named
// objects in the scene, once to write a preview image. Both artifacts go to
// scratch files that are read back as soon as the tool exits.
package scene

import (
	"errors"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

// Object is one named object in a scene.
type Object struct {
	Parent    string    `yaml:"parent,omitempty"`
	Location  []float64 `yaml:"location,omitempty"`
	Rotation  []float64 `yaml:"rotation,omitempty"`
	Scale     []float64 `yaml:"scale,omitempty"`
	Materials []string  `yaml:"materials,omitempty"`
}

// Summary maps object names to their data.
type Summary struct {
	Objects map[string]Object
}

// ParseSummary decodes a summary artifact. The artifact is a YAML (or JSON)
// mapping from object name to object data.
func ParseSummary(data []byte) (Summary, error) {
	var objects map[string]Object
	if err := yaml.Unmarshal(data, &objects); err != nil {
		return Summary{}, fmt.Errorf("decoding summary: %w", err)
	}
	if len(objects) == 0 {
		return Summary{}, errors.New("summary lists no objects")
	}
	for name, o := range objects {
		for field, v := range map[string][]float64{"location": o.Location, "rotation": o.Rotation, "scale": o.Scale} {
			if v != nil && len(v) != 3 {
				return Summary{}, fmt.Errorf("object %q: %s has %d components, want 3", name, field, len(v))
			}
		}
		if o.Parent != "" {
			if _, ok := objects[o.Parent]; !ok {
				return Summary{}, fmt.Errorf("object %q: unknown parent %q", name, o.Parent)
			}
		}
	}
	return Summary{Objects: objects}, nil
}

// Names returns every object name, sorted.
func (s Summary) Names() []string {
	names := make([]string, 0, len(s.Objects))
	for name := range s.Objects {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Roots returns the objects without a parent, sorted.
func (s Summary) Roots() []string {
	return s.Children("")
}

// Children returns the objects whose parent is name, sorted.
func (s Summary) Children(name string) []string {
	var names []string
	for n, o := range s.Objects {
		if o.Parent == name {
			names = append(names, n)
		}
	}
	slices.Sort(names)
	return names
}

// Outline lists every object depth first from the roots, with its depth in
// the hierarchy.
func (s Summary) Outline() []OutlineEntry {
	var out []OutlineEntry
	var visit func(name string, depth int)
	visit = func(name string, depth int) {
		out = append(out, OutlineEntry{Name: name, Depth: depth})
		for _, c := range s.Children(name) {
			visit(c, depth+1)
		}
	}
	for _, r := range s.Roots() {
		visit(r, 0)
	}
	return out
}

// OutlineEntry is one row of Summary.Outline.
type OutlineEntry struct {
	Name  string
	Depth int
}

// Artifact is everything the tool produced for one source.
type Artifact struct {
	Source  string
	Summary Summary
	Preview string // path of the preview PNG
}
