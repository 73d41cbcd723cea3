/*
Copyright The usbiso Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package iso

import (
	"github.com/pkg/errors"
)

const manifestSchema = `{
  "type": "object",
  "required": ["isos"],
  "properties": {
    "isos": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "version"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "version": {"type": "string"}
        }
      }
    }
  }
}`

// ManifestEntry declares that an ISO should be present in the folder.
type ManifestEntry struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Manifest is the ordered list of declared ISOs. Names are unique.
type Manifest struct {
	ISOs []*ManifestEntry `json:"isos"`
}

// NewManifest generates an empty manifest.
func NewManifest() *Manifest {
	return &Manifest{ISOs: []*ManifestEntry{}}
}

// ReadManifest reads the manifest at path without modifying the folder. A missing
// file reads as an empty manifest.
func ReadManifest(path string) (*Manifest, error) {
	m, _, err := readManifest(path)
	return m, err
}

// LoadManifest reads the manifest at path. If the file does not exist, an empty
// manifest is written there and returned.
func LoadManifest(path string) (*Manifest, error) {
	m, ok, err := readManifest(path)
	if err != nil || ok {
		return m, err
	}
	return m, m.WriteFile(path)
}

func readManifest(path string) (*Manifest, bool, error) {
	m := NewManifest()
	ok, err := readState(path, manifestSchema, m)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return m, false, nil
	}
	if m.ISOs == nil {
		m.ISOs = []*ManifestEntry{}
	}
	names := make([]string, 0, len(m.ISOs))
	for _, e := range m.ISOs {
		names = append(names, e.Name)
	}
	if name, dup := duplicate(names); dup {
		return nil, false, &CorruptStateError{Path: path, Err: errors.Errorf("%q is declared more than once", name)}
	}
	return m, true, nil
}

// Has returns true if name is declared.
func (m *Manifest) Has(name string) bool {
	return m.Get(name) != nil
}

// Get returns the entry called name, or nil.
func (m *Manifest) Get(name string) *ManifestEntry {
	for _, e := range m.ISOs {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// Add appends e. It returns false and leaves the manifest unchanged if the
// name is already declared.
func (m *Manifest) Add(e *ManifestEntry) bool {
	if m.Has(e.Name) {
		return false
	}
	m.ISOs = append(m.ISOs, e)
	return true
}

// Remove removes the entry called name.
func (m *Manifest) Remove(name string) bool {
	cp := []*ManifestEntry{}
	found := false
	for _, e := range m.ISOs {
		if e.Name == name {
			found = true
			continue
		}
		cp = append(cp, e)
	}
	m.ISOs = cp
	return found
}

// WriteFile replaces the manifest at path.
func (m *Manifest) WriteFile(path string) error {
	if m.ISOs == nil {
		m.ISOs = []*ManifestEntry{}
	}
	return writeState(path, m)
}
