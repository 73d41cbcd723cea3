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

const lockSchema = `{
  "type": "object",
  "required": ["isos"],
  "properties": {
    "isos": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "version", "url", "hash"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "version": {"type": "string"},
          "url": {"type": "string"},
          "hash": {"type": "string", "pattern": "^[0-9a-f]{64}$"}
        }
      }
    }
  }
}`

// LockEntry records a resolved and verified acquisition.
type LockEntry struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	// URL is the URL that served the ISO, after redirects.
	URL string `json:"url"`
	// Hash is the verified SHA-256 digest, lower-case hex.
	Hash string `json:"hash"`
}

// Lock is the ordered list of acquired ISOs. Names are unique.
type Lock struct {
	ISOs []*LockEntry `json:"isos"`
}

// NewLock generates an empty lock file.
func NewLock() *Lock {
	return &Lock{ISOs: []*LockEntry{}}
}

// ReadLock reads the lock file at path without modifying the folder. A missing
// file reads as an empty lock file.
func ReadLock(path string) (*Lock, error) {
	l, _, err := readLock(path)
	return l, err
}

// LoadLock reads the lock file at path. If the file does not exist, an empty
// lock file is written there and returned.
func LoadLock(path string) (*Lock, error) {
	l, ok, err := readLock(path)
	if err != nil || ok {
		return l, err
	}
	return l, l.WriteFile(path)
}

func readLock(path string) (*Lock, bool, error) {
	l := NewLock()
	ok, err := readState(path, lockSchema, l)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return l, false, nil
	}
	if l.ISOs == nil {
		l.ISOs = []*LockEntry{}
	}
	names := make([]string, 0, len(l.ISOs))
	for _, e := range l.ISOs {
		names = append(names, e.Name)
	}
	if name, dup := duplicate(names); dup {
		return nil, false, &CorruptStateError{Path: path, Err: errors.Errorf("%q is locked more than once", name)}
	}
	return l, true, nil
}

// Has returns true if name is locked.
func (l *Lock) Has(name string) bool {
	return l.Get(name) != nil
}

// Get returns the entry called name, or nil.
func (l *Lock) Get(name string) *LockEntry {
	for _, e := range l.ISOs {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// Update replaces the entry with the same name as e, or appends e if there is
// none.
func (l *Lock) Update(e *LockEntry) {
	for i, existing := range l.ISOs {
		if existing.Name == e.Name {
			l.ISOs[i] = e
			return
		}
	}
	l.ISOs = append(l.ISOs, e)
}

// Remove removes the entry called name.
func (l *Lock) Remove(name string) bool {
	cp := []*LockEntry{}
	found := false
	for _, e := range l.ISOs {
		if e.Name == name {
			found = true
			continue
		}
		cp = append(cp, e)
	}
	l.ISOs = cp
	return found
}

// WriteFile replaces the lock file at path.
func (l *Lock) WriteFile(path string) error {
	if l.ISOs == nil {
		l.ISOs = []*LockEntry{}
	}
	return writeState(path, l)
}
