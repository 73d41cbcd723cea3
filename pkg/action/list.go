/*
Copyright The Helm Authors.

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

package action

import (
	"os"

	"github.com/usbiso/usbiso/pkg/iso"
)

// Status describes the state of a listed ISO.
type Status string

const (
	// StatusLocked means the ISO is declared, locked and present on disk.
	StatusLocked Status = "locked"
	// StatusMissingLock means the ISO is declared but has no lock entry.
	StatusMissingLock Status = "missing lock"
	// StatusMissingFile means the ISO is locked but its file is gone.
	StatusMissingFile Status = "missing file"
	// StatusDeclared means a catalog entry is declared in the manifest.
	StatusDeclared Status = "declared"
	// StatusAvailable means a catalog entry is not declared in the manifest.
	StatusAvailable Status = "available"
)

// Item is one row of a listing.
type Item struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`
	Version     string `json:"version,omitempty"`
	URL         string `json:"url,omitempty"`
	Size        int64  `json:"size,omitempty"`
	Status      Status `json:"status"`
}

// List is the action for listing ISOs.
//
// It provides the implementation of 'usbiso list'.
type List struct {
	cfg *Configuration

	// Available lists the catalog instead of the manifest.
	Available bool
	// Pattern is a glob restricting catalog names. Only used with Available.
	Pattern string
}

// NewList constructs a new *List
func NewList(cfg *Configuration) *List {
	return &List{cfg: cfg}
}

// Run executes the list command, returning a set of matches. Listing the
// manifest requires a loaded Configuration. Listing the catalog only reads the
// manifest to mark declared entries and ignores it when it is unreadable.
func (l *List) Run() ([]*Item, error) {
	if l.Available {
		return l.available()
	}

	items := make([]*Item, 0, len(l.cfg.Manifest.ISOs))
	for _, m := range l.cfg.Manifest.ISOs {
		item := &Item{Name: m.Name, Version: m.Version, Status: StatusMissingLock}
		if e, ok := l.cfg.Catalog.Lookup(m.Name); ok {
			item.DisplayName = e.DisplayName
		}
		if locked := l.cfg.Lock.Get(m.Name); locked != nil {
			item.URL = locked.URL
			item.Status = StatusMissingFile
			if p, err := l.cfg.artifactPath(locked.URL); err == nil {
				if fi, err := os.Stat(p); err == nil {
					item.Size = fi.Size()
					item.Status = StatusLocked
				}
			}
		}
		items = append(items, item)
	}
	return items, nil
}

func (l *List) available() ([]*Item, error) {
	entries, err := l.cfg.Catalog.Search(l.Pattern)
	if err != nil {
		return nil, err
	}
	declared := l.cfg.Manifest
	if declared == nil {
		if declared, err = iso.ReadManifest(l.cfg.ManifestPath()); err != nil {
			l.cfg.Log.WithError(err).Debug("ignoring unreadable manifest")
			declared = iso.NewManifest()
		}
	}

	items := make([]*Item, 0, len(entries))
	for _, e := range entries {
		item := &Item{Name: e.Name, DisplayName: e.DisplayName, URL: e.ISOURL, Status: StatusAvailable}
		if m := declared.Get(e.Name); m != nil {
			item.Version = m.Version
			item.Status = StatusDeclared
		}
		items = append(items, item)
	}
	return items, nil
}
