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

package action

import (
	"github.com/pkg/errors"

	"github.com/usbiso/usbiso/pkg/iso"
)

// Remove is the action for dropping an ISO from the folder's state.
//
// It provides the implementation of 'usbiso remove'. The ISO file itself is
// left in place.
type Remove struct {
	cfg *Configuration
}

// NewRemove creates a new Remove object with the given configuration.
func NewRemove(cfg *Configuration) *Remove {
	return &Remove{cfg: cfg}
}

// Run removes name from the manifest and then from the lock file.
//
// When the lock file has no entry for name, the manifest change is kept and
// ErrNotLocked is returned.
func (r *Remove) Run(name string) error {
	cfg := r.cfg
	if !cfg.Manifest.Has(name) {
		return errors.Wrap(ErrNotDeclared, name)
	}
	if err := cfg.journal.Begin(name, iso.OperationRemove); err != nil {
		return err
	}

	cfg.Manifest.Remove(name)
	if err := cfg.persistManifest(); err != nil {
		return err
	}

	if !cfg.Lock.Remove(name) {
		if err := cfg.journal.Clear(); err != nil {
			return err
		}
		return errors.Wrap(ErrNotLocked, name)
	}
	if err := cfg.persistLock(); err != nil {
		return err
	}
	return cfg.journal.Clear()
}
