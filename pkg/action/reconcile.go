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
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/usbiso/usbiso/pkg/iso"
)

// Reconcile repairs the manifest and lock file after an add or remove that
// was interrupted between its two writes.
//
// An interrupted add trusts the lock file, since a lock entry only exists for
// a verified download: a missing manifest entry is restored from it, and a
// manifest entry without a lock entry is dropped. An interrupted remove
// completes the removal in both files.
type Reconcile struct {
	cfg *Configuration
}

// NewReconcile creates a new Reconcile object with the given configuration.
func NewReconcile(cfg *Configuration) *Reconcile {
	return &Reconcile{cfg: cfg}
}

// Run repairs the state left by the pending operation, if any, and returns it.
func (r *Reconcile) Run() (*iso.Pending, error) {
	cfg := r.cfg
	p, err := cfg.journal.Pending()
	if err != nil || p == nil {
		return nil, err
	}

	manifestChanged, lockChanged := false, false
	switch p.Operation {
	case iso.OperationAdd:
		if e := cfg.Lock.Get(p.Name); e != nil {
			manifestChanged = cfg.Manifest.Add(&iso.ManifestEntry{Name: e.Name, Version: e.Version})
		} else {
			manifestChanged = cfg.Manifest.Remove(p.Name)
		}
	case iso.OperationRemove:
		manifestChanged = cfg.Manifest.Remove(p.Name)
		lockChanged = cfg.Lock.Remove(p.Name)
	}

	var result *multierror.Error
	if lockChanged {
		result = multierror.Append(result, cfg.persistLock())
	}
	if manifestChanged {
		result = multierror.Append(result, cfg.persistManifest())
	}
	if err := result.ErrorOrNil(); err != nil {
		return p, err
	}

	cfg.Log.WithFields(logrus.Fields{
		"iso":       p.Name,
		"operation": p.Operation,
		"started":   p.Started,
	}).Warn("repaired interrupted operation")
	return p, cfg.journal.Clear()
}
