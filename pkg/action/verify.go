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
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/usbiso/usbiso/pkg/iso"
	"github.com/usbiso/usbiso/pkg/provenance"
)

// Verify is the action for checking downloaded ISOs against the lock file.
//
// It provides the implementation of 'usbiso verify'.
type Verify struct {
	cfg *Configuration
}

// NewVerify creates a new Verify object with the given configuration.
func NewVerify(cfg *Configuration) *Verify {
	return &Verify{cfg: cfg}
}

// Run re-hashes the files of the named ISOs, or of every locked ISO when no
// name is given, and compares them with their lock entries. Every ISO is
// checked; the failures are returned together.
func (v *Verify) Run(names ...string) ([]*iso.LockEntry, error) {
	entries := v.cfg.Lock.ISOs
	var result *multierror.Error
	if len(names) > 0 {
		entries = nil
		for _, name := range names {
			e := v.cfg.Lock.Get(name)
			if e == nil {
				result = multierror.Append(result, errors.Wrap(ErrNotLocked, name))
				continue
			}
			entries = append(entries, e)
		}
	}

	verified := []*iso.LockEntry{}
	for _, e := range entries {
		log := v.cfg.Log.WithField("iso", e.Name)
		p, err := v.cfg.artifactPath(e.URL)
		if err != nil {
			result = multierror.Append(result, errors.Wrap(err, e.Name))
			continue
		}
		log.WithField("path", p).Debug("verifying ISO")
		if _, err := provenance.Verify(p, e.Hash); err != nil {
			result = multierror.Append(result, errors.Wrap(err, e.Name))
			continue
		}
		verified = append(verified, e)
	}
	return verified, result.ErrorOrNil()
}
