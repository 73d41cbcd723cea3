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
	"context"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/usbiso/usbiso/pkg/getter"
	"github.com/usbiso/usbiso/pkg/iso"
	"github.com/usbiso/usbiso/pkg/provenance"
)

// Add is the action for acquiring an ISO.
//
// It provides the implementation of 'usbiso add'.
type Add struct {
	cfg *Configuration
}

// NewAdd creates a new Add object with the given configuration.
func NewAdd(cfg *Configuration) *Add {
	return &Add{cfg: cfg}
}

// Run downloads the ISO called name together with its digest file, verifies
// it and records it in the lock file and then the manifest.
//
// Nothing is recorded unless the download verified. Downloaded files are left
// in the folder on failure so that the next attempt resumes them.
func (a *Add) Run(ctx context.Context, name string) (*iso.LockEntry, error) {
	cfg := a.cfg
	if cfg.Manifest.Has(name) {
		return nil, errors.Wrap(ErrAlreadyDeclared, name)
	}
	entry, ok := cfg.Catalog.Lookup(name)
	if !ok {
		return nil, errors.Wrap(ErrUnknownArtifact, name)
	}
	log := cfg.Log.WithField("iso", name)

	log.WithField("url", entry.HashURL).Debug("fetching digest file")
	digestFile, err := a.fetch(ctx, entry.HashURL, getter.WithOverwrite())
	if err != nil {
		return nil, errors.Wrapf(err, "%s: could not download digest file", name)
	}

	log.WithField("url", entry.ISOURL).Debug("fetching ISO")
	opts := []getter.Option{}
	if cfg.Progress != nil {
		opts = append(opts, getter.WithProgress(cfg.Progress))
	}
	artifact, err := a.fetch(ctx, entry.ISOURL, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: could not download ISO", name)
	}

	log.WithField("path", artifact.Path).Debug("verifying ISO")
	digest, err := provenance.VerifyFile(artifact.Path, digestFile.Path)
	if err != nil {
		return nil, errors.Wrap(err, name)
	}

	locked := &iso.LockEntry{
		Name:    name,
		Version: iso.ResolveVersion(filepath.Base(artifact.Path), digest),
		URL:     artifact.URL.String(),
		Hash:    digest,
	}
	if err := a.commit(locked); err != nil {
		return nil, err
	}
	log.WithField("version", locked.Version).Debug("ISO acquired")
	return locked, nil
}

func (a *Add) fetch(ctx context.Context, href string, options ...getter.Option) (*getter.Result, error) {
	g, err := a.cfg.Getters.ForURL(href)
	if err != nil {
		return nil, err
	}
	options = append(options, getter.WithLogger(a.cfg.Log))
	return g.Fetch(ctx, href, a.cfg.Root, options...)
}

// commit records e in the lock file and then in the manifest. An interruption
// between the two writes is repaired by Reconcile.
func (a *Add) commit(e *iso.LockEntry) error {
	cfg := a.cfg
	if err := cfg.journal.Begin(e.Name, iso.OperationAdd); err != nil {
		return err
	}
	cfg.Lock.Update(e)
	if err := cfg.persistLock(); err != nil {
		return err
	}
	cfg.Manifest.Add(&iso.ManifestEntry{Name: e.Name, Version: e.Version})
	if err := cfg.persistManifest(); err != nil {
		return err
	}
	return cfg.journal.Clear()
}
