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
	"context"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/gofrs/flock"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/usbiso/usbiso/internal/logging"
	"github.com/usbiso/usbiso/pkg/catalog"
	"github.com/usbiso/usbiso/pkg/getter"
	"github.com/usbiso/usbiso/pkg/iso"
)

// FolderLockName is the name of the file used to serialize usbiso processes
// working on the same folder.
const FolderLockName = ".usbiso.flock"

// lockTimeout bounds how long a command waits for another process to release
// the folder.
var lockTimeout = 30 * time.Second

// Configuration injects the dependencies that all actions share.
type Configuration struct {
	// Root is the folder holding the manifest, the lock file and the ISOs.
	Root string
	// Catalog resolves ISO names to download locations.
	Catalog *catalog.Catalog
	// Getters fetch digest files and ISOs.
	Getters getter.Providers
	// Log receives diagnostic records.
	Log logrus.FieldLogger
	// Progress receives download progress. Nil disables progress reporting.
	Progress io.Writer

	// Manifest and Lock are set by Load or Repair.
	Manifest *iso.Manifest
	Lock     *iso.Lock

	journal *iso.Journal
}

// Init prepares cfg for the ISO folder root. It does not touch the state
// files: read-only actions call Load, actions that change the folder take the
// folder lock and call Repair.
func (cfg *Configuration) Init(root string, cat *catalog.Catalog, getters getter.Providers, log logrus.FieldLogger) error {
	if log == nil {
		log = logging.Discard()
	}
	cfg.Root = root
	cfg.Catalog = cat
	cfg.Getters = getters
	cfg.Log = log

	fi, err := os.Stat(root)
	if err != nil {
		return errors.Wrap(err, "could not open ISO folder")
	}
	if !fi.IsDir() {
		return errors.Errorf("%s is not a directory", root)
	}
	cfg.journal = iso.NewJournal(filepath.Join(root, iso.JournalFileName))
	return nil
}

// Load reads the manifest and lock file without modifying the folder. Absent
// files read as empty. An interrupted operation is reported but left for the
// next Repair.
func (cfg *Configuration) Load() error {
	var err error
	if cfg.Manifest, err = iso.ReadManifest(cfg.ManifestPath()); err != nil {
		return err
	}
	if cfg.Lock, err = iso.ReadLock(cfg.LockPath()); err != nil {
		return err
	}
	if p, err := cfg.journal.Pending(); err == nil && p != nil {
		cfg.Log.WithFields(logrus.Fields{
			"iso":       p.Name,
			"operation": p.Operation,
		}).Debug("interrupted operation pending")
	}
	return nil
}

// Repair loads the manifest and lock file, creating them when absent, and
// completes an operation that was interrupted between its two writes. The
// caller must hold the folder lock. A failed repair is logged and left for
// the next run.
func (cfg *Configuration) Repair() error {
	var err error
	if cfg.Manifest, err = iso.LoadManifest(cfg.ManifestPath()); err != nil {
		return err
	}
	if cfg.Lock, err = iso.LoadLock(cfg.LockPath()); err != nil {
		return err
	}
	if _, err := NewReconcile(cfg).Run(); err != nil {
		cfg.Log.WithError(err).Warn("could not repair interrupted operation")
	}
	return nil
}

// ManifestPath returns the location of the manifest.
func (cfg *Configuration) ManifestPath() string {
	return filepath.Join(cfg.Root, iso.ManifestFileName)
}

// LockPath returns the location of the lock file.
func (cfg *Configuration) LockPath() string {
	return filepath.Join(cfg.Root, iso.LockFileName)
}

// LockFolder takes an exclusive lock on the root folder so that two processes
// never interleave their updates. The returned function releases it.
func (cfg *Configuration) LockFolder(ctx context.Context) (func() error, error) {
	if _, err := os.Stat(cfg.Root); err != nil {
		return nil, errors.Wrap(err, "could not open ISO folder")
	}
	fileLock := flock.New(filepath.Join(cfg.Root, FolderLockName))
	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()
	locked, err := fileLock.TryLockContext(lockCtx, 100*time.Millisecond)
	if err != nil {
		return nil, errors.Wrapf(err, "could not lock %s; is another usbiso running?", cfg.Root)
	}
	if !locked {
		return nil, errors.Errorf("could not lock %s", cfg.Root)
	}
	return fileLock.Unlock, nil
}

func (cfg *Configuration) persistManifest() error {
	return cfg.Manifest.WriteFile(cfg.ManifestPath())
}

func (cfg *Configuration) persistLock() error {
	return cfg.Lock.WriteFile(cfg.LockPath())
}

// artifactPath returns the local file an ISO downloaded from rawURL lives in.
func (cfg *Configuration) artifactPath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", errors.Wrapf(err, "invalid URL %q", rawURL)
	}
	name := path.Base(u.Path)
	if name == "/" || name == "." || name == ".." {
		return "", errors.Errorf("cannot derive a file name from %s", rawURL)
	}
	return securejoin.SecureJoin(cfg.Root, name)
}
