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
	"os"
	"time"

	"github.com/pkg/errors"
)

// Operation names a change that touches both the manifest and the lock file.
type Operation string

const (
	// OperationAdd records an ISO being committed to the lock file and manifest.
	OperationAdd Operation = "add"
	// OperationRemove records an ISO being dropped from the manifest and lock file.
	OperationRemove Operation = "remove"
)

const journalSchema = `{
  "type": "object",
  "required": ["name", "operation"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "operation": {"enum": ["add", "remove"]},
    "started": {"type": "string"}
  }
}`

// Pending is the record of an operation that has not finished updating both
// state files.
type Pending struct {
	Name      string    `json:"name"`
	Operation Operation `json:"operation"`
	Started   time.Time `json:"started"`
}

// Journal stores at most one Pending record in a file.
type Journal struct {
	path string
}

// NewJournal returns a journal stored at path.
func NewJournal(path string) *Journal {
	return &Journal{path: path}
}

// Begin records that op is about to modify name.
func (j *Journal) Begin(name string, op Operation) error {
	return writeState(j.path, &Pending{Name: name, Operation: op, Started: time.Now().UTC()})
}

// Pending returns the dangling record, or nil if the last operation finished.
func (j *Journal) Pending() (*Pending, error) {
	p := &Pending{}
	ok, err := readState(j.path, journalSchema, p)
	if err != nil || !ok {
		return nil, err
	}
	return p, nil
}

// Clear removes the record.
func (j *Journal) Clear() error {
	if err := os.Remove(j.path); err != nil && !os.IsNotExist(err) {
		return &PersistError{Path: j.path, Err: errors.Wrap(err, "could not clear pending operation")}
	}
	return nil
}
