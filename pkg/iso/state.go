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

/*
Package iso holds the durable state of an ISO folder.

A folder carries two files. The manifest (usbiso.json) lists the ISOs the user
wants. The lock file (usbiso.lock) records, for every acquired ISO, the URL it
was downloaded from and its verified SHA-256 digest. Both are rewritten whole
after every change.
*/
package iso

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/usbiso/usbiso/internal/fileutil"
)

const (
	// ManifestFileName is the name of the manifest inside an ISO folder.
	ManifestFileName = "usbiso.json"
	// LockFileName is the name of the lock file inside an ISO folder.
	LockFileName = "usbiso.lock"
	// JournalFileName is the name of the pending operation record.
	JournalFileName = ".usbiso.pending"
)

// CorruptStateError reports a state file that exists but cannot be understood.
type CorruptStateError struct {
	Path string
	Err  error
}

func (e *CorruptStateError) Error() string {
	return fmt.Sprintf("corrupt state file %s: %s", e.Path, e.Err)
}

func (e *CorruptStateError) Unwrap() error { return e.Err }

// PersistError reports a state file that could not be written. The data to be
// recorded was valid.
type PersistError struct {
	Path string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("could not save %s: %s", e.Path, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// readState decodes the JSON document at path into v after validating it
// against schema. A missing file is reported with ok == false.
func readState(path, schema string, v interface{}) (ok bool, err error) {
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, &CorruptStateError{Path: path, Err: err}
	}

	result, err := gojsonschema.Validate(gojsonschema.NewStringLoader(schema), gojsonschema.NewBytesLoader(b))
	if err != nil {
		return false, &CorruptStateError{Path: path, Err: err}
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return false, &CorruptStateError{Path: path, Err: fmt.Errorf("%s", strings.Join(msgs, "; "))}
	}

	if err := json.Unmarshal(b, v); err != nil {
		return false, &CorruptStateError{Path: path, Err: err}
	}
	return true, nil
}

// writeState replaces the file at path with the indented JSON encoding of v.
func writeState(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &PersistError{Path: path, Err: err}
	}
	data = append(data, '\n')
	if err := fileutil.AtomicWriteFile(path, bytes.NewReader(data), 0644); err != nil {
		return &PersistError{Path: path, Err: err}
	}
	return nil
}

// duplicate returns the first name that occurs twice in names.
func duplicate(names []string) (string, bool) {
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			return n, true
		}
		seen[n] = struct{}{}
	}
	return "", false
}
