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

/*
Package provenance verifies the integrity of downloaded artifacts.

Every digest handled here is a SHA-256 sum rendered as 64 lower-case hex
characters. The same algorithm is used for digest files published next to
artifacts, for the values recorded in the lock file, and for re-verification
of files already on disk.
*/
package provenance

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// DigestFile calculates a SHA256 hash (like Docker) for a given file.
//
// It takes the path to the archive file, and returns a string representation of
// the SHA256 sum.
func DigestFile(filename string) (string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return Digest(f)
}

// Digest hashes a reader and returns a SHA256 digest.
func Digest(in io.Reader) (string, error) {
	hash := sha256.New()
	if _, err := io.Copy(hash, in); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

// DigestMismatchError is returned when the digest of an artifact differs from
// the digest published for it.
type DigestMismatchError struct {
	// File is the path of the artifact that was hashed.
	File string
	// Expected is the published digest.
	Expected string
	// Actual is the digest computed from File.
	Actual string
}

func (e *DigestMismatchError) Error() string {
	return fmt.Sprintf("digest mismatch for %s: expected %s, got %s", e.File, e.Expected, e.Actual)
}
