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

package provenance

import (
	"bufio"
	"bytes"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// ErrMalformedDigestFile indicates that no SHA-256 digest could be read from a digest file.
var ErrMalformedDigestFile = errors.New("malformed digest file")

// bsdLine matches the tagged format written by `sha256sum --tag` and BSD `sha256`.
var bsdLine = regexp.MustCompile(`^SHA256 \((.+)\) = ([0-9a-fA-F]+)$`)

// ParseDigestFile extracts the expected digest for fileName from the content
// of a digest file.
//
// Digest files conventionally hold lines of the form "<hex-digest>  <filename>".
// When a line names fileName, its digest is returned. Otherwise the file must
// start with the digest, which covers single-entry files that name the
// artifact differently (or not at all).
func ParseDigestFile(data []byte, fileName string) (string, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var sum, name string
		if m := bsdLine.FindStringSubmatch(line); m != nil {
			sum, name = m[2], m[1]
		} else {
			fields := strings.Fields(line)
			sum = fields[0]
			if len(fields) > 1 {
				name = fields[1]
			}
		}
		if fileName == "" || cleanName(name) != fileName {
			continue
		}
		if !isDigest(sum) {
			return "", errors.Wrapf(ErrMalformedDigestFile, "entry for %s is not a sha256 digest", fileName)
		}
		return strings.ToLower(sum), nil
	}
	if err := scanner.Err(); err != nil {
		return "", errors.Wrap(ErrMalformedDigestFile, err.Error())
	}

	fields := strings.Fields(string(data))
	if len(fields) == 0 || !isDigest(fields[0]) {
		return "", errors.Wrapf(ErrMalformedDigestFile, "no entry for %s and no leading sha256 digest", fileName)
	}
	return strings.ToLower(fields[0]), nil
}

// VerifyFile checks the artifact at artifactPath against the digest published
// in the digest file at digestPath.
//
// On success it returns the verified digest. A mismatch is reported as a
// *DigestMismatchError.
func VerifyFile(artifactPath, digestPath string) (string, error) {
	data, err := os.ReadFile(digestPath)
	if err != nil {
		return "", errors.Wrapf(err, "could not read digest file %s", digestPath)
	}
	expected, err := ParseDigestFile(data, filepath.Base(artifactPath))
	if err != nil {
		return "", errors.Wrapf(err, "could not read digest from %s", digestPath)
	}
	return Verify(artifactPath, expected)
}

// Verify hashes the file at artifactPath and compares the result with
// expected. The comparison ignores case.
func Verify(artifactPath, expected string) (string, error) {
	actual, err := DigestFile(artifactPath)
	if err != nil {
		return "", errors.Wrapf(err, "could not hash %s", artifactPath)
	}
	if !strings.EqualFold(actual, expected) {
		return "", &DigestMismatchError{
			File:     artifactPath,
			Expected: strings.ToLower(expected),
			Actual:   actual,
		}
	}
	return actual, nil
}

func isDigest(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// cleanName strips the binary-mode marker and a leading "./" from a file name
// column.
func cleanName(name string) string {
	name = strings.TrimPrefix(name, "*")
	name = strings.TrimPrefix(name, "./")
	return path.Base(name)
}
