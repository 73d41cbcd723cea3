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
	"regexp"

	"github.com/Masterminds/semver/v3"
)

// versionPattern finds dotted numeric runs such as 22.04.3 or 40 in a file
// name. Runs glued to letters or underscores (x86_64, amd64) are skipped by requiring a
// non-alphanumeric boundary.
var versionPattern = regexp.MustCompile(`(?:^|[^A-Za-z0-9._])(\d+(?:\.\d+){0,2})(?:[^A-Za-z0-9._]|\.[A-Za-z]|$)`)

// ResolveVersion derives a version identifier for an ISO from the name of the
// file that was downloaded, falling back to a prefix of its digest.
func ResolveVersion(fileName, digest string) string {
	for _, m := range versionPattern.FindAllStringSubmatch(fileName, -1) {
		if v, err := semver.NewVersion(m[1]); err == nil {
			return v.Original()
		}
	}
	if len(digest) > 12 {
		digest = digest[:12]
	}
	return "sha256-" + digest
}
