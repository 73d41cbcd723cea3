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

package output

import (
	"github.com/fatih/color"

	"github.com/usbiso/usbiso/pkg/action"
)

// ColorizeStatus returns status colored by how healthy it is: green when an
// ISO is locked and on disk, red when it is not, plain otherwise.
func ColorizeStatus(status action.Status, noColor bool) string {
	s := string(status)
	if noColor {
		return s
	}

	switch status {
	case action.StatusLocked:
		return color.GreenString(s)
	case action.StatusMissingLock, action.StatusMissingFile:
		return color.RedString(s)
	case action.StatusDeclared:
		return color.CyanString(s)
	default:
		return s
	}
}

// ColorizeHeader returns a colorized version of a header string
func ColorizeHeader(header string, noColor bool) string {
	if noColor {
		return header
	}
	return color.New(color.Bold).Sprint(header)
}
