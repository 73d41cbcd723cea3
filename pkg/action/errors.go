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

import "github.com/pkg/errors"

var (
	// ErrAlreadyDeclared indicates that the manifest already lists the ISO.
	ErrAlreadyDeclared = errors.New("already declared in the manifest")
	// ErrNotDeclared indicates that the manifest does not list the ISO.
	ErrNotDeclared = errors.New("not declared in the manifest")
	// ErrUnknownArtifact indicates that the catalog has no entry for the ISO.
	ErrUnknownArtifact = errors.New("not found in the catalog")
	// ErrNotLocked indicates that the lock file has no entry for the ISO.
	ErrNotLocked = errors.New("not present in the lock file")
)
