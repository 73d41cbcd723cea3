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

package fileutil

import (
	"io"
	"os"
	"path/filepath"
)

// AtomicWriteFile atomically (as atomic as os.Rename allows) writes a file to a
// disk.
//
// Readers of filename observe either the previous content or the complete new
// content, never a truncated file.
func AtomicWriteFile(filename string, reader io.Reader, mode os.FileMode) error {
	dir, base := filepath.Split(filename)
	if dir == "" {
		dir = "."
	}
	tempFile, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return err
	}
	tempName := tempFile.Name()

	if _, err := io.Copy(tempFile, reader); err != nil {
		tempFile.Close() // return value is ignored as we are already on error path
		os.Remove(tempName)
		return err
	}

	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		os.Remove(tempName)
		return err
	}

	if err := tempFile.Close(); err != nil {
		os.Remove(tempName)
		return err
	}

	if err := os.Chmod(tempName, mode); err != nil {
		os.Remove(tempName)
		return err
	}

	if err := os.Rename(tempName, filename); err != nil {
		os.Remove(tempName)
		return err
	}
	return nil
}

// Exists reports whether path names an existing file or directory.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
