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

package main

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	shellwords "github.com/mattn/go-shellwords"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/usbiso/usbiso/internal/test"
	"github.com/usbiso/usbiso/pkg/cli"
)

func runTestCmd(t *testing.T, tests []cmdTestCase) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer resetEnv()()

			t.Logf("running cmd: %s", tt.cmd)
			_, out, err := executeCommandC(tt.cmd)
			if tt.wantError && err == nil {
				t.Errorf("expected error, got success with the following output:\n%s", out)
			}
			if !tt.wantError && err != nil {
				t.Errorf("expected no error, got: '%v'", err)
			}
			if tt.golden != "" {
				test.AssertGoldenString(t, out, tt.golden)
			}
		})
	}
}

// cmdTestCase describes a test case for a usbiso command.
type cmdTestCase struct {
	name      string
	cmd       string
	golden    string
	wantError bool
}

func executeCommandC(cmd string) (*cobra.Command, string, error) {
	args, err := shellwords.Parse(cmd)
	if err != nil {
		return nil, "", err
	}

	buf := new(bytes.Buffer)
	root := newRootCmd(buf, args)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)

	c, err := root.ExecuteC()
	return c, buf.String(), err
}

func executeCommand(cmd string) (string, error) {
	_, out, err := executeCommandC(cmd)
	return out, err
}

func resetEnv() func() {
	origEnv := os.Environ()
	return func() {
		os.Clearenv()
		for _, pair := range origEnv {
			kv := strings.SplitN(pair, "=", 2)
			os.Setenv(kv[0], kv[1])
		}
		settings = cli.New()
	}
}

var testISO = bytes.Repeat([]byte("usbiso "), 2048)

// isoFolder starts a mirror serving ubuntu-22.iso and its SHA256SUMS and
// returns the flags pointing a command at a fresh ISO folder and a catalog
// for that mirror.
func isoFolder(t *testing.T) (dir, flags string) {
	t.Helper()
	sum := sha256.Sum256(testISO)
	sums := fmt.Sprintf("%s *ubuntu-22.iso\n", hex.EncodeToString(sum[:]))

	mux := http.NewServeMux()
	mux.HandleFunc("/ubuntu-22.iso", func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, "ubuntu-22.iso", time.Time{}, bytes.NewReader(testISO))
	})
	mux.HandleFunc("/SHA256SUMS", func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, "SHA256SUMS", time.Time{}, strings.NewReader(sums))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	dir = t.TempDir()
	catalogFile := filepath.Join(t.TempDir(), "catalog.json")
	doc := fmt.Sprintf(`{"isos": [{"name": "ubuntu-22", "display_name": "Ubuntu 22", "iso_url": "%[1]s/ubuntu-22.iso", "hash_url": "%[1]s/SHA256SUMS"}]}`, srv.URL)
	require.NoError(t, os.WriteFile(catalogFile, []byte(doc), 0644))

	return dir, fmt.Sprintf("--path %s --catalog %s --no-progress --no-color", dir, catalogFile)
}
