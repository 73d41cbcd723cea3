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

package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvSettings(t *testing.T) {
	tests := []struct {
		name string

		// input
		args    string
		envvars map[string]string

		// expected values
		path       string
		debug      bool
		catalog    string
		timeout    time.Duration
		insecure   bool
		noProgress bool
	}{
		{
			name: "defaults",
			path: ".",
		},
		{
			name:       "with flags set",
			args:       "--debug -p /isos --catalog /etc/catalog.yaml --timeout 30s --insecure-skip-tls-verify --no-progress",
			path:       "/isos",
			debug:      true,
			catalog:    "/etc/catalog.yaml",
			timeout:    30 * time.Second,
			insecure:   true,
			noProgress: true,
		},
		{
			name:       "with envvars set",
			envvars:    map[string]string{"USBISO_DEBUG": "1", "USBISO_PATH": "/mnt/usb", "USBISO_CATALOG": "/tmp/c.json", "USBISO_TIMEOUT": "1m", "USBISO_NO_PROGRESS": "true"},
			path:       "/mnt/usb",
			debug:      true,
			catalog:    "/tmp/c.json",
			timeout:    time.Minute,
			noProgress: true,
		},
		{
			name:    "with flags and envvars set",
			args:    "--path /isos --timeout 5s",
			envvars: map[string]string{"USBISO_DEBUG": "1", "USBISO_PATH": "/mnt/usb", "USBISO_TIMEOUT": "1m"},
			path:    "/isos",
			debug:   true,
			timeout: 5 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer resetEnv()()

			for k, v := range tt.envvars {
				os.Setenv(k, v)
			}

			flags := pflag.NewFlagSet("testing", pflag.ContinueOnError)
			settings := New()
			settings.AddFlags(flags)
			require.NoError(t, flags.Parse(strings.Fields(tt.args)))

			assert.Equal(t, tt.path, settings.Path)
			assert.Equal(t, tt.debug, settings.Debug)
			assert.Equal(t, tt.catalog, settings.CatalogFile)
			assert.Equal(t, tt.timeout, settings.Timeout)
			assert.Equal(t, tt.insecure, settings.InsecureSkipTLSverify)
			assert.Equal(t, tt.noProgress, settings.NoProgress)
		})
	}
}

const testConfig = `
debug = true
catalog = "catalog.yaml"
timeout = "2m"
user_agent = "tester/1.0"
insecure_skip_tls_verify = true
no_progress = true
`

func TestLoadConfig(t *testing.T) {
	defer resetEnv()()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(testConfig), 0644))

	flags := pflag.NewFlagSet("testing", pflag.ContinueOnError)
	settings := New()
	settings.AddFlags(flags)
	require.NoError(t, flags.Parse([]string{"--path", dir}))
	require.NoError(t, settings.LoadConfig(flags))

	assert.True(t, settings.Debug)
	assert.Equal(t, filepath.Join(dir, "catalog.yaml"), settings.CatalogFile)
	assert.Equal(t, 2*time.Minute, settings.Timeout)
	assert.Equal(t, "tester/1.0", settings.UserAgent)
	assert.True(t, settings.InsecureSkipTLSverify)
	assert.True(t, settings.NoProgress)
}

func TestLoadConfigPrecedence(t *testing.T) {
	defer resetEnv()()
	dir := t.TempDir()
	cfg := filepath.Join(dir, "custom.toml")
	require.NoError(t, os.WriteFile(cfg, []byte(testConfig), 0644))
	os.Setenv("USBISO_TIMEOUT", "10s")
	os.Setenv("USBISO_CONFIG", cfg)

	flags := pflag.NewFlagSet("testing", pflag.ContinueOnError)
	settings := New()
	settings.AddFlags(flags)
	require.NoError(t, flags.Parse([]string{"--debug=false", "--catalog", "/abs/catalog.json"}))
	require.NoError(t, settings.LoadConfig(flags))

	assert.False(t, settings.Debug, "flag wins over config file")
	assert.Equal(t, "/abs/catalog.json", settings.CatalogFile)
	assert.Equal(t, 10*time.Second, settings.Timeout, "environment wins over config file")
	assert.Equal(t, "tester/1.0", settings.UserAgent)
}

func TestLoadConfigMissing(t *testing.T) {
	defer resetEnv()()
	settings := New()
	settings.Path = t.TempDir()
	assert.NoError(t, settings.LoadConfig(nil), "the default config file is optional")

	settings.ConfigFile = filepath.Join(settings.Path, "missing.toml")
	assert.Error(t, settings.LoadConfig(nil), "an explicit config file must exist")
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"unknown key", "colour = \"blue\"\n", "unknown keys colour"},
		{"bad timeout", "timeout = \"soon\"\n", "invalid timeout"},
		{"bad syntax", "debug = \n", "could not load config file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer resetEnv()()
			settings := New()
			settings.ConfigFile = filepath.Join(t.TempDir(), ConfigFileName)
			require.NoError(t, os.WriteFile(settings.ConfigFile, []byte(tt.content), 0644))

			err := settings.LoadConfig(nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEnvVars(t *testing.T) {
	defer resetEnv()()
	settings := New()
	settings.Timeout = time.Minute

	envvars := settings.EnvVars()
	assert.Equal(t, ".", envvars["USBISO_PATH"])
	assert.Equal(t, "false", envvars["USBISO_DEBUG"])
	assert.Equal(t, "1m0s", envvars["USBISO_TIMEOUT"])
}

func resetEnv() func() {
	origEnv := os.Environ()

	// ensure any local envvars do not hose us
	for e := range New().EnvVars() {
		os.Unsetenv(e)
	}

	return func() {
		for _, pair := range origEnv {
			kv := strings.SplitN(pair, "=", 2)
			os.Setenv(kv[0], kv[1])
		}
	}
}
