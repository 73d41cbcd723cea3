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
Package cli describes the operating environment for the usbiso CLI.

Every setting can come from a command line flag, an environment variable or
the TOML config file, in that order of precedence.
*/
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/usbiso/usbiso/internal/fileutil"
)

// ConfigFileName is the name of the config file looked up in the ISO folder.
const ConfigFileName = "usbiso.toml"

// EnvSettings describes all of the environment settings.
type EnvSettings struct {
	// Path is the ISO folder.
	Path string
	// ConfigFile is the TOML file settings are read from. Empty means
	// usbiso.toml in Path, if present.
	ConfigFile string
	// Debug indicates whether or not usbiso is running in Debug mode.
	Debug bool
	// CatalogFile replaces the built-in catalog when set.
	CatalogFile string
	// Timeout bounds each HTTP request. Zero means no limit.
	Timeout time.Duration
	// UserAgent overrides the User-Agent header sent to mirrors.
	UserAgent string
	// InsecureSkipTLSverify disables certificate checks on HTTPS downloads.
	InsecureSkipTLSverify bool
	// NoProgress disables download progress output.
	NoProgress bool

	// fromEnv records the settings taken from the environment, which the
	// config file must not override.
	fromEnv map[string]bool
}

// New returns settings initialized from the environment.
func New() *EnvSettings {
	env := &EnvSettings{fromEnv: map[string]bool{}}
	env.Path = env.envOr("USBISO_PATH", "path", ".")
	env.ConfigFile = env.envOr("USBISO_CONFIG", "config", "")
	env.CatalogFile = env.envOr("USBISO_CATALOG", "catalog", "")
	env.UserAgent = env.envOr("USBISO_USER_AGENT", "user-agent", "")
	env.Debug = env.envBoolOr("USBISO_DEBUG", "debug", false)
	env.NoProgress = env.envBoolOr("USBISO_NO_PROGRESS", "no-progress", false)
	if d, err := time.ParseDuration(env.envOr("USBISO_TIMEOUT", "timeout", "0")); err == nil {
		env.Timeout = d
	}
	return env
}

// AddFlags binds flags to the given flagset.
func (s *EnvSettings) AddFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&s.Path, "path", "p", s.Path, "folder holding the manifest, the lock file and the ISOs")
	fs.StringVar(&s.ConfigFile, "config", s.ConfigFile, "path to the config file (default: usbiso.toml in the ISO folder)")
	fs.BoolVar(&s.Debug, "debug", s.Debug, "enable verbose output")
	fs.StringVar(&s.CatalogFile, "catalog", s.CatalogFile, "path to a catalog file replacing the built-in catalog")
	fs.DurationVar(&s.Timeout, "timeout", s.Timeout, "time limit for each HTTP request (0 for none)")
	fs.BoolVar(&s.InsecureSkipTLSverify, "insecure-skip-tls-verify", s.InsecureSkipTLSverify, "skip certificate checks on HTTPS downloads")
	fs.BoolVar(&s.NoProgress, "no-progress", s.NoProgress, "do not report download progress")
}

type fileConfig struct {
	Debug                 *bool   `toml:"debug"`
	Catalog               *string `toml:"catalog"`
	Timeout               *string `toml:"timeout"`
	UserAgent             *string `toml:"user_agent"`
	InsecureSkipTLSVerify *bool   `toml:"insecure_skip_tls_verify"`
	NoProgress            *bool   `toml:"no_progress"`
}

// LoadConfig applies the config file to every setting that was neither given
// as a flag in fs nor taken from the environment. It must run after fs has
// been parsed. A missing default config file is not an error.
func (s *EnvSettings) LoadConfig(fs *pflag.FlagSet) error {
	path := s.ConfigFile
	if path == "" {
		path = filepath.Join(s.Path, ConfigFileName)
		ok, err := fileutil.Exists(path)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}

	var fc fileConfig
	md, err := toml.DecodeFile(path, &fc)
	if err != nil {
		return errors.Wrapf(err, "could not load config file %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return errors.Errorf("config file %s: unknown keys %s", path, strings.Join(keys, ", "))
	}

	unset := func(name string) bool {
		return !s.fromEnv[name] && (fs == nil || !fs.Changed(name))
	}
	if fc.Debug != nil && unset("debug") {
		s.Debug = *fc.Debug
	}
	if fc.Catalog != nil && unset("catalog") {
		s.CatalogFile = *fc.Catalog
		if s.CatalogFile != "" && !filepath.IsAbs(s.CatalogFile) {
			s.CatalogFile = filepath.Join(filepath.Dir(path), s.CatalogFile)
		}
	}
	if fc.Timeout != nil && unset("timeout") {
		d, err := time.ParseDuration(*fc.Timeout)
		if err != nil {
			return errors.Wrapf(err, "config file %s: invalid timeout", path)
		}
		s.Timeout = d
	}
	if fc.UserAgent != nil && unset("user-agent") {
		s.UserAgent = *fc.UserAgent
	}
	if fc.InsecureSkipTLSVerify != nil && unset("insecure-skip-tls-verify") {
		s.InsecureSkipTLSverify = *fc.InsecureSkipTLSVerify
	}
	if fc.NoProgress != nil && unset("no-progress") {
		s.NoProgress = *fc.NoProgress
	}
	return nil
}

func (s *EnvSettings) envOr(name, setting, def string) string {
	if v, ok := os.LookupEnv(name); ok {
		s.fromEnv[setting] = true
		return v
	}
	return def
}

func (s *EnvSettings) envBoolOr(name, setting string, def bool) bool {
	v, ok := os.LookupEnv(name)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	s.fromEnv[setting] = true
	return b
}

// EnvVars returns the settings as the environment variables that set them.
func (s *EnvSettings) EnvVars() map[string]string {
	return map[string]string{
		"USBISO_PATH":        s.Path,
		"USBISO_CONFIG":      s.ConfigFile,
		"USBISO_DEBUG":       fmt.Sprint(s.Debug),
		"USBISO_CATALOG":     s.CatalogFile,
		"USBISO_TIMEOUT":     s.Timeout.String(),
		"USBISO_USER_AGENT":  s.UserAgent,
		"USBISO_NO_PROGRESS": fmt.Sprint(s.NoProgress),
	}
}
