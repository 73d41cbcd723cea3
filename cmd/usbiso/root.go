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
	"context"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/usbiso/usbiso/internal/logging"
	"github.com/usbiso/usbiso/pkg/action"
	"github.com/usbiso/usbiso/pkg/catalog"
	"github.com/usbiso/usbiso/pkg/getter"
)

var globalUsage = `Keep a folder of verified ISO images in sync with a manifest.

usbiso downloads ISOs by name from a catalog of mirrors, checks each one
against the SHA-256 digest its mirror publishes and records the result in a
lock file next to the manifest. Interrupted downloads resume where they
stopped.

Common actions for usbiso:

- usbiso list --available:  list the ISOs the catalog knows about
- usbiso add NAME:          download, verify and declare an ISO
- usbiso remove NAME:       drop an ISO from the manifest and lock file
- usbiso list:              list the ISOs declared in the folder
- usbiso verify:            re-check downloaded ISOs against the lock file

Environment variables:

| Name                 | Description                                            |
|----------------------|--------------------------------------------------------|
| $USBISO_PATH         | set the ISO folder (default ".")                       |
| $USBISO_CONFIG       | set the config file (default "usbiso.toml" in folder)  |
| $USBISO_CATALOG      | set a catalog file replacing the built-in catalog      |
| $USBISO_DEBUG        | enable verbose output                                  |
| $USBISO_TIMEOUT      | set the time limit of each HTTP request                |
| $USBISO_USER_AGENT   | set the User-Agent header sent to mirrors              |
| $USBISO_NO_PROGRESS  | disable download progress output                       |
`

// rootOptions carries state shared by every subcommand.
type rootOptions struct {
	noColor bool
	log     *logrus.Logger
}

func newRootCmd(out io.Writer, args []string) *cobra.Command {
	o := &rootOptions{log: logging.NewLogger(io.Discard, false)}

	cmd := &cobra.Command{
		Use:          "usbiso",
		Short:        "Reproducible, verified ISO downloads.",
		Long:         globalUsage,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := settings.LoadConfig(cmd.Flags()); err != nil {
				return err
			}
			o.log.SetOutput(cmd.ErrOrStderr())
			logging.SetDebug(o.log, settings.Debug)
			return nil
		},
	}
	flags := cmd.PersistentFlags()

	settings.AddFlags(flags)
	flags.BoolVar(&o.noColor, "no-color", false, "disable colored output")

	// Errors are reported again by cmd.Execute. Parsing here makes the
	// settings available while the subcommands are built.
	flags.ParseErrorsWhitelist.UnknownFlags = true
	flags.Parse(args)

	cmd.AddCommand(
		newListCmd(o, out),
		newAddCmd(o, out),
		newRemoveCmd(o, out),
		newVerifyCmd(o, out),
		newEnvCmd(out),
		newVersionCmd(out),
	)

	return cmd
}

// configuration prepares an action configuration for the ISO folder. It does
// not read the state files.
func (o *rootOptions) configuration(out io.Writer) (*action.Configuration, error) {
	cat, err := loadCatalog()
	if err != nil {
		return nil, err
	}
	cfg := &action.Configuration{}
	if err := cfg.Init(settings.Path, cat, getter.All(settings), o.log); err != nil {
		return nil, err
	}
	if !settings.NoProgress {
		cfg.Progress = out
	}
	return cfg, nil
}

// writableConfiguration also locks the folder and repairs its state. The
// folder stays locked until the returned function is called.
func (o *rootOptions) writableConfiguration(ctx context.Context, out io.Writer) (*action.Configuration, func() error, error) {
	cfg, err := o.configuration(out)
	if err != nil {
		return nil, nil, err
	}
	unlock, err := cfg.LockFolder(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Repair(); err != nil {
		unlock()
		return nil, nil, err
	}
	return cfg, unlock, nil
}

func loadCatalog() (*catalog.Catalog, error) {
	if settings.CatalogFile != "" {
		return catalog.LoadFile(settings.CatalogFile)
	}
	return catalog.Default()
}
