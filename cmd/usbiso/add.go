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

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/usbiso/usbiso/pkg/action"
	"github.com/usbiso/usbiso/pkg/cli/require"
)

const addDesc = `
This command downloads an ISO from the catalog, verifies it against the digest
file published next to it and declares it in the manifest of the ISO folder.

A partial download left by an earlier attempt is resumed. The ISO is only
recorded once its SHA-256 digest matches.
`

func newAddCmd(o *rootOptions, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "add NAME",
		Short: "download, verify and declare an ISO",
		Long:  addDesc,
		Args:  require.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, unlock, err := o.writableConfiguration(cmd.Context(), out)
			if err != nil {
				return err
			}
			defer unlock()

			locked, err := action.NewAdd(cfg).Run(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Added %s (version %s)\n", locked.Name, locked.Version)
			return nil
		},
	}
}
