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

const removeDesc = `
This command removes an ISO from the manifest and the lock file of the ISO
folder. The ISO file itself is left on disk.
`

func newRemoveCmd(o *rootOptions, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:     "remove NAME",
		Aliases: []string{"rm"},
		Short:   "drop an ISO from the manifest and lock file",
		Long:    removeDesc,
		Args:    require.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, unlock, err := o.writableConfiguration(cmd.Context(), out)
			if err != nil {
				return err
			}
			defer unlock()

			if err := action.NewRemove(cfg).Run(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(out, "Removed %s\n", args[0])
			return nil
		},
	}
}
