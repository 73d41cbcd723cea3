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
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/gosuri/uitable"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/usbiso/usbiso/pkg/action"
	"github.com/usbiso/usbiso/pkg/cli/output"
	"github.com/usbiso/usbiso/pkg/cli/require"
)

var listHelp = `
This command lists the ISOs declared in the manifest of the ISO folder,
together with their version and whether they are locked and on disk.

With --available it lists the catalog instead. An optional glob pattern
restricts the catalog names:

    $ usbiso list --available 'ubuntu-*'
`

func newListCmd(o *rootOptions, out io.Writer) *cobra.Command {
	var available bool
	var outfmt output.Format

	cmd := &cobra.Command{
		Use:     "list [PATTERN]",
		Short:   "list declared or available ISOs",
		Long:    listHelp,
		Aliases: []string{"ls"},
		Args:    require.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if len(args) > 0 && !available {
				return errors.New("a pattern can only be used with --available")
			}
			cfg, err := o.configuration(out)
			if err != nil {
				return err
			}
			if !available {
				if err := cfg.Load(); err != nil {
					return err
				}
			}

			client := action.NewList(cfg)
			client.Available = available
			if len(args) > 0 {
				client.Pattern = args[0]
			}
			items, err := client.Run()
			if err != nil {
				return err
			}
			return outfmt.Write(out, &listWriter{items: items, available: available, noColor: o.noColor})
		},
	}

	cmd.Flags().BoolVarP(&available, "available", "a", false, "list the ISOs of the catalog")
	bindOutputFlag(cmd, &outfmt)

	return cmd
}

type listWriter struct {
	items     []*action.Item
	available bool
	noColor   bool
}

func (w *listWriter) WriteTable(out io.Writer) error {
	if len(w.items) == 0 {
		if w.available {
			_, err := fmt.Fprintln(out, "No ISOs in the catalog match.")
			return err
		}
		_, err := fmt.Fprintln(out, "No ISOs declared. Run 'usbiso list --available' to see what can be added.")
		return err
	}

	table := uitable.New()
	if w.available {
		table.AddRow(header("NAME", w.noColor), header("DESCRIPTION", w.noColor), header("STATUS", w.noColor))
		for _, i := range w.items {
			table.AddRow(i.Name, i.DisplayName, output.ColorizeStatus(i.Status, w.noColor))
		}
		return output.EncodeTable(out, table)
	}

	table.AddRow(header("NAME", w.noColor), header("VERSION", w.noColor), header("STATUS", w.noColor), header("SIZE", w.noColor))
	for _, i := range w.items {
		size := "-"
		if i.Size > 0 {
			size = humanize.IBytes(uint64(i.Size))
		}
		table.AddRow(i.Name, i.Version, output.ColorizeStatus(i.Status, w.noColor), size)
	}
	return output.EncodeTable(out, table)
}

func (w *listWriter) WriteJSON(out io.Writer) error {
	return output.EncodeJSON(out, w.items)
}

func (w *listWriter) WriteYAML(out io.Writer) error {
	return output.EncodeYAML(out, w.items)
}

func header(s string, noColor bool) string {
	return output.ColorizeHeader(s, noColor)
}
