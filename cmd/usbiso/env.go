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
	"sort"

	"github.com/spf13/cobra"

	"github.com/usbiso/usbiso/pkg/cli/require"
)

var envHelp = `
Env prints out all the environment information in use by usbiso.
`

func newEnvCmd(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "env [NAME]",
		Short: "usbiso client environment information",
		Long:  envHelp,
		Args:  require.MaximumNArgs(1),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return sortedEnvVarKeys(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(_ *cobra.Command, args []string) error {
			envVars := settings.EnvVars()

			if len(args) == 0 {
				// Sort the variables by alphabetical order.
				// This allows for a constant output across calls to 'usbiso env'.
				for _, k := range sortedEnvVarKeys() {
					fmt.Fprintf(out, "%s=\"%s\"\n", k, envVars[k])
				}
				return nil
			}
			fmt.Fprintf(out, "%s\n", envVars[args[0]])
			return nil
		},
	}
}

func sortedEnvVarKeys() []string {
	var keys []string
	for k := range settings.EnvVars() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
