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
)

const verifyDesc = `
Verify that the downloaded ISOs still match the SHA-256 digests recorded in
the lock file.

Without arguments every locked ISO is checked. All failures are reported.
`

func newVerifyCmd(o *rootOptions, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "verify [NAME...]",
		Short: "verify downloaded ISOs against the lock file",
		Long:  verifyDesc,
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := o.configuration(out)
			if err != nil {
				return err
			}
			if err := cfg.Load(); err != nil {
				return err
			}

			verified, err := action.NewVerify(cfg).Run(args...)
			for _, e := range verified {
				fmt.Fprintf(out, "Verified %s (sha256 %s)\n", e.Name, e.Hash)
			}
			return err
		},
	}
}
