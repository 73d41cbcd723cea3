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

package output

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usbiso/usbiso/pkg/action"
)

type row struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type rowWriter []row

func (r rowWriter) WriteTable(out io.Writer) error {
	table := uitable.New()
	table.AddRow("NAME", "VERSION")
	for _, x := range r {
		table.AddRow(x.Name, x.Version)
	}
	return EncodeTable(out, table)
}

func (r rowWriter) WriteJSON(out io.Writer) error { return EncodeJSON(out, []row(r)) }
func (r rowWriter) WriteYAML(out io.Writer) error { return EncodeYAML(out, []row(r)) }

func TestParseFormat(t *testing.T) {
	for _, s := range Formats() {
		f, err := ParseFormat(s)
		require.NoError(t, err)
		assert.Equal(t, s, f.String())
	}
	_, err := ParseFormat("xml")
	assert.ErrorIs(t, err, ErrInvalidFormatType)
}

func TestWrite(t *testing.T) {
	rows := rowWriter{{Name: "debian-12", Version: "12.7.0"}}
	tests := []struct {
		format Format
		want   string
	}{
		{Table, ""},
		{JSON, "[\n  {\n    \"name\": \"debian-12\",\n    \"version\": \"12.7.0\"\n  }\n]\n"},
		{YAML, "- name: debian-12\n  version: 12.7.0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, tt.format.Write(&buf, rows))
			if tt.format == Table {
				for _, s := range []string{"NAME", "VERSION", "debian-12", "12.7.0"} {
					assert.Contains(t, buf.String(), s)
				}
				return
			}
			assert.Equal(t, tt.want, buf.String())
		})
	}

	assert.ErrorIs(t, Format("xml").Write(io.Discard, rows), ErrInvalidFormatType)
}

func TestColorizeStatus(t *testing.T) {
	defer func(v bool) { color.NoColor = v }(color.NoColor)
	color.NoColor = false

	tests := []struct {
		status    action.Status
		noColor   bool
		wantColor bool
	}{
		{action.StatusLocked, false, true},
		{action.StatusLocked, true, false},
		{action.StatusMissingLock, false, true},
		{action.StatusMissingFile, false, true},
		{action.StatusDeclared, false, true},
		{action.StatusAvailable, false, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			result := ColorizeStatus(tt.status, tt.noColor)
			assert.Equal(t, tt.wantColor, strings.Contains(result, "\033["), result)
			assert.Contains(t, result, string(tt.status))
		})
	}
}

func TestColorizeHeader(t *testing.T) {
	defer func(v bool) { color.NoColor = v }(color.NoColor)
	color.NoColor = false

	assert.Equal(t, "NAME", ColorizeHeader("NAME", true))
	assert.Contains(t, ColorizeHeader("NAME", false), "\033[1m")
}
