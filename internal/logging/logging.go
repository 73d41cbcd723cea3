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

package logging

import (
	"io"

	"github.com/sirupsen/logrus"
)

// NewLogger creates a logger writing human-readable records to out.
//
// Timestamps are dropped: the logger backs a short-lived CLI, and the records
// interleave with progress output on the same terminal.
func NewLogger(out io.Writer, debug bool) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp:       true,
		DisableLevelTruncation: true,
		PadLevelText:           false,
	})
	SetDebug(l, debug)
	return l
}

// SetDebug toggles debug records on l.
func SetDebug(l *logrus.Logger, debug bool) {
	if debug {
		l.SetLevel(logrus.DebugLevel)
		return
	}
	l.SetLevel(logrus.InfoLevel)
}

// Discard returns a logger that drops every record.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
