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

package getter

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/cheggaaa/pb"
	"github.com/dustin/go-humanize"
	"golang.org/x/term"
)

const (
	interactiveInterval = 200 * time.Millisecond
	plainInterval       = 5 * time.Second
)

// progress reports the transfer of one file on a progress bar.
type progress struct {
	out    io.Writer
	name   string
	bar    *pb.ProgressBar
	offset int64
	total  int64
}

// newProgress returns a bar for a transfer of total bytes, offset of which are
// already on disk. Terminals get a redrawn line, other writers one line per
// refresh.
func newProgress(out io.Writer, name string, offset, total int64) *progress {
	bar := pb.New64(total).SetUnits(pb.U_BYTES).Prefix(name + " ")
	bar.ShowSpeed = true
	bar.ShowTimeLeft = true
	bar.ShowElapsedTime = true
	bar.ShowFinalTime = false

	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bar.Output = out
		bar.SetRefreshRate(interactiveInterval)
	} else {
		bar.NotPrint = true
		bar.Callback = func(line string) {
			fmt.Fprintln(out, strings.TrimSpace(line))
		}
		bar.SetRefreshRate(plainInterval)
	}
	// Set before Start so the speed only counts bytes of this transfer.
	bar.Set64(offset)
	return &progress{out: out, name: name, bar: bar, offset: offset, total: total}
}

// reader starts the bar and returns r wrapped to advance it. Reads stop at the
// size reported by the server.
func (p *progress) reader(r io.Reader) io.Reader {
	p.bar.Start()
	return p.bar.NewProxyReader(io.LimitReader(r, p.total-p.offset))
}

func (p *progress) finish(ok bool) {
	p.bar.Finish()
	if ok {
		fmt.Fprintf(p.out, "Downloaded %s (%s)\n", p.name, humanize.IBytes(uint64(p.total)))
		return
	}
	fmt.Fprintf(p.out, "Stopped %s at %s of %s\n", p.name, humanize.IBytes(uint64(p.bar.Get())), humanize.IBytes(uint64(p.total)))
}
