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

package getter

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usbiso/usbiso/internal/version"
)

// isoServer serves a fixed body under /isos/<name> with real byte-range
// support and records the Range headers it sees.
type isoServer struct {
	*httptest.Server
	body []byte

	mu     sync.Mutex
	ranges []string
	// truncateOnce makes the next full response stop after this many bytes.
	truncateOnce int
}

func newISOServer(t *testing.T, body []byte) *isoServer {
	t.Helper()
	s := &isoServer{body: body}
	mux := http.NewServeMux()
	mux.HandleFunc("/isos/", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.ranges = append(s.ranges, r.Header.Get("Range"))
		cut := s.truncateOnce
		s.truncateOnce = 0
		s.mu.Unlock()

		if cut > 0 {
			w.Header().Set("Content-Length", strconv.Itoa(len(s.body)))
			w.WriteHeader(http.StatusOK)
			w.Write(s.body[:cut])
			return
		}
		http.ServeContent(w, r, filepath.Base(r.URL.Path), time.Time{}, bytes.NewReader(s.body))
	})
	mux.HandleFunc("/latest", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/isos/distro-1.2.3.iso", http.StatusFound)
	})
	mux.HandleFunc("/norange/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(s.body)))
		w.Write(s.body)
	})
	mux.HandleFunc("/chunked/", func(w http.ResponseWriter, r *http.Request) {
		w.Write(s.body[:1])
		w.(http.Flusher).Flush()
		w.Write(s.body[1:])
	})
	mux.HandleFunc("/missing/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func (s *isoServer) seenRanges() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ranges...)
}

func testBody(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i % 251)
	}
	return b
}

func fetch(t *testing.T, href, dest string, options ...Option) (*Result, error) {
	t.Helper()
	g, err := NewHTTPGetter()
	require.NoError(t, err)
	return g.Fetch(context.Background(), href, dest, options...)
}

func TestHTTPGetter(t *testing.T) {
	transport := &http.Transport{}
	g, err := NewHTTPGetter(
		WithUserAgent("Groot"),
		WithInsecureSkipVerifyTLS(true),
		WithTimeout(5*time.Second),
		WithTransport(transport),
		WithOverwrite(),
	)
	require.NoError(t, err)

	hg, ok := g.(*HTTPGetter)
	require.True(t, ok, "expected NewHTTPGetter to produce an *HTTPGetter")
	assert.Equal(t, "Groot", hg.opts.userAgent)
	assert.True(t, hg.opts.insecureSkipVerifyTLS)
	assert.Equal(t, 5*time.Second, hg.opts.timeout)
	assert.Same(t, transport, hg.opts.transport)
	assert.True(t, hg.opts.overwrite)
}

func TestFetchFresh(t *testing.T) {
	body := testBody(64 * 1024)
	srv := newISOServer(t, body)
	dest := t.TempDir()

	res, err := fetch(t, srv.URL+"/isos/distro-1.2.3.iso", dest)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dest, "distro-1.2.3.iso"), res.Path)
	assert.Equal(t, int64(len(body)), res.Size)
	assert.Equal(t, int64(len(body)), res.Transferred)

	got, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, body, got)
	assert.Equal(t, []string{""}, srv.seenRanges())
}

func TestFetchUserAgent(t *testing.T) {
	var agents []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agents = append(agents, r.UserAgent())
		fmt.Fprint(w, "abc")
	}))
	defer srv.Close()

	_, err := fetch(t, srv.URL+"/a.iso", t.TempDir())
	require.NoError(t, err)
	_, err = fetch(t, srv.URL+"/b.iso", t.TempDir(), WithUserAgent("I am Groot"))
	require.NoError(t, err)

	assert.Equal(t, []string{version.GetUserAgent(), "I am Groot"}, agents)
}

func TestFetchFollowsRedirects(t *testing.T) {
	body := testBody(1000)
	srv := newISOServer(t, body)
	dest := t.TempDir()

	res, err := fetch(t, srv.URL+"/latest", dest)
	require.NoError(t, err)

	assert.Equal(t, srv.URL+"/isos/distro-1.2.3.iso", res.URL.String())
	assert.Equal(t, filepath.Join(dest, "distro-1.2.3.iso"), res.Path)
}

func TestFetchResume(t *testing.T) {
	body := testBody(100 * 1024)
	srv := newISOServer(t, body)
	dest := t.TempDir()
	href := srv.URL + "/isos/distro-1.2.3.iso"

	// The first transfer is cut off after k bytes.
	const k = 12345
	srv.truncateOnce = k
	_, err := fetch(t, href, dest)
	require.Error(t, err)

	partial, err := os.ReadFile(filepath.Join(dest, "distro-1.2.3.iso"))
	require.NoError(t, err)
	require.Equal(t, body[:k], partial)

	res, err := fetch(t, href, dest)
	require.NoError(t, err)
	assert.Equal(t, int64(len(body)-k), res.Transferred)

	got, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, len(body), len(got))
	assert.Equal(t, body, got)

	assert.Equal(t, []string{"", "", fmt.Sprintf("bytes=%d-", k)}, srv.seenRanges())
}

func TestFetchCompleteFileIsNotTransferred(t *testing.T) {
	body := testBody(2048)
	srv := newISOServer(t, body)
	dest := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dest, "distro-1.2.3.iso"), body, 0644))

	res, err := fetch(t, srv.URL+"/isos/distro-1.2.3.iso", dest)
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Transferred)
	assert.Equal(t, []string{""}, srv.seenRanges())
}

func TestFetchOversizedLocalFileRestarts(t *testing.T) {
	body := testBody(2048)
	srv := newISOServer(t, body)
	dest := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dest, "distro-1.2.3.iso"), testBody(4096), 0644))

	res, err := fetch(t, srv.URL+"/isos/distro-1.2.3.iso", dest)
	require.NoError(t, err)

	got, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, body, got)
}

func TestFetchServerIgnoresRange(t *testing.T) {
	body := testBody(4096)
	srv := newISOServer(t, body)
	dest := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dest, "distro.iso"), body[:100], 0644))

	res, err := fetch(t, srv.URL+"/norange/distro.iso", dest)
	require.NoError(t, err)

	got, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, body, got)
}

func TestFetchOverwrite(t *testing.T) {
	body := []byte("a948904f2f0f479b8f8197694b30184b0d2ed1c1cd2a1ec0fb85d299a192a447  distro.iso\n")
	srv := newISOServer(t, body)
	dest := t.TempDir()
	// a stale digest file of a different length must not be appended to
	require.NoError(t, os.WriteFile(filepath.Join(dest, "SHA256SUMS"), []byte("stale"), 0644))

	res, err := fetch(t, srv.URL+"/isos/SHA256SUMS", dest, WithOverwrite())
	require.NoError(t, err)

	got, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, body, got)
	assert.Equal(t, []string{""}, srv.seenRanges())
}

func TestFetchMissingContentLength(t *testing.T) {
	srv := newISOServer(t, testBody(8192))

	_, err := fetch(t, srv.URL+"/chunked/distro.iso", t.TempDir())
	assert.ErrorIs(t, err, ErrMissingContentLength)
}

func TestFetchNotFound(t *testing.T) {
	srv := newISOServer(t, testBody(10))
	dest := t.TempDir()

	_, err := fetch(t, srv.URL+"/missing/distro.iso", dest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")

	_, statErr := os.Stat(filepath.Join(dest, "distro.iso"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestFetchNoFileName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "index")
	}))
	defer srv.Close()

	_, err := fetch(t, srv.URL+"/", t.TempDir())
	assert.Error(t, err)
}

func TestFetchDestinationUnwritable(t *testing.T) {
	srv := newISOServer(t, testBody(10))

	_, err := fetch(t, srv.URL+"/isos/distro.iso", filepath.Join(t.TempDir(), "does", "not", "exist"))
	assert.Error(t, err)
}

func TestFetchTLS(t *testing.T) {
	body := testBody(512)
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, "distro.iso", time.Time{}, bytes.NewReader(body))
	}))
	defer srv.Close()

	_, err := fetch(t, srv.URL+"/distro.iso", t.TempDir())
	assert.Error(t, err, "expected an untrusted certificate to be rejected")

	res, err := fetch(t, srv.URL+"/distro.iso", t.TempDir(), WithInsecureSkipVerifyTLS(true))
	require.NoError(t, err)
	assert.Equal(t, int64(len(body)), res.Size)
}

func TestFetchCancelled(t *testing.T) {
	srv := newISOServer(t, testBody(10))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g, err := NewHTTPGetter()
	require.NoError(t, err)
	_, err = g.Fetch(ctx, srv.URL+"/isos/distro.iso", t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetchReportsProgress(t *testing.T) {
	body := testBody(4096)
	srv := newISOServer(t, body)
	out := &bytes.Buffer{}

	_, err := fetch(t, srv.URL+"/isos/distro.iso", t.TempDir(), WithProgress(out))
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Downloaded distro.iso (4.0 KiB")
}

func TestCheckContentRange(t *testing.T) {
	tests := []struct {
		header  string
		offset  int64
		total   int64
		wantErr bool
	}{
		{"bytes 100-199/200", 100, 200, false},
		{"bytes 100-199/*", 100, 200, false},
		{"bytes 0-199/200", 100, 200, true},
		{"bytes 100-299/300", 100, 200, true},
		{"items 100-199/200", 100, 200, true},
		{"", 100, 200, true},
	}
	for _, tt := range tests {
		err := checkContentRange(tt.header, tt.offset, tt.total)
		if tt.wantErr {
			assert.Error(t, err, tt.header)
		} else {
			assert.NoError(t, err, tt.header)
		}
	}
}
