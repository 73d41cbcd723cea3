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
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strconv"
	"strings"
	"sync"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/usbiso/usbiso/internal/logging"
	"github.com/usbiso/usbiso/internal/version"
)

// HTTPGetter is the default HTTP(/S) backend handler.
//
// It writes the resource into a file named after the last path segment of the
// URL that finally served it and resumes partial files with byte-range
// requests.
type HTTPGetter struct {
	opts      getterOptions
	transport *http.Transport
	once      sync.Once
}

// NewHTTPGetter constructs a valid http/https client as a Getter
func NewHTTPGetter(options ...Option) (Getter, error) {
	var client HTTPGetter

	for _, opt := range options {
		opt(&client.opts)
	}

	return &client, nil
}

// Fetch downloads href into the directory dest and returns where it landed.
//
// On error the partial file is left in place so a later Fetch can resume it.
func (g *HTTPGetter) Fetch(ctx context.Context, href, dest string, options ...Option) (*Result, error) {
	// Create a local copy of options to avoid data races when Fetch is called concurrently
	opts := g.opts
	for _, opt := range options {
		opt(&opts)
	}
	if opts.log == nil {
		opts.log = logging.Discard()
	}
	return g.fetch(ctx, href, dest, opts)
}

func (g *HTTPGetter) fetch(ctx context.Context, href, dest string, opts getterOptions) (*Result, error) {
	client := g.httpClient(opts)

	resp, err := g.get(ctx, client, href, opts, 0)
	if err != nil {
		return nil, err
	}
	defer func() { resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("failed to fetch %s : %s", href, resp.Status)
	}

	resolved := resp.Request.URL
	total := resp.ContentLength
	if total < 0 {
		return nil, errors.Wrapf(ErrMissingContentLength, "cannot download %s", resolved)
	}

	name, err := fileName(resolved)
	if err != nil {
		return nil, err
	}
	target, err := securejoin.SecureJoin(dest, name)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot place %s in %s", name, dest)
	}

	log := opts.log.WithFields(logrus.Fields{"url": resolved.String(), "path": target})
	result := &Result{URL: resolved, Path: target, Size: total}

	var offset int64
	if fi, err := os.Stat(target); err == nil {
		if fi.IsDir() {
			return nil, errors.Errorf("%q is a directory", target)
		}
		if !opts.overwrite {
			offset = fi.Size()
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	flag := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	switch {
	case offset == total && offset > 0:
		log.Debug("file is already complete")
		return result, nil
	case offset > total:
		log.WithField("offset", offset).Warn("local file is larger than the remote resource, downloading again")
		offset = 0
	case offset > 0:
		// The open response carries the whole body. Ask the resolved URL
		// for the remainder only.
		resp.Body.Close()
		log.WithField("offset", offset).Debug("resuming partial download")
		ranged, err := g.get(ctx, client, resolved.String(), opts, offset)
		if err != nil {
			return nil, err
		}
		resp = ranged
		switch resp.StatusCode {
		case http.StatusPartialContent:
			if err := checkContentRange(resp.Header.Get("Content-Range"), offset, total); err != nil {
				return nil, errors.Wrapf(err, "cannot resume %s", resolved)
			}
			flag = os.O_WRONLY | os.O_APPEND
		case http.StatusOK:
			log.Debug("server ignored the range request, downloading again")
			if resp.ContentLength < 0 {
				return nil, errors.Wrapf(ErrMissingContentLength, "cannot download %s", resolved)
			}
			offset = 0
			total = resp.ContentLength
			result.Size = total
		default:
			return nil, errors.Errorf("failed to resume %s : %s", resolved, resp.Status)
		}
	}

	f, err := os.OpenFile(target, flag, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open %s", target)
	}
	defer f.Close()

	if flag&os.O_APPEND != 0 {
		end, err := f.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot seek in %s", target)
		}
		if end != offset {
			return nil, errors.Errorf("%s changed size while resuming", target)
		}
	}

	var body io.Reader = resp.Body
	var p *progress
	if opts.progress != nil {
		p = newProgress(opts.progress, name, offset, total)
		body = p.reader(resp.Body)
	}
	n, err := io.Copy(f, body)
	result.Transferred = n
	if p != nil {
		p.finish(err == nil && offset+n == total)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "download of %s interrupted after %d of %d bytes", resolved, offset+n, total)
	}
	if offset+n != total {
		return nil, errors.Wrapf(ErrShortTransfer, "%s: got %d of %d bytes", resolved, offset+n, total)
	}
	if err := f.Close(); err != nil {
		return nil, errors.Wrapf(err, "cannot write %s", target)
	}

	log.WithField("bytes", n).Debug("download complete")
	return result, nil
}

// get issues a GET for href. A positive offset requests the bytes from offset
// to the end of the resource.
func (g *HTTPGetter) get(ctx context.Context, client *http.Client, href string, opts getterOptions, offset int64) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, href, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", version.GetUserAgent())
	if opts.userAgent != "" {
		req.Header.Set("User-Agent", opts.userAgent)
	}
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch %s", href)
	}
	return resp, nil
}

func (g *HTTPGetter) httpClient(opts getterOptions) *http.Client {
	if opts.transport != nil {
		return &http.Client{
			Transport: opts.transport,
			Timeout:   opts.timeout,
		}
	}

	if opts.insecureSkipVerifyTLS {
		// Create a new transport for custom TLS to avoid sharing it with verified clients
		return &http.Client{
			Transport: &http.Transport{
				DisableCompression: true,
				Proxy:              http.ProxyFromEnvironment,
				TLSClientConfig:    &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
			},
			Timeout: opts.timeout,
		}
	}

	// Use shared transport for default case.
	// Compression stays off so Content-Length describes the bytes on disk.
	g.once.Do(func() {
		g.transport = &http.Transport{
			DisableCompression: true,
			Proxy:              http.ProxyFromEnvironment,
			TLSClientConfig:    &tls.Config{},
		}
	})

	return &http.Client{
		Transport: g.transport,
		Timeout:   opts.timeout,
	}
}

// fileName derives the local file name from the last path segment of u.
func fileName(u *url.URL) (string, error) {
	name := path.Base(u.Path)
	switch name {
	case "", ".", "..", "/":
		return "", errors.Errorf("cannot derive a file name from %s", u)
	}
	return name, nil
}

// checkContentRange validates a "bytes start-end/size" header against the
// requested offset and the size reported by the first response.
func checkContentRange(header string, offset, total int64) error {
	rangeSpec := strings.TrimPrefix(header, "bytes ")
	if rangeSpec == header {
		return errors.Errorf("unexpected Content-Range %q", header)
	}
	rng, size, ok := strings.Cut(rangeSpec, "/")
	if !ok {
		return errors.Errorf("unexpected Content-Range %q", header)
	}
	start, _, ok := strings.Cut(rng, "-")
	if !ok {
		return errors.Errorf("unexpected Content-Range %q", header)
	}
	s, err := strconv.ParseInt(start, 10, 64)
	if err != nil || s != offset {
		return errors.Errorf("server resumed at %q, wanted byte %d", start, offset)
	}
	if size != "*" {
		n, err := strconv.ParseInt(size, 10, 64)
		if err != nil || n != total {
			return errors.Errorf("resource size changed from %d to %s", total, size)
		}
	}
	return nil
}
