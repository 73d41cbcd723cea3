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
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/usbiso/usbiso/pkg/cli"
)

var (
	// ErrMissingContentLength indicates that the server did not report the size
	// of the resource, so the transfer can neither be validated nor resumed.
	ErrMissingContentLength = errors.New("server did not report a content length")
	// ErrShortTransfer indicates that the connection ended before the reported
	// size was written. The partial file is kept and resumed by the next fetch.
	ErrShortTransfer = errors.New("transfer ended before the reported size was reached")
	// ErrUnsupportedScheme indicates that no getter handles the scheme of a URL.
	ErrUnsupportedScheme = errors.New("scheme not supported")
)

// getterOptions are generic parameters to be provided to the getter during instantiation.
//
// Getters may or may not ignore these parameters as they are passed in.
type getterOptions struct {
	insecureSkipVerifyTLS bool
	overwrite             bool
	userAgent             string
	timeout               time.Duration
	transport             *http.Transport
	progress              io.Writer
	log                   logrus.FieldLogger
}

// Option allows specifying various settings configurable by the user for overriding the defaults
// used when performing Fetch operations with the Getter.
type Option func(*getterOptions)

// WithUserAgent sets the request's User-Agent header to use the provided agent name.
func WithUserAgent(userAgent string) Option {
	return func(opts *getterOptions) {
		opts.userAgent = userAgent
	}
}

// WithInsecureSkipVerifyTLS determines if a TLS Certificate will be checked
func WithInsecureSkipVerifyTLS(insecureSkipVerifyTLS bool) Option {
	return func(opts *getterOptions) {
		opts.insecureSkipVerifyTLS = insecureSkipVerifyTLS
	}
}

// WithTimeout sets the timeout for requests. Zero means no timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(opts *getterOptions) {
		opts.timeout = timeout
	}
}

// WithTransport sets the http.Transport to allow overwriting the HTTPGetter default.
func WithTransport(transport *http.Transport) Option {
	return func(opts *getterOptions) {
		opts.transport = transport
	}
}

// WithOverwrite discards any local copy of the file instead of resuming it.
func WithOverwrite() Option {
	return func(opts *getterOptions) {
		opts.overwrite = true
	}
}

// WithProgress writes human readable transfer progress to out.
func WithProgress(out io.Writer) Option {
	return func(opts *getterOptions) {
		opts.progress = out
	}
}

// WithLogger sets the logger used for diagnostic records.
func WithLogger(log logrus.FieldLogger) Option {
	return func(opts *getterOptions) {
		opts.log = log
	}
}

// Result describes a completed fetch.
type Result struct {
	// URL is the URL that served the content, after redirects were followed.
	URL *url.URL
	// Path is the local file the content was written to.
	Path string
	// Size is the total size of the resource as reported by the server.
	Size int64
	// Transferred is the number of bytes received by this fetch. It is smaller
	// than Size when a partial file was resumed.
	Transferred int64
}

// Getter is an interface to support fetching a URL into a local directory.
type Getter interface {
	// Fetch downloads href into the directory dest.
	Fetch(ctx context.Context, href, dest string, options ...Option) (*Result, error)
}

// Constructor is the function for every getter which creates a specific instance
// according to the configuration
type Constructor func(options ...Option) (Getter, error)

// Provider represents any getter and the schemes that it supports.
//
// For example, an HTTP provider may provide one getter that handles both
// 'http' and 'https' schemes.
type Provider struct {
	Schemes []string
	New     Constructor
}

// Provides returns true if the given scheme is supported by this Provider.
func (p Provider) Provides(scheme string) bool {
	for _, i := range p.Schemes {
		if i == scheme {
			return true
		}
	}
	return false
}

// Providers is a collection of Provider objects.
type Providers []Provider

// ByScheme returns a Getter that handles the given scheme.
//
// If no provider handles this scheme, this will return an error.
func (p Providers) ByScheme(scheme string) (Getter, error) {
	for _, pp := range p {
		if pp.Provides(scheme) {
			return pp.New()
		}
	}
	return nil, errors.Wrapf(ErrUnsupportedScheme, "%q", scheme)
}

// ForURL returns a Getter that handles the scheme of href.
func (p Providers) ForURL(href string) (Getter, error) {
	u, err := url.Parse(href)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid URL %q", href)
	}
	return p.ByScheme(u.Scheme)
}

// Getters returns the built-in providers. extraOpts are applied to every
// getter they construct.
func Getters(extraOpts ...Option) Providers {
	return Providers{
		Provider{
			Schemes: []string{"http", "https"},
			New: func(options ...Option) (Getter, error) {
				options = append(options, extraOpts...)
				return NewHTTPGetter(options...)
			},
		},
	}
}

// All returns the built-in providers configured from settings.
func All(settings *cli.EnvSettings) Providers {
	opts := []Option{
		WithTimeout(settings.Timeout),
		WithInsecureSkipVerifyTLS(settings.InsecureSkipTLSverify),
	}
	if settings.UserAgent != "" {
		opts = append(opts, WithUserAgent(settings.UserAgent))
	}
	return Getters(opts...)
}
