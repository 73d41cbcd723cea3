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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usbiso/usbiso/pkg/cli"
)

func TestProvider(t *testing.T) {
	p := Provider{
		[]string{"one", "three"},
		func(_ ...Option) (Getter, error) { return nil, nil },
	}

	if !p.Provides("three") {
		t.Error("Expected provider to provide three")
	}
}

func TestProviders(t *testing.T) {
	ps := Providers{
		{[]string{"one", "three"}, func(_ ...Option) (Getter, error) { return nil, nil }},
		{[]string{"two", "four"}, func(_ ...Option) (Getter, error) { return nil, nil }},
	}

	if _, err := ps.ByScheme("one"); err != nil {
		t.Error(err)
	}
	if _, err := ps.ByScheme("four"); err != nil {
		t.Error(err)
	}

	_, err := ps.ByScheme("five")
	assert.ErrorIs(t, err, ErrUnsupportedScheme)
}

func TestGetters(t *testing.T) {
	all := Getters(WithUserAgent("test"))

	for _, scheme := range []string{"http", "https"} {
		g, err := all.ByScheme(scheme)
		require.NoError(t, err)
		hg, ok := g.(*HTTPGetter)
		require.True(t, ok, "expected an *HTTPGetter for %s", scheme)
		assert.Equal(t, "test", hg.opts.userAgent)
	}

	_, err := all.ForURL("ftp://mirror.example.com/debian.iso")
	assert.ErrorIs(t, err, ErrUnsupportedScheme)

	_, err = all.ForURL("https://releases.ubuntu.com/22.04/ubuntu-22.04.3-desktop-amd64.iso")
	assert.NoError(t, err)
}

func TestAll(t *testing.T) {
	settings := cli.New()
	settings.Timeout = 90 * time.Second
	settings.UserAgent = "mirror-test/1.0"
	settings.InsecureSkipTLSverify = true

	g, err := All(settings).ByScheme("https")
	require.NoError(t, err)
	hg := g.(*HTTPGetter)
	assert.Equal(t, 90*time.Second, hg.opts.timeout)
	assert.Equal(t, "mirror-test/1.0", hg.opts.userAgent)
	assert.True(t, hg.opts.insecureSkipVerifyTLS)
}
