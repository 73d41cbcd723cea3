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

/*
Package catalog maps logical ISO names to the URLs they are downloaded from.

A catalog is read once and never modified. The default catalog is compiled
into the binary; a user supplied file in the same JSON (or YAML) shape may
replace it.
*/
package catalog

import (
	_ "embed"
	"net/url"
	"os"
	"strings"

	"github.com/gobwas/glob"
	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
	"sigs.k8s.io/yaml"
)

//go:embed catalog.json
var defaultCatalog []byte

const schema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["isos"],
  "properties": {
    "isos": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "iso_url", "hash_url"],
        "properties": {
          "name": {"type": "string", "pattern": "^[A-Za-z0-9][A-Za-z0-9._-]*$"},
          "display_name": {"type": "string"},
          "iso_url": {"type": "string", "minLength": 1},
          "hash_url": {"type": "string", "minLength": 1}
        }
      }
    }
  }
}`

// Entry describes one ISO known to the catalog.
type Entry struct {
	// Name is the logical name users refer to the ISO by.
	Name string `json:"name"`
	// DisplayName is a human friendly title.
	DisplayName string `json:"display_name,omitempty"`
	// ISOURL is where the ISO is downloaded from.
	ISOURL string `json:"iso_url"`
	// HashURL is where the digest file for the ISO is downloaded from.
	HashURL string `json:"hash_url"`
}

// Catalog is an immutable, ordered set of entries with unique names.
type Catalog struct {
	entries []*Entry
	byName  map[string]*Entry
}

type catalogFile struct {
	ISOs []*Entry `json:"isos"`
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Load(defaultCatalog)
}

// LoadFile reads a catalog from path.
func LoadFile(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not load catalog %s", path)
	}
	c, err := Load(b)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid catalog %s", path)
	}
	return c, nil
}

// Load parses a catalog document. JSON and YAML are both accepted.
func Load(data []byte) (*Catalog, error) {
	doc, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, errors.Wrap(err, "could not parse catalog")
	}
	if err := validate(doc); err != nil {
		return nil, err
	}

	var f catalogFile
	if err := yaml.Unmarshal(doc, &f); err != nil {
		return nil, errors.Wrap(err, "could not parse catalog")
	}

	c := &Catalog{byName: make(map[string]*Entry, len(f.ISOs))}
	for _, e := range f.ISOs {
		if _, ok := c.byName[e.Name]; ok {
			return nil, errors.Errorf("catalog lists %q more than once", e.Name)
		}
		for _, u := range []string{e.ISOURL, e.HashURL} {
			if p, err := url.Parse(u); err != nil || !p.IsAbs() || p.Host == "" {
				return nil, errors.Errorf("catalog entry %q has an invalid URL %q", e.Name, u)
			}
		}
		if e.DisplayName == "" {
			e.DisplayName = e.Name
		}
		c.entries = append(c.entries, e)
		c.byName[e.Name] = e
	}
	return c, nil
}

func validate(doc []byte) error {
	result, err := gojsonschema.Validate(gojsonschema.NewStringLoader(schema), gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return errors.Wrap(err, "could not validate catalog")
	}
	if !result.Valid() {
		var sb strings.Builder
		sb.WriteString("catalog does not match its schema:\n")
		for _, desc := range result.Errors() {
			sb.WriteString("- " + desc.String() + "\n")
		}
		return errors.New(strings.TrimSuffix(sb.String(), "\n"))
	}
	return nil
}

// Lookup returns a copy of the entry called name.
func (c *Catalog) Lookup(name string) (*Entry, bool) {
	e, ok := c.byName[name]
	if !ok {
		return nil, false
	}
	cp := *e
	return &cp, true
}

// Entries returns copies of every entry in catalog order.
func (c *Catalog) Entries() []*Entry {
	out := make([]*Entry, 0, len(c.entries))
	for _, e := range c.entries {
		cp := *e
		out = append(out, &cp)
	}
	return out
}

// Search returns the entries whose name matches the glob pattern. An empty
// pattern matches everything.
func (c *Catalog) Search(pattern string) ([]*Entry, error) {
	if pattern == "" {
		return c.Entries(), nil
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid pattern %q", pattern)
	}
	var found []*Entry
	for _, e := range c.entries {
		if g.Match(e.Name) {
			cp := *e
			found = append(found, &cp)
		}
	}
	return found, nil
}
