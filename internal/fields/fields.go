// Package fields is the employment field catalog. The ranking calculator asks
// it whether a field's pool is shared across genders.
package fields

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed default_fields.yaml
var defaultCatalog []byte

type Field struct {
	Code         string `yaml:"code" json:"code"`
	Title        string `yaml:"title" json:"title"`
	GenderShared bool   `yaml:"gender_shared" json:"gender_shared"`
}

type Catalog struct {
	mu     sync.RWMutex
	fields map[string]Field
}

// Default returns the catalog shipped with the binary.
func Default() (*Catalog, error) {
	return Parse(bytes.NewReader(defaultCatalog))
}

// Load reads a catalog from a YAML file. An empty path means Default.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open field catalog: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

func Parse(r io.Reader) (*Catalog, error) {
	var doc struct {
		Fields []Field `yaml:"fields"`
	}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode field catalog: %w", err)
	}
	c := New()
	for _, f := range doc.Fields {
		if f.Code == "" {
			return nil, fmt.Errorf("field %q has no code", f.Title)
		}
		if _, dup := c.fields[f.Code]; dup {
			return nil, fmt.Errorf("duplicate field code %q", f.Code)
		}
		c.fields[f.Code] = f
	}
	return c, nil
}

func New(fields ...Field) *Catalog {
	c := &Catalog{fields: make(map[string]Field, len(fields))}
	for _, f := range fields {
		c.fields[f.Code] = f
	}
	return c
}

func (c *Catalog) Get(code string) (Field, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.fields[code]
	return f, ok
}

// IsGenderShared reports whether ranking for code pools both genders together.
// Unknown fields are not shared.
func (c *Catalog) IsGenderShared(code string) bool {
	f, ok := c.Get(code)
	return ok && f.GenderShared
}
