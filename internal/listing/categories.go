package listing

import (
	_ "embed"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed categories.toml
var categoriesTOML []byte

// OtherCategory is where unrecognized backend categories end up.
var OtherCategory = Category{Slug: "other", Label: "Other"}

// Category is a normalized category slug with its display label.
type Category struct {
	Slug  string `json:"slug"`
	Label string `json:"label"`
}

// Catalog maps backend category strings to known categories per kind.
type Catalog struct {
	byKind map[Kind]map[string]string
}

// NewCatalog parses the embedded category definitions.
func NewCatalog() (*Catalog, error) {
	return ParseCatalog(categoriesTOML)
}

// ParseCatalog reads a catalog from TOML with one table per kind.
func ParseCatalog(data []byte) (*Catalog, error) {
	var raw map[string]map[string]string
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing categories: %w", err)
	}

	c := &Catalog{byKind: make(map[Kind]map[string]string, len(raw))}
	for kind, labels := range raw {
		k, err := ParseKind(kind)
		if err != nil {
			return nil, fmt.Errorf("parsing categories: %w", err)
		}
		c.byKind[k] = labels
	}
	return c, nil
}

// MustCatalog is NewCatalog for package-level defaults; the embedded file is
// part of the binary so a parse error is a build defect.
func MustCatalog() *Catalog {
	c, err := NewCatalog()
	if err != nil {
		panic(err)
	}
	return c
}

// Resolve normalizes a backend category string for kind. Matching ignores
// case and surrounding space; unknown or empty values resolve to
// OtherCategory.
func (c *Catalog) Resolve(kind Kind, raw string) Category {
	slug := strings.ToLower(strings.TrimSpace(raw))
	if slug == "" {
		return OtherCategory
	}
	if label, ok := c.byKind[kind][slug]; ok {
		return Category{Slug: slug, Label: label}
	}
	return OtherCategory
}

// Known reports the category slugs defined for kind in sorted order.
func (c *Catalog) Known(kind Kind) []string {
	return slices.Sorted(maps.Keys(c.byKind[kind]))
}
