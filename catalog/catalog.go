// Package catalog holds the closed selection lists offered by the review
// registration flow.
package catalog

import (
	_ "embed"
	"fmt"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/miyasty1919/discordmaidbot/model"
)

//go:embed catalog.yaml
var rawCatalog []byte

// Option is a selectable choice.
type Option struct {
	Label string `yaml:"label"`
	Emoji string `yaml:"emoji"`
	Value string `yaml:"value"`
}

// Key returns the value stored in a record for this option.
func (o Option) Key() string {
	if o.Value != "" {
		return o.Value
	}
	return o.Label
}

// Catalog is the parsed form of catalog.yaml.
type Catalog struct {
	Subtypes map[model.Category][]Option `yaml:"subtypes"`
	Genres   []Option                    `yaml:"genres"`
	Tags     []Option                    `yaml:"tags"`
	Ratings  []Option                    `yaml:"ratings"`
}

var (
	defaultCatalog *Catalog
	loadErr        error
	loadOnce       sync.Once
)

// Default returns the embedded catalog. It panics if the embedded file is
// malformed, which can only happen at build time.
func Default() *Catalog {
	loadOnce.Do(func() {
		defaultCatalog, loadErr = Parse(rawCatalog)
	})
	if loadErr != nil {
		panic(loadErr)
	}
	return defaultCatalog
}

// Parse decodes and checks a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	for _, cat := range model.Categories {
		if len(c.Subtypes[cat]) == 0 {
			return nil, fmt.Errorf("catalog: no subtypes for %s", cat)
		}
	}
	// Discord select menus cap at 25 options.
	check := map[string][]Option{"genres": c.Genres, "tags": c.Tags, "ratings": c.Ratings}
	for cat, opts := range c.Subtypes {
		check["subtypes."+string(cat)] = opts
	}
	for name, opts := range check {
		if len(opts) == 0 || len(opts) > 25 {
			return nil, fmt.Errorf("catalog: %s has %d options, want 1..25", name, len(opts))
		}
	}
	return &c, nil
}

// HasSubtype reports whether subtype is offered for the category.
func (c *Catalog) HasSubtype(cat model.Category, subtype string) bool {
	return containsKey(c.Subtypes[cat], subtype)
}

// HasGenre reports whether genre is a known genre.
func (c *Catalog) HasGenre(genre string) bool {
	return containsKey(c.Genres, genre)
}

// HasTag reports whether tag is a known tag.
func (c *Catalog) HasTag(tag string) bool {
	return containsKey(c.Tags, tag)
}

// HasRating reports whether rating is one of the rating tiers.
func (c *Catalog) HasRating(rating string) bool {
	return containsKey(c.Ratings, rating)
}

// CheckRecord verifies every closed-list field of r against the catalog.
func (c *Catalog) CheckRecord(r model.Record) error {
	switch {
	case !c.HasSubtype(r.Category, r.Subtype):
		return fmt.Errorf("unknown subtype %q for %s", r.Subtype, r.Category)
	case !c.HasGenre(r.Genre):
		return fmt.Errorf("unknown genre %q", r.Genre)
	case !c.HasRating(r.Rating):
		return fmt.Errorf("unknown rating %q", r.Rating)
	}
	for _, t := range r.Tags {
		if !c.HasTag(t) {
			return fmt.Errorf("unknown tag %q", t)
		}
	}
	return nil
}

func containsKey(opts []Option, key string) bool {
	return slices.ContainsFunc(opts, func(o Option) bool { return o.Key() == key })
}
