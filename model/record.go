package model

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// Category is the media kind a review channel collects.
type Category string

const (
	CategoryNovel     Category = "novel"
	CategoryComic     Category = "comic"
	CategoryAnimation Category = "animation"
	CategoryFilm      Category = "film"
)

// Categories lists every category in panel order.
var Categories = []Category{CategoryNovel, CategoryComic, CategoryAnimation, CategoryFilm}

var categoryLabels = map[Category]string{
	CategoryNovel:     "小説",
	CategoryComic:     "漫画",
	CategoryAnimation: "アニメ",
	CategoryFilm:      "映画",
}

// Label returns the display name used in panels and container titles.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// ParseCategory accepts either the identifier or the Japanese label.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for c, label := range categoryLabels {
		if s == string(c) || s == label {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// Record is one reviewed work submitted to the collection.
type Record struct {
	Category    Category  `validate:"required"`
	Subtype     string    `validate:"required,max=50"`
	Genre       string    `validate:"required,max=50"`
	Title       string    `validate:"required,max=100"`
	Author      string    `validate:"max=100"`
	Rating      string    `validate:"required,max=50"`
	Tags        []string  `validate:"max=5,dive,required,max=50"`
	SubmitterID string    `validate:"omitempty,numeric"`
	CreatedAt   time.Time `validate:"-"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func recordValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Normalize trims every free-text field and folds newlines into spaces so the
// record renders onto a single line.
func (r Record) Normalize() Record {
	r.Subtype = foldLine(r.Subtype)
	r.Genre = foldLine(r.Genre)
	r.Title = foldLine(r.Title)
	r.Author = foldLine(r.Author)
	r.Rating = foldLine(r.Rating)
	tags := make([]string, 0, len(r.Tags))
	for _, t := range r.Tags {
		if t = foldLine(t); t != "" {
			tags = append(tags, t)
		}
	}
	r.Tags = tags
	return r
}

// Validate checks field presence and lengths.
func (r Record) Validate() error {
	if !r.Category.Valid() {
		return fmt.Errorf("invalid category %q", r.Category)
	}
	if err := recordValidator().Struct(r); err != nil {
		return fmt.Errorf("invalid record: %w", err)
	}
	return nil
}

func foldLine(s string) string {
	s = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
