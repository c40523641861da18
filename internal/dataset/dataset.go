// Package dataset loads labeled threat descriptions for training.
package dataset

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"threatcat/internal/models"
	"threatcat/internal/util"
)

const (
	DefaultTextColumn     = "Cleaned Threat Description"
	DefaultCategoryColumn = "Threat Category"
)

// Example is one labeled description.
type Example struct {
	Text     string
	Category string
}

// A Dataset is the ordered set of usable examples plus the number of
// rows dropped because their text or category was empty.
type Dataset struct {
	Examples []Example
	Skipped  int
}

// Texts returns the example texts in order.
func (d *Dataset) Texts() []string {
	res := make([]string, len(d.Examples))
	for i, e := range d.Examples {
		res[i] = e.Text
	}
	return res
}

// Categories returns the example categories in order.
func (d *Dataset) Categories() []string {
	res := make([]string, len(d.Examples))
	for i, e := range d.Examples {
		res[i] = e.Category
	}
	return res
}

// CategoryCounts returns the number of examples per category.
func (d *Dataset) CategoryCounts() map[string]int {
	res := map[string]int{}
	for _, e := range d.Examples {
		res[e.Category]++
	}
	return res
}

// Source loads a Dataset in one pass.
type Source interface {
	Load(ctx context.Context) (*Dataset, error)
	String() string
}

// builder cleans rows as they are read and keeps the rejects count.
type builder struct {
	src string
	ds  Dataset
}

func (b *builder) add(row int, text, category string) {
	text = util.CleanText(text, fmt.Sprintf("%s row %d", b.src, row))
	category = util.CleanText(category, fmt.Sprintf("%s row %d", b.src, row))
	if text == "" || category == "" {
		b.ds.Skipped++
		log.Debugf("%s: skipping row %d with empty text or category", b.src, row)
		return
	}
	b.ds.Examples = append(b.ds.Examples, Example{Text: text, Category: category})
}

func (b *builder) finish() (*Dataset, error) {
	if b.ds.Skipped > 0 {
		log.Warnf("%s: skipped %d row(s) with empty text or category", b.src, b.ds.Skipped)
	}
	if len(b.ds.Examples) == 0 {
		return nil, fmt.Errorf("%w: %s has no usable rows", models.ErrInvalidCorpus, b.src)
	}
	log.Infof("Loaded %d examples in %d categories from %s", len(b.ds.Examples), len(b.ds.CategoryCounts()), b.src)
	return &b.ds, nil
}
