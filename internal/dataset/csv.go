package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// CSVSource reads a CSV file with a header row.
type CSVSource struct {
	Path           string
	TextColumn     string
	CategoryColumn string
}

func NewCSVSource(path, textColumn, categoryColumn string) *CSVSource {
	if textColumn == "" {
		textColumn = DefaultTextColumn
	}
	if categoryColumn == "" {
		categoryColumn = DefaultCategoryColumn
	}
	return &CSVSource{Path: path, TextColumn: textColumn, CategoryColumn: categoryColumn}
}

func (s *CSVSource) String() string {
	return s.Path
}

func (s *CSVSource) Load(ctx context.Context) (*Dataset, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return s.read(ctx, f)
}

func (s *CSVSource) read(ctx context.Context, r io.Reader) (*Dataset, error) {
	cr, columns, err := s.header(r)
	if err != nil {
		return nil, err
	}
	textIdx, catIdx, err := s.labelColumns(columns)
	if err != nil {
		return nil, err
	}

	b := &builder{src: s.Path}
	for row := 2; ; row++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.Path, err)
		}
		b.add(row, field(rec, textIdx), field(rec, catIdx))
	}
	return b.finish()
}

// header reads the header row and maps each column name to its index.
func (s *CSVSource) header(r io.Reader) (*csv.Reader, map[string]int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("%s: missing header row", s.Path)
		}
		return nil, nil, fmt.Errorf("%s: read header: %w", s.Path, err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := columns[name]; !dup {
			columns[name] = i
		}
	}
	return cr, columns, nil
}

func (s *CSVSource) labelColumns(columns map[string]int) (textIdx, catIdx int, err error) {
	textIdx, ok := columns[s.TextColumn]
	if !ok {
		return 0, 0, fmt.Errorf("%s: column %q not found", s.Path, s.TextColumn)
	}
	catIdx, ok = columns[s.CategoryColumn]
	if !ok {
		return 0, 0, fmt.Errorf("%s: column %q not found", s.Path, s.CategoryColumn)
	}
	return textIdx, catIdx, nil
}

// field returns rec[i], or "" when i is out of range or negative.
func field(rec []string, i int) string {
	if i >= 0 && i < len(rec) {
		return rec[i]
	}
	return ""
}
