package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"storefront/internal/backend"
	"storefront/internal/domain"
)

// CategoryWriter creates categories on the backend.
type CategoryWriter interface {
	CreateCategory(ctx context.Context, in backend.CreateCategoryInput) (*domain.Category, error)
}

// CSVImporter reads a category CSV and creates one category per row. It
// understands plain headers (name, slug) and localized exports (name.en,
// slug.en, key).
type CSVImporter struct {
	reader *csv.Reader
	writer CategoryWriter
}

func NewCSVImporter(r io.Reader, w CategoryWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	return &CSVImporter{reader: csvr, writer: w}
}

// Run creates every category and returns how many were created. Rows with
// neither a name nor a key are skipped; a slug seen twice is created once.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := firstColumn(index, "name", "name.en", "key", "slug", "slug.en"); !ok {
		return 0, errors.New("csv has no name, key or slug column")
	}

	seen := make(map[string]bool)
	imported := 0
	for line := 2; ; line++ {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row %d: %w", line, err)
		}

		in, ok := parseRow(record, index)
		if !ok || seen[in.Slug] {
			continue
		}
		seen[in.Slug] = true

		if _, err := i.writer.CreateCategory(ctx, in); err != nil {
			return imported, fmt.Errorf("create category %q (row %d): %w", in.Name, line, err)
		}
		imported++
	}
	return imported, nil
}

func parseRow(record []string, index map[string]int) (backend.CreateCategoryInput, bool) {
	name := pick(record, index, "name", "name.en")
	key := pick(record, index, "key")
	slug := pick(record, index, "slug", "slug.en")

	if slug == "" {
		slug = key
	}
	if slug == "" && name != "" {
		slug = slugify(name)
	}
	if name == "" && slug != "" {
		name = titleFromSlug(slug)
	}
	if name == "" {
		return backend.CreateCategoryInput{}, false
	}
	return backend.CreateCategoryInput{Name: name, Slug: slug}, true
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func firstColumn(index map[string]int, keys ...string) (int, bool) {
	for _, k := range keys {
		if pos, ok := index[k]; ok {
			return pos, true
		}
	}
	return 0, false
}

// pick returns the first non-empty value among the given columns.
func pick(record []string, index map[string]int, keys ...string) string {
	for _, key := range keys {
		pos, ok := index[key]
		if !ok || pos >= len(record) {
			continue
		}
		if v := strings.TrimSpace(record[pos]); v != "" {
			return v
		}
	}
	return ""
}

func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func titleFromSlug(slug string) string {
	words := strings.FieldsFunc(slug, func(r rune) bool { return r == '-' || r == '_' })
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
