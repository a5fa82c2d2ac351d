package importer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"storefront/internal/backend"
	"storefront/internal/domain"
)

type stubCategoryWriter struct {
	items []backend.CreateCategoryInput
	err   error
}

func (s *stubCategoryWriter) CreateCategory(_ context.Context, in backend.CreateCategoryInput) (*domain.Category, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.items = append(s.items, in)
	return &domain.Category{ID: in.Slug, Name: in.Name, Slug: in.Slug}, nil
}

func TestCSVImporter_RunPlainFile(t *testing.T) {
	csvData := `name,slug
Storage Racks,racks
Crates & Bins,
,pallet-jacks
Storage Racks,racks
`
	w := &stubCategoryWriter{}
	count, err := NewCSVImporter(strings.NewReader(csvData), w).Run(context.Background())
	if err != nil {
		t.Fatalf("import run: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 categories imported, got %d", count)
	}
	if w.items[1].Slug != "crates-bins" {
		t.Fatalf("expected slug derived from name, got %q", w.items[1].Slug)
	}
	if w.items[2].Name != "Pallet Jacks" {
		t.Fatalf("expected name derived from slug, got %q", w.items[2].Name)
	}
}

func TestCSVImporter_RunLocalizedExport(t *testing.T) {
	csvData := `key,name.en,slug.en,parent.key,orderHint
indoor-pots,Indoor Pots,indoor-pots,,4.1
succulents,,,,
,,,,
`
	w := &stubCategoryWriter{}
	count, err := NewCSVImporter(strings.NewReader(csvData), w).Run(context.Background())
	if err != nil {
		t.Fatalf("import run: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 categories imported, got %d", count)
	}
	if w.items[0].Name != "Indoor Pots" || w.items[0].Slug != "indoor-pots" {
		t.Fatalf("unexpected first category %+v", w.items[0])
	}
	if w.items[1].Name != "Succulents" || w.items[1].Slug != "succulents" {
		t.Fatalf("expected key fallback for second, got %+v", w.items[1])
	}
}

func TestCSVImporter_RejectsUnknownHeaders(t *testing.T) {
	_, err := NewCSVImporter(strings.NewReader("sku,price\nA,1\n"), &stubCategoryWriter{}).Run(context.Background())
	if err == nil {
		t.Fatal("expected error for csv without name columns")
	}
}

func TestCSVImporter_StopsOnBackendError(t *testing.T) {
	w := &stubCategoryWriter{err: errors.New("backend down")}
	count, err := NewCSVImporter(strings.NewReader("name\nRacks\n"), w).Run(context.Background())
	if err == nil || count != 0 {
		t.Fatalf("expected error and zero imports, got %d, %v", count, err)
	}
}
