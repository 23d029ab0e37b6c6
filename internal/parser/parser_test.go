package parser_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/chartloom/internal/dataset"
	"github.com/KaramelBytes/chartloom/internal/parser"
)

func TestLoadUnsupported(t *testing.T) {
	_, err := parser.Load("notes.docx", []byte("x"), parser.DefaultOptions())
	if !errors.Is(err, parser.ErrUnsupported) {
		t.Fatalf("want ErrUnsupported, got %v", err)
	}
	if parser.Supported("a.pdf") || !parser.Supported("A.CSV") || !parser.Supported("b.xlsx") {
		t.Fatalf("Supported() mismatch")
	}
}

func TestLoadEmpty(t *testing.T) {
	if _, err := parser.Load("a.csv", nil, parser.DefaultOptions()); !errors.Is(err, parser.ErrEmpty) {
		t.Fatalf("want ErrEmpty, got %v", err)
	}
}

func TestLoadFileLocalAndURL(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "sales.csv")
	if err := os.WriteFile(p, []byte("region,amount\nNorth,10\nSouth,20\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	for _, loc := range []string{p, "file://" + p} {
		tbl, err := parser.LoadFile(context.Background(), loc, parser.DefaultOptions())
		if err != nil {
			t.Fatalf("load %s: %v", loc, err)
		}
		if tbl.Name != "sales.csv" || tbl.RowCount() != 2 {
			t.Fatalf("%s: name=%q rows=%d", loc, tbl.Name, tbl.RowCount())
		}
		if tbl.Columns[1].Kind != dataset.KindInteger {
			t.Fatalf("amount kind = %s", tbl.Columns[1].Kind)
		}
	}
}
