package parser_test

import (
	"testing"

	"github.com/KaramelBytes/chartloom/internal/dataset"
	"github.com/KaramelBytes/chartloom/internal/parser"
)

func TestLoadCSVKindsAndHeader(t *testing.T) {
	content := "date,plot,alpha_acids,moisture\n" +
		"2024-08-10,A1,12.5%,74\n" +
		"2024-08-12,A1,11.8%,71\n" +
		"2024-08-15,B3,10.2%,68\n"
	tbl, err := parser.Load("hop_harvest.csv", []byte(content), parser.DefaultOptions())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tbl.ColCount() != 4 || tbl.RowCount() != 3 {
		t.Fatalf("shape = %dx%d", tbl.RowCount(), tbl.ColCount())
	}
	if tbl.Columns[2].Kind != dataset.KindString {
		t.Fatalf("percent strings should stay strings until profiling, got %s", tbl.Columns[2].Kind)
	}
	if tbl.Columns[3].Kind != dataset.KindInteger {
		t.Fatalf("moisture kind = %s", tbl.Columns[3].Kind)
	}
}

func TestLoadCSVSkipsBannerRows(t *testing.T) {
	content := "Survey export,,\n,,\nname,score,group\nann,3,a\nbob,4,b\n"
	tbl, err := parser.Load("s.csv", []byte(content), parser.DefaultOptions())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tbl.Columns[0].Name != "name" || tbl.RowCount() != 2 {
		t.Fatalf("header = %q rows = %d", tbl.Columns[0].Name, tbl.RowCount())
	}
}

func TestLoadCSVSemicolonAndLatin1(t *testing.T) {
	content := []byte("city;temp\nM\xfcnchen;12\nK\xf6ln;14\n")
	tbl, err := parser.Load("w.csv", content, parser.DefaultOptions())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tbl.ColCount() != 2 {
		t.Fatalf("delimiter not sniffed: %d columns", tbl.ColCount())
	}
	if got := tbl.Columns[0].Cells[0].Raw; got != "München" {
		t.Fatalf("latin-1 decode = %q", got)
	}
}

func TestLoadCSVMaxRows(t *testing.T) {
	opt := parser.DefaultOptions()
	opt.MaxRows = 1
	tbl, err := parser.Load("a.tsv", []byte("a\tb\n1\t2\n3\t4\n"), opt)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tbl.RowCount() != 1 || tbl.ColCount() != 2 {
		t.Fatalf("shape = %dx%d", tbl.RowCount(), tbl.ColCount())
	}
}
