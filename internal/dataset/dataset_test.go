package dataset

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestFromRecordsInfersKinds(t *testing.T) {
	tbl := FromRecords("t.csv",
		[]string{"id", "price", "name", "", "id"},
		[][]string{
			{"1", "1.5", "apple", "x", "7"},
			{"2", "NA", "pear", "", "8"},
			{"3", "2", "", "y"},
		})
	if tbl.RowCount() != 3 || tbl.ColCount() != 5 {
		t.Fatalf("shape = %dx%d", tbl.RowCount(), tbl.ColCount())
	}
	want := []Kind{KindInteger, KindFloat, KindString, KindString, KindInteger}
	for i, k := range want {
		if tbl.Columns[i].Kind != k {
			t.Fatalf("col %d kind = %s, want %s", i, tbl.Columns[i].Kind, k)
		}
	}
	if tbl.Columns[3].Name != "Unnamed: 3" || tbl.Columns[4].Name != "id.1" {
		t.Fatalf("header repair: %q %q", tbl.Columns[3].Name, tbl.Columns[4].Name)
	}
	if !tbl.Columns[1].Cells[1].Null || !tbl.Columns[4].Cells[2].Null {
		t.Fatalf("expected NA and padded cells to be null")
	}
	if got := tbl.Columns[1].Cells[0].Num; got != 1.5 {
		t.Fatalf("num = %v", got)
	}
}

func TestRecordsAndValues(t *testing.T) {
	tbl := FromRecords("t", []string{"n", "s"}, [][]string{{"3", "a"}, {"", "b"}})
	recs := tbl.Records(0)
	if len(recs) != 2 {
		t.Fatalf("records = %d", len(recs))
	}
	if recs[0]["n"] != int64(3) || recs[1]["n"] != nil || recs[1]["s"] != "b" {
		t.Fatalf("unexpected records: %#v", recs)
	}
	if got := len(tbl.Records(1)); got != 1 {
		t.Fatalf("limit ignored: %d", got)
	}
}

func TestParseTimeLayouts(t *testing.T) {
	for _, s := range []string{"2024-01-05", "2024/01/05", "01/05/2024", "2024-01-05 10:30:00", "2024-01-05T10:30:00Z", "Jan 5, 2024"} {
		tm, ok := ParseTime(s)
		if !ok {
			t.Fatalf("failed to parse %q", s)
		}
		if tm.Year() != 2024 {
			t.Fatalf("%q parsed to %v", s, tm)
		}
	}
	if _, ok := ParseTime("hello"); ok {
		t.Fatalf("parsed garbage")
	}
}

func TestFormatTimeNormalizesZones(t *testing.T) {
	c := &Column{Name: "at", Kind: KindDate}
	for _, raw := range []string{"2024-01-01T10:00:00+05:00", "2024-01-02T00:00:00"} {
		tm, ok := ParseTime(raw)
		if !ok {
			t.Fatalf("failed to parse %q", raw)
		}
		c.Cells = append(c.Cells, Cell{Raw: raw, Time: tm})
	}
	if got := c.Value(c.Cells[0]); got != "2024-01-01T05:00:00" {
		t.Fatalf("offset value rendered as %v", got)
	}
	if got := c.Value(c.Cells[1]); got != "2024-01-02T00:00:00" {
		t.Fatalf("naive value rendered as %v", got)
	}
	est := time.FixedZone("EST", -5*3600)
	if got := FormatTime(time.Date(2024, 3, 1, 22, 30, 0, 0, est)); got != "2024-03-02T03:30:00" {
		t.Fatalf("FormatTime=%s", got)
	}
}

func TestFindHeaderRowSkipsBanner(t *testing.T) {
	rows := [][]string{
		{"Quarterly export", "", "", ""},
		{"", "", "", ""},
		{"Region", "Sales", "Units", "Month"},
		{"North", "100", "4", "Jan"},
		{"South", "200", "5", "Feb"},
	}
	if got := FindHeaderRow(rows, 10); got != 2 {
		t.Fatalf("header row = %d, want 2", got)
	}
	plain := [][]string{{"a", "b"}, {"1", "2"}, {"3", "4"}}
	if got := FindHeaderRow(plain, 10); got != 0 {
		t.Fatalf("header row = %d, want 0", got)
	}
}

func TestCleanDropsEmptyAndStripsExamples(t *testing.T) {
	tbl := FromRecords("t", []string{"Drug\nclass", "empty", "age"}, [][]string{
		{"Pain relievers (e.g., Paracetamol, Ibuprofen)", "", "20-25 years"},
		{"", "", ""},
		{"Headache", "", "30"},
	})
	Clean(tbl)
	if tbl.ColCount() != 2 || tbl.RowCount() != 2 {
		t.Fatalf("shape after clean = %dx%d", tbl.RowCount(), tbl.ColCount())
	}
	if tbl.Columns[0].Name != "Drug class" {
		t.Fatalf("name = %q", tbl.Columns[0].Name)
	}
	if got := tbl.Columns[0].Cells[0].Raw; got != "Pain relievers" {
		t.Fatalf("strip = %q", got)
	}
	if got := tbl.Columns[1].Cells[0].Raw; got != "20-25 years" {
		t.Fatalf("unrelated value changed: %q", got)
	}
}

func TestValidate(t *testing.T) {
	tbl := FromRecords("t", []string{"a", "b"}, [][]string{{"1", strings.Repeat("x", 20)}, {"2", "y"}})
	if err := Validate(tbl, Limits{MaxRows: 1}); !errors.Is(err, ErrTooManyRows) {
		t.Fatalf("want ErrTooManyRows, got %v", err)
	}
	if err := Validate(tbl, Limits{MaxColumns: 1}); !errors.Is(err, ErrTooManyColumns) {
		t.Fatalf("want ErrTooManyColumns, got %v", err)
	}
	if err := Validate(tbl, Limits{MaxCellBytes: 10}); !errors.Is(err, ErrCellTooLarge) {
		t.Fatalf("want ErrCellTooLarge, got %v", err)
	}
	if err := Validate(tbl, DefaultLimits()); err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	for _, bad := range []string{"", "../etc", "NUL", "a\x01b"} {
		if ValidColumnName(bad) {
			t.Fatalf("%q accepted", bad)
		}
	}
	if !ValidColumnName("Rate (%)\n2024") {
		t.Fatalf("newline header rejected")
	}
}
