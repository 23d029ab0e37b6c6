package utils_test

import (
	"strings"
	"testing"

	"github.com/KaramelBytes/chartloom/internal/utils"
)

func TestEstimateTokens(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want int
	}{
		{"empty", "", 0},
		{"short", "id", 1},
		{"columns", "revenue,region", 3},
		{"long", strings.Repeat("a", 4000), 1000},
	}
	for _, c := range cases {
		if got := utils.EstimateTokens(c.in); got != c.want {
			t.Errorf("%s: got %d want %d", c.name, got, c.want)
		}
	}
}

func TestTruncateToTokenLimit(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 200; i++ {
		b.WriteString("- column: numeric, 0 nulls\n")
	}
	text := b.String()
	trunc := utils.TruncateToTokenLimit(text, 100)
	if n := utils.EstimateTokens(trunc); n > 100 {
		t.Fatalf("tokens=%d exceeds limit", n)
	}
	if !strings.HasSuffix(trunc, "0 nulls") {
		t.Fatalf("expected cut at a line boundary, got tail %q", trunc[len(trunc)-10:])
	}
	if got := utils.TruncateToTokenLimit("short", 10); got != "short" {
		t.Fatalf("short text changed: %q", got)
	}
	if got := utils.TruncateToTokenLimit(strings.Repeat("x", 50), 2); got != "xxxxxxxx" {
		t.Fatalf("single line should be cut mid-line, got %q", got)
	}
	if got := utils.TruncateToTokenLimit(text, 0); got != "" {
		t.Fatalf("zero limit should return empty")
	}
}
