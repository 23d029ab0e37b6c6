package profile

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/chartloom/internal/dataset"
)

func table(cols map[string][]string, order ...string) *dataset.Table {
	n := len(cols[order[0]])
	rows := make([][]string, n)
	for i := range rows {
		rows[i] = make([]string, len(order))
		for j, name := range order {
			rows[i][j] = cols[name][i]
		}
	}
	return dataset.FromRecords("test.csv", order, rows)
}

func seq(n int, f func(i int) string) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = f(i)
	}
	return out
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   Dtype
	}{
		{"many integers", seq(20, func(i int) string { return fmt.Sprint(i) }), Numeric},
		{"few small integers", []string{"1", "2", "3", "2", "1"}, Ordinal},
		{"few large integers", []string{"100", "200", "100"}, Numeric},
		{"few floats", []string{"1.5", "2.5"}, Numeric},
		{"date strings", []string{"2024-01-01", "2024-02-01"}, Temporal},
		{"text", []string{"red", "blue"}, Nominal},
		{"all null", []string{"", ""}, Nominal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := table(map[string][]string{"c": tt.values}, "c")
			assert.Equal(t, tt.want, Classify(tbl.Columns[0]))
		})
	}
}

func TestNormalizeCurrencyAndDates(t *testing.T) {
	tbl := table(map[string][]string{
		"price": {"$1,200", "$3,400.50", "$99", "n/a-ish", "$5"},
		"rate":  {"10%", "20%", "30%", "40%", "50%"},
		"when":  {"2024-01-05", "2024-02-05", "2024-03-05", "bogus", "2024-04-05"},
		"text":  {"a, b", "c", "d", "e", "f"},
	}, "price", "rate", "when", "text")
	Normalize(tbl)

	price := tbl.Columns[0]
	assert.Equal(t, dataset.KindFloat, price.Kind)
	assert.Equal(t, 1200.0, price.Cells[0].Num)
	assert.True(t, price.Cells[3].Null)

	assert.Equal(t, dataset.KindInteger, tbl.Columns[1].Kind)
	assert.Equal(t, 40.0, tbl.Columns[1].Cells[3].Num)

	when := tbl.Columns[2]
	assert.Equal(t, dataset.KindDate, when.Kind)
	assert.True(t, when.Cells[3].Null)

	assert.Equal(t, dataset.KindString, tbl.Columns[3].Kind)
}

func TestProfileDateValueScenario(t *testing.T) {
	tbl := table(map[string][]string{
		"date":  {"2024-01-01", "2024-01-02"},
		"value": {"100", "200"},
	}, "date", "value")
	p := Profile(tbl)

	require.Equal(t, 2, p.RowCount)
	require.Equal(t, 2, p.ColCount)
	require.Len(t, p.Columns, 2)

	date := p.Column("date")
	assert.Equal(t, Temporal, date.Dtype)
	assert.Equal(t, "2024-01-01T00:00:00", date.Min)
	assert.Equal(t, "2024-01-02T00:00:00", date.Max)
	assert.Nil(t, date.Mean)

	value := p.Column("value")
	assert.Contains(t, []Dtype{Numeric, Ordinal}, value.Dtype)
	require.NotNil(t, value.Mean)
	assert.Equal(t, 150.0, *value.Mean)
	assert.Equal(t, []any{int64(100), int64(200)}, value.Examples)
}

func TestProfileSatisfactionScenario(t *testing.T) {
	tbl := table(map[string][]string{
		"satisfaction": {"Agree", "Strongly Agree", "Disagree", "Neutral", "Agree"},
	}, "satisfaction")
	p := Profile(tbl)
	c := p.Column("satisfaction")

	assert.True(t, c.IsLikert)
	assert.Equal(t, Ordinal, c.Dtype)
	assert.Equal(t, []string{"Disagree", "Neutral", "Agree", "Strongly Agree"}, c.LikertOrder)
	assert.Nil(t, c.Mean)
	assert.Nil(t, c.Min)
}

func TestDetectLikertStrategies(t *testing.T) {
	ok, order := DetectLikert([]string{"3 (Neutral)", "1 (Strongly Disagree)", "5 (Strongly Agree)", "2. Disagree", "4"})
	require.True(t, ok)
	assert.Equal(t, []string{"1 (Strongly Disagree)", "2. Disagree", "3 (Neutral)", "4", "5 (Strongly Agree)"}, order)

	ok, order = DetectLikert([]string{"Yes", "Maybe", "No"})
	require.True(t, ok)
	assert.Equal(t, []string{"No", "Maybe", "Yes"}, order)

	ok, order = DetectLikert([]string{"TRUE", "I don't know", "FALSE"})
	require.True(t, ok)
	assert.Equal(t, []string{"FALSE", "I don't know", "TRUE"}, order)

	ok, _ = DetectLikert([]string{"red", "green", "blue"})
	assert.False(t, ok)

	ok, _ = DetectLikert([]string{"Agree"})
	assert.False(t, ok, "single value is not a scale")
}

func TestDetectLikertIdempotent(t *testing.T) {
	inputs := [][]string{
		{"Very satisfied", "Dissatisfied", "Neutral", "Satisfied", "Very dissatisfied"},
		{"2 - Low", "10 - Top", "1 - None"},
		{"no", "YES"},
	}
	for _, in := range inputs {
		ok, first := DetectLikert(in)
		require.True(t, ok, "%v", in)
		ok, second := DetectLikert(first)
		require.True(t, ok)
		assert.Equal(t, first, second)
	}
}

func TestNumericLikert(t *testing.T) {
	ok, order := NumericLikert([]float64{3, 1, 5, 2, 4})
	require.True(t, ok)
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, order)

	ok, order = NumericLikert([]float64{0, 9})
	require.True(t, ok)
	assert.Len(t, order, 11)

	ok, order = NumericLikert([]float64{1, 2, 8})
	require.True(t, ok)
	assert.Equal(t, []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10"}, order)

	ok, _ = NumericLikert([]float64{1.5, 2})
	assert.False(t, ok)
}

func TestNumericLikertFromProfile(t *testing.T) {
	tbl := table(map[string][]string{"rating": {"1", "2", "3", "4", "5", "3"}}, "rating")
	c := Profile(tbl).Column("rating")
	assert.Equal(t, Ordinal, c.Dtype)
	assert.True(t, c.IsLikert)
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, c.LikertOrder)
}

func TestIsCheckbox(t *testing.T) {
	tbl := table(map[string][]string{
		"tools": {"A, B", "B, C", "A, C", "A, B", "C"},
		"plain": {"A", "B", "C", "A", "B"},
	}, "tools", "plain")
	assert.True(t, IsCheckbox(tbl.Columns[0]))
	assert.False(t, IsCheckbox(tbl.Columns[1]))

	p := Profile(tbl)
	assert.True(t, p.Column("tools").IsCheckbox)
}

func TestIsCheckboxFallbackHeuristics(t *testing.T) {
	fillers := func(n int, prefix string) []string {
		return seq(n, func(i int) string { return fmt.Sprintf("%s %c%c", prefix, 'a'+i, 'a'+i) })
	}
	nested := []string{"Excel", "Excel plus Tableau", "Tableau", "Tableau plus Looker"}
	flat := []string{"Excel", "Excel plus Tableau", "Tableau", "Looker"}
	tests := []struct {
		name   string
		values []string
		want   bool
	}{
		{"21 unique with 3 substring pairs", append(fillers(17, "answer"), nested...), true},
		{"20 unique with 3 substring pairs", append(fillers(16, "answer"), nested...), false},
		{"21 unique with 2 substring pairs", append(fillers(17, "answer"), flat...), false},
		{"16 unique with one comma", append(fillers(15, "city"), "Berlin, Germany"), true},
		{"15 unique with one comma", append(fillers(14, "city"), "Berlin, Germany"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := table(map[string][]string{"c": tt.values}, "c")
			assert.Equal(t, tt.want, IsCheckbox(tbl.Columns[0]))
		})
	}
}

func TestGridGroups(t *testing.T) {
	scale := []string{"Agree", "Disagree", "Neutral", "Agree"}
	other := []string{"Yes", "No", "Yes", "No"}
	tbl := table(map[string][]string{
		"Rate [Speed]":   scale,
		"Rate [Price]":   {"Neutral", "Agree", "Agree", "Disagree"},
		"Would buy":      other,
		"Would return":   {"No", "Yes", "Yes", "Yes"},
		"Comment (free)": {"x", "y", "z", "w"},
	}, "Rate [Speed]", "Rate [Price]", "Would buy", "Would return", "Comment (free)")
	p := Profile(tbl)

	assert.Equal(t, "Rate", p.Column("Rate [Speed]").GridGroup)
	assert.Equal(t, "Rate", p.Column("Rate [Price]").GridGroup)
	assert.Equal(t, "Would", p.Column("Would buy").GridGroup)
	assert.Equal(t, "Would", p.Column("Would return").GridGroup)
	assert.Empty(t, p.Column("Comment (free)").GridGroup, "singleton groups are cleared")
}

func TestSharedScaleNameFallback(t *testing.T) {
	tbl := table(map[string][]string{
		"q1": {"Yes", "No", "Yes"},
		"x2": {"No", "Yes", "No"},
	}, "q1", "x2")
	p := Profile(tbl)
	assert.Equal(t, "Shared scale: No / Yes", p.Column("q1").GridGroup)
	assert.Equal(t, p.Column("q1").GridGroup, p.Column("x2").GridGroup)
}

func TestIsOtherColumn(t *testing.T) {
	assert.True(t, IsOtherColumn("Other (please specify)", 40, 100))
	assert.False(t, IsOtherColumn("Other (please specify)", 5, 100))
	assert.False(t, IsOtherColumn("Other", 20, 100))
	assert.False(t, IsOtherColumn("Country", 60, 100))
}

func TestIsIDLike(t *testing.T) {
	tbl := table(map[string][]string{
		"user_id": seq(15, func(i int) string { return fmt.Sprint(i + 1) }),
		"score":   seq(15, func(i int) string { return fmt.Sprint(i * 3) }),
	}, "user_id", "score")
	p := Profile(tbl)
	assert.True(t, p.IsIDLike(p.Column("user_id")))
	assert.False(t, p.IsIDLike(p.Column("score")))
}

func TestColumnProfileJSONNulls(t *testing.T) {
	tbl := table(map[string][]string{
		"Rate [Speed]": {"Agree", "Disagree", "Agree"},
		"Rate [Price]": {"Disagree", "Agree", "Agree"},
		"empty":        {"", "", ""},
	}, "Rate [Speed]", "Rate [Price]", "empty")
	p := Profile(tbl)

	var cols []map[string]any
	b, err := json.Marshal(p.Columns)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, &cols))
	require.Len(t, cols, 3)

	assert.Equal(t, "Rate", cols[0]["grid_group"])
	empty := cols[2]
	require.Contains(t, empty, "grid_group")
	assert.Nil(t, empty["grid_group"])
	assert.Equal(t, []any{}, empty["examples"])
}
