package chart

import (
	"errors"

	"github.com/KaramelBytes/chartloom/internal/profile"
)

// ErrNoColumns is returned when there is nothing to chart at all.
var ErrNoColumns = errors.New("dataset has no columns")

// Fallback returns a generic overview of the first column for datasets where
// no rule fired or every candidate was excluded.
func Fallback(p *profile.DatasetProfile) (Candidate, error) {
	if p == nil || len(p.Columns) == 0 {
		return Candidate{}, ErrNoColumns
	}
	first := p.Columns[0].Name
	return Candidate{
		ChartType:   Table,
		XColumn:     first,
		Title:       "Data Table",
		Description: "Overview of the uploaded data",
		Score:       0.5,
		Spec:        BuildSpec(SpecOptions{Type: Bar, X: first, Title: "Data Overview"}),
	}, nil
}

// InferOrFallback runs the generator and falls back to Fallback when it
// yields nothing.
func (g *Generator) InferOrFallback(in Input) ([]Candidate, error) {
	out := g.Infer(in)
	if len(out) > 0 {
		return out, nil
	}
	fb, err := Fallback(in.Profile)
	if err != nil {
		return nil, err
	}
	return []Candidate{fb}, nil
}
