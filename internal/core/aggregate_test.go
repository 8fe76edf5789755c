package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuarterAverage(t *testing.T) {
	tests := []struct {
		name   string
		months [3]float64
		want   float64
	}{
		{"nonzero sum adds one", [3]float64{2, 2, 2}, 2.33},
		{"zero short circuit", [3]float64{0, 0, 0}, 0},
		{"single value", [3]float64{5, 0, 0}, 2},
		{"negative cancels out", [3]float64{3, -3, 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Round2(QuarterAverage(tt.months)))
		})
	}
}

func TestYearAverage(t *testing.T) {
	assert.Equal(t, 2.33, Round2(YearAverage([4]float64{2.33, 0, 5.0, 1.0})))
	assert.Equal(t, 0.0, YearAverage([4]float64{}))
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{1.005, 1.01},
		{2.675, 2.68},
		{1.004, 1},
		{-1.005, -1.01},
		{7.0 / 3, 2.33},
		{0.125, 0.13},
		{0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Round2(tt.in), "Round2(%v)", tt.in)
	}
}

func TestComputeRowAllZeros(t *testing.T) {
	var r Row
	for i := range r.Cells {
		r.Cells[i] = Cell{Month: Month(i + 1), Raw: "0"}
	}

	r = ComputeRow(r)
	for _, q := range r.Quarters {
		assert.True(t, q.Set)
		assert.Equal(t, 0.0, q.Value)
	}
	assert.Equal(t, 0.0, r.Total.Value)
	assert.Equal(t, "0", r.Total.Format())
}

func TestComputeRowYearUsesUnroundedQuarters(t *testing.T) {
	var r Row
	r.Cells[Jan-1].Raw = "2"
	r.Cells[Feb-1].Raw = "2"
	r.Cells[Mar-1].Raw = "2"

	r = ComputeRow(r)
	require.True(t, r.Total.Set)
	assert.Equal(t, 2.33, r.Quarters[0].Value)
	assert.Equal(t, 0.0, r.Quarters[1].Value)
	// (7/3 + 1) / 4
	assert.Equal(t, 0.83, r.Total.Value)
}

func TestNumber(t *testing.T) {
	tests := map[string]float64{
		"":      0,
		"  ":    0,
		"7":     7,
		" 3.5 ": 3.5,
		"1,25":  1.25,
		"-4":    -4,
		"abc":   0,
		"NaN":   0,
		"Inf":   0,
	}
	for raw, want := range tests {
		assert.Equal(t, want, Number(raw), "Number(%q)", raw)
	}
}

func TestResultFormat(t *testing.T) {
	assert.Equal(t, "", Result{}.Format())
	assert.Equal(t, "2.33", Result{Value: 2.33, Set: true}.Format())
	assert.Equal(t, "5", Result{Value: 5, Set: true}.Format())
}

func TestHeader(t *testing.T) {
	h := Header()
	require.Len(t, h, 18)
	assert.Equal(t, "Year", h[0])
	assert.Equal(t, "Q1", h[4])
	assert.Equal(t, "YTD", h[17])
}

func TestParseMonth(t *testing.T) {
	m, err := ParseMonth("sep")
	require.NoError(t, err)
	assert.Equal(t, Sep, m)
	assert.Equal(t, Quarter(3), m.Quarter())

	_, err = ParseMonth("Sept")
	assert.ErrorIs(t, err, ErrInvalidMonth)
}
