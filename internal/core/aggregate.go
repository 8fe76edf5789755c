// Package core provides the table-set state, grid derivation, validation and
// averaging rules.
//
// This file holds the averaging rules. A group average is (sum+1)/n unless
// the sum is exactly zero, in which case it is zero.
package core

import (
	"math"
	"strconv"
	"strings"
)

// Number coerces a raw cell value. Blank or non-numeric input counts as 0.
func Number(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// QuarterAverage returns the quarter result for three month values, unrounded.
func QuarterAverage(months [3]float64) float64 {
	sum := months[0] + months[1] + months[2]
	if sum == 0 {
		return 0
	}
	return (sum + 1) / 3
}

// YearAverage returns the year result for four unrounded quarter results.
func YearAverage(quarters [4]float64) float64 {
	sum := quarters[0] + quarters[1] + quarters[2] + quarters[3]
	if sum == 0 {
		return 0
	}
	return (sum + 1) / 4
}

// Round2 rounds half away from zero to two decimals. The scaled value is
// first cut to 15 significant digits so 1.005 rounds to 1.01, not to 1.
func Round2(v float64) float64 {
	scaled, err := strconv.ParseFloat(strconv.FormatFloat(v*100, 'g', 15, 64), 64)
	if err != nil {
		scaled = v * 100
	}
	return math.Round(scaled) / 100
}

// ComputeRow attaches results to a single row. Stored values are rounded for
// display, the year result is derived from the unrounded quarter values.
func ComputeRow(r Row) Row {
	var quarters [4]float64
	for q := Quarter(1); q <= 4; q++ {
		var months [3]float64
		for i, m := range q.Months() {
			months[i] = Number(r.Cells[m-1].Raw)
		}
		quarters[q-1] = QuarterAverage(months)
		r.Quarters[q-1] = Result{Value: Round2(quarters[q-1]), Set: true}
	}
	r.Total = Result{Value: Round2(YearAverage(quarters)), Set: true}
	return r
}

// Compute returns a copy of the grid with results on every row, including
// rows that were blank.
func Compute(g Grid) Grid {
	out := g.Clone()
	for ti := range out.Tables {
		rows := out.Tables[ti].Rows
		for ri := range rows {
			rows[ri] = ComputeRow(rows[ri])
		}
	}
	return out
}

// Format renders a result the way it is displayed: empty until set, then the
// shortest decimal form ("2.33", "0", "5").
func (r Result) Format() string {
	if !r.Set {
		return ""
	}
	return strconv.FormatFloat(r.Value, 'f', -1, 64)
}
