package analytics

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/searchlens/searchlens/core"
)

// GroupSum groups rows by the distinct combination of values in groupCols
// and sums sumCols within each group. The output has exactly one row per
// distinct group key, carrying only the group dimensions and the summed
// columns, in first-seen group order so results are deterministic.
func GroupSum(t Table, groupCols, sumCols []string) Table {
	index := make(map[string]int)
	out := make(Table, 0)

	for _, r := range t {
		parts := make([]string, len(groupCols))
		for i, c := range groupCols {
			parts[i] = r.Dim(c)
		}
		key := strings.Join(parts, "\x1f")

		i, ok := index[key]
		if !ok {
			g := Row{
				Dims: make(map[string]string, len(groupCols)),
				Vals: make(map[string]float64, len(sumCols)),
			}
			for j, c := range groupCols {
				g.Dims[c] = parts[j]
			}
			for _, c := range sumCols {
				g.Vals[c] = 0
			}
			index[key] = len(out)
			out = append(out, g)
			i = len(out) - 1
		}
		for _, c := range sumCols {
			out[i].Vals[c] += r.Val(c)
		}
	}
	return out
}

// Filter returns the subsequence of rows satisfying pred, preserving input
// order. Surviving rows are copies.
func Filter(t Table, pred func(Row) bool) Table {
	out := make(Table, 0)
	for _, r := range t {
		if pred(r) {
			out = append(out, r.clone())
		}
	}
	return out
}

// TopN returns the first n rows after a stable sort by byCol. Ties keep
// their original relative order, so repeated application returns the same
// rows. When byCol is not a numeric column, rows compare by the dimension
// of the same name. n larger than the table returns the whole table.
func TopN(t Table, byCol string, n int, descending bool) Table {
	out := t.clone()
	numeric := false
	for _, r := range out {
		if _, ok := r.Vals[byCol]; ok {
			numeric = true
			break
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if numeric {
			if descending {
				return out[i].Val(byCol) > out[j].Val(byCol)
			}
			return out[i].Val(byCol) < out[j].Val(byCol)
		}
		if descending {
			return out[i].Dim(byCol) > out[j].Dim(byCol)
		}
		return out[i].Dim(byCol) < out[j].Dim(byCol)
	})
	if n < 0 {
		n = 0
	}
	if n < len(out) {
		out = out[:n]
	}
	return out
}

// Bucketize assigns each row to exactly one label according to which
// half-open interval [edges[i], edges[i+1]) its value in valueCol falls
// into, writing the label to the bucketCol dimension. A value outside all
// intervals fails with OutOfRangeError; callers decide whether to drop the
// offending rows or treat the whole table as unclassifiable.
func Bucketize(t Table, valueCol string, edges []float64, labels []string, bucketCol string) (Table, error) {
	if len(labels) != len(edges)-1 {
		return nil, fmt.Errorf("bucketize: %d labels for %d edges", len(labels), len(edges))
	}
	out := make(Table, 0, len(t))
	for _, r := range t {
		v := r.Val(valueCol)
		idx := -1
		for i := 0; i < len(edges)-1; i++ {
			if v >= edges[i] && v < edges[i+1] {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, &core.OutOfRangeError{Column: valueCol, Value: v}
		}
		c := r.clone()
		c.Dims[bucketCol] = labels[idx]
		out = append(out, c)
	}
	return out, nil
}

// PercentShare adds a derived column shareCol = valueCol / sum(valueCol)
// * 100, rounded to two decimals. A zero total yields 0 for every row
// rather than dividing by zero.
func PercentShare(t Table, valueCol, shareCol string) Table {
	total := SumCol(t, valueCol)
	out := t.clone()
	for i := range out {
		if total == 0 {
			out[i].Vals[shareCol] = 0
			continue
		}
		out[i].Vals[shareCol] = round2(out[i].Val(valueCol) / total * 100)
	}
	return out
}

// SumCol sums a numeric column over the whole table; 0 for an empty table.
func SumCol(t Table, col string) float64 {
	var total float64
	for _, r := range t {
		total += r.Val(col)
	}
	return total
}

// MaxBy returns a copy of the first row holding the maximum value of col.
// ok is false for an empty table.
func MaxBy(t Table, col string) (Row, bool) {
	if len(t) == 0 {
		return Row{}, false
	}
	best := 0
	for i := 1; i < len(t); i++ {
		if t[i].Val(col) > t[best].Val(col) {
			best = i
		}
	}
	return t[best].clone(), true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
