package analytics

// Row is one row of a derived table: string-valued dimension columns plus
// numeric value columns. Reading a column that a row does not carry yields
// the zero value, which keeps sums over absent columns defined as 0.
type Row struct {
	Dims map[string]string
	Vals map[string]float64
}

// Table is an ordered sequence of rows. Every operation in this package
// returns a new Table with freshly allocated rows; inputs are never mutated
// and results never alias the caller's maps.
type Table []Row

// Dim returns the value of a dimension column, "" if absent.
func (r Row) Dim(col string) string { return r.Dims[col] }

// Val returns the value of a numeric column, 0 if absent.
func (r Row) Val(col string) float64 { return r.Vals[col] }

func (r Row) clone() Row {
	out := Row{
		Dims: make(map[string]string, len(r.Dims)),
		Vals: make(map[string]float64, len(r.Vals)),
	}
	for k, v := range r.Dims {
		out.Dims[k] = v
	}
	for k, v := range r.Vals {
		out.Vals[k] = v
	}
	return out
}

func (t Table) clone() Table {
	out := make(Table, len(t))
	for i, r := range t {
		out[i] = r.clone()
	}
	return out
}
