package neighbor

import "fmt"

// Dataset is a dense, immutable set of D-dimensional points stored as a
// flat row-major array of Rows*Dims values. The engine never mutates a
// Dataset; trees that need to reorder points keep an index permutation
// over their own copy of the data instead.
type Dataset struct {
	Data []float64
	Rows int
	Dims int
}

// NewDataset wraps flat row-major data as a Dataset, validating its shape.
func NewDataset(data []float64, rows, dims int) (Dataset, error) {
	if rows < 1 {
		return Dataset{}, fmt.Errorf("neighbor: dataset must contain at least one point, got %d rows", rows)
	}
	if dims < 1 {
		return Dataset{}, fmt.Errorf("neighbor: dataset dimensionality must be >= 1, got %d", dims)
	}
	if len(data) != rows*dims {
		return Dataset{}, fmt.Errorf("neighbor: dataset has %d values, want %d (%d rows x %d dims)",
			len(data), rows*dims, rows, dims)
	}
	return Dataset{Data: data, Rows: rows, Dims: dims}, nil
}

// DatasetFromRows flattens a slice of equal-length point rows into a Dataset.
func DatasetFromRows(rows [][]float64) (Dataset, error) {
	if len(rows) == 0 {
		return Dataset{}, fmt.Errorf("neighbor: dataset must contain at least one point")
	}
	dims := len(rows[0])
	if dims == 0 {
		return Dataset{}, fmt.Errorf("neighbor: dataset dimensionality must be >= 1")
	}
	data := make([]float64, 0, len(rows)*dims)
	for i, row := range rows {
		if len(row) != dims {
			return Dataset{}, fmt.Errorf("neighbor: row %d has %d dims, want %d", i, len(row), dims)
		}
		data = append(data, row...)
	}
	return Dataset{Data: data, Rows: len(rows), Dims: dims}, nil
}

// Row returns the i-th point as a view into the underlying data.
func (d Dataset) Row(i int) []float64 {
	return d.Data[i*d.Dims : (i+1)*d.Dims]
}
