package neighbor

import "testing"

func TestNewDataset_Valid(t *testing.T) {
	ds, err := NewDataset([]float64{1, 2, 3, 4, 5, 6}, 3, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ds.Rows != 3 || ds.Dims != 2 {
		t.Errorf("got %dx%d, want 3x2", ds.Rows, ds.Dims)
	}
	row := ds.Row(1)
	if row[0] != 3 || row[1] != 4 {
		t.Errorf("Row(1) = %v, want [3 4]", row)
	}
}

func TestNewDataset_Invalid(t *testing.T) {
	cases := []struct {
		name string
		data []float64
		rows int
		dims int
	}{
		{"zero rows", nil, 0, 2},
		{"zero dims", []float64{1, 2}, 2, 0},
		{"shape mismatch", []float64{1, 2, 3}, 2, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewDataset(tc.data, tc.rows, tc.dims); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestDatasetFromRows(t *testing.T) {
	ds, err := DatasetFromRows([][]float64{{1, 2}, {3, 4}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ds.Rows != 2 || ds.Dims != 2 {
		t.Errorf("got %dx%d, want 2x2", ds.Rows, ds.Dims)
	}
	if got := ds.Row(1)[1]; got != 4 {
		t.Errorf("Row(1)[1] = %v, want 4", got)
	}
}

func TestDatasetFromRows_RaggedRows(t *testing.T) {
	if _, err := DatasetFromRows([][]float64{{1, 2}, {3}}); err == nil {
		t.Error("expected error for ragged rows, got nil")
	}
}

func TestDatasetFromRows_Empty(t *testing.T) {
	if _, err := DatasetFromRows(nil); err == nil {
		t.Error("expected error for empty input, got nil")
	}
}
