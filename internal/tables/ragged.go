package tables

// RaggedBytes stores one variable-length byte record per row in a flat data
// buffer plus an offset index, matching the columnar layout of the substrate:
// row i spans Data[Offsets[i]:Offsets[i+1]].
type RaggedBytes struct {
	Data    []byte   `json:"data"`
	Offsets []uint32 `json:"offsets"`
}

// NewRaggedBytes returns an empty ragged column.
func NewRaggedBytes() RaggedBytes {
	return RaggedBytes{Offsets: []uint32{0}}
}

// Len returns the number of rows.
func (r RaggedBytes) Len() int {
	if len(r.Offsets) == 0 {
		return 0
	}
	return len(r.Offsets) - 1
}

// At returns the record stored at row i. The returned slice aliases the
// column buffer; callers must not mutate it.
func (r RaggedBytes) At(i int) []byte {
	return r.Data[r.Offsets[i]:r.Offsets[i+1]]
}

// Append adds a record as a new row and returns its index.
func (r *RaggedBytes) Append(record []byte) int {
	if len(r.Offsets) == 0 {
		r.Offsets = []uint32{0}
	}
	r.Data = append(r.Data, record...)
	r.Offsets = append(r.Offsets, uint32(len(r.Data)))
	return len(r.Offsets) - 2
}

// Set replaces all rows with the given records.
func (r *RaggedBytes) Set(records [][]byte) {
	r.Data = r.Data[:0]
	r.Offsets = append(r.Offsets[:0], 0)
	for _, rec := range records {
		r.Data = append(r.Data, rec...)
		r.Offsets = append(r.Offsets, uint32(len(r.Data)))
	}
}

// Records unpacks the column into one slice per row. Rows are copies, safe to
// retain.
func (r RaggedBytes) Records() [][]byte {
	out := make([][]byte, r.Len())
	for i := range out {
		rec := r.At(i)
		out[i] = append([]byte(nil), rec...)
	}
	return out
}

// Clone returns a deep copy of the column.
func (r RaggedBytes) Clone() RaggedBytes {
	return RaggedBytes{
		Data:    append([]byte(nil), r.Data...),
		Offsets: append([]uint32(nil), r.Offsets...),
	}
}

// RaggedFloats stores one variable-length float vector per row, used for the
// individual location column (3-vectors, or empty when unset).
type RaggedFloats struct {
	Data    []float64 `json:"data"`
	Offsets []uint32  `json:"offsets"`
}

// NewRaggedFloats returns an empty ragged float column.
func NewRaggedFloats() RaggedFloats {
	return RaggedFloats{Offsets: []uint32{0}}
}

// Len returns the number of rows.
func (r RaggedFloats) Len() int {
	if len(r.Offsets) == 0 {
		return 0
	}
	return len(r.Offsets) - 1
}

// At returns the vector stored at row i, aliasing the column buffer.
func (r RaggedFloats) At(i int) []float64 {
	return r.Data[r.Offsets[i]:r.Offsets[i+1]]
}

// Append adds a vector as a new row and returns its index.
func (r *RaggedFloats) Append(vec []float64) int {
	if len(r.Offsets) == 0 {
		r.Offsets = []uint32{0}
	}
	r.Data = append(r.Data, vec...)
	r.Offsets = append(r.Offsets, uint32(len(r.Data)))
	return len(r.Offsets) - 2
}

// Clone returns a deep copy of the column.
func (r RaggedFloats) Clone() RaggedFloats {
	return RaggedFloats{
		Data:    append([]float64(nil), r.Data...),
		Offsets: append([]uint32(nil), r.Offsets...),
	}
}
