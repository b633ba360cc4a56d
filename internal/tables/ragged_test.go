package tables

import (
	"bytes"
	"testing"
)

func TestRaggedBytesAppendAt(t *testing.T) {
	r := NewRaggedBytes()
	if r.Len() != 0 {
		t.Fatalf("expected empty column, got len %d", r.Len())
	}
	records := [][]byte{[]byte("abc"), nil, []byte("z")}
	for i, rec := range records {
		if idx := r.Append(rec); idx != i {
			t.Fatalf("append %d returned index %d", i, idx)
		}
	}
	if r.Len() != len(records) {
		t.Fatalf("expected %d rows, got %d", len(records), r.Len())
	}
	for i, want := range records {
		if got := r.At(i); !bytes.Equal(got, want) {
			t.Fatalf("row %d: got %q want %q", i, got, want)
		}
	}
}

func TestRaggedBytesSetReplacesRows(t *testing.T) {
	r := NewRaggedBytes()
	r.Append([]byte("old"))
	r.Append([]byte("rows"))
	r.Set([][]byte{[]byte("xy")})
	if r.Len() != 1 {
		t.Fatalf("expected 1 row after Set, got %d", r.Len())
	}
	if got := r.At(0); !bytes.Equal(got, []byte("xy")) {
		t.Fatalf("row 0: got %q", got)
	}
}

func TestRaggedBytesCloneIsIndependent(t *testing.T) {
	r := NewRaggedBytes()
	r.Append([]byte("abc"))
	c := r.Clone()
	c.Data[0] = 'X'
	if got := r.At(0); !bytes.Equal(got, []byte("abc")) {
		t.Fatalf("clone mutation leaked into original: %q", got)
	}
}

func TestRaggedBytesRecordsCopies(t *testing.T) {
	r := NewRaggedBytes()
	r.Append([]byte("abc"))
	recs := r.Records()
	recs[0][0] = 'X'
	if got := r.At(0); !bytes.Equal(got, []byte("abc")) {
		t.Fatalf("Records must copy rows, original now %q", got)
	}
}

func TestRaggedFloatsAppendAtClone(t *testing.T) {
	r := NewRaggedFloats()
	r.Append([]float64{1, 2, 3})
	r.Append(nil)
	if r.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", r.Len())
	}
	if got := r.At(0); len(got) != 3 || got[1] != 2 {
		t.Fatalf("row 0: got %v", got)
	}
	if got := r.At(1); len(got) != 0 {
		t.Fatalf("row 1 should be empty, got %v", got)
	}
	c := r.Clone()
	c.Data[0] = 99
	if r.At(0)[0] != 1 {
		t.Fatalf("clone mutation leaked into original")
	}
}
