package vector

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
)

// runIndexContract exercises behavior every backend must share.
func runIndexContract(t *testing.T, newIndex func(t *testing.T, dims int) Index) {
	ctx := context.Background()

	t.Run("append assigns sequential positions", func(t *testing.T) {
		idx := newIndex(t, 3)
		for want, vec := range [][]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}} {
			pos, err := idx.Append(ctx, vec)
			if err != nil {
				t.Fatal(err)
			}
			if pos != want {
				t.Errorf("position=%d, want %d", pos, want)
			}
		}
		if idx.Len() != 3 {
			t.Errorf("Len=%d, want 3", idx.Len())
		}
	})

	t.Run("append rejects wrong dimension", func(t *testing.T) {
		idx := newIndex(t, 3)
		_, err := idx.Append(ctx, []float32{1, 0})
		var dimErr *DimensionError
		if !errors.As(err, &dimErr) {
			t.Fatalf("expected DimensionError, got %v", err)
		}
		if dimErr.Got != 2 || dimErr.Want != 3 {
			t.Errorf("unexpected error fields: %+v", dimErr)
		}
		if idx.Len() != 0 {
			t.Errorf("Len=%d after rejected append", idx.Len())
		}
	})

	t.Run("search orders by descending score", func(t *testing.T) {
		idx := newIndex(t, 3)
		mustAppend(t, idx, []float32{0, 1, 0})
		mustAppend(t, idx, []float32{1, 0, 0})
		mustAppend(t, idx, unit(0.9, 0.1, 0))
		hits, err := idx.Search(ctx, []float32{1, 0, 0}, 2)
		if err != nil {
			t.Fatal(err)
		}
		if len(hits) != 2 {
			t.Fatalf("expected 2 hits, got %d", len(hits))
		}
		if hits[0].Position != 1 || hits[1].Position != 2 {
			t.Errorf("unexpected order: %+v", hits)
		}
		if hits[0].Score < hits[1].Score {
			t.Errorf("scores not descending: %+v", hits)
		}
	})

	t.Run("search returns all when k exceeds size", func(t *testing.T) {
		idx := newIndex(t, 2)
		mustAppend(t, idx, []float32{1, 0})
		mustAppend(t, idx, []float32{0, 1})
		hits, err := idx.Search(ctx, []float32{1, 0}, 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(hits) != 2 {
			t.Errorf("expected 2 hits, got %d", len(hits))
		}
	})

	t.Run("search on empty index is empty", func(t *testing.T) {
		idx := newIndex(t, 2)
		hits, err := idx.Search(ctx, []float32{1, 0}, 5)
		if err != nil {
			t.Fatal(err)
		}
		if len(hits) != 0 {
			t.Errorf("expected no hits, got %d", len(hits))
		}
	})

	t.Run("ties break by lowest position", func(t *testing.T) {
		idx := newIndex(t, 2)
		mustAppend(t, idx, []float32{0, 1})
		mustAppend(t, idx, []float32{1, 0})
		mustAppend(t, idx, []float32{1, 0})
		hits, err := idx.Search(ctx, []float32{1, 0}, 3)
		if err != nil {
			t.Fatal(err)
		}
		if hits[0].Position != 1 || hits[1].Position != 2 || hits[2].Position != 0 {
			t.Errorf("unexpected tie order: %+v", hits)
		}
	})

	t.Run("search rejects wrong query dimension", func(t *testing.T) {
		idx := newIndex(t, 2)
		mustAppend(t, idx, []float32{1, 0})
		_, err := idx.Search(ctx, []float32{1, 0, 0}, 1)
		var dimErr *DimensionError
		if !errors.As(err, &dimErr) {
			t.Fatalf("expected DimensionError, got %v", err)
		}
	})

	t.Run("vector returns stored copy", func(t *testing.T) {
		idx := newIndex(t, 2)
		mustAppend(t, idx, []float32{0.6, 0.8})
		got, err := idx.Vector(0)
		if err != nil {
			t.Fatal(err)
		}
		if !approxEqual(got, []float32{0.6, 0.8}) {
			t.Errorf("Vector(0)=%v", got)
		}
		if _, err := idx.Vector(1); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("expected ErrOutOfRange, got %v", err)
		}
	})

	t.Run("save and load round trip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "index.bin")
		idx := newIndex(t, 3)
		want := [][]float32{unit(1, 2, 3), unit(3, 2, 1), unit(0, 0, 1)}
		for _, v := range want {
			mustAppend(t, idx, v)
		}
		if err := idx.Save(path); err != nil {
			t.Fatal(err)
		}
		loaded := newIndex(t, 3)
		if err := loaded.Load(path); err != nil {
			t.Fatal(err)
		}
		if loaded.Len() != len(want) {
			t.Fatalf("Len=%d, want %d", loaded.Len(), len(want))
		}
		for i, v := range want {
			got, err := loaded.Vector(i)
			if err != nil {
				t.Fatal(err)
			}
			if !approxEqual(got, v) {
				t.Errorf("vector %d: got %v, want %v", i, got, v)
			}
		}
	})

	t.Run("load rejects dimension mismatch", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "index.bin")
		idx := newIndex(t, 2)
		mustAppend(t, idx, []float32{1, 0})
		if err := idx.Save(path); err != nil {
			t.Fatal(err)
		}
		other := newIndex(t, 3)
		var dimErr *DimensionError
		if err := other.Load(path); !errors.As(err, &dimErr) {
			t.Fatalf("expected DimensionError, got %v", err)
		}
	})
}

func mustAppend(t *testing.T, idx Index, vec []float32) int {
	t.Helper()
	pos, err := idx.Append(context.Background(), vec)
	if err != nil {
		t.Fatal(err)
	}
	return pos
}

func unit(xs ...float32) []float32 {
	v, err := Normalize(xs)
	if err != nil {
		panic(err)
	}
	return v
}

func approxEqual(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(float64(a[i]-b[i])) > 1e-6 {
			return false
		}
	}
	return true
}
