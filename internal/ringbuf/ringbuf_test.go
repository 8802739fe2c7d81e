package ringbuf

import (
	"math"
	"testing"
)

func TestWindow_BasicPush(t *testing.T) {
	w := New(3)

	w.Push(1)
	w.Push(2)
	if w.Len() != 2 {
		t.Fatalf("expected len=2, got %d", w.Len())
	}
	if w.Full() {
		t.Fatal("window of 3 should not be full after 2 pushes")
	}
	if got := w.Mean(); got != 1.5 {
		t.Fatalf("expected mean 1.5, got %v", got)
	}
}

func TestWindow_Eviction(t *testing.T) {
	w := New(2)

	w.Push(10)
	w.Push(20)

	evicted, ok := w.Push(30)
	if !ok || evicted != 10 {
		t.Fatalf("expected eviction of 10, got %v ok=%v", evicted, ok)
	}
	if w.Sum() != 50 {
		t.Fatalf("expected sum=50, got %v", w.Sum())
	}
	oldest, _ := w.Oldest()
	if oldest != 20 {
		t.Fatalf("expected oldest=20, got %v", oldest)
	}
}

func TestWindow_Wraparound(t *testing.T) {
	w := New(4)
	for i := 1; i <= 10; i++ {
		w.Push(float64(i))
	}

	vals := w.Values()
	want := []float64{7, 8, 9, 10}
	for i := range want {
		if vals[i] != want[i] {
			t.Fatalf("values[%d]: expected %v, got %v", i, want[i], vals[i])
		}
	}
	if w.Mean() != 8.5 {
		t.Fatalf("expected mean 8.5, got %v", w.Mean())
	}
}

func TestWindow_Std(t *testing.T) {
	w := New(4)
	for _, v := range []float64{2, 4, 4, 4} {
		w.Push(v)
	}
	// mean = 3.5, squared deviations = 2.25 + 0.25*3 = 3.0
	if got, want := w.Std(0), math.Sqrt(3.0/4); math.Abs(got-want) > 1e-12 {
		t.Errorf("population std: got %v, want %v", got, want)
	}
	if got, want := w.Std(1), math.Sqrt(3.0/3); math.Abs(got-want) > 1e-12 {
		t.Errorf("sample std: got %v, want %v", got, want)
	}
}

func TestWindow_StdUndefined(t *testing.T) {
	w := New(3)
	if !math.IsNaN(w.Std(0)) {
		t.Error("std of empty window should be NaN")
	}
	w.Push(5)
	if !math.IsNaN(w.Std(1)) {
		t.Error("sample std of a single value should be NaN")
	}
	if w.Std(0) != 0 {
		t.Error("population std of a single value should be 0")
	}
}

func TestWindow_Reset(t *testing.T) {
	w := New(2)
	w.Push(1)
	w.Push(2)
	w.Reset()
	if w.Len() != 0 || w.Sum() != 0 {
		t.Fatalf("expected empty window after reset, got len=%d sum=%v", w.Len(), w.Sum())
	}
	if !math.IsNaN(w.Mean()) {
		t.Fatal("mean of reset window should be NaN")
	}
}

func TestWindow_MeanNoDriftAfterEviction(t *testing.T) {
	w := New(20)
	for i := 0; i < 1000; i++ {
		w.Push(1e6 + float64(i)*0.1)
	}
	for i := 0; i < 20; i++ {
		w.Push(0.3)
	}
	if got := w.Mean(); got != 0.3 {
		t.Fatalf("mean of twenty 0.3 values: got %v", got)
	}
	if got := w.Std(0); got != 0 {
		t.Fatalf("std of a constant window: got %v", got)
	}
}
