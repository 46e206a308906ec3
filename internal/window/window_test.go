package window

import (
	"testing"

	"chartfeed/internal/model"
)

func point(date string, value float64) model.PricePoint {
	return model.PricePoint{Date: date, Value: value}
}

func TestWindow_FillBelowCapacity(t *testing.T) {
	w := New(5)
	w.Push(point("d1", 1))
	w.Push(point("d2", 2))

	if w.Len() != 2 {
		t.Fatalf("len: got %d, want 2", w.Len())
	}
	pts := w.Points()
	if pts[0].Date != "d1" || pts[1].Date != "d2" {
		t.Fatalf("order: got %s,%s", pts[0].Date, pts[1].Date)
	}
}

func TestWindow_FIFOEviction(t *testing.T) {
	w := New(3)
	for i := 1; i <= 5; i++ {
		w.Push(point("d"+string(rune('0'+i)), float64(i)))
	}

	if w.Len() != 3 {
		t.Fatalf("len after overflow: got %d, want 3", w.Len())
	}
	pts := w.Points()
	want := []string{"d3", "d4", "d5"}
	for i, p := range pts {
		if p.Date != want[i] {
			t.Errorf("point %d: got %s, want %s", i, p.Date, want[i])
		}
	}
}

func TestWindow_Last(t *testing.T) {
	w := New(2)
	if _, ok := w.Last(); ok {
		t.Fatal("Last on empty window should report false")
	}
	w.Push(point("d1", 1))
	w.Push(point("d2", 2))
	w.Push(point("d3", 3))
	last, ok := w.Last()
	if !ok || last.Date != "d3" {
		t.Fatalf("Last: got %v %v, want d3", last.Date, ok)
	}
}

func TestWindow_DefaultCapacity(t *testing.T) {
	w := New(0)
	if w.Cap() != DefaultCapacity {
		t.Fatalf("cap: got %d, want %d", w.Cap(), DefaultCapacity)
	}
}

func TestWindow_PointsIsACopy(t *testing.T) {
	w := New(3)
	w.Push(point("d1", 1))
	pts := w.Points()
	w.Push(point("d2", 2))
	if len(pts) != 1 || pts[0].Date != "d1" {
		t.Fatal("Points() snapshot affected by later pushes")
	}
}
