package scanner

import (
	"reflect"
	"testing"
)

func collectWindows(t *testing.T, start, end, size uint64) []Window {
	t.Helper()
	windows, err := NewWindows(start, end, size)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got []Window
	for {
		w, ok := windows.Next()
		if !ok {
			return got
		}
		got = append(got, w)
	}
}

func TestWindowsSingleBlock(t *testing.T) {
	got := collectWindows(t, 100, 103, 1)
	want := []Window{
		{From: 100, To: 100},
		{From: 101, To: 101},
		{From: 102, To: 102},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("windows mismatch: %+v != %+v", got, want)
	}
}

func TestWindowsUnclampedTail(t *testing.T) {
	got := collectWindows(t, 39500492, 39502000, 1000)
	want := []Window{
		{From: 39500492, To: 39501491},
		{From: 39501492, To: 39502491},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("windows mismatch: %+v != %+v", got, want)
	}
}

func TestWindowsEmptyRange(t *testing.T) {
	for _, tc := range [][2]uint64{{10, 10}, {10, 9}} {
		if got := collectWindows(t, tc[0], tc[1], 5); len(got) != 0 {
			t.Fatalf("expected no windows for %v, got %+v", tc, got)
		}
	}
}

func TestWindowsStopsAtUint64Limit(t *testing.T) {
	const max = ^uint64(0)
	got := collectWindows(t, max-3, max, 2)
	want := []Window{
		{From: max - 3, To: max - 2},
		{From: max - 1, To: max},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("windows mismatch: %+v != %+v", got, want)
	}
}

func TestWindowsInvalidSize(t *testing.T) {
	if _, err := NewWindows(1, 10, 0); err == nil {
		t.Fatalf("expected error for zero window size")
	}
}

func TestWindowCount(t *testing.T) {
	if got := WindowCount(100, 103, 1); got != 3 {
		t.Fatalf("count mismatch: %d", got)
	}
	if got := WindowCount(100, 105, 2); got != 3 {
		t.Fatalf("count mismatch: %d", got)
	}
	if got := WindowCount(5, 5, 2); got != 0 {
		t.Fatalf("count mismatch: %d", got)
	}
}
