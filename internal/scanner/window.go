package scanner

import "fmt"

// Window represents an inclusive block range queried in one call.
type Window struct {
	From uint64
	To   uint64
}

// Windows yields the windows [i, i+size-1] for i stepping from start while
// i < end, one at a time. The last window is not clamped to end.
type Windows struct {
	next uint64
	end  uint64
	size uint64
	done bool
}

// NewWindows validates the range settings. An end at or below start yields no
// windows.
func NewWindows(start, end, size uint64) (*Windows, error) {
	if size == 0 {
		return nil, fmt.Errorf("window size must be greater than zero")
	}
	return &Windows{next: start, end: end, size: size, done: end <= start}, nil
}

// Next returns the next window, or false once the range is exhausted.
func (w *Windows) Next() (Window, bool) {
	if w.done || w.next >= w.end {
		return Window{}, false
	}
	window := Window{From: w.next, To: w.next + w.size - 1}
	if w.next+w.size < w.next {
		w.done = true
	} else {
		w.next += w.size
	}
	return window, true
}

// WindowCount returns how many windows cover [start, end).
func WindowCount(start, end, size uint64) uint64 {
	if size == 0 || end <= start {
		return 0
	}
	span := end - start
	return (span + size - 1) / size
}
