package scanner

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"

	"airdropLedger/internal/model"
)

type fakeSource struct {
	calls    []Window
	failures map[uint64]int
	events   map[uint64][]model.RawEvent
}

func (f *fakeSource) GetEvents(_ context.Context, fromBlock, toBlock uint64) ([]model.RawEvent, error) {
	f.calls = append(f.calls, Window{From: fromBlock, To: toBlock})
	if f.failures[fromBlock] > 0 {
		f.failures[fromBlock]--
		return nil, errors.New("rate limited")
	}
	return f.events[fromBlock], nil
}

func TestScanCoversWindowsInOrder(t *testing.T) {
	source := &fakeSource{}
	scanner := New(Config{StartBlock: 100, EndBlock: 103, WindowSize: 1}, source, Hooks{}, zap.NewNop())

	var handled []Window
	err := scanner.Scan(context.Background(), func(_ context.Context, w Window, _ []model.RawEvent) error {
		handled = append(handled, w)
		return nil
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	want := []Window{{From: 100, To: 100}, {From: 101, To: 101}, {From: 102, To: 102}}
	if !reflect.DeepEqual(source.calls, want) {
		t.Fatalf("requested windows mismatch: %+v", source.calls)
	}
	if !reflect.DeepEqual(handled, want) {
		t.Fatalf("handled windows mismatch: %+v", handled)
	}
}

func TestScanRetriesSameWindow(t *testing.T) {
	event := model.RawEvent{EventName: "Buy", BlockNumber: 101, TxHash: "0xabc", LogIndex: 2}
	source := &fakeSource{
		failures: map[uint64]int{101: 2},
		events:   map[uint64][]model.RawEvent{101: {event}},
	}

	var retries []int
	hooks := Hooks{OnRetry: func(p Progress, _ error) { retries = append(retries, p.Attempt) }}
	scanner := New(Config{StartBlock: 100, EndBlock: 102, WindowSize: 1}, source, hooks, nil)

	delivered := 0
	err := scanner.Scan(context.Background(), func(_ context.Context, w Window, events []model.RawEvent) error {
		if w.From == 101 {
			delivered += len(events)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	if delivered != 1 {
		t.Fatalf("expected window 101 delivered once, got %d events", delivered)
	}
	if !reflect.DeepEqual(retries, []int{1, 2}) {
		t.Fatalf("retry attempts mismatch: %v", retries)
	}
	wantCalls := []Window{{100, 100}, {101, 101}, {101, 101}, {101, 101}}
	if !reflect.DeepEqual(source.calls, wantCalls) {
		t.Fatalf("calls mismatch: %+v", source.calls)
	}
}

func TestScanEmptyRange(t *testing.T) {
	source := &fakeSource{}
	scanner := New(Config{StartBlock: 10, EndBlock: 10, WindowSize: 5}, source, Hooks{}, nil)
	err := scanner.Scan(context.Background(), func(context.Context, Window, []model.RawEvent) error {
		t.Fatalf("handler must not be called")
		return nil
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(source.calls) != 0 {
		t.Fatalf("expected no source calls, got %d", len(source.calls))
	}
}

func TestScanStopsOnCancel(t *testing.T) {
	source := &fakeSource{failures: map[uint64]int{0: 1 << 30}}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hooks := Hooks{OnRetry: func(p Progress, _ error) {
		if p.Attempt == 3 {
			cancel()
		}
	}}
	scanner := New(Config{StartBlock: 0, EndBlock: 10, WindowSize: 10}, source, hooks, nil)

	err := scanner.Scan(ctx, func(context.Context, Window, []model.RawEvent) error {
		t.Fatalf("handler must not be called")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(source.calls) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(source.calls))
	}
}

func TestScanHandlerErrorIsFatal(t *testing.T) {
	source := &fakeSource{}
	scanner := New(Config{StartBlock: 0, EndBlock: 3, WindowSize: 1}, source, Hooks{}, nil)

	boom := errors.New("boom")
	err := scanner.Scan(context.Background(), func(_ context.Context, w Window, _ []model.RawEvent) error {
		if w.From == 1 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected handler error, got %v", err)
	}
	if len(source.calls) != 2 {
		t.Fatalf("expected scan to stop after window 1, calls=%d", len(source.calls))
	}
}

type waitRecorder struct {
	delays []time.Duration
	calls  *[]Window
	after  []int
}

func (r *waitRecorder) wait(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	r.after = append(r.after, len(*r.calls))
	return nil
}

func TestScanWaitsBetweenWindowsAndRetries(t *testing.T) {
	source := &fakeSource{failures: map[uint64]int{11: 2}}
	cfg := Config{StartBlock: 10, EndBlock: 13, WindowSize: 1, RetryDelay: 7 * time.Millisecond, WindowDelay: 3 * time.Millisecond}
	scanner := New(cfg, source, Hooks{}, nil)
	recorder := &waitRecorder{calls: &source.calls}
	scanner.wait = recorder.wait

	err := scanner.Scan(context.Background(), func(context.Context, Window, []model.RawEvent) error { return nil })
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	wantDelays := []time.Duration{3 * time.Millisecond, 7 * time.Millisecond, 7 * time.Millisecond, 3 * time.Millisecond}
	if !reflect.DeepEqual(recorder.delays, wantDelays) {
		t.Fatalf("delays mismatch: %v", recorder.delays)
	}
	// source calls made before each wait; nothing follows the last window
	wantAfter := []int{1, 2, 3, 4}
	if !reflect.DeepEqual(recorder.after, wantAfter) {
		t.Fatalf("wait positions mismatch: %v", recorder.after)
	}
	if len(source.calls) != 5 {
		t.Fatalf("expected 5 source calls, got %d", len(source.calls))
	}
}

func TestScanSingleWindowDoesNotWait(t *testing.T) {
	source := &fakeSource{}
	scanner := New(Config{StartBlock: 0, EndBlock: 5, WindowSize: 10, WindowDelay: time.Hour}, source, Hooks{}, nil)
	recorder := &waitRecorder{calls: &source.calls}
	scanner.wait = recorder.wait

	if err := scanner.Scan(context.Background(), func(context.Context, Window, []model.RawEvent) error { return nil }); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(recorder.delays) != 0 {
		t.Fatalf("expected no wait, got %v", recorder.delays)
	}
}

func TestScanWindowDelayElapses(t *testing.T) {
	source := &fakeSource{failures: map[uint64]int{0: 1}}
	cfg := Config{StartBlock: 0, EndBlock: 2, WindowSize: 1, RetryDelay: 20 * time.Millisecond, WindowDelay: 30 * time.Millisecond}
	scanner := New(cfg, source, Hooks{}, nil)

	start := time.Now()
	if err := scanner.Scan(context.Background(), func(context.Context, Window, []model.RawEvent) error { return nil }); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Fatalf("expected at least one retry and one window delay, took %v", elapsed)
	}
}
