package burst

import (
	"context"
	"reflect"
	"testing"
	"time"
)

func TestInlineMatchesBoundaries(t *testing.T) {
	ts := []int64{0, 200, 1800, 2000}

	got, err := Inline{}.Classify(context.Background(), ts, 1500)
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	want := Boundaries(ts, 1500)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Inline.Classify = %v, want %v", got, want)
	}
}

func TestOffloadedMatchesInline(t *testing.T) {
	off := NewOffloaded()
	defer off.Close()

	inputs := [][]int64{
		nil,
		{500},
		{0, 200, 1800, 2000},
		{0, 2000, 4000, 6000},
	}

	// Include one large sequence, the case the offload path exists for.
	large := make([]int64, 20000)
	for i := range large {
		large[i] = int64(i) * 40
	}
	inputs = append(inputs, large)

	ctx := context.Background()
	for _, ts := range inputs {
		inline, _ := Inline{}.Classify(ctx, ts, 1500)
		offloaded, err := off.Classify(ctx, ts, 1500)
		if err != nil {
			t.Fatalf("Offloaded.Classify(len=%d) returned error: %v", len(ts), err)
		}
		if !reflect.DeepEqual(inline, offloaded) {
			t.Errorf("len=%d: offloaded = %v, inline = %v", len(ts), offloaded, inline)
		}
	}
}

func TestOffloadedSequentialCalls(t *testing.T) {
	off := NewOffloaded()
	defer off.Close()

	ctx := context.Background()
	for i := 0; i < 50; i++ {
		got, err := off.Classify(ctx, []int64{0, 200, 1800, 2000}, 1500)
		if err != nil {
			t.Fatalf("call %d returned error: %v", i, err)
		}
		if !reflect.DeepEqual(got, []int{0, 2, 4}) {
			t.Fatalf("call %d = %v, want [0 2 4]", i, got)
		}
	}
}

func TestOffloadedClosed(t *testing.T) {
	off := NewOffloaded()
	off.Close()
	off.Close() // second Close must not panic

	// Give the worker a moment to observe the close.
	time.Sleep(10 * time.Millisecond)

	_, err := off.Classify(context.Background(), []int64{1, 2}, 1500)
	if err != ErrClosed {
		t.Errorf("Classify after Close returned %v, want ErrClosed", err)
	}
}

func TestOffloadedContextCanceled(t *testing.T) {
	off := NewOffloaded()
	defer off.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The worker may or may not accept the request before the canceled
	// context is observed; either way the call must return promptly.
	done := make(chan struct{})
	go func() {
		off.Classify(ctx, []int64{1, 2, 3}, 1500)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Classify did not return after context cancellation")
	}
}
