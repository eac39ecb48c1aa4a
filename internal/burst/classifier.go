package burst

import (
	"context"
	"errors"
	"sync"
)

// DefaultOffloadThreshold is the library size above which callers
// typically route classification through an Offloaded worker instead of
// scanning inline. Purely a latency knob; both paths return identical
// boundaries for identical input.
const DefaultOffloadThreshold = 5000

// ErrClosed is returned by an Offloaded classifier after Close.
var ErrClosed = errors.New("burst: classifier closed")

// Classifier produces group boundaries for a sorted timestamp sequence.
// Implementations must be deterministic: same input, same output,
// regardless of where the scan runs.
type Classifier interface {
	Classify(ctx context.Context, sortedMs []int64, thresholdMs int64) ([]int, error)
}

// Inline runs the scan on the calling goroutine. The context is unused;
// the scan itself never blocks.
type Inline struct{}

func (Inline) Classify(_ context.Context, sortedMs []int64, thresholdMs int64) ([]int, error) {
	return Boundaries(sortedMs, thresholdMs), nil
}

// Offloaded ships timestamp sequences to a dedicated worker goroutine
// so large scans stay off a latency-sensitive caller. Only the numeric
// timestamps cross the goroutine boundary; re-associating boundaries
// with photo objects stays with the caller.
type Offloaded struct {
	requests  chan offloadRequest
	done      chan struct{}
	closeOnce sync.Once
}

type offloadRequest struct {
	sortedMs    []int64
	thresholdMs int64
	reply       chan []int
}

// NewOffloaded starts the worker goroutine. Callers own the returned
// classifier and should Close it when done.
func NewOffloaded() *Offloaded {
	o := &Offloaded{
		requests: make(chan offloadRequest),
		done:     make(chan struct{}),
	}
	go o.run()
	return o
}

func (o *Offloaded) run() {
	for {
		select {
		case req := <-o.requests:
			req.reply <- Boundaries(req.sortedMs, req.thresholdMs)
		case <-o.done:
			return
		}
	}
}

func (o *Offloaded) Classify(ctx context.Context, sortedMs []int64, thresholdMs int64) ([]int, error) {
	reply := make(chan []int, 1)

	select {
	case o.requests <- offloadRequest{sortedMs: sortedMs, thresholdMs: thresholdMs, reply: reply}:
	case <-o.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case bounds := <-reply:
		return bounds, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops the worker goroutine. Safe to call more than once.
func (o *Offloaded) Close() {
	o.closeOnce.Do(func() { close(o.done) })
}

// Compile-time interface checks.
var (
	_ Classifier = Inline{}
	_ Classifier = (*Offloaded)(nil)
)
