package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type timeoutErr struct{}

func (timeoutErr) Error() string { return "i/o timeout" }
func (timeoutErr) Timeout() bool { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("call: %w", context.DeadlineExceeded), ReasonTimeout},
		{fmt.Errorf("call: %w", &StatusError{Code: 500, Body: "boom"}), ReasonStatus},
		{ErrEmptyCompletion, ReasonEmpty},
		{fmt.Errorf("image: %w", ErrNoImage), ReasonEmpty},
		{fmt.Errorf("dial: %w", timeoutErr{}), ReasonTimeout},
		{errors.New("connection refused"), ReasonTransport},
	}
	for _, tc := range cases {
		if got := Classify(tc.err); got != tc.want {
			t.Fatalf("Classify(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestStatusErrorMessage(t *testing.T) {
	err := &StatusError{Code: 429, Body: "rate limited"}
	if err.Error() != "API Error: 429 - rate limited" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}

func TestCacheHitRatio(t *testing.T) {
	if (Usage{}).CacheHitRatio() != 0 {
		t.Fatalf("expected zero ratio")
	}
	if got := (Usage{InputTokens: 4, CachedTokens: 1}).CacheHitRatio(); got != 0.25 {
		t.Fatalf("unexpected ratio: %v", got)
	}
}

type countingCompleter struct{ calls int }

func (c *countingCompleter) Complete(context.Context, Request) (Completion, error) {
	c.calls++
	return Completion{Text: "{}"}, nil
}

func TestWithTextLimitNil(t *testing.T) {
	next := &countingCompleter{}
	if got := WithTextLimit(next, nil); got != TextCompleter(next) {
		t.Fatalf("nil limiter should return next unchanged")
	}
	if NewLimiter(0, 1) != nil {
		t.Fatalf("zero rps should disable limiter")
	}
}

func TestLimitedCompleterTimeout(t *testing.T) {
	next := &countingCompleter{}
	limited := WithTextLimit(next, NewLimiter(0.001, 1))

	if _, err := limited.Complete(context.Background(), Request{}); err != nil {
		t.Fatalf("first call should pass: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := limited.Complete(ctx, Request{})
	if Classify(err) != ReasonTimeout {
		t.Fatalf("expected timeout classification, got %v", err)
	}
	if next.calls != 1 {
		t.Fatalf("limited call must not reach backend, calls=%d", next.calls)
	}
}
