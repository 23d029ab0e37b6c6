package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"time"
)

// backoff holds the retry knobs shared by every runtime.
type backoff struct {
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

// attemptResult tells the retry loop what to do after one attempt.
type attemptResult struct {
	err   error
	retry bool
	// wait overrides the computed delay, e.g. from Retry-After.
	wait time.Duration
}

// run calls attempt until it succeeds, returns a non-retryable error, or
// the attempts run out. Sleeps honor ctx.
func (b backoff) run(ctx context.Context, attempt func() attemptResult) error {
	delay := b.baseDelay
	var last error
	for i := 1; i <= b.maxAttempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		res := attempt()
		if res.err == nil {
			return nil
		}
		last = res.err
		if !res.retry || i == b.maxAttempts {
			break
		}
		wait := res.wait
		if wait <= 0 {
			wait = withJitter(delay)
			if b.maxDelay > 0 && wait > b.maxDelay {
				wait = b.maxDelay
			}
			delay *= 2
		}
		if err := sleepCtx(ctx, wait); err != nil {
			return err
		}
	}
	return last
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func isRetryableNetErr(err error) bool {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	return errors.Is(err, io.EOF)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || (code >= 500 && code <= 599)
}

// parseRetryAfterSeconds reads a Retry-After value given as seconds or an
// HTTP date.
func parseRetryAfterSeconds(v string) (int, error) {
	if s, err := strconv.Atoi(v); err == nil {
		return s, nil
	}
	if t, err := http.ParseTime(v); err == nil {
		d := time.Until(t)
		if d < 0 {
			d = 0
		}
		return int(d.Seconds()), nil
	}
	return 0, fmt.Errorf("invalid Retry-After: %q", v)
}

func retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := parseRetryAfterSeconds(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return 0
}

// withJitter spreads d by +/- 20%.
func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 500 * time.Millisecond
	}
	f := 0.8 + rand.Float64()*0.4
	out := time.Duration(float64(d) * f)
	if out <= 0 {
		return d
	}
	return out
}
