package shared

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func fastRetry(max int) RetryConfig {
	return RetryConfig{MaxRetries: max, InitialWait: time.Millisecond, MaxWait: 2 * time.Millisecond, Multiplier: 2}
}

func TestRetryDo(t *testing.T) {
	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		got, err := RetryDo(context.Background(), fastRetry(3), func() (string, error) {
			calls++
			if calls < 3 {
				return "", &StatusError{StatusCode: http.StatusServiceUnavailable}
			}
			return "ok", nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "ok" || calls != 3 {
			t.Errorf("got %q after %d calls, want ok after 3", got, calls)
		}
	})

	t.Run("stops on non-retryable errors", func(t *testing.T) {
		calls := 0
		_, err := RetryDo(context.Background(), fastRetry(3), func() (int, error) {
			calls++
			return 0, &StatusError{StatusCode: http.StatusBadRequest}
		})
		if err == nil {
			t.Fatal("expected error")
		}
		if calls != 1 {
			t.Errorf("expected 1 call, got %d", calls)
		}
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		calls := 0
		retried := 0
		rc := fastRetry(2)
		rc.OnRetry = func(int, time.Duration, error) { retried++ }

		_, err := RetryDo(context.Background(), rc, func() (int, error) {
			calls++
			return 0, &StatusError{StatusCode: http.StatusTooManyRequests}
		})

		var statusErr *StatusError
		if !errors.As(err, &statusErr) {
			t.Fatalf("expected StatusError, got %v", err)
		}
		if calls != 3 || retried != 2 {
			t.Errorf("calls = %d retried = %d, want 3 and 2", calls, retried)
		}
	})

	t.Run("honors cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := RetryDo(ctx, fastRetry(3), func() (int, error) {
			t.Error("fn should not be called")
			return 0, nil
		})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestIsRetryableStatus(t *testing.T) {
	for code, want := range map[int]bool{429: true, 500: true, 502: true, 503: true, 504: true, 400: false, 401: false, 404: false} {
		if got := IsRetryableStatus(code); got != want {
			t.Errorf("IsRetryableStatus(%d) = %v, want %v", code, got, want)
		}
	}
}
