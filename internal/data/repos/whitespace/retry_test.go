package whitespace

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"connection failure", &pgconn.PgError{Code: "08006"}, true},
		{"admin shutdown", fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "57P01"}), true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"syntax error", &pgconn.PgError{Code: "42601"}, false},
		{"closed message", errors.New("SSL connection has been closed unexpectedly"), true},
		{"canceled", context.Canceled, false},
		{"plain", errors.New("boom"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsTransient(tc.err); got != tc.want {
				t.Fatalf("IsTransient(%v): got=%v want=%v", tc.err, got, tc.want)
			}
		})
	}
}

func TestWithRetryRecoversFromDroppedConnection(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 3, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}
	calls := 0
	err := withRetry(context.Background(), nil, policy, "test", func() error {
		calls++
		if calls < 3 {
			return errors.New("server closed the connection unexpectedly")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("withRetry: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls: got=%d want=3", calls)
	}
}

func TestWithRetryStopsOnPermanentError(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 5, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}
	calls := 0
	want := &pgconn.PgError{Code: "23505"}
	err := withRetry(context.Background(), nil, policy, "test", func() error {
		calls++
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("err: got=%v want=%v", err, want)
	}
	if calls != 1 {
		t.Fatalf("calls: got=%d want=1", calls)
	}
}

func TestWithRetryGivesUpAfterMaxRetries(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}
	calls := 0
	err := withRetry(context.Background(), nil, policy, "test", func() error {
		calls++
		return errors.New("connection not open")
	})
	if err == nil {
		t.Fatalf("expected error after retries")
	}
	if calls != 3 {
		t.Fatalf("calls: got=%d want=3", calls)
	}
}
