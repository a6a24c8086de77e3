package whitespace

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/yungbote/whitespace-backend/internal/platform/logger"
)

// RetryPolicy bounds how long a storage call is retried after a dropped
// connection.
type RetryPolicy struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, InitialInterval: 100 * time.Millisecond, MaxInterval: 2 * time.Second}
}

var recoverableMessages = []string{
	"ssl connection has been closed unexpectedly",
	"server closed the connection unexpectedly",
	"connection already closed",
	"connection not open",
	"conn closed",
	"broken pipe",
	"connection reset by peer",
}

// IsTransient reports whether err is a dropped or refused connection that is
// worth retrying. Query errors, constraint violations and cancellations are
// permanent.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		code := strings.TrimSpace(pgErr.Code)
		switch {
		case strings.HasPrefix(code, "08"): // connection_exception
			return true
		case code == "57P01", code == "57P02", code == "57P03": // admin/crash shutdown, cannot_connect_now
			return true
		}
		return false
	}
	if pgconn.SafeToRetry(err) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range recoverableMessages {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func withRetry(ctx context.Context, log *logger.Logger, policy RetryPolicy, op string, fn func() error) error {
	b := backoff.NewExponentialBackOff()
	if policy.InitialInterval > 0 {
		b.InitialInterval = policy.InitialInterval
	}
	if policy.MaxInterval > 0 {
		b.MaxInterval = policy.MaxInterval
	}
	maxRetries := policy.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	attempt := 0
	operation := func() error {
		attempt++
		err := fn()
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return backoff.Permanent(err)
		}
		if log != nil {
			log.Warn("transient storage error, retrying", "op", op, "attempt", attempt, "error", err)
		}
		return err
	}
	return backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(b, uint64(maxRetries)), ctx))
}
