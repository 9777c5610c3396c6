package databricks

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Retry bounds for remote calls.
const (
	defaultAttempts = 5
	defaultBackoff  = 5 * time.Second
	maxBackoff      = time.Minute
)

// Retry wraps single remote calls with bounded retry/backoff and polling
// predicates with a bounded wait.
type Retry struct {
	Attempts int
	Backoff  time.Duration
	Logger   *logrus.Logger
}

func NewRetry(logger *logrus.Logger) *Retry {
	return &Retry{Attempts: defaultAttempts, Backoff: defaultBackoff, Logger: logger}
}

// Do invokes op, retrying transient failures with doubling backoff up to the
// attempt bound. Non-transient failures propagate immediately; a transient
// failure that exhausts the bound surfaces as a permanent one.
func (r *Retry) Do(ctx context.Context, label string, op func() error) error {
	delay := r.Backoff
	var err error
	for attempt := 1; attempt <= r.Attempts; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return err
		}
		if attempt == r.Attempts {
			break
		}
		r.Logger.Warnf("%s failed (attempt %d/%d), retrying in %s: %v", label, attempt, r.Attempts, delay, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > maxBackoff {
			delay = maxBackoff
		}
	}
	return fmt.Errorf("%s: giving up after %d attempts: %w", label, r.Attempts, err)
}

// WaitForCompletion polls done at a fixed interval until it reports true or
// the timeout elapses. A timeout returns false without an error; predicate
// errors are logged and polling continues.
func (r *Retry) WaitForCompletion(ctx context.Context, label string, interval, timeout time.Duration, done func() (bool, error)) bool {
	deadline := time.Now().Add(timeout)
	for {
		ok, err := done()
		if err != nil {
			r.Logger.Warnf("%s: poll failed: %v", label, err)
		} else if ok {
			return true
		}
		if !time.Now().Before(deadline) {
			r.Logger.Warnf("%s: timed out after %s", label, timeout)
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(interval):
		}
	}
}
