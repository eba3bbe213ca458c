package stream

import (
	"errors"
	"time"
)

// ErrRetriesExhausted is the terminal failure reported when a bounded
// reconnect policy runs out of attempts.
var ErrRetriesExhausted = errors.New("reconnect attempts exhausted")

// RetryPolicy expresses a reconnect contract as configuration. The live
// telemetry feed and the subscription channel differ only in these two
// values, never in control flow: the feed retries forever at a fixed 5s
// delay, the subscription channel gives up after 5 attempts at 3s.
type RetryPolicy struct {
	Delay       time.Duration
	MaxAttempts int // 0 means unbounded
}

// Unbounded reports whether the policy never gives up.
func (p RetryPolicy) Unbounded() bool {
	return p.MaxAttempts == 0
}

// Exhausted reports whether the given attempt number exceeds the policy.
func (p RetryPolicy) Exhausted(attempt int) bool {
	return !p.Unbounded() && attempt > p.MaxAttempts
}
