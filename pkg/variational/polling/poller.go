// Package polling waits for asynchronous Variational resources (settlement
// pools, transfers, quotes, RFQs) to reach a desired lifecycle status.
package polling

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/variational-research/variational-go/pkg/variational"
)

const (
	DefaultInterval = time.Second
	DefaultAttempts = 10
)

// Status is any string-backed lifecycle enum.
type Status interface {
	~string
}

// Target describes one resource to wait for. Fetch returns every resource
// matching the id; only the first is inspected.
type Target[T any, S Status] struct {
	ObjectType string
	ObjectID   string
	// Desired holds the statuses that end the wait successfully.
	Desired []S
	Fetch   func(ctx context.Context) ([]T, error)
	Status  func(T) S
	IsFinal func(S) bool
}

func (t Target[T, S]) validate() error {
	if t.Fetch == nil || t.Status == nil || t.IsFinal == nil {
		return fmt.Errorf("polling: target %s '%s' is missing a capability", t.ObjectType, t.ObjectID)
	}
	if len(t.Desired) == 0 {
		return fmt.Errorf("polling: target %s '%s' has no desired status", t.ObjectType, t.ObjectID)
	}
	return nil
}

func (t Target[T, S]) desired(status S) bool {
	for _, d := range t.Desired {
		if status == d {
			return true
		}
	}
	return false
}

func (t Target[T, S]) desiredString() string {
	parts := make([]string, len(t.Desired))
	for i, d := range t.Desired {
		parts[i] = string(d)
	}
	return strings.Join(parts, "' or '")
}

// Poller carries the pacing shared by every wait. It holds no per-call state
// and may be used from several goroutines.
type Poller struct {
	interval time.Duration
	attempts int
	sleep    func(context.Context, time.Duration) error
	clock    func() time.Time
	observer Observer
}

// Option customises a Poller.
type Option func(*Poller)

// WithSleeper overrides how the poller waits between attempts.
func WithSleeper(sleep func(context.Context, time.Duration) error) Option {
	return func(p *Poller) {
		if sleep != nil {
			p.sleep = sleep
		}
	}
}

// WithClock overrides the timestamps attached to observations.
func WithClock(clock func() time.Time) Option {
	return func(p *Poller) {
		if clock != nil {
			p.clock = clock
		}
	}
}

// WithObserver receives one Observation per attempt.
func WithObserver(o Observer) Option {
	return func(p *Poller) {
		p.observer = o
	}
}

// New returns a poller that makes at most attempts fetches, interval apart.
func New(interval time.Duration, attempts int, opts ...Option) (*Poller, error) {
	if attempts < 1 {
		return nil, fmt.Errorf("polling: attempts must be >= 1, got %d", attempts)
	}
	if interval < 0 {
		return nil, fmt.Errorf("polling: interval cannot be negative, got %s", interval)
	}
	p := &Poller{
		interval: interval,
		attempts: attempts,
		sleep:    variational.SleepContext,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Default uses DefaultInterval and DefaultAttempts.
func Default(opts ...Option) *Poller {
	p, _ := New(DefaultInterval, DefaultAttempts, opts...)
	return p
}

// Interval is the pause between consecutive fetches.
func (p *Poller) Interval() time.Duration { return p.interval }

// Attempts is the fetch budget of a single wait.
func (p *Poller) Attempts() int { return p.attempts }

// WaitFor fetches the target until its status is one of target.Desired. It
// fails with *NotFoundError when the fetch comes back empty, with
// *UnexpectedStatusError when another final status is reached, and with
// *TimeoutError once the attempt budget is spent. The first fetch happens
// immediately; later ones follow a sleep of the poller's interval.
func WaitFor[T any, S Status](ctx context.Context, p *Poller, target Target[T, S]) (T, error) {
	var zero T
	if p == nil {
		return zero, fmt.Errorf("polling: nil poller")
	}
	if err := target.validate(); err != nil {
		return zero, err
	}
	logger := logx.WithContext(ctx)

	for attempt := 0; attempt < p.attempts; attempt++ {
		if attempt > 0 {
			if err := p.sleep(ctx, p.interval); err != nil {
				return zero, err
			}
		}

		objs, err := target.Fetch(ctx)
		if err != nil {
			p.observe(ctx, target.ObjectType, target.ObjectID, attempt, "", OutcomeError)
			return zero, fmt.Errorf("polling: fetch %s '%s': %w", target.ObjectType, target.ObjectID, err)
		}
		if len(objs) == 0 {
			p.observe(ctx, target.ObjectType, target.ObjectID, attempt, "", OutcomeNotFound)
			return zero, &NotFoundError{ObjectType: target.ObjectType, ObjectID: target.ObjectID}
		}

		obj := objs[0]
		status := target.Status(obj)
		logger.Debugf("polling: %s '%s' attempt %d/%d status '%s'",
			target.ObjectType, target.ObjectID, attempt+1, p.attempts, status)

		if target.desired(status) {
			p.observe(ctx, target.ObjectType, target.ObjectID, attempt, string(status), OutcomeMatched)
			return obj, nil
		}
		if target.IsFinal(status) {
			p.observe(ctx, target.ObjectType, target.ObjectID, attempt, string(status), OutcomeUnexpectedFinal)
			return zero, &UnexpectedStatusError{
				ObjectType: target.ObjectType,
				ObjectID:   target.ObjectID,
				Status:     string(status),
			}
		}
		p.observe(ctx, target.ObjectType, target.ObjectID, attempt, string(status), OutcomePending)
	}

	p.observe(ctx, target.ObjectType, target.ObjectID, p.attempts, "", OutcomeTimedOut)
	return zero, &TimeoutError{
		ObjectType: target.ObjectType,
		ObjectID:   target.ObjectID,
		Desired:    target.desiredString(),
		Attempts:   p.attempts,
	}
}

func (p *Poller) observe(ctx context.Context, objectType, objectID string, attempt int, status string, outcome Outcome) {
	if p.observer == nil {
		return
	}
	p.observer.Observe(ctx, Observation{
		At:         p.clock(),
		ObjectType: objectType,
		ObjectID:   objectID,
		Attempt:    attempt,
		Status:     status,
		Outcome:    outcome,
	})
}
