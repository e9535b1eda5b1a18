package polling

import (
	"context"
	"time"
)

// Outcome classifies a single poll attempt.
type Outcome string

const (
	OutcomePending         Outcome = "pending"
	OutcomeMatched         Outcome = "matched"
	OutcomeUnexpectedFinal Outcome = "unexpected_final"
	OutcomeNotFound        Outcome = "not_found"
	OutcomeTimedOut        Outcome = "timed_out"
	OutcomeError           Outcome = "error"
)

// Terminal reports whether no further attempt follows this outcome.
func (o Outcome) Terminal() bool { return o != OutcomePending }

// Observation is emitted once per attempt, plus once on timeout with
// Attempt equal to the attempt budget.
type Observation struct {
	At         time.Time
	ObjectType string
	ObjectID   string
	Attempt    int
	Status     string
	Outcome    Outcome
}

// Observer receives poll observations. Implementations must not block for
// long; they run on the waiting goroutine.
type Observer interface {
	Observe(ctx context.Context, obs Observation)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, obs Observation)

func (f ObserverFunc) Observe(ctx context.Context, obs Observation) { f(ctx, obs) }

// Observers fans out to several observers in order; nil entries are skipped.
func Observers(list ...Observer) Observer {
	return ObserverFunc(func(ctx context.Context, obs Observation) {
		for _, o := range list {
			if o != nil {
				o.Observe(ctx, obs)
			}
		}
	})
}
