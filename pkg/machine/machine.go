package machine

import "context"

// Outcome classifies the result of a single transition attempt.
type Outcome int

const (
	// OutcomeNone means the stimulus was ignored and the machine
	// stays where it is.
	OutcomeNone Outcome = iota
	// OutcomeDone means the machine finished and produced a value.
	OutcomeDone
	// OutcomeFailed means the machine failed fatally.
	OutcomeFailed
)

// Result is the tri-state outcome of a transition attempt.
type Result[N any] struct {
	Outcome Outcome
	Value   N
	Err     error
}

// None reports that no transition occurred.
func None[N any]() Result[N] {
	return Result[N]{Outcome: OutcomeNone}
}

// Done reports that the machine finished and produced value.
func Done[N any](value N) Result[N] {
	return Result[N]{Outcome: OutcomeDone, Value: value}
}

// Failed reports that the machine failed with err.
func Failed[N any](err error) Result[N] {
	return Result[N]{Outcome: OutcomeFailed, Err: err}
}

// Terminal reports whether the result latches the machine.
func (r Result[N]) Terminal() bool {
	return r.Outcome != OutcomeNone
}

// Machine is the uniform "advance one step" capability shared by all
// transition primitives. E is the per-invocation environment bundle
// (capability handles plus the current event), A the argument type and
// N the value produced on completion.
type Machine[E, A, N any] interface {
	Step(ctx context.Context, env E, args A) Result[N]
}

// Func is a single transition function.
type Func[E, A, N any] func(ctx context.Context, env E, args A) Result[N]

// Next wraps one transition function and latches its first terminal
// result.
type Next[E, A, N any] struct {
	fn   Func[E, A, N]
	done *Result[N]
}

// NewNext creates a Next around fn.
func NewNext[E, A, N any](fn Func[E, A, N]) *Next[E, A, N] {
	return &Next[E, A, N]{fn: fn}
}

func (n *Next[E, A, N]) Step(ctx context.Context, env E, args A) Result[N] {
	if n.done != nil {
		return *n.done
	}

	res := n.fn(ctx, env, args)
	if res.Terminal() {
		n.done = &res
	}
	return res
}
