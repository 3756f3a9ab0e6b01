package machine

import "context"

// StateFunc is a transition function that additionally threads a piece
// of mutable phase state through every invocation. It returns both the
// transition result and the (possibly updated) state; the state is
// retained even when the result is None, which lets one phase absorb
// many independent stimuli before advancing.
type StateFunc[E, A, S, N any] func(ctx context.Context, env E, state S, args A) (Result[N], S)

// WithState is Next with an explicit piece of mutable state.
type WithState[E, A, S, N any] struct {
	fn    StateFunc[E, A, S, N]
	state S
	done  *Result[N]
}

// NewWithState creates a WithState seeded with initial.
func NewWithState[E, A, S, N any](initial S, fn StateFunc[E, A, S, N]) *WithState[E, A, S, N] {
	return &WithState[E, A, S, N]{fn: fn, state: initial}
}

func (w *WithState[E, A, S, N]) Step(ctx context.Context, env E, args A) Result[N] {
	if w.done != nil {
		return *w.done
	}

	res, state := w.fn(ctx, env, w.state, args)
	w.state = state

	if res.Terminal() {
		w.done = &res
	}
	return res
}

// InitFunc derives the initial state of a WithLazyState from the first
// stimulus it receives.
type InitFunc[A, S any] func(args A) S

// WithLazyState is WithState whose initial state is derived from the
// first stimulus rather than supplied up front. Useful when a phase's
// starting data only exists at the moment the phase begins, for
// example the value produced by the previous machine in a chain.
type WithLazyState[E, A, S, N any] struct {
	init    InitFunc[A, S]
	fn      StateFunc[E, A, S, N]
	state   S
	started bool
	done    *Result[N]
}

// NewWithLazyState creates a WithLazyState. init runs once, on the
// first Step call.
func NewWithLazyState[E, A, S, N any](init InitFunc[A, S], fn StateFunc[E, A, S, N]) *WithLazyState[E, A, S, N] {
	return &WithLazyState[E, A, S, N]{init: init, fn: fn}
}

func (w *WithLazyState[E, A, S, N]) Step(ctx context.Context, env E, args A) Result[N] {
	if w.done != nil {
		return *w.done
	}

	if !w.started {
		w.state = w.init(args)
		w.started = true
	}

	res, state := w.fn(ctx, env, w.state, args)
	w.state = state

	if res.Terminal() {
		w.done = &res
	}
	return res
}
