package machine

import "context"

// Chained runs two machines one after the other. Every stimulus is fed
// to the first machine until it completes; the step on which the first
// completes is reported to the caller as None, and all later stimuli
// are fed to the second machine together with the first's produced
// value. The intermediate value never escapes.
//
// If the first machine fails, the error latches immediately and the
// second machine is never invoked.
type Chained[E, A, M, N any] struct {
	first  Machine[E, A, M]
	second Machine[E, M, N]

	mid   *M
	final *Result[N]
}

// Chain composes first and second into a single machine.
func Chain[E, A, M, N any](first Machine[E, A, M], second Machine[E, M, N]) *Chained[E, A, M, N] {
	return &Chained[E, A, M, N]{first: first, second: second}
}

func (c *Chained[E, A, M, N]) Step(ctx context.Context, env E, args A) Result[N] {
	if c.final != nil {
		return *c.final
	}

	if c.mid == nil {
		res := c.first.Step(ctx, env, args)
		switch res.Outcome {
		case OutcomeNone:
			return None[N]()
		case OutcomeFailed:
			failed := Failed[N](res.Err)
			c.final = &failed
			return failed
		default:
			mid := res.Value
			c.mid = &mid
			// The first machine consumed this stimulus; the
			// second starts with the next one.
			return None[N]()
		}
	}

	res := c.second.Step(ctx, env, *c.mid)
	if res.Terminal() {
		c.final = &res
	}
	return res
}
