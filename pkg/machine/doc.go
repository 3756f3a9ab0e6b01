// Package machine provides a small library of composable asynchronous
// transition primitives for building event-driven, multi-step workflows.
//
// A Machine advances by one step each time an external stimulus is
// delivered to it via Step. The outcome of a step is a tri-state
// Result: the stimulus may be ignored (None), the machine may finish
// and produce a value (Done), or it may fail (Failed).
//
// All primitives share the same latch contract: once a machine has
// produced a terminal result (Done or Failed), every later Step call
// returns that same result without invoking the wrapped logic again.
// This gives at-most-once semantics for the side effects performed
// inside a transition.
//
// The primitives compose:
//
//   - Next wraps a single transition function.
//   - WithState threads an explicit piece of mutable state through
//     every step, so a single phase can absorb many stimuli before
//     deciding to advance.
//   - WithLazyState derives its initial state from the first stimulus.
//   - Chain sequences two machines; the second only ever observes
//     stimuli once the first has completed, and receives the first's
//     produced value alongside them.
//
// Machines are not safe for concurrent use; callers serialize access,
// typically with one mutex per machine instance.
package machine
