// Package registry tracks the live state machines of a bot instance,
// keyed by the chat message they are bound to, and enforces the
// one-round-per-guild rule.
package registry

import (
	"context"
	"errors"
	"sync"

	"github.com/fenrisbot/fenris/internal/chat"
	"github.com/fenrisbot/fenris/internal/storage"
	"github.com/fenrisbot/fenris/pkg/machine"
)

// Env is the environment handed to a machine on every step: the
// outgoing chat capability, role persistence, and the event that
// triggered the step.
type Env struct {
	Messenger chat.Messenger
	Store     storage.RoleStore
	Event     chat.Event
	Guild     chat.GuildID
}

// ErrRoundRunning is returned when a guild already has a running or
// starting round.
var ErrRoundRunning = errors.New("a round is already running in this guild")

// Machine is a state machine bound to one chat message.
type Machine interface {
	Step(ctx context.Context, env *Env) machine.Result[struct{}]

	GuildID() chat.GuildID
	MessageID() chat.MessageID
}

type entry struct {
	// Serializes steps of one machine. Steps of different machines
	// may run concurrently.
	mu sync.Mutex
	m  Machine
}

// Registry holds the machines of all guilds. A machine is removed the
// moment one of its steps returns a terminal result, and if it held
// its guild's round reservation, that reservation is released with it.
type Registry struct {
	mu       sync.RWMutex
	machines map[chat.MessageID]*entry

	// resMu guards running. "" as a value marks a reservation whose
	// message id is not known yet.
	resMu   sync.Mutex
	running map[chat.GuildID]chat.MessageID
}

func New() *Registry {
	return &Registry{
		machines: make(map[chat.MessageID]*entry),
		running:  make(map[chat.GuildID]chat.MessageID),
	}
}

// Reserve claims the guild's single round slot before the round's
// message exists. Bind attaches the message id once known; Release
// frees the slot again.
func (r *Registry) Reserve(guild chat.GuildID) error {
	r.resMu.Lock()
	defer r.resMu.Unlock()
	if _, taken := r.running[guild]; taken {
		return ErrRoundRunning
	}
	r.running[guild] = ""
	return nil
}

// Bind records the message id of the guild's reserved round.
func (r *Registry) Bind(guild chat.GuildID, message chat.MessageID) {
	r.resMu.Lock()
	defer r.resMu.Unlock()
	r.running[guild] = message
}

// Release frees the guild's round slot, but only while it is still
// bound to the given message. Passing the zero message id releases an
// unbound reservation. A slot claimed by a different round stays
// untouched, so machines that never held the slot cannot free it.
func (r *Registry) Release(guild chat.GuildID, message chat.MessageID) {
	r.resMu.Lock()
	defer r.resMu.Unlock()
	if current, ok := r.running[guild]; ok && current == message {
		delete(r.running, guild)
	}
}

// RoundRunning reports whether the guild currently holds a round slot.
func (r *Registry) RoundRunning(guild chat.GuildID) bool {
	r.resMu.Lock()
	defer r.resMu.Unlock()
	_, ok := r.running[guild]
	return ok
}

// Add registers a machine under its message id.
func (r *Registry) Add(m Machine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.machines[m.MessageID()] = &entry{m: m}
}

// Len returns the number of registered machines.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.machines)
}

func (r *Registry) lookup(message chat.MessageID) *entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.machines[message]
}

// Update steps the machine bound to env.Event.Message, waiting for its
// turn if a step is already in flight. It reports whether a machine
// was found.
func (r *Registry) Update(ctx context.Context, env *Env) bool {
	e := r.lookup(env.Event.Message)
	if e == nil {
		return false
	}

	e.mu.Lock()
	res := e.m.Step(ctx, env)
	e.mu.Unlock()

	if res.Terminal() {
		r.finish(e)
	}
	return true
}

// TryUpdate is Update without waiting: if the machine is mid-step it
// reports contention instead of blocking, so the caller can retry
// later. The found result says whether a machine exists at all.
func (r *Registry) TryUpdate(ctx context.Context, env *Env) (found, stepped bool) {
	e := r.lookup(env.Event.Message)
	if e == nil {
		return false, false
	}

	if !e.mu.TryLock() {
		return true, false
	}
	res := e.m.Step(ctx, env)
	e.mu.Unlock()

	if res.Terminal() {
		r.finish(e)
	}
	return true, true
}

// finish removes a terminal machine and releases its guild's round
// slot if this machine holds it.
func (r *Registry) finish(e *entry) {
	r.mu.Lock()
	delete(r.machines, e.m.MessageID())
	r.mu.Unlock()

	r.Release(e.m.GuildID(), e.m.MessageID())
}
