// Package notify delivers internal wake-up events to registered state
// machines. Machines that need a follow-up step without any user
// action (for example after a background computation finished) enqueue
// a notification; a background loop steps them when they are free.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fenrisbot/fenris/internal/chat"
	"github.com/fenrisbot/fenris/internal/registry"
	"github.com/fenrisbot/fenris/internal/storage"
)

// Task is one pending notification.
type Task struct {
	ID      string
	Guild   chat.GuildID
	Message chat.MessageID

	EnqueuedAt time.Time

	// NotBefore is the earliest time this task is eligible for
	// delivery. Zero value means immediately.
	NotBefore time.Time
}

const defaultRetryDelay = 50 * time.Millisecond

// Notifier queues notifications and delivers them to the registry.
// The queue is unbounded, so Notify never blocks on a full buffer.
type Notifier struct {
	reg       *registry.Registry
	messenger chat.Messenger
	store     storage.RoleStore
	log       zerolog.Logger

	// retryDelay is how long a task is parked when its machine was
	// busy with another step.
	retryDelay time.Duration

	mu    sync.Mutex
	cond  *sync.Cond
	queue []Task
}

func New(reg *registry.Registry, messenger chat.Messenger, store storage.RoleStore, log zerolog.Logger) *Notifier {
	n := &Notifier{
		reg:        reg,
		messenger:  messenger,
		store:      store,
		log:        log,
		retryDelay: defaultRetryDelay,
	}
	n.cond = sync.NewCond(&n.mu)
	return n
}

// Notify schedules a wake-up step for the machine bound to message.
func (n *Notifier) Notify(guild chat.GuildID, message chat.MessageID) {
	n.enqueue(Task{
		ID:         uuid.NewString(),
		Guild:      guild,
		Message:    message,
		EnqueuedAt: time.Now(),
	})
}

func (n *Notifier) enqueue(t Task) {
	n.mu.Lock()
	n.queue = append(n.queue, t)
	n.mu.Unlock()
	n.cond.Broadcast()
}

// Len returns the number of queued notifications.
func (n *Notifier) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.queue)
}

// Run delivers notifications until ctx is cancelled. A notification
// whose machine is mid-step is re-queued with a short delay instead of
// blocking the loop.
func (n *Notifier) Run(ctx context.Context) error {
	// Wake the dequeue loop when the context ends.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			n.cond.Broadcast()
		case <-done:
		}
	}()

	for {
		task, err := n.next(ctx)
		if err != nil {
			return err
		}

		env := &registry.Env{
			Messenger: n.messenger,
			Store:     n.store,
			Event:     chat.Notification(task.Guild, task.Message),
			Guild:     task.Guild,
		}

		found, stepped := n.reg.TryUpdate(ctx, env)
		switch {
		case !found:
			// The machine finished or was evicted before the
			// notification arrived.
			n.log.Debug().
				Str("message", string(task.Message)).
				Msg("dropping notification for unknown machine")
		case !stepped:
			task.NotBefore = time.Now().Add(n.retryDelay)
			n.log.Debug().
				Str("message", string(task.Message)).
				Dur("delay", n.retryDelay).
				Msg("machine busy, requeueing notification")
			n.enqueue(task)
		}
	}
}

// next blocks until a task is eligible or ctx is cancelled.
func (n *Notifier) next(ctx context.Context) (Task, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for {
		if err := ctx.Err(); err != nil {
			return Task{}, err
		}

		now := time.Now()
		eligible := -1
		var earliest time.Time
		for i, t := range n.queue {
			if !t.NotBefore.After(now) {
				eligible = i
				break
			}
			if earliest.IsZero() || t.NotBefore.Before(earliest) {
				earliest = t.NotBefore
			}
		}

		if eligible >= 0 {
			t := n.queue[eligible]
			n.queue = append(n.queue[:eligible], n.queue[eligible+1:]...)
			return t, nil
		}

		if !earliest.IsZero() {
			timer := time.AfterFunc(time.Until(earliest), n.cond.Broadcast)
			n.cond.Wait()
			timer.Stop()
			continue
		}
		n.cond.Wait()
	}
}
