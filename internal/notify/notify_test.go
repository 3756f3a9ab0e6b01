package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/fenrisbot/fenris/internal/chat"
	"github.com/fenrisbot/fenris/internal/registry"
	"github.com/fenrisbot/fenris/pkg/machine"
)

// recordingMachine counts its steps and can hold its lock on demand.
type recordingMachine struct {
	guild   chat.GuildID
	message chat.MessageID

	mu    sync.Mutex
	steps int

	hold chan struct{}
}

var _ registry.Machine = (*recordingMachine)(nil)

func (m *recordingMachine) Step(ctx context.Context, env *registry.Env) machine.Result[struct{}] {
	if m.hold != nil {
		<-m.hold
	}
	m.mu.Lock()
	m.steps++
	m.mu.Unlock()
	return machine.None[struct{}]()
}

func (m *recordingMachine) Steps() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.steps
}

func (m *recordingMachine) GuildID() chat.GuildID     { return m.guild }
func (m *recordingMachine) MessageID() chat.MessageID { return m.message }

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestNotifier_DeliversToMachine(t *testing.T) {
	reg := registry.New()
	m := &recordingMachine{guild: "g1", message: "m1"}
	reg.Add(m)

	n := New(reg, chat.NewMemoryMessenger(), nil, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go n.Run(ctx)

	n.Notify("g1", "m1")
	n.Notify("g1", "m1")

	waitFor(t, func() bool { return m.Steps() == 2 })
}

func TestNotifier_DropsUnknownMachine(t *testing.T) {
	reg := registry.New()
	n := New(reg, chat.NewMemoryMessenger(), nil, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go n.Run(ctx)

	n.Notify("g1", "gone")
	waitFor(t, func() bool { return n.Len() == 0 })
}

func TestNotifier_RetriesBusyMachine(t *testing.T) {
	reg := registry.New()
	m := &recordingMachine{guild: "g1", message: "m1", hold: make(chan struct{})}
	reg.Add(m)

	n := New(reg, chat.NewMemoryMessenger(), nil, zerolog.Nop())
	n.retryDelay = 10 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go n.Run(ctx)

	// Occupy the machine with a long-running step.
	busyEnv := &registry.Env{Event: chat.Notification("g1", "m1"), Guild: "g1"}
	go reg.Update(context.Background(), busyEnv)
	waitFor(t, func() bool { return n.Len() == 0 }) // loop is idle

	n.Notify("g1", "m1")
	// Delivery keeps getting parked while the step is in flight.
	time.Sleep(50 * time.Millisecond)
	if m.Steps() != 0 {
		t.Fatalf("steps = %d before machine was released", m.Steps())
	}

	close(m.hold) // receives on a closed channel stop blocking
	waitFor(t, func() bool { return m.Steps() == 2 })
}

func TestNotifier_RunStopsOnCancel(t *testing.T) {
	reg := registry.New()
	n := New(reg, chat.NewMemoryMessenger(), nil, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- n.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}
