// Package round implements the interactive Werewolf round flow: a
// message-bound state machine that walks a guild from player
// registration through role selection and count configuration into a
// running round, and cleans up again when the round ends. It also
// carries the role configuration wizard, which uses the same machinery
// on its own message.
package round

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/fenrisbot/fenris/internal/chat"
	"github.com/fenrisbot/fenris/internal/notify"
	"github.com/fenrisbot/fenris/internal/registry"
	"github.com/fenrisbot/fenris/internal/roles"
	"github.com/fenrisbot/fenris/pkg/machine"
)

// Fixed guild entities the round flow works with.
const (
	// ModeratorRoleName is the guild role whose members run rounds.
	ModeratorRoleName = "Game Master"
	// DeadRoleName marks players that died during the round. Holders
	// can read every round channel again.
	DeadRoleName = "W-Dead"

	// EveryoneRoleName is the implicit guild-wide role.
	EveryoneRoleName = "@everyone"

	activeCategoryName   = "w-active"
	inactiveCategoryName = "w-inactive"
	moderatorChannelName = "moderator"
)

// Deps are the long-lived collaborators a round machine needs beyond
// the per-event environment.
type Deps struct {
	Registry *registry.Registry
	Notifier *notify.Notifier
	Log      zerolog.Logger
}

// Machine binds a composed state machine to the chat message that
// drives it.
type Machine struct {
	guild   chat.GuildID
	message chat.MessageID
	sm      machine.Machine[*registry.Env, struct{}, struct{}]
}

var _ registry.Machine = (*Machine)(nil)

func (m *Machine) Step(ctx context.Context, env *registry.Env) machine.Result[struct{}] {
	return m.sm.Step(ctx, env, struct{}{})
}

func (m *Machine) GuildID() chat.GuildID     { return m.guild }
func (m *Machine) MessageID() chat.MessageID { return m.message }

// statusMessage identifies the message a machine edits to show its
// progress.
type statusMessage struct {
	Guild   chat.GuildID
	Channel chat.ChannelID
	Message chat.MessageID
}

// update replaces the message's content and reaction set.
func (s statusMessage) update(ctx context.Context, msgr chat.Messenger, content string, reactions []string) error {
	return msgr.EditMessage(ctx, s.Channel, s.Message, content, reactions)
}

// core is the state every round phase carries along.
type core struct {
	mods   map[chat.UserID]struct{}
	status statusMessage
	bot    chat.UserID
}

func (c core) isMod(user chat.UserID) bool {
	_, ok := c.mods[user]
	return ok
}

// surface reports an error on the status message so the moderators see
// it, keeping the machine in its current phase so the stimulus can be
// retried. If even that edit fails the machine gives up.
func surface[N any](ctx context.Context, env *registry.Env, status statusMessage, log zerolog.Logger, err error) machine.Result[N] {
	log.Error().Err(err).Msg("reporting error on status message")
	content := fmt.Sprintf("[Error] %s", err)
	if editErr := status.update(ctx, env.Messenger, content, nil); editErr != nil {
		log.Error().Err(editErr).Msg("updating status message with error")
		return machine.Failed[N](err)
	}
	return machine.None[N]()
}

type registerState struct {
	core
	players []chat.UserID
}

type selectState struct {
	core
	players []chat.UserID

	allRoles []roles.Config
	page     int
	selected map[string]roles.Config
}

type countsState struct {
	core
	players []chat.UserID

	counts  map[string]int
	byName  map[string]roles.Config
	pending map[string]struct{}
	results *countQueue
}

type runningState struct {
	core
	assignments      map[chat.UserID]roles.Instance
	moderatorChannel chat.ChannelID
	channels         map[string]chat.ChannelID
}

// countQueue collects the counts reported by the per-role reply
// machines. It is shared between the round machine and those helpers,
// which step on different goroutines.
type countQueue struct {
	mu    sync.Mutex
	items []countResult
}

type countResult struct {
	name  string
	count int
}

func (q *countQueue) push(name string, count int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, countResult{name: name, count: count})
}

func (q *countQueue) pop() (countResult, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return countResult{}, false
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item, true
}

type runner struct {
	deps Deps
}

// New posts the round entry message into the channel and returns the
// machine driving the new round. The given moderators are the only
// users allowed to advance it.
func New(ctx context.Context, deps Deps, msgr chat.Messenger, guild chat.GuildID, channel chat.ChannelID, mods []chat.UserID, bot chat.UserID) (*Machine, error) {
	content := fmt.Sprintf(
		"Starting a new Round\n%s: Enter as a Player\n%s: Start the Round (moderators only)",
		ReactEntry, ReactConfirm,
	)
	id, err := msgr.SendMessage(ctx, channel, content)
	if err != nil {
		return nil, err
	}
	for _, emoji := range []string{ReactEntry, ReactConfirm} {
		if err := msgr.React(ctx, channel, id, emoji); err != nil {
			return nil, err
		}
	}

	modSet := make(map[chat.UserID]struct{}, len(mods))
	for _, mod := range mods {
		modSet[mod] = struct{}{}
	}

	r := &runner{deps: deps}
	initial := registerState{
		core: core{
			mods:   modSet,
			status: statusMessage{Guild: guild, Channel: channel, Message: id},
			bot:    bot,
		},
	}

	register := machine.NewWithState(initial, r.stepRegister)
	selectRoles := machine.NewWithLazyState(cloneSelect, r.stepSelect)
	counts := machine.NewWithLazyState(cloneCounts, r.stepCounts)
	running := machine.NewWithLazyState(cloneRunning, r.stepRunning)

	toCounts := machine.Chain[*registry.Env, struct{}, selectState, countsState](register, selectRoles)
	toRunning := machine.Chain[*registry.Env, struct{}, countsState, runningState](toCounts, counts)
	sm := machine.Chain[*registry.Env, struct{}, runningState, struct{}](toRunning, running)

	return &Machine{guild: guild, message: id, sm: sm}, nil
}

func cloneSelect(args selectState) selectState    { return args }
func cloneCounts(args countsState) countsState    { return args }
func cloneRunning(args runningState) runningState { return args }

// sortedNames returns the keys of a role map in stable order.
func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
