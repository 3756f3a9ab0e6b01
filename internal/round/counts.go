package round

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/fenrisbot/fenris/internal/chat"
	"github.com/fenrisbot/fenris/internal/registry"
	"github.com/fenrisbot/fenris/internal/roles"
	"github.com/fenrisbot/fenris/pkg/machine"
)

// beginCounts prepares the count configuration phase. Single-player
// roles get a fixed count of one; every multi-player role gets its own
// prompt message with a reply machine that feeds the shared queue.
// When no prompts are needed the phase is woken immediately so it can
// move straight on.
//
// The prompt machines are staged and only registered once every prompt
// message went out: a retried confirm rebuilds the whole set, so a
// half-created one must not stay behind feeding a queue nobody drains.
func (r *runner) beginCounts(ctx context.Context, env *registry.Env, prev selectState) (countsState, error) {
	next := countsState{
		core:    prev.core,
		players: prev.players,
		counts:  make(map[string]int),
		byName:  make(map[string]roles.Config),
		pending: make(map[string]struct{}),
		results: &countQueue{},
	}

	var prompts []*Machine
	for _, name := range sortedNames(prev.selected) {
		cfg := prev.selected[name]
		next.byName[name] = cfg

		if !cfg.MultiPlayer {
			next.counts[name] = 1
			continue
		}

		prompt, err := r.newCountPrompt(ctx, env, prev.core, cfg, next.results)
		if err != nil {
			for _, p := range prompts {
				if derr := env.Messenger.DeleteMessage(ctx, next.status.Channel, p.MessageID()); derr != nil {
					r.deps.Log.Error().Err(derr).Msg("deleting staged count prompt")
				}
			}
			return countsState{}, fmt.Errorf("creating count prompt for role %q: %w", name, err)
		}
		prompts = append(prompts, prompt)
		next.pending[name] = struct{}{}
	}

	for _, prompt := range prompts {
		r.deps.Registry.Add(prompt)
	}

	if err := next.status.update(ctx, env.Messenger, "Configuring Roles...", nil); err != nil {
		r.deps.Log.Error().Err(err).Msg("updating status message")
	}

	if len(next.pending) == 0 {
		r.deps.Notifier.Notify(next.status.Guild, next.status.Message)
	}

	return next, nil
}

// stepCounts drains the count queue on every wake-up. Once every
// multi-player role has a count the round is set up and started.
func (r *runner) stepCounts(ctx context.Context, env *registry.Env, state countsState, _ countsState) (machine.Result[runningState], countsState) {
	log := r.deps.Log.With().Str("phase", "counts").Str("guild", string(state.status.Guild)).Logger()

	if env.Event.Kind != chat.EventNotify {
		return machine.None[runningState](), state
	}

	if len(state.pending) == 0 {
		res, next := r.startRound(ctx, env, state, log)
		return res, next
	}

	item, ok := state.results.pop()
	if !ok {
		return machine.None[runningState](), state
	}

	delete(state.pending, item.name)
	state.counts[item.name] = item.count
	log.Debug().Str("role", item.name).Int("count", item.count).Msg("received role count")

	if len(state.pending) == 0 {
		res, next := r.startRound(ctx, env, state, log)
		return res, next
	}
	return machine.None[runningState](), state
}

// countPromptState is the state of one per-role count prompt.
type countPromptState struct {
	round  statusMessage
	prompt statusMessage
	mods   map[chat.UserID]struct{}
	role   roles.Config

	results *countQueue
}

// newCountPrompt posts the reply prompt for a multi-player role and
// returns the machine that waits for a moderator's answer.
func (r *runner) newCountPrompt(ctx context.Context, env *registry.Env, c core, cfg roles.Config, results *countQueue) (*Machine, error) {
	content := fmt.Sprintf(
		"Reply with the Number of Players that should be assigned to the '%s'-Role",
		cfg.Name,
	)
	id, err := env.Messenger.SendMessage(ctx, c.status.Channel, content)
	if err != nil {
		return nil, err
	}

	initial := countPromptState{
		round:   c.status,
		prompt:  statusMessage{Guild: c.status.Guild, Channel: c.status.Channel, Message: id},
		mods:    c.mods,
		role:    cfg,
		results: results,
	}

	return &Machine{
		guild:   c.status.Guild,
		message: id,
		sm:      machine.NewWithState(initial, r.stepCountPrompt),
	}, nil
}

func (r *runner) stepCountPrompt(ctx context.Context, env *registry.Env, state countPromptState, _ struct{}) (machine.Result[struct{}], countPromptState) {
	log := r.deps.Log.With().Str("phase", "count-prompt").Str("role", state.role.Name).Logger()

	if env.Event.Kind != chat.EventReply {
		return machine.None[struct{}](), state
	}
	if _, ok := state.mods[env.Event.User]; !ok {
		log.Debug().Str("user", string(env.Event.User)).Msg("reply from non-moderator ignored")
		return machine.None[struct{}](), state
	}

	count, err := strconv.Atoi(env.Event.Content)
	if err != nil || count < 1 {
		log.Debug().Str("content", env.Event.Content).Msg("reply is not a usable count")
		return machine.None[struct{}](), state
	}

	r.deleteCountMessages(ctx, env, state, log)

	state.results.push(state.role.Name, count)
	r.deps.Notifier.Notify(state.round.Guild, state.round.Message)

	return machine.Done(struct{}{}), state
}

// deleteCountMessages removes the moderator's reply and the prompt
// itself to keep the channel tidy. Both are best-effort.
func (r *runner) deleteCountMessages(ctx context.Context, env *registry.Env, state countPromptState, log zerolog.Logger) {
	if err := env.Messenger.DeleteMessage(ctx, state.prompt.Channel, env.Event.ReplyID); err != nil {
		log.Error().Err(err).Msg("deleting count reply")
	}
	if err := env.Messenger.DeleteMessage(ctx, state.prompt.Channel, state.prompt.Message); err != nil {
		log.Error().Err(err).Msg("deleting count prompt")
	}
}
