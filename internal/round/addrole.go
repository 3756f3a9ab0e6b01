package round

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/fenrisbot/fenris/internal/chat"
	"github.com/fenrisbot/fenris/internal/registry"
	"github.com/fenrisbot/fenris/internal/roles"
	"github.com/fenrisbot/fenris/pkg/machine"
)

// The wizard walks the author through the attributes of a new role,
// one message edit at a time: emoji, multi-player, masking, and the
// extra channels the role may read. Only the user who started the
// wizard can answer.

type wizardEmoji struct {
	name   string
	emoji  string
	author chat.UserID
	status statusMessage
}

type wizardMulti struct {
	wizardEmoji
	multiPlayer bool
}

type wizardMasks struct {
	wizardMulti
	masksRole bool
}

type wizardFinal struct {
	wizardMasks
	extraChannels map[string]struct{}
}

func extraChannelContent(channels []string) string {
	return fmt.Sprintf(
		"Reply to this Message with all the extra Roles whose Chat this Role should also be able to read (%s)",
		strings.Join(channels, ", "),
	)
}

// NewAddRole posts the wizard's prompt message and returns the machine
// that collects the new role's configuration from the author.
func NewAddRole(ctx context.Context, deps Deps, msgr chat.Messenger, guild chat.GuildID, channel chat.ChannelID, name string, author chat.UserID) (*Machine, error) {
	id, err := msgr.SendMessage(ctx, channel, "React with an emoji to use for the Role")
	if err != nil {
		return nil, err
	}

	r := &runner{deps: deps}
	status := statusMessage{Guild: guild, Channel: channel, Message: id}

	pickEmoji := machine.NewNext(func(ctx context.Context, env *registry.Env, _ struct{}) machine.Result[wizardEmoji] {
		if env.Event.Kind != chat.EventAddReaction || env.Event.User != author {
			return machine.None[wizardEmoji]()
		}

		next := wizardEmoji{name: name, emoji: env.Event.Emoji, author: author, status: status}
		content := "Should the Role be able to be assigned to more than one Player?"
		if err := status.update(ctx, env.Messenger, content, []string{ReactYes, ReactNo}); err != nil {
			return machine.Failed[wizardEmoji](err)
		}
		return machine.Done(next)
	})

	askMasks := machine.NewNext(func(ctx context.Context, env *registry.Env, prev wizardEmoji) machine.Result[wizardMulti] {
		multi, ok := yesNoAnswer(env.Event, prev.author)
		if !ok {
			return machine.None[wizardMulti]()
		}

		content := "Should the Role mask/hide another Role, which could be used later on in the Game?"
		if err := prev.status.update(ctx, env.Messenger, content, []string{ReactYes, ReactNo}); err != nil {
			return machine.Failed[wizardMulti](err)
		}
		return machine.Done(wizardMulti{wizardEmoji: prev, multiPlayer: multi})
	})

	askChannels := machine.NewNext(func(ctx context.Context, env *registry.Env, prev wizardMulti) machine.Result[wizardMasks] {
		masks, ok := yesNoAnswer(env.Event, prev.author)
		if !ok {
			return machine.None[wizardMasks]()
		}

		if err := prev.status.update(ctx, env.Messenger, extraChannelContent(nil), []string{ReactConfirm}); err != nil {
			return machine.Failed[wizardMasks](err)
		}
		return machine.Done(wizardMasks{wizardMulti: prev, masksRole: masks})
	})

	collect := machine.NewWithLazyState(
		func(prev wizardMasks) wizardFinal {
			return wizardFinal{wizardMasks: prev, extraChannels: make(map[string]struct{})}
		},
		r.stepCollectChannels,
	)

	c1 := machine.Chain[*registry.Env, struct{}, wizardEmoji, wizardMulti](pickEmoji, askMasks)
	c2 := machine.Chain[*registry.Env, struct{}, wizardMulti, wizardMasks](c1, askChannels)
	sm := machine.Chain[*registry.Env, struct{}, wizardMasks, struct{}](c2, collect)

	return &Machine{guild: guild, message: id, sm: sm}, nil
}

// yesNoAnswer interprets a reaction event from the author as a yes/no
// choice.
func yesNoAnswer(ev chat.Event, author chat.UserID) (answer, ok bool) {
	if ev.Kind != chat.EventAddReaction || ev.User != author {
		return false, false
	}
	switch ev.Emoji {
	case ReactYes:
		return true, true
	case ReactNo:
		return false, true
	default:
		return false, false
	}
}

// stepCollectChannels gathers extra channel names from replies until
// the author confirms, then validates and persists the role.
func (r *runner) stepCollectChannels(ctx context.Context, env *registry.Env, state wizardFinal, _ wizardMasks) (machine.Result[struct{}], wizardFinal) {
	log := r.deps.Log.With().Str("wizard", "add-role").Str("role", state.name).Logger()

	switch env.Event.Kind {
	case chat.EventReply:
		if env.Event.User != state.author {
			return machine.None[struct{}](), state
		}

		state.extraChannels[env.Event.Content] = struct{}{}

		if err := env.Messenger.DeleteMessage(ctx, state.status.Channel, env.Event.ReplyID); err != nil {
			log.Error().Err(err).Msg("removing author reply")
		}

		content := extraChannelContent(sortedChannelNames(state.extraChannels))
		if err := state.status.update(ctx, env.Messenger, content, []string{ReactConfirm}); err != nil {
			return machine.Failed[struct{}](err), state
		}
		return machine.None[struct{}](), state

	case chat.EventAddReaction:
		if env.Event.User != state.author || env.Event.Emoji != ReactConfirm {
			return machine.None[struct{}](), state
		}
		return r.saveRole(ctx, env, state, log), state
	}

	return machine.None[struct{}](), state
}

func (r *runner) saveRole(ctx context.Context, env *registry.Env, state wizardFinal, log zerolog.Logger) machine.Result[struct{}] {
	existing, err := env.Store.LoadRoles(ctx, state.status.Guild)
	if err == nil {
		for _, cfg := range existing {
			if cfg.Name == state.name {
				r.finishWizard(ctx, env, state, fmt.Sprintf("There already exists a Role with the Name: %s", state.name), log)
				return machine.Done(struct{}{})
			}
			if cfg.Emoji == state.emoji {
				r.finishWizard(ctx, env, state, fmt.Sprintf("There already exists a Role with the Emoji: %s", state.emoji), log)
				return machine.Done(struct{}{})
			}
		}
	}

	cfg := roles.Config{
		Name:          state.name,
		Emoji:         state.emoji,
		MultiPlayer:   state.multiPlayer,
		MasksRole:     state.masksRole,
		ExtraChannels: sortedChannelNames(state.extraChannels),
	}

	if err := env.Store.SetRole(ctx, state.status.Guild, cfg); err != nil {
		log.Error().Err(err).Msg("storing role")
		r.finishWizard(ctx, env, state, "Could not add the Role", log)
		return machine.Done(struct{}{})
	}

	log.Debug().Msg("created new role")
	r.finishWizard(ctx, env, state, "Successfully added Role", log)
	return machine.Done(struct{}{})
}

func (r *runner) finishWizard(ctx context.Context, env *registry.Env, state wizardFinal, content string, log zerolog.Logger) {
	if err := state.status.update(ctx, env.Messenger, content, nil); err != nil {
		log.Error().Err(err).Msg("updating wizard message")
	}
}

func sortedChannelNames(set map[string]struct{}) []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
