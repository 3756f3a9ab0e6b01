package round

import (
	"context"
	"fmt"

	"github.com/fenrisbot/fenris/internal/chat"
	"github.com/fenrisbot/fenris/internal/registry"
	"github.com/fenrisbot/fenris/internal/roles"
	"github.com/fenrisbot/fenris/pkg/machine"
)

// stepRegister collects players until a moderator confirms, then loads
// the guild's role configuration and moves on to role selection.
func (r *runner) stepRegister(ctx context.Context, env *registry.Env, state registerState, _ struct{}) (machine.Result[selectState], registerState) {
	log := r.deps.Log.With().Str("phase", "register").Str("guild", string(state.status.Guild)).Logger()

	switch env.Event.Kind {
	case chat.EventAddReaction:
		user := env.Event.User
		switch env.Event.Emoji {
		case ReactEntry:
			if !containsUser(state.players, user) {
				state.players = append(state.players, user)
				log.Debug().Str("user", string(user)).Msg("added player to round")
			}

		case ReactConfirm:
			if !state.isMod(user) {
				log.Debug().Str("user", string(user)).Msg("non-moderator tried to start the round")
				return machine.None[selectState](), state
			}
			if len(state.players) == 0 {
				log.Debug().Msg("tried to start a round with no registered players")
				return machine.None[selectState](), state
			}

			all, err := env.Store.LoadRoles(ctx, state.status.Guild)
			if err != nil {
				return surface[selectState](ctx, env, state.status, log, fmt.Errorf("loading roles: %w", err)), state
			}

			next := selectState{
				core:     state.core,
				players:  state.players,
				allRoles: all,
				selected: make(map[string]roles.Config),
			}
			if err := next.status.update(ctx, env.Messenger, selectContent(all), pageReactions(all, 0)); err != nil {
				return surface[selectState](ctx, env, state.status, log, fmt.Errorf("showing role selection: %w", err)), state
			}
			return machine.Done(next), state
		}

	case chat.EventRemoveReaction:
		if env.Event.Emoji == ReactEntry {
			state.players = removeUser(state.players, env.Event.User)
			log.Debug().Str("user", string(env.Event.User)).Msg("removed player from round")
		}
	}

	return machine.None[selectState](), state
}

// stepSelect lets moderators page through the configured roles and
// pick the ones in play. Confirm hands over to count configuration.
func (r *runner) stepSelect(ctx context.Context, env *registry.Env, state selectState, _ selectState) (machine.Result[countsState], selectState) {
	log := r.deps.Log.With().Str("phase", "select").Str("guild", string(state.status.Guild)).Logger()

	switch env.Event.Kind {
	case chat.EventAddReaction:
		if !state.isMod(env.Event.User) {
			log.Debug().Str("user", string(env.Event.User)).Msg("non-moderator reaction ignored")
			return machine.None[countsState](), state
		}

		switch env.Event.Emoji {
		case ReactPrevPage:
			if state.page > 0 {
				state.page--
				if err := state.updateSelection(ctx, env.Messenger); err != nil {
					log.Error().Err(err).Msg("updating role selection message")
				}
			}

		case ReactNextPage:
			if !isLastPage(len(state.allRoles), state.page) {
				state.page++
				if err := state.updateSelection(ctx, env.Messenger); err != nil {
					log.Error().Err(err).Msg("updating role selection message")
				}
			}

		case ReactConfirm:
			next, err := r.beginCounts(ctx, env, state)
			if err != nil {
				return surface[countsState](ctx, env, state.status, log, err), state
			}
			return machine.Done(next), state

		default:
			if cfg, ok := state.roleByEmoji(env.Event.Emoji); ok {
				state.selected[cfg.Name] = cfg
				log.Debug().Str("role", cfg.Name).Msg("selected role")
			} else {
				log.Debug().Str("emoji", env.Event.Emoji).Msg("reaction matches no role")
			}
		}

	case chat.EventRemoveReaction:
		if !state.isMod(env.Event.User) {
			return machine.None[countsState](), state
		}
		if cfg, ok := state.roleByEmoji(env.Event.Emoji); ok {
			delete(state.selected, cfg.Name)
			log.Debug().Str("role", cfg.Name).Msg("deselected role")
		}
	}

	return machine.None[countsState](), state
}

func (s *selectState) updateSelection(ctx context.Context, msgr chat.Messenger) error {
	return s.status.update(ctx, msgr, selectContent(s.allRoles), pageReactions(s.allRoles, s.page))
}

func (s *selectState) roleByEmoji(emoji string) (roles.Config, bool) {
	for _, cfg := range s.allRoles {
		if cfg.Emoji == emoji {
			return cfg, true
		}
	}
	return roles.Config{}, false
}

// stepRunning waits for a moderator to stop the round, then tears the
// round infrastructure down again.
func (r *runner) stepRunning(ctx context.Context, env *registry.Env, state runningState, _ runningState) (machine.Result[struct{}], runningState) {
	log := r.deps.Log.With().Str("phase", "running").Str("guild", string(state.status.Guild)).Logger()

	if env.Event.Kind != chat.EventAddReaction || !state.isMod(env.Event.User) {
		return machine.None[struct{}](), state
	}
	if env.Event.Emoji != ReactStop {
		return machine.None[struct{}](), state
	}

	log.Info().Msg("stopping round")
	r.teardown(ctx, env, state, log)

	if err := state.status.update(ctx, env.Messenger, "Round is over", nil); err != nil {
		log.Error().Err(err).Msg("updating status message with final state")
	}
	return machine.Done(struct{}{}), state
}

func containsUser(users []chat.UserID, user chat.UserID) bool {
	for _, u := range users {
		if u == user {
			return true
		}
	}
	return false
}

func removeUser(users []chat.UserID, user chat.UserID) []chat.UserID {
	for i, u := range users {
		if u == user {
			return append(users[:i], users[i+1:]...)
		}
	}
	return users
}
