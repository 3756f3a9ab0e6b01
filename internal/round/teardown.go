package round

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/fenrisbot/fenris/internal/chat"
	"github.com/fenrisbot/fenris/internal/registry"
)

// teardown undoes the round setup: the per-participant overrides are
// dropped, the guild can see the channels again, the channels move to
// the inactive category and dead players get their marker role back
// removed. Every step is best-effort so one failing channel does not
// keep the rest of the guild locked down.
func (r *runner) teardown(ctx context.Context, env *registry.Env, state runningState, log zerolog.Logger) {
	guild := state.status.Guild

	inactiveCat, err := r.ensureCategory(ctx, env, guild, inactiveCategoryName)
	if err != nil {
		log.Error().Err(err).Msg("setting up the inactive category")
		return
	}

	everyoneID, everyoneErr := env.Messenger.FindRoleByName(ctx, guild, EveryoneRoleName)
	if everyoneErr != nil {
		log.Error().Err(everyoneErr).Msg("resolving the everyone role")
	}

	for _, name := range sortedNames(state.channels) {
		ch := state.channels[name]

		for _, user := range sortedUsers(state.assignments) {
			if err := env.Messenger.DeletePermissionOverride(ctx, ch, chat.UserSubject(user)); err != nil {
				log.Error().Err(err).Str("channel", name).Str("user", string(user)).Msg("removing participant override")
			}
		}

		if everyoneErr == nil {
			if err := env.Messenger.DeletePermissionOverride(ctx, ch, chat.RoleSubject(everyoneID)); err != nil {
				log.Error().Err(err).Str("channel", name).Msg("removing everyone override")
			}
		}

		if err := env.Messenger.SetChannelCategory(ctx, ch, inactiveCat); err != nil {
			log.Error().Err(err).Str("channel", name).Msg("moving channel to the inactive category")
		}
	}

	deadID, err := env.Messenger.FindRoleByName(ctx, guild, DeadRoleName)
	if err != nil {
		log.Error().Err(err).Msg("resolving the dead-player role")
		return
	}
	for _, user := range sortedUsers(state.assignments) {
		if err := env.Messenger.RemoveMemberRole(ctx, guild, user, deadID); err != nil {
			log.Error().Err(err).Str("user", string(user)).Msg("removing dead-player role")
		}
	}
}
