package round

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/fenrisbot/fenris/internal/chat"
	"github.com/fenrisbot/fenris/internal/registry"
	"github.com/fenrisbot/fenris/internal/roles"
	"github.com/fenrisbot/fenris/pkg/machine"
)

// startRound distributes the roles and builds the round infrastructure:
// the dead-player guild role, the active category, one private channel
// per role plus the moderator channel, and the per-participant access
// overrides. Any failure here ends the round: the transition is driven
// by an internal notification that is consumed with the attempt, so
// there is no stimulus left that could retry it.
func (r *runner) startRound(ctx context.Context, env *registry.Env, state countsState, log zerolog.Logger) (machine.Result[runningState], countsState) {
	fail := func(err error) (machine.Result[runningState], countsState) {
		log.Error().Err(err).Msg("round setup failed")
		if editErr := state.status.update(ctx, env.Messenger, fmt.Sprintf("[Error] %s", err), nil); editErr != nil {
			log.Error().Err(editErr).Msg("updating status message with error")
		}
		return machine.Failed[runningState](err), state
	}

	if err := state.status.update(ctx, env.Messenger, "Setting Round up...", nil); err != nil {
		log.Error().Err(err).Msg("updating status message")
	}

	counted := make([]roles.CountedConfig, 0, len(state.counts))
	for _, name := range sortedNames(state.counts) {
		counted = append(counted, roles.CountedConfig{
			Config: state.byName[name],
			Count:  state.counts[name],
		})
	}

	assignments, err := roles.Distribute(state.players, counted)
	if err != nil {
		return fail(fmt.Errorf("distributing roles: %w", err))
	}

	guild := state.status.Guild

	everyoneID, err := env.Messenger.FindRoleByName(ctx, guild, EveryoneRoleName)
	if err != nil {
		return fail(fmt.Errorf("resolving the everyone role: %w", err))
	}
	deadID, err := r.ensureGuildRole(ctx, env, guild, DeadRoleName)
	if err != nil {
		return fail(fmt.Errorf("resolving the %q role: %w", DeadRoleName, err))
	}

	// Round channels are hidden from the guild but stay readable for
	// the bot and for dead players watching from the outside.
	defaults := []chat.PermissionOverride{
		{Subject: chat.UserSubject(state.bot), Allow: chat.PermissionRead},
		{Subject: chat.RoleSubject(everyoneID), Deny: chat.PermissionRead},
		{Subject: chat.RoleSubject(deadID), Allow: chat.PermissionRead},
	}

	activeCat, err := r.ensureCategory(ctx, env, guild, activeCategoryName)
	if err != nil {
		return fail(fmt.Errorf("setting up the active category: %w", err))
	}

	channels := make(map[string]chat.ChannelID, len(state.counts))
	for _, name := range sortedNames(state.counts) {
		id, err := r.setupChannel(ctx, env, state.core, strings.ToLower(name), defaults, activeCat)
		if err != nil {
			return fail(fmt.Errorf("setting up channel for role %q: %w", name, err))
		}
		channels[name] = id
	}

	modChannel, err := r.setupChannel(ctx, env, state.core, moderatorChannelName, defaults, activeCat)
	if err != nil {
		return fail(fmt.Errorf("setting up the moderator channel: %w", err))
	}

	for _, user := range sortedUsers(assignments) {
		inst := assignments[user]
		access := chat.PermissionOverride{
			Subject: chat.UserSubject(user),
			Allow:   chat.PermissionRead | chat.PermissionSend,
		}
		for _, chName := range inst.Channels() {
			ch, ok := channels[chName]
			if !ok {
				log.Warn().Str("channel", chName).Str("role", inst.Name()).Msg("role references a channel that is not part of the round")
				continue
			}
			if err := env.Messenger.CreatePermissionOverride(ctx, ch, access); err != nil {
				return fail(fmt.Errorf("granting %q access to %q: %w", user, chName, err))
			}
		}
	}

	if err := r.briefModerators(ctx, env, modChannel, assignments); err != nil {
		return fail(fmt.Errorf("briefing the moderators: %w", err))
	}

	content := fmt.Sprintf("Started the Werewolf Round, react with %s to end the Round", ReactStop)
	if err := state.status.update(ctx, env.Messenger, content, []string{ReactStop}); err != nil {
		log.Error().Err(err).Msg("updating status message")
	}

	log.Info().Int("players", len(assignments)).Msg("round started")

	return machine.Done(runningState{
		core:             state.core,
		assignments:      assignments,
		moderatorChannel: modChannel,
		channels:         channels,
	}), state
}

// ensureGuildRole finds a guild role by name, creating it when absent.
func (r *runner) ensureGuildRole(ctx context.Context, env *registry.Env, guild chat.GuildID, name string) (chat.RoleID, error) {
	id, err := env.Messenger.FindRoleByName(ctx, guild, name)
	if errors.Is(err, chat.ErrNotFound) {
		return env.Messenger.CreateRole(ctx, guild, name)
	}
	return id, err
}

// ensureCategory finds a category by name, creating it when absent.
func (r *runner) ensureCategory(ctx context.Context, env *registry.Env, guild chat.GuildID, name string) (chat.ChannelID, error) {
	id, err := env.Messenger.FindChannelByName(ctx, guild, chat.ChannelCategory, name)
	if errors.Is(err, chat.ErrNotFound) {
		return env.Messenger.CreateChannel(ctx, guild, chat.ChannelCategory, name, nil)
	}
	return id, err
}

// setupChannel reuses an existing text channel of that name or creates
// a new one, applies the default overrides, moves it under the active
// category and opens it up for the moderators.
func (r *runner) setupChannel(ctx context.Context, env *registry.Env, c core, name string, defaults []chat.PermissionOverride, category chat.ChannelID) (chat.ChannelID, error) {
	guild := c.status.Guild

	id, err := env.Messenger.FindChannelByName(ctx, guild, chat.ChannelText, name)
	switch {
	case errors.Is(err, chat.ErrNotFound):
		id, err = env.Messenger.CreateChannel(ctx, guild, chat.ChannelText, name, defaults)
		if err != nil {
			return "", err
		}
	case err != nil:
		return "", err
	default:
		// Existing channels need the round overrides applied by hand.
		for _, ov := range defaults {
			if err := env.Messenger.CreatePermissionOverride(ctx, id, ov); err != nil {
				return "", err
			}
		}
	}

	if err := env.Messenger.SetChannelCategory(ctx, id, category); err != nil {
		return "", err
	}

	for mod := range c.mods {
		access := chat.PermissionOverride{
			Subject: chat.UserSubject(mod),
			Allow:   chat.PermissionRead | chat.PermissionSend,
		}
		if err := env.Messenger.CreatePermissionOverride(ctx, id, access); err != nil {
			return "", err
		}
	}

	return id, nil
}

// briefModerators posts the round handbook and the full assignment
// list into the moderator channel.
func (r *runner) briefModerators(ctx context.Context, env *registry.Env, modChannel chat.ChannelID, assignments map[chat.UserID]roles.Instance) error {
	info := fmt.Sprintf("```\n"+
		"The Round has now been started and all the required Setup has been completed\n\n"+
		"If a Player has died, they should be given the '%s'-Role and the Bot will then update the Configuration "+
		"to allow that Player to see all Channels again and watch the Round from the 'Outside'.\n\n"+
		"Once the Round is over, the Bot will automatically remove all the Round-Relevant Roles from the Players again "+
		"and reorganize the relevant Channels to prepare for the next Round.\n"+
		"```", DeadRoleName)
	if _, err := env.Messenger.SendMessage(ctx, modChannel, info); err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("Roles:\n")
	for _, user := range sortedUsers(assignments) {
		inst := assignments[user]
		if masked := inst.Masked(); masked != nil {
			fmt.Fprintf(&b, "%s: %s (%s)\n", user, inst.Name(), masked.Name())
		} else {
			fmt.Fprintf(&b, "%s: %s\n", user, inst.Name())
		}
	}
	_, err := env.Messenger.SendMessage(ctx, modChannel, b.String())
	return err
}

func sortedUsers(assignments map[chat.UserID]roles.Instance) []chat.UserID {
	users := make([]chat.UserID, 0, len(assignments))
	for user := range assignments {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	return users
}
