package fenris

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/fenrisbot/fenris/internal/chat"
	"github.com/fenrisbot/fenris/internal/log"
	"github.com/fenrisbot/fenris/internal/notify"
	"github.com/fenrisbot/fenris/internal/registry"
	"github.com/fenrisbot/fenris/internal/roles"
	"github.com/fenrisbot/fenris/internal/round"
	"github.com/fenrisbot/fenris/internal/storage"
)

// Re-export the chat-layer types embedding code works with, so users
// don't need to dig into the internal packages.

type (
	GuildID   = chat.GuildID
	ChannelID = chat.ChannelID
	MessageID = chat.MessageID
	UserID    = chat.UserID
	RoleID    = chat.RoleID

	Event              = chat.Event
	EventKind          = chat.EventKind
	Messenger          = chat.Messenger
	MemoryMessenger    = chat.MemoryMessenger
	ChannelKind        = chat.ChannelKind
	Permission         = chat.Permission
	Subject            = chat.Subject
	PermissionOverride = chat.PermissionOverride

	RoleConfig = roles.Config
	RoleStore  = storage.RoleStore
)

// Re-export the event constructors transports feed into Dispatch.

var (
	ReactionAdded   = chat.ReactionAdded
	ReactionRemoved = chat.ReactionRemoved
	ReplyReceived   = chat.ReplyReceived

	NewMemoryMessenger = chat.NewMemoryMessenger

	NewMemoryStore = storage.NewMemoryStore
	NewSQLiteStore = storage.NewSQLiteStore
	NewRedisStore  = storage.NewRedisStore
)

const (
	EventAddReaction    = chat.EventAddReaction
	EventRemoveReaction = chat.EventRemoveReaction
	EventReply          = chat.EventReply

	ChannelText     = chat.ChannelText
	ChannelCategory = chat.ChannelCategory

	// ModeratorRoleName is the guild role whose members may run
	// rounds.
	ModeratorRoleName = round.ModeratorRoleName
	// DeadRoleName marks players who died in the current round.
	DeadRoleName = round.DeadRoleName
)

// ErrRoundRunning is returned by StartRound when the guild already has
// a round in progress.
var ErrRoundRunning = registry.ErrRoundRunning

// Options configures a Bot.
type Options struct {
	// Messenger is the outgoing capability towards the chat platform.
	Messenger chat.Messenger
	// Store persists the per-guild role configurations.
	Store storage.RoleStore
	// BotUser is the bot's own user id. Reactions by this user are
	// ignored, and round channels are set up readable for it.
	BotUser chat.UserID
	// Logger is optional; the package-wide base logger is used when
	// unset.
	Logger *zerolog.Logger
}

// Bot ties the state-machine registry, the notification loop and the
// command surface together.
type Bot struct {
	messenger chat.Messenger
	store     storage.RoleStore
	botUser   chat.UserID
	logger    zerolog.Logger

	reg      *registry.Registry
	notifier *notify.Notifier
	deps     round.Deps
}

// New creates a Bot. Run must be started for machines to receive
// internal wake-up notifications.
func New(opts Options) *Bot {
	logger := log.WithComponent("fenris")
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	reg := registry.New()
	notifier := notify.New(reg, opts.Messenger, opts.Store, logger.With().Str("component", "notify").Logger())

	return &Bot{
		messenger: opts.Messenger,
		store:     opts.Store,
		botUser:   opts.BotUser,
		logger:    logger,
		reg:       reg,
		notifier:  notifier,
		deps: round.Deps{
			Registry: reg,
			Notifier: notifier,
			Log:      logger,
		},
	}
}

// Run drives the notification loop until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	return b.notifier.Run(ctx)
}

// Dispatch feeds one platform event to the machine bound to the
// event's message. It reports whether a machine handled the event.
// The bot's own reactions, which it seeds onto its prompts, are
// ignored.
func (b *Bot) Dispatch(ctx context.Context, ev chat.Event) bool {
	if (ev.Kind == chat.EventAddReaction || ev.Kind == chat.EventRemoveReaction) && ev.User == b.botUser {
		return false
	}

	env := &registry.Env{
		Messenger: b.messenger,
		Store:     b.store,
		Event:     ev,
		Guild:     ev.Guild,
	}
	return b.reg.Update(ctx, env)
}

// StartRound opens a new round in the guild, announced in the given
// channel. The members of the moderator guild role run the round. Only
// one round can be in progress per guild.
func (b *Bot) StartRound(ctx context.Context, guild chat.GuildID, channel chat.ChannelID) error {
	if err := b.reg.Reserve(guild); err != nil {
		b.sendNotice(ctx, channel, "There is already a running Round in this Guild")
		return err
	}

	mods, err := b.moderators(ctx, guild)
	if err != nil {
		b.reg.Release(guild, "")
		if errors.Is(err, chat.ErrNotFound) {
			b.sendNotice(ctx, channel, fmt.Sprintf(
				"Could not start a new Round as it could not find a Role with the Name '%s'",
				round.ModeratorRoleName,
			))
		}
		return err
	}

	m, err := round.New(ctx, b.deps, b.messenger, guild, channel, mods, b.botUser)
	if err != nil {
		b.reg.Release(guild, "")
		return err
	}

	b.reg.Bind(guild, m.MessageID())
	b.reg.Add(m)

	b.logger.Debug().Str("guild", string(guild)).Str("message", string(m.MessageID())).Msg("started new round")
	return nil
}

func (b *Bot) moderators(ctx context.Context, guild chat.GuildID) ([]chat.UserID, error) {
	modRole, err := b.messenger.FindRoleByName(ctx, guild, round.ModeratorRoleName)
	if err != nil {
		return nil, fmt.Errorf("resolving the %q role: %w", round.ModeratorRoleName, err)
	}
	return b.messenger.RoleMembers(ctx, guild, modRole)
}

// StartAddRole launches the interactive wizard that configures a new
// role with the given name. Only author can answer the wizard.
func (b *Bot) StartAddRole(ctx context.Context, guild chat.GuildID, channel chat.ChannelID, name string, author chat.UserID) error {
	m, err := round.NewAddRole(ctx, b.deps, b.messenger, guild, channel, name, author)
	if err != nil {
		return err
	}
	b.reg.Add(m)
	return nil
}

// RemoveRole deletes a stored role configuration by name and reports
// the outcome in the channel.
func (b *Bot) RemoveRole(ctx context.Context, guild chat.GuildID, channel chat.ChannelID, name string) error {
	if err := b.store.RemoveRole(ctx, guild, name); err != nil {
		b.logger.Error().Err(err).Str("role", name).Msg("removing role")
		b.sendNotice(ctx, channel, fmt.Sprintf("Could not remove Role %q", name))
		return err
	}
	b.sendNotice(ctx, channel, fmt.Sprintf("Removed Role %q", name))
	return nil
}

// ListRoles posts the guild's configured roles into the channel.
func (b *Bot) ListRoles(ctx context.Context, guild chat.GuildID, channel chat.ChannelID) error {
	configured, err := b.store.LoadRoles(ctx, guild)
	if err != nil {
		b.logger.Error().Err(err).Msg("loading roles")
		b.sendNotice(ctx, channel, "Could not load Roles")
		return err
	}

	if len(configured) == 0 {
		b.sendNotice(ctx, channel, "No Roles configured")
		return nil
	}

	content := "Roles \n\n"
	for _, cfg := range configured {
		content += fmt.Sprintf("* %s\n", cfg)
	}
	b.sendNotice(ctx, channel, content)
	return nil
}

func (b *Bot) sendNotice(ctx context.Context, channel chat.ChannelID, content string) {
	if _, err := b.messenger.SendMessage(ctx, channel, content); err != nil {
		b.logger.Error().Err(err).Msg("sending notice")
	}
}
