package chat

import (
	"context"
	"errors"
)

// ErrNotFound is returned by the find operations when no entity with
// the given name exists.
var ErrNotFound = errors.New("not found")

// ChannelKind distinguishes text channels from grouping categories.
type ChannelKind int

const (
	ChannelText ChannelKind = iota
	ChannelCategory
)

// Permission is the small permission bitset the game cares about.
type Permission uint8

const (
	PermissionRead Permission = 1 << iota
	PermissionSend
)

// SubjectKind says what a permission override applies to.
type SubjectKind int

const (
	SubjectUser SubjectKind = iota
	SubjectRole
)

// Subject identifies the user or guild role a permission override
// applies to.
type Subject struct {
	Kind SubjectKind
	User UserID
	Role RoleID
}

// UserSubject builds a Subject for a single user.
func UserSubject(id UserID) Subject {
	return Subject{Kind: SubjectUser, User: id}
}

// RoleSubject builds a Subject for a guild role.
func RoleSubject(id RoleID) Subject {
	return Subject{Kind: SubjectRole, Role: id}
}

// PermissionOverride grants or denies permissions on a channel for one
// subject.
type PermissionOverride struct {
	Subject Subject
	Allow   Permission
	Deny    Permission
}

// Messenger is the outgoing capability towards the chat platform. It
// is the only way the game core touches the platform; implementations
// wrap the actual transport. All operations are fallible and must
// honor ctx.
type Messenger interface {
	// SendMessage posts content into channel and returns the new
	// message's id.
	SendMessage(ctx context.Context, channel ChannelID, content string) (MessageID, error)

	// EditMessage replaces a message's content and its reaction set:
	// existing reactions are cleared and the given ones added, in
	// order.
	EditMessage(ctx context.Context, channel ChannelID, message MessageID, content string, reactions []string) error

	// React adds one reaction to a message.
	React(ctx context.Context, channel ChannelID, message MessageID, emoji string) error

	// DeleteReactions removes all reactions from a message.
	DeleteReactions(ctx context.Context, channel ChannelID, message MessageID) error

	// DeleteMessage removes a message.
	DeleteMessage(ctx context.Context, channel ChannelID, message MessageID) error

	// CreateChannel creates a channel of the given kind with the
	// given permission overrides applied.
	CreateChannel(ctx context.Context, guild GuildID, kind ChannelKind, name string, overrides []PermissionOverride) (ChannelID, error)

	// FindChannelByName looks a channel up by kind and name.
	// Returns ErrNotFound if no such channel exists.
	FindChannelByName(ctx context.Context, guild GuildID, kind ChannelKind, name string) (ChannelID, error)

	// SetChannelCategory moves a channel under a category.
	SetChannelCategory(ctx context.Context, channel, category ChannelID) error

	// CreatePermissionOverride adds or replaces the override for the
	// override's subject on the channel.
	CreatePermissionOverride(ctx context.Context, channel ChannelID, override PermissionOverride) error

	// DeletePermissionOverride removes the override for subject, if
	// present.
	DeletePermissionOverride(ctx context.Context, channel ChannelID, subject Subject) error

	// FindRoleByName looks a guild role up by name,
	// case-insensitively. Returns ErrNotFound if it does not exist.
	FindRoleByName(ctx context.Context, guild GuildID, name string) (RoleID, error)

	// CreateRole creates a guild role.
	CreateRole(ctx context.Context, guild GuildID, name string) (RoleID, error)

	// RoleMembers enumerates the users holding a guild role.
	RoleMembers(ctx context.Context, guild GuildID, role RoleID) ([]UserID, error)

	// RemoveMemberRole strips a guild role from a user.
	RemoveMemberRole(ctx context.Context, guild GuildID, user UserID, role RoleID) error
}
