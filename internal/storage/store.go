// Package storage persists per-guild role configurations.
package storage

import (
	"context"
	"errors"

	"github.com/fenrisbot/fenris/internal/chat"
	"github.com/fenrisbot/fenris/internal/roles"
)

// ErrRoleNotFound is returned when a named role does not exist for the
// guild.
var ErrRoleNotFound = errors.New("role not found")

// ErrEmojiTaken is returned when another role in the guild already
// uses the emoji.
var ErrEmojiTaken = errors.New("emoji already used by another role")

// RoleStore persists the role configurations of each guild.
type RoleStore interface {
	// LoadRoles returns the guild's roles sorted by name.
	LoadRoles(ctx context.Context, guild chat.GuildID) ([]roles.Config, error)

	// SetRole inserts or replaces a role by name. It fails with
	// ErrEmojiTaken when a different role already uses the emoji.
	SetRole(ctx context.Context, guild chat.GuildID, cfg roles.Config) error

	// RemoveRole deletes a role by name. It fails with
	// ErrRoleNotFound when the role does not exist.
	RemoveRole(ctx context.Context, guild chat.GuildID, name string) error
}
