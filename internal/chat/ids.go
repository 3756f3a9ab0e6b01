// Package chat defines the capability surface towards the group-chat
// platform: typed identifiers, the closed event set delivered to state
// machines, the Messenger interface used for all outgoing platform
// operations, and an in-memory Messenger for tests and examples.
//
// The real platform transport lives outside this module; everything
// here is deliberately transport-agnostic.
package chat

// Platform identifiers. All are opaque strings minted by the platform.
type (
	GuildID   string
	ChannelID string
	MessageID string
	UserID    string
	RoleID    string
)
