// Package fenris coordinates Werewolf rounds over a group-chat
// platform.
//
// Fenris does not talk to any particular chat service itself. It is
// driven entirely through two narrow surfaces: incoming events
// (reactions added or removed, replies to messages) handed to
// Bot.Dispatch, and an outgoing Messenger capability that the embedding
// transport implements. Everything in between, from the interactive
// round flow to channel setup, is handled by the library.
//
// # Core Concepts
//
//  1. Bot
//  2. Messenger
//  3. RoleStore
//  4. State machines
//
// # Bot
//
// Bot is the single entry point. It owns the registry of live state
// machines, the notification loop that wakes machines without user
// input, and the commands that start flows:
//
//   - StartRound opens a new round in a guild
//   - StartAddRole runs the role configuration wizard
//   - RemoveRole and ListRoles manage the stored role configurations
//
// Each Bot instance is safe for concurrent use; events for different
// messages are processed in parallel while events for the same message
// are serialized.
//
// # Messenger
//
// Messenger is the outgoing capability the embedding code provides:
// sending and editing messages, managing reactions, creating channels
// and permission overrides, and resolving guild roles. The chat-layer
// MemoryMessenger implements it in-process for tests and local runs.
//
// # RoleStore
//
// Role configurations are persisted per guild through the RoleStore
// interface. Backends exist for in-memory use, SQLite and Redis.
//
// # State machines
//
// A round is a message-bound state machine: players register by
// reacting to the round message, moderators select the roles in play,
// configure per-role player counts via reply prompts, and finally run
// and stop the round. The machinery underneath lives in pkg/machine as
// a small set of composable transition primitives and is usable on its
// own.
//
// At most one round runs per guild at a time; starting a second one
// fails until the first has ended.
package fenris
