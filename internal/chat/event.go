package chat

// EventKind enumerates the closed set of stimuli a state machine can
// receive.
type EventKind int

const (
	// EventAddReaction: a user added a reaction to a message.
	EventAddReaction EventKind = iota
	// EventRemoveReaction: a user removed their reaction.
	EventRemoveReaction
	// EventReply: a user replied to a message.
	EventReply
	// EventNotify is synthesized internally when an out-of-band
	// sub-task completes; it never originates from the platform.
	EventNotify
)

func (k EventKind) String() string {
	switch k {
	case EventAddReaction:
		return "add-reaction"
	case EventRemoveReaction:
		return "remove-reaction"
	case EventReply:
		return "reply"
	case EventNotify:
		return "notify"
	default:
		return "unknown"
	}
}

// Event is one stimulus, addressed to the message a state machine is
// attached to.
type Event struct {
	Kind    EventKind
	Guild   GuildID
	Channel ChannelID

	// Message is the message the event is addressed to: the
	// reacted-to message for reaction events, the replied-to message
	// for replies.
	Message MessageID

	// User is the reacting user or the reply author. Empty for
	// Notify events.
	User UserID

	// Emoji is set for reaction events.
	Emoji string

	// Reply fields.
	ReplyID MessageID
	Content string
}

// ReactionAdded builds an AddReaction event.
func ReactionAdded(guild GuildID, channel ChannelID, message MessageID, user UserID, emoji string) Event {
	return Event{Kind: EventAddReaction, Guild: guild, Channel: channel, Message: message, User: user, Emoji: emoji}
}

// ReactionRemoved builds a RemoveReaction event.
func ReactionRemoved(guild GuildID, channel ChannelID, message MessageID, user UserID, emoji string) Event {
	return Event{Kind: EventRemoveReaction, Guild: guild, Channel: channel, Message: message, User: user, Emoji: emoji}
}

// ReplyReceived builds a Reply event. message is the replied-to
// message, replyID the reply itself.
func ReplyReceived(guild GuildID, channel ChannelID, message, replyID MessageID, author UserID, content string) Event {
	return Event{Kind: EventReply, Guild: guild, Channel: channel, Message: message, ReplyID: replyID, User: author, Content: content}
}

// Notification builds an internally synthesized Notify event.
func Notification(guild GuildID, message MessageID) Event {
	return Event{Kind: EventNotify, Guild: guild, Message: message}
}
