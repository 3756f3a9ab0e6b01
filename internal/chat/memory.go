package chat

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Message is a snapshot of a message held by the in-memory messenger.
type Message struct {
	ID        MessageID
	Channel   ChannelID
	Content   string
	Reactions []string
}

type memChannel struct {
	id        ChannelID
	guild     GuildID
	kind      ChannelKind
	name      string
	category  ChannelID
	overrides map[Subject]PermissionOverride
}

type memRole struct {
	id      RoleID
	guild   GuildID
	name    string
	members map[UserID]struct{}
}

// MemoryMessenger is an in-process Messenger backed by maps. It exists
// for tests and local experiments; ids are minted with uuid.
type MemoryMessenger struct {
	mu       sync.Mutex
	messages map[MessageID]*Message
	channels map[ChannelID]*memChannel
	roles    map[RoleID]*memRole
	deleted  []MessageID
}

var _ Messenger = (*MemoryMessenger)(nil)

func NewMemoryMessenger() *MemoryMessenger {
	return &MemoryMessenger{
		messages: make(map[MessageID]*Message),
		channels: make(map[ChannelID]*memChannel),
		roles:    make(map[RoleID]*memRole),
	}
}

func (m *MemoryMessenger) SendMessage(ctx context.Context, channel ChannelID, content string) (MessageID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := MessageID(uuid.NewString())
	m.messages[id] = &Message{ID: id, Channel: channel, Content: content}
	return id, nil
}

func (m *MemoryMessenger) EditMessage(ctx context.Context, channel ChannelID, message MessageID, content string, reactions []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[message]
	if !ok {
		return ErrNotFound
	}
	msg.Content = content
	msg.Reactions = append([]string(nil), reactions...)
	return nil
}

func (m *MemoryMessenger) React(ctx context.Context, channel ChannelID, message MessageID, emoji string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[message]
	if !ok {
		return ErrNotFound
	}
	msg.Reactions = append(msg.Reactions, emoji)
	return nil
}

func (m *MemoryMessenger) DeleteReactions(ctx context.Context, channel ChannelID, message MessageID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[message]
	if !ok {
		return ErrNotFound
	}
	msg.Reactions = nil
	return nil
}

func (m *MemoryMessenger) DeleteMessage(ctx context.Context, channel ChannelID, message MessageID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.messages[message]; !ok {
		return ErrNotFound
	}
	delete(m.messages, message)
	m.deleted = append(m.deleted, message)
	return nil
}

func (m *MemoryMessenger) CreateChannel(ctx context.Context, guild GuildID, kind ChannelKind, name string, overrides []PermissionOverride) (ChannelID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := &memChannel{
		id:        ChannelID(uuid.NewString()),
		guild:     guild,
		kind:      kind,
		name:      name,
		overrides: make(map[Subject]PermissionOverride),
	}
	for _, ov := range overrides {
		ch.overrides[ov.Subject] = ov
	}
	m.channels[ch.id] = ch
	return ch.id, nil
}

func (m *MemoryMessenger) FindChannelByName(ctx context.Context, guild GuildID, kind ChannelKind, name string) (ChannelID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.channels {
		if ch.guild == guild && ch.kind == kind && ch.name == name {
			return ch.id, nil
		}
	}
	return "", ErrNotFound
}

func (m *MemoryMessenger) SetChannelCategory(ctx context.Context, channel, category ChannelID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.channels[channel]
	if !ok {
		return ErrNotFound
	}
	ch.category = category
	return nil
}

func (m *MemoryMessenger) CreatePermissionOverride(ctx context.Context, channel ChannelID, override PermissionOverride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.channels[channel]
	if !ok {
		return ErrNotFound
	}
	ch.overrides[override.Subject] = override
	return nil
}

func (m *MemoryMessenger) DeletePermissionOverride(ctx context.Context, channel ChannelID, subject Subject) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.channels[channel]
	if !ok {
		return ErrNotFound
	}
	delete(ch.overrides, subject)
	return nil
}

func (m *MemoryMessenger) FindRoleByName(ctx context.Context, guild GuildID, name string) (RoleID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.roles {
		if r.guild == guild && strings.EqualFold(r.name, name) {
			return r.id, nil
		}
	}
	return "", ErrNotFound
}

func (m *MemoryMessenger) CreateRole(ctx context.Context, guild GuildID, name string) (RoleID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := &memRole{
		id:      RoleID(uuid.NewString()),
		guild:   guild,
		name:    name,
		members: make(map[UserID]struct{}),
	}
	m.roles[r.id] = r
	return r.id, nil
}

func (m *MemoryMessenger) RoleMembers(ctx context.Context, guild GuildID, role RoleID) ([]UserID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.roles[role]
	if !ok {
		return nil, ErrNotFound
	}
	members := make([]UserID, 0, len(r.members))
	for u := range r.members {
		members = append(members, u)
	}
	return members, nil
}

func (m *MemoryMessenger) RemoveMemberRole(ctx context.Context, guild GuildID, user UserID, role RoleID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.roles[role]
	if !ok {
		return ErrNotFound
	}
	delete(r.members, user)
	return nil
}

// AddRoleMember is a test helper that puts a user into a guild role.
func (m *MemoryMessenger) AddRoleMember(role RoleID, user UserID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.roles[role]; ok {
		r.members[user] = struct{}{}
	}
}

// GetMessage returns a copy of a message, or false if it is gone.
func (m *MemoryMessenger) GetMessage(id MessageID) (Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[id]
	if !ok {
		return Message{}, false
	}
	out := *msg
	out.Reactions = append([]string(nil), msg.Reactions...)
	return out, ok
}

// Messages returns copies of all messages currently in a channel.
func (m *MemoryMessenger) Messages(channel ChannelID) []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Message
	for _, msg := range m.messages {
		if msg.Channel == channel {
			cp := *msg
			cp.Reactions = append([]string(nil), msg.Reactions...)
			out = append(out, cp)
		}
	}
	return out
}

// Deleted lists ids of messages removed via DeleteMessage.
func (m *MemoryMessenger) Deleted() []MessageID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MessageID(nil), m.deleted...)
}

// ChannelOverrides returns the current overrides on a channel.
func (m *MemoryMessenger) ChannelOverrides(channel ChannelID) []PermissionOverride {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.channels[channel]
	if !ok {
		return nil
	}
	out := make([]PermissionOverride, 0, len(ch.overrides))
	for _, ov := range ch.overrides {
		out = append(out, ov)
	}
	return out
}

// ChannelCategory returns the category a channel was moved under.
func (m *MemoryMessenger) ChannelCategory(channel ChannelID) ChannelID {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ch, ok := m.channels[channel]; ok {
		return ch.category
	}
	return ""
}
