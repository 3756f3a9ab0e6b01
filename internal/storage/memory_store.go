package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/fenrisbot/fenris/internal/chat"
	"github.com/fenrisbot/fenris/internal/roles"
)

// MemoryStore is an in-memory RoleStore. Useful for tests and
// throwaway setups; nothing survives a restart.
type MemoryStore struct {
	mu     sync.RWMutex
	guilds map[chat.GuildID]map[string]roles.Config
}

var _ RoleStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{guilds: make(map[chat.GuildID]map[string]roles.Config)}
}

func (s *MemoryStore) LoadRoles(ctx context.Context, guild chat.GuildID) ([]roles.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]roles.Config, 0, len(s.guilds[guild]))
	for _, cfg := range s.guilds[guild] {
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) SetRole(ctx context.Context, guild chat.GuildID, cfg roles.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byName := s.guilds[guild]
	if byName == nil {
		byName = make(map[string]roles.Config)
		s.guilds[guild] = byName
	}
	for name, existing := range byName {
		if name != cfg.Name && existing.Emoji == cfg.Emoji {
			return ErrEmojiTaken
		}
	}
	byName[cfg.Name] = cfg
	return nil
}

func (s *MemoryStore) RemoveRole(ctx context.Context, guild chat.GuildID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byName := s.guilds[guild]
	if _, ok := byName[name]; !ok {
		return ErrRoleNotFound
	}
	delete(byName, name)
	return nil
}
