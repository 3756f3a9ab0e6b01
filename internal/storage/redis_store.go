package storage

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/fenrisbot/fenris/internal/chat"
	"github.com/fenrisbot/fenris/internal/roles"
)

// RedisStore is a RoleStore backed by Redis. It keeps one hash per
// guild:
//
//	<prefix>roles:<guild> => { <name> => JSON-encoded role config }
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ RoleStore = (*RedisStore)(nil)

// NewRedisStore creates a RedisStore.
// prefix is optional but recommended (e.g. "fenris:").
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "fenris:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) keyGuild(guild chat.GuildID) string {
	return s.prefix + "roles:" + string(guild)
}

func (s *RedisStore) LoadRoles(ctx context.Context, guild chat.GuildID) ([]roles.Config, error) {
	fields, err := s.client.HGetAll(ctx, s.keyGuild(guild)).Result()
	if err != nil {
		return nil, err
	}

	out := make([]roles.Config, 0, len(fields))
	for _, raw := range fields {
		var cfg roles.Config
		if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
			return nil, err
		}
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *RedisStore) SetRole(ctx context.Context, guild chat.GuildID, cfg roles.Config) error {
	// Emoji uniqueness is checked against the current hash contents.
	// Concurrent writers for the same guild go through the round
	// registry, so a plain read-then-write is enough here.
	existing, err := s.LoadRoles(ctx, guild)
	if err != nil {
		return err
	}
	for _, other := range existing {
		if other.Name != cfg.Name && other.Emoji == cfg.Emoji {
			return ErrEmojiTaken
		}
	}

	raw, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	return s.client.HSet(ctx, s.keyGuild(guild), cfg.Name, raw).Err()
}

func (s *RedisStore) RemoveRole(ctx context.Context, guild chat.GuildID, name string) error {
	removed, err := s.client.HDel(ctx, s.keyGuild(guild), name).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return ErrRoleNotFound
	}
	return nil
}
