package storage

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"

	"github.com/fenrisbot/fenris/internal/chat"
	"github.com/fenrisbot/fenris/internal/roles"
)

func openStores(t *testing.T) map[string]RoleStore {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	sqlite, err := NewSQLiteStore(db)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return map[string]RoleStore{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
		"redis":  NewRedisStore(client, "fenris:test:"),
	}
}

func TestRoleStore_SetLoadRemove(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			guild := chat.GuildID("g1")

			werewolf := roles.Config{Name: "Werewolf", Emoji: "🐺", MultiPlayer: true}
			seer := roles.Config{Name: "Seer", Emoji: "🔮", ExtraChannels: []string{"visions"}}

			if err := store.SetRole(ctx, guild, werewolf); err != nil {
				t.Fatalf("SetRole: %v", err)
			}
			if err := store.SetRole(ctx, guild, seer); err != nil {
				t.Fatalf("SetRole: %v", err)
			}

			loaded, err := store.LoadRoles(ctx, guild)
			if err != nil {
				t.Fatalf("LoadRoles: %v", err)
			}
			if len(loaded) != 2 {
				t.Fatalf("loaded %d roles, want 2", len(loaded))
			}
			// Sorted by name: Seer before Werewolf.
			if loaded[0].Name != "Seer" || loaded[1].Name != "Werewolf" {
				t.Fatalf("loaded order = %q, %q", loaded[0].Name, loaded[1].Name)
			}
			if len(loaded[0].ExtraChannels) != 1 || loaded[0].ExtraChannels[0] != "visions" {
				t.Fatalf("extra channels = %v", loaded[0].ExtraChannels)
			}
			if !loaded[1].MultiPlayer {
				t.Fatal("MultiPlayer flag lost")
			}

			if err := store.RemoveRole(ctx, guild, "Seer"); err != nil {
				t.Fatalf("RemoveRole: %v", err)
			}
			loaded, err = store.LoadRoles(ctx, guild)
			if err != nil {
				t.Fatalf("LoadRoles: %v", err)
			}
			if len(loaded) != 1 || loaded[0].Name != "Werewolf" {
				t.Fatalf("roles after removal = %v", loaded)
			}
		})
	}
}

func TestRoleStore_UpsertByName(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			guild := chat.GuildID("g1")

			if err := store.SetRole(ctx, guild, roles.Config{Name: "Werewolf", Emoji: "🐺"}); err != nil {
				t.Fatalf("SetRole: %v", err)
			}
			if err := store.SetRole(ctx, guild, roles.Config{Name: "Werewolf", Emoji: "🌕", MultiPlayer: true}); err != nil {
				t.Fatalf("SetRole (update): %v", err)
			}

			loaded, err := store.LoadRoles(ctx, guild)
			if err != nil {
				t.Fatalf("LoadRoles: %v", err)
			}
			if len(loaded) != 1 {
				t.Fatalf("loaded %d roles, want 1", len(loaded))
			}
			if loaded[0].Emoji != "🌕" || !loaded[0].MultiPlayer {
				t.Fatalf("update not applied: %+v", loaded[0])
			}
		})
	}
}

func TestRoleStore_EmojiConflict(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			guild := chat.GuildID("g1")

			if err := store.SetRole(ctx, guild, roles.Config{Name: "Werewolf", Emoji: "🐺"}); err != nil {
				t.Fatalf("SetRole: %v", err)
			}
			err := store.SetRole(ctx, guild, roles.Config{Name: "Seer", Emoji: "🐺"})
			if !errors.Is(err, ErrEmojiTaken) {
				t.Fatalf("err = %v, want ErrEmojiTaken", err)
			}

			// A different guild may reuse the emoji.
			if err := store.SetRole(ctx, "g2", roles.Config{Name: "Seer", Emoji: "🐺"}); err != nil {
				t.Fatalf("SetRole on other guild: %v", err)
			}
		})
	}
}

func TestRoleStore_RemoveMissing(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			err := store.RemoveRole(context.Background(), "g1", "Ghost")
			if !errors.Is(err, ErrRoleNotFound) {
				t.Fatalf("err = %v, want ErrRoleNotFound", err)
			}
		})
	}
}

func TestRoleStore_GuildsIsolated(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if err := store.SetRole(ctx, "g1", roles.Config{Name: "Werewolf", Emoji: "🐺"}); err != nil {
				t.Fatalf("SetRole: %v", err)
			}
			loaded, err := store.LoadRoles(ctx, "g2")
			if err != nil {
				t.Fatalf("LoadRoles: %v", err)
			}
			if len(loaded) != 0 {
				t.Fatalf("guild g2 sees %v", loaded)
			}
		})
	}
}
