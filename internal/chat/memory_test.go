package chat

import (
	"context"
	"testing"
)

func TestMemoryMessenger_MessageLifecycle(t *testing.T) {
	m := NewMemoryMessenger()
	ctx := context.Background()

	id, err := m.SendMessage(ctx, "ch", "hello")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if err := m.React(ctx, "ch", id, "✅"); err != nil {
		t.Fatalf("React: %v", err)
	}
	if err := m.EditMessage(ctx, "ch", id, "edited", []string{"🆗", "🛑"}); err != nil {
		t.Fatalf("EditMessage: %v", err)
	}

	msg, ok := m.GetMessage(id)
	if !ok {
		t.Fatal("message disappeared")
	}
	if msg.Content != "edited" {
		t.Fatalf("content = %q, want %q", msg.Content, "edited")
	}
	if len(msg.Reactions) != 2 || msg.Reactions[0] != "🆗" {
		t.Fatalf("reactions = %v, want edit to replace them", msg.Reactions)
	}

	if err := m.DeleteMessage(ctx, "ch", id); err != nil {
		t.Fatalf("DeleteMessage: %v", err)
	}
	if _, ok := m.GetMessage(id); ok {
		t.Fatal("message still present after delete")
	}
	if got := m.Deleted(); len(got) != 1 || got[0] != id {
		t.Fatalf("Deleted() = %v", got)
	}
}

func TestMemoryMessenger_MissingMessage(t *testing.T) {
	m := NewMemoryMessenger()
	if err := m.React(context.Background(), "ch", "nope", "✅"); err != ErrNotFound {
		t.Fatalf("React on missing message: err = %v, want ErrNotFound", err)
	}
}

func TestMemoryMessenger_ChannelsAndOverrides(t *testing.T) {
	m := NewMemoryMessenger()
	ctx := context.Background()

	ov := PermissionOverride{Subject: UserSubject("alice"), Allow: PermissionRead | PermissionSend}
	ch, err := m.CreateChannel(ctx, "g", ChannelText, "wolves", []PermissionOverride{ov})
	if err != nil {
		t.Fatalf("CreateChannel: %v", err)
	}

	found, err := m.FindChannelByName(ctx, "g", ChannelText, "wolves")
	if err != nil || found != ch {
		t.Fatalf("FindChannelByName = %q, %v", found, err)
	}
	if _, err := m.FindChannelByName(ctx, "g", ChannelCategory, "wolves"); err != ErrNotFound {
		t.Fatalf("kind mismatch should not match, err = %v", err)
	}

	cat, _ := m.CreateChannel(ctx, "g", ChannelCategory, "active", nil)
	if err := m.SetChannelCategory(ctx, ch, cat); err != nil {
		t.Fatalf("SetChannelCategory: %v", err)
	}
	if m.ChannelCategory(ch) != cat {
		t.Fatal("category not recorded")
	}

	if err := m.DeletePermissionOverride(ctx, ch, UserSubject("alice")); err != nil {
		t.Fatalf("DeletePermissionOverride: %v", err)
	}
	if got := m.ChannelOverrides(ch); len(got) != 0 {
		t.Fatalf("overrides = %v, want empty", got)
	}
}

func TestMemoryMessenger_Roles(t *testing.T) {
	m := NewMemoryMessenger()
	ctx := context.Background()

	id, err := m.CreateRole(ctx, "g", "Game Master")
	if err != nil {
		t.Fatalf("CreateRole: %v", err)
	}
	found, err := m.FindRoleByName(ctx, "g", "game master")
	if err != nil || found != id {
		t.Fatalf("FindRoleByName = %q, %v, want case-insensitive hit", found, err)
	}

	m.AddRoleMember(id, "alice")
	m.AddRoleMember(id, "bob")
	members, err := m.RoleMembers(ctx, "g", id)
	if err != nil || len(members) != 2 {
		t.Fatalf("RoleMembers = %v, %v", members, err)
	}

	if err := m.RemoveMemberRole(ctx, "g", "alice", id); err != nil {
		t.Fatalf("RemoveMemberRole: %v", err)
	}
	members, _ = m.RoleMembers(ctx, "g", id)
	if len(members) != 1 || members[0] != "bob" {
		t.Fatalf("members after removal = %v", members)
	}
}
