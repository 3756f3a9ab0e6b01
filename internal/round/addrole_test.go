package round

import (
	"strings"
	"testing"

	"github.com/fenrisbot/fenris/internal/chat"
	"github.com/fenrisbot/fenris/internal/roles"
)

func (f *fixture) startWizard(name string, author chat.UserID) *Machine {
	f.t.Helper()
	m, err := NewAddRole(f.ctx, f.deps, f.mm, f.guild, f.channel, name, author)
	if err != nil {
		f.t.Fatalf("NewAddRole: %v", err)
	}
	f.reg.Add(m)
	return m
}

func TestAddRole_FullWizard(t *testing.T) {
	f := newFixture(t)
	m := f.startWizard("Drunkard", "alice")
	id := m.MessageID()

	if got := f.content(id); got != "React with an emoji to use for the Role" {
		t.Fatalf("initial prompt = %q", got)
	}

	f.react(id, "alice", "🍺")
	if got := f.content(id); !strings.Contains(got, "more than one Player") {
		t.Fatalf("after emoji, prompt = %q", got)
	}

	f.react(id, "alice", ReactNo)
	if got := f.content(id); !strings.Contains(got, "mask/hide another Role") {
		t.Fatalf("after multi-player answer, prompt = %q", got)
	}

	f.react(id, "alice", ReactYes)
	if got := f.content(id); !strings.Contains(got, "extra Roles whose Chat") {
		t.Fatalf("after masking answer, prompt = %q", got)
	}

	f.reply(id, "alice", "Werewolf")
	if got := f.content(id); !strings.Contains(got, "(Werewolf)") {
		t.Fatalf("reply not echoed in prompt: %q", got)
	}

	f.react(id, "alice", ReactConfirm)
	if got := f.content(id); got != "Successfully added Role" {
		t.Fatalf("final message = %q", got)
	}
	if f.reg.Len() != 0 {
		t.Fatal("wizard machine not evicted")
	}

	stored, err := f.store.LoadRoles(f.ctx, f.guild)
	if err != nil || len(stored) != 1 {
		t.Fatalf("stored roles = %v, %v", stored, err)
	}
	got := stored[0]
	want := roles.Config{
		Name:          "Drunkard",
		Emoji:         "🍺",
		MasksRole:     true,
		ExtraChannels: []string{"Werewolf"},
	}
	if got.Name != want.Name || got.Emoji != want.Emoji || got.MultiPlayer || !got.MasksRole {
		t.Fatalf("stored config = %+v, want %+v", got, want)
	}
	if len(got.ExtraChannels) != 1 || got.ExtraChannels[0] != "Werewolf" {
		t.Fatalf("extra channels = %v", got.ExtraChannels)
	}
}

func TestAddRole_OtherUsersIgnored(t *testing.T) {
	f := newFixture(t)
	m := f.startWizard("Drunkard", "alice")
	id := m.MessageID()

	f.react(id, "bob", "🍺")
	if got := f.content(id); got != "React with an emoji to use for the Role" {
		t.Fatalf("stranger advanced the wizard: %q", got)
	}
}

func TestAddRole_DuplicateNameRejected(t *testing.T) {
	f := newFixture(t)
	f.seedRole(roles.Config{Name: "Drunkard", Emoji: "🥴"})

	m := f.startWizard("Drunkard", "alice")
	id := m.MessageID()

	f.react(id, "alice", "🍺")
	f.react(id, "alice", ReactNo)
	f.react(id, "alice", ReactNo)
	f.react(id, "alice", ReactConfirm)

	if got := f.content(id); !strings.Contains(got, "already exists a Role with the Name") {
		t.Fatalf("final message = %q", got)
	}
	stored, _ := f.store.LoadRoles(f.ctx, f.guild)
	if len(stored) != 1 || stored[0].Emoji != "🥴" {
		t.Fatalf("store changed despite duplicate: %v", stored)
	}
}

func TestAddRole_DuplicateEmojiRejected(t *testing.T) {
	f := newFixture(t)
	f.seedRole(roles.Config{Name: "Brewer", Emoji: "🍺"})

	m := f.startWizard("Drunkard", "alice")
	id := m.MessageID()

	f.react(id, "alice", "🍺")
	f.react(id, "alice", ReactNo)
	f.react(id, "alice", ReactNo)
	f.react(id, "alice", ReactConfirm)

	if got := f.content(id); !strings.Contains(got, "already exists a Role with the Emoji") {
		t.Fatalf("final message = %q", got)
	}
}
