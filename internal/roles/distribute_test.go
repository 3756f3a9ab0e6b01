package roles

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/fenrisbot/fenris/internal/chat"
)

func testRNG() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func TestDistribute_EveryParticipantGetsOneRole(t *testing.T) {
	participants := []chat.UserID{"a", "b", "c", "d"}
	counted := []CountedConfig{
		{Config: Config{Name: "Werewolf"}, Count: 2},
		{Config: Config{Name: "Seer"}, Count: 1},
		{Config: Config{Name: "Villager"}, Count: 1},
	}

	assigned, err := distribute(participants, counted, testRNG())
	if err != nil {
		t.Fatalf("distribute: %v", err)
	}
	if len(assigned) != len(participants) {
		t.Fatalf("assigned %d participants, want %d", len(assigned), len(participants))
	}

	got := map[string]int{}
	for _, user := range participants {
		inst, ok := assigned[user]
		if !ok {
			t.Fatalf("participant %q missing from assignment", user)
		}
		got[inst.Name()]++
	}
	if got["Werewolf"] != 2 || got["Seer"] != 1 || got["Villager"] != 1 {
		t.Fatalf("role multiset = %v", got)
	}
}

func TestDistribute_MaskingRoleHidesBehindNormalRole(t *testing.T) {
	participants := []chat.UserID{"a", "b", "c"}
	counted := []CountedConfig{
		{Config: Config{Name: "Drunkard", MasksRole: true}, Count: 1},
		{Config: Config{Name: "Werewolf"}, Count: 2},
		{Config: Config{Name: "Villager"}, Count: 1},
	}

	assigned, err := distribute(participants, counted, testRNG())
	if err != nil {
		t.Fatalf("distribute: %v", err)
	}

	masked := 0
	for _, inst := range assigned {
		if inst.Name() == "Drunkard" {
			masked++
			if inst.Masked() == nil {
				t.Fatal("masking role assigned without a hidden role")
			}
			if inst.Masked().Masked() != nil {
				t.Fatal("hidden role is itself masking")
			}
		} else if inst.Masked() != nil {
			t.Fatalf("normal role %q carries a hidden role", inst.Name())
		}
	}
	if masked != 1 {
		t.Fatalf("found %d Drunkard assignments, want 1", masked)
	}
}

func TestDistribute_MismatchedCount(t *testing.T) {
	participants := []chat.UserID{"a", "b", "c"}
	counted := []CountedConfig{
		{Config: Config{Name: "Werewolf"}, Count: 4},
	}

	_, err := distribute(participants, counted, testRNG())
	var mismatch *MismatchedCountError
	if !errors.As(err, &mismatch) {
		t.Fatalf("err = %v, want MismatchedCountError", err)
	}
	if mismatch.AvailableRoles != 4 || mismatch.PlayerCount != 3 {
		t.Fatalf("mismatch = %+v", mismatch)
	}
}

func TestDistribute_MismatchedCountCheckedFirst(t *testing.T) {
	// Violates both invariants: two masking occurrences over one
	// normal occurrence, and one occurrence for three participants.
	// The count mismatch must win.
	participants := []chat.UserID{"a", "b", "c"}
	counted := []CountedConfig{
		{Config: Config{Name: "Drunkard", MasksRole: true}, Count: 2},
		{Config: Config{Name: "Villager"}, Count: 1},
	}

	_, err := distribute(participants, counted, testRNG())
	var mismatch *MismatchedCountError
	if !errors.As(err, &mismatch) {
		t.Fatalf("err = %v, want MismatchedCountError", err)
	}
	if mismatch.AvailableRoles != 1 || mismatch.PlayerCount != 3 {
		t.Fatalf("mismatch = %+v", mismatch)
	}
}

func TestDistribute_TooManyMaskingRoles(t *testing.T) {
	participants := []chat.UserID{"a"}
	counted := []CountedConfig{
		{Config: Config{Name: "Drunkard", MasksRole: true}, Count: 2},
		{Config: Config{Name: "Villager"}, Count: 1},
	}

	_, err := distribute(participants, counted, testRNG())
	var tooMany *TooManyMaskingRolesError
	if !errors.As(err, &tooMany) {
		t.Fatalf("err = %v, want TooManyMaskingRolesError", err)
	}
	if tooMany.MaskingRoles != 2 || tooMany.NormalRoles != 1 {
		t.Fatalf("tooMany = %+v", tooMany)
	}
}

func TestDistribute_Deterministic(t *testing.T) {
	participants := []chat.UserID{"a", "b", "c", "d", "e"}
	counted := []CountedConfig{
		{Config: Config{Name: "Drunkard", MasksRole: true}, Count: 1},
		{Config: Config{Name: "Werewolf"}, Count: 3},
		{Config: Config{Name: "Seer"}, Count: 1},
		{Config: Config{Name: "Villager"}, Count: 1},
	}

	first, err := distribute(participants, counted, rand.New(rand.NewPCG(7, 7)))
	if err != nil {
		t.Fatalf("distribute: %v", err)
	}
	second, err := distribute(participants, counted, rand.New(rand.NewPCG(7, 7)))
	if err != nil {
		t.Fatalf("distribute: %v", err)
	}
	for user, inst := range first {
		if second[user].String() != inst.String() {
			t.Fatalf("assignment for %q differs across identical seeds: %v vs %v", user, inst, second[user])
		}
	}
}

func TestInstance_Channels(t *testing.T) {
	hidden := Instance{name: "Werewolf"}
	inst := Instance{
		name:          "Drunkard",
		masked:        &hidden,
		extraChannels: []string{"tavern"},
	}

	got := inst.Channels()
	want := []string{"Drunkard", "tavern", "Werewolf"}
	if len(got) != len(want) {
		t.Fatalf("Channels() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Channels() = %v, want %v", got, want)
		}
	}
}
