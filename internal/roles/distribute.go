package roles

import (
	"math/rand/v2"
	"time"

	"github.com/fenrisbot/fenris/internal/chat"
)

// Distribute randomly assigns one role instance to every participant.
// The counted configs are flattened into one occurrence per count.
// Masking roles are resolved first: each masking occurrence consumes
// one random non-masking occurrence to hide behind, so it does not
// occupy a participant slot of its own. The non-masking occurrence
// count must match the participant count exactly, and is validated
// before any draws happen.
func Distribute(participants []chat.UserID, counted []CountedConfig) (map[chat.UserID]Instance, error) {
	seed := uint64(time.Now().UnixNano())
	rng := rand.New(rand.NewPCG(seed, seed>>32))
	return distribute(participants, counted, rng)
}

func distribute(participants []chat.UserID, counted []CountedConfig, rng *rand.Rand) (map[chat.UserID]Instance, error) {
	var masking, normal []Config
	for _, cc := range counted {
		for i := 0; i < cc.Count; i++ {
			if cc.MasksRole {
				masking = append(masking, cc.Config)
			} else {
				normal = append(normal, cc.Config)
			}
		}
	}

	// The final instance count equals the non-masking occurrence
	// count: every masking occurrence hides behind one of them.
	if len(normal) != len(participants) {
		return nil, &MismatchedCountError{AvailableRoles: len(normal), PlayerCount: len(participants)}
	}
	if len(masking) > len(normal) {
		return nil, &TooManyMaskingRolesError{MaskingRoles: len(masking), NormalRoles: len(normal)}
	}

	// Resolve masking roles before handing anything out: each one
	// swallows a random non-masking occurrence.
	instances := make([]Instance, 0, len(normal))
	for _, cfg := range masking {
		i := rng.IntN(len(normal))
		hidden := normal[i]
		normal = append(normal[:i], normal[i+1:]...)
		inner := Instance{name: hidden.Name, extraChannels: hidden.ExtraChannels}
		instances = append(instances, Instance{
			name:          cfg.Name,
			masked:        &inner,
			extraChannels: cfg.ExtraChannels,
		})
	}
	for _, cfg := range normal {
		instances = append(instances, Instance{name: cfg.Name, extraChannels: cfg.ExtraChannels})
	}

	assigned := make(map[chat.UserID]Instance, len(participants))
	for _, user := range participants {
		i := rng.IntN(len(instances))
		assigned[user] = instances[i]
		instances = append(instances[:i], instances[i+1:]...)
	}
	return assigned, nil
}
