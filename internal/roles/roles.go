// Package roles holds game role definitions and the random assignment
// of roles to participants.
package roles

import "fmt"

// Config describes a role as configured per guild.
type Config struct {
	// Name is unique within a guild.
	Name string `json:"name"`
	// Emoji is the reaction moderators use to pick this role. Also
	// unique within a guild.
	Emoji string `json:"emoji"`
	// MultiPlayer roles can be held by more than one participant per
	// round; moderators are asked for a count.
	MultiPlayer bool `json:"multi_player"`
	// MasksRole roles hide behind another role: a holder also
	// receives one of the normal roles in play.
	MasksRole bool `json:"masks_role"`
	// ExtraChannels are additional private channels each holder gets
	// access to, on top of the channel named after the role.
	ExtraChannels []string `json:"extra_channels,omitempty"`
}

func (c Config) String() string {
	return fmt.Sprintf(
		"%s(%s) - Multiple Players: %t - Contains another Role: %t - Accesses other Channels: %v",
		c.Name, c.Emoji, c.MultiPlayer, c.MasksRole, c.ExtraChannels,
	)
}

// CountedConfig pairs a role with the number of participants that
// should receive it in a round.
type CountedConfig struct {
	Config
	Count int
}

// Instance is a role as assigned to one participant. A masking role
// carries the masked role it hides behind.
type Instance struct {
	name          string
	masked        *Instance
	extraChannels []string
}

// Name returns the assigned role's name.
func (i Instance) Name() string { return i.name }

// Masked returns the role this instance hides behind, if any.
func (i Instance) Masked() *Instance { return i.masked }

// Channels lists the private channel names the holder may access: the
// role's own channel, any extra channels, and the channels of the
// masked role.
func (i Instance) Channels() []string {
	out := []string{i.name}
	out = append(out, i.extraChannels...)
	if i.masked != nil {
		out = append(out, i.masked.Channels()...)
	}
	return out
}

func (i Instance) String() string {
	if i.masked != nil {
		return fmt.Sprintf("%s (masked as %s)", i.name, i.masked)
	}
	return i.name
}

// MismatchedCountError reports that the configured role counts do not
// add up to the number of participants.
type MismatchedCountError struct {
	AvailableRoles int
	PlayerCount    int
}

func (e *MismatchedCountError) Error() string {
	return fmt.Sprintf("role count %d does not match player count %d", e.AvailableRoles, e.PlayerCount)
}

// TooManyMaskingRolesError reports that there are not enough normal
// roles for every masking role to hide behind one.
type TooManyMaskingRolesError struct {
	MaskingRoles int
	NormalRoles  int
}

func (e *TooManyMaskingRolesError) Error() string {
	return fmt.Sprintf("%d masking roles but only %d normal roles to hide behind", e.MaskingRoles, e.NormalRoles)
}
