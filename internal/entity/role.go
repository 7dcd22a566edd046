package entity

import (
	"errors"
	"fmt"
)

var ErrUnknownRole = errors.New("unknown role")

type Role int

const (
	RoleNone Role = iota
	RoleMafia
	RoleCivilian
	RoleDoctor
	RolePolice
	RoleSerialKiller
	RoleDetective
	RoleLover
	RoleRevolutionary
)

const noDescription = "No description for this role."

var roleNames = map[Role]string{
	RoleMafia:         "mafia",
	RoleCivilian:      "civilian",
	RoleDoctor:        "doctor",
	RolePolice:        "police",
	RoleSerialKiller:  "serial_killer",
	RoleDetective:     "detective",
	RoleLover:         "lover",
	RoleRevolutionary: "revolutionary",
}

var roleTitles = map[Role]string{
	RoleMafia:         "Mafia",
	RoleCivilian:      "Civilian",
	RoleDoctor:        "Doctor",
	RolePolice:        "Police",
	RoleSerialKiller:  "Serial Killer",
	RoleDetective:     "Detective",
	RoleLover:         "Lover",
	RoleRevolutionary: "Revolutionary",
}

var roleDescriptions = map[Role]string{
	RoleMafia:         "You are a member of the Mafia! Every night you choose a victim. Your goal is to get rid of every civilian.",
	RoleCivilian:      "You are an ordinary civilian! Find and execute every member of the Mafia before they finish you.",
	RoleDoctor:        "You are the Doctor! Every night you may choose one person to protect from death, yourself included.",
	RolePolice:        "You are the Police! Every night you may check one person to learn whether they are Mafia.",
	RoleSerialKiller:  "You are the Serial Killer! Your goal is to kill everyone. You may kill one person every night.",
	RoleDetective:     "You are the Detective! You may follow the movements of one person every night.",
	RoleLover:         "You are the Lover! You know your partner and must protect them. If your partner dies, you die too.",
	RoleRevolutionary: "You are the Revolutionary! Once per game you may sacrifice yourself to kill a suspect.",
}

// Dealt lists the roles assignRoles can hand out, in deal order before shuffling.
var Dealt = []Role{RoleMafia, RoleDoctor, RolePolice, RoleSerialKiller, RoleDetective, RoleCivilian}

// specialUnlocks maps each special role to the player count that unlocks it.
var specialUnlocks = []struct {
	role       Role
	minPlayers int
}{
	{RoleDoctor, 4},
	{RolePolice, 5},
	{RoleSerialKiller, 7},
	{RoleDetective, 9},
}

// Description returns the in-game description of a role.
func Description(role Role) string {
	if description, ok := roleDescriptions[role]; ok {
		return description
	}

	return noDescription
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}

	return "none"
}

// Title is the human readable role name.
func (r Role) Title() string {
	if title, ok := roleTitles[r]; ok {
		return title
	}

	return "Unknown"
}

func (r Role) IsMafia() bool {
	return r == RoleMafia
}

// HasNightAction reports whether the role picks a target during the night.
func (r Role) HasNightAction() bool {
	switch r {
	case RoleMafia, RoleDoctor, RolePolice, RoleSerialKiller, RoleDetective:
		return true
	default:
		return false
	}
}

func (r Role) MarshalText() ([]byte, error) {
	if r == RoleNone {
		return []byte{}, nil
	}

	name, ok := roleNames[r]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRole, int(r))
	}

	return []byte(name), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*r = RoleNone
		return nil
	}

	for role, name := range roleNames {
		if name == string(text) {
			*r = role
			return nil
		}
	}

	return fmt.Errorf("%w: %q", ErrUnknownRole, string(text))
}

// RoleCounts returns how many of each role a game of n players is dealt.
func RoleCounts(n int) map[Role]int {
	counts := map[Role]int{RoleMafia: max(1, n/4)}

	for _, unlock := range specialUnlocks {
		if n >= unlock.minPlayers {
			counts[unlock.role]++
		}
	}

	dealt := 0
	for _, count := range counts {
		dealt += count
	}

	if n > dealt {
		counts[RoleCivilian] = n - dealt
	}

	return counts
}
