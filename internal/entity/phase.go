package entity

import (
	"errors"
	"fmt"
)

var ErrUnknownPhase = errors.New("unknown phase")

type Phase int

const (
	PhaseLobby Phase = iota + 1
	PhaseNight
	PhaseDay
	PhaseVoting
	PhaseEnded
)

var phaseNames = map[Phase]string{
	PhaseLobby:  "lobby",
	PhaseNight:  "night",
	PhaseDay:    "day",
	PhaseVoting: "voting",
	PhaseEnded:  "ended",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}

	return "unknown"
}

func (p Phase) MarshalText() ([]byte, error) {
	name, ok := phaseNames[p]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPhase, int(p))
	}

	return []byte(name), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	for phase, name := range phaseNames {
		if name == string(text) {
			*p = phase
			return nil
		}
	}

	return fmt.Errorf("%w: %q", ErrUnknownPhase, string(text))
}

// Faction is the side that won a finished game.
type Faction string

const (
	FactionNone  Faction = ""
	FactionTown  Faction = "town"
	FactionMafia Faction = "mafia"
)

// CauseOfDeath tags why a player is no longer alive.
type CauseOfDeath string

const (
	CauseNone     CauseOfDeath = ""
	CauseExecuted CauseOfDeath = "executed"
)
