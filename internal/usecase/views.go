package usecase

import (
	"time"

	"github.com/rocketscienceinc/mafia-bot/internal/entity"
)

// Durations is how long each timed phase lasts before the registry moves on.
type Durations struct {
	Night  time.Duration
	Day    time.Duration
	Voting time.Duration
}

func (that Durations) of(phase entity.Phase) (time.Duration, bool) {
	switch phase {
	case entity.PhaseNight:
		return that.Night, true
	case entity.PhaseDay:
		return that.Day, true
	case entity.PhaseVoting:
		return that.Voting, true
	default:
		return 0, false
	}
}

type PlayerView struct {
	ID    string
	Name  string
	Alive bool
}

func viewOf(player *entity.Player) PlayerView {
	return PlayerView{
		ID:    player.ID,
		Name:  player.Name,
		Alive: player.Alive,
	}
}

func viewsOf(players []*entity.Player) []PlayerView {
	views := make([]PlayerView, 0, len(players))
	for _, player := range players {
		views = append(views, viewOf(player))
	}

	return views
}

// Lobby is the result of creating or joining a game.
type Lobby struct {
	Creator     string
	Player      string
	PlayerCount int
}

// RoleReveal discloses one player's role. It must only ever be delivered to UserID.
type RoleReveal struct {
	UserID      string
	Role        entity.Role
	Description string
}

// Started carries one private reveal per player, in join order.
type Started struct {
	Reveals []RoleReveal
}

type Roster struct {
	Phase   entity.Phase
	Players []PlayerView
	// Needed is how many more players the lobby needs before it can start.
	Needed int
}

type Status struct {
	Phase    entity.Phase
	DayCount int
	Alive    int
	Total    int
	// Started is false in the lobby; the alignment counts are only set once started.
	Started     bool
	AliveMafia  int
	AliveOthers int
}

type Departure struct {
	Name      string
	Remaining int
	Deleted   bool
}

type Ballot struct {
	Voter    string
	Target   string
	Resolved bool
}

type RoleInfo struct {
	Role        entity.Role
	Description string
}

type Rules struct {
	MinPlayers int
	Phases     []entity.Phase
	Roles      []RoleInfo
}

type CommandInfo struct {
	Name    string
	Args    string
	Summary string
}

type EventKind int

const (
	EventNightStarted EventKind = iota + 1
	EventDayStarted
	EventVotingStarted
	EventExecuted
	EventNoExecution
	EventGameOver
)

// Event is a group visible announcement of a timer driven transition.
type Event struct {
	Kind     EventKind
	DayCount int
	Player   *PlayerView
	Winner   entity.Faction
}
