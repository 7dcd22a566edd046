package entity

import (
	"math/rand/v2"
	"time"

	"github.com/rocketscienceinc/mafia-bot/internal/apperror"
)

// MinPlayers is the smallest roster a game can start with.
const MinPlayers = 3

type Game struct {
	ConversationID string
	MatchID        string
	Phase          Phase
	DayCount       int
	Votes          map[string]string
	NightActions   map[string]string
	RolesAssigned  bool

	players []*Player
	timers  map[Phase]*time.Timer
	intn    func(n int) int
}

func NewGame(conversationID, matchID string) *Game {
	return &Game{
		ConversationID: conversationID,
		MatchID:        matchID,
		Phase:          PhaseLobby,
		Votes:          make(map[string]string),
		NightActions:   make(map[string]string),
		timers:         make(map[Phase]*time.Timer),
		intn:           rand.IntN,
	}
}

// RestoreGame rebuilds a game from persisted state. Players must already be in join order.
func RestoreGame(conversationID, matchID string, players []*Player) *Game {
	game := NewGame(conversationID, matchID)
	game.players = players

	return game
}

// Players returns the roster in join order.
func (that *Game) Players() []*Player {
	return that.players
}

func (that *Game) Player(id string) (*Player, bool) {
	for _, player := range that.players {
		if player.ID == id {
			return player, true
		}
	}

	return nil, false
}

// Creator is the player who opened the lobby, or nil once the roster is empty.
func (that *Game) Creator() *Player {
	if len(that.players) == 0 {
		return nil
	}

	return that.players[0]
}

func (that *Game) IsLobby() bool {
	return that.Phase == PhaseLobby
}

func (that *Game) AddPlayer(id, name string) bool {
	if !that.IsLobby() {
		return false
	}

	if _, ok := that.Player(id); ok {
		return false
	}

	that.players = append(that.players, NewPlayer(id, name))

	return true
}

// RemovePlayer drops a player from the lobby and returns it.
func (that *Game) RemovePlayer(id string) (*Player, bool) {
	if !that.IsLobby() {
		return nil, false
	}

	for i, player := range that.players {
		if player.ID == id {
			that.players = append(that.players[:i], that.players[i+1:]...)
			return player, true
		}
	}

	return nil, false
}

func (that *Game) AssignRoles() bool {
	return that.assignRoles(that.intn)
}

func (that *Game) assignRoles(intn func(n int) int) bool {
	if that.RolesAssigned || len(that.players) < MinPlayers {
		return false
	}

	counts := RoleCounts(len(that.players))

	roles := make([]Role, 0, len(that.players))
	for _, role := range Dealt {
		for range counts[role] {
			roles = append(roles, role)
		}
	}

	// Fisher-Yates
	for i := len(roles) - 1; i > 0; i-- {
		j := intn(i + 1)
		roles[i], roles[j] = roles[j], roles[i]
	}

	for i, player := range that.players {
		player.Role = roles[i]
	}

	that.RolesAssigned = true

	return true
}

func (that *Game) RoleDescription(role Role) string {
	return Description(role)
}

// AlivePlayers filters the roster to living players, keeping join order.
// An empty excludeID excludes nobody.
func (that *Game) AlivePlayers(excludeMafia bool, excludeID string) []*Player {
	alive := make([]*Player, 0, len(that.players))

	for _, player := range that.players {
		if !player.Alive {
			continue
		}

		if excludeMafia && player.Role.IsMafia() {
			continue
		}

		if excludeID != "" && player.ID == excludeID {
			continue
		}

		alive = append(alive, player)
	}

	return alive
}

// AliveMafia counts living mafia members.
func (that *Game) AliveMafia() int {
	count := 0
	for _, player := range that.players {
		if player.Alive && player.Role.IsMafia() {
			count++
		}
	}

	return count
}

func (that *Game) BeginNight() {
	that.Phase = PhaseNight
	that.NightActions = make(map[string]string)

	for _, player := range that.players {
		player.Protected = false
	}
}

func (that *Game) BeginDay() {
	that.Phase = PhaseDay
	that.DayCount++
}

func (that *Game) BeginVoting() {
	that.Phase = PhaseVoting
	that.Votes = make(map[string]string)
}

func (that *Game) End() {
	that.Phase = PhaseEnded
}

// NightTargets lists who the actor may pick tonight. Mafia never see fellow mafia,
// the doctor may pick themselves, everybody else may not.
func (that *Game) NightTargets(actorID string) ([]*Player, error) {
	if that.Phase != PhaseNight {
		return nil, apperror.ErrWrongPhase
	}

	actor, err := that.alivePlayer(actorID)
	if err != nil {
		return nil, err
	}

	switch {
	case actor.Role.IsMafia():
		return that.AlivePlayers(true, ""), nil
	case actor.Role == RoleDoctor:
		return that.AlivePlayers(false, ""), nil
	case actor.Role.HasNightAction():
		return that.AlivePlayers(false, actorID), nil
	default:
		return nil, apperror.ErrNoNightAction
	}
}

// RecordNightAction stores the actor's target for tonight. The target must be one of
// NightTargets. Outcomes are not resolved here.
func (that *Game) RecordNightAction(actorID, targetID string) error {
	targets, err := that.NightTargets(actorID)
	if err != nil {
		return err
	}

	var target *Player
	for _, candidate := range targets {
		if candidate.ID == targetID {
			target = candidate
			break
		}
	}

	if target == nil {
		return apperror.ErrInvalidTarget
	}

	that.NightActions[actorID] = targetID

	actor, _ := that.Player(actorID)
	switch actor.Role {
	case RoleDoctor:
		that.refreshProtection()
	case RolePolice, RoleDetective:
		target.Investigated = true
	default:
	}

	return nil
}

func (that *Game) refreshProtection() {
	for _, player := range that.players {
		player.Protected = false
	}

	for actorID, targetID := range that.NightActions {
		actor, ok := that.Player(actorID)
		if !ok || actor.Role != RoleDoctor {
			continue
		}

		if target, ok := that.Player(targetID); ok {
			target.Protected = true
		}
	}
}

func (that *Game) CastVote(voterID, targetID string) error {
	if that.Phase != PhaseVoting {
		return apperror.ErrWrongPhase
	}

	if _, err := that.alivePlayer(voterID); err != nil {
		return err
	}

	target, ok := that.Player(targetID)
	if !ok || !target.Alive || targetID == voterID {
		return apperror.ErrInvalidTarget
	}

	that.Votes[voterID] = targetID

	return nil
}

// AllVoted reports whether every living player has a vote on record.
func (that *Game) AllVoted() bool {
	for _, player := range that.AlivePlayers(false, "") {
		if _, ok := that.Votes[player.ID]; !ok {
			return false
		}
	}

	return true
}

// TallyVotes executes the single most voted player. A tie executes nobody.
func (that *Game) TallyVotes() *Player {
	counts := make(map[string]int)
	for _, targetID := range that.Votes {
		counts[targetID]++
	}

	best, bestCount, tie := "", 0, false
	for targetID, count := range counts {
		switch {
		case count > bestCount:
			best, bestCount, tie = targetID, count, false
		case count == bestCount:
			tie = true
		}
	}

	if best == "" || tie {
		return nil
	}

	executed, ok := that.Player(best)
	if !ok || !executed.Alive {
		return nil
	}

	executed.Kill(CauseExecuted)

	return executed
}

// Winner returns the winning faction, or FactionNone while the game goes on.
func (that *Game) Winner() Faction {
	mafia := that.AliveMafia()
	others := len(that.AlivePlayers(true, ""))

	switch {
	case mafia == 0:
		return FactionTown
	case mafia >= others:
		return FactionMafia
	default:
		return FactionNone
	}
}

func (that *Game) alivePlayer(id string) (*Player, error) {
	player, ok := that.Player(id)
	if !ok {
		return nil, apperror.ErrNotJoined
	}

	if !player.Alive {
		return nil, apperror.ErrPlayerDead
	}

	return player, nil
}

// SetTimer arms the timeout for a phase, replacing any pending one.
func (that *Game) SetTimer(phase Phase, after time.Duration, callback func()) {
	if timer, ok := that.timers[phase]; ok {
		timer.Stop()
	}

	that.timers[phase] = time.AfterFunc(after, callback)
}

// ClearTimers stops every pending phase timeout.
func (that *Game) ClearTimers() {
	for phase, timer := range that.timers {
		timer.Stop()
		delete(that.timers, phase)
	}
}

// PendingTimers is the number of armed phase timeouts.
func (that *Game) PendingTimers() int {
	return len(that.timers)
}
