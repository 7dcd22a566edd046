package usecase

import (
	"context"

	"github.com/rocketscienceinc/mafia-bot/internal/apperror"
	"github.com/rocketscienceinc/mafia-bot/internal/entity"
)

// armTimer schedules the timeout of the game's current phase.
// The callback only enqueues; the transition itself runs on the loop.
func (that *Registry) armTimer(game *entity.Game) {
	phase := game.Phase

	after, ok := that.durations.of(phase)
	if !ok {
		return
	}

	game.SetTimer(phase, after, func() {
		that.enqueue(func() {
			that.onTimeout(game, phase)
		})
	})
}

func (that *Registry) onTimeout(game *entity.Game, phase entity.Phase) {
	log := that.logger.With("method", "onTimeout", "conversation", game.ConversationID, "phase", phase.String())

	// the game may have been cancelled, replaced or moved on since the timer was armed
	if current, ok := that.games[game.ConversationID]; !ok || current != game || game.Phase != phase {
		log.Debug("stale timer ignored")
		return
	}

	ctx := that.ctx
	game.ClearTimers()

	switch phase {
	case entity.PhaseNight:
		game.BeginDay()
		that.announce(ctx, game, Event{Kind: EventDayStarted, DayCount: game.DayCount})
	case entity.PhaseDay:
		game.BeginVoting()
		that.announce(ctx, game, Event{Kind: EventVotingStarted, DayCount: game.DayCount})
	case entity.PhaseVoting:
		that.resolveVoting(ctx, game)
		return
	default:
		return
	}

	that.armTimer(game)
	that.persist(ctx)
}

// resolveVoting tallies the ballot, then either ends the game or starts the next night.
func (that *Registry) resolveVoting(ctx context.Context, game *entity.Game) {
	game.ClearTimers()

	if executed := game.TallyVotes(); executed != nil {
		view := viewOf(executed)
		that.announce(ctx, game, Event{Kind: EventExecuted, DayCount: game.DayCount, Player: &view})
	} else {
		that.announce(ctx, game, Event{Kind: EventNoExecution, DayCount: game.DayCount})
	}

	if winner := game.Winner(); winner != entity.FactionNone {
		game.End()
		that.remove(game, reasonEnded)
		that.announce(ctx, game, Event{Kind: EventGameOver, DayCount: game.DayCount, Winner: winner})
		that.persist(ctx)

		return
	}

	game.BeginNight()
	that.announce(ctx, game, Event{Kind: EventNightStarted, DayCount: game.DayCount})
	that.armTimer(game)
	that.persist(ctx)
}

func (that *Registry) announce(ctx context.Context, game *entity.Game, event Event) {
	that.announcer.Announce(ctx, game.ConversationID, event)
}

// CastVote records a ballot. When every living player has voted the round resolves at once.
func (that *Registry) CastVote(ctx context.Context, conversationID, voterID, targetID string) (Ballot, error) {
	var (
		result Ballot
		err    error
	)

	if qErr := that.do(ctx, func() {
		result, err = that.castVote(ctx, conversationID, voterID, targetID)
	}); qErr != nil {
		return Ballot{}, qErr
	}

	return result, err
}

func (that *Registry) castVote(ctx context.Context, conversationID, voterID, targetID string) (Ballot, error) {
	game, err := that.game(conversationID)
	if err != nil {
		return Ballot{}, err
	}

	return that.cast(ctx, game, voterID, targetID)
}

// CastVoteAt votes for the player at a 1-based position of the alive list, as shown by ShowAlive.
// The lookup and the vote run as one step, so a round resolving in between cannot shift positions.
func (that *Registry) CastVoteAt(ctx context.Context, conversationID, voterID string, position int) (Ballot, error) {
	var (
		result Ballot
		err    error
	)

	if qErr := that.do(ctx, func() {
		result, err = that.castVoteAt(ctx, conversationID, voterID, position)
	}); qErr != nil {
		return Ballot{}, qErr
	}

	return result, err
}

func (that *Registry) castVoteAt(ctx context.Context, conversationID, voterID string, position int) (Ballot, error) {
	game, err := that.game(conversationID)
	if err != nil {
		return Ballot{}, err
	}

	if game.Phase != entity.PhaseVoting {
		return Ballot{}, apperror.ErrWrongPhase
	}

	alive := game.AlivePlayers(false, "")
	if position < 1 || position > len(alive) {
		return Ballot{}, apperror.ErrInvalidTarget
	}

	return that.cast(ctx, game, voterID, alive[position-1].ID)
}

func (that *Registry) cast(ctx context.Context, game *entity.Game, voterID, targetID string) (Ballot, error) {
	if err := game.CastVote(voterID, targetID); err != nil {
		return Ballot{}, err
	}

	voter, _ := game.Player(voterID)
	target, _ := game.Player(targetID)
	result := Ballot{Voter: voter.Name, Target: target.Name}

	if game.AllVoted() {
		that.resolveVoting(ctx, game)
		result.Resolved = true

		return result, nil
	}

	that.persist(ctx)

	return result, nil
}

// RecordNightAction stores a night choice. Resolution of the choices is not done here.
func (that *Registry) RecordNightAction(ctx context.Context, conversationID, actorID, targetID string) error {
	var err error

	if qErr := that.do(ctx, func() {
		var game *entity.Game
		if game, err = that.game(conversationID); err != nil {
			return
		}

		if err = game.RecordNightAction(actorID, targetID); err != nil {
			return
		}

		that.persist(ctx)
	}); qErr != nil {
		return qErr
	}

	return err
}

// NightTargets lists who the actor may pick tonight.
func (that *Registry) NightTargets(ctx context.Context, conversationID, actorID string) ([]PlayerView, error) {
	var (
		result []PlayerView
		err    error
	)

	if qErr := that.do(ctx, func() {
		result, err = that.nightTargets(conversationID, actorID)
	}); qErr != nil {
		return nil, qErr
	}

	return result, err
}

func (that *Registry) nightTargets(conversationID, actorID string) ([]PlayerView, error) {
	game, err := that.game(conversationID)
	if err != nil {
		return nil, err
	}

	targets, err := game.NightTargets(actorID)
	if err != nil {
		return nil, err
	}

	return viewsOf(targets), nil
}
