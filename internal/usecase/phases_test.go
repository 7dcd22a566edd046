package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/mafia-bot/internal/apperror"
	"github.com/rocketscienceinc/mafia-bot/internal/entity"
)

func TestRegistry_PhaseTimers(t *testing.T) {
	ctx := context.Background()

	t.Run("Night and day time out into voting", func(t *testing.T) {
		// Given: short night and day phases
		registry, events := newTestRegistry(t, &memoryStore{}, Durations{
			Night:  20 * time.Millisecond,
			Day:    20 * time.Millisecond,
			Voting: time.Hour,
		})
		lobbyOf(t, registry, "C1", "A", "B", "D")

		// When: the game starts and the timers run out
		_, err := registry.StartGame(ctx, "C1")
		require.NoError(t, err)

		// Then: the game reaches the first vote on day one
		require.Eventually(t, func() bool {
			status, err := registry.GameStatus(ctx, "C1")
			return err == nil && status.Phase == entity.PhaseVoting
		}, time.Second, 10*time.Millisecond)

		status, err := registry.GameStatus(ctx, "C1")
		require.NoError(t, err)
		assert.Equal(t, 1, status.DayCount)
		assert.Equal(t, []EventKind{EventDayStarted, EventVotingStarted}, events.kinds())
	})

	t.Run("Voting timeout without votes starts the next night", func(t *testing.T) {
		registry, events := newTestRegistry(t, &memoryStore{}, Durations{
			Night:  time.Hour,
			Day:    time.Hour,
			Voting: 20 * time.Millisecond,
		})
		lobbyOf(t, registry, "C1", "A", "B", "D")
		deal(t, registry, "C1", entity.RoleMafia, entity.RoleCivilian, entity.RoleCivilian)

		// Given: the game is put straight into voting with its timer armed
		require.NoError(t, registry.do(ctx, func() {
			game := registry.games["C1"]
			game.ClearTimers()
			game.BeginVoting()
			registry.armTimer(game)
		}))

		// Then: nobody is executed and night falls again
		require.Eventually(t, func() bool {
			return len(events.kinds()) == 2
		}, time.Second, 10*time.Millisecond)
		assert.Equal(t, []EventKind{EventNoExecution, EventNightStarted}, events.kinds())

		status, err := registry.GameStatus(ctx, "C1")
		require.NoError(t, err)
		assert.Equal(t, entity.PhaseNight, status.Phase)
		assert.Equal(t, 3, status.Alive)
	})

	t.Run("A timer for a phase that already passed is ignored", func(t *testing.T) {
		registry, events := newTestRegistry(t, &memoryStore{}, slow)
		lobbyOf(t, registry, "C1", "A", "B", "D")
		_, err := registry.StartGame(ctx, "C1")
		require.NoError(t, err)

		// When: a day timeout arrives while the game is still at night
		require.NoError(t, registry.do(ctx, func() {
			registry.onTimeout(registry.games["C1"], entity.PhaseDay)
		}))

		// Then: nothing moves
		status, err := registry.GameStatus(ctx, "C1")
		require.NoError(t, err)
		assert.Equal(t, entity.PhaseNight, status.Phase)
		assert.Empty(t, events.kinds())
	})

	t.Run("A timer for a deleted game is ignored", func(t *testing.T) {
		registry, events := newTestRegistry(t, &memoryStore{}, slow)
		lobbyOf(t, registry, "C1", "A", "B", "D")
		_, err := registry.StartGame(ctx, "C1")
		require.NoError(t, err)

		var stale *entity.Game
		inspect(t, registry, "C1", func(game *entity.Game) { stale = game })
		require.NoError(t, registry.CancelGame(ctx, "C1", "A"))

		assert.NotPanics(t, func() {
			require.NoError(t, registry.do(ctx, func() {
				registry.onTimeout(stale, entity.PhaseNight)
			}))
		})
		assert.Empty(t, events.kinds())
	})
}

// voting deals the roles and moves the game into a voting round without timers firing.
func voting(t *testing.T, registry *Registry, conversationID string, roles ...entity.Role) {
	t.Helper()

	deal(t, registry, conversationID, roles...)
	inspect(t, registry, conversationID, func(game *entity.Game) {
		game.ClearTimers()
		game.BeginDay()
		game.BeginVoting()
		registry.armTimer(game)
	})
}

func TestRegistry_CastVote(t *testing.T) {
	ctx := context.Background()

	t.Run("Executing the last mafia ends the game", func(t *testing.T) {
		store := &memoryStore{}
		registry, events := newTestRegistry(t, store, slow)
		lobbyOf(t, registry, "C1", "A", "B", "D")
		voting(t, registry, "C1", entity.RoleMafia, entity.RoleCivilian, entity.RoleCivilian)

		// When: everybody votes, two of them for the mafia
		ballot, err := registry.CastVote(ctx, "C1", "B", "A")
		require.NoError(t, err)
		assert.False(t, ballot.Resolved)

		_, err = registry.CastVote(ctx, "C1", "A", "B")
		require.NoError(t, err)

		ballot, err = registry.CastVote(ctx, "C1", "D", "A")
		require.NoError(t, err)

		// Then: the vote resolves at once, town wins and the game is removed
		assert.Equal(t, Ballot{Voter: "Name D", Target: "Name A", Resolved: true}, ballot)
		assert.Equal(t, []EventKind{EventExecuted, EventGameOver}, events.kinds())
		assert.Equal(t, entity.FactionTown, events.last().Winner)
		assert.False(t, registered(t, registry, "C1"))

		games, _ := store.saved(t)
		assert.Empty(t, games)
	})

	t.Run("Mafia wins on parity", func(t *testing.T) {
		registry, events := newTestRegistry(t, &memoryStore{}, slow)
		lobbyOf(t, registry, "C1", "A", "B", "D")
		voting(t, registry, "C1", entity.RoleMafia, entity.RoleCivilian, entity.RoleCivilian)

		for voter, target := range map[string]string{"A": "B", "D": "B", "B": "A"} {
			_, err := registry.CastVote(ctx, "C1", voter, target)
			require.NoError(t, err)
		}

		assert.Equal(t, []EventKind{EventExecuted, EventGameOver}, events.kinds())
		assert.Equal(t, entity.FactionMafia, events.last().Winner)
	})

	t.Run("An execution that decides nothing starts the next night", func(t *testing.T) {
		registry, events := newTestRegistry(t, &memoryStore{}, slow)
		lobbyOf(t, registry, "C1", "A", "B", "D", "E")
		voting(t, registry, "C1", entity.RoleMafia, entity.RoleDoctor, entity.RoleCivilian, entity.RoleCivilian)

		for voter, target := range map[string]string{"A": "B", "B": "D", "D": "B", "E": "B"} {
			_, err := registry.CastVote(ctx, "C1", voter, target)
			require.NoError(t, err)
		}

		assert.Equal(t, []EventKind{EventExecuted, EventNightStarted}, events.kinds())

		roster, err := registry.ShowPlayers(ctx, "C1")
		require.NoError(t, err)
		assert.Equal(t, entity.PhaseNight, roster.Phase)
		assert.False(t, roster.Players[1].Alive)

		inspect(t, registry, "C1", func(game *entity.Game) {
			assert.Equal(t, entity.CauseExecuted, game.Players()[1].CauseOfDeath)
			assert.Equal(t, 1, game.PendingTimers())
		})
	})

	t.Run("Rejected votes", func(t *testing.T) {
		registry, _ := newTestRegistry(t, &memoryStore{}, slow)

		_, err := registry.CastVote(ctx, "C1", "A", "B")
		require.ErrorIs(t, err, apperror.ErrNoGame)

		lobbyOf(t, registry, "C1", "A", "B", "D")
		_, err = registry.CastVote(ctx, "C1", "A", "B")
		require.ErrorIs(t, err, apperror.ErrWrongPhase)

		voting(t, registry, "C1", entity.RoleMafia, entity.RoleCivilian, entity.RoleCivilian)
		_, err = registry.CastVote(ctx, "C1", "A", "A")
		require.ErrorIs(t, err, apperror.ErrInvalidTarget)
	})
}

func TestRegistry_CastVoteAt(t *testing.T) {
	ctx := context.Background()

	t.Run("Positions follow the alive list", func(t *testing.T) {
		// Given: a voting round where B is already dead
		registry, _ := newTestRegistry(t, &memoryStore{}, slow)
		lobbyOf(t, registry, "C1", "A", "B", "D", "E")
		voting(t, registry, "C1", entity.RoleMafia, entity.RoleCivilian, entity.RoleCivilian, entity.RoleCivilian)
		inspect(t, registry, "C1", func(game *entity.Game) {
			game.Players()[1].Kill(entity.CauseExecuted)
		})

		// When: D votes for position 3 of [A, D, E]
		ballot, err := registry.CastVoteAt(ctx, "C1", "D", 3)

		// Then: the vote lands on E
		require.NoError(t, err)
		assert.Equal(t, Ballot{Voter: "Name D", Target: "Name E"}, ballot)
		inspect(t, registry, "C1", func(game *entity.Game) {
			assert.Equal(t, map[string]string{"D": "E"}, game.Votes)
		})
	})

	t.Run("Rejected positions", func(t *testing.T) {
		registry, _ := newTestRegistry(t, &memoryStore{}, slow)

		_, err := registry.CastVoteAt(ctx, "C1", "A", 1)
		require.ErrorIs(t, err, apperror.ErrNoGame)

		lobbyOf(t, registry, "C1", "A", "B", "D")
		_, err = registry.CastVoteAt(ctx, "C1", "A", 2)
		require.ErrorIs(t, err, apperror.ErrWrongPhase)

		voting(t, registry, "C1", entity.RoleMafia, entity.RoleCivilian, entity.RoleCivilian)
		for _, position := range []int{0, 4, -1} {
			_, err = registry.CastVoteAt(ctx, "C1", "A", position)
			require.ErrorIs(t, err, apperror.ErrInvalidTarget)
		}

		_, err = registry.CastVoteAt(ctx, "C1", "A", 1)
		require.ErrorIs(t, err, apperror.ErrInvalidTarget)
	})
}

func TestRegistry_NightActions(t *testing.T) {
	ctx := context.Background()
	registry, _ := newTestRegistry(t, &memoryStore{}, slow)
	lobbyOf(t, registry, "C1", "A", "B", "D", "E", "F")
	deal(t, registry, "C1", entity.RoleMafia, entity.RoleDoctor, entity.RolePolice, entity.RoleCivilian, entity.RoleCivilian)

	t.Run("Mafia targets exclude the mafia", func(t *testing.T) {
		targets, err := registry.NightTargets(ctx, "C1", "A")

		require.NoError(t, err)
		assert.Equal(t, []string{"B", "D", "E", "F"}, viewIDs(targets))
	})

	t.Run("Doctor may pick themselves", func(t *testing.T) {
		targets, err := registry.NightTargets(ctx, "C1", "B")

		require.NoError(t, err)
		assert.Equal(t, []string{"A", "B", "D", "E", "F"}, viewIDs(targets))
	})

	t.Run("Police may not pick themselves", func(t *testing.T) {
		targets, err := registry.NightTargets(ctx, "C1", "D")

		require.NoError(t, err)
		assert.Equal(t, []string{"A", "B", "E", "F"}, viewIDs(targets))
	})

	t.Run("Civilians have no night action", func(t *testing.T) {
		_, err := registry.NightTargets(ctx, "C1", "E")
		require.ErrorIs(t, err, apperror.ErrNoNightAction)

		err = registry.RecordNightAction(ctx, "C1", "E", "A")
		require.ErrorIs(t, err, apperror.ErrNoNightAction)
	})

	t.Run("Choices outside the target list are refused", func(t *testing.T) {
		err := registry.RecordNightAction(ctx, "C1", "D", "D")
		require.ErrorIs(t, err, apperror.ErrInvalidTarget)

		inspect(t, registry, "C1", func(game *entity.Game) {
			assert.Empty(t, game.NightActions)
		})
	})

	t.Run("Choices are recorded without being resolved", func(t *testing.T) {
		require.NoError(t, registry.RecordNightAction(ctx, "C1", "A", "E"))
		require.NoError(t, registry.RecordNightAction(ctx, "C1", "B", "E"))
		require.NoError(t, registry.RecordNightAction(ctx, "C1", "D", "A"))

		inspect(t, registry, "C1", func(game *entity.Game) {
			assert.Equal(t, map[string]string{"A": "E", "B": "E", "D": "A"}, game.NightActions)
			assert.True(t, game.Players()[3].Protected)
			assert.True(t, game.Players()[0].Investigated)
			assert.True(t, game.Players()[3].Alive)
		})
	})

	t.Run("Outside the night", func(t *testing.T) {
		inspect(t, registry, "C1", func(game *entity.Game) {
			game.BeginDay()
		})

		_, err := registry.NightTargets(ctx, "C1", "A")
		require.ErrorIs(t, err, apperror.ErrWrongPhase)
	})
}

func viewIDs(views []PlayerView) []string {
	out := make([]string, 0, len(views))
	for _, view := range views {
		out = append(out, view.ID)
	}

	return out
}
