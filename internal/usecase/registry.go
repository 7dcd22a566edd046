package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/rocketscienceinc/mafia-bot/internal/apperror"
	"github.com/rocketscienceinc/mafia-bot/internal/entity"
)

type gameStore interface {
	Save(ctx context.Context, games []*entity.Game) error
	Load(ctx context.Context) ([]*entity.Game, error)
}

type announcer interface {
	Announce(ctx context.Context, conversationID string, event Event)
}

type recorder interface {
	SetActiveGames(count int)
	GameCreated()
	GameRemoved(reason string)
}

const (
	reasonEnded     = "ended"
	reasonCancelled = "cancelled"
	reasonAbandoned = "abandoned"
)

// Registry owns every live game. All reads and writes happen on one loop goroutine,
// so player commands and phase timers never interleave.
type Registry struct {
	logger    *slog.Logger
	store     gameStore
	announcer announcer
	metrics   recorder
	durations Durations

	games map[string]*entity.Game

	inbox   chan func()
	ctx     context.Context
	cancel  context.CancelFunc
	stopped chan struct{}
}

// NewRegistry restores the persisted games and starts the mutation loop.
func NewRegistry(
	ctx context.Context,
	logger *slog.Logger,
	store gameStore,
	announcer announcer,
	metrics recorder,
	durations Durations,
) (*Registry, error) {
	log := logger.With("component", "registry")

	games, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load games: %w", err)
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	that := &Registry{
		logger:    log,
		store:     store,
		announcer: announcer,
		metrics:   metrics,
		durations: durations,

		games: make(map[string]*entity.Game, len(games)),

		inbox:   make(chan func()),
		ctx:     loopCtx,
		cancel:  cancel,
		stopped: make(chan struct{}),
	}

	for _, game := range games {
		if game.Phase == entity.PhaseEnded {
			log.Warn("dropping finished game", "conversation", game.ConversationID)
			continue
		}

		that.games[game.ConversationID] = game
		that.armTimer(game)
	}

	that.metrics.SetActiveGames(len(that.games))
	log.Info("games restored", "count", len(that.games))

	go that.loop()

	return that, nil
}

func (that *Registry) loop() {
	defer close(that.stopped)

	for {
		select {
		case <-that.ctx.Done():
			return
		case task := <-that.inbox:
			task()
		}
	}
}

// do runs fn on the loop and waits for it to finish.
func (that *Registry) do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	task := func() {
		defer close(finished)
		fn()
	}

	select {
	case that.inbox <- task:
	case <-that.stopped:
		return apperror.ErrRegistryClosed
	case <-ctx.Done():
		return fmt.Errorf("enqueue: %w", ctx.Err())
	}

	<-finished

	return nil
}

// enqueue hands fn to the loop without waiting. Used by timers.
func (that *Registry) enqueue(fn func()) {
	select {
	case that.inbox <- fn:
	case <-that.stopped:
	}
}

// Close stops the loop, disarms every timer and writes a final snapshot.
func (that *Registry) Close(ctx context.Context) error {
	that.cancel()
	<-that.stopped

	for _, game := range that.games {
		game.ClearTimers()
	}

	if err := that.store.Save(ctx, that.snapshot()); err != nil {
		return fmt.Errorf("failed to flush games: %w", err)
	}

	that.logger.Info("registry closed", "games", len(that.games))

	return nil
}

func (that *Registry) snapshot() []*entity.Game {
	games := make([]*entity.Game, 0, len(that.games))
	for _, conversationID := range that.conversations() {
		games = append(games, that.games[conversationID])
	}

	return games
}

func (that *Registry) conversations() []string {
	ids := make([]string, 0, len(that.games))
	for conversationID := range that.games {
		ids = append(ids, conversationID)
	}
	sort.Strings(ids)

	return ids
}

// persist writes the full registry. In-memory state stays authoritative when it fails.
func (that *Registry) persist(ctx context.Context) {
	log := that.logger.With("method", "persist")

	if err := that.store.Save(ctx, that.snapshot()); err != nil {
		log.Error("failed to save games", "error", err)
	}

	that.metrics.SetActiveGames(len(that.games))
}

func (that *Registry) remove(game *entity.Game, reason string) {
	game.ClearTimers()
	delete(that.games, game.ConversationID)
	that.metrics.GameRemoved(reason)

	that.logger.Info("game removed", "conversation", game.ConversationID, "match", game.MatchID, "reason", reason)
}

func (that *Registry) game(conversationID string) (*entity.Game, error) {
	game, ok := that.games[conversationID]
	if !ok {
		return nil, apperror.ErrNoGame
	}

	return game, nil
}

func newMatchID() string {
	return uuid.NewString()
}
