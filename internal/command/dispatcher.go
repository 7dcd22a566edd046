package command

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/rocketscienceinc/mafia-bot/internal/apperror"
	"github.com/rocketscienceinc/mafia-bot/internal/usecase"
)

const unknownCommand = "Unknown command. Use help to see what you can do."

// Delivery is one outgoing message. Private deliveries go to the user Recipient,
// the others to the conversation Recipient.
type Delivery struct {
	Private   bool
	Recipient string
	Text      string
}

type gameRegistry interface {
	NewGame(ctx context.Context, conversationID, userID, userName string) (usecase.Lobby, error)
	JoinGame(ctx context.Context, conversationID, userID, userName string) (usecase.Lobby, error)
	LeaveGame(ctx context.Context, conversationID, userID string) (usecase.Departure, error)
	StartGame(ctx context.Context, conversationID string) (usecase.Started, error)
	CancelGame(ctx context.Context, conversationID, userID string) error
	ShowPlayers(ctx context.Context, conversationID string) (usecase.Roster, error)
	ShowAlive(ctx context.Context, conversationID string) ([]usecase.PlayerView, error)
	GameStatus(ctx context.Context, conversationID string) (usecase.Status, error)
	ShowRole(ctx context.Context, userID string) (usecase.RoleReveal, error)
	ShowRules() usecase.Rules
	Help() []usecase.CommandInfo
	CastVoteAt(ctx context.Context, conversationID, voterID string, position int) (usecase.Ballot, error)
	NightTargets(ctx context.Context, conversationID, actorID string) ([]usecase.PlayerView, error)
	RecordNightAction(ctx context.Context, conversationID, actorID, targetID string) error
}

type commandRecorder interface {
	CommandHandled(command string, err error)
}

type handler func(ctx context.Context, req Request) ([]Delivery, error)

type Dispatcher struct {
	logger   *slog.Logger
	registry gameRegistry
	metrics  commandRecorder

	handlers map[string]handler
	// private marks commands whose replies, errors included, only go to the requester.
	private map[string]bool
}

func NewDispatcher(logger *slog.Logger, registry gameRegistry, metrics commandRecorder) *Dispatcher {
	that := &Dispatcher{
		logger:   logger.With("component", "dispatcher"),
		registry: registry,
		metrics:  metrics,

		handlers: make(map[string]handler),
		private:  map[string]bool{"my-role": true, "action": true},
	}

	that.handlers["new-game"] = that.handleNewGame
	that.handlers["join"] = that.handleJoin
	that.handlers["leave"] = that.handleLeave
	that.handlers["start"] = that.handleStart
	that.handlers["cancel"] = that.handleCancel
	that.handlers["list-players"] = that.handleListPlayers
	that.handlers["list-alive"] = that.handleListAlive
	that.handlers["status"] = that.handleStatus
	that.handlers["my-role"] = that.handleMyRole
	that.handlers["rules"] = that.handleRules
	that.handlers["help"] = that.handleHelp
	that.handlers["vote"] = that.handleVote
	that.handlers["action"] = that.handleAction

	return that
}

// Dispatch runs one command and returns what has to be delivered. Expected failures
// come back as replies, never as errors.
func (that *Dispatcher) Dispatch(ctx context.Context, req Request) []Delivery {
	log := that.logger.With("method", "Dispatch", "command", req.Command, "conversation", req.ConversationID, "user", req.UserID)

	handle, ok := that.handlers[req.Command]
	if !ok {
		log.Debug("unknown command")
		return []Delivery{that.group(req, unknownCommand)}
	}

	deliveries, err := handle(ctx, req)
	that.metrics.CommandHandled(req.Command, err)

	if err != nil {
		if errorText(err) == fallbackError {
			log.Error("command failed", "error", err)
		} else {
			log.Info("command rejected", "error", err)
		}

		if that.private[req.Command] {
			return []Delivery{that.direct(req.UserID, errorText(err))}
		}

		return []Delivery{that.group(req, errorText(err))}
	}

	return deliveries
}

func (that *Dispatcher) group(req Request, text string) Delivery {
	return Delivery{Recipient: req.ConversationID, Text: text}
}

func (that *Dispatcher) direct(userID, text string) Delivery {
	return Delivery{Private: true, Recipient: userID, Text: text}
}

func (that *Dispatcher) handleNewGame(ctx context.Context, req Request) ([]Delivery, error) {
	lobby, err := that.registry.NewGame(ctx, req.ConversationID, req.UserID, req.UserName)
	if err != nil {
		return nil, err
	}

	return []Delivery{that.group(req, renderCreated(lobby))}, nil
}

func (that *Dispatcher) handleJoin(ctx context.Context, req Request) ([]Delivery, error) {
	lobby, err := that.registry.JoinGame(ctx, req.ConversationID, req.UserID, req.UserName)
	if err != nil {
		return nil, err
	}

	return []Delivery{that.group(req, renderJoined(lobby))}, nil
}

func (that *Dispatcher) handleLeave(ctx context.Context, req Request) ([]Delivery, error) {
	departure, err := that.registry.LeaveGame(ctx, req.ConversationID, req.UserID)
	if err != nil {
		return nil, err
	}

	return []Delivery{that.group(req, renderDeparture(departure))}, nil
}

func (that *Dispatcher) handleStart(ctx context.Context, req Request) ([]Delivery, error) {
	started, err := that.registry.StartGame(ctx, req.ConversationID)
	if err != nil {
		return nil, err
	}

	deliveries := make([]Delivery, 0, len(started.Reveals)+1)
	deliveries = append(deliveries, that.group(req, "The game has started!\nEveryone got their role in a private message.\nThe first night begins..."))

	for _, reveal := range started.Reveals {
		deliveries = append(deliveries, that.direct(reveal.UserID, renderReveal(reveal)))
	}

	return deliveries, nil
}

func (that *Dispatcher) handleCancel(ctx context.Context, req Request) ([]Delivery, error) {
	if err := that.registry.CancelGame(ctx, req.ConversationID, req.UserID); err != nil {
		return nil, err
	}

	return []Delivery{that.group(req, "The game was cancelled by its creator.")}, nil
}

func (that *Dispatcher) handleListPlayers(ctx context.Context, req Request) ([]Delivery, error) {
	roster, err := that.registry.ShowPlayers(ctx, req.ConversationID)
	if err != nil {
		return nil, err
	}

	return []Delivery{that.group(req, renderRoster(roster))}, nil
}

func (that *Dispatcher) handleListAlive(ctx context.Context, req Request) ([]Delivery, error) {
	alive, err := that.registry.ShowAlive(ctx, req.ConversationID)
	if err != nil {
		return nil, err
	}

	return []Delivery{that.group(req, renderAlive(alive))}, nil
}

func (that *Dispatcher) handleStatus(ctx context.Context, req Request) ([]Delivery, error) {
	status, err := that.registry.GameStatus(ctx, req.ConversationID)
	if err != nil {
		return nil, err
	}

	return []Delivery{that.group(req, renderStatus(status))}, nil
}

func (that *Dispatcher) handleMyRole(ctx context.Context, req Request) ([]Delivery, error) {
	reveal, err := that.registry.ShowRole(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	return []Delivery{that.direct(req.UserID, renderReveal(reveal))}, nil
}

func (that *Dispatcher) handleRules(_ context.Context, req Request) ([]Delivery, error) {
	return []Delivery{that.group(req, renderRules(that.registry.ShowRules()))}, nil
}

func (that *Dispatcher) handleHelp(_ context.Context, req Request) ([]Delivery, error) {
	return []Delivery{that.group(req, renderHelp(that.registry.Help()))}, nil
}

func (that *Dispatcher) handleVote(ctx context.Context, req Request) ([]Delivery, error) {
	n, err := position(req.Args)
	if err != nil {
		return nil, err
	}

	ballot, err := that.registry.CastVoteAt(ctx, req.ConversationID, req.UserID, n)
	if err != nil {
		return nil, err
	}

	// a resolved round is announced by the registry itself
	return []Delivery{that.group(req, ballot.Voter+" voted for "+ballot.Target+".")}, nil
}

func (that *Dispatcher) handleAction(ctx context.Context, req Request) ([]Delivery, error) {
	targets, err := that.registry.NightTargets(ctx, req.ConversationID, req.UserID)
	if err != nil {
		return nil, err
	}

	if len(req.Args) == 0 {
		return []Delivery{that.direct(req.UserID, "Pick your target with action <n>:\n"+numbered(targets, false))}, nil
	}

	target, err := pick(req.Args, targets)
	if err != nil {
		return nil, err
	}

	if err = that.registry.RecordNightAction(ctx, req.ConversationID, req.UserID, target.ID); err != nil {
		return nil, err
	}

	return []Delivery{that.direct(req.UserID, "Your choice for tonight: "+target.Name+".")}, nil
}

// position parses the 1-based list position given as the first argument.
func position(args []string) (int, error) {
	if len(args) == 0 {
		return 0, apperror.ErrInvalidTarget
	}

	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, errors.Join(apperror.ErrInvalidTarget, err)
	}

	return n, nil
}

// pick resolves a 1-based position argument against a listed set of players.
func pick(args []string, players []usecase.PlayerView) (usecase.PlayerView, error) {
	n, err := position(args)
	if err != nil {
		return usecase.PlayerView{}, err
	}

	if n < 1 || n > len(players) {
		return usecase.PlayerView{}, apperror.ErrInvalidTarget
	}

	return players[n-1], nil
}
