package usecase

import (
	"context"

	"github.com/rocketscienceinc/mafia-bot/internal/apperror"
	"github.com/rocketscienceinc/mafia-bot/internal/entity"
)

func (that *Registry) NewGame(ctx context.Context, conversationID, userID, userName string) (Lobby, error) {
	var (
		result Lobby
		err    error
	)

	if qErr := that.do(ctx, func() {
		result, err = that.newGame(ctx, conversationID, userID, userName)
	}); qErr != nil {
		return Lobby{}, qErr
	}

	return result, err
}

func (that *Registry) newGame(ctx context.Context, conversationID, userID, userName string) (Lobby, error) {
	if _, ok := that.games[conversationID]; ok {
		return Lobby{}, apperror.ErrAlreadyExists
	}

	game := entity.NewGame(conversationID, newMatchID())
	game.AddPlayer(userID, userName)

	that.games[conversationID] = game
	that.metrics.GameCreated()
	that.persist(ctx)

	that.logger.Info("game created", "conversation", conversationID, "match", game.MatchID, "creator", userID)

	return Lobby{
		Creator:     userName,
		Player:      userName,
		PlayerCount: len(game.Players()),
	}, nil
}

func (that *Registry) JoinGame(ctx context.Context, conversationID, userID, userName string) (Lobby, error) {
	var (
		result Lobby
		err    error
	)

	if qErr := that.do(ctx, func() {
		result, err = that.joinGame(ctx, conversationID, userID, userName)
	}); qErr != nil {
		return Lobby{}, qErr
	}

	return result, err
}

func (that *Registry) joinGame(ctx context.Context, conversationID, userID, userName string) (Lobby, error) {
	game, err := that.game(conversationID)
	if err != nil {
		return Lobby{}, err
	}

	if !game.IsLobby() {
		return Lobby{}, apperror.ErrAlreadyStarted
	}

	if !game.AddPlayer(userID, userName) {
		return Lobby{}, apperror.ErrAlreadyJoined
	}

	that.persist(ctx)

	return Lobby{
		Creator:     game.Creator().Name,
		Player:      userName,
		PlayerCount: len(game.Players()),
	}, nil
}

func (that *Registry) StartGame(ctx context.Context, conversationID string) (Started, error) {
	var (
		result Started
		err    error
	)

	if qErr := that.do(ctx, func() {
		result, err = that.startGame(ctx, conversationID)
	}); qErr != nil {
		return Started{}, qErr
	}

	return result, err
}

func (that *Registry) startGame(ctx context.Context, conversationID string) (Started, error) {
	game, err := that.game(conversationID)
	if err != nil {
		return Started{}, err
	}

	if len(game.Players()) < entity.MinPlayers {
		return Started{}, apperror.ErrNotEnoughPlayers
	}

	if !game.AssignRoles() {
		return Started{}, apperror.ErrAssignmentFailed
	}

	game.BeginNight()
	game.DayCount = 0
	that.armTimer(game)
	that.persist(ctx)

	that.logger.Info("game started", "conversation", conversationID, "match", game.MatchID, "players", len(game.Players()))

	reveals := make([]RoleReveal, 0, len(game.Players()))
	for _, player := range game.Players() {
		reveals = append(reveals, RoleReveal{
			UserID:      player.ID,
			Role:        player.Role,
			Description: game.RoleDescription(player.Role),
		})
	}

	return Started{Reveals: reveals}, nil
}

func (that *Registry) ShowPlayers(ctx context.Context, conversationID string) (Roster, error) {
	var (
		result Roster
		err    error
	)

	if qErr := that.do(ctx, func() {
		var game *entity.Game
		if game, err = that.game(conversationID); err != nil {
			return
		}

		result = Roster{
			Phase:   game.Phase,
			Players: viewsOf(game.Players()),
		}

		if game.IsLobby() {
			result.Needed = max(0, entity.MinPlayers-len(game.Players()))
		}
	}); qErr != nil {
		return Roster{}, qErr
	}

	return result, err
}

// ShowAlive lists living players in join order. An empty list is not an error.
func (that *Registry) ShowAlive(ctx context.Context, conversationID string) ([]PlayerView, error) {
	var (
		result []PlayerView
		err    error
	)

	if qErr := that.do(ctx, func() {
		var game *entity.Game
		if game, err = that.game(conversationID); err != nil {
			return
		}

		result = viewsOf(game.AlivePlayers(false, ""))
	}); qErr != nil {
		return nil, qErr
	}

	return result, err
}

// ShowRole looks the user up across every game. The result is private to userID.
func (that *Registry) ShowRole(ctx context.Context, userID string) (RoleReveal, error) {
	var (
		result RoleReveal
		err    error
	)

	if qErr := that.do(ctx, func() {
		result, err = that.showRole(userID)
	}); qErr != nil {
		return RoleReveal{}, qErr
	}

	return result, err
}

func (that *Registry) showRole(userID string) (RoleReveal, error) {
	for _, conversationID := range that.conversations() {
		game := that.games[conversationID]

		player, ok := game.Player(userID)
		if !ok {
			continue
		}

		if game.IsLobby() {
			return RoleReveal{}, apperror.ErrGameNotStarted
		}

		if !player.Alive {
			return RoleReveal{}, apperror.ErrPlayerDead
		}

		return RoleReveal{
			UserID:      userID,
			Role:        player.Role,
			Description: game.RoleDescription(player.Role),
		}, nil
	}

	return RoleReveal{}, apperror.ErrNotInGame
}

func (that *Registry) ShowRules() Rules {
	roles := make([]RoleInfo, 0, len(entity.Dealt))
	for _, role := range entity.Dealt {
		roles = append(roles, RoleInfo{Role: role, Description: entity.Description(role)})
	}

	return Rules{
		MinPlayers: entity.MinPlayers,
		Phases:     []entity.Phase{entity.PhaseNight, entity.PhaseDay, entity.PhaseVoting},
		Roles:      roles,
	}
}

func (that *Registry) GameStatus(ctx context.Context, conversationID string) (Status, error) {
	var (
		result Status
		err    error
	)

	if qErr := that.do(ctx, func() {
		var game *entity.Game
		if game, err = that.game(conversationID); err != nil {
			return
		}

		alive := len(game.AlivePlayers(false, ""))
		result = Status{
			Phase:    game.Phase,
			DayCount: game.DayCount,
			Alive:    alive,
			Total:    len(game.Players()),
			Started:  !game.IsLobby(),
		}

		if result.Started {
			result.AliveMafia = game.AliveMafia()
			result.AliveOthers = alive - result.AliveMafia
		}
	}); qErr != nil {
		return Status{}, qErr
	}

	return result, err
}

func (that *Registry) LeaveGame(ctx context.Context, conversationID, userID string) (Departure, error) {
	var (
		result Departure
		err    error
	)

	if qErr := that.do(ctx, func() {
		result, err = that.leaveGame(ctx, conversationID, userID)
	}); qErr != nil {
		return Departure{}, qErr
	}

	return result, err
}

func (that *Registry) leaveGame(ctx context.Context, conversationID, userID string) (Departure, error) {
	game, err := that.game(conversationID)
	if err != nil {
		return Departure{}, err
	}

	if _, ok := game.Player(userID); !ok {
		return Departure{}, apperror.ErrNotJoined
	}

	if !game.IsLobby() {
		return Departure{}, apperror.ErrAlreadyStarted
	}

	player, _ := game.RemovePlayer(userID)
	result := Departure{
		Name:      player.Name,
		Remaining: len(game.Players()),
	}

	if result.Remaining == 0 {
		that.remove(game, reasonAbandoned)
		result.Deleted = true
	}

	that.persist(ctx)

	return result, nil
}

// CancelGame lets the creator tear the game down in any phase.
func (that *Registry) CancelGame(ctx context.Context, conversationID, userID string) error {
	var err error

	if qErr := that.do(ctx, func() {
		var game *entity.Game
		if game, err = that.game(conversationID); err != nil {
			return
		}

		if creator := game.Creator(); creator == nil || creator.ID != userID {
			err = apperror.ErrNotCreator
			return
		}

		that.remove(game, reasonCancelled)
		that.persist(ctx)
	}); qErr != nil {
		return qErr
	}

	return err
}

func (that *Registry) Help() []CommandInfo {
	return commands
}

var commands = []CommandInfo{
	{Name: "new-game", Summary: "open a new game lobby"},
	{Name: "join", Summary: "join the lobby"},
	{Name: "leave", Summary: "leave the lobby (before the start only)"},
	{Name: "start", Summary: "deal roles and start the first night"},
	{Name: "cancel", Summary: "cancel the game (creator only)"},
	{Name: "list-players", Summary: "list every player"},
	{Name: "list-alive", Summary: "list living players"},
	{Name: "status", Summary: "show the current phase and counts"},
	{Name: "my-role", Summary: "show your role in private"},
	{Name: "rules", Summary: "show the rules"},
	{Name: "vote", Args: "<n>", Summary: "vote to execute player n of list-alive"},
	{Name: "action", Args: "<n>", Summary: "choose night target n of your private target list"},
	{Name: "help", Summary: "show this list"},
}
