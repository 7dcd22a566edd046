package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rocketscienceinc/mafia-bot/internal/apperror"
	"github.com/rocketscienceinc/mafia-bot/internal/entity"
	"github.com/rocketscienceinc/mafia-bot/internal/usecase"
)

const fallbackError = "Something went wrong, please try again."

var errorTexts = []struct {
	err  error
	text string
}{
	{apperror.ErrNoGame, "There is no game in this chat. Use new-game to open one."},
	{apperror.ErrAlreadyExists, "A game is already running in this chat!"},
	{apperror.ErrAlreadyStarted, "The game has already started."},
	{apperror.ErrAlreadyJoined, "You have already joined the game!"},
	{apperror.ErrNotEnoughPlayers, fmt.Sprintf("You need at least %d players to start the game!", entity.MinPlayers)},
	{apperror.ErrAssignmentFailed, "Roles could not be dealt."},
	{apperror.ErrNotInGame, "You are not in any active game!"},
	{apperror.ErrGameNotStarted, "The game has not started yet. You will get your role when it does."},
	{apperror.ErrPlayerDead, "You are dead and can no longer take part."},
	{apperror.ErrNotJoined, "You have not joined this game!"},
	{apperror.ErrNotCreator, "Only the creator of the game can cancel it!"},
	{apperror.ErrWrongPhase, "That is not possible in the current phase."},
	{apperror.ErrInvalidTarget, "That is not a valid target."},
	{apperror.ErrNoNightAction, "Your role has nothing to do at night."},
	{apperror.ErrRegistryClosed, "The game service is shutting down."},
}

func errorText(err error) string {
	for _, known := range errorTexts {
		if errors.Is(err, known.err) {
			return known.text
		}
	}

	return fallbackError
}

func phaseText(phase entity.Phase, day int) string {
	switch phase {
	case entity.PhaseLobby:
		return "Lobby"
	case entity.PhaseNight:
		return fmt.Sprintf("Night %d", day)
	case entity.PhaseDay:
		return fmt.Sprintf("Day %d", day)
	case entity.PhaseVoting:
		return fmt.Sprintf("Voting, day %d", day)
	case entity.PhaseEnded:
		return "Ended"
	default:
		return "Unknown"
	}
}

func renderCreated(lobby usecase.Lobby) string {
	return fmt.Sprintf("New Mafia game created!\nCreator: %s\nUse join to take part and start once there are at least %d players.\nPlayers: %d",
		lobby.Creator, entity.MinPlayers, lobby.PlayerCount)
}

func renderJoined(lobby usecase.Lobby) string {
	return fmt.Sprintf("%s joined the game!\nPlayers: %d", lobby.Player, lobby.PlayerCount)
}

func renderReveal(reveal usecase.RoleReveal) string {
	return fmt.Sprintf("Your role: %s\n\n%s", reveal.Role.Title(), reveal.Description)
}

func numbered(players []usecase.PlayerView, withMarker bool) string {
	lines := make([]string, 0, len(players))
	for i, player := range players {
		marker := ""
		if withMarker {
			marker = "[alive] "
			if !player.Alive {
				marker = "[dead] "
			}
		}

		lines = append(lines, fmt.Sprintf("%d. %s%s", i+1, marker, player.Name))
	}

	return strings.Join(lines, "\n")
}

func renderRoster(roster usecase.Roster) string {
	text := fmt.Sprintf("Players (%d):\n%s", len(roster.Players), numbered(roster.Players, true))

	if roster.Phase == entity.PhaseLobby {
		text += fmt.Sprintf("\n\n%d more player(s) needed to start.", roster.Needed)
	}

	return text
}

func renderAlive(players []usecase.PlayerView) string {
	if len(players) == 0 {
		return "Nobody is alive!"
	}

	return fmt.Sprintf("Alive players (%d):\n%s", len(players), numbered(players, false))
}

func renderStatus(status usecase.Status) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Game status:\nPhase: %s\nPlayers: %d/%d (alive/total)", phaseText(status.Phase, status.DayCount), status.Alive, status.Total)

	if status.Started {
		fmt.Fprintf(&b, "\nMafia alive: %d\nOthers alive: %d", status.AliveMafia, status.AliveOthers)
	}

	return b.String()
}

func renderDeparture(departure usecase.Departure) string {
	if departure.Deleted {
		return fmt.Sprintf("%s left the game.\nThe game was removed because nobody is left.", departure.Name)
	}

	return fmt.Sprintf("%s left the game.\nPlayers left: %d", departure.Name, departure.Remaining)
}

func renderRules(rules usecase.Rules) string {
	var b strings.Builder

	b.WriteString("Mafia rules\n\nGoal:\n")
	b.WriteString("- Town: eliminate every member of the Mafia.\n")
	b.WriteString("- Mafia: equal or outnumber everybody else.\n\nPhases:\n")

	for _, phase := range rules.Phases {
		switch phase {
		case entity.PhaseNight:
			b.WriteString("- Night: roles with a night action pick their target in private.\n")
		case entity.PhaseDay:
			b.WriteString("- Day: discuss and find the Mafia.\n")
		case entity.PhaseVoting:
			b.WriteString("- Voting: the most voted player is executed. A tie executes nobody.\n")
		default:
		}
	}

	b.WriteString("\nRoles:\n")
	for _, role := range rules.Roles {
		fmt.Fprintf(&b, "- %s: %s\n", role.Role.Title(), role.Description)
	}

	fmt.Fprintf(&b, "\nAt least %d players are needed. Roles are only ever sent in private.", rules.MinPlayers)

	return b.String()
}

func renderHelp(commands []usecase.CommandInfo) string {
	lines := []string{"Mafia commands:"}
	for _, info := range commands {
		name := info.Name
		if info.Args != "" {
			name += " " + info.Args
		}

		lines = append(lines, fmt.Sprintf("- %s: %s", name, info.Summary))
	}

	return strings.Join(lines, "\n")
}

func renderEvent(event usecase.Event) string {
	switch event.Kind {
	case usecase.EventNightStarted:
		return "Night falls. Roles with a night action: use action to pick a target."
	case usecase.EventDayStarted:
		return fmt.Sprintf("Day %d begins. Discuss who the Mafia might be.", event.DayCount)
	case usecase.EventVotingStarted:
		return "Time to vote! Use list-alive and then vote <n>."
	case usecase.EventExecuted:
		return fmt.Sprintf("%s was executed by the town.", event.Player.Name)
	case usecase.EventNoExecution:
		return "Nobody was executed today."
	case usecase.EventGameOver:
		if event.Winner == entity.FactionMafia {
			return "Game over: the Mafia wins!"
		}

		return "Game over: the town wins!"
	default:
		return ""
	}
}
