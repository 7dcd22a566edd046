package repository

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/rocketscienceinc/mafia-bot/internal/entity"
)

var ErrMalformedSnapshot = errors.New("malformed snapshot")

type gameRecord struct {
	MatchID       string                  `json:"matchId"`
	Roster        map[string]playerRecord `json:"roster"`
	Phase         *entity.Phase           `json:"phase"`
	DayCount      *int                    `json:"dayCount"`
	Votes         map[string]string       `json:"votes"`
	NightActions  map[string]string       `json:"nightActions"`
	RolesAssigned *bool                   `json:"rolesAssigned"`
}

type playerRecord struct {
	Seat         *int                `json:"seat"`
	Name         string              `json:"name"`
	Role         entity.Role         `json:"role"`
	Alive        *bool               `json:"alive"`
	Protected    bool                `json:"protected"`
	Investigated bool                `json:"investigated"`
	CauseOfDeath entity.CauseOfDeath `json:"causeOfDeath,omitempty"`
}

// Encode renders every game as one JSON document keyed by conversation id.
func Encode(games []*entity.Game) ([]byte, error) {
	document := make(map[string]gameRecord, len(games))

	for _, game := range games {
		roster := make(map[string]playerRecord, len(game.Players()))
		for seat, player := range game.Players() {
			roster[player.ID] = playerRecord{
				Seat:         ptr(seat),
				Name:         player.Name,
				Role:         player.Role,
				Alive:        ptr(player.Alive),
				Protected:    player.Protected,
				Investigated: player.Investigated,
				CauseOfDeath: player.CauseOfDeath,
			}
		}

		document[game.ConversationID] = gameRecord{
			MatchID:       game.MatchID,
			Roster:        roster,
			Phase:         ptr(game.Phase),
			DayCount:      ptr(game.DayCount),
			Votes:         game.Votes,
			NightActions:  game.NightActions,
			RolesAssigned: ptr(game.RolesAssigned),
		}
	}

	data, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	return data, nil
}

// Decode parses a snapshot and rejects anything that is not a complete, consistent game.
// Games come back sorted by conversation id.
func Decode(data []byte) ([]*entity.Game, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()

	var document map[string]gameRecord
	if err := decoder.Decode(&document); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedSnapshot, err)
	}

	var trailing json.RawMessage
	if err := decoder.Decode(&trailing); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after the document", ErrMalformedSnapshot)
	}

	conversations := make([]string, 0, len(document))
	for conversationID := range document {
		conversations = append(conversations, conversationID)
	}
	sort.Strings(conversations)

	games := make([]*entity.Game, 0, len(document))
	for _, conversationID := range conversations {
		game, err := decodeGame(conversationID, document[conversationID])
		if err != nil {
			return nil, fmt.Errorf("%w: game %q: %w", ErrMalformedSnapshot, conversationID, err)
		}

		games = append(games, game)
	}

	return games, nil
}

func decodeGame(conversationID string, record gameRecord) (*entity.Game, error) {
	switch {
	case conversationID == "":
		return nil, errors.New("empty conversation id")
	case record.Phase == nil:
		return nil, errors.New("missing phase")
	case record.DayCount == nil:
		return nil, errors.New("missing dayCount")
	case *record.DayCount < 0:
		return nil, fmt.Errorf("negative dayCount %d", *record.DayCount)
	case record.RolesAssigned == nil:
		return nil, errors.New("missing rolesAssigned")
	case *record.RolesAssigned == (*record.Phase == entity.PhaseLobby):
		// roles are dealt exactly when the game leaves the lobby
		return nil, fmt.Errorf("phase %q does not match rolesAssigned %t", record.Phase.String(), *record.RolesAssigned)
	case record.Votes == nil:
		return nil, errors.New("missing votes")
	case record.NightActions == nil:
		return nil, errors.New("missing nightActions")
	case len(record.Roster) == 0:
		return nil, errors.New("empty roster")
	}

	players := make([]*entity.Player, len(record.Roster))
	for userID, player := range record.Roster {
		if player.Seat == nil || player.Alive == nil {
			return nil, fmt.Errorf("player %q: missing seat or alive", userID)
		}

		seat := *player.Seat
		if seat < 0 || seat >= len(players) || players[seat] != nil {
			return nil, fmt.Errorf("player %q: invalid seat %d", userID, seat)
		}

		if *record.RolesAssigned == (player.Role == entity.RoleNone) {
			return nil, fmt.Errorf("player %q: role %q does not match rolesAssigned", userID, player.Role)
		}

		players[seat] = &entity.Player{
			ID:           userID,
			Name:         player.Name,
			Role:         player.Role,
			Alive:        *player.Alive,
			Protected:    player.Protected,
			Investigated: player.Investigated,
			CauseOfDeath: player.CauseOfDeath,
		}
	}

	if err := checkRefs("votes", record.Votes, record.Roster); err != nil {
		return nil, err
	}

	if err := checkRefs("nightActions", record.NightActions, record.Roster); err != nil {
		return nil, err
	}

	game := entity.RestoreGame(conversationID, record.MatchID, players)
	game.Phase = *record.Phase
	game.DayCount = *record.DayCount
	game.Votes = record.Votes
	game.NightActions = record.NightActions
	game.RolesAssigned = *record.RolesAssigned

	return game, nil
}

func checkRefs(field string, refs map[string]string, roster map[string]playerRecord) error {
	for from, to := range refs {
		if _, ok := roster[from]; !ok {
			return fmt.Errorf("%s: unknown player %q", field, from)
		}

		if _, ok := roster[to]; !ok {
			return fmt.Errorf("%s: unknown player %q", field, to)
		}
	}

	return nil
}

func ptr[T any](v T) *T {
	return &v
}
