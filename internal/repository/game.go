package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/mafia-bot/internal/entity"
)

// GameStore persists the full set of live games as one snapshot.
type GameStore interface {
	Save(ctx context.Context, games []*entity.Game) error
	Load(ctx context.Context) ([]*entity.Game, error)
}

type dbGame struct {
	client *redis.Client
	key    string
}

// NewGameRepository keeps the snapshot document under a single Redis key.
func NewGameRepository(client *redis.Client, key string) GameStore {
	return &dbGame{
		client: client,
		key:    key,
	}
}

func (that *dbGame) Save(ctx context.Context, games []*entity.Game) error {
	data, err := Encode(games)
	if err != nil {
		return err
	}

	if err = that.client.Set(ctx, that.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set games: %w", err)
	}

	return nil
}

func (that *dbGame) Load(ctx context.Context) ([]*entity.Game, error) {
	response, err := that.client.Get(ctx, that.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get games: %w", err)
	}

	return Decode(response)
}
