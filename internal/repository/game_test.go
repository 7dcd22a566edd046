package repository

import (
	"testing"

	"github.com/rocketscienceinc/mafia-bot/internal/entity"
	"github.com/rocketscienceinc/mafia-bot/testing/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "mafia:games"

func TestGameRepository_Save(t *testing.T) {
	ctx, st := suite.New(t)

	gameRepo := NewGameRepository(st.Storage, testKey)

	// Given: a lobby with one player
	game := entity.NewGame("chat-1", "match-1")
	require.True(t, game.AddPlayer("alice", "Alice"))

	// When: Save is called
	err := gameRepo.Save(ctx, []*entity.Game{game})

	// Then: no error should be returned, and the document is stored under the key
	require.NoError(t, err)

	stored, err := st.Storage.Get(ctx, testKey).Result()
	require.NoError(t, err)
	assert.Contains(t, stored, `"chat-1"`)
}

func TestGameRepository_Load(t *testing.T) {
	t.Run("Load_Success", func(t *testing.T) {
		ctx, st := suite.New(t)

		gameRepo := NewGameRepository(st.Storage, testKey)

		// Given: a saved started game
		game := startedGame(t)
		require.NoError(t, gameRepo.Save(ctx, []*entity.Game{game}))

		// When: Load is called
		games, err := gameRepo.Load(ctx)

		// Then: the game comes back intact
		require.NoError(t, err)
		require.Len(t, games, 1)
		assert.Equal(t, game.ConversationID, games[0].ConversationID)
		assert.Equal(t, game.Phase, games[0].Phase)
		assert.Equal(t, game.Players(), games[0].Players())
	})

	t.Run("Load_Empty", func(t *testing.T) {
		ctx, st := suite.New(t)

		gameRepo := NewGameRepository(st.Storage, testKey)

		// When: nothing was ever saved
		games, err := gameRepo.Load(ctx)

		// Then: the registry starts empty
		require.NoError(t, err)
		assert.Empty(t, games)
	})

	t.Run("Load_Malformed", func(t *testing.T) {
		ctx, st := suite.New(t)

		gameRepo := NewGameRepository(st.Storage, testKey)

		// Given: garbage under the key
		require.NoError(t, st.Storage.Set(ctx, testKey, `{"chat-1":{"phase":"night"}}`, 0).Err())

		// When: Load is called
		_, err := gameRepo.Load(ctx)

		// Then: it fails loudly
		require.ErrorIs(t, err, ErrMalformedSnapshot)
	})
}
