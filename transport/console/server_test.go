package console

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/mafia-bot/internal/command"
)

type mockDispatcher struct {
	mock.Mock
}

func (m *mockDispatcher) Dispatch(ctx context.Context, req command.Request) []command.Delivery {
	args := m.Called(ctx, req)
	return args.Get(0).([]command.Delivery)
}

func newTestServer() (*Server, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)), out), out
}

func TestServer_Deliver(t *testing.T) {
	server, out := newTestServer()

	require.NoError(t, server.Deliver(context.Background(), command.Delivery{Recipient: "C1", Text: "Day 1 begins."}))
	require.NoError(t, server.Deliver(context.Background(), command.Delivery{Private: true, Recipient: "U1", Text: "Your role: Mafia\n\nShh."}))

	assert.Equal(t, "[group:C1] Day 1 begins.\n[private:U1] Your role: Mafia\n[private:U1] \n[private:U1] Shh.\n", out.String())
}

func TestServer_Serve(t *testing.T) {
	t.Run("Dispatches parsed lines and skips comments", func(t *testing.T) {
		// Given: a dispatcher expecting exactly one request
		server, out := newTestServer()
		commands := &mockDispatcher{}
		commands.On("Dispatch", mock.Anything, command.Request{
			ConversationID: "C1",
			UserID:         "U1",
			UserName:       "Alice Smith",
			Command:        "new-game",
			Args:           []string{},
		}).Return([]command.Delivery{{Recipient: "C1", Text: "created"}}).Once()

		input := strings.NewReader("# a comment\n\n   \nC1 U1 \"Alice Smith\" new-game\n")

		// When: serving until the input ends
		err := server.Serve(context.Background(), input, commands)

		// Then
		require.NoError(t, err)
		commands.AssertExpectations(t)
		assert.Equal(t, "[group:C1] created\n", out.String())
	})

	t.Run("Malformed lines get a usage hint", func(t *testing.T) {
		server, out := newTestServer()
		commands := &mockDispatcher{}

		err := server.Serve(context.Background(), strings.NewReader("C1 U1\n"), commands)

		require.NoError(t, err)
		commands.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
		assert.Equal(t, malformedHint+"\n", out.String())
	})

	t.Run("Stops when the context is cancelled", func(t *testing.T) {
		server, _ := newTestServer()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		reader, writer := io.Pipe()
		t.Cleanup(func() { _ = writer.Close() })

		require.NoError(t, server.Serve(ctx, reader, &mockDispatcher{}))
	})
}
