package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/rocketscienceinc/mafia-bot/internal/command"
)

const malformedHint = "usage: <conversation> <user> <name> <command> [args...]"

type dispatcher interface {
	Dispatch(ctx context.Context, req command.Request) []command.Delivery
}

// Server is a line based chat adapter: one command per input line, one message per output line.
type Server struct {
	logger *slog.Logger

	mu  sync.Mutex
	out io.Writer
}

func New(logger *slog.Logger, out io.Writer) *Server {
	return &Server{
		logger: logger.With("component", "console"),
		out:    out,
	}
}

// Deliver writes one message. Timer announcements and command replies share the writer.
func (that *Server) Deliver(_ context.Context, delivery command.Delivery) error {
	channel := "group"
	if delivery.Private {
		channel = "private"
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	for _, line := range strings.Split(delivery.Text, "\n") {
		if _, err := fmt.Fprintf(that.out, "[%s:%s] %s\n", channel, delivery.Recipient, line); err != nil {
			return fmt.Errorf("failed to write delivery: %w", err)
		}
	}

	return nil
}

// Serve reads commands until the input ends or ctx is cancelled.
func (that *Server) Serve(ctx context.Context, in io.Reader, commands dispatcher) error {
	log := that.logger.With("method", "Serve")

	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}

		readErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					if err != nil {
						return fmt.Errorf("failed to read input: %w", err)
					}
				default:
				}

				log.Info("input closed")
				return nil
			}

			if err := that.handleLine(ctx, line, commands); err != nil {
				return err
			}
		}
	}
}

func (that *Server) handleLine(ctx context.Context, line string, commands dispatcher) error {
	log := that.logger.With("method", "handleLine")

	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	req, err := command.ParseLine(line)
	if err != nil {
		log.Warn("failed to parse line", "error", err)
		return that.writeRaw(malformedHint)
	}

	for _, delivery := range commands.Dispatch(ctx, req) {
		if err = that.Deliver(ctx, delivery); err != nil {
			return err
		}
	}

	return nil
}

func (that *Server) writeRaw(text string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, err := io.WriteString(that.out, text+"\n"); err != nil {
		return errors.Join(errors.New("failed to write hint"), err)
	}

	return nil
}
