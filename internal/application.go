package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/rocketscienceinc/mafia-bot/internal/command"
	"github.com/rocketscienceinc/mafia-bot/internal/config"
	"github.com/rocketscienceinc/mafia-bot/internal/metrics"
	"github.com/rocketscienceinc/mafia-bot/internal/repository"
	"github.com/rocketscienceinc/mafia-bot/internal/repository/storage"
	"github.com/rocketscienceinc/mafia-bot/internal/usecase"
	"github.com/rocketscienceinc/mafia-bot/transport/console"
	"github.com/rocketscienceinc/mafia-bot/transport/rest"
)

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	store, closeStore, err := newStore(ctx, conf)
	if err != nil {
		return err
	}

	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(reg)

	chat := console.New(logger, os.Stdout)

	registry, err := usecase.NewRegistry(ctx, logger, store, command.NewAnnouncer(logger, chat), appMetrics, usecase.Durations{
		Night:  conf.Phases.Night,
		Day:    conf.Phases.Day,
		Voting: conf.Phases.Voting,
	})
	if err != nil {
		return fmt.Errorf("could not start game registry: %w", err)
	}

	defer func() {
		if err = registry.Close(context.WithoutCancel(ctx)); err != nil {
			log.Error("could not close game registry", "error", err)
		}
	}()

	dispatcher := command.NewDispatcher(logger, registry, appMetrics)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := rest.Start(ctx, conf.HTTPPort, reg); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run chat adapter
	chatDone := make(chan error, 1)
	go func() {
		log.Info("Reading commands from stdin")
		chatDone <- chat.Serve(ctx, os.Stdin, dispatcher)
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-chatDone:
		if err != nil {
			return fmt.Errorf("chat adapter error: %w", err)
		}

		log.Info("Input closed, shutting down")
		return nil
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}

// newStore picks the persistence backend named by the config.
func newStore(ctx context.Context, conf *config.Config) (repository.GameStore, func(), error) {
	if conf.Storage.Driver == config.StorageFile {
		return repository.NewFileStore(conf.Storage.Path), func() {}, nil
	}

	redisStorage, err := storage.NewRedisStorage(ctx, conf.Redis.GetRedisAddr())
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
	}

	closeStore := func() {
		_ = redisStorage.Close()
	}

	return repository.NewGameRepository(redisStorage, conf.Redis.Key), closeStore, nil
}
