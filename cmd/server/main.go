package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/pixlnary-backend/internal/config"
	"github.com/DoyleJ11/pixlnary-backend/internal/httpapi"
	"github.com/DoyleJ11/pixlnary-backend/internal/hub"
	"github.com/DoyleJ11/pixlnary-backend/internal/lobby"
	"github.com/DoyleJ11/pixlnary-backend/internal/logging"
	"github.com/DoyleJ11/pixlnary-backend/internal/relay"
	"github.com/DoyleJ11/pixlnary-backend/internal/words"
	"github.com/DoyleJ11/pixlnary-backend/internal/ws"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer log.Sync() //nolint:errcheck

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool := words.MustDefault()
	if cfg.WordsFile != "" {
		if pool, err = words.LoadFile(cfg.WordsFile); err != nil {
			return err
		}
	}
	log.Info("word pool ready", zap.Int("words", pool.Len()))

	var mirror lobby.Mirror
	if cfg.NATSURL != "" {
		nc, cerr := relay.Connect(cfg.NATSURL, log)
		if cerr != nil {
			return cerr
		}
		defer func() { err = multierr.Append(err, nc.Drain()) }()
		mirror = relay.New(nc, log)
		log.Info("mirroring room events to NATS", zap.String("url", cfg.NATSURL))
	}

	// Build the hub that every websocket and API request goes through. It
	// outlives ctx so open sockets get closed after the listener stops.
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	h := hub.NewHub(hubCtx, lobby.Config{
		BoardSize:    cfg.BoardSize,
		Words:        pool,
		RoundTicks:   cfg.RoundSeconds,
		TickInterval: cfg.TickInterval,
		Mirror:       mirror,
		Log:          log,
	}, cfg.DefaultRoom)
	// the default room exists before anyone connects
	if h.Lobby(ctx, cfg.DefaultRoom, true) == nil {
		return errors.New("hub stopped before the default room started")
	}

	handler := httpapi.SetupRoutes(h, wsOptions(cfg, log), log)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.HTTPAddr), zap.Int("board_size", cfg.BoardSize))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		stopHub()
		<-h.Done()
		return err
	})
	return g.Wait()
}

func wsOptions(cfg config.Config, log *zap.Logger) ws.Options {
	return ws.Options{
		DefaultRoom:    cfg.DefaultRoom,
		AllowedOrigins: cfg.AllowedOrigins,
		InboundRate:    cfg.InboundRate,
		InboundBurst:   cfg.InboundBurst,
		OutboxSize:     cfg.OutboxSize,
		Log:            log,
	}
}
