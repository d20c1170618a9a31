// cmd/bombparty/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/jason-s-yu/bombparty/internal/config"
	"github.com/jason-s-yu/bombparty/internal/conn"
	"github.com/jason-s-yu/bombparty/internal/countdown"
	"github.com/jason-s-yu/bombparty/internal/history"
	"github.com/jason-s-yu/bombparty/internal/journal"
	"github.com/jason-s-yu/bombparty/internal/session"
	"github.com/jason-s-yu/bombparty/internal/tui"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 3 * time.Second

func main() {
	os.Exit(realMain(os.Args[1:]))
}

// realMain returns the process exit code so deferred cleanup runs before exit.
func realMain(args []string) int {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("config: %v", err)
		return 1
	}

	flags := flag.NewFlagSet("bombparty", flag.ContinueOnError)
	url := flags.String("url", cfg.ServerURL, "websocket URL of the game server")
	name := flags.String("name", cfg.Name, "player name to prefill")
	verbose := flags.Bool("v", false, "enable debug logging")
	recent := flags.Int("history", 0, "print the last N recorded matches for -name and exit")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	cfg.ServerURL = *url
	cfg.Name = *name
	if *verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		log.Printf("config: %v", err)
		return 1
	}

	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		log.Printf("log file: %v", err)
		return 1
	}
	defer closeLog()

	if *recent > 0 {
		if err := printHistory(cfg, *name, *recent); err != nil {
			logger.Errorf("history: %v", err)
			log.Printf("history: %v", err)
			return 1
		}
		return 0
	}

	if err := run(cfg, logger); err != nil {
		logger.Errorf("bombparty exited: %v", err)
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// newLogger writes to a file: the terminal belongs to the UI.
func newLogger(cfg config.Config) (*logrus.Logger, func(), error) {
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	logger := logrus.New()
	logger.SetOutput(f)
	logger.SetLevel(cfg.Level())
	return logger, func() { _ = f.Close() }, nil
}

func run(cfg config.Config, logger *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessionID, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("session id: %w", err)
	}
	logger.WithFields(logrus.Fields{
		"session": sessionID,
		"url":     cfg.ServerURL,
	}).Info("Starting bombparty client")

	adapter := conn.New(cfg.ServerURL, logger,
		conn.WithWriteTimeout(cfg.WriteTimeout),
		conn.WithPingInterval(cfg.PingInterval),
	)
	machine := session.NewMachine(adapter, logger)

	stopJournal := startJournal(ctx, cfg, logger, sessionID, machine)
	defer stopJournal()

	recorder, closeStore := startHistory(ctx, cfg, logger, sessionID)
	if recorder != nil {
		machine.AddObserver(recorder)
		defer closeStore()
		defer recorder.Wait()
	}

	linkCtx, cancelLink := context.WithCancel(ctx)
	defer cancelLink()
	linkDone := make(chan struct{})
	go func() {
		defer close(linkDone)
		if err := adapter.Run(linkCtx); err != nil {
			logger.Warnf("link ended: %v", err)
		}
	}()

	model := tui.New(machine, adapter.Events(), countdown.New(cfg.Countdown), logger, cfg.Name)
	_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()

	cancelLink()
	select {
	case <-linkDone:
	case <-time.After(shutdownTimeout):
		logger.Warn("link did not close in time")
	}
	logger.WithField("phase", machine.State().Phase).Info("bombparty client stopped")
	return err
}

// startJournal attaches the Redis journal when configured. The returned func
// stops the flusher after a best-effort drain.
func startJournal(ctx context.Context, cfg config.Config, logger *logrus.Logger, sessionID uuid.UUID, machine *session.Machine) func() {
	if cfg.Redis.Addr == "" {
		return func() {}
	}
	pub, err := journal.ConnectRedis(ctx, cfg.Redis.Addr, cfg.Redis.DB, cfg.Redis.Queue)
	if err != nil {
		logger.Warnf("journal disabled: %v", err)
		return func() {}
	}

	j := journal.New(sessionID, pub, logger, 0)
	machine.AddObserver(j)
	logger.Infof("journal: pushing session records to %s", pub.Queue())

	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		j.Run(runCtx)
	}()
	return func() {
		cancel()
		<-done
		_ = pub.Close()
	}
}

// startHistory connects the match store when configured.
func startHistory(ctx context.Context, cfg config.Config, logger *logrus.Logger, sessionID uuid.UUID) (*history.Recorder, func()) {
	if cfg.DatabaseURL == "" {
		return nil, nil
	}
	store, err := history.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Warnf("history disabled: %v", err)
		return nil, nil
	}
	if err := store.EnsureSchema(ctx); err != nil {
		logger.Warnf("history disabled: %v", err)
		store.Close()
		return nil, nil
	}
	return history.NewRecorder(store, logger, sessionID), store.Close
}

func printHistory(cfg config.Config, identity string, limit int) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is not set")
	}
	if identity == "" {
		return fmt.Errorf("-name is required with -history")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	store, err := history.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()

	matches, err := store.RecentMatches(ctx, identity, limit)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		fmt.Printf("Aucune partie enregistrée pour %s\n", identity)
		return nil
	}
	for _, m := range matches {
		result := "défaite"
		if m.Won() {
			result = "victoire"
		}
		fmt.Printf("%s  %-8s  gagnant: %-16s  tours: %3d  joueurs: %d\n",
			m.FinishedAt.Local().Format("2006-01-02 15:04"), result, m.Winner, m.Turns, len(m.Players))
	}
	return nil
}
