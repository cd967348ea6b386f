package main

import (
	"fmt"

	"github.com/ashureev/datequiz/internal/config"
	"github.com/ashureev/datequiz/internal/console"
	"github.com/ashureev/datequiz/internal/identity"
	"github.com/ashureev/datequiz/internal/logging"
	"github.com/ashureev/datequiz/internal/store"
	"github.com/spf13/cobra"
)

var playSession string

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a date in the terminal",
	Long:  "Runs the quiz against an in-memory store. Logs go to LOG_FILE only.",
	RunE:  runPlay,
}

func init() {
	playCmd.Flags().StringVar(&playSession, "session", "", "conversation id (default: random)")
}

func runPlay(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger, logCloser, err := logging.Setup(cfg.Log, nil)
	if err != nil {
		return fmt.Errorf("set up logging: %w", err)
	}
	defer logCloser.Close()

	repo := store.NewMemory()
	defer repo.Close()

	dispatcher, err := newDispatcher(cfg, repo, logger)
	if err != nil {
		return err
	}

	if playSession == "" {
		playSession = identity.NewSessionID()
	}
	return console.Run(dispatcher, playSession)
}
