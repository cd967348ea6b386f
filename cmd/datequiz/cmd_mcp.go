package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ashureev/datequiz/internal/config"
	"github.com/ashureev/datequiz/internal/logging"
	"github.com/ashureev/datequiz/internal/mcptools"
	"github.com/ashureev/datequiz/internal/skill"
	"github.com/ashureev/datequiz/internal/store"
	"github.com/ashureev/datequiz/internal/transcript"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

var mcpMemory bool

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the date tools over MCP stdio",
	Long: `Starts an MCP server over stdin/stdout exposing date_start, date_answer,
date_redo, date_finish, date_status and date_partners.

Stdout carries the protocol, so logs go to LOG_FILE or stderr.`,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().BoolVar(&mcpMemory, "memory", false, "keep sessions in memory instead of DB_PATH")
}

func runMCP(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	var console io.Writer
	if cfg.Log.File == "" {
		console = os.Stderr
	}
	logger, logCloser, err := logging.Setup(cfg.Log, console)
	if err != nil {
		return fmt.Errorf("set up logging: %w", err)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	var repo store.Repository
	if mcpMemory {
		repo = store.NewMemory()
	} else {
		sqlite, err := store.NewSQLite(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("initialize database: %w", err)
		}
		repo = sqlite
	}
	defer repo.Close()

	recorder, err := transcript.NewLogger(cfg.Transcript, logger)
	if err != nil {
		return fmt.Errorf("initialize transcripts: %w", err)
	}
	defer recorder.Close()

	dispatcher, err := newDispatcher(cfg, repo, logger, skill.WithRecorder(recorder))
	if err != nil {
		return err
	}

	slog.Info("Starting MCP server over stdio", "memory", mcpMemory)
	return server.ServeStdio(mcptools.New(dispatcher))
}
