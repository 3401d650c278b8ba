package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/kompas/internal/corpus"
	"github.com/ziadkadry99/kompas/internal/server"
)

var (
	serverPort   int
	indexOnStart bool
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the HTTP chat server",
	Long: `Starts the kompas HTTP API: document indexing, chat, chat history and
uploads, plus a WebSocket chat endpoint at /ws/chat.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = serverPort
		}
		if cmd.Flags().Changed("index") {
			cfg.Server.IndexOnStart = indexOnStart
		}

		logger := newLogger(os.Stderr, cfg.LogLevel)

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := buildApp(ctx, cfg, logger, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
			return fmt.Errorf("creating upload dir: %w", err)
		}

		if cfg.Server.IndexOnStart {
			res, err := a.bot.IndexCorpus(ctx)
			switch {
			case errors.Is(err, corpus.ErrCorpusAccess):
				logger.Warn("document directory unreadable, starting without an index", "error", err)
			case err != nil:
				logger.Error("initial indexing failed", "error", err)
			default:
				logger.Info("initial indexing done", "files", res.NewFiles, "chunks", res.TotalChunks)
			}
		}

		srv := server.New(server.Config{
			Port:               cfg.Server.Port,
			AllowedOrigins:     cfg.Server.AllowedOrigins,
			UploadDir:          cfg.UploadDir,
			MaxUploadBytes:     cfg.Server.MaxUploadBytes,
			AllowedUploadTypes: cfg.Server.AllowedUploadTypes,
		}, a.bot, logger)

		go func() {
			<-ctx.Done()
			logger.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		logger.Info("kompas server starting",
			"version", Version,
			"port", cfg.Server.Port,
			"upload_dir", cfg.UploadDir,
			"retriever", cfg.Retriever,
		)

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 8000, "port to listen on (overrides server.port)")
	serverCmd.Flags().BoolVar(&indexOnStart, "index", false, "index the watched directory before serving")
	rootCmd.AddCommand(serverCmd)
}
