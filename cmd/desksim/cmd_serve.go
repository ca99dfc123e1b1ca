package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/zeusync/desksim/internal/core/observability/log"
	"github.com/zeusync/desksim/internal/injector"
)

var (
	serveListen  string
	serveDataDir string
	serveMusic   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the IPC server",
	Long: `Starts the websocket IPC server on /ipc. When a music folder is
configured it is watched and library changes are pushed to clients as events.
Drawings still in memory are saved on shutdown.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address, overrides server.listen_addr")
	serveCmd.Flags().StringVar(&serveDataDir, "data-dir", "", "data directory, overrides storage.data_dir")
	serveCmd.Flags().StringVar(&serveMusic, "music", "", "music folder to watch, overrides media.music_folder")
}

func runServe(cmd *cobra.Command, _ []string) error {
	if serveListen != "" {
		cfg.Server.ListenAddr = serveListen
	}
	if serveDataDir != "" {
		cfg.Storage.DataDir = serveDataDir
	}
	if serveMusic != "" {
		cfg.Media.MusicFolder = serveMusic
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	app, cleanup, err := injector.InitializeApp(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	logger := app.Logger.With(log.String("component", "main"))
	if !app.FFmpeg.Available() {
		logger.Warn("FFmpeg not found, audio transcoding and MP3 recordings are disabled",
			log.String("binary", cfg.FFmpeg.Binary))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.Server.Run(gctx)
	})
	if app.Watcher != nil {
		g.Go(func() error {
			return app.Watcher.Run(gctx)
		})
	}

	err = g.Wait()

	saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if saveErr := app.Desk.SaveDrawings(saveCtx); saveErr != nil {
		logger.Error("Failed to save drawings", log.Error(saveErr))
		err = errors.Join(err, saveErr)
	}

	logger.Info("Shutdown complete")
	return err
}
