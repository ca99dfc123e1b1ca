package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zeusync/desksim/internal/config"
	"github.com/zeusync/desksim/internal/core/observability/log"
)

var (
	// Global flags
	configPath string
	logLevel   string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "desksim",
	Short: "desksim - desk simulation backend",
	Long: `desksim is the backend of a 3D desk simulation. It keeps the objects
on the desk, rasterises pen strokes onto paper and notebooks, persists state
and drawings, and serves audio, recording and notes helpers to the renderer
over a local websocket.

Run "desksim serve" to start the IPC server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			level, err := log.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			loaded.Logging.Level = level
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		serveCmd,
		scanCmd,
		mapCmd,
		thicknessCmd,
		transcodeCmd,
		callCmd,
		configCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
