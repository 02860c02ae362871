package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Faultbox/vpet-sync/internal/config"
	"github.com/Faultbox/vpet-sync/internal/logger"
)

var (
	flags config.Flags
	cfg   *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "vpetctl",
	Short: "VPET scene and parameter sync utility",
	Long: `vpetctl works with scenes in the VPET binary section format:
  - write a sample scene to a directory of section files
  - inspect or convert section files between protocol versions
  - serve a scene over HTTP with a websocket update hub
  - watch the parameter updates published on a topic`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(&flags)
		if err != nil {
			return err
		}
		opts := logger.Options{
			Level:   c.Logging.Level,
			Console: true,
			JSON:    c.Logging.JSON,
		}
		if c.Logging.LogFile != "" {
			opts.File = logger.DefaultFileConfig(c.Logging.LogFile)
		}
		if err := logger.InitWithOptions(opts); err != nil {
			return err
		}
		cfg = c
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	flags.Register(rootCmd.PersistentFlags())
}

// sceneDir returns the directory argument, or the configured scene directory.
func sceneDir(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return cfg.Scene.Dir
}
