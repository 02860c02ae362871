package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/vpet-sync/internal/logger"
	"github.com/Faultbox/vpet-sync/internal/server"
	"github.com/Faultbox/vpet-sync/pkg/scene"
)

var serveCmd = &cobra.Command{
	Use:   "serve [dir]",
	Short: "Serve a scene and relay parameter updates",
	Long: `Serve the section files in a directory under /scene/{section} and run a
websocket hub under /ws/{topic} that relays every update to the other
participants on the same topic.

Examples:
  vpetctl serve ./scene
  vpetctl serve ./scene --listen :9000`,
	Args: cobra.MaximumNArgs(1),
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	dir := sceneDir(args)
	log := logger.Named("serve")

	sections, err := scene.LoadSections(dir)
	if err != nil {
		return err
	}

	// Decode once so a broken scene is reported before anyone fetches it
	if s, err := scene.NewCodec(logger.Named("codec")).Decode(sections); err != nil {
		log.Warn("scene has undecodable sections", zap.String("dir", dir), zap.Error(err))
	} else {
		log.Info("scene loaded",
			zap.String("dir", dir),
			zap.Int32("version", s.Header.Version),
			zap.Int("nodes", s.NodeCount()),
			zap.Int("bytes", sections.Size()))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(sections, logger.Named("server"))
	return srv.ListenAndServe(ctx, cfg.Network.Listen)
}
