package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/vpet-sync/internal/config"
	"github.com/Faultbox/vpet-sync/internal/logger"
	"github.com/Faultbox/vpet-sync/internal/network"
	"github.com/Faultbox/vpet-sync/internal/param"
	"github.com/Faultbox/vpet-sync/internal/session"
	"github.com/Faultbox/vpet-sync/pkg/scene"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Join a scene and log the updates of other participants",
	Long: `Fetch the scene from the server, build its objects and follow the
update topic. Every parameter change made by another participant is logged.

Examples:
  vpetctl watch --server http://studio:8080
  vpetctl watch --transport valkey --topic stage`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

// newTransport opens the transport selected in the config.
func newTransport(c *config.Config) (network.Transport, error) {
	switch c.Network.Transport {
	case config.TransportWebSocket:
		return network.NewClient(c.Network.Server, logger.Named("ws")), nil
	case config.TransportValkey:
		t, err := network.NewValkeyTransport(c.Network.ValkeyAddr)
		if err != nil {
			return nil, err
		}
		return t, nil
	default:
		return nil, fmt.Errorf("unknown transport %q", c.Network.Transport)
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	log := logger.Named("watch")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := &http.Client{Timeout: cfg.Network.ConnectTimeout}
	sections, err := network.FetchScene(ctx, client, cfg.Network.Server)
	if err != nil {
		return err
	}
	s, err := scene.NewCodec(logger.Named("codec")).Decode(sections)
	if s == nil {
		return err
	}
	if err != nil {
		log.Warn("scene has undecodable sections", zap.Error(err))
	}

	t, err := newTransport(cfg)
	if err != nil {
		return err
	}
	defer t.Close()

	sess := session.New(t, session.Options{
		Topic:      cfg.Network.Topic,
		MaxHistory: cfg.History.MaxEntries,
		QueueSize:  cfg.Network.QueueSize,
		InboxSize:  cfg.Network.InboxSize,
	}, logger.Named("session"))
	defer sess.Close()

	objects, err := sess.Load(s)
	if err != nil {
		return err
	}
	for _, o := range objects {
		name := o.Name
		o.Subscribe(func(c param.Change) {
			if c.Origin != param.OriginRemote {
				return
			}
			log.Info("update",
				zap.String("object", name),
				zap.String("param", c.Param.Name()),
				zap.Any("value", c.Param.Value()))
		})
	}

	log.Info("watching",
		zap.String("server", cfg.Network.Server),
		zap.String("transport", cfg.Network.Transport),
		zap.String("topic", cfg.Network.Topic),
		zap.Stringer("session", sess.ID),
		zap.Int("objects", len(objects)))

	if err := sess.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
