package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/appswitch-io/appswitch/internal/bus"
	"github.com/appswitch-io/appswitch/internal/channel"
	"github.com/appswitch-io/appswitch/internal/config"
	"github.com/appswitch-io/appswitch/internal/dispatch"
	"github.com/appswitch-io/appswitch/internal/fsm"
	"github.com/appswitch-io/appswitch/internal/logging"
	"github.com/appswitch-io/appswitch/internal/server"
	"github.com/appswitch-io/appswitch/internal/store"
)

var (
	serveConfigPath string
	serveHTTPAddr   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the application router worker",
	Long: `Start the router worker: connect to redis, attach to the configured
connectors on the bus, and serve the status endpoint. The dynamic
portion of the configuration is reloaded when the config file changes.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "c", "appswitch.yaml", "Path to the config file")
	serveCmd.Flags().StringVar(&serveHTTPAddr, "http", "", "Status endpoint address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	logging.Info().Str("version", Version).Msg("starting appswitch worker")

	cfg, err := config.Load(serveConfigPath)
	if err != nil {
		return err
	}
	if serveHTTPAddr != "" {
		cfg.HTTPAddr = serveHTTPAddr
	}
	provider := config.NewProvider(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := store.Connect(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer client.Close()

	sessions := store.NewSessionStore(client, cfg.WorkerName, store.Seconds(cfg.SessionExpiry))
	cache := store.NewCorrelationCache(client, store.Seconds(cfg.MessageExpiry))
	machine := fsm.New(channel.ForName(cfg.Channel))

	connectorBus := bus.New()
	defer connectorBus.Close()

	dispatcher := dispatch.New(provider, sessions, cache, machine, connectorBus)
	if err := connectorBus.Attach(ctx, dispatcher,
		cfg.ReceiveInboundConnectors, cfg.ReceiveOutboundConnectors); err != nil {
		return err
	}
	logging.Info().
		Strs("inbound", cfg.ReceiveInboundConnectors).
		Strs("outbound", cfg.ReceiveOutboundConnectors).
		Msg("attached to connectors")

	watcher, err := config.NewWatcher(serveConfigPath, provider)
	if err != nil {
		return err
	}
	watcher.Start()
	defer watcher.Stop()

	srv := server.New(provider)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(cfg.HTTPAddr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}
