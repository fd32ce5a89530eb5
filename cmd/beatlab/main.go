// Command beatlab runs the step-sequencer editing tool: it constructs the
// Manager, registers the editor, audio, assistant and library modules,
// initializes them concurrently, and serves the status API until
// interrupted.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/beatlab/beatlab"
	"github.com/beatlab/beatlab/config"
	"github.com/beatlab/beatlab/modules/assistant"
	"github.com/beatlab/beatlab/modules/audio"
	"github.com/beatlab/beatlab/modules/editor"
	"github.com/beatlab/beatlab/modules/library"
	"github.com/beatlab/beatlab/statusapi"
	"github.com/beatlab/beatlab/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "beatlab",
		Short: "modular step-sequencer editing tool",
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a TOML or YAML config file")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "run the module orchestrator and status API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return serveApp(cfg)
		},
	}
	root.AddCommand(serve)
	return root
}

func serveApp(cfg config.Config) error {
	logger := newLogger(cfg.Log.Level)
	ctx := context.Background()

	st, err := store.Open(cfg.Store.Driver, cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	mgr := beatlab.NewManager(logger)

	// Registration order is also lookup order for propagation; the audio
	// module goes in before the editor so an initial pattern reaches it
	// during InitializeAll.
	if _, err := mgr.Register(audio.New(nil, logger)); err != nil {
		return err
	}
	editorID, err := mgr.Register(editor.New(mgr, cfg.Editor.InitialContent, logger))
	if err != nil {
		return err
	}
	if _, err := mgr.Register(assistant.New(nil, logger)); err != nil {
		return err
	}
	if _, err := mgr.Register(library.New(st, logger)); err != nil {
		return err
	}

	mgr.InitializeAll(ctx)
	mgr.SetActive(ctx, editorID)

	stats := mgr.GetStats()
	logger.Info("modules initialized",
		"total", stats.TotalModules,
		"healthy", stats.HealthyModules,
		"unhealthy", stats.UnhealthyModules)
	for _, id := range mgr.UnhealthyModules() {
		if record, ok := mgr.GetHealth(id); ok {
			logger.Warn("module is unhealthy", "id", id, "lastError", record.LastError)
		}
	}

	monitor := beatlab.NewHealthMonitor(mgr, cfg.Health.Schedule, logger)
	if err := monitor.Start(); err != nil {
		return err
	}

	var api *statusapi.Server
	if cfg.Status.Enabled {
		api = statusapi.New(mgr, cfg.Status.Addr, logger)
		api.Start()
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	monitor.Stop()
	if api != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := api.Shutdown(shutdownCtx); err != nil {
			logger.Error("status api shutdown failed", "error", err)
		}
	}
	mgr.DestroyAll(ctx)
	return nil
}
