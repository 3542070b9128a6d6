// cmd/acquisitor/run.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tamzrod/modbus-acquisitor/internal/acquisition"
	"github.com/tamzrod/modbus-acquisitor/internal/config"
	"github.com/tamzrod/modbus-acquisitor/internal/metrics"
	"github.com/tamzrod/modbus-acquisitor/internal/mirror"
	"github.com/tamzrod/modbus-acquisitor/internal/modbus"
	"github.com/tamzrod/modbus-acquisitor/internal/server"
	"github.com/tamzrod/modbus-acquisitor/internal/state"
	"github.com/tamzrod/modbus-acquisitor/internal/trigger"
	"github.com/tamzrod/modbus-acquisitor/pkg/banner"
	"github.com/tamzrod/modbus-acquisitor/pkg/logger"
)

func runService(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadWithCli(cmd)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync(log) }()

	banner.Print(cmd.OutOrStdout(), "acquisitor", "cyan")

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, log); err != nil {
		log.Error("acquisitor failed", zap.Error(err))
		return err
	}
	return nil
}

// serve wires every component, blocks until ctx is done or the scheduler
// stops on its own, then tears down in reverse order.
func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	a := cfg.Acquisition

	// --------------------
	// Configuration + state
	// --------------------

	provider, err := config.NewProvider(a)
	if err != nil {
		return err
	}
	store := state.NewStore(provider.ConfigurationItems(), log.Named("state"))

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	observer := metrics.NewAcquisition(metrics.NewMetricFactory(metrics.NewPromRegistry(registry)))
	store.AddPublisher(observer)

	// seconds-in-error keeps counting between failed reads
	refreshCtx, stopRefresh := context.WithCancel(ctx)
	defer stopRefresh()

	// --------------------
	// Mirror (optional)
	// --------------------

	if cfg.Mirror.Enable {
		m := mirror.New(cfg.Mirror.StatusBase, log.Named("mirror"))
		// seeded before listening so the slave starts with every identity
		if err := m.Seed(store.Snapshot()); err != nil {
			return err
		}
		if err := m.Start(cfg.Mirror.Listen); err != nil {
			return err
		}
		defer m.Close()
		store.AddPublisher(m)
	}

	// --------------------
	// Command executor
	// --------------------

	link, err := modbus.Dial(modbus.Config{
		Mode:        a.Source.Mode,
		Endpoint:    a.Source.Endpoint,
		Timeout:     a.Source.Timeout,
		IdleTimeout: a.Source.IdleTimeout,
		Serial: modbus.SerialConfig{
			Device:   a.Source.Serial.Device,
			BaudRate: a.Source.Serial.BaudRate,
			DataBits: a.Source.Serial.DataBits,
			Parity:   a.Source.Serial.Parity,
			StopBits: a.Source.Serial.StopBits,
		},
	}, log.Named("modbus"))
	if err != nil {
		return err
	}
	exec, err := modbus.NewExecutor(link, store, log.Named("executor"))
	if err != nil {
		_ = link.Close()
		return err
	}
	defer func() {
		if err := exec.Close(); err != nil {
			log.Warn("close modbus link", zap.Error(err))
		}
	}()

	// --------------------
	// Trigger + scheduler
	// --------------------

	sig := trigger.New()
	clock, err := trigger.NewClock(a.Tick, sig, log.Named("trigger"))
	if err != nil {
		return err
	}

	acq, err := acquisition.New(sig, provider, exec,
		acquisition.WithStopTimeout(a.StopTimeout),
		acquisition.WithAcquisitorLogger(log.Named("acquisition")),
		acquisition.WithSchedulerOptions(acquisition.WithObserver(observer)),
	)
	if err != nil {
		return err
	}
	defer func() {
		if err := acq.Close(); err != nil {
			log.Warn("acquisition close", zap.Error(err))
		}
	}()

	clockCtx, stopClock := context.WithCancel(ctx)
	defer stopClock()
	go clock.Run(clockCtx)
	go store.Run(refreshCtx, time.Second)

	// --------------------
	// HTTP (optional)
	// --------------------

	if cfg.Server.Enable {
		health := func() error {
			if acq.State() == acquisition.StateStopped {
				return acquisition.ErrStopped
			}
			return nil
		}
		srv := server.NewHTTPServer(cfg.Server.Addr, registry, store, health, log.Named("http"))
		if err := srv.Start(); err != nil {
			return fmt.Errorf("start HTTP server: %w", err)
		}
		defer func() { _ = srv.Shutdown() }()
	}

	log.Info("acquisition running",
		zap.Int("points", len(a.Points)),
		zap.Duration("tick", a.Tick),
		zap.String("source", a.Source.Mode),
		zap.Int("pid", os.Getpid()),
	)

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		return nil
	case <-acq.Done():
		return errors.New("acquisition stopped unexpectedly")
	}
}
