package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/paularlott/cli"
	"github.com/robfig/cron/v3"

	"wololo/internal/config"
	"wololo/internal/handler"
	"wololo/internal/hub"
	"wololo/internal/logger"
	"wololo/internal/service"
	"wololo/internal/watcher"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:        "serve",
		Usage:       "Run the HTTP server",
		Description: "Serve the device and discovery API with a live event stream",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "listen",
				Usage:   "Listen address, overrides server.ip and server.port",
				EnvVars: []string{"WOLOLO_LISTEN"},
			},
			&cli.BoolFlag{
				Name:    "watch",
				Usage:   "Reload the registry when the config file changes",
				EnvVars: []string{"WOLOLO_WATCH"},
			},
			&cli.StringFlag{
				Name:    "scan-interval",
				Usage:   "Run discovery periodically (e.g. 15m); empty disables",
				EnvVars: []string{"WOLOLO_SCAN_INTERVAL"},
			},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			cfg, path, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			addr := cfg.ListenAddr()
			if v := cmd.GetString("listen"); v != "" {
				addr = v
			}

			var scanEvery time.Duration
			if v := cmd.GetString("scan-interval"); v != "" {
				if scanEvery, err = time.ParseDuration(v); err != nil || scanEvery <= 0 {
					return fmt.Errorf("invalid scan interval %q", v)
				}
			}

			return serve(ctx, cfg, path, addr, cmd.GetBool("watch"), scanEvery)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, path, addr string, watch bool, scanEvery time.Duration) error {
	log := logger.WithComponent("server")

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg, path)
	if err != nil {
		return err
	}
	defer a.Close()

	sseHub := hub.New()
	go sseHub.Run(ctx)

	events := make(chan service.Event, 100)
	a.bus.Subscribe(events)
	defer a.bus.Unsubscribe(events)
	go sseHub.Relay(ctx, events)

	if err := a.devices.StartSync(); err != nil {
		return err
	}

	if scanEvery > 0 {
		c := cron.New()
		if _, err := c.AddFunc(fmt.Sprintf("@every %s", scanEvery), func() {
			if _, err := a.discovery.Scan(ctx); err != nil {
				log.Warn().Err(err).Msg("scheduled scan failed")
			}
		}); err != nil {
			return fmt.Errorf("schedule discovery: %w", err)
		}
		c.Start()
		defer func() { <-c.Stop().Done() }()
		log.Info().Dur("interval", scanEvery).Msg("scheduled discovery enabled")
	}

	if watch {
		if path == "" {
			log.Warn().Msg("no config file to watch")
		} else {
			w := watcher.New(path, a.devices.SetRegistry)
			go func() {
				if err := w.Watch(ctx); err != nil {
					log.Error().Err(err).Msg("config watcher stopped")
				}
			}()
		}
	}

	mux := http.NewServeMux()
	handler.New(a.devices, a.discovery).Routes(mux, sseHub)

	server := &http.Server{
		Addr: addr,
		Handler: handler.Chain(mux,
			handler.Recover(log),
			handler.Logger(log),
			handler.SecurityHeaders,
		),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("config", path).Int("devices", len(cfg.Devices)).Msg("server listening")
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}

	log.Info().Msg("server stopped")
	return nil
}
