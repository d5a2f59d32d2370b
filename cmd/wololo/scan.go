package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/paularlott/cli"

	"wololo/internal/config"
	"wololo/internal/logger"
	"wololo/internal/service"
)

func scanCommand() *cli.Command {
	return &cli.Command{
		Name:        "scan",
		Usage:       "Discover devices on the local networks",
		Description: "Scan every local /24 network and print the online hosts as JSON",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "reconcile",
				Usage: "Print the registry with the discovered hosts merged in, as YAML",
			},
			&cli.BoolFlag{
				Name:  "write",
				Usage: "With --reconcile, write the merged registry to the config file",
			},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			cfg, path, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			a, err := newApp(cfg, path)
			if err != nil {
				return err
			}
			defer a.Close()

			snapshot, err := a.discovery.Scan(ctx)
			if errors.Is(err, service.ErrNoInterfaces) {
				logger.Warn().Msg("no usable network interfaces found")
			} else if err != nil {
				return err
			}

			if !cmd.GetBool("reconcile") {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(snapshot)
			}

			ips := make([]string, 0, len(snapshot.Devices))
			for _, d := range snapshot.Devices {
				ips = append(ips, d.IPAddress)
			}
			text := a.discovery.GenerateConfig(ips)

			if !cmd.GetBool("write") {
				_, err := fmt.Fprint(os.Stdout, text)
				return err
			}

			if path == "" {
				path = config.DefaultConfigPath()
			}
			if err := config.EnsureConfigDir(path); err != nil {
				return err
			}
			if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			logger.Info().Str("path", path).Msg("registry updated")
			return nil
		},
	}
}
