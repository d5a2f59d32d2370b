package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/paularlott/cli"

	"wololo/internal/codec"
	"wololo/internal/config"
	"wololo/internal/logger"
)

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:        "export",
		Usage:       "Export the registry",
		Description: "Write the device registry as YAML, JSON or an Ansible inventory",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:         "format",
				Usage:        "Output format (yaml, json, ansible)",
				DefaultValue: codec.FormatYAML,
			},
			&cli.StringFlag{
				Name:  "output",
				Usage: "Output file, stdout when empty",
			},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			c, err := codec.ForFormat(cmd.GetString("format"))
			if err != nil {
				return err
			}

			var w io.Writer = os.Stdout
			if out := cmd.GetString("output"); out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer f.Close()
				w = f
			}

			return c.Export(cfg, w)
		},
	}
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:        "import",
		Usage:       "Add devices from an exported registry",
		Description: "Read a YAML, JSON or Ansible registry and add devices whose names are not yet registered",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "file", Required: true},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:         "format",
				Usage:        "Input format (yaml, json, ansible)",
				DefaultValue: codec.FormatYAML,
			},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			cfg, path, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			c, err := codec.ForFormat(cmd.GetString("format"))
			if err != nil {
				return err
			}

			f, err := os.Open(cmd.GetStringArg("file"))
			if err != nil {
				return err
			}
			defer f.Close()

			imported, err := c.Parse(f)
			if err != nil {
				return err
			}

			added := 0
			for _, d := range imported.Devices {
				if _, exists := cfg.FindDevice(d.Name); exists {
					logger.Debug().Str("device", d.Name).Msg("already registered, skipped")
					continue
				}
				cfg.Devices = append(cfg.Devices, d)
				added++
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			if path == "" {
				path = cmd.GetString("config")
			}
			if path == "" {
				path = config.DefaultConfigPath()
			}
			if err := cfg.Save(path); err != nil {
				return err
			}

			logger.Info().Int("added", added).Str("path", path).Msg("devices imported")
			return nil
		},
	}
}
