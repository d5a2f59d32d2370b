package main

import (
	"context"
	"os"

	"github.com/paularlott/cli"

	"wololo/internal/logger"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	rootCmd := &cli.Command{
		Name:        "wololo",
		Version:     version,
		Usage:       "Wake, monitor and discover LAN devices",
		Description: "Keeps a registry of LAN devices, wakes them with magic packets and discovers new ones on the local networks",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Path to the config file",
				EnvVars: []string{"WOLOLO_CONFIG"},
				Global:  true,
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (trace, debug, info, warn, error)",
				EnvVars: []string{"WOLOLO_LOG_LEVEL"},
				Global:  true,
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (console, json)",
				EnvVars: []string{"WOLOLO_LOG_FORMAT"},
				Global:  true,
			},
		},
		PreRun: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			return ctx, logger.Init(logFlags(cmd, logger.Config{}))
		},
		Commands: []*cli.Command{
			serveCommand(),
			scanCommand(),
			exportCommand(),
			importCommand(),
			wakeCommand(),
			statusCommand(),
			versionCommand(),
		},
	}

	if err := rootCmd.Execute(context.Background()); err != nil {
		logger.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print the version",
		Run: func(ctx context.Context, cmd *cli.Command) error {
			_, err := os.Stdout.WriteString("wololo " + version + " (" + commit + ")\n")
			return err
		},
	}
}
