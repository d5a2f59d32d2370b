package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/paularlott/cli"

	"wololo/internal/service"
)

func wakeCommand() *cli.Command {
	return &cli.Command{
		Name:        "wake",
		Usage:       "Wake a registered device",
		Description: "Send a Wake-on-LAN magic packet to a device from the registry",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "name", Required: true},
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

			name := cmd.GetStringArg("name")
			if err := a.devices.Wake(name); err != nil {
				return err
			}
			fmt.Printf("Magic packet sent to %s\n", name)
			return nil
		},
	}
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:        "status",
		Usage:       "Show the liveness of registered devices",
		Description: "Ping one device by name, or every registered device",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "name"},
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

			if name := cmd.GetStringArg("name"); name != "" {
				status, err := a.devices.Status(ctx, name)
				if err != nil {
					return err
				}
				fmt.Printf("%s: %s\n", name, status)
				return nil
			}

			return printStatuses(a.devices.RefreshAll(ctx))
		},
	}
}

func printStatuses(reports []service.DeviceStatusReport) error {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tIP\tMAC\tSTATUS")
	for _, r := range reports {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Name, r.IPAddress, r.MACAddress, r.Status)
	}
	return tw.Flush()
}
