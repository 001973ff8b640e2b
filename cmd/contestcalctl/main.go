package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli"

	"contestcal/internal/cmd"
)

func main() {
	// optional local overrides, missing file is fine
	godotenv.Load()

	ctl := cli.App{
		Name:    fmt.Sprintf("%sctl", cmd.AppName),
		Usage:   "Aggregates programming contest listings and syncs them to a calendar",
		Version: cmd.AppVersion,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:   "path",
				Usage:  "The path for storage",
				Value:  cmd.DataPath(),
				EnvVar: "CONTESTCAL_PATH",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Output debug messages",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Don't apply any remote or local mutations",
			},
		},
		Commands: []cli.Command{
			cmd.ShowPlatformsCmd,
			cmd.FetchCmd,
			cmd.ListCmd,
			cmd.SyncCmd,
			cmd.CalendarCmd,
			cmd.AuthorizeCmd,
			cmd.ServerCmd,
		},
	}

	if err := ctl.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}
