package cmd

import (
	"context"
	"time"

	"github.com/urfave/cli"

	"contestcal/contest"
)

var FetchCmd = cli.Command{
	Name:  "fetch",
	Usage: "Fetches contest listings and persists them to the catalog",
	Flags: []cli.Flag{
		&cli.StringSliceFlag{
			Name:  "platform",
			Usage: "Which platforms to load",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Per platform fetch timeout",
			Value: contest.DefaultFetchTimeout,
		},
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "Don't persist contests",
		},
	},
	Action: fetchContests,
}

func fetchContests(c *cli.Context) error {
	reg, err := buildRegistry(c, c.StringSlice("platform"))
	if err != nil {
		return err
	}

	contests, outcomes, err := reg.FetchAll(context.Background())
	for _, o := range outcomes {
		if o.OK() {
			info("%s: %d contests (%d skipped)", o.Platform, o.Fetched, o.Skipped)
		} else {
			errFn("%s: %s", o.Platform, o.Err)
		}
	}
	if err != nil {
		return err
	}

	if c.Bool("dry-run") {
		for _, cc := range contests {
			info("%s", cc)
		}
		return nil
	}

	st := openStore(c)
	saved, err := st.UpsertContests(contests...)
	info("Persisted %d contests at %s", saved, time.Now().Format("2006-01-02 15:04:05"))
	return err
}
