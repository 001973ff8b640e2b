package cmd

import (
	"context"
	"fmt"

	"git.sr.ht/~mariusor/lw"
	"github.com/urfave/cli"

	"contestcal/contest"
	"contestcal/internal/gcal"
	"contestcal/internal/syncer"
)

var SyncCmd = cli.Command{
	Name:  "sync",
	Usage: "Runs one full sync pass: fetch, persist, reconcile with the remote calendar",
	Flags: []cli.Flag{
		&cli.StringSliceFlag{
			Name:  "platform",
			Usage: "Which platforms to sync",
		},
		&cli.IntFlag{
			Name:  "days",
			Usage: "Horizon in days for upcoming contests",
			Value: 30,
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Per platform fetch timeout",
			Value: contest.DefaultFetchTimeout,
		},
		&cli.StringFlag{
			Name:  "calendar",
			Usage: "The remote calendar id",
			Value: gcal.DefaultCalendarID,
		},
		&cli.StringFlag{
			Name:  "reminders",
			Usage: "Comma separated reminder lead times in minutes",
		},
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "Print remote mutations instead of applying them",
		},
	},
	Action: runSync,
}

func runSync(c *cli.Context) error {
	ctx := context.Background()

	reg, err := buildRegistry(c, c.StringSlice("platform"))
	if err != nil {
		return err
	}
	st := openStore(c)

	var remote syncer.RemoteCalendar
	if c.Bool("dry-run") || c.GlobalBool("dry-run") {
		remote = printCalendar{}
	} else {
		srv, err := gcal.NewService(ctx, c.GlobalString("path"))
		if err != nil {
			return err
		}
		remote = gcal.New(srv, c.String("calendar"))
	}

	s := syncer.New(reg, st, remote, syncer.Config{
		Horizon:   horizon(c),
		Reminders: reminders(c, st),
		DryRun:    c.Bool("dry-run") || c.GlobalBool("dry-run"),
		Logger:    lw.Dev(),
	})

	report, err := s.RunSync(ctx)
	info("%s", report)
	return err
}

// printCalendar stands in for the remote calendar on dry runs: every
// mutation gets printed, nothing is applied, nothing gets linked.
type printCalendar struct{}

func (printCalendar) FindEventByMarker(_ context.Context, marker string) (string, error) {
	return "", nil
}

func (printCalendar) CreateEvent(_ context.Context, ev syncer.RemoteEvent) (string, error) {
	info("would create: %s @ %s", ev.Title, contest.FormatTime(ev.Start))
	return fmt.Sprintf("dry-run-%s", ev.Marker), nil
}

func (printCalendar) UpdateEvent(_ context.Context, eventID string, ev syncer.RemoteEvent) error {
	info("would update %s: %s @ %s", eventID, ev.Title, contest.FormatTime(ev.Start))
	return nil
}
