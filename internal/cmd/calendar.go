package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli"

	"contestcal/contest"
	"contestcal/internal/gcal"
	"contestcal/storage"
)

var CalendarCmd = cli.Command{
	Name:  "calendar",
	Usage: "Inspects and edits the contest events on the remote calendar",
	Subcommands: []cli.Command{
		{
			Name:  "list",
			Usage: "Lists the upcoming contest events present on the remote calendar",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "calendar",
					Usage: "The remote calendar id",
					Value: gcal.DefaultCalendarID,
				},
			},
			Action: listCalendarEvents,
		},
		{
			Name:      "delete",
			Usage:     "Deletes a contest's event from the remote calendar",
			ArgsUsage: "contest-id",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "calendar",
					Usage: "The remote calendar id",
					Value: gcal.DefaultCalendarID,
				},
			},
			Action: deleteCalendarEvent,
		},
	},
}

func listCalendarEvents(c *cli.Context) error {
	ctx := context.Background()
	srv, err := gcal.NewService(ctx, c.GlobalString("path"))
	if err != nil {
		return err
	}
	entries, err := gcal.New(srv, c.String("calendar")).ListUpcomingEvents(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		info("No contest events on the remote calendar")
		return nil
	}
	for _, e := range entries {
		info("%s  %s [%s]", contest.FormatTime(e.Start), e.Title, e.Marker)
	}
	return nil
}

func deleteCalendarEvent(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return fmt.Errorf("a contest id is required")
	}

	if c.GlobalBool("dry-run") {
		info("would delete the remote event for %s", id)
		return nil
	}

	ctx := context.Background()
	srv, err := gcal.NewService(ctx, c.GlobalString("path"))
	if err != nil {
		return err
	}
	return removeContestEvent(ctx, openStore(c), gcal.New(srv, c.String("calendar")), id)
}

// remoteRemover is the slice of the calendar client the delete command
// needs.
type remoteRemover interface {
	FindEventByMarker(ctx context.Context, marker string) (string, error)
	DeleteEvent(ctx context.Context, eventID string) error
}

// removeContestEvent deletes the remote event belonging to a contest
// identity and drops the local link. The event is resolved through the
// link first, through the marker when the mapping is gone. The contest
// stays in the catalog, so a later sync pass recreates the event while it
// is still upcoming.
func removeContestEvent(ctx context.Context, st storage.Store, remote remoteRemover, id string) error {
	eventID := ""
	link, linked, err := st.LoadLink(id)
	if err != nil {
		return err
	}
	if linked {
		eventID = link.EventID
	} else if eventID, err = remote.FindEventByMarker(ctx, id); err != nil {
		return err
	}
	if eventID == "" {
		return fmt.Errorf("no remote event for contest %s", id)
	}

	if err := remote.DeleteEvent(ctx, eventID); err != nil {
		return err
	}
	if linked {
		if err := st.DeleteLink(id); err != nil {
			return err
		}
	}
	info("Deleted remote event %s for %s", eventID, id)
	return nil
}
