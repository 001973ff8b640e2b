package cmd

import (
	"time"

	"github.com/urfave/cli"

	"contestcal/contest"
)

var ListCmd = cli.Command{
	Name:  "list",
	Usage: "Lists upcoming contests from the catalog",
	Flags: []cli.Flag{
		&cli.StringSliceFlag{
			Name:  "platform",
			Usage: "Restrict the listing to these platforms",
		},
		&cli.IntFlag{
			Name:  "days",
			Usage: "How many days ahead to look",
			Value: 30,
		},
	},
	Action: listContests,
}

func listContests(c *cli.Context) error {
	st := openStore(c)
	contests, err := st.Upcoming(time.Now(), horizon(c))
	if err != nil {
		return err
	}

	platforms := contest.GetPlatforms(c.StringSlice("platform"))
	shown := 0
	for _, cc := range contests {
		if !inList(cc.Platform, platforms) {
			continue
		}
		info("%s  %s: %s", contest.FormatTime(cc.StartTime), contest.Labels[cc.Platform], cc.Name)
		if cc.URL != "" {
			info("\t%s", cc.URL)
		}
		shown++
	}
	if shown == 0 {
		info("No upcoming contests in the next %d days", c.Int("days"))
	}
	return nil
}

func inList(s string, list []string) bool {
	for _, ls := range list {
		if ls == s {
			return true
		}
	}
	return false
}
