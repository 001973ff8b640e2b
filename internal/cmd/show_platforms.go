package cmd

import (
	"fmt"
	"strings"

	"github.com/urfave/cli"

	"contestcal/contest"
)

var ShowPlatformsCmd = cli.Command{
	Name:               "platforms",
	Usage:              "Lists the supported contest platforms",
	Action:             showPlatforms,
	CustomHelpTemplate: showHelp(),
}

func showHelp() string {
	h := strings.Builder{}
	h.WriteString("Valid platforms:\n")
	for _, p := range contest.DefaultPlatforms {
		h.WriteString("\t\t")
		h.WriteString(p)
		h.WriteString(": ")
		h.WriteString(contest.Labels[p])
		h.WriteString("\n")
	}
	return h.String()
}

func showPlatforms(c *cli.Context) error {
	fmt.Printf("%s\n", strings.Join(contest.GetPlatforms(nil), ", "))
	return nil
}
