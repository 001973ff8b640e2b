package cmd

import (
	"context"

	"github.com/urfave/cli"

	"contestcal/internal/gcal"
)

var AuthorizeCmd = cli.Command{
	Name:  "authorize",
	Usage: "Authorizes the application against the remote calendar account",
	Description: `Walks through the OAuth authorization flow and saves the
resulting token next to the catalog. Expects a credentials.json client
configuration in the data path.`,
	Action: authorize,
}

func authorize(c *cli.Context) error {
	if err := gcal.Authorize(context.Background(), c.GlobalString("path")); err != nil {
		return err
	}
	info("Authorization complete, token saved to %s", c.GlobalString("path"))
	return nil
}
