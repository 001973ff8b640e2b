package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli"

	"contestcal/contest"
	"contestcal/contest/atcoder"
	"contestcal/contest/codechef"
	"contestcal/contest/codeforces"
	"contestcal/contest/leetcode"
	"contestcal/storage"
	"contestcal/storage/boltdb"
)

const (
	AppName    = "contestcal"
	AppVersion = "(unknown)"
)

type logFn func(string, ...interface{})

var info logFn = func(s string, args ...interface{}) {
	fmt.Printf(s+"\n", args...)
}

var errFn logFn = func(s string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, s+"\n", args...)
}

func MkDirIfNotExists(p string) error {
	fi, err := os.Stat(p)
	if err != nil && os.IsNotExist(err) {
		err = os.MkdirAll(p, os.ModeDir|os.ModePerm|0700)
	}
	if err != nil {
		return err
	}
	fi, err = os.Stat(p)
	if err != nil {
		return err
	} else if !fi.IsDir() {
		return fmt.Errorf("path exists, and is not a folder %s", p)
	}
	return nil
}

func DataPath() string {
	homeDir, _ := os.UserHomeDir()
	xdgDataPath := filepath.Join(homeDir, ".local", "share")
	appPath := filepath.Join(xdgDataPath, AppName)

	if _, err := os.Stat(appPath); err != nil && errors.Is(err, os.ErrNotExist) {
		if err := MkDirIfNotExists(appPath); err != nil {
			log.Fatalf("Error: %s", err.Error())
		}
	}
	return appPath
}

func openStore(c *cli.Context) storage.Store {
	var logFn, errLogFn boltdb.LoggerFn
	if c.GlobalBool("debug") {
		logFn = boltdb.LoggerFn(info)
	}
	errLogFn = boltdb.LoggerFn(errFn)
	return boltdb.New(boltdb.Config{
		Path:  filepath.Join(c.GlobalString("path"), boltdb.DefaultFile),
		LogFn: logFn,
		ErrFn: errLogFn,
	})
}

func buildRegistry(c *cli.Context, platforms []string) (*contest.Registry, error) {
	platforms = contest.GetPlatforms(platforms)
	if len(platforms) == 0 {
		return nil, fmt.Errorf("no valid platforms have been passed")
	}

	conf := contest.RegistryConfig{Timeout: c.Duration("timeout"), ErrFn: contest.LoggerFn(errFn)}
	if c.GlobalBool("debug") {
		conf.InfFn = contest.LoggerFn(info)
	}

	reg := contest.NewRegistry(conf)
	for _, p := range platforms {
		switch p {
		case contest.LabelCodeforces:
			reg.Register(codeforces.New(codeforces.Config{}))
		case contest.LabelLeetCode:
			reg.Register(leetcode.New(leetcode.Config{}))
		case contest.LabelCodeChef:
			reg.Register(codechef.New(codechef.Config{}))
		case contest.LabelAtCoder:
			reg.Register(atcoder.New(atcoder.Config{}))
		}
	}
	return reg, nil
}

const remindersPreference = "reminder_minutes"

// reminders resolves the popup lead times: the --reminders flag wins and
// becomes the new stored preference, then the stored preference, then the
// defaults.
func reminders(c *cli.Context, store storage.Preferences) []int {
	raw := c.String("reminders")
	fromFlag := raw != ""
	if raw == "" {
		if stored, ok, _ := store.LoadPreference(remindersPreference); ok {
			raw = stored
		}
	}
	if raw == "" {
		return nil
	}
	minutes := make([]int, 0)
	for _, part := range strings.Split(raw, ",") {
		if m, err := strconv.Atoi(strings.TrimSpace(part)); err == nil && m > 0 {
			minutes = append(minutes, m)
		}
	}
	if fromFlag && len(minutes) > 0 && !c.Bool("dry-run") && !c.GlobalBool("dry-run") {
		if err := store.SavePreference(remindersPreference, raw); err != nil {
			errFn("unable to store reminder preference: %s", err)
		}
	}
	return minutes
}

func horizon(c *cli.Context) time.Duration {
	days := c.Int("days")
	if days <= 0 {
		days = 30
	}
	return time.Duration(days) * 24 * time.Hour
}
