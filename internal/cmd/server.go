package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"syscall"
	"time"

	"git.sr.ht/~mariusor/lw"
	w "git.sr.ht/~mariusor/wrapper"
	"github.com/robfig/cron/v3"
	"github.com/urfave/cli"

	"contestcal/ical"
	"contestcal/internal/gcal"
	"contestcal/internal/syncer"
	"contestcal/storage/boltdb"
)

var ServerCmd = cli.Command{
	Name:  "start",
	Usage: "Starts the iCal feed server and the scheduled sync",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "host",
			Usage: "Set hostname on which to listen to",
			Value: "localhost",
		},
		&cli.IntFlag{
			Name:  "port",
			Usage: "Set the port on which to listen to",
			Value: 9999,
		},
		&cli.StringFlag{
			Name:  "schedule",
			Usage: "Cron schedule for the sync pass",
			Value: "@every 1h",
		},
		&cli.StringFlag{
			Name:  "calendar",
			Usage: "The remote calendar id",
			Value: gcal.DefaultCalendarID,
		},
	},
	Action: serverStart,
}

var wait = 100 * time.Millisecond

func serverStart(c *cli.Context) error {
	listen := fmt.Sprintf("%s:%d", c.String("host"), c.Int("port"))
	info("Listening on %s", listen)

	// Create a deadline to wait for.
	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()

	st := boltdb.New(boltdb.Config{
		Path:  filepath.Join(c.GlobalString("path"), boltdb.DefaultFile),
		ErrFn: boltdb.LoggerFn(errFn),
	})

	sched, err := scheduleSync(c)
	if err != nil {
		return err
	}
	defer sched.Stop()

	srvRun, srvStop := w.HttpServer(w.Handler(ical.Routes(st, AppVersion)), w.OnTCP(listen))
	w.RegisterSignalHandlers(w.SignalHandlers{
		syscall.SIGHUP: func(_ chan int) {
			info("SIGHUP received, reloading configuration")
		},
		syscall.SIGINT: func(exit chan int) {
			info("SIGINT received, stopping")
			exit <- 0
		},
		syscall.SIGTERM: func(exit chan int) {
			info("SIGTERM received, force stopping")
			exit <- 0
		},
	}).Exec(func() error {
		if err := srvRun(); err != nil {
			errFn("Error: %s", err)
			return err
		}
		var err error
		// Doesn't block if no connections, but will otherwise wait until the timeout deadline.
		go func(e error) {
			if err = srvStop(ctx); err != nil {
				errFn("Error: %s", err)
			}
		}(err)
		return err
	})

	return nil
}

// scheduleSync registers a recurring full sync pass. Each run builds its
// own syncer so a pass aborted mid-way leaves nothing shared behind; the
// idempotent store and remote writes make the next run converge anyway.
func scheduleSync(c *cli.Context) (*cron.Cron, error) {
	logger := lw.Dev()

	job := func() {
		ctx := context.Background()

		reg, err := buildRegistry(c, nil)
		if err != nil {
			logger.Errorf("unable to build fetchers: %s", err)
			return
		}
		srv, err := gcal.NewService(ctx, c.GlobalString("path"))
		if err != nil {
			logger.Errorf("remote calendar unavailable, skipping sync pass: %s", err)
			return
		}
		st := openStore(c)
		s := syncer.New(reg, st, gcal.New(srv, c.String("calendar")), syncer.Config{
			Reminders: reminders(c, st),
			Logger:    logger,
		})
		report, err := s.RunSync(ctx)
		if err != nil {
			logger.Errorf("sync pass failed: %s", err)
			return
		}
		logger.Infof("scheduled sync: %s", report)
	}

	sched := cron.New()
	if _, err := sched.AddFunc(c.String("schedule"), job); err != nil {
		return nil, fmt.Errorf("invalid sync schedule %q: %w", c.String("schedule"), err)
	}
	sched.Start()
	return sched, nil
}
