package storage

import (
	"time"

	"contestcal/contest"
)

// Saver persists contests into the catalog. Upserting the same contest
// twice leaves one record carrying the later application's fields.
type Saver interface {
	UpsertContests(...contest.Contest) (int, error)
}

// Loader reads the catalog back. Upcoming returns contests whose end has
// not passed asOf, starting no later than asOf+horizon, ordered by start
// time; an empty result is not an error.
type Loader interface {
	LoadContest(id string) (contest.Contest, error)
	Upcoming(asOf time.Time, horizon time.Duration) (contest.Contests, error)
}

// Link records the remote calendar event a contest identity maps to,
// together with a snapshot of the fields last confirmed remotely. The
// snapshot is what lets a sync pass decide "changed since link" without a
// remote read.
type Link struct {
	EventID   string
	Name      string
	StartTime time.Time
	Duration  time.Duration
	LinkedAt  time.Time
}

// UpToDate reports whether the linked snapshot still matches the contest.
func (l Link) UpToDate(c contest.Contest) bool {
	return l.Name == c.Name && l.StartTime.Equal(c.StartTime) && l.Duration == c.Duration
}

// Linker persists the identity to remote-event mapping alongside the
// catalog so reconciliation survives process restarts.
type Linker interface {
	LoadLink(id string) (Link, bool, error)
	SaveLink(id string, l Link) error
	DeleteLink(id string) error
}

// Preferences holds small user settings, the reminder lead times mostly.
type Preferences interface {
	LoadPreference(key string) (string, bool, error)
	SavePreference(key, value string) error
}

type Store interface {
	Saver
	Loader
	Linker
	Preferences
}
