package syncer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"git.sr.ht/~mariusor/lw"

	"contestcal/contest"
	"contestcal/storage"
)

// RemoteEvent is the projection of a contest pushed to the remote
// calendar. Marker carries the contest identity and is the only thing
// duplicate prevention relies on; title or time matching is never used
// because two contests can legitimately share a name.
type RemoteEvent struct {
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	Marker      string
	Reminders   []int
}

// RemoteCalendar is the capability the remote side has to expose.
// FindEventByMarker returns the empty string when no event carries the
// marker.
type RemoteCalendar interface {
	FindEventByMarker(ctx context.Context, marker string) (string, error)
	CreateEvent(ctx context.Context, ev RemoteEvent) (string, error)
	UpdateEvent(ctx context.Context, eventID string, ev RemoteEvent) error
}

// Report is what a sync pass always returns, partial failures included.
type Report struct {
	Fetched     []contest.Outcome
	Upserted    int
	StoreFailed int
	Created     int
	Updated     int
	Skipped     int
	Failed      int
}

func (r Report) String() string {
	parts := make([]string, 0, len(r.Fetched))
	for _, o := range r.Fetched {
		if o.OK() {
			parts = append(parts, fmt.Sprintf("%s:%d", o.Platform, o.Fetched))
		} else {
			parts = append(parts, fmt.Sprintf("%s:failed", o.Platform))
		}
	}
	return fmt.Sprintf("fetched[%s] upserted:%d created:%d updated:%d skipped:%d failed:%d",
		strings.Join(parts, " "), r.Upserted, r.Created, r.Updated, r.Skipped, r.Failed)
}

const DefaultHorizon = 30 * 24 * time.Hour

// DefaultReminders are the popup lead times, in minutes, set on created
// events when no preference overrides them.
var DefaultReminders = []int{30, 10}

type Config struct {
	Horizon   time.Duration
	Reminders []int
	DryRun    bool
	Logger    lw.Logger
}

// Syncer drives one full pass: fetch, persist, reconcile. Stages run
// strictly in that order and each converts its own failures into report
// counts instead of aborting the pass.
type Syncer struct {
	registry  *contest.Registry
	store     storage.Store
	remote    RemoteCalendar
	horizon   time.Duration
	reminders []int
	dryRun    bool
	logger    lw.Logger
}

func New(registry *contest.Registry, store storage.Store, remote RemoteCalendar, conf Config) *Syncer {
	s := Syncer{
		registry:  registry,
		store:     store,
		remote:    remote,
		horizon:   conf.Horizon,
		reminders: conf.Reminders,
		dryRun:    conf.DryRun,
		logger:    conf.Logger,
	}
	if s.horizon <= 0 {
		s.horizon = DefaultHorizon
	}
	if len(s.reminders) == 0 {
		s.reminders = DefaultReminders
	}
	if s.logger == nil {
		s.logger = lw.Dev()
	}
	return &s
}

// RunSync executes one sync pass and reports what happened. The only
// aborting condition is every platform failing to fetch; anything else
// degrades into counts inside the report.
func (s *Syncer) RunSync(ctx context.Context) (Report, error) {
	report := Report{}

	contests, outcomes, err := s.registry.FetchAll(ctx)
	report.Fetched = outcomes
	if err != nil {
		if errors.Is(err, contest.ErrAllPlatformsFailed) {
			return report, err
		}
		return report, fmt.Errorf("unable to fetch contest listings: %w", err)
	}

	now := time.Now()
	var upcoming contest.Contests
	if s.dryRun {
		// reconcile against the freshly fetched batch without touching
		// the catalog
		cutoff := now.Add(s.horizon)
		for _, c := range contests {
			if c.Upcoming(now) && !c.StartTime.After(cutoff) {
				upcoming = append(upcoming, c)
			}
		}
	} else {
		saved, err := s.store.UpsertContests(contests...)
		report.Upserted = saved
		report.StoreFailed = len(contests) - saved
		if err != nil {
			s.logger.Errorf("%d contests failed to persist: %s", report.StoreFailed, err)
		}

		upcoming, err = s.store.Upcoming(now, s.horizon)
		if err != nil {
			return report, fmt.Errorf("unable to load upcoming contests: %w", err)
		}
	}

	for _, c := range upcoming {
		s.reconcile(ctx, now, c, &report)
	}

	s.logger.Infof("sync pass done: %s", report)
	return report, nil
}

// reconcile drives the per-contest state machine. The persisted link is
// the source of truth for the Linked state; it only advances after a
// confirmed remote write, so a transient remote failure simply leaves the
// contest to be retried by the next pass.
func (s *Syncer) reconcile(ctx context.Context, now time.Time, c contest.Contest, report *Report) {
	link, linked, err := s.store.LoadLink(c.ID)
	if err != nil {
		s.logger.Errorf("unable to load link for %s: %s", c.ID, err)
		report.Failed++
		return
	}

	if !c.Upcoming(now) {
		// already started or over: existing events stay untouched,
		// missing ones are not worth creating anymore
		report.Skipped++
		return
	}

	if linked && link.UpToDate(c) {
		report.Skipped++
		return
	}

	ev := s.remoteEvent(c)
	if !linked {
		// the mapping may have been lost while the event survived;
		// the marker lookup recovers it instead of duplicating
		eventID, err := s.remote.FindEventByMarker(ctx, c.ID)
		if err != nil {
			s.logger.Errorf("unable to look up remote event for %s: %s", c.ID, err)
			report.Failed++
			return
		}
		if eventID == "" {
			eventID, err = s.remote.CreateEvent(ctx, ev)
			if err != nil {
				s.logger.Errorf("unable to create remote event for %s: %s", c.ID, err)
				report.Failed++
				return
			}
			s.saveLink(c, eventID)
			report.Created++
			return
		}
		link.EventID = eventID
	}

	if err := s.remote.UpdateEvent(ctx, link.EventID, ev); err != nil {
		s.logger.Errorf("unable to update remote event %s for %s: %s", link.EventID, c.ID, err)
		report.Failed++
		return
	}
	s.saveLink(c, link.EventID)
	report.Updated++
}

func (s *Syncer) saveLink(c contest.Contest, eventID string) {
	if s.dryRun {
		return
	}
	l := storage.Link{
		EventID:   eventID,
		Name:      c.Name,
		StartTime: c.StartTime,
		Duration:  c.Duration,
		LinkedAt:  time.Now(),
	}
	if err := s.store.SaveLink(c.ID, l); err != nil {
		// the remote write went through; the marker lookup re-adopts
		// the event on the next pass
		s.logger.Errorf("unable to persist link for %s: %s", c.ID, err)
	}
}

func (s *Syncer) remoteEvent(c contest.Contest) RemoteEvent {
	return RemoteEvent{
		Title:       fmt.Sprintf("%s: %s", contest.Labels[c.Platform], c.Name),
		Description: fmt.Sprintf("Contest URL: %s", c.URL),
		Start:       c.StartTime,
		End:         c.EndTime(),
		Marker:      c.ID,
		Reminders:   s.reminders,
	}
}
