package syncer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"contestcal/contest"
	"contestcal/storage"
	"contestcal/storage/boltdb"
)

type stubFetcher struct {
	platform string
	contests contest.Contests
	err      error
}

func (s *stubFetcher) Platform() string {
	return s.platform
}

func (s *stubFetcher) Load(ctx context.Context) (contest.Contests, int, error) {
	return s.contests, 0, s.err
}

// fakeRemote is an in-memory stand-in for the remote calendar capability.
type fakeRemote struct {
	events     map[string]RemoteEvent
	markers    map[string]string
	nextID     int
	failWrites bool
	creates    int
	updates    int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		events:  make(map[string]RemoteEvent),
		markers: make(map[string]string),
	}
}

func (f *fakeRemote) FindEventByMarker(_ context.Context, marker string) (string, error) {
	return f.markers[marker], nil
}

func (f *fakeRemote) CreateEvent(_ context.Context, ev RemoteEvent) (string, error) {
	if f.failWrites {
		return "", errors.New("remote write failed")
	}
	f.nextID++
	f.creates++
	id := fmt.Sprintf("evt-%d", f.nextID)
	f.events[id] = ev
	f.markers[ev.Marker] = id
	return id, nil
}

func (f *fakeRemote) UpdateEvent(_ context.Context, eventID string, ev RemoteEvent) error {
	if f.failWrites {
		return errors.New("remote write failed")
	}
	if _, ok := f.events[eventID]; !ok {
		return fmt.Errorf("no such event %s", eventID)
	}
	f.updates++
	f.events[eventID] = ev
	f.markers[ev.Marker] = eventID
	return nil
}

func testStore(t *testing.T) storage.Store {
	t.Helper()
	return boltdb.New(boltdb.Config{Path: filepath.Join(t.TempDir(), boltdb.DefaultFile)})
}

func testContest(start time.Time) contest.Contest {
	return contest.Contest{
		ID:        "codeforces_1900",
		Platform:  contest.LabelCodeforces,
		Name:      "Div2 #1",
		StartTime: start,
		Duration:  2 * time.Hour,
		URL:       "https://codeforces.com/contest/1900",
		FetchedAt: time.Now(),
	}
}

func newTestSyncer(fetcher *stubFetcher, store storage.Store, remote RemoteCalendar) *Syncer {
	reg := contest.NewRegistry(contest.RegistryConfig{}, fetcher)
	return New(reg, store, remote, Config{})
}

func TestRunSyncConverges(t *testing.T) {
	start := time.Now().Add(24 * time.Hour)
	fetcher := &stubFetcher{platform: contest.LabelCodeforces, contests: contest.Contests{testContest(start)}}
	store := testStore(t)
	remote := newFakeRemote()
	s := newTestSyncer(fetcher, store, remote)

	report, err := s.RunSync(context.Background())
	if err != nil {
		t.Fatalf("first pass failed: %s", err)
	}
	if report.Created != 1 || report.Upserted != 1 {
		t.Errorf("first pass should create one event, got %s", report)
	}
	if len(remote.events) != 1 {
		t.Fatalf("expected exactly one remote event, got %d", len(remote.events))
	}
	for _, ev := range remote.events {
		if ev.Marker != "codeforces_1900" {
			t.Errorf("event should carry the contest identity as marker, got %q", ev.Marker)
		}
	}

	// identical upstream data: the pass must converge, not duplicate
	report, err = s.RunSync(context.Background())
	if err != nil {
		t.Fatalf("second pass failed: %s", err)
	}
	if report.Created != 0 || report.Updated != 0 || report.Skipped != 1 {
		t.Errorf("second pass should be a no-op, got %s", report)
	}
	if remote.creates != 1 || len(remote.events) != 1 {
		t.Errorf("duplicate remote event created: %d creates", remote.creates)
	}
}

func TestRunSyncUpdatesInPlace(t *testing.T) {
	start := time.Now().Add(24 * time.Hour)
	fetcher := &stubFetcher{platform: contest.LabelCodeforces, contests: contest.Contests{testContest(start)}}
	store := testStore(t)
	remote := newFakeRemote()
	s := newTestSyncer(fetcher, store, remote)

	if _, err := s.RunSync(context.Background()); err != nil {
		t.Fatal(err)
	}

	// the contest moved upstream
	moved := testContest(start.Add(3 * time.Hour))
	fetcher.contests = contest.Contests{moved}

	report, err := s.RunSync(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.Updated != 1 || report.Created != 0 {
		t.Errorf("moved contest should update the existing event, got %s", report)
	}
	if len(remote.events) != 1 {
		t.Fatalf("update must not create a second event, got %d", len(remote.events))
	}
	for _, ev := range remote.events {
		if !ev.Start.Equal(moved.StartTime) {
			t.Errorf("remote event not moved: %s vs %s", ev.Start, moved.StartTime)
		}
	}
}

func TestRunSyncNeverTouchesPastContests(t *testing.T) {
	fetcher := &stubFetcher{platform: contest.LabelCodeforces, contests: contest.Contests{testContest(time.Now().Add(-48 * time.Hour))}}
	store := testStore(t)
	remote := newFakeRemote()
	s := newTestSyncer(fetcher, store, remote)

	report, err := s.RunSync(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.Created != 0 || report.Updated != 0 {
		t.Errorf("ended contest must not reach the remote calendar, got %s", report)
	}
	if len(remote.events) != 0 {
		t.Errorf("expected no remote events, got %d", len(remote.events))
	}
}

func TestRunSyncRetriesAfterRemoteFailure(t *testing.T) {
	start := time.Now().Add(24 * time.Hour)
	fetcher := &stubFetcher{platform: contest.LabelCodeforces, contests: contest.Contests{testContest(start)}}
	store := testStore(t)
	remote := newFakeRemote()
	remote.failWrites = true
	s := newTestSyncer(fetcher, store, remote)

	report, err := s.RunSync(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.Failed != 1 || report.Created != 0 {
		t.Errorf("remote failure should be reported, not raised: %s", report)
	}
	if _, linked, _ := store.LoadLink("codeforces_1900"); linked {
		t.Error("contest must not be linked without a confirmed remote write")
	}

	// remote recovers, the next pass picks the contest up again
	remote.failWrites = false
	report, err = s.RunSync(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.Created != 1 {
		t.Errorf("recovered remote should get the event created, got %s", report)
	}
}

func TestRunSyncAdoptsExistingRemoteEvent(t *testing.T) {
	start := time.Now().Add(24 * time.Hour)
	c := testContest(start)
	fetcher := &stubFetcher{platform: contest.LabelCodeforces, contests: contest.Contests{c}}
	store := testStore(t)
	remote := newFakeRemote()

	// the event exists remotely but the local mapping was lost
	if _, err := remote.CreateEvent(context.Background(), RemoteEvent{Title: "stale title", Marker: c.ID}); err != nil {
		t.Fatal(err)
	}
	remote.creates = 0

	s := newTestSyncer(fetcher, store, remote)
	report, err := s.RunSync(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.Created != 0 || report.Updated != 1 {
		t.Errorf("marker lookup should recover the mapping instead of duplicating, got %s", report)
	}
	if len(remote.events) != 1 {
		t.Errorf("expected a single remote event, got %d", len(remote.events))
	}
}

func TestRunSyncAllPlatformsFailed(t *testing.T) {
	fetcher := &stubFetcher{platform: contest.LabelCodeforces, err: errors.New("listing down")}
	store := testStore(t)
	remote := newFakeRemote()
	s := newTestSyncer(fetcher, store, remote)

	report, err := s.RunSync(context.Background())
	if !errors.Is(err, contest.ErrAllPlatformsFailed) {
		t.Fatalf("expected ErrAllPlatformsFailed, got %v", err)
	}
	if len(report.Fetched) != 1 || report.Fetched[0].OK() {
		t.Errorf("report should still carry the per-platform outcome: %+v", report.Fetched)
	}
	if len(remote.events) != 0 {
		t.Error("reconciliation must be short-circuited when every fetch failed")
	}
}

func TestRunSyncDryRunAppliesNothing(t *testing.T) {
	start := time.Now().Add(24 * time.Hour)
	fetcher := &stubFetcher{platform: contest.LabelCodeforces, contests: contest.Contests{testContest(start)}}
	store := testStore(t)
	remote := newFakeRemote()

	reg := contest.NewRegistry(contest.RegistryConfig{}, fetcher)
	s := New(reg, store, remote, Config{DryRun: true})

	report, err := s.RunSync(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.Created != 1 {
		t.Errorf("dry run should still report what it would do, got %s", report)
	}
	if upcoming, _ := store.Upcoming(time.Now(), 0); len(upcoming) != 0 {
		t.Error("dry run must not persist contests")
	}
	if _, linked, _ := store.LoadLink("codeforces_1900"); linked {
		t.Error("dry run must not persist links")
	}
}
