package contest

import (
	"testing"
	"time"
)

var t0 = time.Date(2024, 6, 1, 17, 35, 0, 0, time.UTC)

func TestMakeIDIsStable(t *testing.T) {
	first := MakeID("Codeforces", "1900")
	second := MakeID("codeforces", "1900")
	if first != second {
		t.Errorf("identity differs across fetches: %q vs %q", first, second)
	}
	if first != "codeforces_1900" {
		t.Errorf("unexpected identity %q", first)
	}
}

func TestDeriveIDIsStable(t *testing.T) {
	first := DeriveID("leetcode", "Weekly Contest 400", t0)
	second := DeriveID("leetcode", "Weekly Contest 400", t0)
	if first != second {
		t.Errorf("derived identity differs across runs: %q vs %q", first, second)
	}
	other := DeriveID("leetcode", "Weekly Contest 401", t0)
	if first == other {
		t.Errorf("different contests derived the same identity %q", first)
	}
}

func TestContestUpcoming(t *testing.T) {
	c := Contest{ID: "cf_1", Name: "x", StartTime: t0, Duration: 2 * time.Hour}

	if !c.Upcoming(t0.Add(-time.Hour)) {
		t.Error("contest before start should be upcoming")
	}
	if !c.Upcoming(t0.Add(time.Hour)) {
		t.Error("running contest should still be upcoming")
	}
	if c.Upcoming(t0.Add(3 * time.Hour)) {
		t.Error("ended contest should not be upcoming")
	}
}

func TestContestEquals(t *testing.T) {
	a := Contest{ID: "cf_1", Platform: LabelCodeforces, Name: "Div2 #1", StartTime: t0, Duration: 2 * time.Hour, FetchedAt: t0}
	b := a
	b.FetchedAt = t0.Add(time.Hour)
	if !a.Equals(b) {
		t.Error("FetchedAt alone should not make contests differ")
	}
	b.StartTime = t0.Add(time.Minute)
	if a.Equals(b) {
		t.Error("moved contest should differ")
	}
}

func TestGetPlatforms(t *testing.T) {
	if got := GetPlatforms(nil); len(got) != len(DefaultPlatforms) {
		t.Errorf("empty filter should return all platforms, got %v", got)
	}
	got := GetPlatforms([]string{"Codeforces", "codeforces", "bogus"})
	if len(got) != 1 || got[0] != LabelCodeforces {
		t.Errorf("unexpected platforms %v", got)
	}
}
