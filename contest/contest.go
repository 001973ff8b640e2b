package contest

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"time"
)

const (
	LabelCodeforces = "codeforces"
	LabelLeetCode   = "leetcode"
	LabelCodeChef   = "codechef"
	LabelAtCoder    = "atcoder"
)

var DefaultPlatforms = []string{LabelCodeforces, LabelLeetCode, LabelCodeChef, LabelAtCoder}

var Labels = map[string]string{
	LabelCodeforces: "Codeforces",
	LabelLeetCode:   "LeetCode",
	LabelCodeChef:   "CodeChef",
	LabelAtCoder:    "AtCoder",
}

func ValidPlatform(p string) bool {
	_, ok := Labels[strings.ToLower(p)]
	return ok
}

// GetPlatforms filters the passed labels down to the supported ones,
// dropping duplicates. An empty list means all platforms.
func GetPlatforms(strs []string) []string {
	if len(strs) == 0 {
		return DefaultPlatforms[:]
	}
	platforms := make([]string, 0, len(strs))
	for _, p := range strs {
		p = strings.ToLower(p)
		if !ValidPlatform(p) || inStringList(p, platforms) {
			continue
		}
		platforms = append(platforms, p)
	}
	return platforms
}

func inStringList(s string, list []string) bool {
	for _, ls := range list {
		if ls == s {
			return true
		}
	}
	return false
}

// Contest is the canonical shape every platform listing gets mapped into.
type Contest struct {
	ID        string
	Platform  string
	Name      string
	StartTime time.Time
	Duration  time.Duration
	URL       string
	FetchedAt time.Time
}

type Contests []Contest

// MakeID builds the stable identity for a contest from its platform label
// and the platform-native id. The same upstream contest always yields the
// same identity.
func MakeID(platform, nativeID string) string {
	return fmt.Sprintf("%s_%s", strings.ToLower(platform), nativeID)
}

// DeriveID is the fallback for platforms that expose no native id: a hash
// over platform, name and start time, stable across fetches as long as the
// contest itself does not move.
func DeriveID(platform, name string, start time.Time) string {
	h := fnv.New32a()
	fmt.Fprintf(h, "%s|%s|%d", strings.ToLower(platform), name, start.Unix())
	return fmt.Sprintf("%s_%08x", strings.ToLower(platform), h.Sum32())
}

func (c Contest) IsValid() bool {
	return c.ID != "" && c.Name != "" && !c.StartTime.IsZero() && c.Duration > 0
}

func (c Contest) EndTime() time.Time {
	return c.StartTime.Add(c.Duration)
}

// Upcoming reports whether the contest still warrants a calendar entry:
// either it has not started, or it is still running.
func (c Contest) Upcoming(asOf time.Time) bool {
	return c.EndTime().After(asOf)
}

// Equals compares the fields a fetch can legitimately change, ignoring
// FetchedAt which moves on every retrieval.
func (c Contest) Equals(other Contest) bool {
	return c.ID == other.ID &&
		c.Platform == other.Platform &&
		c.Name == other.Name &&
		c.StartTime.Equal(other.StartTime) &&
		c.Duration == other.Duration &&
		c.URL == other.URL
}

func (c Contest) String() string {
	return fmt.Sprintf("<[%s] %s: %s @ %s//%s>", c.ID, Labels[c.Platform], c.Name,
		c.StartTime.In(Location()).Format("2006-01-02 15:04 MST"), c.Duration)
}

func (c Contests) Contains(inc Contest) bool {
	for _, cc := range c {
		if cc.Equals(inc) {
			return true
		}
	}
	return false
}

func (c Contests) SortByStart() {
	sort.SliceStable(c, func(i, j int) bool {
		return c[i].StartTime.Before(c[j].StartTime)
	})
}

func (c Contests) String() string {
	ss := make([]string, len(c))
	for i, cc := range c {
		ss[i] = cc.String()
	}
	return fmt.Sprintf("Contests[%d]:\n\t%s\n", len(c), strings.Join(ss, "\n\t"))
}
