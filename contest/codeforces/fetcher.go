package codeforces

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"contestcal/contest"
)

const (
	ListURL = "https://codeforces.com/api/contest.list"

	// only contests in this phase are still schedulable
	phaseBefore = "BEFORE"
)

const contestURLFmt = "https://codeforces.com/contest/%d"

type fetcher struct {
	url    string
	client *http.Client
}

type Config struct {
	URL    string
	Client *http.Client
}

func New(conf Config) *fetcher {
	f := fetcher{url: ListURL, client: http.DefaultClient}
	if conf.URL != "" {
		f.url = conf.URL
	}
	if conf.Client != nil {
		f.client = conf.Client
	}
	return &f
}

func (f *fetcher) Platform() string {
	return contest.LabelCodeforces
}

type listResponse struct {
	Status string `json:"status"`
	Result []struct {
		ID               int64  `json:"id"`
		Name             string `json:"name"`
		Phase            string `json:"phase"`
		StartTimeSeconds int64  `json:"startTimeSeconds"`
		DurationSeconds  int64  `json:"durationSeconds"`
	} `json:"result"`
}

// Load performs one round trip against the contest.list API and keeps the
// contests that have not started yet.
func (f *fetcher) Load(ctx context.Context) (contest.Contests, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, 0, &contest.FetchError{Platform: f.Platform(), Err: err}
	}
	res, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return nil, 0, &contest.FetchError{Platform: f.Platform(), Err: err}
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, 0, &contest.FetchError{Platform: f.Platform(), Err: fmt.Errorf("status code error: %d %s", res.StatusCode, res.Status)}
	}

	list := listResponse{}
	if err := json.NewDecoder(res.Body).Decode(&list); err != nil {
		return nil, 0, &contest.FetchError{Platform: f.Platform(), Err: err}
	}
	if list.Status != "OK" {
		return nil, 0, &contest.FetchError{Platform: f.Platform(), Err: fmt.Errorf("api status %q", list.Status)}
	}

	now := time.Now()
	skipped := 0
	contests := make(contest.Contests, 0)
	for _, raw := range list.Result {
		if raw.Phase != phaseBefore {
			continue
		}
		if raw.StartTimeSeconds <= 0 || raw.DurationSeconds <= 0 {
			skipped++
			continue
		}
		c := contest.Contest{
			ID:        contest.MakeID(contest.LabelCodeforces, fmt.Sprintf("%d", raw.ID)),
			Platform:  contest.LabelCodeforces,
			Name:      raw.Name,
			StartTime: contest.FromUnix(raw.StartTimeSeconds),
			Duration:  time.Duration(raw.DurationSeconds) * time.Second,
			URL:       fmt.Sprintf(contestURLFmt, raw.ID),
			FetchedAt: now,
		}
		if !c.IsValid() {
			skipped++
			continue
		}
		contests = append(contests, c)
	}
	return contests, skipped, nil
}
