package codechef

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"contestcal/contest"
)

const ListURL = "https://www.codechef.com/api/list/contests/all?sort_by=START&sorting_order=asc&offset=0&mode=premium"

const contestURLFmt = "https://www.codechef.com/%s"

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
	return contest.LabelCodeChef
}

type listResponse struct {
	Status         string `json:"status"`
	FutureContests []struct {
		Code     string `json:"contest_code"`
		Name     string `json:"contest_name"`
		StartISO string `json:"contest_start_date_iso"`
		// duration comes back as a string holding minutes
		Duration string `json:"contest_duration"`
	} `json:"future_contests"`
}

// Load performs one round trip against the public contest list API. Start
// times arrive as ISO-8601 with an IST offset and durations as minutes; a
// record failing either conversion is skipped, not fatal.
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
	if list.Status != "success" {
		return nil, 0, &contest.FetchError{Platform: f.Platform(), Err: fmt.Errorf("api status %q", list.Status)}
	}

	now := time.Now()
	skipped := 0
	contests := make(contest.Contests, 0)
	for _, raw := range list.FutureContests {
		start, err := contest.ParseTime(raw.StartISO)
		if err != nil {
			skipped++
			continue
		}
		var minutes int64
		if _, err := fmt.Sscanf(raw.Duration, "%d", &minutes); err != nil || minutes <= 0 {
			skipped++
			continue
		}
		c := contest.Contest{
			ID:        contest.MakeID(contest.LabelCodeChef, raw.Code),
			Platform:  contest.LabelCodeChef,
			Name:      raw.Name,
			StartTime: start,
			Duration:  time.Duration(minutes) * time.Minute,
			URL:       fmt.Sprintf(contestURLFmt, raw.Code),
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
