package leetcode

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"contestcal/contest"
)

const GraphURL = "https://leetcode.com/graphql"

const contestURLFmt = "https://leetcode.com/contest/%s"

const contestsQuery = `query { allContests { title titleSlug startTime duration } }`

type fetcher struct {
	url    string
	client *http.Client
}

type Config struct {
	URL    string
	Client *http.Client
}

func New(conf Config) *fetcher {
	f := fetcher{url: GraphURL, client: http.DefaultClient}
	if conf.URL != "" {
		f.url = conf.URL
	}
	if conf.Client != nil {
		f.client = conf.Client
	}
	return &f
}

func (f *fetcher) Platform() string {
	return contest.LabelLeetCode
}

type graphResponse struct {
	Data struct {
		AllContests []struct {
			Title     string `json:"title"`
			TitleSlug string `json:"titleSlug"`
			StartTime int64  `json:"startTime"`
			Duration  int64  `json:"duration"`
		} `json:"allContests"`
	} `json:"data"`
}

// Load posts the allContests GraphQL query once. The listing contains the
// full contest history, so everything already started gets filtered here.
func (f *fetcher) Load(ctx context.Context) (contest.Contests, int, error) {
	body, err := json.Marshal(map[string]string{"query": contestsQuery})
	if err != nil {
		return nil, 0, &contest.FetchError{Platform: f.Platform(), Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(body))
	if err != nil {
		return nil, 0, &contest.FetchError{Platform: f.Platform(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

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

	graph := graphResponse{}
	if err := json.NewDecoder(res.Body).Decode(&graph); err != nil {
		return nil, 0, &contest.FetchError{Platform: f.Platform(), Err: err}
	}

	now := time.Now()
	skipped := 0
	contests := make(contest.Contests, 0)
	for _, raw := range graph.Data.AllContests {
		if raw.StartTime <= 0 || raw.Duration <= 0 {
			skipped++
			continue
		}
		start := contest.FromUnix(raw.StartTime)
		if !start.After(now) {
			continue
		}
		id := contest.MakeID(contest.LabelLeetCode, raw.TitleSlug)
		if raw.TitleSlug == "" {
			id = contest.DeriveID(contest.LabelLeetCode, raw.Title, start)
		}
		c := contest.Contest{
			ID:        id,
			Platform:  contest.LabelLeetCode,
			Name:      raw.Title,
			StartTime: start,
			Duration:  time.Duration(raw.Duration) * time.Second,
			URL:       fmt.Sprintf(contestURLFmt, raw.TitleSlug),
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
