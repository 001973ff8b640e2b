package atcoder

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"contestcal/contest"
)

const (
	BaseURL = "https://atcoder.jp"

	listPath = "/contests/"
)

// AtCoder publishes no listing API, so the upcoming-contests table gets
// scraped from the public contests page.
type fetcher struct {
	url    string
	client *http.Client
}

type Config struct {
	URL    string
	Client *http.Client
}

func New(conf Config) *fetcher {
	f := fetcher{url: BaseURL + listPath, client: http.DefaultClient}
	if conf.URL != "" {
		f.url = conf.URL
	}
	if conf.Client != nil {
		f.client = conf.Client
	}
	return &f
}

func (f *fetcher) Platform() string {
	return contest.LabelAtCoder
}

// start times on the page carry a +0900 offset
const startLayout = "2006-01-02 15:04:05-0700"

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

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, 0, &contest.FetchError{Platform: f.Platform(), Err: err}
	}

	now := time.Now()
	skipped := 0
	contests := make(contest.Contests, 0)
	doc.Find("div#contest-table-upcoming tbody tr").Each(func(i int, s *goquery.Selection) {
		c, ok := loadContest(now, s)
		if !ok {
			skipped++
			return
		}
		if !contests.Contains(c) {
			contests = append(contests, c)
		}
	})

	return contests, skipped, nil
}

func loadContest(fetchedAt time.Time, s *goquery.Selection) (contest.Contest, bool) {
	cells := s.Find("td")
	if cells.Length() < 3 {
		return contest.Contest{}, false
	}

	start, err := time.Parse(startLayout, strings.TrimSpace(cells.Eq(0).Find("time").Text()))
	if err != nil {
		return contest.Contest{}, false
	}

	link := cells.Eq(1).Find("a").Last()
	href, ok := link.Attr("href")
	if !ok || !strings.HasPrefix(href, listPath) {
		return contest.Contest{}, false
	}
	slug := path.Base(href)

	// durations read like "01:40" meaning hours:minutes
	var hours, minutes int
	if _, err := fmt.Sscanf(strings.TrimSpace(cells.Eq(2).Text()), "%d:%d", &hours, &minutes); err != nil {
		return contest.Contest{}, false
	}

	c := contest.Contest{
		ID:        contest.MakeID(contest.LabelAtCoder, slug),
		Platform:  contest.LabelAtCoder,
		Name:      strings.TrimSpace(link.Text()),
		StartTime: start.In(contest.Location()),
		Duration:  time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute,
		URL:       BaseURL + href,
		FetchedAt: fetchedAt,
	}
	return c, c.IsValid()
}
