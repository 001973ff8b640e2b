package ical

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/soh335/ical"

	"contestcal/contest"
	"contestcal/storage"
)

type handler struct {
	loader  storage.Loader
	version string
}

func NewHandler(loader storage.Loader, version string) http.Handler {
	return handler{loader: loader, version: version}
}

// one year of catalog per feed
const feedHorizon = 365 * 24 * time.Hour

// ServeHTTP renders the upcoming contests as an iCal feed, optionally
// restricted to one platform through the URL.
func (h handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	platform := strings.ToLower(chi.URLParam(r, "platform"))
	if platform != "" && !contest.ValidPlatform(platform) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintf(w, "Invalid platform %s", platform)
		return
	}

	contests, err := h.loader.Upcoming(time.Now(), feedHorizon)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, "%s", err)
		return
	}

	cal := ical.NewBasicVCalendar()
	cal.PRODID = fmt.Sprintf("-//CONTESTCAL//EN/%s", h.version)
	cal.VERSION = "2.0"

	name := "ContestCalendar"
	description := name
	if label, ok := contest.Labels[platform]; ok {
		description = fmt.Sprintf("ContestCalendar, upcoming %s contests", label)
	}
	cal.NAME = name
	cal.X_WR_CALNAME = name
	cal.DESCRIPTION = description
	cal.X_WR_CALDESC = description

	tz := contest.Location().String()
	cal.TIMEZONE_ID = tz
	cal.X_WR_TIMEZONE = tz

	cal.REFRESH_INTERVAL = "PT1H"
	cal.X_PUBLISHED_TTL = "PT1H"
	cal.CALSCALE = "GREGORIAN"
	cal.METHOD = "PUBLISH"

	for _, c := range contests {
		if platform != "" && c.Platform != platform {
			continue
		}
		e := &ical.VEvent{
			UID:         c.ID,
			DTSTAMP:     c.FetchedAt,
			DTSTART:     c.StartTime,
			DTEND:       c.EndTime(),
			SUMMARY:     fmt.Sprintf("%s: %s", contest.Labels[c.Platform], c.Name),
			DESCRIPTION: c.URL,
			TZID:        tz,
			AllDay:      c.Duration > 24*time.Hour,
		}
		cal.VComponent = append(cal.VComponent, e)
	}

	b := &bytes.Buffer{}
	if err := cal.Encode(b); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, "%s", err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Write(b.Bytes())
}
