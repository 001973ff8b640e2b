package gcal

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/calendar/v3"

	"contestcal/internal/syncer"
)

// markerProperty is the private extended property carrying the contest
// identity on every event this tool owns.
const markerProperty = "contest_id"

const DefaultCalendarID = "primary"

// Client wraps the Google Calendar service into the RemoteCalendar
// capability the syncer consumes.
type Client struct {
	srv        *calendar.Service
	calendarID string
}

func New(srv *calendar.Service, calendarID string) *Client {
	if calendarID == "" {
		calendarID = DefaultCalendarID
	}
	return &Client{srv: srv, calendarID: calendarID}
}

// FindEventByMarker searches the calendar for the event carrying the
// marker in its private extended properties. Returns the empty string
// when none exists.
func (c *Client) FindEventByMarker(ctx context.Context, marker string) (string, error) {
	events, err := c.srv.Events.List(c.calendarID).
		PrivateExtendedProperty(fmt.Sprintf("%s=%s", markerProperty, marker)).
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to search calendar for marker %s: %w", marker, err)
	}
	if len(events.Items) == 0 {
		return "", nil
	}
	return events.Items[0].Id, nil
}

// CreateEvent inserts a new event and returns its id.
func (c *Client) CreateEvent(ctx context.Context, ev syncer.RemoteEvent) (string, error) {
	created, err := c.srv.Events.Insert(c.calendarID, toGoogleEvent(ev)).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to insert calendar event: %w", err)
	}
	return created.Id, nil
}

// UpdateEvent overwrites the mutable fields of an existing event.
func (c *Client) UpdateEvent(ctx context.Context, eventID string, ev syncer.RemoteEvent) error {
	if _, err := c.srv.Events.Patch(c.calendarID, eventID, toGoogleEvent(ev)).Context(ctx).Do(); err != nil {
		return fmt.Errorf("unable to patch calendar event %s: %w", eventID, err)
	}
	return nil
}

// DeleteEvent removes an event from the calendar.
func (c *Client) DeleteEvent(ctx context.Context, eventID string) error {
	if err := c.srv.Events.Delete(c.calendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("unable to delete calendar event %s: %w", eventID, err)
	}
	return nil
}

// Entry is one contest event present on the remote calendar.
type Entry struct {
	EventID string
	Title   string
	Start   time.Time
	Marker  string
}

// ListUpcomingEvents returns the upcoming events this tool owns, the ones
// carrying a contest identity marker.
func (c *Client) ListUpcomingEvents(ctx context.Context) ([]Entry, error) {
	events, err := c.srv.Events.List(c.calendarID).
		TimeMin(time.Now().Format(time.RFC3339)).
		SingleEvents(true).OrderBy("startTime").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to list calendar events: %w", err)
	}

	entries := make([]Entry, 0, len(events.Items))
	for _, it := range events.Items {
		if it.ExtendedProperties == nil {
			continue
		}
		marker, ok := it.ExtendedProperties.Private[markerProperty]
		if !ok {
			continue
		}
		e := Entry{EventID: it.Id, Title: it.Summary, Marker: marker}
		if it.Start != nil {
			e.Start, _ = time.Parse(time.RFC3339, it.Start.DateTime)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func toGoogleEvent(ev syncer.RemoteEvent) *calendar.Event {
	overrides := make([]*calendar.EventReminder, 0, len(ev.Reminders))
	for _, minutes := range ev.Reminders {
		overrides = append(overrides, &calendar.EventReminder{Method: "popup", Minutes: int64(minutes)})
	}
	return &calendar.Event{
		Summary:     ev.Title,
		Description: ev.Description,
		Start: &calendar.EventDateTime{
			DateTime: ev.Start.Format(time.RFC3339),
			TimeZone: ev.Start.Location().String(),
		},
		End: &calendar.EventDateTime{
			DateTime: ev.End.Format(time.RFC3339),
			TimeZone: ev.End.Location().String(),
		},
		Reminders: &calendar.EventReminders{
			UseDefault:      false,
			Overrides:       overrides,
			ForceSendFields: []string{"UseDefault"},
		},
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{markerProperty: ev.Marker},
		},
	}
}
