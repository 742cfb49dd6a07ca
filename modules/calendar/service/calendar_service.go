package service

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"schedule-agent/core/errors"
	"schedule-agent/core/logger"
	"schedule-agent/modules/calendar/dto"
	"schedule-agent/modules/calendar/entity"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/time/rate"
)

const (
	googleCalendarAPIBase = "https://www.googleapis.com/calendar/v3"
	googleCalendarScope   = "https://www.googleapis.com/auth/calendar.events"
)

// CalendarService is the read/write mirror of the external calendar.
type CalendarService interface {
	ListEvents(ctx context.Context, date string) ([]entity.Event, error)
	CreateEvent(ctx context.Context, in entity.EventInput) (*entity.Event, error)
	DeleteEvent(ctx context.Context, eventID string) error
}

type GoogleCalendarConfig struct {
	ClientID          string
	ClientSecret      string
	RefreshToken      string
	CalendarID        string
	Timeout           time.Duration
	RequestsPerSecond float64
	Location          *time.Location

	// BaseURL and HTTPClient override the Google endpoint and the OAuth
	// client, mainly for tests.
	BaseURL    string
	HTTPClient *http.Client
}

type googleCalendarService struct {
	client     *http.Client
	baseURL    string
	calendarID string
	timeout    time.Duration
	limiter    *rate.Limiter
	loc        *time.Location
}

func NewGoogleCalendarService(ctx context.Context, cfg GoogleCalendarConfig) CalendarService {
	client := cfg.HTTPClient
	if client == nil {
		oauthCfg := &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{googleCalendarScope},
		}
		client = oauth2.NewClient(ctx, oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken}))
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = googleCalendarAPIBase
	}
	calendarID := cfg.CalendarID
	if calendarID == "" {
		calendarID = "primary"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}

	return &googleCalendarService{
		client:     client,
		baseURL:    baseURL,
		calendarID: calendarID,
		timeout:    timeout,
		limiter:    rate.NewLimiter(limit, 1),
		loc:        loc,
	}
}

func (s *googleCalendarService) eventsURL() string {
	return fmt.Sprintf("%s/calendars/%s/events", s.baseURL, url.PathEscape(s.calendarID))
}

// ListEvents returns the timed, non-cancelled events that start on date.
func (s *googleCalendarService) ListEvents(ctx context.Context, date string) ([]entity.Event, error) {
	day, err := time.ParseInLocation("2006-01-02", date, s.loc)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "date must be YYYY-MM-DD", err)
	}

	params := url.Values{}
	params.Set("timeMin", day.Format(time.RFC3339))
	params.Set("timeMax", day.AddDate(0, 0, 1).Format(time.RFC3339))
	params.Set("singleEvents", "true")
	params.Set("orderBy", "startTime")
	params.Set("maxResults", "250")
	params.Set("timeZone", s.loc.String())

	events := make([]entity.Event, 0)
	for {
		var page dto.GoogleEventList
		if err := s.do(ctx, http.MethodGet, s.eventsURL()+"?"+params.Encode(), nil, &page); err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			if item.Status == "cancelled" {
				continue
			}
			ev, err := s.toEvent(item)
			if err != nil {
				logger.Warn("CalendarService:ListEvents:SkipEvent", "event_id", item.ID, "error", err)
				continue
			}
			events = append(events, *ev)
		}
		if page.NextPageToken == "" {
			break
		}
		params.Set("pageToken", page.NextPageToken)
	}

	logger.Debug("CalendarService:ListEvents", "date", date, "count", len(events))
	return events, nil
}

func (s *googleCalendarService) CreateEvent(ctx context.Context, in entity.EventInput) (*entity.Event, error) {
	body := dto.GoogleEvent{
		Summary:     in.Summary,
		Description: in.Description,
		Start:       dto.GoogleDateTime{DateTime: in.Start.In(s.loc).Format(time.RFC3339), TimeZone: s.loc.String()},
		End:         dto.GoogleDateTime{DateTime: in.End.In(s.loc).Format(time.RFC3339), TimeZone: s.loc.String()},
	}
	for _, a := range in.Attendees {
		body.Attendees = append(body.Attendees, dto.GoogleAttendee{Email: a.Email, DisplayName: a.DisplayName})
	}

	var created dto.GoogleEvent
	if err := s.do(ctx, http.MethodPost, s.eventsURL()+"?sendUpdates=all", body, &created); err != nil {
		return nil, err
	}
	if created.ID == "" {
		return nil, errors.NewAppError(errors.ErrExternalSync, "google calendar returned an event without id", nil)
	}

	logger.Info("CalendarService:CreateEvent:Success", "event_id", created.ID, "start", body.Start.DateTime)
	return s.toEvent(created)
}

// DeleteEvent treats an already deleted event as success.
func (s *googleCalendarService) DeleteEvent(ctx context.Context, eventID string) error {
	if eventID == "" {
		return errors.NewAppError(errors.ErrInvalidInput, "event id is required", nil)
	}
	endpoint := s.eventsURL() + "/" + url.PathEscape(eventID) + "?sendUpdates=all"
	err := s.do(ctx, http.MethodDelete, endpoint, nil, nil)
	if err != nil {
		var statusErr *googleStatusError
		if stderrors.As(err, &statusErr) && (statusErr.StatusCode == http.StatusNotFound || statusErr.StatusCode == http.StatusGone) {
			logger.Info("CalendarService:DeleteEvent:AlreadyGone", "event_id", eventID)
			return nil
		}
		return err
	}
	logger.Info("CalendarService:DeleteEvent:Success", "event_id", eventID)
	return nil
}

type googleStatusError struct {
	StatusCode int
	Message    string
}

func (e *googleStatusError) Error() string {
	return fmt.Sprintf("google calendar status %d: %s", e.StatusCode, e.Message)
}

// do performs one rate-limited, time-bounded API call. Any failure is
// reported as an EXTERNAL_SYNC AppError.
func (s *googleCalendarService) do(ctx context.Context, method, endpoint string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.limiter.Wait(ctx); err != nil {
		return errors.NewAppError(errors.ErrExternalSync, "google calendar rate limit wait", err)
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return errors.NewAppError(errors.ErrExternalSync, "encode google calendar request", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return errors.NewAppError(errors.ErrExternalSync, "build google calendar request", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return errors.NewAppError(errors.ErrExternalSync, "google calendar request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg := strings.TrimSpace(string(raw))
		var gErr dto.GoogleErrorResponse
		if json.Unmarshal(raw, &gErr) == nil && gErr.Error.Message != "" {
			msg = gErr.Error.Message
		}
		return errors.NewAppError(errors.ErrExternalSync, "google calendar API error", &googleStatusError{StatusCode: resp.StatusCode, Message: msg})
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.NewAppError(errors.ErrExternalSync, "decode google calendar response", err)
	}
	return nil
}

func (s *googleCalendarService) toEvent(item dto.GoogleEvent) (*entity.Event, error) {
	ev := &entity.Event{
		ID:          item.ID,
		Summary:     item.Summary,
		Description: item.Description,
	}
	for _, a := range item.Attendees {
		ev.Attendees = append(ev.Attendees, entity.Attendee{Email: a.Email, DisplayName: a.DisplayName, ResponseStatus: a.ResponseStatus})
	}

	if item.Start.DateTime == "" {
		start, err := time.ParseInLocation("2006-01-02", item.Start.Date, s.loc)
		if err != nil {
			return nil, fmt.Errorf("parse all-day start %q: %w", item.Start.Date, err)
		}
		ev.AllDay = true
		ev.Start = start
		ev.End = start.AddDate(0, 0, 1)
		return ev, nil
	}

	start, err := time.Parse(time.RFC3339, item.Start.DateTime)
	if err != nil {
		return nil, fmt.Errorf("parse start %q: %w", item.Start.DateTime, err)
	}
	ev.Start = start
	if end, err := time.Parse(time.RFC3339, item.End.DateTime); err == nil {
		ev.End = end
	} else {
		ev.End = start.Add(time.Hour)
	}
	return ev, nil
}
