// Package calendar integrates with the teacher's external calendar.
// The service only ever creates and deletes events; everything else
// about the provider is opaque.
package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Credentials carries a teacher's stored OAuth tokens.
type Credentials struct {
	AccessToken  string
	RefreshToken string
}

// EventInput describes the event to create for a merged booking.
type EventInput struct {
	Summary       string
	Description   string
	AttendeeEmail string
	Start         time.Time
	End           time.Time
}

// EventResult is what the provider hands back on creation.
type EventResult struct {
	EventID     string
	MeetingLink string
}

// Client creates and deletes events on the teacher's calendar.
type Client interface {
	CreateEvent(ctx context.Context, creds Credentials, input EventInput) (*EventResult, error)
	DeleteEvent(ctx context.Context, creds Credentials, eventID string) error
}

const defaultBaseURL = "https://www.googleapis.com/calendar/v3"

// GoogleClient talks to the Google Calendar v3 REST API using the
// teacher's offline OAuth tokens. Tokens refresh transparently through
// the oauth2 token source.
type GoogleClient struct {
	oauth      *oauth2.Config
	calendarID string
	baseURL    string
	timeout    time.Duration
}

// NewGoogleClient builds a calendar client for the given OAuth app.
func NewGoogleClient(clientID, clientSecret, calendarID string) *GoogleClient {
	if calendarID == "" {
		calendarID = "primary"
	}
	return &GoogleClient{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
		},
		calendarID: calendarID,
		baseURL:    defaultBaseURL,
		timeout:    10 * time.Second,
	}
}

type eventTime struct {
	DateTime string `json:"dateTime"`
}

type conferenceRequest struct {
	RequestID   string            `json:"requestId"`
	SolutionKey map[string]string `json:"conferenceSolutionKey"`
}

type eventPayload struct {
	Summary        string      `json:"summary"`
	Description    string      `json:"description"`
	Start          eventTime   `json:"start"`
	End            eventTime   `json:"end"`
	Attendees      []attendee  `json:"attendees,omitempty"`
	ConferenceData *confData   `json:"conferenceData,omitempty"`
}

type attendee struct {
	Email string `json:"email"`
}

type confData struct {
	CreateRequest conferenceRequest `json:"createRequest"`
}

type eventResponse struct {
	ID          string `json:"id"`
	HangoutLink string `json:"hangoutLink"`
}

// CreateEvent inserts a calendar event with a Meet conference attached
// and invites the teacher.
func (c *GoogleClient) CreateEvent(ctx context.Context, creds Credentials, input EventInput) (*EventResult, error) {
	payload := eventPayload{
		Summary:     input.Summary,
		Description: input.Description,
		Start:       eventTime{DateTime: input.Start.UTC().Format(time.RFC3339)},
		End:         eventTime{DateTime: input.End.UTC().Format(time.RFC3339)},
		ConferenceData: &confData{
			CreateRequest: conferenceRequest{
				RequestID:   fmt.Sprintf("booking-%d", time.Now().UnixNano()),
				SolutionKey: map[string]string{"type": "hangoutsMeet"},
			},
		},
	}
	if input.AttendeeEmail != "" {
		payload.Attendees = []attendee{{Email: input.AttendeeEmail}}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode calendar event: %w", err)
	}

	endpoint := fmt.Sprintf("%s/calendars/%s/events?conferenceDataVersion=1&sendUpdates=all", c.baseURL, url.PathEscape(c.calendarID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build calendar request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient(ctx, creds).Do(req)
	if err != nil {
		return nil, fmt.Errorf("create calendar event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("create calendar event: status %d: %s", resp.StatusCode, detail)
	}

	var created eventResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("decode calendar event: %w", err)
	}

	return &EventResult{EventID: created.ID, MeetingLink: created.HangoutLink}, nil
}

// DeleteEvent removes a previously created event, notifying attendees.
func (c *GoogleClient) DeleteEvent(ctx context.Context, creds Credentials, eventID string) error {
	endpoint := fmt.Sprintf("%s/calendars/%s/events/%s?sendUpdates=all", c.baseURL, url.PathEscape(c.calendarID), url.PathEscape(eventID))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build calendar request: %w", err)
	}

	resp, err := c.httpClient(ctx, creds).Do(req)
	if err != nil {
		return fmt.Errorf("delete calendar event: %w", err)
	}
	defer resp.Body.Close()

	// 404/410 mean the event is already gone; treat as success.
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("delete calendar event: status %d: %s", resp.StatusCode, detail)
	}
	return nil
}

func (c *GoogleClient) httpClient(ctx context.Context, creds Credentials) *http.Client {
	token := &oauth2.Token{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
	}
	if creds.RefreshToken != "" {
		// Stored access tokens are usually stale; force a refresh up front.
		token.Expiry = time.Now().Add(-time.Minute)
	}
	client := oauth2.NewClient(ctx, c.oauth.TokenSource(ctx, token))
	client.Timeout = c.timeout
	return client
}
