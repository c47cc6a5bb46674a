package calendar

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/domain/entities"
	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/domain/providers"
	"github.com/happyroy1004/ocs-patient-alert-sub000/pkg/config"
	apperrors "github.com/happyroy1004/ocs-patient-alert-sub000/pkg/errors"
)

// GoogleProvider creates events with the Google Calendar API on behalf of
// the token owner.
type GoogleProvider struct {
	oauth      *oauth2.Config
	calendarID string
	endpoint   string
}

// NewGoogleProvider creates a calendar provider from the OAuth client
// settings. Stored tokens are refreshed transparently when the client id
// and secret are set; the refreshed token is not persisted.
func NewGoogleProvider(cfg config.GoogleConfig) providers.CalendarProvider {
	calendarID := cfg.CalendarID
	if calendarID == "" {
		calendarID = "primary"
	}
	return &GoogleProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{gcal.CalendarEventsScope},
			Endpoint:     google.Endpoint,
		},
		calendarID: calendarID,
	}
}

// CreateEvent inserts one event
func (p *GoogleProvider) CreateEvent(ctx context.Context, token *entities.CalendarToken, event *entities.CalendarEvent) error {
	if token == nil || token.AccessToken == "" {
		return apperrors.NewValidationError("calendar token is missing")
	}
	if event == nil {
		return apperrors.NewValidationError("calendar event is nil")
	}

	httpClient := p.oauth.Client(ctx, &oauth2.Token{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		Expiry:       token.Expiry,
	})

	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if p.endpoint != "" {
		opts = append(opts, option.WithEndpoint(p.endpoint))
	}

	srv, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return apperrors.NewExternalError("failed to create calendar service", err)
	}

	_, err = srv.Events.Insert(p.calendarID, &gcal.Event{
		Summary:     event.Title,
		Description: event.Description,
		Start: &gcal.EventDateTime{
			DateTime: event.Start.Format(time.RFC3339),
			TimeZone: event.TimeZone,
		},
		End: &gcal.EventDateTime{
			DateTime: event.End.Format(time.RFC3339),
			TimeZone: event.TimeZone,
		},
	}).Context(ctx).Do()
	if err != nil {
		return apperrors.NewExternalError(fmt.Sprintf("failed to create calendar event %q", event.Title), err)
	}
	return nil
}
