// Package places looks venues up in the Google Places API.
package places

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"googlemaps.github.io/maps"

	"github.com/pkordes/eventer/internal/domain"
)

// Client searches for places and fetches their details.
type Client struct {
	maps *maps.Client
}

// NewClient builds a Client for apiKey. Extra options are handed to the
// underlying maps client; tests use maps.WithBaseURL to point it at a fake.
func NewClient(apiKey string, opts ...maps.ClientOption) (*Client, error) {
	opts = append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)
	c, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("places.NewClient: %w", err)
	}
	return &Client{maps: c}, nil
}

// Search runs a text search for venues matching query that are open now.
// Results come back in API order, unranked.
func (c *Client) Search(ctx context.Context, query string) ([]domain.Place, error) {
	resp, err := c.maps.TextSearch(ctx, &maps.TextSearchRequest{
		Query:   query,
		OpenNow: true,
	})
	if err != nil {
		return nil, fmt.Errorf("places.Client.Search: %w", err)
	}

	out := make([]domain.Place, 0, len(resp.Results))
	for _, r := range resp.Results {
		p := domain.Place{
			ID:         r.PlaceID,
			Name:       r.Name,
			Address:    r.FormattedAddress,
			Rating:     float64(r.Rating),
			Types:      r.Types,
			MapsURL:    mapsURL(r.PlaceID),
			PriceLevel: r.PriceLevel,
		}
		if r.OpeningHours != nil {
			p.OpenNow = r.OpeningHours.OpenNow
		}
		out = append(out, p)
	}
	return out, nil
}

// Details fetches a single place by id.
// Returns domain.ErrNotFound when the API does not know the id.
func (c *Client) Details(ctx context.Context, placeID string) (domain.Place, error) {
	r, err := c.maps.PlaceDetails(ctx, &maps.PlaceDetailsRequest{PlaceID: placeID})
	if err != nil {
		if isNotFound(err) {
			return domain.Place{}, fmt.Errorf("places.Client.Details: %w", domain.ErrNotFound)
		}
		return domain.Place{}, fmt.Errorf("places.Client.Details: %w", err)
	}

	p := domain.Place{
		ID:         r.PlaceID,
		Name:       r.Name,
		Address:    r.FormattedAddress,
		Rating:     float64(r.Rating),
		Types:      r.Types,
		MapsURL:    r.URL,
		Website:    r.Website,
		PriceLevel: r.PriceLevel,
	}
	if p.MapsURL == "" {
		p.MapsURL = mapsURL(r.PlaceID)
	}
	if r.OpeningHours != nil {
		p.OpenNow = r.OpeningHours.OpenNow
		p.Hours = r.OpeningHours.WeekdayText
	}
	return p, nil
}

func mapsURL(placeID string) string {
	if placeID == "" {
		return ""
	}
	return "https://www.google.com/maps/place/?q=" + url.QueryEscape("place_id:"+placeID)
}

// isNotFound reports whether err is the API's answer for an unknown or
// malformed place id. The maps client only surfaces the status in the text.
func isNotFound(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "NOT_FOUND") || strings.Contains(msg, "INVALID_REQUEST")
}
