// Package domain contains the core data types for the Eventer bot.
// This package has no dependencies on other internal packages and is imported
// by every other internal package (repo, service, bot, handler).
package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the canonical text form of an event date ("2006-01-02").
// Slack datepickers submit dates in this layout too.
const DateLayout = "2006-01-02"

// TimeLayout is the expected form of an event's time of day ("15:04").
const TimeLayout = "15:04"

// Event is a scheduled team gathering.
//
// Date is a calendar date: the time-of-day component is always midnight UTC
// and carries no meaning. Time is the free-form time of day, expected HH:MM.
// Participants is semantically a set; the repo guarantees it never holds the
// same user twice. The author is the first participant on creation.
type Event struct {
	ID           uuid.UUID `json:"id"`
	TeamID       string    `json:"team_id"`
	Date         time.Time `json:"date"`
	Time         string    `json:"time"`
	Location     Location  `json:"location"`
	Description  string    `json:"description,omitempty"`
	Participants []string  `json:"participants"`
	Author       string    `json:"author"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasParticipant reports whether user has joined the event.
func (e Event) HasParticipant(user string) bool {
	return slices.Contains(e.Participants, user)
}

// DateString returns the event date formatted with DateLayout.
func (e Event) DateString() string {
	return e.Date.Format(DateLayout)
}

// Weekday returns the English weekday name of the event date, e.g. "Friday".
func (e Event) Weekday() string {
	return e.Date.Weekday().String()
}

// Location is a denormalized snapshot of a place taken when the event was
// created. It is stored with the event and never refreshed, so an event keeps
// displaying the venue as it was when people signed up for it.
type Location struct {
	Name       string   `json:"name"`
	Address    string   `json:"address,omitempty"`
	Rating     float64  `json:"rating,omitempty"`
	MapsURL    string   `json:"maps_url,omitempty"`
	Website    string   `json:"website,omitempty"`
	Types      []string `json:"types,omitempty"`
	PlaceID    string   `json:"place_id,omitempty"`
	PriceLevel int      `json:"price_level,omitempty"`
}

// NewDate returns the calendar date of t in loc as midnight UTC, the
// representation used for Event.Date throughout the application.
func NewDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
