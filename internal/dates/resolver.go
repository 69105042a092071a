// Package dates turns the day a user typed ("friday", "next tuesday",
// "2030-03-15") into a calendar date.
package dates

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"github.com/pkordes/eventer/internal/domain"
)

// Parser interprets a natural-language date expression relative to base.
// ok is false when text holds no recognisable date, or when words follow the
// date expression.
type Parser interface {
	Parse(text string, base time.Time) (t time.Time, ok bool, err error)
}

// WhenParser is the default Parser, backed by olebedev/when with the English
// and common rule sets.
type WhenParser struct {
	w *when.Parser
}

// NewWhenParser builds a WhenParser.
func NewWhenParser() *WhenParser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &WhenParser{w: w}
}

// Parse implements Parser.
func (p *WhenParser) Parse(text string, base time.Time) (time.Time, bool, error) {
	r, err := p.w.Parse(text, base)
	if err != nil {
		return time.Time{}, false, err
	}
	if r == nil {
		return time.Time{}, false, nil
	}
	// "friday the tap room" is not a day.
	if tail := text[r.Index+len(r.Text):]; strings.IndexFunc(tail, isWordRune) >= 0 {
		return time.Time{}, false, nil
	}
	return r.Time, true, nil
}

func isWordRune(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }

// Resolver resolves day expressions to future calendar dates in a fixed
// time zone. It has no side effects; the same input at the same moment
// always gives the same date.
type Resolver struct {
	parser Parser
	loc    *time.Location
	now    func() time.Time
}

// NewResolver returns a Resolver. A nil loc means UTC and a nil now means
// time.Now.
func NewResolver(parser Parser, loc *time.Location, now func() time.Time) *Resolver {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Resolver{parser: parser, loc: loc, now: now}
}

// Today returns the current calendar date in the resolver's time zone, in the
// domain.NewDate representation.
func (r *Resolver) Today() time.Time {
	return domain.NewDate(r.now(), r.loc)
}

// Resolve parses input and returns its calendar date (midnight UTC, see
// domain.NewDate). The date must be strictly after today: today itself and
// anything earlier fail with domain.ErrPastDate. Input that cannot be parsed
// fails with domain.ErrValidation.
func (r *Resolver) Resolve(input string) (time.Time, error) {
	date, err := r.resolve(input)
	if err != nil {
		return time.Time{}, fmt.Errorf("dates.Resolver.Resolve: %w", err)
	}
	if !date.After(r.Today()) {
		return time.Time{}, fmt.Errorf("dates.Resolver.Resolve: %q: %w", input, domain.ErrPastDate)
	}
	return date, nil
}

// ResolveUpcoming is Resolve for looking events up: today is accepted, only
// earlier days fail with domain.ErrPastDate.
func (r *Resolver) ResolveUpcoming(input string) (time.Time, error) {
	date, err := r.resolve(input)
	if err != nil {
		return time.Time{}, fmt.Errorf("dates.Resolver.ResolveUpcoming: %w", err)
	}
	if date.Before(r.Today()) {
		return time.Time{}, fmt.Errorf("dates.Resolver.ResolveUpcoming: %q: %w", input, domain.ErrPastDate)
	}
	return date, nil
}

func (r *Resolver) resolve(input string) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, fmt.Errorf("%w: no day given", domain.ErrValidation)
	}
	return r.parse(input)
}

func (r *Resolver) parse(input string) (time.Time, error) {
	if t, err := time.ParseInLocation(domain.DateLayout, input, r.loc); err == nil {
		return domain.NewDate(t, r.loc), nil
	}

	t, ok, err := r.parser.Parse(strings.ToLower(input), r.now().In(r.loc))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: cannot read %q as a day: %v", domain.ErrValidation, input, err)
	}
	if !ok {
		return time.Time{}, fmt.Errorf("%w: cannot read %q as a day", domain.ErrValidation, input)
	}
	return domain.NewDate(t, r.loc), nil
}
