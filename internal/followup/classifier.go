// Package followup classifies activity follow-up dates against a reference day
// and groups dated records into overdue, today and upcoming buckets.
//
// All comparisons happen at day granularity in a single location. The package
// never reads the wall clock directly; a Classifier resolves "today" through an
// injected clock so callers and tests control the reference day.
package followup

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/suanview/orchard/internal/thaidate"
)

// ErrInvalidDate indicates a date string that does not parse to a real calendar date.
var ErrInvalidDate = errors.New("invalid date")

// Classification is the position of a date relative to the reference day.
type Classification string

const (
	Overdue  Classification = "overdue"
	Today    Classification = "today"
	Upcoming Classification = "upcoming"
)

// DefaultHorizonDays is how far ahead RelativeLabel still says "in N days".
const DefaultHorizonDays = 7

const secondsPerDay = 24 * 60 * 60

// Dated is implemented by records carrying an optional follow-up date.
// An empty string means the record has no follow-up and is skipped by grouping.
type Dated interface {
	FollowUp() string
}

// Groups holds dated records partitioned by classification.
// Overdue is ordered earliest date first, Upcoming soonest first,
// Today keeps the order records were encountered in.
type Groups[T Dated] struct {
	Overdue  []T
	Today    []T
	Upcoming []T
}

// Len returns the number of records across all buckets.
func (g Groups[T]) Len() int {
	return len(g.Overdue) + len(g.Today) + len(g.Upcoming)
}

// Classifier evaluates follow-up dates against the current day of its clock.
// It is safe for concurrent use.
type Classifier struct {
	now         func() time.Time
	loc         *time.Location
	horizonDays int
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithClock sets the function used to resolve the reference day.
func WithClock(now func() time.Time) Option {
	return func(c *Classifier) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLocation sets the location whose calendar days are compared.
func WithLocation(loc *time.Location) Option {
	return func(c *Classifier) {
		if loc != nil {
			c.loc = loc
		}
	}
}

// WithHorizon sets the near-term horizon used by RelativeLabel.
func WithHorizon(days int) Option {
	return func(c *Classifier) {
		if days >= 0 {
			c.horizonDays = days
		}
	}
}

// New creates a Classifier. Without options it uses time.Now in the local time zone.
func New(opts ...Option) *Classifier {
	c := &Classifier{
		now:         time.Now,
		loc:         time.Local,
		horizonDays: DefaultHorizonDays,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Location returns the location the classifier compares days in.
func (c *Classifier) Location() *time.Location {
	return c.loc
}

// Now returns the current time of the classifier's clock.
func (c *Classifier) Now() time.Time {
	return c.now()
}

// Today returns midnight of the current day in the classifier's location.
func (c *Classifier) Today() time.Time {
	return thaidate.StartOfDay(c.now(), c.loc)
}

// Classify classifies date against the classifier's current day.
func (c *Classifier) Classify(date string) (Classification, error) {
	return classify(date, c.now(), c.loc)
}

// DaysUntil counts the days from the classifier's current day to date.
func (c *Classifier) DaysUntil(date string) (int, error) {
	return daysUntil(date, c.now(), c.loc)
}

// RelativeLabel returns a short Thai phrase describing date relative to the current day.
func (c *Classifier) RelativeLabel(date string) string {
	return relativeLabel(date, c.now(), c.loc, c.horizonDays)
}

// FormatLocalized formats date in the classifier's location.
func (c *Classifier) FormatLocalized(date string) string {
	return thaidate.FormatLocalizedIn(date, c.loc)
}

// FormatLocalizedFull formats date with the month name in the classifier's location.
func (c *Classifier) FormatLocalizedFull(date string) string {
	return thaidate.FormatLocalizedFullIn(date, c.loc)
}

// Classify classifies date against the calendar day of ref, in ref's location.
// Time of day is discarded on both sides. Empty or unparseable dates fail with ErrInvalidDate.
func Classify(date string, ref time.Time) (Classification, error) {
	return classify(date, ref, ref.Location())
}

// DaysUntil returns the signed number of days from the start of ref's day to date.
// Negative means overdue. The count is the ceiling of the difference rounded away
// from zero: any sub-day remainder counts as a whole day in either direction, and the
// result is only zero when the difference is exactly zero. Calendar days are counted,
// so DST-shortened or lengthened days do not skew the result.
func DaysUntil(date string, ref time.Time) (int, error) {
	return daysUntil(date, ref, ref.Location())
}

// RelativeLabel returns "เลยกำหนด N วัน" for overdue dates, "วันนี้" for today and
// "อีก N วัน" for upcoming dates within DefaultHorizonDays. Dates further ahead fall back
// to the Buddhist-era formatted date; unparseable input is returned unchanged.
// N is the DaysUntil count, so a date-time later in its day rounds up.
func RelativeLabel(date string, ref time.Time) string {
	return relativeLabel(date, ref, ref.Location(), DefaultHorizonDays)
}

// GroupByFollowUp partitions records by follow-up date relative to ref's day.
// Records without a follow-up date are skipped. So are records whose date cannot be
// parsed: a bad date is never treated as due today or upcoming.
func GroupByFollowUp[T Dated](records []T, ref time.Time) Groups[T] {
	return group(records, ref, ref.Location())
}

// Group is GroupByFollowUp against the classifier's current day.
func Group[T Dated](c *Classifier, records []T) Groups[T] {
	return group(records, c.now(), c.loc)
}

func parse(date string, loc *time.Location) (time.Time, error) {
	t, err := thaidate.Parse(date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return t, nil
}

func classify(date string, ref time.Time, loc *time.Location) (Classification, error) {
	d, err := parse(date, loc)
	if err != nil {
		return "", err
	}
	return classifyDay(d, thaidate.StartOfDay(ref, loc)), nil
}

func classifyDay(d, refDay time.Time) Classification {
	switch {
	case d.Before(refDay):
		return Overdue
	case d.Equal(refDay):
		return Today
	default:
		return Upcoming
	}
}

func daysUntil(date string, ref time.Time, loc *time.Location) (int, error) {
	t, err := thaidate.ParseTime(date, loc)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}

	d := thaidate.StartOfDay(t, loc)
	n := calendarDays(thaidate.StartOfDay(ref, loc), d)

	// A time of day past midnight puts the target strictly between n and n+1.
	// Rounding away from zero picks n+1 ahead of the reference day and n behind it.
	if t.After(d) && n >= 0 {
		n++
	}
	return n, nil
}

// calendarDays counts calendar days between two midnights without
// being affected by DST-shortened days in loc. It works on Unix seconds
// so dates centuries apart do not overflow time.Duration.
func calendarDays(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC).Unix()
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC).Unix()
	return int((b - a) / secondsPerDay)
}

func relativeLabel(date string, ref time.Time, loc *time.Location, horizon int) string {
	d, err := parse(date, loc)
	if err != nil {
		return date
	}
	n, err := daysUntil(date, ref, loc)
	if err != nil {
		return date
	}

	switch classifyDay(d, thaidate.StartOfDay(ref, loc)) {
	case Overdue:
		return fmt.Sprintf("เลยกำหนด %d วัน", -n)
	case Today:
		return "วันนี้"
	default:
		if n <= horizon {
			return fmt.Sprintf("อีก %d วัน", n)
		}
		return thaidate.Format(d)
	}
}

type entry[T Dated] struct {
	record T
	day    time.Time
}

func group[T Dated](records []T, ref time.Time, loc *time.Location) Groups[T] {
	refDay := thaidate.StartOfDay(ref, loc)

	var overdue, upcoming []entry[T]
	var today []T

	for _, r := range records {
		date := r.FollowUp()
		if date == "" {
			continue
		}
		d, err := parse(date, loc)
		if err != nil {
			continue
		}

		switch classifyDay(d, refDay) {
		case Overdue:
			overdue = append(overdue, entry[T]{record: r, day: d})
		case Today:
			today = append(today, r)
		default:
			upcoming = append(upcoming, entry[T]{record: r, day: d})
		}
	}

	byDay := func(es []entry[T]) func(i, j int) bool {
		return func(i, j int) bool { return es[i].day.Before(es[j].day) }
	}
	sort.SliceStable(overdue, byDay(overdue))
	sort.SliceStable(upcoming, byDay(upcoming))

	return Groups[T]{
		Overdue:  unwrap(overdue),
		Today:    today,
		Upcoming: unwrap(upcoming),
	}
}

func unwrap[T Dated](es []entry[T]) []T {
	if len(es) == 0 {
		return nil
	}
	out := make([]T, len(es))
	for i, e := range es {
		out[i] = e.record
	}
	return out
}
