// Package thaidate parses calendar dates and renders them in the Thai locale
// with Buddhist-era years.
package thaidate

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// BuddhistEraOffset is added to the Gregorian year to get the Buddhist-era year.
// It is a fixed constant; era transitions before 1941 are not adjusted.
const BuddhistEraOffset = 543

// ISODate is the layout used to store and exchange calendar dates.
const ISODate = "2006-01-02"

// isoDatePrefix matches a full year-month-day, alone or followed by a time part.
var isoDatePrefix = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})(?:$|[T ])`)

var months = [12]string{
	"มกราคม",
	"กุมภาพันธ์",
	"มีนาคม",
	"เมษายน",
	"พฤษภาคม",
	"มิถุนายน",
	"กรกฎาคม",
	"สิงหาคม",
	"กันยายน",
	"ตุลาคม",
	"พฤศจิกายน",
	"ธันวาคม",
}

// MonthName returns the Thai name of the month.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return months[m-1]
}

// Parse parses an ISO-8601 date or date-time and returns the start of that
// calendar day in loc.
// Date-times carrying their own offset are first converted to loc.
func Parse(s string, loc *time.Location) (time.Time, error) {
	t, err := ParseTime(s, loc)
	if err != nil {
		return time.Time{}, err
	}
	return StartOfDay(t, loc), nil
}

// ParseTime is Parse without the truncation: date-times keep their time of day.
// Date-only input yields midnight in loc. Input must start with a full
// YYYY-MM-DD; bare times, years and Unix timestamps are rejected.
func ParseTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if loc == nil {
		loc = time.Local
	}

	m := isoDatePrefix.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, fmt.Errorf("not an ISO-8601 date: %q", s)
	}

	t, err := dateparse.ParseIn(s, loc)
	if err != nil {
		return time.Time{}, err
	}
	// The date as written, in the offset it was written in, must survive parsing.
	if t.Format(ISODate) != m[1]+"-"+m[2]+"-"+m[3] {
		return time.Time{}, fmt.Errorf("not a calendar date: %q", s)
	}
	return t.In(loc), nil
}

// StartOfDay truncates t to midnight of its calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// Year returns the Buddhist-era year of t.
func Year(t time.Time) int {
	return t.Year() + BuddhistEraOffset
}

// Format renders t as d/m/yyyy with a Buddhist-era year, e.g. 1/1/2567.
func Format(t time.Time) string {
	return fmt.Sprintf("%d/%d/%d", t.Day(), int(t.Month()), Year(t))
}

// FormatFull renders t as "d <month> yyyy", e.g. "1 มกราคม 2567".
func FormatFull(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), MonthName(t.Month()), Year(t))
}

// FormatLocalized parses s in the local time zone and renders it with Format.
// Unparseable input is returned unchanged.
func FormatLocalized(s string) string {
	return FormatLocalizedIn(s, time.Local)
}

// FormatLocalizedIn is FormatLocalized with an explicit location.
func FormatLocalizedIn(s string, loc *time.Location) string {
	t, err := Parse(s, loc)
	if err != nil {
		return s
	}
	return Format(t)
}

// FormatLocalizedFull parses s in the local time zone and renders it with FormatFull.
// Unparseable input is returned unchanged.
func FormatLocalizedFull(s string) string {
	return FormatLocalizedFullIn(s, time.Local)
}

// FormatLocalizedFullIn is FormatLocalizedFull with an explicit location.
func FormatLocalizedFullIn(s string, loc *time.Location) string {
	t, err := Parse(s, loc)
	if err != nil {
		return s
	}
	return FormatFull(t)
}

// Normalize parses s and returns it as an ISO calendar date (YYYY-MM-DD).
func Normalize(s string, loc *time.Location) (string, error) {
	t, err := Parse(s, loc)
	if err != nil {
		return "", err
	}
	return t.Format(ISODate), nil
}
