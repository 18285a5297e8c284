// Package campaign schedules questionnaire prompts over a month-long
// program, anchored to each participant's enrollment date and local
// timezone.
package campaign

import (
	"fmt"
	"math"
	"time"
)

// ProgramDay returns the 1-based day of the program for a participant
// enrolled at enrolledAt, as seen from their timezone at the given
// instant. The enrollment calendar day is day 1. Instants before it
// return 0. A timezone name that does not resolve is an error.
func ProgramDay(now, enrolledAt time.Time, tz string) (int, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return 0, fmt.Errorf("campaign: malformed timezone %q: %w", tz, err)
	}

	localNow := now.In(loc)
	localStart := enrolledAt.In(loc)
	nowDate := time.Date(localNow.Year(), localNow.Month(), localNow.Day(), 0, 0, 0, 0, loc)
	startDate := time.Date(localStart.Year(), localStart.Month(), localStart.Day(), 0, 0, 0, 0, loc)

	// Round, don't truncate: a DST transition makes the elapsed span a
	// non-integral number of 24h days.
	day := int(math.Round(nowDate.Sub(startDate).Hours()/24)) + 1
	if day < 1 {
		return 0, nil
	}
	return day, nil
}

// LocalTime converts an instant to the participant's wall clock.
func LocalTime(now time.Time, tz string) (time.Time, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Time{}, fmt.Errorf("campaign: malformed timezone %q: %w", tz, err)
	}
	return now.In(loc), nil
}
