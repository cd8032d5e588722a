package logic

import (
	"errors"
	"fmt"
	"strings"
)

// Validation errors for operator-entered start times, in the order the
// checks run. ParseStartTime wraps these with the offending input;
// match with errors.Is.
var (
	ErrTooShort         = errors.New("start time too short")
	ErrMissingSeparator = errors.New("start time missing ':' or '.' separator")
	ErrNotNumeric       = errors.New("start time is not numeric")
	ErrHourOutOfRange   = errors.New("start time hour out of range")
	ErrMinuteOutOfRange = errors.New("start time minute out of range")
)

// digitPositions are the indexes of text that must hold ASCII digits.
var digitPositions = [4]int{0, 1, 3, 4}

// ParseStartTime validates operator-entered "HH:MM" text and returns
// the corresponding minute of day.
//
// Checks run in a fixed order and the first failure wins: length,
// separator, digits, hour range, minute range. The separator check
// only requires a ':' or '.' somewhere in the text; the hour and
// minute fields sit at fixed offsets regardless, and anything past the
// first five characters is ignored.
func ParseStartTime(text string) (TimeOfDay, error) {
	if len(text) < 5 {
		return 0, fmt.Errorf("%w: %q", ErrTooShort, text)
	}
	if !strings.ContainsAny(text, ":.") {
		return 0, fmt.Errorf("%w: %q", ErrMissingSeparator, text)
	}
	for _, i := range digitPositions {
		if text[i] < '0' || text[i] > '9' {
			return 0, fmt.Errorf("%w: %q", ErrNotNumeric, text)
		}
	}
	hour := int(text[0]-'0')*10 + int(text[1]-'0')
	minute := int(text[3]-'0')*10 + int(text[4]-'0')
	if hour > 23 {
		return 0, fmt.Errorf("%w: %d", ErrHourOutOfRange, hour)
	}
	if minute > 59 {
		return 0, fmt.Errorf("%w: %d", ErrMinuteOutOfRange, minute)
	}
	return TimeOfDay(hour*60 + minute), nil
}
