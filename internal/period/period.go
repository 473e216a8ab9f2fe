// Package period formats and parses reporting periods: YYYY-MM, YYYY-Qn and YYYY.
package period

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Type string

const (
	Monthly   Type = "monthly"
	Quarterly Type = "quarterly"
	Yearly    Type = "yearly"
)

var (
	ErrInvalidPeriod     = errors.New("invalid_period")
	ErrInvalidPeriodType = errors.New("invalid_period_type")
)

// ParseType normalizes a period type, defaulting to monthly when empty.
func ParseType(value string) (Type, error) {
	switch Type(strings.ToLower(strings.TrimSpace(value))) {
	case "", Monthly:
		return Monthly, nil
	case Quarterly:
		return Quarterly, nil
	case Yearly:
		return Yearly, nil
	default:
		return "", ErrInvalidPeriodType
	}
}

func (t Type) Valid() bool {
	switch t {
	case Monthly, Quarterly, Yearly:
		return true
	}
	return false
}

// Default returns the period containing now for the given type.
func Default(now time.Time, t Type) string {
	now = now.UTC()
	switch t {
	case Quarterly:
		return fmt.Sprintf("%04d-Q%d", now.Year(), (int(now.Month())+2)/3)
	case Yearly:
		return fmt.Sprintf("%04d", now.Year())
	default:
		return now.Format("2006-01")
	}
}

// Resolve returns value when it is a valid period of type t, or the default for now.
func Resolve(value string, now time.Time, t Type) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Default(now, t), nil
	}
	parsed, _, err := parse(value)
	if err != nil {
		return "", err
	}
	if parsed != t {
		return "", ErrInvalidPeriod
	}
	return value, nil
}

// Bounds returns the half-open UTC interval [start, end) covered by the period.
func Bounds(value string) (time.Time, time.Time, error) {
	t, start, err := parse(strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	switch t {
	case Quarterly:
		return start, start.AddDate(0, 3, 0), nil
	case Yearly:
		return start, start.AddDate(1, 0, 0), nil
	default:
		return start, start.AddDate(0, 1, 0), nil
	}
}

func parse(value string) (Type, time.Time, error) {
	switch {
	case len(value) == 4:
		year, err := parseYear(value)
		if err != nil {
			return "", time.Time{}, err
		}
		return Yearly, time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC), nil
	case len(value) == 7 && value[4:6] == "-Q":
		year, err := parseYear(value[:4])
		if err != nil {
			return "", time.Time{}, err
		}
		quarter, err := strconv.Atoi(value[6:])
		if err != nil || quarter < 1 || quarter > 4 {
			return "", time.Time{}, ErrInvalidPeriod
		}
		return Quarterly, time.Date(year, time.Month((quarter-1)*3+1), 1, 0, 0, 0, 0, time.UTC), nil
	case len(value) == 7:
		start, err := time.ParseInLocation("2006-01", value, time.UTC)
		if err != nil {
			return "", time.Time{}, ErrInvalidPeriod
		}
		return Monthly, start, nil
	default:
		return "", time.Time{}, ErrInvalidPeriod
	}
}

// parseYear accepts exactly four ASCII digits.
func parseYear(value string) (int, error) {
	if len(value) != 4 {
		return 0, ErrInvalidPeriod
	}
	for i := 0; i < len(value); i++ {
		if value[i] < '0' || value[i] > '9' {
			return 0, ErrInvalidPeriod
		}
	}
	year, err := strconv.Atoi(value)
	if err != nil || year < 1 {
		return 0, ErrInvalidPeriod
	}
	return year, nil
}
