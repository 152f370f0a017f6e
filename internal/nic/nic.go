// Package nic validates national identity card numbers in the legacy
// (9 digits + V/X) and modern (12 digits) formats.
package nic

import (
	"errors"
	"regexp"
	"strconv"
	"time"
)

// Format names a recognised NIC layout.
type Format string

const (
	FormatLegacy Format = "legacy"
	FormatModern Format = "modern"
)

// Gender is derived from the day ordinal; female records carry a +500 offset.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

const (
	minModernYear = 1900
	legacyCentury = 1900
	femaleOffset  = 500
	maxDayOrdinal = 366
)

var (
	// ErrMalformed is returned when the input matches neither format.
	ErrMalformed = errors.New("nic: malformed")
	// ErrDayOrdinal is returned when the encoded day is outside 1-366 and 501-866.
	ErrDayOrdinal = errors.New("nic: day ordinal out of range")
	// ErrBirthYear is returned when a modern NIC encodes a year outside [1900, current year].
	ErrBirthYear = errors.New("nic: birth year out of range")

	legacyPattern = regexp.MustCompile(`^\d{9}[VvXx]$`)
	modernPattern = regexp.MustCompile(`^\d{12}$`)
)

// Details is the information encoded in a valid NIC.
type Details struct {
	Format     Format
	BirthYear  int
	DayOrdinal int
	Gender     Gender
}

// Validate reports whether nic is well formed, using the current wall-clock year.
func Validate(nic string) bool {
	return ValidateAt(nic, time.Now())
}

// ValidateAt reports whether nic is well formed relative to now.
func ValidateAt(nic string, now time.Time) bool {
	_, err := Parse(nic, now)
	return err == nil
}

// Parse decodes nic. The year window for modern numbers ends at now.Year().
func Parse(nic string, now time.Time) (Details, error) {
	var (
		d       Details
		dayPart string
	)

	switch {
	case legacyPattern.MatchString(nic):
		d.Format = FormatLegacy
		d.BirthYear = legacyCentury + atoi(nic[:2])
		dayPart = nic[2:5]
	case modernPattern.MatchString(nic):
		d.Format = FormatModern
		d.BirthYear = atoi(nic[:4])
		if d.BirthYear < minModernYear || d.BirthYear > now.Year() {
			return Details{}, ErrBirthYear
		}
		dayPart = nic[4:7]
	default:
		return Details{}, ErrMalformed
	}

	day := atoi(dayPart)
	switch {
	case day >= 1 && day <= maxDayOrdinal:
		d.DayOrdinal = day
		d.Gender = GenderMale
	case day > femaleOffset && day <= femaleOffset+maxDayOrdinal:
		d.DayOrdinal = day - femaleOffset
		d.Gender = GenderFemale
	default:
		return Details{}, ErrDayOrdinal
	}

	return d, nil
}

// atoi is only called on substrings already matched as digits.
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
