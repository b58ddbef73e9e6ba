// Package kennitala derives a date of birth and age from an Icelandic
// national identifier (kennitala). The identifier encodes DDMMYY in its
// first six digits and a century marker in its tenth digit.
package kennitala

import (
	"fmt"
	"strings"
	"time"

	dErrors "agegate/pkg/domain-errors"
)

// ErrMalformed is returned when an identifier does not match the expected
// ten-digit shape after separator removal. Data that cannot be parsed must
// never default to a verified outcome.
var ErrMalformed = dErrors.New(dErrors.CodeProvider, "malformed national identifier")

// centuryDigitOffset is the fixed position of the century marker in the
// stripped identifier. The marker is a single-digit lookup at this offset,
// never a range guess over the serial digits.
const centuryDigitOffset = 9

// Birth is the date of birth parsed from an identifier.
type Birth struct {
	Year  int
	Month time.Month
	Day   int
}

// Parse validates and extracts the date of birth from an identifier.
// Hyphens are stripped first, so both "290786-1234" and "2907861234" are
// accepted.
//
// The century marker maps 0 to the 2000s and every other observed value
// (historically 9) to the 1900s. This two-bucket mapping does not generalize
// past the identifier scheme's ~200-year range; it intentionally preserves
// the numbering scheme as issued rather than guessing beyond it.
func Parse(identifier string) (Birth, error) {
	clean := strings.ReplaceAll(identifier, "-", "")
	if len(clean) != 10 {
		return Birth{}, fmt.Errorf("identifier must be 10 digits, got %d: %w", len(clean), ErrMalformed)
	}
	for _, r := range clean {
		if r < '0' || r > '9' {
			return Birth{}, fmt.Errorf("identifier contains non-digit: %w", ErrMalformed)
		}
	}

	day := digits(clean[0:2])
	month := digits(clean[2:4])
	yy := digits(clean[4:6])

	if day < 1 || day > 31 {
		return Birth{}, fmt.Errorf("day %d out of range: %w", day, ErrMalformed)
	}
	if month < 1 || month > 12 {
		return Birth{}, fmt.Errorf("month %d out of range: %w", month, ErrMalformed)
	}

	century := 1900
	if clean[centuryDigitOffset] == '0' {
		century = 2000
	}

	return Birth{Year: century + yy, Month: time.Month(month), Day: day}, nil
}

// Age computes whole years elapsed from the identifier's birth date to now,
// decremented by one when the birthday has not yet occurred this year.
// Deterministic, no side effects.
func Age(identifier string, now time.Time) (int, error) {
	birth, err := Parse(identifier)
	if err != nil {
		return 0, err
	}

	age := now.Year() - birth.Year
	if int(now.Month()) < int(birth.Month) ||
		(now.Month() == birth.Month && now.Day() < birth.Day) {
		age--
	}
	return age, nil
}

// digits converts a run of ASCII digits already validated by Parse.
func digits(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		n = n*10 + int(s[i]-'0')
	}
	return n
}
