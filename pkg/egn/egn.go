// Package egn validates 10-digit personal identity numbers (EGN). The first six
// digits encode the birth date, the month carrying the century, and the last
// digit is a weighted mod-11 checksum over the first nine.
package egn

import (
	"errors"
	"fmt"
	"time"
)

const Length = 10

var (
	ErrFormat    = errors.New("egn must be exactly 10 digits")
	ErrBirthDate = errors.New("egn encodes an invalid birth date")
	ErrChecksum  = errors.New("egn checksum does not match")
)

var weights = [Length - 1]int{2, 4, 8, 5, 10, 9, 7, 3, 6}

// IsValid reports whether s is a well-formed EGN.
func IsValid(s string) bool {
	return Validate(s) == nil
}

// Validate returns nil for a valid EGN, otherwise one of ErrFormat,
// ErrBirthDate or ErrChecksum (possibly wrapped).
func Validate(s string) error {
	digits, err := parseDigits(s)
	if err != nil {
		return err
	}
	if _, err := birthDate(digits); err != nil {
		return err
	}
	if checksum(digits[:Length-1]) != digits[Length-1] {
		return ErrChecksum
	}
	return nil
}

// BirthDate decodes the birth date embedded in s. The checksum is not verified.
func BirthDate(s string) (time.Time, error) {
	digits, err := parseDigits(s)
	if err != nil {
		return time.Time{}, err
	}
	return birthDate(digits)
}

// CheckDigit computes the tenth digit for a nine-digit prefix.
func CheckDigit(prefix string) (int, error) {
	if len(prefix) != Length-1 {
		return 0, fmt.Errorf("%w: prefix must have %d digits", ErrFormat, Length-1)
	}
	digits := make([]int, len(prefix))
	for i := 0; i < len(prefix); i++ {
		if prefix[i] < '0' || prefix[i] > '9' {
			return 0, ErrFormat
		}
		digits[i] = int(prefix[i] - '0')
	}
	return checksum(digits), nil
}

func parseDigits(s string) ([]int, error) {
	if len(s) != Length {
		return nil, ErrFormat
	}
	digits := make([]int, Length)
	for i := 0; i < Length; i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return nil, ErrFormat
		}
		digits[i] = int(c - '0')
	}
	return digits, nil
}

func birthDate(digits []int) (time.Time, error) {
	year := digits[0]*10 + digits[1]
	month := digits[2]*10 + digits[3]
	day := digits[4]*10 + digits[5]

	switch {
	case month >= 1 && month <= 12:
		year += 1900
	case month >= 21 && month <= 32:
		year += 1800
		month -= 20
	case month >= 41 && month <= 52:
		year += 2000
		month -= 40
	default:
		return time.Time{}, fmt.Errorf("%w: month %02d", ErrBirthDate, month)
	}

	// time.Date normalizes overflow (Feb 30 -> Mar 2), so round-trip the parts.
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, fmt.Errorf("%w: %04d-%02d-%02d", ErrBirthDate, year, month, day)
	}
	return t, nil
}

func checksum(digits []int) int {
	sum := 0
	for i, w := range weights {
		sum += digits[i] * w
	}
	sum %= 11
	if sum == 10 {
		return 0
	}
	return sum
}
