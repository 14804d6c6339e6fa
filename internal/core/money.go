// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing rouble amounts from strings
// and converting between kopecks and decimal representations.
package core

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseDecimalToKopecks converts a decimal string to kopecks with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. The result is always positive.
// Returns an error for invalid formats, negative values, or zero amounts.
//
// Examples:
//
//	ParseDecimalToKopecks("12.34") -> 1234, nil
//	ParseDecimalToKopecks("12,34") -> 1234, nil
//	ParseDecimalToKopecks("12.345") -> 1235, nil (rounds up)
func ParseDecimalToKopecks(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) || r > unicode.MaxASCII {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv >= maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	var frac int64
	if len(fracPart) > 0 {
		frac = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			frac += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				frac++
			}
		}
	}
	kopecks := iv*100 + frac
	if kopecks <= 0 {
		return 0, ErrInvalidAmount
	}
	return kopecks, nil
}

// Rubles returns the value as a float64 for display purposes.
// Use kopecks for calculations.
func (m Money) Rubles() float64 {
	return float64(m.Kopecks) / 100.0
}

// Decimal renders the amount as a plain decimal number: 1500.0, 1500.5, 1500.25.
func (m Money) Decimal() string {
	k := m.Kopecks
	sign := ""
	if k < 0 {
		sign = "-"
		k = -k
	}
	whole, frac := k/100, k%100
	switch {
	case frac == 0:
		return sign + strconv.FormatInt(whole, 10) + ".0"
	case frac%10 == 0:
		return sign + strconv.FormatInt(whole, 10) + "." + strconv.FormatInt(frac/10, 10)
	default:
		return sign + strconv.FormatInt(whole, 10) + "." + leftPad2(frac)
	}
}

// String formats as "1 500,50 ₽".
func (m Money) String() string {
	k := m.Kopecks
	sign := ""
	if k < 0 {
		sign = "-"
		k = -k
	}
	digits := strconv.FormatInt(k/100, 10)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + "," + leftPad2(k%100) + " ₽"
}

// MarshalJSON writes the amount as a JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal()), nil
}

// UnmarshalJSON accepts any JSON number, including exponent forms, and rounds
// half away from zero to the nearest kopeck. The text is parsed decimally so
// every amount Decimal can print reads back unchanged.
func (m *Money) UnmarshalJSON(b []byte) error {
	d, err := decimal.NewFromString(strings.TrimSpace(string(b)))
	if err != nil {
		return ErrInvalidAmount
	}
	// integer digits of the amount in kopecks
	mag := d.NumDigits() + int(d.Exponent()) + 2
	switch {
	case d.IsZero() || mag < 0:
		m.Kopecks = 0
		return nil
	case mag > 19:
		return ErrInvalidAmount
	}
	k := d.Shift(2).Round(0).BigInt()
	if !k.IsInt64() {
		return ErrInvalidAmount
	}
	m.Kopecks = k.Int64()
	return nil
}

func leftPad2(v int64) string {
	if v < 10 {
		return "0" + strconv.FormatInt(v, 10)
	}
	return strconv.FormatInt(v, 10)
}
