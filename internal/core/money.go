// Package core holds the domain model shared by the tracker:
// money amounts, transactions, the category registry and savings goals.
package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Money is an amount in integer cents. Calculations stay in cents so that
// aggregates partition exactly; floats appear only at formatting time.
type Money struct {
	Cents int64
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Units returns the whole-currency value as a float64 for display purposes.
func (m Money) Units() float64 {
	return float64(m.Cents) / 100.0
}

// MarshalJSON renders the amount as a decimal number of currency units
// with two decimal places. Wire payloads and export files carry units;
// cents stay internal.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(float64(m.Cents)/100, 'f', 2, 64)), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		m.Cents = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return ErrInvalidAmount
	}
	m.Cents = int64(math.Round(f * 100))
	return nil
}

// Format renders the amount with the given currency symbol, rounded to the
// nearest whole unit (e.g. "₹1234").
func (m Money) Format(symbol string) string {
	cents := m.Cents
	neg := cents < 0
	if neg {
		cents = -cents
	}
	units := (cents + 50) / 100
	s := symbol + strconv.FormatInt(units, 10)
	if neg {
		return "-" + s
	}
	return s
}

// FormatExact renders the amount with two decimal places ("₹12.34").
func (m Money) FormatExact(symbol string) string {
	cents := m.Cents
	neg := cents < 0
	if neg {
		cents = -cents
	}
	s := fmt.Sprintf("%s%d.%02d", symbol, cents/100, cents%100)
	if neg {
		return "-" + s
	}
	return s
}

// ParseDecimalToCents converts a decimal string to cents with half-up
// rounding on the third decimal place. Both dot and comma separators are
// accepted. Only positive amounts are valid.
func ParseDecimalToCents(s string) (int64, error) {
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
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}
