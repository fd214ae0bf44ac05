package models

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Numeric is a decimal that tolerates malformed input. JSON numbers and numeric
// strings decode to a valid value; null, "", and anything non-numeric decode to
// an invalid value instead of failing the whole document.
type Numeric struct {
	Value decimal.Decimal
	Valid bool
}

// NewNumeric wraps d as a valid Numeric.
func NewNumeric(d decimal.Decimal) Numeric {
	return Numeric{Value: d, Valid: true}
}

// NumericFromInt wraps i as a valid Numeric.
func NumericFromInt(i int64) Numeric {
	return NewNumeric(decimal.NewFromInt(i))
}

// ParseNumeric parses s, returning an invalid Numeric when s is not a number.
func ParseNumeric(s string) Numeric {
	s = strings.TrimSpace(s)
	if s == "" {
		return Numeric{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Numeric{}
	}
	return NewNumeric(d)
}

// IsInteger reports whether n is valid and has no fractional part.
func (n Numeric) IsInteger() bool {
	return n.Valid && n.Value.Equal(n.Value.Truncate(0))
}

func (n Numeric) String() string {
	if !n.Valid {
		return ""
	}
	return n.Value.String()
}

func (n Numeric) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return []byte(n.Value.String()), nil
}

func (n *Numeric) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*n = Numeric{}
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			*n = Numeric{}
			return nil
		}
		*n = ParseNumeric(s)
	default:
		*n = ParseNumeric(string(b))
	}
	return nil
}
