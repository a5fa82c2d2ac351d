package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Price is either a concrete amount or a marker that the item is sold on
// quote. The zero value is quote-required.
type Price struct {
	amount decimal.Decimal
	priced bool
}

// Priced returns a price carrying amount.
func Priced(amount decimal.Decimal) Price {
	return Price{amount: amount, priced: true}
}

// PricedFromString parses a decimal string such as "9.99".
func PricedFromString(s string) (Price, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Price{}, fmt.Errorf("%w: %v", ErrInvalidPrice, err)
	}
	return Priced(d), nil
}

// QuoteRequired returns a price for items that have no list price.
func QuoteRequired() Price {
	return Price{}
}

// Amount returns the amount and whether the price is set.
func (p Price) Amount() (decimal.Decimal, bool) {
	return p.amount, p.priced
}

// IsQuote reports whether the item must be quoted.
func (p Price) IsQuote() bool {
	return !p.priced
}

// Equal compares two prices by value.
func (p Price) Equal(o Price) bool {
	if p.priced != o.priced {
		return false
	}
	return !p.priced || p.amount.Equal(o.amount)
}

func (p Price) String() string {
	if !p.priced {
		return "quote"
	}
	return p.amount.StringFixed(2)
}

// MarshalJSON writes a number, or null for quote-required.
func (p Price) MarshalJSON() ([]byte, error) {
	if !p.priced {
		return []byte("null"), nil
	}
	return []byte(p.amount.String()), nil
}

// UnmarshalJSON accepts numbers, numeric strings, null and the non-finite
// strings older clients persisted ("NaN", "Infinity").
func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = QuoteRequired()
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPrice, err)
		}
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "", "nan", "infinity", "+infinity", "-infinity", "inf":
			*p = QuoteRequired()
			return nil
		}
		parsed, err := PricedFromString(s)
		if err != nil {
			return err
		}
		*p = parsed
		return nil
	}
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPrice, err)
	}
	*p = Priced(d)
	return nil
}
