package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const nanosPerCent = 10_000_000

// Money mirrors the catalog's currency-subunit representation
type Money struct {
	CurrencyCode string `json:"currencyCode,omitempty"`
	Units        int64  `json:"units"`
	Nanos        int32  `json:"nanos"` // 0..999_999_999
}

// String renders the price as dollars and cents. Nanos below one cent truncate to "00", they are never rounded.
func (m Money) String() string {
	return fmt.Sprintf("$%d.%02d", m.Units, m.Nanos/nanosPerCent)
}

// Decimal returns the exact amount as a decimal value
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Units, 0).Add(decimal.New(int64(m.Nanos), -9))
}

// MoneyFromDecimal converts a decimal amount back into units and nanos
func MoneyFromDecimal(d decimal.Decimal, currencyCode string) Money {
	units := d.Truncate(0)
	nanos := d.Sub(units).Shift(9).Truncate(0)
	return Money{
		CurrencyCode: currencyCode,
		Units:        units.IntPart(),
		Nanos:        int32(nanos.IntPart()),
	}
}

// Product is an immutable catalog snapshot entry
type Product struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       Money    `json:"price"`
	Categories  []string `json:"categories"`
}

// CartLine is a single line of a user's cart. The cart service owns it; it is re-fetched on every request.
type CartLine struct {
	ProductID string `json:"productId"`
	Quantity  int32  `json:"quantity"`
}
