package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Token is an entry of a network token list.
type Token struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	Decimals int32  `json:"decimals"`
	LogoURL  string `json:"logo,omitempty"`
	System   bool   `json:"system,omitempty"`
}

// FormatAmount renders a raw integer amount with the token precision.
func (t Token) FormatAmount(raw string) (string, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return "", fmt.Errorf("invalid amount %q for %s: %w", raw, t.Symbol, err)
	}
	return d.Shift(-t.Decimals).StringFixed(t.Decimals), nil
}

// ParseAmount converts a formatted amount into its raw integer form.
func (t Token) ParseAmount(formatted string) (string, error) {
	d, err := decimal.NewFromString(formatted)
	if err != nil {
		return "", fmt.Errorf("invalid amount %q for %s: %w", formatted, t.Symbol, err)
	}
	raw := d.Shift(t.Decimals)
	if !raw.Equal(raw.Truncate(0)) {
		return "", fmt.Errorf("amount %q exceeds %d decimals of %s", formatted, t.Decimals, t.Symbol)
	}
	return raw.String(), nil
}

// Balance is an amount of a token held by an account.
type Balance struct {
	Token     Token  `json:"token"`
	Raw       string `json:"raw"`
	Formatted string `json:"formatted"`
}

// NewBalance builds a balance from a raw amount.
func NewBalance(token Token, raw string) (Balance, error) {
	formatted, err := token.FormatAmount(raw)
	if err != nil {
		return Balance{}, err
	}
	return Balance{Token: token, Raw: raw, Formatted: formatted}, nil
}
