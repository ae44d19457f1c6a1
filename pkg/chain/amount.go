package chain

import (
	"fmt"
	"math/big"
	"strings"
)

// ToBaseUnits converts a human-readable decimal amount to the token's
// smallest unit. The conversion is exact: amounts with more fractional
// digits than the token supports are rejected rather than truncated.
func ToBaseUnits(amount string, decimals uint8) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return nil, fmt.Errorf("empty amount")
	}

	whole := amount
	frac := ""
	if i := strings.IndexByte(amount, '.'); i >= 0 {
		whole = amount[:i]
		frac = amount[i+1:]
		if strings.IndexByte(frac, '.') >= 0 {
			return nil, fmt.Errorf("invalid amount format: %s", amount)
		}
	}
	if whole == "" {
		whole = "0"
	}

	if len(frac) > int(decimals) {
		return nil, fmt.Errorf("amount %s has more than %d decimal places", amount, decimals)
	}

	// Pad the fraction out to the token's precision and parse as one integer.
	padded := whole + frac + strings.Repeat("0", int(decimals)-len(frac))

	result, ok := new(big.Int).SetString(padded, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount format: %s", amount)
	}
	if result.Sign() < 0 {
		return nil, fmt.Errorf("amount must be positive: %s", amount)
	}

	return result, nil
}
