package utils

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

// EtherDecimals is the smallest-unit scale of the native currency.
const EtherDecimals uint8 = 18

// FormatBigInt converts a smallest-unit amount to a decimal string.
// At least one fractional digit is always rendered and trailing zeros are trimmed.
// Example: amount=2500000000000000000, decimals=18 => "2.5"; amount=0 => "0.0".
func FormatBigInt(amount *big.Int, decimals uint8) string {
	if amount == nil {
		return "0.0"
	}

	neg := amount.Sign() < 0
	digits := new(big.Int).Abs(amount).String()

	if decimals == 0 {
		digits += ".0"
	} else {
		if len(digits) <= int(decimals) {
			digits = strings.Repeat("0", int(decimals)-len(digits)+1) + digits
		}
		split := len(digits) - int(decimals)
		whole, frac := digits[:split], strings.TrimRight(digits[split:], "0")
		if frac == "" {
			frac = "0"
		}
		digits = whole + "." + frac
	}

	if neg {
		return "-" + digits
	}
	return digits
}

// ParseBigInt converts a decimal string to its smallest-unit integer.
// It accepts an optional leading '-', digits and at most one '.', with at most
// decimals fractional digits. ".5" and "5." are accepted; "" and "." are not.
func ParseBigInt(value string, decimals uint8) (*big.Int, error) {
	s := strings.TrimSpace(value)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	whole, frac, _ := strings.Cut(s, ".")
	if strings.Contains(frac, ".") {
		return nil, fmt.Errorf("invalid decimal value %q: multiple decimal points", value)
	}
	if whole == "" && frac == "" {
		return nil, fmt.Errorf("invalid decimal value %q: no digits", value)
	}
	if !isDigits(whole) || !isDigits(frac) {
		return nil, fmt.Errorf("invalid decimal value %q: unexpected character", value)
	}
	if len(frac) > int(decimals) {
		return nil, fmt.Errorf("invalid decimal value %q: fractional component exceeds %d decimals", value, decimals)
	}
	if whole == "" {
		whole = "0"
	}
	combined := whole + frac + strings.Repeat("0", int(decimals)-len(frac))

	result, ok := new(big.Int).SetString(combined, 10)
	if !ok {
		return nil, fmt.Errorf("invalid decimal value %q", value)
	}
	if neg {
		result.Neg(result)
	}
	return result, nil
}

// ToUint256 checks that amount is a non-negative value fitting in one EVM word.
func ToUint256(amount *big.Int) (*uint256.Int, error) {
	if amount == nil || amount.Sign() < 0 {
		return nil, fmt.Errorf("amount %v is negative", amount)
	}
	v, overflow := uint256.FromBig(amount)
	if overflow {
		return nil, fmt.Errorf("amount %s overflows uint256", amount)
	}
	return v, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
