package wallet

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Unit is the denomination of a user-entered amount.
type Unit string

const (
	UnitSats Unit = "sats"
	UnitBTC  Unit = "btc"
)

// SatsPerBTC is the number of satoshi in one bitcoin.
const SatsPerBTC = 100_000_000

var satsPerBTC = decimal.NewFromInt(SatsPerBTC)

// ParseAmount converts user input into satoshi. BTC amounts are floored to
// whole satoshi. An empty unit is treated as sats.
func ParseAmount(text string, unit Unit) (int64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, newError(KindInvalidAmount, "Invalid amount", nil)
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return 0, newError(KindInvalidAmount, "Invalid amount", err)
	}

	switch Unit(strings.ToLower(string(unit))) {
	case UnitBTC:
		d = d.Mul(satsPerBTC)
	case UnitSats, "":
	default:
		return 0, newError(KindInvalidAmount, "unknown amount unit "+string(unit), nil)
	}

	sats := d.Floor()
	if !sats.IsPositive() {
		return 0, ErrInvalidAmount
	}
	if !sats.LessThanOrEqual(decimal.NewFromInt(maxSats)) {
		return 0, newError(KindInvalidAmount, "Invalid amount", nil)
	}
	return sats.IntPart(), nil
}

// maxSats is the 21M BTC supply cap.
const maxSats = 21_000_000 * SatsPerBTC

// FormatBTC renders satoshi as a fixed 8-decimal BTC string.
func FormatBTC(sats int64) string {
	return decimal.NewFromInt(sats).Div(satsPerBTC).StringFixed(8)
}
