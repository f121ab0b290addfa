// Package wallet is the boundary to the signer that moves native currency.
package wallet

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=wallet.go -destination=mocks/bridge_mock.go -package=mocks Bridge

// Bridge submits native-currency transfers on behalf of the signing wallet
type Bridge interface {
	// Address of the signing wallet
	Address(ctx context.Context) (string, error)
	// SendValue broadcasts a transfer of amount smallest units and returns its transaction id
	SendValue(ctx context.Context, to string, amount uint64) (string, error)
	// AwaitConfirmation blocks until the transaction is confirmed or has failed
	AwaitConfirmation(ctx context.Context, txID string) (*Receipt, error)
}

// Receipt describes a confirmed transfer
type Receipt struct {
	TxID string `json:"txId"`
	Slot uint64 `json:"slot"`
}

// ParseAmount parses a display amount and requires it to be positive
func ParseAmount(amount string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("amount %q is not a number", amount)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("amount %q must be greater than zero", amount)
	}
	return d, nil
}

// ToSmallestUnit converts a display amount with the given number of decimals
// into an integer count of smallest units. Fractions of a unit are refused.
func ToSmallestUnit(amount string, decimals int32) (uint64, error) {
	d, err := ParseAmount(amount)
	if err != nil {
		return 0, err
	}
	units := d.Shift(decimals)
	if !units.Equal(units.Truncate(0)) {
		return 0, fmt.Errorf("amount %q has more than %d decimal places", amount, decimals)
	}
	n := units.BigInt()
	if !n.IsUint64() {
		return 0, fmt.Errorf("amount %q is too large", amount)
	}
	return n.Uint64(), nil
}
