// Package address converts between the account and operator encodings of a
// validator identity. Both bech32 forms carry the same underlying key
// material; only the human-readable prefix differs.
package address

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

// ToOperator re-encodes a bech32 account address under the chain's operator
// (valoper) prefix.
func ToOperator(accountAddr, operatorPrefix string) (string, error) {
	_, data, err := bech32.Decode(accountAddr)
	if err != nil {
		return "", fmt.Errorf("decode account address %q: %w", accountAddr, err)
	}

	operator, err := bech32.Encode(operatorPrefix, data)
	if err != nil {
		return "", fmt.Errorf("encode operator address: %w", err)
	}
	return operator, nil
}
