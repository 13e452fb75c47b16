package address

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustEncode(t *testing.T, hrp string, data []byte) string {
	t.Helper()
	converted, err := bech32.ConvertBits(data, 8, 5, true)
	require.NoError(t, err)
	encoded, err := bech32.Encode(hrp, converted)
	require.NoError(t, err)
	return encoded
}

func TestToOperatorPreservesKeyMaterial(t *testing.T) {
	raw := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a,
		0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10, 0x11, 0x12, 0x13, 0x14}

	account := mustEncode(t, "cosmos", raw)
	wantOperator := mustEncode(t, "cosmosvaloper", raw)

	operator, err := ToOperator(account, "cosmosvaloper")
	require.NoError(t, err)
	assert.Equal(t, wantOperator, operator)
}

func TestToOperatorRoundTrip(t *testing.T) {
	raw := []byte{0xde, 0xad, 0xbe, 0xef, 0x00, 0x11, 0x22, 0x33, 0x44, 0x55,
		0x66, 0x77, 0x88, 0x99, 0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff}

	account := mustEncode(t, "osmo", raw)
	operator, err := ToOperator(account, "osmovaloper")
	require.NoError(t, err)

	hrp, data, err := bech32.Decode(operator)
	require.NoError(t, err)
	assert.Equal(t, "osmovaloper", hrp)

	back, err := bech32.ConvertBits(data, 5, 8, false)
	require.NoError(t, err)
	assert.Equal(t, raw, back)
}

func TestToOperatorInvalidInput(t *testing.T) {
	_, err := ToOperator("not-a-bech32-address", "cosmosvaloper")
	assert.Error(t, err)
}
