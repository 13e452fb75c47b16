package processor

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valscope/valscope/pkg/db/models"
	"go.uber.org/zap"
)

const genesisJSON = `{
	"genesis_time": "2021-06-01T00:00:00Z",
	"app_state": {
		"genutil": {
			"gen_txs": [
				{"body": {"messages": [
					{"@type": "/cosmos.staking.v1beta1.MsgCreateValidator",
					 "validator_address": "cosmosvaloper1gentxaaaa",
					 "description": {"moniker": "GenTx One"},
					 "commission": {"rate": "0.05"}}
				]}}
			]
		},
		"staking": {
			"validators": [
				{"operator_address": "cosmosvaloper1gentxaaaa",
				 "description": {"moniker": "Duplicate Of GenTx"},
				 "commission": {"commission_rates": {"rate": "0.99"}}},
				{"operator_address": "cosmosvaloper1stakebbbb",
				 "description": {"moniker": "Stake Two", "website": "https://two.example"},
				 "commission": {"commission_rates": {"rate": "0.10"}}}
			]
		}
	}
}`

func TestGenesisImport(t *testing.T) {
	store := newFakeStore()
	g := NewGenesisImporter(store, zap.NewNop())

	n, err := g.Import(context.Background(), []byte(genesisJSON))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// First occurrence wins for duplicated operators.
	one := store.validators["cosmosvaloper1gentxaaaa"]
	require.NotNil(t, one)
	assert.Equal(t, "GenTx One", one.Moniker)
	assert.Equal(t, "0.05", one.CommissionRate)

	two := store.validators["cosmosvaloper1stakebbbb"]
	require.NotNil(t, two)
	assert.Equal(t, "https://two.example", two.Website)

	edits := store.editsFor("cosmosvaloper1stakebbbb")
	require.Len(t, edits, 1)
	assert.Equal(t, int64(0), edits[0].BlockHeight)
	assert.Equal(t, GenesisTxHash("cosmosvaloper1stakebbbb"), edits[0].TxHash)
	assert.Equal(t, models.FieldChange{From: UnknownValue, To: "Stake Two"}, edits[0].Diff[models.FieldMoniker])
	// Height-0 records are stamped with the chain's birth time.
	assert.Equal(t, time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC), edits[0].BlockTime)
	assert.Equal(t, time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC), two.LastUpdated)
}

func TestGenesisImportUnwrapsRPCEnvelope(t *testing.T) {
	store := newFakeStore()
	g := NewGenesisImporter(store, zap.NewNop())

	wrapped := fmt.Sprintf(`{"jsonrpc":"2.0","id":-1,"result":{"genesis":%s}}`, genesisJSON)
	n, err := g.Import(context.Background(), []byte(wrapped))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NotNil(t, store.validators["cosmosvaloper1gentxaaaa"])
}

func TestGenesisImportMissingTimeFallsBackToEpoch(t *testing.T) {
	store := newFakeStore()
	g := NewGenesisImporter(store, zap.NewNop())

	doc := `{"app_state":{"staking":{"validators":[
		{"operator_address":"cosmosvaloper1stakebbbb",
		 "description":{"moniker":"Stake Two"}}]}}}`
	n, err := g.Import(context.Background(), []byte(doc))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	edits := store.editsFor("cosmosvaloper1stakebbbb")
	require.Len(t, edits, 1)
	assert.Equal(t, time.Unix(0, 0).UTC(), edits[0].BlockTime)
}

func TestGenesisImportRunsOnce(t *testing.T) {
	store := newFakeStore()
	g := NewGenesisImporter(store, zap.NewNop())

	n, err := g.Import(context.Background(), []byte(genesisJSON))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Height-0 history acts as the already-imported marker.
	n, err = g.Import(context.Background(), []byte(genesisJSON))
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Len(t, store.edits, 2)
}

func TestGenesisTxHash(t *testing.T) {
	assert.Equal(t, "GENESIS_akebbbb1", GenesisTxHash("cosmosvaloper1stakebbbb1"))
	assert.Equal(t, "GENESIS_short", GenesisTxHash("short"))
}
