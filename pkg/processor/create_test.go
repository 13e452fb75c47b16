package processor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valscope/valscope/pkg/db/models"
	"github.com/valscope/valscope/pkg/rpc"
	"go.uber.org/zap"
)

func TestCreateSynthesizesInitialDiff(t *testing.T) {
	store := newFakeStore()
	p := NewCreateValidator(store, zap.NewNop())

	page := []rpc.TxResult{
		makeTx(t, "TX1", 5, createMsg(testOperator, "Atlas", "0.10")),
	}
	n, err := p.Process(context.Background(), page)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	edits := store.editsFor(testOperator)
	require.Len(t, edits, 1)
	assert.Equal(t, models.FieldChange{From: UnknownValue, To: "Atlas"}, edits[0].Diff[models.FieldMoniker])
	assert.Equal(t, models.FieldChange{From: "0", To: "0.10"}, edits[0].Diff[models.FieldCommissionRate])

	profile := store.validators[testOperator]
	require.NotNil(t, profile)
	assert.Equal(t, "Atlas", profile.Moniker)
	assert.Equal(t, "0.10", profile.CommissionRate)
}

func TestCreateDefaultsMoniker(t *testing.T) {
	store := newFakeStore()
	p := NewCreateValidator(store, zap.NewNop())

	page := []rpc.TxResult{
		makeTx(t, "TX1", 5, createMsg(testOperator, "", "")),
	}
	_, err := p.Process(context.Background(), page)
	require.NoError(t, err)

	edits := store.editsFor(testOperator)
	require.Len(t, edits, 1)
	assert.Equal(t, DefaultMoniker, edits[0].Diff[models.FieldMoniker].To)
	assert.Equal(t, DefaultMoniker, store.validators[testOperator].Moniker)
}

func TestCreateThenEditProvenance(t *testing.T) {
	store := newFakeStore()
	create := NewCreateValidator(store, zap.NewNop())
	edit := NewEditValidator(store, zap.NewNop())

	_, err := create.Process(context.Background(), []rpc.TxResult{
		makeTx(t, "TX1", 5, createMsg(testOperator, "Atlas", "0.10")),
	})
	require.NoError(t, err)

	// The creation event is part of the edit sequence: a later edit diffs
	// against the created values.
	n, err := edit.Process(context.Background(), []rpc.TxResult{
		makeTx(t, "TX2", 50, editMsg(testOperator, map[string]string{"moniker": "Borealis"}, nil)),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	edits := store.editsFor(testOperator)
	require.Len(t, edits, 2)
	assert.Equal(t, models.FieldChange{From: "Atlas", To: "Borealis"}, edits[1].Diff[models.FieldMoniker])
}

func TestCreateReplayIsIdempotent(t *testing.T) {
	store := newFakeStore()
	p := NewCreateValidator(store, zap.NewNop())

	page := []rpc.TxResult{
		makeTx(t, "TX1", 5, createMsg(testOperator, "Atlas", "0.10")),
	}

	n, err := p.Process(context.Background(), page)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = p.Process(context.Background(), page)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Len(t, store.editsFor(testOperator), 1)
}
