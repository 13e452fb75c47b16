package processor

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valscope/valscope/pkg/db/models"
	"github.com/valscope/valscope/pkg/rpc"
	"go.uber.org/zap"
)

const testPrefix = "cosmosvaloper"

func voterPair(t *testing.T, seed byte) (account, operator string) {
	t.Helper()
	raw := make([]byte, 20)
	for i := range raw {
		raw[i] = seed + byte(i)
	}
	data, err := bech32.ConvertBits(raw, 8, 5, true)
	require.NoError(t, err)
	account, err = bech32.Encode("cosmos", data)
	require.NoError(t, err)
	operator, err = bech32.Encode(testPrefix, data)
	require.NoError(t, err)
	return account, operator
}

func voteMsg(msgType, proposalID, voter string, option any) map[string]any {
	return map[string]any{
		"@type":       msgType,
		"proposal_id": proposalID,
		"voter":       voter,
		"option":      option,
	}
}

func seedValidator(t *testing.T, store *fakeStore, operator string) {
	t.Helper()
	require.NoError(t, store.UpsertValidator(context.Background(), &models.Validator{
		OperatorAddress: operator,
		Moniker:         "Atlas",
		LastUpdated:     time.Now().UTC(),
	}))
}

func TestVoteRecordsKnownValidator(t *testing.T) {
	store := newFakeStore()
	account, operator := voterPair(t, 0x10)
	seedValidator(t, store, operator)
	p := NewVote(store, testPrefix, zap.NewNop())

	page := []rpc.TxResult{
		makeTx(t, "TX1", 10, voteMsg(rpc.MsgVoteV1Type, "42", account, "VOTE_OPTION_YES")),
	}
	n, err := p.Process(context.Background(), page)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	vote := store.votes["42|"+operator]
	require.NotNil(t, vote)
	assert.Equal(t, "YES", vote.Option)
	assert.Equal(t, "TX1", vote.TxHash)
}

func TestVoteUnknownValidatorDropped(t *testing.T) {
	store := newFakeStore()
	account, _ := voterPair(t, 0x20)
	p := NewVote(store, testPrefix, zap.NewNop())

	page := []rpc.TxResult{
		makeTx(t, "TX1", 10, voteMsg(rpc.MsgVoteV1Beta1Type, "42", account, 1)),
	}
	n, err := p.Process(context.Background(), page)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Empty(t, store.votes)
}

func TestVoteFirstWins(t *testing.T) {
	store := newFakeStore()
	account, operator := voterPair(t, 0x30)
	seedValidator(t, store, operator)
	p := NewVote(store, testPrefix, zap.NewNop())

	page := []rpc.TxResult{
		makeTx(t, "TX1", 10, voteMsg(rpc.MsgVoteV1Type, "7", account, "VOTE_OPTION_NO")),
		makeTx(t, "TX2", 11, voteMsg(rpc.MsgVoteV1Type, "7", account, "VOTE_OPTION_YES")),
	}
	n, err := p.Process(context.Background(), page)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	vote := store.votes["7|"+operator]
	require.NotNil(t, vote)
	assert.Equal(t, "NO", vote.Option, "first recorded vote wins")
	assert.Equal(t, "TX1", vote.TxHash)
}

func TestVoteWeightedUsesFirstOption(t *testing.T) {
	store := newFakeStore()
	account, operator := voterPair(t, 0x40)
	seedValidator(t, store, operator)
	p := NewVote(store, testPrefix, zap.NewNop())

	msg := map[string]any{
		"@type":       rpc.MsgVoteWeightedV1Type,
		"proposal_id": "9",
		"voter":       account,
		"options": []map[string]any{
			{"option": "VOTE_OPTION_ABSTAIN", "weight": "0.7"},
			{"option": "VOTE_OPTION_NO", "weight": "0.3"},
		},
	}
	page := []rpc.TxResult{makeTx(t, "TX1", 10, msg)}
	n, err := p.Process(context.Background(), page)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "ABSTAIN", store.votes["9|"+operator].Option)
}

func TestNormalizeVoteOption(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "symbolic with prefix", raw: `"VOTE_OPTION_NO_WITH_VETO"`, want: "NO_WITH_VETO"},
		{name: "symbolic bare", raw: `"YES"`, want: "YES"},
		{name: "numeric yes", raw: `1`, want: "YES"},
		{name: "numeric abstain", raw: `2`, want: "ABSTAIN"},
		{name: "numeric no", raw: `3`, want: "NO"},
		{name: "numeric veto", raw: `4`, want: "NO_WITH_VETO"},
		{name: "numeric unspecified", raw: `0`, want: "UNSPECIFIED"},
		{name: "numeric out of range", raw: `9`, want: "UNKNOWN"},
		{name: "unrecognized string", raw: `"MAYBE"`, want: "UNKNOWN"},
		{name: "missing", raw: ``, want: "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeVoteOption(json.RawMessage(tt.raw)))
		})
	}
}

func TestVoteBadVoterAddressSkipped(t *testing.T) {
	store := newFakeStore()
	p := NewVote(store, testPrefix, zap.NewNop())

	page := []rpc.TxResult{
		makeTx(t, "TX1", 10, voteMsg(rpc.MsgVoteV1Type, "42", "garbage-address", 1)),
	}
	n, err := p.Process(context.Background(), page)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
