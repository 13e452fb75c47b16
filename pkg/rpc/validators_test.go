package rpc

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatorsPagination(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/cosmos/staking/v1beta1/validators", r.URL.Path)
		assert.Equal(t, BondStatusBonded, r.URL.Query().Get("status"))
		assert.Equal(t, "200", r.URL.Query().Get("pagination.limit"))

		if r.URL.Query().Get("pagination.key") == "" {
			_, _ = w.Write([]byte(`{"validators":[
				{"operator_address":"cosmosvaloper1aaa","description":{"moniker":"alpha"},
				 "commission":{"commission_rates":{"rate":"0.100000000000000000"}},"tokens":"1000"}
			],"pagination":{"next_key":"page2","total":"2"}}`))
			return
		}
		assert.Equal(t, "page2", r.URL.Query().Get("pagination.key"))
		_, _ = w.Write([]byte(`{"validators":[
			{"operator_address":"cosmosvaloper1bbb","description":{"moniker":"beta"}}
		],"pagination":{"next_key":"","total":"2"}}`))
	}))

	page, err := client.Validators(context.Background(), BondStatusBonded, "")
	require.NoError(t, err)
	require.Len(t, page.Validators, 1)
	assert.Equal(t, "alpha", page.Validators[0].Description.Moniker)
	assert.Equal(t, "0.100000000000000000", page.Validators[0].Commission.CommissionRates.Rate)
	require.Equal(t, "page2", page.NextKey)

	page, err = client.Validators(context.Background(), BondStatusBonded, page.NextKey)
	require.NoError(t, err)
	require.Len(t, page.Validators, 1)
	assert.Empty(t, page.NextKey)
}

func TestDelegatorCount(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/cosmos/staking/v1beta1/validators/cosmosvaloper1aaa/delegations", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("pagination.limit"))
		assert.Equal(t, "true", r.URL.Query().Get("pagination.count_total"))
		_, _ = w.Write([]byte(`{"delegation_responses":[],"pagination":{"next_key":"","total":"345"}}`))
	}))

	count, err := client.DelegatorCount(context.Background(), "cosmosvaloper1aaa")
	require.NoError(t, err)
	assert.Equal(t, int64(345), count)
}

func TestValidatorByOperator(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/cosmos/staking/v1beta1/validators/cosmosvaloper1aaa", r.URL.Path)
		_, _ = w.Write([]byte(`{"validator":{"operator_address":"cosmosvaloper1aaa","tokens":"12345"}}`))
	}))

	val, err := client.Validator(context.Background(), "cosmosvaloper1aaa")
	require.NoError(t, err)
	assert.Equal(t, "12345", val.Tokens)
}
