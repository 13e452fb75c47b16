package rpc

import (
	"context"
	"fmt"
	"net/url"
)

// ValidatorStateLimit is the page size used when walking the validator set.
const ValidatorStateLimit = 200

// Bond statuses accepted by the validator set listing.
const (
	BondStatusBonded    = "BOND_STATUS_BONDED"
	BondStatusUnbonding = "BOND_STATUS_UNBONDING"
	BondStatusUnbonded  = "BOND_STATUS_UNBONDED"
)

type paginationMeta struct {
	NextKey string `json:"next_key"`
	Total   string `json:"total"`
}

// Validators fetches one page of the validator set for the given bond status.
// pageKey is the opaque pagination key from the previous page, empty for the
// first page.
func (c *Client) Validators(ctx context.Context, status, pageKey string) (*ValidatorsPage, error) {
	v := url.Values{}
	v.Set("status", status)
	v.Set("pagination.limit", fmt.Sprintf("%d", ValidatorStateLimit))
	if pageKey != "" {
		v.Set("pagination.key", pageKey)
	}

	var resp struct {
		Validators []ValidatorInfo `json:"validators"`
		Pagination paginationMeta  `json:"pagination"`
	}
	if err := c.getJSON(ctx, validatorsPath, v, &resp); err != nil {
		return nil, fmt.Errorf("validators %s: %w", status, err)
	}
	return &ValidatorsPage{Validators: resp.Validators, NextKey: resp.Pagination.NextKey}, nil
}

// Validator fetches a single validator by operator address.
func (c *Client) Validator(ctx context.Context, operator string) (*ValidatorInfo, error) {
	var resp struct {
		Validator ValidatorInfo `json:"validator"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf(validatorPath, url.PathEscape(operator)), nil, &resp); err != nil {
		return nil, fmt.Errorf("validator %s: %w", operator, err)
	}
	return &resp.Validator, nil
}

// DelegatorCount returns the number of delegations to a validator, using the
// pagination total rather than walking the whole list.
func (c *Client) DelegatorCount(ctx context.Context, operator string) (int64, error) {
	v := url.Values{}
	v.Set("pagination.limit", "1")
	v.Set("pagination.count_total", "true")

	var resp struct {
		Pagination paginationMeta `json:"pagination"`
	}
	path := fmt.Sprintf(validatorDelegationsPath, url.PathEscape(operator))
	if err := c.getJSON(ctx, path, v, &resp); err != nil {
		return 0, fmt.Errorf("delegations %s: %w", operator, err)
	}
	return parseInt(resp.Pagination.Total), nil
}
