package rpc

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// Dialect selects how the tx search filter is encoded.
type Dialect string

const (
	// DialectQuery uses the generic `query` filter expression.
	DialectQuery Dialect = "query"
	// DialectEvents uses repeated structured `events` parameters. Providers
	// that only accept this form also tend to enforce smaller pages.
	DialectEvents Dialect = "events"
)

// PageLimit returns the page size used with the given dialect.
func PageLimit(d Dialect) int {
	if d == DialectEvents {
		return 50
	}
	return 100
}

// TxSearchQuery describes one page request against the tx search endpoint.
type TxSearchQuery struct {
	Action    string
	MinHeight int64
	Dialect   Dialect
	Limit     int
}

// SearchTxs fetches one ascending-ordered page of transactions whose action
// matches q.Action at height >= q.MinHeight.
func (c *Client) SearchTxs(ctx context.Context, q TxSearchQuery) (*TxSearchResponse, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = PageLimit(q.Dialect)
	}

	v := url.Values{}
	switch q.Dialect {
	case DialectEvents:
		v.Add("events", fmt.Sprintf("message.action='%s'", q.Action))
		v.Add("events", fmt.Sprintf("tx.height>=%d", q.MinHeight))
		// Gateways that only speak the events form take their page bound
		// through the pagination params; a flat limit is silently ignored.
		v.Set("pagination.limit", strconv.Itoa(limit))
	default:
		v.Set("query", fmt.Sprintf("message.action='%s' AND tx.height>=%d", q.Action, q.MinHeight))
		v.Set("limit", strconv.Itoa(limit))
	}
	v.Set("order_by", "ORDER_BY_ASC")

	var resp TxSearchResponse
	if err := c.getJSON(ctx, txSearchPath, v, &resp); err != nil {
		return nil, fmt.Errorf("search txs %s: %w", q.Action, err)
	}
	return &resp, nil
}
