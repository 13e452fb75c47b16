package rpc

import (
	"context"
	"fmt"
	"time"
)

type blockResponse struct {
	Block struct {
		Header struct {
			Height string    `json:"height"`
			Time   time.Time `json:"time"`
		} `json:"header"`
	} `json:"block"`
}

func (r *blockResponse) normalize() (*Block, error) {
	h := parseInt(r.Block.Header.Height)
	if h == 0 {
		return nil, fmt.Errorf("block response missing height")
	}
	return &Block{Height: h, Time: r.Block.Header.Time}, nil
}

// LatestBlock fetches the chain head, falling back to the v1 endpoint shape
// when the v1beta1 one is not served.
func (c *Client) LatestBlock(ctx context.Context) (*Block, error) {
	var resp blockResponse
	if err := c.getFirst(ctx, []string{latestBlockPath, latestBlockV1Path}, nil, &resp); err != nil {
		return nil, fmt.Errorf("latest block: %w", err)
	}
	return resp.normalize()
}

// BlockByHeight fetches the block at a specific height across both endpoint
// shapes.
func (c *Client) BlockByHeight(ctx context.Context, height int64) (*Block, error) {
	paths := []string{
		fmt.Sprintf(blockByHeightPath, height),
		fmt.Sprintf(blockByHeightV1Path, height),
	}
	var resp blockResponse
	if err := c.getFirst(ctx, paths, nil, &resp); err != nil {
		return nil, fmt.Errorf("block %d: %w", height, err)
	}
	return resp.normalize()
}
