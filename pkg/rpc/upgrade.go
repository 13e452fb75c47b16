package rpc

import (
	"context"
	"fmt"
)

// CurrentPlan fetches the upgrade module's live plan across both endpoint
// shapes. Returns (nil, nil) when no plan is scheduled.
func (c *Client) CurrentPlan(ctx context.Context) (*UpgradePlan, error) {
	var resp struct {
		Plan *UpgradePlan `json:"plan"`
	}
	paths := []string{currentPlanV1Beta1Path, currentPlanV1Path}
	if err := c.getFirst(ctx, paths, nil, &resp); err != nil {
		return nil, fmt.Errorf("current plan: %w", err)
	}
	return resp.Plan, nil
}
