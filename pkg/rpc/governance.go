package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"
)

type govV1Proposal struct {
	ID              string            `json:"id"`
	Title           string            `json:"title"`
	Status          string            `json:"status"`
	Messages        []json.RawMessage `json:"messages"`
	VotingStartTime *time.Time        `json:"voting_start_time"`
}

type govV1Beta1Proposal struct {
	ProposalID      string          `json:"proposal_id"`
	Status          string          `json:"status"`
	Content         json.RawMessage `json:"content"`
	VotingStartTime *time.Time      `json:"voting_start_time"`
}

// Proposals fetches the most recent governance proposals, newest first,
// normalizing across the gov v1 and v1beta1 list shapes.
func (c *Client) Proposals(ctx context.Context, limit int) ([]Proposal, error) {
	if limit <= 0 {
		limit = 50
	}
	v := url.Values{}
	v.Set("pagination.limit", fmt.Sprintf("%d", limit))
	v.Set("pagination.reverse", "true")

	var v1Resp struct {
		Proposals []govV1Proposal `json:"proposals"`
	}
	err := c.getJSON(ctx, proposalsV1Path, v, &v1Resp)
	if err == nil {
		out := make([]Proposal, 0, len(v1Resp.Proposals))
		for _, p := range v1Resp.Proposals {
			out = append(out, Proposal{
				ID:          p.ID,
				Title:       p.Title,
				Status:      p.Status,
				VotingStart: derefTime(p.VotingStartTime),
				Messages:    p.Messages,
			})
		}
		return out, nil
	}
	if !errors.Is(err, ErrUnavailable) {
		return nil, fmt.Errorf("proposals: %w", err)
	}

	var v1beta1Resp struct {
		Proposals []govV1Beta1Proposal `json:"proposals"`
	}
	if err := c.getJSON(ctx, proposalsV1Beta1Path, v, &v1beta1Resp); err != nil {
		return nil, fmt.Errorf("proposals: %w", err)
	}

	out := make([]Proposal, 0, len(v1beta1Resp.Proposals))
	for _, p := range v1beta1Resp.Proposals {
		out = append(out, Proposal{
			ID:          p.ProposalID,
			Title:       contentTitle(p.Content),
			Status:      p.Status,
			VotingStart: derefTime(p.VotingStartTime),
			Content:     p.Content,
		})
	}
	return out, nil
}

func contentTitle(content json.RawMessage) string {
	if len(content) == 0 {
		return ""
	}
	var c struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal(content, &c); err != nil {
		return ""
	}
	return c.Title
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
