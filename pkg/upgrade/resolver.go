// Package upgrade reconciles governance proposals and the upgrade module's
// live plan endpoint into a single forecast of the next chain upgrade, plus
// an append-only ledger of every upgrade plan ever seen.
package upgrade

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valscope/valscope/pkg/db/models"
	"github.com/valscope/valscope/pkg/rpc"
	"go.uber.org/zap"
)

const (
	proposalLimit = 50
	// sampleOffset is how far behind the head the resolver samples a block
	// to estimate average block time.
	sampleOffset = 2000
	// fallbackBlockTime is used when no sample is available.
	fallbackBlockTime = time.Second
)

// ChainAPI is the read surface the resolver needs.
type ChainAPI interface {
	LatestBlock(ctx context.Context) (*rpc.Block, error)
	BlockByHeight(ctx context.Context, height int64) (*rpc.Block, error)
	Proposals(ctx context.Context, limit int) ([]rpc.Proposal, error)
	CurrentPlan(ctx context.Context) (*rpc.UpgradePlan, error)
}

// Store is the upgrade persistence surface.
type Store interface {
	UpsertUpgradeHistory(ctx context.Context, e *models.UpgradeHistoryEntry) error
	SetActiveUpgrade(ctx context.Context, u *models.ActiveUpgrade) error
	ClearActiveUpgrade(ctx context.Context) error
}

// Resolver computes the active upgrade forecast for one chain.
type Resolver struct {
	api    ChainAPI
	store  Store
	logger *zap.Logger

	now          func() time.Time
	sampleOffset int64
}

func New(api ChainAPI, store Store, logger *zap.Logger) *Resolver {
	return &Resolver{
		api:          api,
		store:        store,
		logger:       logger,
		now:          time.Now,
		sampleOffset: sampleOffset,
	}
}

// candidate is one upgrade plan extracted from governance, with its proposal
// provenance.
type candidate struct {
	plan          rpc.UpgradePlan
	votingStart   *time.Time
	proposalID    string
	proposalTitle string
}

// Resolve runs one reconciliation pass: refresh the upgrade ledger from
// recent proposals, then replace or clear the active upgrade singleton.
// Individual stages degrade to the next one rather than failing the pass;
// only an unreachable chain head is fatal.
func (r *Resolver) Resolve(ctx context.Context) error {
	head, err := r.api.LatestBlock(ctx)
	if err != nil {
		return fmt.Errorf("resolve upgrades: %w", err)
	}
	avg := r.avgBlockTime(ctx, head)

	candidates := r.collectFromProposals(ctx, head, avg)

	active := pickNearestFuture(candidates, head.Height)
	if active == nil {
		active = r.currentPlanCandidate(ctx, head)
	}
	if active == nil {
		if err := r.store.ClearActiveUpgrade(ctx); err != nil {
			return fmt.Errorf("clear active upgrade: %w", err)
		}
		return nil
	}

	delta := active.plan.HeightInt() - head.Height
	if delta < 0 {
		delta = 0
	}
	// Projections anchor to the head block's own timestamp, so a stale head
	// yields an ETA consistent with the chain's clock rather than ours.
	forecast := &models.ActiveUpgrade{
		PlanName:      active.plan.Name,
		TargetHeight:  active.plan.HeightInt(),
		VotingStart:   active.votingStart,
		EstimatedTime: head.Time.UTC().Add(time.Duration(delta) * avg),
		Info:          active.plan.Info,
		LastChecked:   r.now().UTC(),
	}
	if err := r.store.SetActiveUpgrade(ctx, forecast); err != nil {
		return fmt.Errorf("set active upgrade: %w", err)
	}

	r.logger.Info("Active upgrade forecast",
		zap.String("plan", forecast.PlanName),
		zap.Int64("target_height", forecast.TargetHeight),
		zap.Time("estimated_time", forecast.EstimatedTime))
	return nil
}

// avgBlockTime estimates block time from the spread between the head and a
// block sampleOffset heights behind it.
func (r *Resolver) avgBlockTime(ctx context.Context, head *rpc.Block) time.Duration {
	sample := head.Height - r.sampleOffset
	if sample < 1 {
		sample = 1
	}
	if sample >= head.Height {
		return fallbackBlockTime
	}

	past, err := r.api.BlockByHeight(ctx, sample)
	if err != nil {
		r.logger.Warn("Block time sample unavailable", zap.Int64("height", sample), zap.Error(err))
		return fallbackBlockTime
	}

	avg := head.Time.Sub(past.Time) / time.Duration(head.Height-sample)
	if avg <= 0 {
		return fallbackBlockTime
	}
	return avg
}

// collectFromProposals extracts upgrade plans from the newest proposals and
// upserts each one into the upgrade ledger.
func (r *Resolver) collectFromProposals(ctx context.Context, head *rpc.Block, avg time.Duration) []candidate {
	proposals, err := r.api.Proposals(ctx, proposalLimit)
	if err != nil {
		r.logger.Warn("Proposal listing unavailable", zap.Error(err))
		return nil
	}

	var out []candidate
	for _, p := range proposals {
		plan, ok := extractPlan(p)
		if !ok {
			continue
		}

		c := candidate{
			plan:          plan,
			votingStart:   timePtr(p.VotingStart),
			proposalID:    p.ID,
			proposalTitle: p.Title,
		}
		if err := r.recordHistory(ctx, head, avg, c); err != nil {
			r.logger.Warn("Upgrade ledger write failed",
				zap.String("plan", plan.Name), zap.Error(err))
		}
		out = append(out, c)
	}
	return out
}

// recordHistory upserts one ledger entry, resolving completed plans to their
// actual upgrade time.
func (r *Resolver) recordHistory(ctx context.Context, head *rpc.Block, avg time.Duration, c candidate) error {
	entry := &models.UpgradeHistoryEntry{
		PlanName:      c.plan.Name,
		TargetHeight:  c.plan.HeightInt(),
		VotingStart:   c.votingStart,
		ProposalID:    c.proposalID,
		ProposalTitle: c.proposalTitle,
		Status:        models.UpgradeStatusScheduled,
	}

	if entry.TargetHeight <= head.Height {
		entry.Status = models.UpgradeStatusCompleted
		entry.ActualUpgradeTime = r.actualUpgradeTime(ctx, head, avg, entry.TargetHeight)
	}

	return r.store.UpsertUpgradeHistory(ctx, entry)
}

// actualUpgradeTime fetches the target block's timestamp, extrapolating
// backwards from the head when the node no longer serves that block.
func (r *Resolver) actualUpgradeTime(ctx context.Context, head *rpc.Block, avg time.Duration, target int64) *time.Time {
	if block, err := r.api.BlockByHeight(ctx, target); err == nil {
		ts := block.Time.UTC()
		return &ts
	}
	ts := head.Time.UTC().Add(-time.Duration(head.Height-target) * avg)
	return &ts
}

// currentPlanCandidate consults the upgrade module's live plan when
// governance yields no future plan. Past plans are stale leftovers and are
// ignored.
func (r *Resolver) currentPlanCandidate(ctx context.Context, head *rpc.Block) *candidate {
	plan, err := r.api.CurrentPlan(ctx)
	if err != nil {
		r.logger.Warn("Current plan unavailable", zap.Error(err))
		return nil
	}
	if plan == nil || plan.HeightInt() <= head.Height {
		return nil
	}

	c := &candidate{plan: *plan}
	if err := r.store.UpsertUpgradeHistory(ctx, &models.UpgradeHistoryEntry{
		PlanName:     plan.Name,
		TargetHeight: plan.HeightInt(),
		Status:       models.UpgradeStatusScheduled,
	}); err != nil {
		r.logger.Warn("Upgrade ledger write failed", zap.String("plan", plan.Name), zap.Error(err))
	}
	return c
}

// pickNearestFuture selects the future plan with the lowest target height,
// breaking ties by the most recent voting start.
func pickNearestFuture(candidates []candidate, currentHeight int64) *candidate {
	var best *candidate
	for i := range candidates {
		c := &candidates[i]
		h := c.plan.HeightInt()
		if h <= currentHeight {
			continue
		}
		switch {
		case best == nil:
			best = c
		case h < best.plan.HeightInt():
			best = c
		case h == best.plan.HeightInt() && laterVotingStart(c, best):
			best = c
		}
	}
	return best
}

func laterVotingStart(a, b *candidate) bool {
	if a.votingStart == nil {
		return false
	}
	if b.votingStart == nil {
		return true
	}
	return a.votingStart.After(*b.votingStart)
}

// extractPlan pulls an upgrade plan out of a proposal, trying the gov v1
// message forms first and the v1beta1 content form last.
func extractPlan(p rpc.Proposal) (rpc.UpgradePlan, bool) {
	for _, raw := range p.Messages {
		var typed rpc.TypedMessage
		if err := json.Unmarshal(raw, &typed); err != nil {
			continue
		}
		switch typed.Type {
		case rpc.MsgSoftwareUpgradeType:
			var msg struct {
				Plan rpc.UpgradePlan `json:"plan"`
			}
			if err := json.Unmarshal(raw, &msg); err == nil && validPlan(msg.Plan) {
				return msg.Plan, true
			}
		case rpc.MsgExecLegacyContentType:
			var msg struct {
				Content struct {
					Plan rpc.UpgradePlan `json:"plan"`
				} `json:"content"`
			}
			if err := json.Unmarshal(raw, &msg); err == nil && validPlan(msg.Content.Plan) {
				return msg.Content.Plan, true
			}
		}
	}

	if len(p.Content) > 0 {
		var content struct {
			Plan rpc.UpgradePlan `json:"plan"`
		}
		if err := json.Unmarshal(p.Content, &content); err == nil && validPlan(content.Plan) {
			return content.Plan, true
		}
	}

	return rpc.UpgradePlan{}, false
}

func validPlan(p rpc.UpgradePlan) bool {
	return p.Name != "" && p.HeightInt() > 0
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
