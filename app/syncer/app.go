// Package syncer wires one process that keeps every configured chain's
// validator activity indexed: checkpointed stream scans, validator state
// sync, upgrade resolution and the daily delegator snapshot, all driven by a
// single cycle loop.
package syncer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/valscope/valscope/pkg/config"
	"github.com/valscope/valscope/pkg/db/chain"
	"github.com/valscope/valscope/pkg/logging"
	"github.com/valscope/valscope/pkg/processor"
	"github.com/valscope/valscope/pkg/rpc"
	"github.com/valscope/valscope/pkg/scanner"
	"github.com/valscope/valscope/pkg/upgrade"
	"go.uber.org/zap"
)

// HeightTrackerStream is the reserved checkpoint key under which the chain's
// observed head height is recorded each cycle. Never used as a scan stream.
const HeightTrackerStream = "chain.height.tracker"

// Options are the process flags.
type Options struct {
	ConfigPath string `long:"config" env:"CONFIG_PATH" default:"chains.yaml" description:"Path to the chains config file"`
}

// App is the assembled syncer process.
type App struct {
	Logger *zap.Logger
	Config *config.Config
	Chains []*chainRuntime
}

// chainRuntime bundles everything one chain needs per cycle.
type chainRuntime struct {
	cfg    config.Chain
	logger *zap.Logger

	db      *chain.DB
	client  *rpc.Client
	scanner *scanner.Scanner
	streams []scanner.Stream

	genesis   *processor.GenesisImporter
	stateSync *processor.StateSync
	resolver  *upgrade.Resolver
	snapshot  *processor.DailySnapshot

	genesisDone bool
}

// Initialize builds the application. Fatal on any wiring failure: a chain
// that cannot be set up at boot is a configuration problem, not a transient
// one.
func Initialize(ctx context.Context) *App {
	logger, err := logging.New()
	if err != nil {
		// nothing else to do here, we'll just log to stderr
		panic(err)
	}

	var opts Options
	if _, err := flags.Parse(&opts); err != nil {
		logger.Fatal("Unable to parse flags", zap.Error(err))
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		logger.Fatal("Unable to load config", zap.Error(err))
	}

	app := &App{Logger: logger, Config: cfg}
	for _, c := range cfg.Chains {
		cr, err := newChainRuntime(ctx, logger, c)
		if err != nil {
			logger.Fatal("Unable to set up chain",
				zap.String("chain", c.Name), zap.Error(err))
		}
		app.Chains = append(app.Chains, cr)
	}

	return app
}

func newChainRuntime(ctx context.Context, logger *zap.Logger, c config.Chain) (*chainRuntime, error) {
	chainLogger := logger.With(zap.String("chain", c.Name))

	db, err := chain.New(ctx, chainLogger, c.ID)
	if err != nil {
		return nil, err
	}

	client := rpc.New(rpc.Opts{BaseURL: c.API}, chainLogger)

	cr := &chainRuntime{
		cfg:    c,
		logger: chainLogger,
		db:     db,
		client: client,
		scanner: scanner.New(client, db, scanner.Config{
			Dialect: rpc.Dialect(c.QueryDialect),
		}, chainLogger),
		genesis:   processor.NewGenesisImporter(db, chainLogger),
		stateSync: processor.NewStateSync(client, db, chainLogger),
		resolver:  upgrade.New(client, db, chainLogger),
		snapshot:  processor.NewDailySnapshot(client, db, chainLogger),
	}

	voteProcessor := processor.NewVote(db, c.ValoperPrefix, chainLogger)
	cr.streams = []scanner.Stream{
		{Action: rpc.MsgCreateValidatorType, Processor: processor.NewCreateValidator(db, chainLogger)},
		{Action: rpc.MsgEditValidatorType, Processor: processor.NewEditValidator(db, chainLogger)},
		{Action: rpc.MsgUnjailType, Processor: processor.NewUnjail(db, chainLogger)},
		{Action: rpc.MsgVoteV1Beta1Type, Processor: voteProcessor},
		{Action: rpc.MsgVoteV1Type, Processor: voteProcessor},
		{Action: rpc.MsgVoteWeightedV1Beta1Type, Processor: voteProcessor},
		{Action: rpc.MsgVoteWeightedV1Type, Processor: voteProcessor},
	}

	return cr, nil
}

// Start runs the cycle loop until the context is canceled.
func (a *App) Start(ctx context.Context) {
	a.Logger.Info("Syncer started",
		zap.Int("chains", len(a.Chains)),
		zap.Duration("cycle_interval", a.Config.CycleInterval))

	for {
		for _, cr := range a.Chains {
			if ctx.Err() != nil {
				a.Stop()
				return
			}
			cr.runCycle(ctx)
		}

		select {
		case <-ctx.Done():
			a.Stop()
			return
		case <-time.After(a.Config.CycleInterval):
		}
	}
}

// Stop releases every chain's resources.
func (a *App) Stop() {
	for _, cr := range a.Chains {
		cr.db.Close()
	}
	a.Logger.Info("さようなら!")
}

// runCycle runs every stage for one chain. Stages degrade independently; a
// failing stage logs and the cycle moves on, so one sick endpoint never
// stalls the rest of the chain, let alone the other chains.
func (cr *chainRuntime) runCycle(ctx context.Context) {
	cycleStart := time.Now()

	cr.importGenesisOnce(ctx)
	cr.trackHeight(ctx)

	if n, err := cr.stateSync.Sync(ctx); err != nil {
		cr.logger.Warn("Validator state sync failed", zap.Error(err))
	} else {
		cr.logger.Debug("Validator state synced", zap.Int("validators", n))
	}

	for _, stream := range cr.streams {
		if ctx.Err() != nil {
			return
		}
		n, err := cr.scanner.Scan(ctx, stream)
		if err != nil {
			cr.logger.Warn("Stream scan aborted",
				zap.String("stream", stream.Action), zap.Error(err))
			continue
		}
		if n > 0 {
			cr.logger.Info("Stream scanned",
				zap.String("stream", stream.Action), zap.Int("records", n))
		}
	}

	if err := cr.resolver.Resolve(ctx); err != nil {
		cr.logger.Warn("Upgrade resolution failed", zap.Error(err))
	}

	if n, err := cr.snapshot.Run(ctx); err != nil {
		cr.logger.Warn("Delegator snapshot failed", zap.Error(err))
	} else if n > 0 {
		cr.logger.Info("Delegator snapshot captured", zap.Int("validators", n))
	}

	cr.logger.Debug("Cycle complete", zap.Duration("duration", time.Since(cycleStart)))
}

// importGenesisOnce imports the configured genesis document on the first
// cycle. The height-0 history marker makes re-runs cheap no-ops, so a failed
// fetch simply retries next cycle.
func (cr *chainRuntime) importGenesisOnce(ctx context.Context) {
	if cr.genesisDone || (cr.cfg.GenesisURL == "" && cr.cfg.GenesisPath == "") {
		return
	}

	raw, err := cr.loadGenesis(ctx)
	if err != nil {
		cr.logger.Warn("Genesis document unavailable", zap.Error(err))
		return
	}

	var n int
	err = cr.db.InTx(ctx, func(txCtx context.Context) error {
		var importErr error
		n, importErr = cr.genesis.Import(txCtx, raw)
		return importErr
	})
	if err != nil {
		cr.logger.Warn("Genesis import failed", zap.Error(err))
		return
	}

	cr.genesisDone = true
	if n > 0 {
		cr.logger.Info("Genesis validators imported", zap.Int("validators", n))
	}
}

func (cr *chainRuntime) loadGenesis(ctx context.Context) ([]byte, error) {
	if cr.cfg.GenesisPath != "" {
		raw, err := os.ReadFile(cr.cfg.GenesisPath)
		if err != nil {
			return nil, fmt.Errorf("read genesis file: %w", err)
		}
		return raw, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cr.cfg.GenesisURL, nil)
	if err != nil {
		return nil, fmt.Errorf("genesis request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch genesis: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch genesis: unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// trackHeight records the chain head under the reserved checkpoint key so
// indexing freshness is observable from the database alone.
func (cr *chainRuntime) trackHeight(ctx context.Context) {
	head, err := cr.client.LatestBlock(ctx)
	if err != nil {
		cr.logger.Warn("Head height unavailable", zap.Error(err))
		return
	}
	if err := cr.db.SaveCheckpoint(ctx, HeightTrackerStream, head.Height); err != nil {
		cr.logger.Warn("Head height not recorded", zap.Error(err))
	}
}
