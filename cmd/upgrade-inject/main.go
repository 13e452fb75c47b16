// upgrade-inject backfills the upgrade ledger from a JSON file, for plans
// that predate indexing or that governance no longer serves.
package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
	"github.com/valscope/valscope/pkg/db/chain"
	"github.com/valscope/valscope/pkg/db/models"
	"github.com/valscope/valscope/pkg/logging"
	"go.uber.org/zap"
)

type options struct {
	ChainID uint64 `long:"chain-id" env:"CHAIN_ID" required:"true" description:"Numeric chain id the entries belong to"`
	File    string `long:"file" env:"FILE" required:"true" description:"Path to a JSON array of upgrade history entries"`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger, err := logging.New()
	if err != nil {
		panic(err)
	}

	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		logger.Fatal("Unable to parse flags", zap.Error(err))
	}

	raw, err := os.ReadFile(opts.File)
	if err != nil {
		logger.Fatal("Unable to read entries file", zap.Error(err))
	}

	var entries []models.UpgradeHistoryEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		logger.Fatal("Unable to parse entries file", zap.Error(err))
	}
	if len(entries) == 0 {
		logger.Fatal("Entries file is empty")
	}

	db, err := chain.New(ctx, logger, opts.ChainID)
	if err != nil {
		logger.Fatal("Unable to open chain database", zap.Error(err))
	}
	defer db.Close()

	for i := range entries {
		e := &entries[i]
		if e.PlanName == "" {
			logger.Fatal("Entry missing plan_name", zap.Int("index", i))
		}
		if e.Status == "" {
			e.Status = models.UpgradeStatusScheduled
		}
		if err := db.UpsertUpgradeHistory(ctx, e); err != nil {
			logger.Fatal("Unable to upsert entry",
				zap.String("plan", e.PlanName), zap.Error(err))
		}
		logger.Info("Upgrade ledger entry written",
			zap.String("plan", e.PlanName),
			zap.Int64("target_height", e.TargetHeight),
			zap.String("status", e.Status))
	}

	logger.Info("Done", zap.Int("entries", len(entries)))
}
