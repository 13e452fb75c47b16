package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valscope/valscope/pkg/db/models"
	"github.com/valscope/valscope/pkg/rpc"
	"go.uber.org/zap"
)

// GenesisTxHashPrefix marks synthesized genesis-import records. The full key
// is the prefix plus the last 8 characters of the operator address, which is
// deterministic so re-imports collide with the existing rows.
const GenesisTxHashPrefix = "GENESIS_"

// GenesisImporter performs the one-time bulk import of the validator set
// from a genesis document, synthesizing height-0 edit events.
type GenesisImporter struct {
	store  Store
	logger *zap.Logger
}

func NewGenesisImporter(store Store, logger *zap.Logger) *GenesisImporter {
	return &GenesisImporter{store: store, logger: logger}
}

type genesisDoc struct {
	GenesisTime time.Time `json:"genesis_time"`
	AppState    struct {
		Genutil struct {
			GenTxs []struct {
				Body rpc.TxBody `json:"body"`
			} `json:"gen_txs"`
		} `json:"genutil"`
		Staking struct {
			Validators []rpc.ValidatorInfo `json:"validators"`
		} `json:"staking"`
	} `json:"app_state"`
}

type genesisValidator struct {
	operator    string
	description rpc.Description
	commission  string
}

// Import parses a genesis JSON document and imports its validators. It is a
// no-op when height-0 history already exists. Returns the count of imported
// validators.
func (g *GenesisImporter) Import(ctx context.Context, raw []byte) (int, error) {
	done, err := g.store.HasEditEventsAtHeight(ctx, 0)
	if err != nil {
		return 0, err
	}
	if done {
		g.logger.Debug("Genesis already imported, skipping")
		return 0, nil
	}

	var doc genesisDoc
	if err := json.Unmarshal(unwrapGenesis(raw), &doc); err != nil {
		return 0, fmt.Errorf("parse genesis document: %w", err)
	}

	entries := collectGenesisValidators(&doc)
	if len(entries) == 0 {
		g.logger.Warn("Genesis document contains no validators")
		return 0, nil
	}

	// Height-0 records carry the chain's birth time, not import time.
	stamp := doc.GenesisTime.UTC()
	if doc.GenesisTime.IsZero() {
		stamp = time.Unix(0, 0).UTC()
	}
	profiles := make([]*models.Validator, 0, len(entries))
	imported := 0

	for _, entry := range entries {
		moniker := entry.description.Moniker
		if moniker == "" {
			moniker = DefaultMoniker
		}

		diff := map[string]models.FieldChange{
			models.FieldMoniker: {From: UnknownValue, To: moniker},
		}
		if entry.description.Website != "" {
			diff[models.FieldWebsite] = models.FieldChange{From: UnknownValue, To: entry.description.Website}
		}
		if entry.description.Identity != "" {
			diff[models.FieldIdentity] = models.FieldChange{From: UnknownValue, To: entry.description.Identity}
		}
		if entry.description.Details != "" {
			diff[models.FieldDetails] = models.FieldChange{From: UnknownValue, To: entry.description.Details}
		}
		if entry.description.SecurityContact != "" {
			diff[models.FieldSecurityContact] = models.FieldChange{From: UnknownValue, To: entry.description.SecurityContact}
		}
		if entry.commission != "" {
			diff[models.FieldCommissionRate] = models.FieldChange{From: "0", To: entry.commission}
		}

		ok, err := g.store.InsertEditEvent(ctx, &models.EditEvent{
			TxHash:          GenesisTxHash(entry.operator),
			OperatorAddress: entry.operator,
			Diff:            diff,
			BlockHeight:     0,
			BlockTime:       stamp,
		})
		if err != nil {
			return imported, err
		}
		if ok {
			imported++
		}

		profiles = append(profiles, &models.Validator{
			OperatorAddress: entry.operator,
			Moniker:         moniker,
			Website:         entry.description.Website,
			Identity:        entry.description.Identity,
			Details:         entry.description.Details,
			SecurityContact: entry.description.SecurityContact,
			CommissionRate:  entry.commission,
			LastUpdated:     stamp,
		})
	}

	if err := g.store.UpsertValidators(ctx, profiles); err != nil {
		return imported, err
	}

	g.logger.Info("Genesis import complete", zap.Int("validators", imported))
	return imported, nil
}

// unwrapGenesis strips the RPC envelope some nodes serve the genesis under
// ({"result":{"genesis":{...}}}); bare documents pass through untouched.
func unwrapGenesis(raw []byte) []byte {
	var wrapped struct {
		Result struct {
			Genesis json.RawMessage `json:"genesis"`
		} `json:"result"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && len(wrapped.Result.Genesis) > 0 {
		return wrapped.Result.Genesis
	}
	return raw
}

// collectGenesisValidators gathers validators from both gen_txs and the
// staking state, first occurrence per operator address wins.
func collectGenesisValidators(doc *genesisDoc) []genesisValidator {
	seen := map[string]bool{}
	var out []genesisValidator

	for _, genTx := range doc.AppState.Genutil.GenTxs {
		for _, raw := range genTx.Body.Messages {
			var peek rpc.TypedMessage
			if err := json.Unmarshal(raw, &peek); err != nil || peek.Type != rpc.MsgCreateValidatorType {
				continue
			}
			var msg rpc.MsgCreateValidator
			if err := json.Unmarshal(raw, &msg); err != nil || msg.ValidatorAddress == "" {
				continue
			}
			if seen[msg.ValidatorAddress] {
				continue
			}
			seen[msg.ValidatorAddress] = true
			out = append(out, genesisValidator{
				operator:    msg.ValidatorAddress,
				description: msg.Description,
				commission:  msg.Commission.Rate,
			})
		}
	}

	for _, val := range doc.AppState.Staking.Validators {
		if val.OperatorAddress == "" || seen[val.OperatorAddress] {
			continue
		}
		seen[val.OperatorAddress] = true
		out = append(out, genesisValidator{
			operator:    val.OperatorAddress,
			description: val.Description,
			commission:  val.Commission.CommissionRates.Rate,
		})
	}

	return out
}

// GenesisTxHash builds the deterministic record key for a genesis-imported
// validator.
func GenesisTxHash(operator string) string {
	suffix := operator
	if len(suffix) > 8 {
		suffix = suffix[len(suffix)-8:]
	}
	return GenesisTxHashPrefix + suffix
}
