package processor

import (
	"encoding/json"
	"strconv"
	"testing"

	"github.com/valscope/valscope/pkg/rpc"
)

func makeTx(t *testing.T, hash string, height int64, msgs ...any) rpc.TxResult {
	t.Helper()
	raws := make([]json.RawMessage, 0, len(msgs))
	for _, m := range msgs {
		raw, err := json.Marshal(m)
		if err != nil {
			t.Fatalf("marshal message: %v", err)
		}
		raws = append(raws, raw)
	}
	return rpc.TxResult{
		TxHash:    hash,
		Height:    strconv.FormatInt(height, 10),
		Timestamp: "2024-05-01T12:00:00Z",
		Tx:        rpc.Tx{Body: rpc.TxBody{Messages: raws}},
	}
}

func editMsg(operator string, desc map[string]string, commission *string) map[string]any {
	description := map[string]any{
		"moniker":          DoNotModify,
		"identity":         DoNotModify,
		"website":          DoNotModify,
		"security_contact": DoNotModify,
		"details":          DoNotModify,
	}
	for k, v := range desc {
		description[k] = v
	}
	msg := map[string]any{
		"@type":             rpc.MsgEditValidatorType,
		"validator_address": operator,
		"description":       description,
	}
	if commission != nil {
		msg["commission_rate"] = *commission
	}
	return msg
}

func createMsg(operator, moniker, rate string) map[string]any {
	return map[string]any{
		"@type":             rpc.MsgCreateValidatorType,
		"validator_address": operator,
		"description": map[string]any{
			"moniker": moniker,
		},
		"commission": map[string]any{
			"rate": rate,
		},
	}
}

func strPtr(s string) *string { return &s }
