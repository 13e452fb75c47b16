package rpc

// LCD endpoint paths. Kept in one place because several of them exist in two
// generations (v1beta1 vs v1) and the client tries them in order.
const (
	txSearchPath = "/cosmos/tx/v1beta1/txs"

	latestBlockPath   = "/cosmos/base/tendermint/v1beta1/blocks/latest"
	latestBlockV1Path = "/cosmos/base/tendermint/v1/blocks/latest"

	blockByHeightPath   = "/cosmos/base/tendermint/v1beta1/blocks/%d"
	blockByHeightV1Path = "/cosmos/base/tendermint/v1/blocks/%d"

	proposalsV1Path      = "/cosmos/gov/v1/proposals"
	proposalsV1Beta1Path = "/cosmos/gov/v1beta1/proposals"

	currentPlanV1Beta1Path = "/cosmos/upgrade/v1beta1/current_plan"
	currentPlanV1Path      = "/cosmos/upgrade/v1/current_plan"

	validatorsPath           = "/cosmos/staking/v1beta1/validators"
	validatorPath            = "/cosmos/staking/v1beta1/validators/%s"
	validatorDelegationsPath = "/cosmos/staking/v1beta1/validators/%s/delegations"
)
