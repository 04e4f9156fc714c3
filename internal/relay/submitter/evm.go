package submitter

import (
	"math/big"

	coretypes "github.com/ethereum/go-ethereum/core/types"
)

// buildAndSignTransaction assembles a legacy or fee-market transaction from
// the given parameters and signs it with the service key.
func (s *service) buildAndSignTransaction(params *SubmitParams, nonce uint64) (*coretypes.Transaction, error) {
	value := params.Value
	if value == nil {
		value = big.NewInt(0)
	}

	target := params.Target

	//nolint:varnamelen // tx is a common abbreviation for transaction
	var tx *coretypes.Transaction
	switch {
	case params.MaxFeePerGas != nil && params.MaxPriorityFeePerGas != nil:
		tx = coretypes.NewTx(&coretypes.DynamicFeeTx{
			ChainID:   big.NewInt(params.ChainID),
			Nonce:     nonce,
			GasTipCap: params.MaxPriorityFeePerGas,
			GasFeeCap: params.MaxFeePerGas,
			Gas:       params.GasLimit,
			To:        &target,
			Value:     value,
			Data:      params.Data,
		})
	case params.GasPrice != nil:
		tx = coretypes.NewTx(&coretypes.LegacyTx{
			Nonce:    nonce,
			GasPrice: params.GasPrice,
			Gas:      params.GasLimit,
			To:       &target,
			Value:    value,
			Data:     params.Data,
		})
	default:
		return nil, ErrMissingGasParameters
	}

	signer := coretypes.LatestSignerForChainID(big.NewInt(params.ChainID))
	return coretypes.SignTx(tx, signer, s.privateKey)
}
