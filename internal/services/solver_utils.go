package services

import (
	"fmt"
	"math/big"

	"go-intents/internal/utils"

	"github.com/ethereum/go-ethereum/common"
)

// SolverUtilsABI the solver helper contract called from solver intents
const SolverUtilsABI = `[
	{
		"type": "function",
		"name": "transferEth",
		"stateMutability": "nonpayable",
		"inputs": [
			{"name": "recipient", "type": "address"},
			{"name": "amount", "type": "uint256"}
		],
		"outputs": []
	},
	{
		"type": "function",
		"name": "swapERC20ForETH",
		"stateMutability": "nonpayable",
		"inputs": [
			{"name": "token", "type": "address"},
			{"name": "amount", "type": "uint256"},
			{"name": "recipient", "type": "address"}
		],
		"outputs": []
	}
]`

var solverUtilsABI = utils.MustParseABI(SolverUtilsABI)

// TransferEthCalldata encodes transferEth(recipient, amount)
func TransferEthCalldata(recipient common.Address, amount *big.Int) ([]byte, error) {
	data, err := solverUtilsABI.Pack("transferEth", recipient, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to pack transferEth: %w", err)
	}
	return data, nil
}

// SwapERC20ForETHCalldata encodes swapERC20ForETH(token, amount, recipient)
func SwapERC20ForETHCalldata(token common.Address, amount *big.Int, recipient common.Address) ([]byte, error) {
	data, err := solverUtilsABI.Pack("swapERC20ForETH", token, amount, recipient)
	if err != nil {
		return nil, fmt.Errorf("failed to pack swapERC20ForETH: %w", err)
	}
	return data, nil
}
