package intents

import (
	"math/big"

	"go-intents/internal/utils"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// EntryPointABI is the subset of the entry point contract this module calls
const EntryPointABI = `[
	{
		"type": "function",
		"name": "handleIntents",
		"stateMutability": "nonpayable",
		"inputs": [
			{
				"name": "solution",
				"type": "tuple",
				"internalType": "struct IntentSolution",
				"components": [
					{"name": "blockNumber", "type": "uint256", "internalType": "uint256"},
					{
						"name": "intents",
						"type": "tuple[]",
						"internalType": "struct UserIntent[]",
						"components": [
							{"name": "sender", "type": "address", "internalType": "address"},
							{"name": "standard", "type": "bytes32", "internalType": "bytes32"},
							{"name": "intentData", "type": "bytes[]", "internalType": "bytes[]"},
							{"name": "signature", "type": "bytes", "internalType": "bytes"}
						]
					},
					{"name": "order", "type": "uint256[]", "internalType": "uint256[]"}
				]
			}
		],
		"outputs": []
	}
]`

var entryPointABI = utils.MustParseABI(EntryPointABI)

// EntryPoint returns the parsed entry point ABI
func EntryPoint() abi.ABI {
	return entryPointABI
}

// UserIntentTuple is the ABI form of a UserIntent inside handleIntents
type UserIntentTuple struct {
	Sender     common.Address `abi:"sender"`
	Standard   [32]byte       `abi:"standard"`
	IntentData [][]byte       `abi:"intentData"`
	Signature  []byte         `abi:"signature"`
}

// IntentSolutionTuple is the ABI form of an IntentSolution
type IntentSolutionTuple struct {
	BlockNumber *big.Int          `abi:"blockNumber"`
	Intents     []UserIntentTuple `abi:"intents"`
	Order       []*big.Int        `abi:"order"`
}

// intentHashArguments is the layout hashed to identify an intent's content
var intentHashArguments = abi.Arguments{
	{Name: "sender", Type: utils.MustABIType("address")},
	{Name: "standard", Type: utils.MustABIType("bytes32")},
	{Name: "intentData", Type: utils.MustABIType("bytes[]")},
}

// signingPayloadArguments binds an intent hash to one entry point on one chain
var signingPayloadArguments = abi.Arguments{
	{Name: "intentHash", Type: utils.MustABIType("bytes32")},
	{Name: "entryPoint", Type: utils.MustABIType("address")},
	{Name: "chainId", Type: utils.MustABIType("uint256")},
}
