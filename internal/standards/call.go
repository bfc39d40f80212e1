package standards

import (
	"math/big"

	"go-intents/internal/types"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

var (
	callArguments = segmentArguments(abi.ArgumentMarshaling{Name: "callData", Type: "bytes"})

	sequentialNonceArguments = segmentArguments(abi.ArgumentMarshaling{Name: "nonce", Type: "uint256"})
)

type callTuple struct {
	Standard [32]byte `abi:"standard"`
	CallData []byte   `abi:"callData"`
}

type sequentialNonceTuple struct {
	Standard [32]byte `abi:"standard"`
	Nonce    *big.Int `abi:"nonce"`
}

// CallIntentSegment makes the sender's account execute arbitrary call data
type CallIntentSegment struct {
	standard common.Hash
	callData []byte
}

func NewCallIntentSegment(standard common.Hash, callData []byte) *CallIntentSegment {
	return &CallIntentSegment{standard: standard, callData: common.CopyBytes(callData)}
}

func (s *CallIntentSegment) Kind() SegmentKind       { return KindCall }
func (s *CallIntentSegment) StandardID() common.Hash { return s.standard }
func (s *CallIntentSegment) CallData() []byte        { return common.CopyBytes(s.callData) }

func (s *CallIntentSegment) Encode() ([]byte, error) {
	return encodeSegment(KindCall, callArguments, callTuple{
		Standard: s.standard,
		CallData: s.callData,
	})
}

func (*CallIntentSegment) segment() {}

// SequentialNonceSegment pins the intent to one value of the sender's nonce.
// Whether the value matches the account is checked on chain only.
type SequentialNonceSegment struct {
	standard common.Hash
	nonce    *big.Int
}

func NewSequentialNonceSegment(standard common.Hash, nonce *big.Int) (*SequentialNonceSegment, error) {
	if nonce == nil || nonce.Sign() < 0 || nonce.BitLen() > 256 {
		return nil, types.Violation(types.ErrParamOutOfRange, "nonce %v is not a uint256", nonce)
	}
	return &SequentialNonceSegment{standard: standard, nonce: new(big.Int).Set(nonce)}, nil
}

func (s *SequentialNonceSegment) Kind() SegmentKind       { return KindSequentialNonce }
func (s *SequentialNonceSegment) StandardID() common.Hash { return s.standard }
func (s *SequentialNonceSegment) Nonce() *big.Int         { return new(big.Int).Set(s.nonce) }

func (s *SequentialNonceSegment) Encode() ([]byte, error) {
	return encodeSegment(KindSequentialNonce, sequentialNonceArguments, sequentialNonceTuple{
		Standard: s.standard,
		Nonce:    new(big.Int).Set(s.nonce),
	})
}

func (*SequentialNonceSegment) segment() {}
