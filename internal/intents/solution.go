package intents

import (
	"fmt"
	"math/big"

	"go-intents/internal/types"
)

// IntentSolution groups intents for one atomic handleIntents call. Intent
// order is execution order on chain; nothing here reorders or validates.
type IntentSolution struct {
	blockNumber *big.Int
	intents     []*UserIntent
	order       []*big.Int
}

// NewIntentSolution snapshots the given intents and order data. Later
// changes to the caller's intents are not seen by the solution. Nil
// entries are dropped; everything else keeps its position. The block
// number and every order entry must fit a uint256.
func NewIntentSolution(blockNumber *big.Int, intents []*UserIntent, order []*big.Int) (*IntentSolution, error) {
	s := &IntentSolution{
		blockNumber: new(big.Int),
		intents:     make([]*UserIntent, 0, len(intents)),
		order:       make([]*big.Int, 0, len(order)),
	}
	if blockNumber != nil {
		if !isUint256(blockNumber) {
			return nil, types.Violation(types.ErrParamOutOfRange, "block number %s is not a uint256", blockNumber)
		}
		s.blockNumber.Set(blockNumber)
	}
	for i, intent := range intents {
		if intent == nil {
			continue
		}
		c := intent.clone()
		if err := c.freeze(); err != nil {
			return nil, fmt.Errorf("intent %d: %w", i, err)
		}
		s.intents = append(s.intents, c)
	}
	for i, o := range order {
		if o == nil {
			continue
		}
		if !isUint256(o) {
			return nil, types.Violation(types.ErrParamOutOfRange, "order[%d] %s is not a uint256", i, o)
		}
		s.order = append(s.order, new(big.Int).Set(o))
	}
	return s, nil
}

func isUint256(v *big.Int) bool {
	return v.Sign() >= 0 && v.BitLen() <= 256
}

func (s *IntentSolution) BlockNumber() *big.Int {
	return new(big.Int).Set(s.blockNumber)
}

// Intents returns the intents in execution order
func (s *IntentSolution) Intents() []*UserIntent {
	out := make([]*UserIntent, len(s.intents))
	for i, intent := range s.intents {
		out[i] = intent.clone()
	}
	return out
}

func (s *IntentSolution) Order() []*big.Int {
	out := make([]*big.Int, len(s.order))
	for i, o := range s.order {
		out[i] = new(big.Int).Set(o)
	}
	return out
}

// Tuple returns the handleIntents argument
func (s *IntentSolution) Tuple() (IntentSolutionTuple, error) {
	tuple := IntentSolutionTuple{
		BlockNumber: new(big.Int).Set(s.blockNumber),
		Intents:     make([]UserIntentTuple, len(s.intents)),
		Order:       s.Order(),
	}
	for i, intent := range s.intents {
		t, err := intent.Tuple()
		if err != nil {
			return IntentSolutionTuple{}, fmt.Errorf("intent %d: %w", i, err)
		}
		tuple.Intents[i] = t
	}
	return tuple, nil
}

// Pack returns the calldata of handleIntents(solution)
func (s *IntentSolution) Pack() ([]byte, error) {
	tuple, err := s.Tuple()
	if err != nil {
		return nil, err
	}
	data, err := entryPointABI.Pack("handleIntents", tuple)
	if err != nil {
		return nil, fmt.Errorf("failed to pack handleIntents: %w", err)
	}
	return data, nil
}
