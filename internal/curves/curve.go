package curves

import (
	"fmt"
	"math/big"

	"go-intents/internal/types"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ABI tuple components shared with the segment encoders
var (
	CurveComponents = []abi.ArgumentMarshaling{
		{Name: "flags", Type: "uint128"},
		{Name: "params", Type: "int256[]"},
	}

	AssetBasedIntentCurveComponents = []abi.ArgumentMarshaling{
		{Name: "assetId", Type: "uint256"},
		{Name: "assetContract", Type: "address"},
		{Name: "flags", Type: "uint128"},
		{Name: "params", Type: "int256[]"},
	}
)

// CurveTuple is the ABI form of a Curve
type CurveTuple struct {
	Flags  *big.Int   `abi:"flags"`
	Params []*big.Int `abi:"params"`
}

// AssetBasedIntentCurveTuple is the ABI form of an AssetBasedIntentCurve
type AssetBasedIntentCurveTuple struct {
	AssetId       *big.Int       `abi:"assetId"`
	AssetContract common.Address `abi:"assetContract"`
	Flags         *big.Int       `abi:"flags"`
	Params        []*big.Int     `abi:"params"`
}

// Curve is a flag word plus parameter vector with no asset identity.
// ETH and ERC20 segments carry the asset out of band.
type Curve struct {
	flags  CurveFlags
	params []*big.Int
}

// NewReleaseCurve builds a curve for value flowing out. Releases are never
// gated, so the evaluation type is always ABSOLUTE.
func NewReleaseCurve(assetType AssetType, params CurveParameters) (Curve, error) {
	return newCurve(assetType, params, EvaluationTypeAbsolute)
}

// NewRequirementCurve builds a curve for value that must be present after execution
func NewRequirementCurve(assetType AssetType, params CurveParameters, evaluationType EvaluationType) (Curve, error) {
	return newCurve(assetType, params, evaluationType)
}

func newCurve(assetType AssetType, params CurveParameters, evaluationType EvaluationType) (Curve, error) {
	if params == nil {
		return Curve{}, types.Violation(types.ErrMalformedParams, "nil curve parameters")
	}
	flags, err := NewCurveFlags(assetType, params.CurveType(), evaluationType)
	if err != nil {
		return Curve{}, err
	}
	vector, err := params.Params()
	if err != nil {
		return Curve{}, fmt.Errorf("%s curve: %w", params.CurveType(), err)
	}
	return Curve{flags: flags, params: vector}, nil
}

func (c Curve) Flags() CurveFlags {
	return c.flags
}

// Params returns a copy of the parameter vector
func (c Curve) Params() []*big.Int {
	return copyVector(c.params)
}

// Tuple returns the ABI packing form
func (c Curve) Tuple() CurveTuple {
	return CurveTuple{Flags: c.flags.BigInt(), Params: copyVector(c.params)}
}

// AssetBasedIntentCurve binds one curve to one asset identity. The asset id
// and contract are opaque here; the protocol validates them.
type AssetBasedIntentCurve struct {
	assetID       *big.Int
	assetContract common.Address
	curve         Curve
}

// NewAssetReleaseCurve builds a release curve, pinned to ABSOLUTE evaluation
func NewAssetReleaseCurve(assetContract common.Address, assetID *big.Int, assetType AssetType, params CurveParameters) (AssetBasedIntentCurve, error) {
	curve, err := NewReleaseCurve(assetType, params)
	if err != nil {
		return AssetBasedIntentCurve{}, err
	}
	return newAssetBasedIntentCurve(assetContract, assetID, curve)
}

// NewAssetRequirementCurve builds a requirement curve with the caller's evaluation type
func NewAssetRequirementCurve(assetContract common.Address, assetID *big.Int, assetType AssetType, params CurveParameters, evaluationType EvaluationType) (AssetBasedIntentCurve, error) {
	curve, err := NewRequirementCurve(assetType, params, evaluationType)
	if err != nil {
		return AssetBasedIntentCurve{}, err
	}
	return newAssetBasedIntentCurve(assetContract, assetID, curve)
}

func newAssetBasedIntentCurve(assetContract common.Address, assetID *big.Int, curve Curve) (AssetBasedIntentCurve, error) {
	id := new(big.Int)
	if assetID != nil {
		if assetID.Sign() < 0 || assetID.BitLen() > 256 {
			return AssetBasedIntentCurve{}, types.Violation(types.ErrParamOutOfRange, "asset id %s is not a uint256", assetID)
		}
		id.Set(assetID)
	}
	return AssetBasedIntentCurve{assetID: id, assetContract: assetContract, curve: curve}, nil
}

func (c AssetBasedIntentCurve) AssetID() *big.Int {
	return new(big.Int).Set(c.assetID)
}

func (c AssetBasedIntentCurve) AssetContract() common.Address {
	return c.assetContract
}

func (c AssetBasedIntentCurve) Flags() CurveFlags {
	return c.curve.flags
}

func (c AssetBasedIntentCurve) Params() []*big.Int {
	return c.curve.Params()
}

// Equal reports whether every field matches
func (c AssetBasedIntentCurve) Equal(other AssetBasedIntentCurve) bool {
	if c.assetContract != other.assetContract || c.curve.flags != other.curve.flags {
		return false
	}
	if c.assetID.Cmp(other.assetID) != 0 || len(c.curve.params) != len(other.curve.params) {
		return false
	}
	for i := range c.curve.params {
		if c.curve.params[i].Cmp(other.curve.params[i]) != 0 {
			return false
		}
	}
	return true
}

// Tuple returns the ABI packing form
func (c AssetBasedIntentCurve) Tuple() AssetBasedIntentCurveTuple {
	return AssetBasedIntentCurveTuple{
		AssetId:       new(big.Int).Set(c.assetID),
		AssetContract: c.assetContract,
		Flags:         c.curve.flags.BigInt(),
		Params:        copyVector(c.curve.params),
	}
}

func copyVector(v []*big.Int) []*big.Int {
	out := make([]*big.Int, len(v))
	for i := range v {
		out[i] = new(big.Int).Set(v[i])
	}
	return out
}
