package standards

import (
	"math/big"

	"go-intents/internal/curves"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

var assetBasedArguments = segmentArguments(
	abi.ArgumentMarshaling{Name: "callData", Type: "bytes"},
	abi.ArgumentMarshaling{Name: "assetReleases", Type: "tuple[]", Components: curves.AssetBasedIntentCurveComponents},
	abi.ArgumentMarshaling{Name: "assetRequirements", Type: "tuple[]", Components: curves.AssetBasedIntentCurveComponents},
)

type assetBasedTuple struct {
	Standard          [32]byte                            `abi:"standard"`
	CallData          []byte                              `abi:"callData"`
	AssetReleases     []curves.AssetBasedIntentCurveTuple `abi:"assetReleases"`
	AssetRequirements []curves.AssetBasedIntentCurveTuple `abi:"assetRequirements"`
}

// AssetBasedIntentSegment carries call data plus independent lists of
// release and requirement curves. The evaluator applies each list
// positionally, so append order is preserved exactly.
type AssetBasedIntentSegment struct {
	standard          common.Hash
	callData          []byte
	assetReleases     []curves.AssetBasedIntentCurve
	assetRequirements []curves.AssetBasedIntentCurve
}

func NewAssetBasedIntentSegment(standard common.Hash, callData []byte) *AssetBasedIntentSegment {
	return &AssetBasedIntentSegment{standard: standard, callData: common.CopyBytes(callData)}
}

// AddAssetReleaseCurve appends a release curve, always evaluated ABSOLUTE.
// On error the segment is unchanged.
func (s *AssetBasedIntentSegment) AddAssetReleaseCurve(assetContract common.Address, assetID *big.Int, assetType curves.AssetType, params curves.CurveParameters) error {
	curve, err := curves.NewAssetReleaseCurve(assetContract, assetID, assetType, params)
	if err != nil {
		return err
	}
	s.assetReleases = append(s.assetReleases, curve)
	return nil
}

// AddAssetRequirementCurve appends a requirement curve. On error the segment is unchanged.
func (s *AssetBasedIntentSegment) AddAssetRequirementCurve(assetContract common.Address, assetID *big.Int, assetType curves.AssetType, params curves.CurveParameters, evaluation curves.EvaluationType) error {
	curve, err := curves.NewAssetRequirementCurve(assetContract, assetID, assetType, params, evaluation)
	if err != nil {
		return err
	}
	s.assetRequirements = append(s.assetRequirements, curve)
	return nil
}

func (s *AssetBasedIntentSegment) Kind() SegmentKind       { return KindAssetBased }
func (s *AssetBasedIntentSegment) StandardID() common.Hash { return s.standard }
func (s *AssetBasedIntentSegment) CallData() []byte        { return common.CopyBytes(s.callData) }

func (s *AssetBasedIntentSegment) AssetReleases() []curves.AssetBasedIntentCurve {
	return append([]curves.AssetBasedIntentCurve(nil), s.assetReleases...)
}

func (s *AssetBasedIntentSegment) AssetRequirements() []curves.AssetBasedIntentCurve {
	return append([]curves.AssetBasedIntentCurve(nil), s.assetRequirements...)
}

func (s *AssetBasedIntentSegment) Encode() ([]byte, error) {
	return encodeSegment(KindAssetBased, assetBasedArguments, assetBasedTuple{
		Standard:          s.standard,
		CallData:          s.callData,
		AssetReleases:     curveTuples(s.assetReleases),
		AssetRequirements: curveTuples(s.assetRequirements),
	})
}

func (*AssetBasedIntentSegment) segment() {}

func curveTuples(list []curves.AssetBasedIntentCurve) []curves.AssetBasedIntentCurveTuple {
	out := make([]curves.AssetBasedIntentCurveTuple, len(list))
	for i, c := range list {
		out[i] = c.Tuple()
	}
	return out
}
