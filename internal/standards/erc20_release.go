package standards

import (
	"go-intents/internal/curves"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

var erc20ReleaseArguments = segmentArguments(
	abi.ArgumentMarshaling{Name: "assetContract", Type: "address"},
	namedCurveComponent("release"),
)

type erc20ReleaseTuple struct {
	Standard      [32]byte          `abi:"standard"`
	AssetContract common.Address    `abi:"assetContract"`
	Release       curves.CurveTuple `abi:"release"`
}

// Erc20ReleaseIntentSegment releases an ERC20 token from the sender along a curve
type Erc20ReleaseIntentSegment struct {
	standard      common.Hash
	assetContract common.Address
	release       curves.Curve
}

func NewErc20ReleaseIntentSegment(standard common.Hash, assetContract common.Address, params curves.CurveParameters) (*Erc20ReleaseIntentSegment, error) {
	release, err := curves.NewReleaseCurve(curves.AssetTypeERC20, params)
	if err != nil {
		return nil, err
	}
	return &Erc20ReleaseIntentSegment{standard: standard, assetContract: assetContract, release: release}, nil
}

func (s *Erc20ReleaseIntentSegment) Kind() SegmentKind             { return KindErc20Release }
func (s *Erc20ReleaseIntentSegment) StandardID() common.Hash       { return s.standard }
func (s *Erc20ReleaseIntentSegment) AssetContract() common.Address { return s.assetContract }
func (s *Erc20ReleaseIntentSegment) Release() curves.Curve         { return s.release }

func (s *Erc20ReleaseIntentSegment) Encode() ([]byte, error) {
	return encodeSegment(KindErc20Release, erc20ReleaseArguments, erc20ReleaseTuple{
		Standard:      s.standard,
		AssetContract: s.assetContract,
		Release:       s.release.Tuple(),
	})
}

func (*Erc20ReleaseIntentSegment) segment() {}
