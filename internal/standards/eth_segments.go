package standards

import (
	"go-intents/internal/curves"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ethReleaseArguments = segmentArguments(namedCurveComponent("release"))
	ethRequireArguments = segmentArguments(namedCurveComponent("requirement"))
)

type ethReleaseTuple struct {
	Standard [32]byte          `abi:"standard"`
	Release  curves.CurveTuple `abi:"release"`
}

type ethRequireTuple struct {
	Standard    [32]byte          `abi:"standard"`
	Requirement curves.CurveTuple `abi:"requirement"`
}

// EthReleaseIntentSegment releases native value from the sender along a curve
type EthReleaseIntentSegment struct {
	standard common.Hash
	release  curves.Curve
}

// NewEthReleaseIntentSegment builds an ETH release. Release curves are always ABSOLUTE.
func NewEthReleaseIntentSegment(standard common.Hash, params curves.CurveParameters) (*EthReleaseIntentSegment, error) {
	release, err := curves.NewReleaseCurve(curves.AssetTypeETH, params)
	if err != nil {
		return nil, err
	}
	return &EthReleaseIntentSegment{standard: standard, release: release}, nil
}

func (s *EthReleaseIntentSegment) Kind() SegmentKind       { return KindEthRelease }
func (s *EthReleaseIntentSegment) StandardID() common.Hash { return s.standard }
func (s *EthReleaseIntentSegment) Release() curves.Curve   { return s.release }

func (s *EthReleaseIntentSegment) Encode() ([]byte, error) {
	return encodeSegment(KindEthRelease, ethReleaseArguments, ethReleaseTuple{
		Standard: s.standard,
		Release:  s.release.Tuple(),
	})
}

func (*EthReleaseIntentSegment) segment() {}

// EthRequireIntentSegment requires native value to be present once the
// intent's preceding segments have run.
type EthRequireIntentSegment struct {
	standard    common.Hash
	requirement curves.Curve
}

func NewEthRequireIntentSegment(standard common.Hash, params curves.CurveParameters, evaluation curves.EvaluationType) (*EthRequireIntentSegment, error) {
	requirement, err := curves.NewRequirementCurve(curves.AssetTypeETH, params, evaluation)
	if err != nil {
		return nil, err
	}
	return &EthRequireIntentSegment{standard: standard, requirement: requirement}, nil
}

func (s *EthRequireIntentSegment) Kind() SegmentKind         { return KindEthRequire }
func (s *EthRequireIntentSegment) StandardID() common.Hash   { return s.standard }
func (s *EthRequireIntentSegment) Requirement() curves.Curve { return s.requirement }

func (s *EthRequireIntentSegment) Encode() ([]byte, error) {
	return encodeSegment(KindEthRequire, ethRequireArguments, ethRequireTuple{
		Standard:    s.standard,
		Requirement: s.requirement.Tuple(),
	})
}

func (*EthRequireIntentSegment) segment() {}
