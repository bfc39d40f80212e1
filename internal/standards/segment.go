// Package standards holds the closed set of intent segment kinds. Each
// segment binds the id of the on-chain standard that decodes it to a
// kind-specific payload and ABI-encodes to the bytes that standard reads.
//
// Segments are dumb encoders: no ordering or cross-segment checks happen here.
package standards

import (
	"fmt"

	"go-intents/internal/curves"
	"go-intents/internal/utils"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// SegmentKind tags a Segment variant
type SegmentKind string

const (
	KindErc20Release    SegmentKind = "erc20_release"
	KindEthRelease      SegmentKind = "eth_release"
	KindEthRequire      SegmentKind = "eth_require"
	KindCall            SegmentKind = "call"
	KindSequentialNonce SegmentKind = "sequential_nonce"
	KindAssetBased      SegmentKind = "asset_based"
)

// SegmentKinds lists every kind in a stable order
var SegmentKinds = []SegmentKind{
	KindErc20Release,
	KindEthRelease,
	KindEthRequire,
	KindCall,
	KindSequentialNonce,
	KindAssetBased,
}

// ParseSegmentKind maps a kind name to its SegmentKind
func ParseSegmentKind(s string) (SegmentKind, error) {
	for _, k := range SegmentKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown segment kind %q", s)
}

// Segment is one typed unit of an intent. The set of implementations is
// closed; it cannot be implemented outside this package.
type Segment interface {
	Kind() SegmentKind
	// StandardID is the externally registered id of the standard decoding this segment
	StandardID() common.Hash
	// Encode returns the ABI encoding placed in the intent's data array
	Encode() ([]byte, error)

	segment()
}

var standardComponent = abi.ArgumentMarshaling{Name: "standard", Type: "bytes32"}

// segmentArguments wraps a segment's fields in a single tuple argument, the
// standard id always first.
func segmentArguments(components ...abi.ArgumentMarshaling) abi.Arguments {
	fields := append([]abi.ArgumentMarshaling{standardComponent}, components...)
	return abi.Arguments{{Type: utils.MustABIType("tuple", fields...)}}
}

var curveComponent = abi.ArgumentMarshaling{
	Name:       "curve",
	Type:       "tuple",
	Components: curves.CurveComponents,
}

func namedCurveComponent(name string) abi.ArgumentMarshaling {
	c := curveComponent
	c.Name = name
	return c
}

func encodeSegment(kind SegmentKind, args abi.Arguments, tuple interface{}) ([]byte, error) {
	data, err := args.Pack(tuple)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s segment: %w", kind, err)
	}
	return data, nil
}
