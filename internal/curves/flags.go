// Package curves models value curves and packs their metadata into the flag
// word read by the on-chain curve evaluator.
package curves

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"go-intents/internal/types"
)

// Flag word layout read by the on-chain curve library. The offsets and widths
// below are not yet checked against the library's published constants; treat
// them as provisional until they are.
//
// The word is a uint128. Bits not listed here are zero.
//
//	bits  0-7   asset type
//	bits  8-15  curve type
//	bits 16-23  evaluation type
//
// This table is the only place the layout lives. Changing it requires a
// matching decoder release on chain, so bump FlagsLayoutVersion with it.
const (
	FlagsLayoutVersion = 1
	FlagsWidth         = 128
)

type flagField struct {
	name   string
	offset uint
	width  uint
}

var (
	assetTypeField      = flagField{name: "asset_type", offset: 0, width: 8}
	curveTypeField      = flagField{name: "curve_type", offset: 8, width: 8}
	evaluationTypeField = flagField{name: "evaluation_type", offset: 16, width: 8}

	flagFields = []flagField{assetTypeField, curveTypeField, evaluationTypeField}
)

func init() {
	var used [FlagsWidth]bool
	for _, f := range flagFields {
		if f.width == 0 || f.width >= 64 || f.offset+f.width > FlagsWidth {
			panic(fmt.Sprintf("curves: flag field %s does not fit the flag word", f.name))
		}
		for bit := f.offset; bit < f.offset+f.width; bit++ {
			if used[bit] {
				panic(fmt.Sprintf("curves: flag field %s overlaps bit %d", f.name, bit))
			}
			used[bit] = true
		}
	}
}

func (f flagField) max() uint64 {
	return 1<<f.width - 1
}

// place splits v<<offset across the high and low halves of the word
func (f flagField) place(v uint64) (hi, lo uint64) {
	switch {
	case f.offset >= 64:
		return v << (f.offset - 64), 0
	case f.offset == 0:
		return 0, v
	default:
		return v >> (64 - f.offset), v << f.offset
	}
}

func (f flagField) extract(hi, lo uint64) uint64 {
	var v uint64
	switch {
	case f.offset >= 64:
		v = hi >> (f.offset - 64)
	case f.offset == 0:
		v = lo
	default:
		v = lo>>f.offset | hi<<(64-f.offset)
	}
	return v & f.max()
}

// CurveFlags is the packed uint128 describing how a curve is read on chain
type CurveFlags struct {
	hi uint64
	lo uint64
}

// NewCurveFlags packs the three discriminants. It is a pure function of its
// inputs and fails when a discriminant does not fit its field.
func NewCurveFlags(assetType AssetType, curveType CurveType, evaluationType EvaluationType) (CurveFlags, error) {
	return encodeFlags(uint64(assetType), uint64(curveType), uint64(evaluationType))
}

func encodeFlags(assetType, curveType, evaluationType uint64) (CurveFlags, error) {
	var flags CurveFlags
	values := []struct {
		field flagField
		value uint64
	}{
		{assetTypeField, assetType},
		{curveTypeField, curveType},
		{evaluationTypeField, evaluationType},
	}
	for _, v := range values {
		if v.value > v.field.max() {
			return CurveFlags{}, types.Violation(types.ErrFieldOverflow,
				"%s=%d exceeds %d bits", v.field.name, v.value, v.field.width)
		}
		hi, lo := v.field.place(v.value)
		flags.hi |= hi
		flags.lo |= lo
	}
	return flags, nil
}

// MustCurveFlags is NewCurveFlags for constant inputs
func MustCurveFlags(assetType AssetType, curveType CurveType, evaluationType EvaluationType) CurveFlags {
	flags, err := NewCurveFlags(assetType, curveType, evaluationType)
	if err != nil {
		panic(err)
	}
	return flags
}

// AssetType reads the asset type field back out of the word
func (f CurveFlags) AssetType() AssetType {
	return AssetType(assetTypeField.extract(f.hi, f.lo))
}

// CurveType reads the curve type field back out of the word
func (f CurveFlags) CurveType() CurveType {
	return CurveType(curveTypeField.extract(f.hi, f.lo))
}

// EvaluationType reads the evaluation type field back out of the word
func (f CurveFlags) EvaluationType() EvaluationType {
	return EvaluationType(evaluationTypeField.extract(f.hi, f.lo))
}

// BigInt returns the word as a fresh non-negative integer, the form the ABI packer takes for uint128
func (f CurveFlags) BigInt() *big.Int {
	v := new(big.Int).SetUint64(f.hi)
	v.Lsh(v, 64)
	return v.Or(v, new(big.Int).SetUint64(f.lo))
}

// Bytes returns the big-endian 16-byte word
func (f CurveFlags) Bytes() [16]byte {
	var b [16]byte
	binary.BigEndian.PutUint64(b[0:8], f.hi)
	binary.BigEndian.PutUint64(b[8:16], f.lo)
	return b
}

func (f CurveFlags) String() string {
	return fmt.Sprintf("0x%016x%016x", f.hi, f.lo)
}
