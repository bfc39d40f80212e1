package curves

import (
	"fmt"
	"math/big"
	"strings"

	"go-intents/internal/types"
)

// CurveType is the discriminant the evaluator uses to pick a curve formula
type CurveType uint8

const (
	CurveTypeConstant    CurveType = 0
	CurveTypeLinear      CurveType = 1
	CurveTypeExponential CurveType = 2
)

// paramCounts fixes the parameter vector length of every curve type.
// The evaluator reads the vector positionally, so these never change
// without a new protocol version.
var paramCounts = map[CurveType]int{
	CurveTypeConstant:    1, // [a]
	CurveTypeLinear:      3, // [m, b, max]
	CurveTypeExponential: 4, // [m, b, e, max]
}

func (c CurveType) String() string {
	switch c {
	case CurveTypeConstant:
		return "CONSTANT"
	case CurveTypeLinear:
		return "LINEAR"
	case CurveTypeExponential:
		return "EXPONENTIAL"
	default:
		return fmt.Sprintf("CurveType(%d)", uint8(c))
	}
}

// ParseCurveType parses CONSTANT, LINEAR or EXPONENTIAL, case-insensitively
func ParseCurveType(s string) (CurveType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CONSTANT":
		return CurveTypeConstant, nil
	case "LINEAR":
		return CurveTypeLinear, nil
	case "EXPONENTIAL":
		return CurveTypeExponential, nil
	default:
		return 0, fmt.Errorf("unknown curve type %q", s)
	}
}

// ParamCount returns the fixed parameter vector length for a curve type
func ParamCount(c CurveType) (int, error) {
	n, ok := paramCounts[c]
	if !ok {
		return 0, types.Violation(types.ErrUnknownCurveType, "%s", c)
	}
	return n, nil
}

var (
	maxInt256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 255), big.NewInt(1))
	minInt256 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 255))
)

// CheckInt256 fails unless v is a non-nil value representable as int256
func CheckInt256(v *big.Int) error {
	if v == nil {
		return types.Violation(types.ErrMalformedParams, "nil parameter")
	}
	if v.Cmp(minInt256) < 0 || v.Cmp(maxInt256) > 0 {
		return types.Violation(types.ErrParamOutOfRange, "%s", v)
	}
	return nil
}

// CurveParameters is the closed set of curve shapes. Params returns fresh
// copies in the order the evaluator consumes them.
type CurveParameters interface {
	CurveType() CurveType
	Params() ([]*big.Int, error)

	curveParameters()
}

// ConstantCurveParameters evaluates to A for every input
type ConstantCurveParameters struct {
	A *big.Int
}

// NewConstantCurveParameters copies a into a constant curve
func NewConstantCurveParameters(a *big.Int) ConstantCurveParameters {
	return ConstantCurveParameters{A: copyInt(a)}
}

func (ConstantCurveParameters) CurveType() CurveType { return CurveTypeConstant }

func (p ConstantCurveParameters) Params() ([]*big.Int, error) {
	return checkedVector(p.A)
}

func (ConstantCurveParameters) curveParameters() {}

// LinearCurveParameters evaluates to M*x + B with x clamped at Max
type LinearCurveParameters struct {
	M   *big.Int
	B   *big.Int
	Max *big.Int
}

func NewLinearCurveParameters(m, b, xMax *big.Int) LinearCurveParameters {
	return LinearCurveParameters{M: copyInt(m), B: copyInt(b), Max: copyInt(xMax)}
}

func (LinearCurveParameters) CurveType() CurveType { return CurveTypeLinear }

func (p LinearCurveParameters) Params() ([]*big.Int, error) {
	return checkedVector(p.M, p.B, p.Max)
}

func (LinearCurveParameters) curveParameters() {}

// ExponentialCurveParameters evaluates to M*x^E + B with x clamped at Max
type ExponentialCurveParameters struct {
	M   *big.Int
	B   *big.Int
	E   *big.Int
	Max *big.Int
}

func NewExponentialCurveParameters(m, b, e, xMax *big.Int) ExponentialCurveParameters {
	return ExponentialCurveParameters{M: copyInt(m), B: copyInt(b), E: copyInt(e), Max: copyInt(xMax)}
}

func (ExponentialCurveParameters) CurveType() CurveType { return CurveTypeExponential }

func (p ExponentialCurveParameters) Params() ([]*big.Int, error) {
	return checkedVector(p.M, p.B, p.E, p.Max)
}

func (ExponentialCurveParameters) curveParameters() {}

// CurveParametersFromVector rebuilds typed parameters from a positional vector
func CurveParametersFromVector(c CurveType, vector []*big.Int) (CurveParameters, error) {
	n, err := ParamCount(c)
	if err != nil {
		return nil, err
	}
	if len(vector) != n {
		return nil, types.Violation(types.ErrMalformedParams, "%s takes %d parameters, got %d", c, n, len(vector))
	}
	if _, err := checkedVector(vector...); err != nil {
		return nil, err
	}

	switch c {
	case CurveTypeConstant:
		return NewConstantCurveParameters(vector[0]), nil
	case CurveTypeLinear:
		return NewLinearCurveParameters(vector[0], vector[1], vector[2]), nil
	default:
		return NewExponentialCurveParameters(vector[0], vector[1], vector[2], vector[3]), nil
	}
}

func checkedVector(values ...*big.Int) ([]*big.Int, error) {
	out := make([]*big.Int, len(values))
	for i, v := range values {
		if err := CheckInt256(v); err != nil {
			return nil, fmt.Errorf("param %d: %w", i, err)
		}
		out[i] = new(big.Int).Set(v)
	}
	return out, nil
}

func copyInt(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}
