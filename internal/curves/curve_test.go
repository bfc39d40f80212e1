package curves

import (
	"errors"
	"math/big"
	"testing"

	"go-intents/internal/types"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tokenContract = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")

var int256Arguments = func() abi.Arguments {
	typ, err := abi.NewType("int256", "", nil)
	if err != nil {
		panic(err)
	}
	return abi.Arguments{{Type: typ}}
}()

func TestConstantCurve_ParamVector(t *testing.T) {
	tests := []struct {
		name     string
		value    *big.Int
		wantWord string
	}{
		{
			name:     "positive",
			value:    big.NewInt(1000),
			wantWord: "00000000000000000000000000000000000000000000000000000000000003e8",
		},
		{
			name:     "zero",
			value:    big.NewInt(0),
			wantWord: "0000000000000000000000000000000000000000000000000000000000000000",
		},
		{
			name:     "negative one",
			value:    big.NewInt(-1),
			wantWord: "ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff",
		},
		{
			name:     "negative",
			value:    big.NewInt(-1000),
			wantWord: "fffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffc18",
		},
		{
			name:     "int256 max",
			value:    new(big.Int).Set(maxInt256),
			wantWord: "7fffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff",
		},
		{
			name:     "int256 min",
			value:    new(big.Int).Set(minInt256),
			wantWord: "8000000000000000000000000000000000000000000000000000000000000000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := NewConstantCurveParameters(tt.value)
			assert.Equal(t, CurveTypeConstant, params.CurveType())

			vector, err := params.Params()
			require.NoError(t, err)
			require.Len(t, vector, 1)
			assert.Equal(t, 0, vector[0].Cmp(tt.value))

			word, err := int256Arguments.Pack(vector[0])
			require.NoError(t, err)
			assert.Equal(t, tt.wantWord, common.Bytes2Hex(word))

			decoded, err := int256Arguments.Unpack(word)
			require.NoError(t, err)
			assert.Equal(t, 0, decoded[0].(*big.Int).Cmp(tt.value))
		})
	}
}

func TestCurveParameters_ShapeAndOrder(t *testing.T) {
	m, b, e, xMax := big.NewInt(3), big.NewInt(-7), big.NewInt(2), big.NewInt(500)

	linear, err := NewLinearCurveParameters(m, b, xMax).Params()
	require.NoError(t, err)
	assert.Equal(t, []*big.Int{m, b, xMax}, linear)

	exp, err := NewExponentialCurveParameters(m, b, e, xMax).Params()
	require.NoError(t, err)
	assert.Equal(t, []*big.Int{m, b, e, xMax}, exp)

	for c, want := range map[CurveType]int{CurveTypeConstant: 1, CurveTypeLinear: 3, CurveTypeExponential: 4} {
		n, err := ParamCount(c)
		require.NoError(t, err)
		assert.Equal(t, want, n, c.String())
	}
}

func TestCurveParameters_CopiesInputs(t *testing.T) {
	v := big.NewInt(10)
	params := NewConstantCurveParameters(v)
	v.SetInt64(99)

	vector, err := params.Params()
	require.NoError(t, err)
	assert.Equal(t, int64(10), vector[0].Int64())

	vector[0].SetInt64(42)
	again, err := params.Params()
	require.NoError(t, err)
	assert.Equal(t, int64(10), again[0].Int64())
}

func TestCurveParameters_Violations(t *testing.T) {
	tooBig := new(big.Int).Add(maxInt256, big.NewInt(1))
	tooSmall := new(big.Int).Sub(minInt256, big.NewInt(1))

	tests := []struct {
		name    string
		params  CurveParameters
		wantErr error
	}{
		{name: "constant above int256", params: NewConstantCurveParameters(tooBig), wantErr: types.ErrParamOutOfRange},
		{name: "constant below int256", params: NewConstantCurveParameters(tooSmall), wantErr: types.ErrParamOutOfRange},
		{name: "constant nil", params: ConstantCurveParameters{}, wantErr: types.ErrMalformedParams},
		{name: "linear missing max", params: LinearCurveParameters{M: big.NewInt(1), B: big.NewInt(1)}, wantErr: types.ErrMalformedParams},
		{
			name:    "exponential exponent out of range",
			params:  NewExponentialCurveParameters(big.NewInt(1), big.NewInt(0), tooBig, big.NewInt(1)),
			wantErr: types.ErrParamOutOfRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vector, err := tt.params.Params()
			require.Error(t, err)
			assert.Nil(t, vector)
			assert.True(t, errors.Is(err, tt.wantErr))
			assert.True(t, types.IsEncodingContract(err))
		})
	}
}

func TestCurveParametersFromVector(t *testing.T) {
	params, err := CurveParametersFromVector(CurveTypeLinear, []*big.Int{big.NewInt(1), big.NewInt(2), big.NewInt(3)})
	require.NoError(t, err)
	assert.Equal(t, NewLinearCurveParameters(big.NewInt(1), big.NewInt(2), big.NewInt(3)), params)

	_, err = CurveParametersFromVector(CurveTypeExponential, []*big.Int{big.NewInt(1)})
	assert.True(t, errors.Is(err, types.ErrMalformedParams))

	_, err = CurveParametersFromVector(CurveType(9), nil)
	assert.True(t, errors.Is(err, types.ErrUnknownCurveType))
}

func TestNewReleaseCurve_PinsAbsolute(t *testing.T) {
	shapes := []CurveParameters{
		NewConstantCurveParameters(big.NewInt(1000)),
		NewLinearCurveParameters(big.NewInt(1), big.NewInt(0), big.NewInt(10)),
		NewExponentialCurveParameters(big.NewInt(1), big.NewInt(0), big.NewInt(2), big.NewInt(10)),
	}
	assets := []AssetType{AssetTypeETH, AssetTypeERC20, AssetTypeERC721, AssetTypeERC721ID, AssetTypeERC1155, AssetTypeERC1155ID}

	for _, asset := range assets {
		for _, params := range shapes {
			curve, err := NewReleaseCurve(asset, params)
			require.NoError(t, err)
			assert.Equal(t, EvaluationTypeAbsolute, curve.Flags().EvaluationType())
			assert.Equal(t, asset, curve.Flags().AssetType())
			assert.Equal(t, params.CurveType(), curve.Flags().CurveType())

			assetCurve, err := NewAssetReleaseCurve(tokenContract, big.NewInt(7), asset, params)
			require.NoError(t, err)
			assert.Equal(t, EvaluationTypeAbsolute, assetCurve.Flags().EvaluationType())
		}
	}
}

func TestNewAssetRequirementCurve_KeepsEvaluationType(t *testing.T) {
	params := NewConstantCurveParameters(big.NewInt(0))

	relative, err := NewAssetRequirementCurve(tokenContract, nil, AssetTypeERC20, params, EvaluationTypeRelative)
	require.NoError(t, err)
	assert.Equal(t, EvaluationTypeRelative, relative.Flags().EvaluationType())
	assert.Equal(t, int64(0), relative.AssetID().Int64())
	assert.Equal(t, tokenContract, relative.AssetContract())

	absolute, err := NewAssetRequirementCurve(tokenContract, nil, AssetTypeERC20, params, EvaluationTypeAbsolute)
	require.NoError(t, err)
	assert.False(t, relative.Equal(absolute))
}

func TestAssetBasedIntentCurve_Equal(t *testing.T) {
	params := NewConstantCurveParameters(big.NewInt(5))
	base, err := NewAssetReleaseCurve(tokenContract, big.NewInt(1), AssetTypeERC721ID, params)
	require.NoError(t, err)

	same, err := NewAssetReleaseCurve(tokenContract, big.NewInt(1), AssetTypeERC721ID, params)
	require.NoError(t, err)
	assert.True(t, base.Equal(same))

	otherID, err := NewAssetReleaseCurve(tokenContract, big.NewInt(2), AssetTypeERC721ID, params)
	require.NoError(t, err)
	assert.False(t, base.Equal(otherID))

	otherContract, err := NewAssetReleaseCurve(common.Address{}, big.NewInt(1), AssetTypeERC721ID, params)
	require.NoError(t, err)
	assert.False(t, base.Equal(otherContract))

	otherValue, err := NewAssetReleaseCurve(tokenContract, big.NewInt(1), AssetTypeERC721ID, NewConstantCurveParameters(big.NewInt(6)))
	require.NoError(t, err)
	assert.False(t, base.Equal(otherValue))
}

func TestAssetBasedIntentCurve_Violations(t *testing.T) {
	_, err := NewAssetReleaseCurve(tokenContract, big.NewInt(-1), AssetTypeERC721ID, NewConstantCurveParameters(big.NewInt(1)))
	assert.True(t, errors.Is(err, types.ErrParamOutOfRange))

	_, err = NewAssetReleaseCurve(tokenContract, big.NewInt(1), AssetTypeERC721ID, nil)
	assert.True(t, errors.Is(err, types.ErrMalformedParams))

	_, err = NewAssetRequirementCurve(tokenContract, nil, AssetTypeERC20, NewConstantCurveParameters(nil), EvaluationTypeAbsolute)
	assert.True(t, types.IsEncodingContract(err))
}

func TestAssetBasedIntentCurve_Tuple(t *testing.T) {
	curve, err := NewAssetRequirementCurve(tokenContract, big.NewInt(3), AssetTypeERC1155ID,
		NewLinearCurveParameters(big.NewInt(2), big.NewInt(-1), big.NewInt(100)), EvaluationTypeRelative)
	require.NoError(t, err)

	tuple := curve.Tuple()
	assert.Equal(t, int64(3), tuple.AssetId.Int64())
	assert.Equal(t, tokenContract, tuple.AssetContract)
	assert.Equal(t, int64(0x010105), tuple.Flags.Int64())
	assert.Equal(t, []*big.Int{big.NewInt(2), big.NewInt(-1), big.NewInt(100)}, tuple.Params)

	tuple.Params[0].SetInt64(99)
	assert.Equal(t, int64(2), curve.Params()[0].Int64())
}

func TestParseEnums(t *testing.T) {
	asset, err := ParseAssetType("erc721_id")
	require.NoError(t, err)
	assert.Equal(t, AssetTypeERC721ID, asset)

	curve, err := ParseCurveType(" linear ")
	require.NoError(t, err)
	assert.Equal(t, CurveTypeLinear, curve)

	eval, err := ParseEvaluationType("")
	require.NoError(t, err)
	assert.Equal(t, EvaluationTypeAbsolute, eval)

	_, err = ParseAssetType("erc777")
	assert.Error(t, err)
	_, err = ParseEvaluationType("delta")
	assert.Error(t, err)
}
