package standards

import (
	"errors"
	"math/big"
	"strings"
	"testing"

	"go-intents/internal/curves"
	"go-intents/internal/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testStandard  = common.HexToHash("0x11aa000000000000000000000000000000000000000000000000000000000022")
	testToken     = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	paddedToken   = "0000000000000000000000005fbdb2315678afecb367f032d93f642f64180aa3"
	standardWord  = strings.TrimPrefix(testStandard.Hex(), "0x")
	constant1000  = curves.NewConstantCurveParameters(big.NewInt(1000))
	constantZero  = curves.NewConstantCurveParameters(big.NewInt(0))
	wordOffset20  = word(0x20)
	wordOffset40  = word(0x40)
	wordValue1000 = word(0x3e8)
)

func word(v uint64) string {
	return common.Bytes2Hex(common.LeftPadBytes(new(big.Int).SetUint64(v).Bytes(), 32))
}

func splitWords(t *testing.T, data []byte) []string {
	t.Helper()
	require.Zero(t, len(data)%32, "encoding is not word aligned")
	out := make([]string, 0, len(data)/32)
	for i := 0; i < len(data); i += 32 {
		out = append(out, common.Bytes2Hex(data[i:i+32]))
	}
	return out
}

func TestEthReleaseIntentSegment_Encode(t *testing.T) {
	seg, err := NewEthReleaseIntentSegment(testStandard, constant1000)
	require.NoError(t, err)
	assert.Equal(t, KindEthRelease, seg.Kind())
	assert.Equal(t, testStandard, seg.StandardID())

	data, err := seg.Encode()
	require.NoError(t, err)
	assert.Equal(t, []string{
		wordOffset20,
		standardWord,
		wordOffset40,
		word(0), // flags: ETH, CONSTANT, ABSOLUTE
		wordOffset40,
		word(1),
		wordValue1000,
	}, splitWords(t, data))
}

func TestEthRequireIntentSegment_Encode(t *testing.T) {
	tests := []struct {
		name      string
		params    curves.CurveParameters
		eval      curves.EvaluationType
		wantFlags string
		wantParam string
	}{
		{
			name:      "zero absolute",
			params:    constantZero,
			eval:      curves.EvaluationTypeAbsolute,
			wantFlags: word(0),
			wantParam: word(0),
		},
		{
			name:      "negative relative",
			params:    curves.NewConstantCurveParameters(big.NewInt(-1)),
			eval:      curves.EvaluationTypeRelative,
			wantFlags: word(1 << 16),
			wantParam: strings.Repeat("ff", 32),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seg, err := NewEthRequireIntentSegment(testStandard, tt.params, tt.eval)
			require.NoError(t, err)
			assert.Equal(t, tt.eval, seg.Requirement().Flags().EvaluationType())

			data, err := seg.Encode()
			require.NoError(t, err)
			assert.Equal(t, []string{
				wordOffset20,
				standardWord,
				wordOffset40,
				tt.wantFlags,
				wordOffset40,
				word(1),
				tt.wantParam,
			}, splitWords(t, data))
		})
	}
}

func TestErc20ReleaseIntentSegment_Encode(t *testing.T) {
	seg, err := NewErc20ReleaseIntentSegment(testStandard, testToken,
		curves.NewLinearCurveParameters(big.NewInt(2), big.NewInt(-1), big.NewInt(100)))
	require.NoError(t, err)
	assert.Equal(t, curves.AssetTypeERC20, seg.Release().Flags().AssetType())
	assert.Equal(t, curves.EvaluationTypeAbsolute, seg.Release().Flags().EvaluationType())

	data, err := seg.Encode()
	require.NoError(t, err)
	assert.Equal(t, []string{
		wordOffset20,
		standardWord,
		paddedToken,
		word(0x60),
		word(0x0101), // ERC20, LINEAR, ABSOLUTE
		wordOffset40,
		word(3),
		word(2),
		strings.Repeat("ff", 32),
		word(100),
	}, splitWords(t, data))
}

func TestCallIntentSegment_Encode(t *testing.T) {
	callData := common.FromHex("0xdeadbeef")
	seg := NewCallIntentSegment(testStandard, callData)
	callData[0] = 0x00
	assert.Equal(t, common.FromHex("0xdeadbeef"), seg.CallData())

	data, err := seg.Encode()
	require.NoError(t, err)
	assert.Equal(t, []string{
		wordOffset20,
		standardWord,
		wordOffset40,
		word(4),
		"deadbeef" + strings.Repeat("00", 28),
	}, splitWords(t, data))
}

func TestSequentialNonceSegment_Encode(t *testing.T) {
	seg, err := NewSequentialNonceSegment(testStandard, big.NewInt(1))
	require.NoError(t, err)

	data, err := seg.Encode()
	require.NoError(t, err)
	assert.Equal(t, []string{standardWord, word(1)}, splitWords(t, data))
}

func TestSequentialNonceSegment_Violations(t *testing.T) {
	for _, nonce := range []*big.Int{nil, big.NewInt(-1), new(big.Int).Lsh(big.NewInt(1), 256)} {
		seg, err := NewSequentialNonceSegment(testStandard, nonce)
		assert.Nil(t, seg)
		assert.True(t, errors.Is(err, types.ErrParamOutOfRange))
	}
}

func TestAssetBasedIntentSegment_Encode(t *testing.T) {
	seg := NewAssetBasedIntentSegment(testStandard, common.FromHex("0xdeadbeef"))
	require.NoError(t, seg.AddAssetReleaseCurve(testToken, big.NewInt(7), curves.AssetTypeERC721ID, constant1000))

	data, err := seg.Encode()
	require.NoError(t, err)
	assert.Equal(t, []string{
		wordOffset20,
		standardWord,
		word(0x80),  // callData
		word(0xc0),  // assetReleases
		word(0x1c0), // assetRequirements
		word(4),
		"deadbeef" + strings.Repeat("00", 28),
		word(1),
		wordOffset20,
		word(7),
		paddedToken,
		word(3), // ERC721_ID, CONSTANT, ABSOLUTE
		word(0x80),
		word(1),
		wordValue1000,
		word(0),
	}, splitWords(t, data))
}

func TestAssetBasedIntentSegment_PreservesOrder(t *testing.T) {
	seg := NewAssetBasedIntentSegment(testStandard, nil)

	for i := int64(1); i <= 3; i++ {
		require.NoError(t, seg.AddAssetReleaseCurve(testToken, big.NewInt(i), curves.AssetTypeERC721ID, constant1000))
	}
	require.NoError(t, seg.AddAssetRequirementCurve(testToken, nil, curves.AssetTypeERC20, constantZero, curves.EvaluationTypeRelative))
	require.NoError(t, seg.AddAssetRequirementCurve(common.Address{}, nil, curves.AssetTypeETH, constantZero, curves.EvaluationTypeAbsolute))

	releases := seg.AssetReleases()
	require.Len(t, releases, 3)
	for i, r := range releases {
		assert.Equal(t, int64(i+1), r.AssetID().Int64())
		assert.Equal(t, curves.EvaluationTypeAbsolute, r.Flags().EvaluationType())
	}

	requirements := seg.AssetRequirements()
	require.Len(t, requirements, 2)
	assert.Equal(t, curves.AssetTypeERC20, requirements[0].Flags().AssetType())
	assert.Equal(t, curves.EvaluationTypeRelative, requirements[0].Flags().EvaluationType())
	assert.Equal(t, curves.AssetTypeETH, requirements[1].Flags().AssetType())
}

func TestAssetBasedIntentSegment_FailedAddLeavesSegmentUnchanged(t *testing.T) {
	seg := NewAssetBasedIntentSegment(testStandard, nil)
	require.NoError(t, seg.AddAssetReleaseCurve(testToken, big.NewInt(1), curves.AssetTypeERC721ID, constant1000))
	before, err := seg.Encode()
	require.NoError(t, err)

	err = seg.AddAssetReleaseCurve(testToken, big.NewInt(-5), curves.AssetTypeERC721ID, constant1000)
	assert.True(t, types.IsEncodingContract(err))
	err = seg.AddAssetRequirementCurve(testToken, nil, curves.AssetTypeERC20, curves.LinearCurveParameters{}, curves.EvaluationTypeAbsolute)
	assert.True(t, errors.Is(err, types.ErrMalformedParams))

	after, err := seg.Encode()
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Len(t, seg.AssetReleases(), 1)
	assert.Empty(t, seg.AssetRequirements())
}

func TestSegment_EncodeDeterministic(t *testing.T) {
	nonce, err := NewSequentialNonceSegment(testStandard, big.NewInt(9))
	require.NoError(t, err)
	release, err := NewEthReleaseIntentSegment(testStandard, constant1000)
	require.NoError(t, err)

	for _, seg := range []Segment{nonce, release, NewCallIntentSegment(testStandard, []byte{1, 2, 3})} {
		first, err := seg.Encode()
		require.NoError(t, err)
		second, err := seg.Encode()
		require.NoError(t, err)
		assert.Equal(t, first, second, string(seg.Kind()))
	}
}

func TestParseSegmentKind(t *testing.T) {
	for _, k := range SegmentKinds {
		parsed, err := ParseSegmentKind(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}
	_, err := ParseSegmentKind("erc721_release")
	assert.Error(t, err)
}
