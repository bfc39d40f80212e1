package intents_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"go-intents/internal/curves"
	"go-intents/internal/intents"
	"go-intents/internal/mocks"
	"go-intents/internal/signer"
	"go-intents/internal/standards"
	"go-intents/internal/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var (
	sender     = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	entryPoint = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	chainID    = big.NewInt(31337)

	ethReleaseStandard = common.BigToHash(big.NewInt(2))
	ethRequireStandard = common.BigToHash(big.NewInt(3))
	callStandard       = common.BigToHash(big.NewInt(4))
	nonceStandard      = common.BigToHash(big.NewInt(5))
)

const userKey = "0x59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"

func ethRelease(t *testing.T, amount int64) *standards.EthReleaseIntentSegment {
	t.Helper()
	seg, err := standards.NewEthReleaseIntentSegment(ethReleaseStandard, curves.NewConstantCurveParameters(big.NewInt(amount)))
	require.NoError(t, err)
	return seg
}

func ethRequire(t *testing.T, amount int64, eval curves.EvaluationType) *standards.EthRequireIntentSegment {
	t.Helper()
	seg, err := standards.NewEthRequireIntentSegment(ethRequireStandard, curves.NewConstantCurveParameters(big.NewInt(amount)), eval)
	require.NoError(t, err)
	return seg
}

func nonce(t *testing.T, n int64) *standards.SequentialNonceSegment {
	t.Helper()
	seg, err := standards.NewSequentialNonceSegment(nonceStandard, big.NewInt(n))
	require.NoError(t, err)
	return seg
}

func TestUserIntent_AddSegmentPreservesOrder(t *testing.T) {
	s1 := ethRelease(t, 1000)
	s2 := ethRequire(t, 0, curves.EvaluationTypeAbsolute)
	s3 := nonce(t, 1)
	dup := ethRelease(t, 1000)

	intent := intents.NewUserIntent(sender, common.Hash{})
	for _, seg := range []standards.Segment{s1, s2, s3, dup} {
		require.NoError(t, intent.AddSegment(seg))
	}

	segments := intent.Segments()
	require.Len(t, segments, 4)
	assert.Same(t, s1, segments[0])
	assert.Same(t, s2, segments[1])
	assert.Same(t, s3, segments[2])
	assert.Same(t, dup, segments[3])

	data, err := intent.IntentData()
	require.NoError(t, err)
	for i, seg := range segments {
		encoded, err := seg.Encode()
		require.NoError(t, err)
		assert.Equal(t, encoded, data[i])
	}
	assert.Equal(t, intents.IntentStateBuilding, intent.State())
}

func TestUserIntent_SegmentsIsACopy(t *testing.T) {
	intent := intents.NewUserIntent(sender, common.Hash{})
	require.NoError(t, intent.AddSegment(ethRelease(t, 1)))

	segments := intent.Segments()
	segments[0] = nonce(t, 9)

	assert.Equal(t, standards.KindEthRelease, intent.Segments()[0].Kind())
}

func TestUserIntent_AddNilSegment(t *testing.T) {
	intent := intents.NewUserIntent(sender, common.Hash{})
	err := intent.AddSegment(nil)
	assert.True(t, errors.Is(err, types.ErrNilSegment))
	assert.Empty(t, intent.Segments())
}

func TestUserIntent_SignSealsIntent(t *testing.T) {
	userSigner, err := signer.NewPrivateKeySigner(userKey)
	require.NoError(t, err)

	intent := intents.NewUserIntent(userSigner.Address(), common.Hash{})
	require.NoError(t, intent.AddSegment(ethRelease(t, 1000)))
	require.NoError(t, intent.AddSegment(ethRequire(t, 0, curves.EvaluationTypeAbsolute)))

	require.NoError(t, intent.Sign(context.Background(), userSigner, entryPoint, chainID))
	assert.True(t, intent.IsSigned())
	assert.Equal(t, intents.IntentStateSigned, intent.State())

	payload, err := intent.SigningPayload(entryPoint, chainID)
	require.NoError(t, err)
	recovered, err := signer.RecoverIntentSigner(payload, intent.Signature())
	require.NoError(t, err)
	assert.Equal(t, userSigner.Address(), recovered)

	before, err := intent.Encode()
	require.NoError(t, err)
	sigBefore := intent.Signature()

	err = intent.AddSegment(nonce(t, 1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrIntentSigned))
	assert.True(t, types.IsEncodingContract(err))

	after, err := intent.Encode()
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Len(t, intent.Segments(), 2)
	assert.Equal(t, sigBefore, intent.Signature())

	err = intent.Sign(context.Background(), userSigner, entryPoint, chainID)
	assert.True(t, errors.Is(err, types.ErrIntentSigned))
	assert.Equal(t, sigBefore, intent.Signature())
}

func TestUserIntent_SignedEncodingIgnoresSegmentChanges(t *testing.T) {
	userSigner, err := signer.NewPrivateKeySigner(userKey)
	require.NoError(t, err)
	token := common.HexToAddress("0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512")

	seg := standards.NewAssetBasedIntentSegment(common.BigToHash(big.NewInt(1)), []byte{0x01})
	require.NoError(t, seg.AddAssetReleaseCurve(token, nil, curves.AssetTypeERC20, curves.NewConstantCurveParameters(big.NewInt(10))))

	intent := intents.NewUserIntent(userSigner.Address(), common.Hash{})
	require.NoError(t, intent.AddSegment(seg))
	require.NoError(t, intent.Sign(context.Background(), userSigner, entryPoint, chainID))

	encoded, err := intent.Encode()
	require.NoError(t, err)
	solution, err := intents.NewIntentSolution(big.NewInt(1), []*intents.UserIntent{intent}, nil)
	require.NoError(t, err)
	calldata, err := solution.Pack()
	require.NoError(t, err)

	require.NoError(t, seg.AddAssetReleaseCurve(token, nil, curves.AssetTypeERC20, curves.NewConstantCurveParameters(big.NewInt(99))))

	after, err := intent.Encode()
	require.NoError(t, err)
	assert.Equal(t, encoded, after)

	calldataAfter, err := solution.Pack()
	require.NoError(t, err)
	assert.Equal(t, calldata, calldataAfter)

	payload, err := intent.SigningPayload(entryPoint, chainID)
	require.NoError(t, err)
	recovered, err := signer.RecoverIntentSigner(payload, intent.Signature())
	require.NoError(t, err)
	assert.Equal(t, userSigner.Address(), recovered)

	live, err := seg.Encode()
	require.NoError(t, err)
	data, err := intent.IntentData()
	require.NoError(t, err)
	assert.NotEqual(t, live, data[0])
}

func TestUserIntent_AttachSignatureFreezesEncoding(t *testing.T) {
	token := common.HexToAddress("0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512")
	seg := standards.NewAssetBasedIntentSegment(common.BigToHash(big.NewInt(1)), nil)

	intent := intents.NewUserIntent(sender, common.Hash{})
	require.NoError(t, intent.AddSegment(seg))
	require.NoError(t, intent.AttachSignature([]byte{0x01}))
	before, err := intent.IntentData()
	require.NoError(t, err)

	require.NoError(t, seg.AddAssetRequirementCurve(token, nil, curves.AssetTypeERC20, curves.NewConstantCurveParameters(big.NewInt(1)), curves.EvaluationTypeAbsolute))

	tuple, err := intent.Tuple()
	require.NoError(t, err)
	assert.Equal(t, before, tuple.IntentData)
}

func TestUserIntent_SignDelegatesPayload(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSigner := mocks.NewMockSigner(ctrl)
	ctx := context.Background()

	intent := intents.NewUserIntent(sender, common.Hash{})
	require.NoError(t, intent.AddSegment(ethRelease(t, 5)))
	payload, err := intent.SigningPayload(entryPoint, chainID)
	require.NoError(t, err)

	sig := make([]byte, 65)
	sig[64] = 27
	mockSigner.EXPECT().SignIntent(ctx, payload).Return(sig, nil)

	require.NoError(t, intent.Sign(ctx, mockSigner, entryPoint, chainID))
	assert.Equal(t, sig, intent.Signature())
}

func TestUserIntent_SignerErrorIsReturnedVerbatim(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSigner := mocks.NewMockSigner(ctrl)
	signerErr := errors.New("hsm unavailable")
	mockSigner.EXPECT().SignIntent(gomock.Any(), gomock.Any()).Return(nil, signerErr)

	intent := intents.NewUserIntent(sender, common.Hash{})
	require.NoError(t, intent.AddSegment(ethRelease(t, 5)))

	err := intent.Sign(context.Background(), mockSigner, entryPoint, chainID)
	assert.Same(t, signerErr, err)
	assert.False(t, intent.IsSigned())
	assert.Nil(t, intent.Signature())

	require.NoError(t, intent.AddSegment(nonce(t, 1)))
	assert.Len(t, intent.Segments(), 2)
}

func TestUserIntent_HashBindsEntryPointAndChain(t *testing.T) {
	intent := intents.NewUserIntent(sender, common.Hash{})
	require.NoError(t, intent.AddSegment(ethRelease(t, 1000)))

	encoded, err := intent.Encode()
	require.NoError(t, err)

	payload, err := intent.SigningPayload(entryPoint, chainID)
	require.NoError(t, err)
	require.Len(t, payload, 96)
	assert.Equal(t, crypto.Keccak256(encoded), payload[:32])
	assert.Equal(t, common.LeftPadBytes(entryPoint.Bytes(), 32), payload[32:64])
	assert.Equal(t, common.LeftPadBytes(chainID.Bytes(), 32), payload[64:])

	hash, err := intent.Hash(entryPoint, chainID)
	require.NoError(t, err)
	assert.Equal(t, crypto.Keccak256Hash(payload), hash)

	otherChain, err := intent.Hash(entryPoint, big.NewInt(1))
	require.NoError(t, err)
	assert.NotEqual(t, hash, otherChain)

	_, err = intent.SigningPayload(entryPoint, nil)
	assert.Error(t, err)
}

func TestUserIntent_EncodeLayout(t *testing.T) {
	standard := common.BigToHash(big.NewInt(7))
	intent := intents.NewUserIntent(sender, standard)

	encoded, err := intent.Encode()
	require.NoError(t, err)
	// sender, standard, offset, empty array length
	require.Len(t, encoded, 4*32)
	assert.Equal(t, common.LeftPadBytes(sender.Bytes(), 32), encoded[:32])
	assert.Equal(t, standard.Bytes(), encoded[32:64])
	assert.Equal(t, common.LeftPadBytes([]byte{0x60}, 32), encoded[64:96])
	assert.Equal(t, make([]byte, 32), encoded[96:])
}

func TestUserIntent_AttachSignature(t *testing.T) {
	intent := intents.NewUserIntent(sender, common.Hash{})
	assert.Error(t, intent.AttachSignature(nil))
	assert.False(t, intent.IsSigned())

	require.NoError(t, intent.AttachSignature([]byte{1, 2, 3}))
	assert.True(t, intent.IsSigned())
	assert.True(t, errors.Is(intent.AttachSignature([]byte{4}), types.ErrIntentSigned))
	assert.Equal(t, []byte{1, 2, 3}, intent.Signature())
}
