package services

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"go-intents/internal/config"
	"go-intents/internal/curves"
	"go-intents/internal/dto"
	"go-intents/internal/intents"
	"go-intents/internal/metrics"
	"go-intents/internal/standards"
	"go-intents/internal/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sirupsen/logrus"
)

// IntentSigner is the service-held key used when a request asks to be signed
type IntentSigner interface {
	intents.Signer
	Address() common.Address
}

// IntentService turns request descriptions into segments, intents and solutions
// for one network
type IntentService struct {
	network     string
	chainID     *big.Int
	entryPoint  common.Address
	solverUtils common.Address
	standards   map[standards.SegmentKind]common.Hash
	signer      IntentSigner
}

// NewIntentService create new IntentService instance. signer may be nil.
func NewIntentService(network string, cfg config.NetworkConfig, signer IntentSigner) (*IntentService, error) {
	if !common.IsHexAddress(cfg.EntryPoint) {
		return nil, fmt.Errorf("network %s: invalid entry point address %q", network, cfg.EntryPoint)
	}

	ids, err := standardIDs(cfg.Standards)
	if err != nil {
		return nil, fmt.Errorf("network %s: %w", network, err)
	}

	s := &IntentService{
		network:    network,
		chainID:    big.NewInt(int64(cfg.ChainID)),
		entryPoint: common.HexToAddress(cfg.EntryPoint),
		standards:  ids,
		signer:     signer,
	}
	if cfg.SolverUtils != "" {
		if !common.IsHexAddress(cfg.SolverUtils) {
			return nil, fmt.Errorf("network %s: invalid solver utils address %q", network, cfg.SolverUtils)
		}
		s.solverUtils = common.HexToAddress(cfg.SolverUtils)
	}
	return s, nil
}

func standardIDs(cfg config.StandardsConfig) (map[standards.SegmentKind]common.Hash, error) {
	configured := map[standards.SegmentKind]string{
		standards.KindErc20Release:    cfg.Erc20Release,
		standards.KindEthRelease:      cfg.EthRelease,
		standards.KindEthRequire:      cfg.EthRequire,
		standards.KindCall:            cfg.Call,
		standards.KindSequentialNonce: cfg.SequentialNonce,
		standards.KindAssetBased:      cfg.AssetBased,
	}
	ids := make(map[standards.SegmentKind]common.Hash, len(configured))
	for kind, raw := range configured {
		if raw == "" {
			continue
		}
		id, err := parseHash(raw)
		if err != nil {
			return nil, fmt.Errorf("standard %s: %w", kind, err)
		}
		ids[kind] = id
	}
	return ids, nil
}

func (s *IntentService) Network() string {
	return s.network
}

func (s *IntentService) ChainID() *big.Int {
	return new(big.Int).Set(s.chainID)
}

func (s *IntentService) EntryPoint() common.Address {
	return s.entryPoint
}

// StandardID returns the configured standard id for a segment kind
func (s *IntentService) StandardID(kind standards.SegmentKind) (common.Hash, error) {
	id, ok := s.standards[kind]
	if !ok {
		return common.Hash{}, fmt.Errorf("standard for %s is not configured on %s", kind, s.network)
	}
	return id, nil
}

// BuildSegment builds one segment from its description
func (s *IntentService) BuildSegment(req dto.SegmentRequest) (standards.Segment, error) {
	seg, err := s.buildSegment(req)
	if err != nil {
		if types.IsEncodingContract(err) {
			metrics.EncodingViolations.WithLabelValues("build_segment").Inc()
		}
		return nil, err
	}
	metrics.SegmentsEncoded.WithLabelValues(string(seg.Kind())).Inc()
	return seg, nil
}

func (s *IntentService) buildSegment(req dto.SegmentRequest) (standards.Segment, error) {
	kind, err := standards.ParseSegmentKind(req.Kind)
	if err != nil {
		return nil, err
	}

	standard, err := s.segmentStandard(kind, req.Standard)
	if err != nil {
		return nil, err
	}

	switch kind {
	case standards.KindErc20Release:
		contract, err := parseAddress("asset_contract", req.AssetContract)
		if err != nil {
			return nil, err
		}
		params, err := curveParameters(req.Curve)
		if err != nil {
			return nil, err
		}
		return standards.NewErc20ReleaseIntentSegment(standard, contract, params)

	case standards.KindEthRelease:
		params, err := curveParameters(req.Curve)
		if err != nil {
			return nil, err
		}
		return standards.NewEthReleaseIntentSegment(standard, params)

	case standards.KindEthRequire:
		params, err := curveParameters(req.Curve)
		if err != nil {
			return nil, err
		}
		evaluation, err := curves.ParseEvaluationType(req.EvaluationType)
		if err != nil {
			return nil, err
		}
		return standards.NewEthRequireIntentSegment(standard, params, evaluation)

	case standards.KindCall:
		callData, err := parseBytes("call_data", req.CallData)
		if err != nil {
			return nil, err
		}
		return standards.NewCallIntentSegment(standard, callData), nil

	case standards.KindSequentialNonce:
		nonce, err := parseUint("nonce", req.Nonce)
		if err != nil {
			return nil, err
		}
		return standards.NewSequentialNonceSegment(standard, nonce)

	case standards.KindAssetBased:
		callData, err := parseBytes("call_data", req.CallData)
		if err != nil {
			return nil, err
		}
		seg := standards.NewAssetBasedIntentSegment(standard, callData)
		for i, release := range req.AssetReleases {
			contract, id, assetType, params, err := assetCurve(release)
			if err != nil {
				return nil, fmt.Errorf("asset_releases[%d]: %w", i, err)
			}
			if err := seg.AddAssetReleaseCurve(contract, id, assetType, params); err != nil {
				return nil, fmt.Errorf("asset_releases[%d]: %w", i, err)
			}
		}
		for i, requirement := range req.AssetRequirements {
			contract, id, assetType, params, err := assetCurve(requirement)
			if err != nil {
				return nil, fmt.Errorf("asset_requirements[%d]: %w", i, err)
			}
			evaluation, err := curves.ParseEvaluationType(requirement.EvaluationType)
			if err != nil {
				return nil, fmt.Errorf("asset_requirements[%d]: %w", i, err)
			}
			if err := seg.AddAssetRequirementCurve(contract, id, assetType, params, evaluation); err != nil {
				return nil, fmt.Errorf("asset_requirements[%d]: %w", i, err)
			}
		}
		return seg, nil
	}
	return nil, fmt.Errorf("unsupported segment kind %s", kind)
}

func (s *IntentService) segmentStandard(kind standards.SegmentKind, override string) (common.Hash, error) {
	if override != "" {
		return parseHash(override)
	}
	return s.StandardID(kind)
}

// BuildIntent assembles a user intent. A supplied signature is attached;
// otherwise the intent is signed with the service signer when requested.
func (s *IntentService) BuildIntent(ctx context.Context, req dto.IntentRequest) (*intents.UserIntent, error) {
	sender, err := s.intentSender(req)
	if err != nil {
		return nil, err
	}
	standard := common.Hash{}
	if req.Standard != "" {
		if standard, err = parseHash(req.Standard); err != nil {
			return nil, err
		}
	}

	intent := intents.NewUserIntent(sender, standard)
	for i, segReq := range req.Segments {
		seg, err := s.BuildSegment(segReq)
		if err != nil {
			return nil, fmt.Errorf("segments[%d]: %w", i, err)
		}
		if err := intent.AddSegment(seg); err != nil {
			return nil, fmt.Errorf("segments[%d]: %w", i, err)
		}
	}

	switch {
	case req.Signature != "":
		sig, err := parseBytes("signature", req.Signature)
		if err != nil {
			return nil, err
		}
		if err := intent.AttachSignature(sig); err != nil {
			return nil, err
		}
	case req.Sign:
		if err := s.SignIntent(ctx, intent); err != nil {
			return nil, err
		}
	}
	return intent, nil
}

func (s *IntentService) intentSender(req dto.IntentRequest) (common.Address, error) {
	if req.Sender != "" {
		return parseAddress("sender", req.Sender)
	}
	if req.Sign && s.signer != nil {
		return s.signer.Address(), nil
	}
	return common.Address{}, fmt.Errorf("sender is required")
}

// SignIntent signs an intent with the service signer for this network's entry point
func (s *IntentService) SignIntent(ctx context.Context, intent *intents.UserIntent) error {
	if s.signer == nil {
		return fmt.Errorf("no intent signer configured for %s", s.network)
	}
	if err := intent.Sign(ctx, s.signer, s.entryPoint, s.chainID); err != nil {
		metrics.IntentSignFailures.Inc()
		logrus.WithError(err).WithFields(logrus.Fields{
			"network": s.network,
			"sender":  intent.Sender().Hex(),
		}).Warn("Intent signing failed")
		return err
	}
	metrics.IntentsSigned.Inc()
	return nil
}

// Describe returns the encodings of an intent bound to this network
func (s *IntentService) Describe(intent *intents.UserIntent) (*dto.EncodedIntent, error) {
	encoded, err := intent.Encode()
	if err != nil {
		return nil, err
	}
	payload, err := intent.SigningPayload(s.entryPoint, s.chainID)
	if err != nil {
		return nil, err
	}
	hash, err := intent.Hash(s.entryPoint, s.chainID)
	if err != nil {
		return nil, err
	}

	out := &dto.EncodedIntent{
		Sender:         intent.Sender().Hex(),
		Standard:       intent.Standard().Hex(),
		Encoded:        hexutil.Encode(encoded),
		SigningPayload: hexutil.Encode(payload),
		IntentHash:     hash.Hex(),
		Signed:         intent.IsSigned(),
	}
	if intent.IsSigned() {
		out.Signature = hexutil.Encode(intent.Signature())
	}
	data, err := intent.IntentData()
	if err != nil {
		return nil, err
	}
	for idx, seg := range intent.Segments() {
		out.Segments = append(out.Segments, dto.EncodedSegment{
			Kind:     string(seg.Kind()),
			Standard: seg.StandardID().Hex(),
			Data:     hexutil.Encode(data[idx]),
		})
	}
	return out, nil
}

// BuildSolution assembles a solution. defaultBlock is used when the request
// carries no block number.
func (s *IntentService) BuildSolution(ctx context.Context, req dto.SubmitSolutionRequest, defaultBlock *big.Int) (*intents.IntentSolution, error) {
	blockNumber := defaultBlock
	if req.BlockNumber != "" {
		n, err := parseUint("block_number", req.BlockNumber)
		if err != nil {
			return nil, err
		}
		blockNumber = n
	}

	list := make([]*intents.UserIntent, 0, len(req.Intents))
	for i, intentReq := range req.Intents {
		intent, err := s.BuildIntent(ctx, intentReq)
		if err != nil {
			return nil, fmt.Errorf("intents[%d]: %w", i, err)
		}
		list = append(list, intent)
	}

	order := make([]*big.Int, 0, len(req.Order))
	for i, raw := range req.Order {
		n, err := parseUint(fmt.Sprintf("order[%d]", i), raw)
		if err != nil {
			return nil, err
		}
		order = append(order, n)
	}

	return intents.NewIntentSolution(blockNumber, list, order)
}

// BuildTransferEthIntent builds the user side of the transfer-eth scenario:
// release the ERC20 curve, release the ETH transfer amount, require nothing
// further, and consume a sequential nonce.
func (s *IntentService) BuildTransferEthIntent(req dto.TransferEthRequest) (*intents.UserIntent, error) {
	account, err := parseAddress("account", req.Account)
	if err != nil {
		return nil, err
	}
	nonce := "1"
	if req.Nonce != "" {
		nonce = req.Nonce
	}
	release := req.Release

	intent := intents.NewUserIntent(account, common.Hash{})
	segments := []dto.SegmentRequest{
		{Kind: string(standards.KindErc20Release), AssetContract: req.Token, Curve: &release},
		{Kind: string(standards.KindEthRelease), Curve: &dto.CurveRequest{CurveType: "constant", Params: []string{req.TransferAmount}}},
		{Kind: string(standards.KindEthRequire), Curve: &dto.CurveRequest{CurveType: "constant", Params: []string{"0"}}, EvaluationType: curves.EvaluationTypeAbsolute.String()},
		{Kind: string(standards.KindSequentialNonce), Nonce: nonce},
	}
	for i, segReq := range segments {
		seg, err := s.BuildSegment(segReq)
		if err != nil {
			return nil, fmt.Errorf("transfer eth segment %d: %w", i, err)
		}
		if err := intent.AddSegment(seg); err != nil {
			return nil, err
		}
	}

	if req.Signature != "" {
		sig, err := parseBytes("signature", req.Signature)
		if err != nil {
			return nil, err
		}
		if err := intent.AttachSignature(sig); err != nil {
			return nil, err
		}
	}
	return intent, nil
}

// BuildTransferEthSolverIntent builds the solver side: swap the released ERC20
// for ETH to the solver, then forward the transfer amount to the recipient.
// The intent is sent from the solver utils contract and needs no signature.
func (s *IntentService) BuildTransferEthSolverIntent(solver common.Address, req dto.TransferEthRequest) (*intents.UserIntent, error) {
	if s.solverUtils == (common.Address{}) {
		return nil, fmt.Errorf("solver utils address is not configured on %s", s.network)
	}
	token, err := parseAddress("token", req.Token)
	if err != nil {
		return nil, err
	}
	recipient, err := parseAddress("recipient", req.Recipient)
	if err != nil {
		return nil, err
	}
	swapAmount, err := parseUint("release_evaluation", req.ReleaseEvaluation)
	if err != nil {
		return nil, err
	}
	transferAmount, err := parseUint("transfer_amount", req.TransferAmount)
	if err != nil {
		return nil, err
	}

	swap, err := SwapERC20ForETHCalldata(token, swapAmount, solver)
	if err != nil {
		return nil, err
	}
	transfer, err := TransferEthCalldata(recipient, transferAmount)
	if err != nil {
		return nil, err
	}

	callStandard, err := s.StandardID(standards.KindCall)
	if err != nil {
		return nil, err
	}

	intent := intents.NewUserIntent(s.solverUtils, common.Hash{})
	for _, callData := range [][]byte{swap, transfer} {
		seg := standards.NewCallIntentSegment(callStandard, callData)
		metrics.SegmentsEncoded.WithLabelValues(string(seg.Kind())).Inc()
		if err := intent.AddSegment(seg); err != nil {
			return nil, err
		}
	}
	return intent, nil
}

func curveParameters(req *dto.CurveRequest) (curves.CurveParameters, error) {
	if req == nil {
		return nil, fmt.Errorf("curve is required")
	}
	curveType, err := curves.ParseCurveType(req.CurveType)
	if err != nil {
		return nil, err
	}
	vector := make([]*big.Int, len(req.Params))
	for i, raw := range req.Params {
		v, ok := parseInteger(raw)
		if !ok {
			return nil, fmt.Errorf("curve param %d: invalid integer %q", i, raw)
		}
		vector[i] = v
	}
	return curves.CurveParametersFromVector(curveType, vector)
}

func assetCurve(req dto.AssetCurveRequest) (common.Address, *big.Int, curves.AssetType, curves.CurveParameters, error) {
	contract, err := parseAddress("asset_contract", req.AssetContract)
	if err != nil {
		return common.Address{}, nil, 0, nil, err
	}
	id := big.NewInt(0)
	if req.AssetID != "" {
		if id, err = parseUint("asset_id", req.AssetID); err != nil {
			return common.Address{}, nil, 0, nil, err
		}
	}
	assetType, err := curves.ParseAssetType(req.AssetType)
	if err != nil {
		return common.Address{}, nil, 0, nil, err
	}
	params, err := curveParameters(&req.Curve)
	if err != nil {
		return common.Address{}, nil, 0, nil, err
	}
	return contract, id, assetType, params, nil
}

func parseAddress(field, s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%s: invalid address %q", field, s)
	}
	return common.HexToAddress(s), nil
}

func parseHash(s string) (common.Hash, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return common.Hash{}, fmt.Errorf("invalid bytes32 %q: %w", s, err)
	}
	if len(b) > common.HashLength {
		return common.Hash{}, fmt.Errorf("invalid bytes32 %q: %d bytes", s, len(b))
	}
	return common.BytesToHash(b), nil
}

func parseBytes(field, s string) ([]byte, error) {
	if s == "" || s == "0x" {
		return []byte{}, nil
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return b, nil
}

// parseInteger parses a decimal or 0x-prefixed integer with an optional sign
func parseInteger(s string) (*big.Int, bool) {
	s = strings.TrimSpace(s)
	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		base = 16
		s = s[2:]
	}
	v, ok := new(big.Int).SetString(s, base)
	if !ok {
		return nil, false
	}
	if negative {
		v.Neg(v)
	}
	return v, true
}

// parseUint parses a uint256. Larger values are a range violation, not a parse error.
func parseUint(field, s string) (*big.Int, error) {
	v, ok := parseInteger(s)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("%s: invalid unsigned integer %q", field, s)
	}
	if v.BitLen() > 256 {
		return nil, types.Violation(types.ErrParamOutOfRange, "%s %s is not a uint256", field, s)
	}
	return v, nil
}
