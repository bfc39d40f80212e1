package signer

import (
	"context"
	"fmt"
	"strings"

	"go-intents/internal/clients"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// KMSSigner signs through the KMS dual-layer signing endpoint. The key
// never leaves the KMS; only its alias and transport key are held here.
type KMSSigner struct {
	client   *clients.KMSClient
	keyAlias string
	k1       string
	chainID  int
	address  common.Address
}

// NewKMSSigner resolves the key's public address once, up front
func NewKMSSigner(ctx context.Context, client *clients.KMSClient, keyAlias, k1 string, chainID int) (*KMSSigner, error) {
	key, err := client.GetKeyByAlias(ctx, keyAlias, chainID)
	if err != nil {
		return nil, err
	}
	if !common.IsHexAddress(key.PublicAddress) {
		return nil, fmt.Errorf("KMS key %s has invalid address %q", keyAlias, key.PublicAddress)
	}
	return &KMSSigner{
		client:   client,
		keyAlias: keyAlias,
		k1:       k1,
		chainID:  chainID,
		address:  common.HexToAddress(key.PublicAddress),
	}, nil
}

func (s *KMSSigner) Name() string {
	return "KMS"
}

func (s *KMSSigner) Address() common.Address {
	return s.address
}

// SignHash returns a raw [R || S || V] signature, V in {0, 1}
func (s *KMSSigner) SignHash(ctx context.Context, hash common.Hash) ([]byte, error) {
	resp, err := s.client.SignWithKMS(ctx, s.keyAlias, s.k1, hash.Hex(), s.chainID)
	if err != nil {
		return nil, err
	}
	raw := resp.Signature
	if !strings.HasPrefix(raw, "0x") {
		raw = "0x" + raw
	}
	sig, err := hexutil.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("KMS returned malformed signature: %w", err)
	}
	return normalizeSignature(sig)
}

// SignIntent signs an intent payload the way a wallet's personal_sign would
func (s *KMSSigner) SignIntent(ctx context.Context, payload []byte) ([]byte, error) {
	return signIntent(ctx, s, payload)
}
