package signer

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// PrivateKeySigner signs with a key held in memory
type PrivateKeySigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewPrivateKeySigner parses a hex private key, with or without 0x prefix
func NewPrivateKeySigner(hexKey string) (*PrivateKeySigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return NewPrivateKeySignerFromKey(key), nil
}

func NewPrivateKeySignerFromKey(key *ecdsa.PrivateKey) *PrivateKeySigner {
	return &PrivateKeySigner{key: key, address: crypto.PubkeyToAddress(key.PublicKey)}
}

func (s *PrivateKeySigner) Name() string {
	return "PrivateKey"
}

func (s *PrivateKeySigner) Address() common.Address {
	return s.address
}

// SignHash returns a raw [R || S || V] signature, V in {0, 1}
func (s *PrivateKeySigner) SignHash(ctx context.Context, hash common.Hash) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(hash.Bytes(), s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign hash: %w", err)
	}
	return sig, nil
}

// SignIntent signs an intent payload the way a wallet's personal_sign would
func (s *PrivateKeySigner) SignIntent(ctx context.Context, payload []byte) ([]byte, error) {
	return signIntent(ctx, s, payload)
}
