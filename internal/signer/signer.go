// Package signer provides the key-holding collaborators used to sign user
// intents and entry point transactions.
package signer

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const signatureLength = crypto.SignatureLength

// IntentDigest is the hash a wallet signs for an intent payload:
// the EIP-191 personal message hash of keccak256(payload).
func IntentDigest(payload []byte) common.Hash {
	return common.BytesToHash(accounts.TextHash(crypto.Keccak256(payload)))
}

// RecoverIntentSigner returns the address that produced sig over payload
func RecoverIntentSigner(payload, sig []byte) (common.Address, error) {
	if len(sig) != signatureLength {
		return common.Address{}, fmt.Errorf("invalid signature length %d", len(sig))
	}
	raw := common.CopyBytes(sig)
	if raw[crypto.RecoveryIDOffset] >= 27 {
		raw[crypto.RecoveryIDOffset] -= 27
	}
	pub, err := crypto.SigToPub(IntentDigest(payload).Bytes(), raw)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover signer: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// hashSigner is the primitive both signers share: a raw [R || S || V]
// signature over a 32-byte hash with V in {0, 1}.
type hashSigner interface {
	SignHash(ctx context.Context, hash common.Hash) ([]byte, error)
}

func signIntent(ctx context.Context, s hashSigner, payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, errors.New("empty intent payload")
	}
	sig, err := s.SignHash(ctx, IntentDigest(payload))
	if err != nil {
		return nil, err
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

// normalizeSignature checks length and maps V to {0, 1}
func normalizeSignature(sig []byte) ([]byte, error) {
	if len(sig) != signatureLength {
		return nil, fmt.Errorf("invalid signature length %d", len(sig))
	}
	out := common.CopyBytes(sig)
	switch v := out[crypto.RecoveryIDOffset]; {
	case v == 0 || v == 1:
	case v == 27 || v == 28:
		out[crypto.RecoveryIDOffset] = v - 27
	default:
		return nil, fmt.Errorf("invalid signature recovery id %d", v)
	}
	return out, nil
}
