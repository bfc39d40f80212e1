// Package intents assembles segments into user intents and intents into
// solutions for the entry point's handleIntents call.
package intents

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"go-intents/internal/standards"
	"go-intents/internal/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

//go:generate mockgen -destination=../mocks/mock_intent_signer.go -package=mocks go-intents/internal/intents Signer

// Signer produces a detached signature over an intent's signing payload.
// Key handling and the signature scheme belong to the implementation.
type Signer interface {
	SignIntent(ctx context.Context, payload []byte) ([]byte, error)
}

// IntentState is the lifecycle position of a UserIntent
type IntentState int

const (
	IntentStateBuilding IntentState = iota
	IntentStateSigned
)

func (s IntentState) String() string {
	switch s {
	case IntentStateBuilding:
		return "building"
	case IntentStateSigned:
		return "signed"
	default:
		return fmt.Sprintf("IntentState(%d)", int(s))
	}
}

// UserIntent is an ordered list of segments for one sender. Segments can
// only be appended, and only until the intent is signed.
//
// Signing freezes the segment encodings: later changes to a segment value
// (more curves on an asset-based segment) do not reach the intent's bytes.
//
// A UserIntent is owned by one builder until signed; it is not safe for
// concurrent mutation.
type UserIntent struct {
	sender    common.Address
	standard  common.Hash
	segments  []standards.Segment
	state     IntentState
	signature []byte

	// frozen holds one encoding per segment once the intent is signed or
	// snapshotted into a solution; nil while the intent is live.
	frozen [][]byte
}

// NewUserIntent creates an empty intent. A zero standard is the usual
// placeholder until the protocol assigns one.
func NewUserIntent(sender common.Address, standard common.Hash) *UserIntent {
	return &UserIntent{sender: sender, standard: standard}
}

func (i *UserIntent) Sender() common.Address {
	return i.sender
}

func (i *UserIntent) Standard() common.Hash {
	return i.standard
}

func (i *UserIntent) State() IntentState {
	return i.state
}

func (i *UserIntent) IsSigned() bool {
	return i.state == IntentStateSigned
}

// Signature returns a copy of the detached signature, nil while unsigned
func (i *UserIntent) Signature() []byte {
	return common.CopyBytes(i.signature)
}

// Segments returns the segments in append order
func (i *UserIntent) Segments() []standards.Segment {
	return append([]standards.Segment(nil), i.segments...)
}

// AddSegment appends seg after every existing segment. It fails on a signed
// intent, leaving it untouched.
func (i *UserIntent) AddSegment(seg standards.Segment) error {
	if i.state == IntentStateSigned {
		return types.Violation(types.ErrIntentSigned, "cannot add %s segment", kindOf(seg))
	}
	if seg == nil {
		return types.Violation(types.ErrNilSegment, "segment %d", len(i.segments))
	}
	if i.frozen != nil {
		encoded, err := seg.Encode()
		if err != nil {
			return fmt.Errorf("segment %d: %w", len(i.segments), err)
		}
		i.frozen = append(i.frozen, encoded)
	}
	i.segments = append(i.segments, seg)
	return nil
}

// IntentData returns every segment's encoding, in order. A frozen intent
// returns the encodings captured when it was frozen.
func (i *UserIntent) IntentData() ([][]byte, error) {
	if i.frozen != nil {
		return copyData(i.frozen), nil
	}
	return i.encodeSegments()
}

func (i *UserIntent) encodeSegments() ([][]byte, error) {
	data := make([][]byte, len(i.segments))
	for idx, seg := range i.segments {
		encoded, err := seg.Encode()
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", idx, err)
		}
		data[idx] = encoded
	}
	return data, nil
}

// freeze captures the current segment encodings
func (i *UserIntent) freeze() error {
	if i.frozen != nil {
		return nil
	}
	data, err := i.encodeSegments()
	if err != nil {
		return err
	}
	i.frozen = data
	return nil
}

// Encode returns abi.encode(sender, standard, intentData): the full byte
// sequence a signature is bound to.
func (i *UserIntent) Encode() ([]byte, error) {
	data, err := i.IntentData()
	if err != nil {
		return nil, err
	}
	return intentHashArguments.Pack(i.sender, i.standard, data)
}

// SigningPayload binds the intent's encoding to an entry point and chain:
// abi.encode(keccak256(Encode()), entryPoint, chainId).
func (i *UserIntent) SigningPayload(entryPoint common.Address, chainID *big.Int) ([]byte, error) {
	if chainID == nil {
		return nil, errors.New("chain id is required")
	}
	encoded, err := i.Encode()
	if err != nil {
		return nil, err
	}
	return signingPayloadArguments.Pack(crypto.Keccak256Hash(encoded), entryPoint, chainID)
}

// Hash is keccak256 of the signing payload
func (i *UserIntent) Hash(entryPoint common.Address, chainID *big.Int) (common.Hash, error) {
	payload, err := i.SigningPayload(entryPoint, chainID)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(payload), nil
}

// Sign asks signer for a signature over the signing payload and seals the
// intent. Signer errors are returned unchanged and leave the intent unsigned.
func (i *UserIntent) Sign(ctx context.Context, signer Signer, entryPoint common.Address, chainID *big.Int) error {
	if i.state == IntentStateSigned {
		return types.Violation(types.ErrIntentSigned, "intent is already signed")
	}
	if chainID == nil {
		return errors.New("chain id is required")
	}
	data, err := i.IntentData()
	if err != nil {
		return err
	}
	encoded, err := intentHashArguments.Pack(i.sender, i.standard, data)
	if err != nil {
		return err
	}
	payload, err := signingPayloadArguments.Pack(crypto.Keccak256Hash(encoded), entryPoint, chainID)
	if err != nil {
		return err
	}
	sig, err := signer.SignIntent(ctx, payload)
	if err != nil {
		return err
	}
	if len(sig) == 0 {
		return errors.New("empty signature")
	}
	i.seal(sig, data)
	return nil
}

// AttachSignature seals the intent with a signature produced elsewhere
func (i *UserIntent) AttachSignature(sig []byte) error {
	if i.state == IntentStateSigned {
		return types.Violation(types.ErrIntentSigned, "intent is already signed")
	}
	if len(sig) == 0 {
		return errors.New("empty signature")
	}
	data, err := i.IntentData()
	if err != nil {
		return err
	}
	i.seal(sig, data)
	return nil
}

func (i *UserIntent) seal(sig []byte, data [][]byte) {
	i.signature = common.CopyBytes(sig)
	i.frozen = data
	i.state = IntentStateSigned
}

// Tuple returns the handleIntents form. An unsigned intent carries an empty signature.
func (i *UserIntent) Tuple() (UserIntentTuple, error) {
	data, err := i.IntentData()
	if err != nil {
		return UserIntentTuple{}, err
	}
	sig := i.Signature()
	if sig == nil {
		sig = []byte{}
	}
	return UserIntentTuple{
		Sender:     i.sender,
		Standard:   i.standard,
		IntentData: data,
		Signature:  sig,
	}, nil
}

// clone copies the intent's own state. Segment values are shared, so
// solutions freeze their clones.
func (i *UserIntent) clone() *UserIntent {
	c := &UserIntent{
		sender:    i.sender,
		standard:  i.standard,
		segments:  i.Segments(),
		state:     i.state,
		signature: i.Signature(),
	}
	if i.frozen != nil {
		c.frozen = copyData(i.frozen)
	}
	return c
}

func copyData(data [][]byte) [][]byte {
	out := make([][]byte, len(data))
	for idx, d := range data {
		out[idx] = common.CopyBytes(d)
	}
	return out
}

func kindOf(seg standards.Segment) string {
	if seg == nil {
		return "nil"
	}
	return string(seg.Kind())
}
