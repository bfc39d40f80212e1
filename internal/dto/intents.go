package dto

import "go-intents/internal/models"

// ==================== Intent DTOs ====================

// CurveRequest a curve shape with its parameter vector as decimal strings
type CurveRequest struct {
	CurveType string   `json:"curve_type" binding:"required"` // constant | linear | exponential
	Params    []string `json:"params" binding:"required"`
}

// AssetCurveRequest one entry of an asset based segment
type AssetCurveRequest struct {
	AssetContract  string       `json:"asset_contract" binding:"required"`
	AssetID        string       `json:"asset_id"` // decimal, defaults to 0
	AssetType      string       `json:"asset_type" binding:"required"`
	Curve          CurveRequest `json:"curve" binding:"required"`
	EvaluationType string       `json:"evaluation_type,omitempty"` // requirements only
}

// SegmentRequest describes one segment. Which fields apply depends on Kind.
type SegmentRequest struct {
	Kind     string `json:"kind" binding:"required"`
	Standard string `json:"standard,omitempty"` // overrides the network's configured standard id

	Curve          *CurveRequest `json:"curve,omitempty"`           // erc20_release, eth_release, eth_require
	EvaluationType string        `json:"evaluation_type,omitempty"` // eth_require
	AssetContract  string        `json:"asset_contract,omitempty"`  // erc20_release
	CallData       string        `json:"call_data,omitempty"`       // call, asset_based
	Nonce          string        `json:"nonce,omitempty"`           // sequential_nonce

	AssetReleases     []AssetCurveRequest `json:"asset_releases,omitempty"`
	AssetRequirements []AssetCurveRequest `json:"asset_requirements,omitempty"`
}

// IntentRequest describes a user intent
type IntentRequest struct {
	Sender    string           `json:"sender"` // defaults to the service signer when sign is set
	Standard  string           `json:"standard,omitempty"`
	Segments  []SegmentRequest `json:"segments" binding:"required,min=1,dive"`
	Signature string           `json:"signature,omitempty"` // detached signature produced elsewhere
	Sign      bool             `json:"sign,omitempty"`      // sign with the service signer
}

// EncodeIntentRequest Encode intent request
type EncodeIntentRequest struct {
	Network string        `json:"network"`
	Intent  IntentRequest `json:"intent" binding:"required"`
}

// EncodedSegment one segment's ABI encoding
type EncodedSegment struct {
	Kind     string `json:"kind"`
	Standard string `json:"standard"`
	Data     string `json:"data"`
}

// EncodedIntent the encodings derived from a user intent
type EncodedIntent struct {
	Sender         string           `json:"sender"`
	Standard       string           `json:"standard"`
	Segments       []EncodedSegment `json:"segments"`
	Encoded        string           `json:"encoded"`
	SigningPayload string           `json:"signing_payload"`
	IntentHash     string           `json:"intent_hash"`
	Signature      string           `json:"signature,omitempty"`
	Signed         bool             `json:"signed"`
}

// EncodeIntentResponse Encode intent response
type EncodeIntentResponse struct {
	Success    bool           `json:"success"`
	Network    string         `json:"network,omitempty"`
	ChainID    int            `json:"chain_id,omitempty"`
	EntryPoint string         `json:"entry_point,omitempty"`
	Intent     *EncodedIntent `json:"intent,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// ==================== Solution DTOs ====================

// SubmitSolutionRequest Submit solution request
type SubmitSolutionRequest struct {
	Network     string          `json:"network"`
	BlockNumber string          `json:"block_number,omitempty"` // defaults to the latest block
	Intents     []IntentRequest `json:"intents" binding:"required,min=1,dive"`
	Order       []string        `json:"order,omitempty"`
	DryRun      bool            `json:"dry_run,omitempty"` // build and pack only
}

// SubmitSolutionResponse Submit solution response
type SubmitSolutionResponse struct {
	Success      bool            `json:"success"`
	Network      string          `json:"network,omitempty"`
	BlockNumber  string          `json:"block_number,omitempty"`
	Intents      []EncodedIntent `json:"intents,omitempty"`
	CallData     string          `json:"call_data,omitempty"`
	SubmissionID string          `json:"submission_id,omitempty"`
	TxHash       string          `json:"tx_hash,omitempty"`
	Nonce        uint64          `json:"nonce,omitempty"`
	GasPrice     string          `json:"gas_price,omitempty"`
	GasLimit     uint64          `json:"gas_limit,omitempty"`
	MinedBlock   uint64          `json:"mined_block,omitempty"`
	GasUsed      uint64          `json:"gas_used,omitempty"`
	Status       string          `json:"status,omitempty"`
	Error        string          `json:"error,omitempty"`
}

// TransferEthRequest builds the transfer-eth scenario: the user releases an
// ERC20 curve and ETH, the solver swaps the ERC20 for ETH and forwards the transfer.
type TransferEthRequest struct {
	Network           string       `json:"network"`
	Account           string       `json:"account" binding:"required"` // user account, sender of the user intent
	Token             string       `json:"token" binding:"required"`
	Release           CurveRequest `json:"release" binding:"required"`
	TransferAmount    string       `json:"transfer_amount" binding:"required"`
	Recipient         string       `json:"recipient" binding:"required"`
	ReleaseEvaluation string       `json:"release_evaluation" binding:"required"` // ERC20 amount the solver swaps
	Nonce             string       `json:"nonce,omitempty"`                       // defaults to 1
	Signature         string       `json:"signature,omitempty"`
	BlockNumber       string       `json:"block_number,omitempty"`
	Submit            bool         `json:"submit,omitempty"` // requires signature
}

// SubmissionResponse a stored solution submission
type SubmissionResponse struct {
	Success    bool                       `json:"success"`
	Submission *models.SolutionSubmission `json:"submission,omitempty"`
	Error      string                     `json:"error,omitempty"`
}
