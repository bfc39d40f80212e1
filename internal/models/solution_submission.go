package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SubmissionStatus string

const (
	SubmissionStatusPending   SubmissionStatus = "pending"   // packed, not yet sent
	SubmissionStatusSubmitted SubmissionStatus = "submitted" // sent, waiting for receipt
	SubmissionStatusConfirmed SubmissionStatus = "confirmed"
	SubmissionStatusFailed    SubmissionStatus = "failed"
)

// SolutionSubmission records one handleIntents transaction
type SolutionSubmission struct {
	ID          string           `json:"id" gorm:"primaryKey;size:36"`
	Network     string           `json:"network" gorm:"not null;index:idx_network_status"`
	ChainID     uint64           `json:"chain_id" gorm:"not null"`
	EntryPoint  string           `json:"entry_point" gorm:"not null;size:42"`
	Sender      string           `json:"sender" gorm:"size:42;index"`
	Status      SubmissionStatus `json:"status" gorm:"not null;default:pending;index:idx_network_status"`
	IntentCount int              `json:"intent_count" gorm:"not null"`
	BlockNumber uint64           `json:"block_number"` // solution block number, not the mined block

	TxHash     string  `json:"tx_hash" gorm:"size:66;index"`
	Nonce      *uint64 `json:"nonce"`
	GasLimit   uint64  `json:"gas_limit"`
	GasPrice   string  `json:"gas_price"`
	CallData   string  `json:"call_data" gorm:"type:text"`
	MinedBlock *uint64 `json:"mined_block"`
	GasUsed    *uint64 `json:"gas_used"`
	LastError  string  `json:"last_error" gorm:"type:text"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	SubmittedAt *time.Time `json:"submitted_at"`
	ConfirmedAt *time.Time `json:"confirmed_at"`
}

func (SolutionSubmission) TableName() string {
	return "solution_submissions"
}

// BeforeCreate assigns a UUID when none is set
func (s *SolutionSubmission) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

func (s *SolutionSubmission) MarkSubmitted(txHash string, nonce uint64) {
	now := time.Now()
	s.Status = SubmissionStatusSubmitted
	s.TxHash = txHash
	s.Nonce = &nonce
	s.SubmittedAt = &now
}

func (s *SolutionSubmission) MarkConfirmed(minedBlock, gasUsed uint64) {
	now := time.Now()
	s.Status = SubmissionStatusConfirmed
	s.MinedBlock = &minedBlock
	s.GasUsed = &gasUsed
	s.ConfirmedAt = &now
}

func (s *SolutionSubmission) MarkFailed(err error) {
	s.Status = SubmissionStatusFailed
	if err != nil {
		s.LastError = err.Error()
	}
}

// IsFinal reports whether the submission reached a terminal status
func (s *SolutionSubmission) IsFinal() bool {
	return s.Status == SubmissionStatusConfirmed || s.Status == SubmissionStatusFailed
}
