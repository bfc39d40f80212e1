package events

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go-intents/internal/clients"
	"go-intents/internal/config"

	"github.com/sirupsen/logrus"
)

const (
	SubjectSolutionSubmitted = "solution.submitted"
	SubjectSolutionConfirmed = "solution.confirmed"
	SubjectSolutionFailed    = "solution.failed"

	// SubjectSolutionAll matches every solution lifecycle subject
	SubjectSolutionAll = "solution.>"
)

// Publisher publishes a JSON-encodable message on a subject
type Publisher interface {
	Publish(subject string, v interface{}) error
}

// SolutionEvent describes the lifecycle of a submitted solution
type SolutionEvent struct {
	SubmissionID string    `json:"submission_id"`
	Network      string    `json:"network"`
	ChainID      uint64    `json:"chain_id"`
	EntryPoint   string    `json:"entry_point"`
	TxHash       string    `json:"tx_hash,omitempty"`
	BlockNumber  uint64    `json:"block_number,omitempty"`
	IntentCount  int       `json:"intent_count"`
	GasUsed      uint64    `json:"gas_used,omitempty"`
	Status       string    `json:"status"`
	Error        string    `json:"error,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// DecodeSolutionEvent parses a published solution event
func DecodeSolutionEvent(data []byte) (SolutionEvent, error) {
	var evt SolutionEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return SolutionEvent{}, fmt.Errorf("invalid solution event: %w", err)
	}
	if evt.SubmissionID == "" && evt.TxHash == "" {
		return SolutionEvent{}, fmt.Errorf("invalid solution event: no submission id or tx hash")
	}
	return evt, nil
}

// SolutionEmitter routes solution events to a Publisher.
// A nil emitter or nil publisher drops events.
type SolutionEmitter struct {
	publisher Publisher
}

func NewSolutionEmitter(publisher Publisher) *SolutionEmitter {
	return &SolutionEmitter{publisher: publisher}
}

func (e *SolutionEmitter) Submitted(evt SolutionEvent) {
	e.emit(SubjectSolutionSubmitted, evt)
}

func (e *SolutionEmitter) Confirmed(evt SolutionEvent) {
	e.emit(SubjectSolutionConfirmed, evt)
}

func (e *SolutionEmitter) Failed(evt SolutionEvent) {
	e.emit(SubjectSolutionFailed, evt)
}

// emit never fails the caller; publish errors are logged.
func (e *SolutionEmitter) emit(subject string, evt SolutionEvent) {
	if e == nil || e.publisher == nil {
		return
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	if err := e.publisher.Publish(subject, evt); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"subject":       subject,
			"submission_id": evt.SubmissionID,
		}).Warn("failed to publish solution event")
	}
}

var (
	natsClient *clients.NATSClient
	natsOnce   sync.Once
)

// InitNATSServices connects the shared NATS client when NATS is configured.
func InitNATSServices() error {
	var initErr error
	natsOnce.Do(func() {
		if config.AppConfig == nil || config.AppConfig.NATS.URL == "" {
			logrus.Info("NATS not configured, skipping initialization")
			return
		}

		client, err := clients.NewNATSClient(config.AppConfig.NATS)
		if err != nil {
			initErr = fmt.Errorf("failed to create NATS client: %w", err)
			return
		}
		natsClient = client
	})
	return initErr
}

// GetPublisher returns the shared NATS publisher or nil when NATS is not running.
func GetPublisher() Publisher {
	if natsClient == nil {
		return nil
	}
	return natsClient
}

// Shutdown closes the shared NATS client
func Shutdown() {
	if natsClient != nil {
		natsClient.Close()
		natsClient = nil
	}
}
