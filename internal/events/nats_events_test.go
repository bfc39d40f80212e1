package events

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	subjects []string
	messages []interface{}
	err      error
}

func (p *recordingPublisher) Publish(subject string, v interface{}) error {
	p.subjects = append(p.subjects, subject)
	p.messages = append(p.messages, v)
	return p.err
}

func TestSolutionEmitter_Subjects(t *testing.T) {
	pub := &recordingPublisher{}
	emitter := NewSolutionEmitter(pub)

	emitter.Submitted(SolutionEvent{SubmissionID: "a"})
	emitter.Confirmed(SolutionEvent{SubmissionID: "b"})
	emitter.Failed(SolutionEvent{SubmissionID: "c", Error: "reverted"})

	assert.Equal(t, []string{SubjectSolutionSubmitted, SubjectSolutionConfirmed, SubjectSolutionFailed}, pub.subjects)
	require.Len(t, pub.messages, 3)
	evt := pub.messages[2].(SolutionEvent)
	assert.Equal(t, "c", evt.SubmissionID)
	assert.Equal(t, "reverted", evt.Error)
	assert.False(t, evt.Timestamp.IsZero())
}

func TestSolutionEmitter_KeepsTimestamp(t *testing.T) {
	pub := &recordingPublisher{}
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	NewSolutionEmitter(pub).Submitted(SolutionEvent{Timestamp: ts})

	assert.Equal(t, ts, pub.messages[0].(SolutionEvent).Timestamp)
}

func TestSolutionEmitter_NilAndFailingPublisher(t *testing.T) {
	var nilEmitter *SolutionEmitter
	assert.NotPanics(t, func() { nilEmitter.Submitted(SolutionEvent{}) })
	assert.NotPanics(t, func() { NewSolutionEmitter(nil).Failed(SolutionEvent{}) })

	pub := &recordingPublisher{err: errors.New("nats down")}
	assert.NotPanics(t, func() { NewSolutionEmitter(pub).Confirmed(SolutionEvent{}) })
	assert.Len(t, pub.subjects, 1)
}

func TestGetPublisherWithoutNATS(t *testing.T) {
	assert.Nil(t, GetPublisher())
}

func TestDecodeSolutionEvent(t *testing.T) {
	evt, err := DecodeSolutionEvent([]byte(`{"submission_id":"sub-1","network":"anvil","chain_id":31337,"status":"confirmed","gas_used":61000}`))
	require.NoError(t, err)
	assert.Equal(t, "sub-1", evt.SubmissionID)
	assert.Equal(t, uint64(31337), evt.ChainID)
	assert.Equal(t, uint64(61000), evt.GasUsed)

	_, err = DecodeSolutionEvent([]byte(`{"status":"confirmed"}`))
	assert.Error(t, err)

	_, err = DecodeSolutionEvent([]byte(`not json`))
	assert.Error(t, err)
}
