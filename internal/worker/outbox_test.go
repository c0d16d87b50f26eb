package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opticheck/screening-api/internal/model"
)

type fakeOutboxRepo struct {
	pending   []*model.OutboxEvent
	processed []uuid.UUID
	failed    map[uuid.UUID]string
}

func (f *fakeOutboxRepo) Create(_ context.Context, e *model.OutboxEvent) error {
	f.pending = append(f.pending, e)
	return nil
}

func (f *fakeOutboxRepo) GetPending(_ context.Context, limit int) ([]*model.OutboxEvent, error) {
	if len(f.pending) > limit {
		return f.pending[:limit], nil
	}
	return f.pending, nil
}

func (f *fakeOutboxRepo) MarkProcessed(_ context.Context, id uuid.UUID) error {
	f.processed = append(f.processed, id)
	return nil
}

func (f *fakeOutboxRepo) MarkFailed(_ context.Context, id uuid.UUID, msg string) error {
	if f.failed == nil {
		f.failed = map[uuid.UUID]string{}
	}
	f.failed[id] = msg
	return nil
}

type fakeBroker struct {
	published  []string
	publishErr error
}

func (b *fakeBroker) Publish(_ context.Context, channel string, _ interface{}) error {
	if b.publishErr != nil {
		return b.publishErr
	}
	b.published = append(b.published, channel)
	return nil
}

func (b *fakeBroker) Subscribe(_ context.Context, _ string) (<-chan []byte, error) {
	return nil, nil
}

func (b *fakeBroker) Close() error { return nil }

func pendingEvent(eventType string) *model.OutboxEvent {
	return &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   []byte(`{"id":"x"}`),
		Status:    model.OutboxStatusPending,
	}
}

func TestProcessBatchPublishesAndMarksProcessed(t *testing.T) {
	repo := &fakeOutboxRepo{pending: []*model.OutboxEvent{
		pendingEvent("PATIENT_CREATE"),
		pendingEvent("SCREENING_DELETE"),
	}}
	broker := &fakeBroker{}
	p := NewOutboxProcessor(repo, broker, OutboxConfig{}, nil, zerolog.Nop())

	require.NoError(t, p.ProcessBatch(context.Background()))
	assert.Len(t, broker.published, 2)
	assert.Len(t, repo.processed, 2)
	assert.Empty(t, repo.failed)
}

func TestProcessBatchMarksFailedOnPublishError(t *testing.T) {
	evt := pendingEvent("PATIENT_DELETE")
	repo := &fakeOutboxRepo{pending: []*model.OutboxEvent{evt}}
	broker := &fakeBroker{publishErr: errors.New("broker down")}
	p := NewOutboxProcessor(repo, broker, OutboxConfig{}, nil, zerolog.Nop())

	require.NoError(t, p.ProcessBatch(context.Background()))
	assert.Empty(t, repo.processed)
	assert.Equal(t, "broker down", repo.failed[evt.ID])
}

func TestProcessBatchHonorsBatchSize(t *testing.T) {
	repo := &fakeOutboxRepo{}
	for i := 0; i < 10; i++ {
		repo.pending = append(repo.pending, pendingEvent("PATIENT_UPDATE"))
	}
	broker := &fakeBroker{}
	p := NewOutboxProcessor(repo, broker, OutboxConfig{BatchSize: 3}, nil, zerolog.Nop())

	require.NoError(t, p.ProcessBatch(context.Background()))
	assert.Len(t, repo.processed, 3)
}
