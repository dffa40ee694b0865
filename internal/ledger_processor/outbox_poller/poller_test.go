package outbox_poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/pooled-savings-ledger/internal/config"
	"github.com/pooled-savings-ledger/internal/domain/outbox"
	"github.com/pooled-savings-ledger/internal/domain/shared"
	"github.com/pooled-savings-ledger/internal/platform/metrics"
)

func TestPoller_ProcessPendingMessages(t *testing.T) {
	cfg := &config.OutboxConfig{
		PollingInterval:  time.Second,
		BatchSize:        10,
		MaxRetryAttempts: 3,
	}

	message1 := committedMessage(1, 0)
	message2 := committedMessage(2, 0)
	exhausted := committedMessage(3, 2)

	tests := []struct {
		name          string
		setupMocks    func(o *MockOutboxRepo, p *MockEventPublisher)
		expectedError string
		published     float64
		failed        float64
	}{
		{
			name: "publishes every pending message",
			setupMocks: func(o *MockOutboxRepo, p *MockEventPublisher) {
				o.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{message1, message2}, nil).Once()
				p.On("Publish", mock.Anything, message1).Return(nil).Once()
				p.On("Publish", mock.Anything, message2).Return(nil).Once()
			},
			published: 2,
		},
		{
			name: "error getting pending messages",
			setupMocks: func(o *MockOutboxRepo, p *MockEventPublisher) {
				o.On("GetPending", mock.Anything, 10).Return(nil, errors.New("db error")).Once()
			},
			expectedError: "failed to get pending outbox messages",
		},
		{
			name: "no pending messages",
			setupMocks: func(o *MockOutboxRepo, p *MockEventPublisher) {
				o.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{}, nil).Once()
			},
		},
		{
			name: "failed message counts an attempt and the batch continues",
			setupMocks: func(o *MockOutboxRepo, p *MockEventPublisher) {
				o.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{message1, message2}, nil).Once()
				p.On("Publish", mock.Anything, message1).Return(errors.New("broker down")).Once()
				o.On("IncrementAttempts", mock.Anything, int64(1)).Return(nil).Once()
				p.On("Publish", mock.Anything, message2).Return(nil).Once()
			},
			published: 1,
		},
		{
			name: "max attempts marks message failed",
			setupMocks: func(o *MockOutboxRepo, p *MockEventPublisher) {
				o.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{exhausted}, nil).Once()
				p.On("Publish", mock.Anything, exhausted).Return(errors.New("broker down")).Once()
				o.On("IncrementAttempts", mock.Anything, int64(3)).Return(nil).Once()
				o.On("UpdateStatus", mock.Anything, int64(3), shared.OutboxStatusFailedToPublish).Return(nil).Once()
			},
			failed: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outboxRepo := &MockOutboxRepo{}
			publisher := &MockEventPublisher{}
			tt.setupMocks(outboxRepo, publisher)
			poller := NewPoller(cfg, outboxRepo, publisher, newTestLogger())

			publishedBefore := testutil.ToFloat64(metrics.OutboxPublished.WithLabelValues(ResultPublished))
			failedBefore := testutil.ToFloat64(metrics.OutboxPublished.WithLabelValues(ResultFailed))

			err := poller.processPendingMessages(context.Background())

			if tt.expectedError != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, publishedBefore+tt.published, testutil.ToFloat64(metrics.OutboxPublished.WithLabelValues(ResultPublished)))
			assert.Equal(t, failedBefore+tt.failed, testutil.ToFloat64(metrics.OutboxPublished.WithLabelValues(ResultFailed)))

			outboxRepo.AssertExpectations(t)
			publisher.AssertExpectations(t)
		})
	}
}

func TestPoller_Start(t *testing.T) {
	outboxRepo := &MockOutboxRepo{}
	publisher := &MockEventPublisher{}
	cfg := &config.OutboxConfig{
		PollingInterval:  10 * time.Millisecond,
		BatchSize:        5,
		MaxRetryAttempts: 3,
	}
	outboxRepo.On("GetPending", mock.Anything, 5).Return([]*outbox.Message{}, nil)

	poller := NewPoller(cfg, outboxRepo, publisher, newTestLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 55*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		poller.Start(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after cancellation")
	}
	outboxRepo.AssertCalled(t, "GetPending", mock.Anything, 5)
}
