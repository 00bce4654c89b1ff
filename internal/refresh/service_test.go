package refresh

import (
	"context"
	"errors"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/sellerpulse-backend/internal/analytics/types"
	"github.com/angelmondragon/sellerpulse-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/sellerpulse-backend/pkg/errors"
	"github.com/angelmondragon/sellerpulse-backend/pkg/logger"
)

const testEventID = "6f1f3c1e-8a53-4c1e-9f0e-2c9b5f0d7a11"

type stubRefresher struct {
	calls []string
	warm  []bool
	err   error
}

func (s *stubRefresher) Refresh(_ context.Context, seller string, warm bool) (*types.RefreshResult, error) {
	s.calls = append(s.calls, seller)
	s.warm = append(s.warm, warm)
	if s.err != nil {
		return nil, s.err
	}
	return &types.RefreshResult{Seller: seller, Invalidated: 2, Warmed: warm}, nil
}

type memoryIdempotency struct {
	seen    map[uuid.UUID]bool
	deleted int
	err     error
}

func (m *memoryIdempotency) CheckAndMarkProcessed(_ context.Context, _ string, id uuid.UUID) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.seen == nil {
		m.seen = map[uuid.UUID]bool{}
	}
	already := m.seen[id]
	m.seen[id] = true
	return already, nil
}

func (m *memoryIdempotency) Delete(_ context.Context, _ string, id uuid.UUID) error {
	delete(m.seen, id)
	m.deleted++
	return nil
}

type stubReceiver struct {
	err error
}

func (s stubReceiver) Receive(context.Context, func(context.Context, *gcppubsub.Message)) error {
	return s.err
}

func newTestService(t *testing.T, ref *stubRefresher, idem *memoryIdempotency, warm bool) *Service {
	t.Helper()
	svc, err := NewService(Params{
		Subscription: stubReceiver{},
		Refresher:    ref,
		Idempotency:  idem,
		Logger:       logger.Nop(),
		WarmDefault:  warm,
	})
	require.NoError(t, err)
	return svc
}

func message(data string, attrs map[string]string) *gcppubsub.Message {
	return &gcppubsub.Message{ID: "msg-1", Data: []byte(data), Attributes: attrs}
}

func TestProcessRefreshesOnce(t *testing.T) {
	ref := &stubRefresher{}
	svc := newTestService(t, ref, &memoryIdempotency{}, false)
	msg := message(`{"event_id":"`+testEventID+`","seller_name":"Acme","report":"business_report"}`, nil)

	assert.Equal(t, outcomeAck, svc.process(context.Background(), msg))
	assert.Equal(t, outcomeAck, svc.process(context.Background(), msg))
	assert.Equal(t, []string{"Acme"}, ref.calls)
	assert.Equal(t, []bool{false}, ref.warm)
}

func TestProcessHonoursEventWarmFlag(t *testing.T) {
	ref := &stubRefresher{}
	svc := newTestService(t, ref, &memoryIdempotency{}, true)
	msg := message(`{"event_id":"`+testEventID+`","seller_name":"Acme","warm":false}`, nil)

	svc.process(context.Background(), msg)
	assert.Equal(t, []bool{false}, ref.warm)
}

func TestProcessReadsAttributes(t *testing.T) {
	ref := &stubRefresher{}
	svc := newTestService(t, ref, &memoryIdempotency{}, true)
	msg := message("", map[string]string{"event_id": testEventID, "seller_name": " Acme ", "report": "ADS_REPORT"})

	assert.Equal(t, outcomeAck, svc.process(context.Background(), msg))
	assert.Equal(t, []string{"Acme"}, ref.calls)
	assert.Equal(t, []bool{true}, ref.warm)
}

func TestProcessDropsInvalidEvents(t *testing.T) {
	ref := &stubRefresher{}
	svc := newTestService(t, ref, &memoryIdempotency{}, false)

	for _, msg := range []*gcppubsub.Message{
		message("not json", nil),
		message(`{"seller_name":"Acme"}`, nil),
		message(`{"event_id":"evt-1","seller_name":"Acme"}`, nil),
		message(`{"event_id":"`+testEventID+`"}`, nil),
		message(`{"event_id":"`+testEventID+`","seller_name":"Acme","report":"returns"}`, nil),
	} {
		assert.Equal(t, outcomeAck, svc.process(context.Background(), msg))
	}
	assert.Empty(t, ref.calls)
}

func TestProcessRetriesDependencyFailures(t *testing.T) {
	ref := &stubRefresher{err: pkgerrors.New(pkgerrors.CodeDependency, "redis unavailable")}
	idem := &memoryIdempotency{}
	svc := newTestService(t, ref, idem, false)
	msg := message(`{"event_id":"`+testEventID+`","seller_name":"Acme"}`, nil)

	assert.Equal(t, outcomeNack, svc.process(context.Background(), msg))
	assert.Equal(t, 1, idem.deleted)

	ref.err = nil
	assert.Equal(t, outcomeAck, svc.process(context.Background(), msg))
	assert.Len(t, ref.calls, 2)
}

func TestProcessAcksPermanentFailures(t *testing.T) {
	ref := &stubRefresher{err: pkgerrors.New(pkgerrors.CodeValidation, "seller_name too long")}
	idem := &memoryIdempotency{}
	svc := newTestService(t, ref, idem, false)
	msg := message(`{"event_id":"`+testEventID+`","seller_name":"Acme"}`, nil)

	assert.Equal(t, outcomeAck, svc.process(context.Background(), msg))
	assert.Zero(t, idem.deleted)
}

func TestProcessNacksWhenIdempotencyUnavailable(t *testing.T) {
	ref := &stubRefresher{}
	svc := newTestService(t, ref, &memoryIdempotency{err: errors.New("redis down")}, false)
	msg := message(`{"event_id":"`+testEventID+`","seller_name":"Acme"}`, nil)

	assert.Equal(t, outcomeNack, svc.process(context.Background(), msg))
	assert.Empty(t, ref.calls)
}

func TestRunWrapsMissingSubscription(t *testing.T) {
	svc, err := NewService(Params{
		Subscription: stubReceiver{err: status.Error(codes.NotFound, "subscription gone")},
		Refresher:    &stubRefresher{},
		Idempotency:  &memoryIdempotency{},
		Logger:       logger.Nop(),
	})
	require.NoError(t, err)

	err = svc.Run(context.Background())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestDecodeEventFallsBackToPublishTime(t *testing.T) {
	published := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)
	msg := message(`{"event_id":"`+testEventID+`","seller_name":"Acme","report":"asin_mapping"}`, nil)
	msg.PublishTime = published

	event, id, err := decodeEvent(msg)
	require.NoError(t, err)
	assert.Equal(t, testEventID, id.String())
	assert.Equal(t, enums.ReportKindAsinMapping, event.Report)
	assert.Equal(t, published, event.OccurredAt)
}

func TestNewServiceValidation(t *testing.T) {
	_, err := NewService(Params{})
	require.Error(t, err)
}
