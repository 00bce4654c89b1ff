// Package refresh invalidates cached snapshots when upstream reports reload.
package refresh

import (
	"context"
	"errors"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/sellerpulse-backend/internal/analytics/types"
	pkgerrors "github.com/angelmondragon/sellerpulse-backend/pkg/errors"
	"github.com/angelmondragon/sellerpulse-backend/pkg/logger"
)

const consumerName = "snapshot-refresh"

type receiver interface {
	Receive(ctx context.Context, f func(context.Context, *gcppubsub.Message)) error
}

type refresher interface {
	Refresh(ctx context.Context, seller string, warm bool) (*types.RefreshResult, error)
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

type Params struct {
	Subscription receiver
	Refresher    refresher
	Idempotency  idempotencyChecker
	Logger       *logger.Logger
	// WarmDefault applies to events that do not say whether to warm.
	WarmDefault bool
}

// Service consumes report-refreshed events. Each event id is handled once;
// a retryable failure releases the marker and nacks for redelivery.
type Service struct {
	subscription receiver
	refresher    refresher
	manager      idempotencyChecker
	logg         *logger.Logger
	warm         bool
}

func NewService(params Params) (*Service, error) {
	if params.Subscription == nil {
		return nil, errors.New("refresh subscription is required")
	}
	if params.Refresher == nil {
		return nil, errors.New("refresher is required")
	}
	if params.Idempotency == nil {
		return nil, errors.New("idempotency manager is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Service{
		subscription: params.Subscription,
		refresher:    params.Refresher,
		manager:      params.Idempotency,
		logg:         params.Logger,
		warm:         params.WarmDefault,
	}, nil
}

type outcome int

const (
	outcomeAck outcome = iota
	outcomeNack
)

// Run receives until ctx is canceled or the subscription fails.
func (s *Service) Run(ctx context.Context) error {
	err := s.subscription.Receive(ctx, func(innerCtx context.Context, msg *gcppubsub.Message) {
		if s.process(innerCtx, msg) == outcomeNack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
	switch status.Code(err) {
	case codes.NotFound, codes.PermissionDenied, codes.Unauthenticated:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refresh subscription unavailable")
	}
	return err
}

func (s *Service) process(ctx context.Context, msg *gcppubsub.Message) outcome {
	ctx = s.logg.WithField(ctx, "message_id", msg.ID)

	event, eventID, err := decodeEvent(msg)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "invalid refresh event dropped")
		return outcomeAck
	}
	ctx = s.logg.WithFields(s.logg.WithSeller(ctx, event.Seller), map[string]any{
		"event_id": event.EventID,
		"report":   event.Report,
	})

	already, err := s.manager.CheckAndMarkProcessed(ctx, consumerName, eventID)
	if err != nil {
		s.logg.Error(ctx, "idempotency check failed", err)
		return outcomeNack
	}
	if already {
		s.logg.Info(ctx, "refresh event already processed")
		return outcomeAck
	}

	warm := s.warm
	if event.Warm != nil {
		warm = *event.Warm
	}
	result, err := s.refresher.Refresh(ctx, event.Seller, warm)
	if err != nil {
		if !retryable(err) {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "refresh event rejected")
			return outcomeAck
		}
		s.logg.Error(ctx, "refresh failed", err)
		if delErr := s.manager.Delete(ctx, consumerName, eventID); delErr != nil {
			s.logg.Error(ctx, "failed to release idempotency marker", delErr)
		}
		return outcomeNack
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"invalidated": result.Invalidated,
		"warmed":      result.Warmed,
	}), "snapshot cache refreshed")
	return outcomeAck
}

func retryable(err error) bool {
	typed := pkgerrors.As(err)
	if typed == nil {
		return true
	}
	return pkgerrors.MetadataFor(typed.Code()).Retryable
}
