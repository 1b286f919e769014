package service

import (
	"context"
	"encoding/json"
	"fmt"

	"ai-research-be/internal/entity"
	"ai-research-be/internal/pkg/logger"
	"ai-research-be/internal/repository/unitofwork"
	"ai-research-be/pkg/events"
	pkgNats "ai-research-be/pkg/nats"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type IEventService interface {
	// Emit appends to the run's durable event log, then fans out to NATS and
	// redis on a best-effort basis. The append is the source of truth.
	Emit(ctx context.Context, runId uuid.UUID, eventType string, payload map[string]interface{}) (*entity.RunEvent, error)
	ReadSince(ctx context.Context, runId uuid.UUID, afterSeq int64) ([]*entity.RunEvent, error)
}

// RedisRunChannel is the pub/sub channel live stream consumers subscribe to.
func RedisRunChannel(runId uuid.UUID) string {
	return fmt.Sprintf("run_events:%s", runId)
}

type eventService struct {
	uowFactory    unitofwork.RepositoryFactory
	natsPublisher *pkgNats.Publisher
	redisClient   *redis.Client
	log           logger.ILogger
}

func NewEventService(
	uowFactory unitofwork.RepositoryFactory,
	natsPublisher *pkgNats.Publisher,
	redisClient *redis.Client,
	log logger.ILogger,
) IEventService {
	return &eventService{
		uowFactory:    uowFactory,
		natsPublisher: natsPublisher,
		redisClient:   redisClient,
		log:           log,
	}
}

func (s *eventService) Emit(ctx context.Context, runId uuid.UUID, eventType string, payload map[string]interface{}) (*entity.RunEvent, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	ev, err := uow.RunEventRepository().Append(ctx, runId, eventType, payload)
	if err != nil {
		return nil, err
	}

	s.fanOut(ctx, ev)
	return ev, nil
}

func (s *eventService) fanOut(ctx context.Context, ev *entity.RunEvent) {
	if s.redisClient != nil {
		data, err := json.Marshal(map[string]interface{}{
			"seq":        ev.Seq,
			"type":       ev.Type,
			"payload":    ev.Payload,
			"created_at": ev.CreatedAt,
		})
		if err == nil {
			if err := s.redisClient.Publish(ctx, RedisRunChannel(ev.RunId), data).Err(); err != nil {
				s.log.Warn("EVENT", "redis publish failed", map[string]interface{}{
					"run_id": ev.RunId.String(),
					"error":  err.Error(),
				})
			}
		}
	}

	if s.natsPublisher != nil {
		evt := events.NewRunEvent(ev.Type, ev.RunId.String(), ev.Seq, ev.Payload)
		if err := s.natsPublisher.Publish(ctx, evt); err != nil {
			s.log.Warn("EVENT", "nats publish failed", map[string]interface{}{
				"run_id": ev.RunId.String(),
				"type":   ev.Type,
				"error":  err.Error(),
			})
		}
	}
}

func (s *eventService) ReadSince(ctx context.Context, runId uuid.UUID, afterSeq int64) ([]*entity.RunEvent, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.RunEventRepository().ReadSince(ctx, runId, afterSeq)
}
