package service

import (
	"context"
	"encoding/json"
	"sync"

	"ai-research-be/internal/dto"
	"ai-research-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IWorkerService interface {
	Consume(ctx context.Context) error
}

// workerService executes queued pipeline runs. A per-run mutex serializes
// executions for the same run id; distinct runs proceed in parallel.
type workerService struct {
	pubSub       *gochannel.GoChannel
	topicName    string
	orchestrator IOrchestratorService
	log          logger.ILogger

	mu       sync.Mutex
	runLocks map[uuid.UUID]*sync.Mutex
}

func NewWorkerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	orchestrator IOrchestratorService,
	log logger.ILogger,
) IWorkerService {
	return &workerService{
		pubSub:       pubSub,
		topicName:    topicName,
		orchestrator: orchestrator,
		log:          log,
		runLocks:     make(map[uuid.UUID]*sync.Mutex),
	}
}

func (s *workerService) lockFor(runId uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.runLocks[runId]
	if !ok {
		l = &sync.Mutex{}
		s.runLocks[runId] = l
	}
	return l
}

func (s *workerService) Consume(ctx context.Context) error {
	messages, err := s.pubSub.Subscribe(ctx, s.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			go s.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (s *workerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.ExecuteRunMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		s.log.Error("WORKER", "failed to unmarshal execute message", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // malformed, retrying will not help
		return
	}

	l := s.lockFor(payload.RunId)
	l.Lock()
	defer l.Unlock()

	s.log.Info("WORKER", "executing run", map[string]interface{}{
		"run_id":     payload.RunId.String(),
		"from_step":  payload.FromStep,
		"generation": payload.Generation,
	})

	err := s.orchestrator.ExecuteFromStep(ctx, payload.RunId, payload.FromStep, payload.Generation)
	if err != nil {
		// The orchestrator already recorded the failure on the run; the
		// message is done either way.
		s.log.Error("WORKER", "run execution failed", map[string]interface{}{
			"run_id": payload.RunId.String(),
			"error":  err.Error(),
		})
	}
	msg.Ack()
}
