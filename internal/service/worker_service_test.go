package service

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"ai-research-be/internal/dto"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingOrchestrator struct {
	executed chan dto.ExecuteRunMessage
	active   int32
	overlap  int32
	delay    time.Duration
}

func (r *recordingOrchestrator) ExecuteFromStep(ctx context.Context, runId uuid.UUID, fromStep, generation int) error {
	if atomic.AddInt32(&r.active, 1) > 1 {
		atomic.StoreInt32(&r.overlap, 1)
	}
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	atomic.AddInt32(&r.active, -1)
	r.executed <- dto.ExecuteRunMessage{RunId: runId, FromStep: fromStep, Generation: generation}
	return nil
}

func newWorkerHarness(t *testing.T, delay time.Duration) (*gochannel.GoChannel, *recordingOrchestrator) {
	t.Helper()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
	orchestrator := &recordingOrchestrator{
		executed: make(chan dto.ExecuteRunMessage, 16),
		delay:    delay,
	}

	worker := NewWorkerService(pubSub, "EXECUTE_RUN_TEST", orchestrator, nopLogger{})
	require.NoError(t, worker.Consume(context.Background()))
	return pubSub, orchestrator
}

func publishExecute(t *testing.T, pubSub *gochannel.GoChannel, msg dto.ExecuteRunMessage) {
	t.Helper()
	payload, err := json.Marshal(msg)
	require.NoError(t, err)
	require.NoError(t, pubSub.Publish("EXECUTE_RUN_TEST", message.NewMessage(watermill.NewUUID(), payload)))
}

func waitExecuted(t *testing.T, orchestrator *recordingOrchestrator) dto.ExecuteRunMessage {
	t.Helper()
	select {
	case got := <-orchestrator.executed:
		return got
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for execution")
		return dto.ExecuteRunMessage{}
	}
}

func TestWorkerExecutesQueuedRun(t *testing.T) {
	pubSub, orchestrator := newWorkerHarness(t, 0)
	defer pubSub.Close()

	want := dto.ExecuteRunMessage{RunId: uuid.New(), FromStep: 2, Generation: 1}
	publishExecute(t, pubSub, want)

	got := waitExecuted(t, orchestrator)
	assert.Equal(t, want, got)
}

func TestWorkerDropsMalformedMessages(t *testing.T) {
	pubSub, orchestrator := newWorkerHarness(t, 0)
	defer pubSub.Close()

	require.NoError(t, pubSub.Publish("EXECUTE_RUN_TEST", message.NewMessage(watermill.NewUUID(), []byte("not json"))))

	want := dto.ExecuteRunMessage{RunId: uuid.New(), FromStep: 3, Generation: 2}
	publishExecute(t, pubSub, want)

	got := waitExecuted(t, orchestrator)
	assert.Equal(t, want, got, "malformed message is acked, valid one still runs")
}

func TestWorkerSerializesSameRun(t *testing.T) {
	pubSub, orchestrator := newWorkerHarness(t, 50*time.Millisecond)
	defer pubSub.Close()

	runId := uuid.New()
	publishExecute(t, pubSub, dto.ExecuteRunMessage{RunId: runId, FromStep: 2, Generation: 1})
	publishExecute(t, pubSub, dto.ExecuteRunMessage{RunId: runId, FromStep: 2, Generation: 2})

	waitExecuted(t, orchestrator)
	waitExecuted(t, orchestrator)

	assert.Zero(t, atomic.LoadInt32(&orchestrator.overlap), "executions for one run must never overlap")
}
