package service

import (
	"context"
	"fmt"
	"testing"

	"ai-research-be/internal/apperr"
	"ai-research-be/internal/constant"
	"ai-research-be/internal/dto"
	"ai-research-be/internal/entity"
	"ai-research-be/internal/pkg/logger"
	"ai-research-be/internal/repository/memory"
	"ai-research-be/internal/repository/unitofwork"
	"ai-research-be/pkg/fetch"
	"ai-research-be/pkg/llm"
	"ai-research-be/pkg/research/agent"
	"ai-research-be/pkg/research/retrieval"
	"ai-research-be/pkg/search"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- test doubles ---

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }
func (nopLogger) GetLogs(level string, limit, offset int) ([]logger.LogEntry, error) {
	return nil, nil
}
func (nopLogger) GetLogById(id string) (*logger.LogEntry, error) { return nil, nil }

type stubLLM struct {
	generateFn func(prompt string) (string, error)
	streamFn   func(onChunk llm.ChunkHandler) (string, error)
}

func (s *stubLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return s.generateFn(history[len(history)-1].Content)
}

func (s *stubLLM) ChatStream(ctx context.Context, history []llm.Message, onChunk llm.ChunkHandler, options ...llm.Option) (string, error) {
	if s.streamFn != nil {
		return s.streamFn(onChunk)
	}
	return s.generateFn(history[len(history)-1].Content)
}

func (s *stubLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return s.generateFn(prompt)
}

type stubIndex struct {
	hits    []retrieval.Hit
	upserts int
}

func (s *stubIndex) Search(ctx context.Context, query string, topK int) ([]retrieval.Hit, error) {
	return s.hits, nil
}

func (s *stubIndex) Upsert(ctx context.Context, page *fetch.Page, provider string) error {
	s.upserts++
	return nil
}

type stubSearcher struct {
	results []search.Result
	err     error
	calls   int
}

func (s *stubSearcher) Search(ctx context.Context, query string, count int) ([]search.Result, error) {
	s.calls++
	return s.results, s.err
}

type stubFetcher struct {
	err error
}

func (s *stubFetcher) Fetch(ctx context.Context, url string) (*fetch.Page, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &fetch.Page{
		Url:      url,
		Title:    "Fetched " + url,
		Content:  "content of " + url,
		Strategy: fetch.StrategyReadability,
	}, nil
}

type capturePublisher struct {
	payloads [][]byte
}

func (p *capturePublisher) Publish(ctx context.Context, payload []byte) error {
	p.payloads = append(p.payloads, payload)
	return nil
}

// --- harness ---

type pipeline struct {
	store        *memory.Store
	factory      unitofwork.RepositoryFactory
	events       IEventService
	orchestrator IOrchestratorService
	runs         IRunService
	publisher    *capturePublisher
	searcher     *stubSearcher
	index        *stubIndex
	llm          *stubLLM
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()

	model := &stubLLM{
		generateFn: func(prompt string) (string, error) {
			return "generated answer", nil
		},
	}
	index := &stubIndex{}
	searcher := &stubSearcher{
		results: []search.Result{
			{Title: "Result One", Url: "https://example.com/one", Description: "first", Provider: "brave"},
			{Title: "Result Two", Url: "https://example.com/two", Description: "second", Provider: "brave"},
		},
	}

	store := memory.NewStore()
	factory := memory.NewRepositoryFactory(store)
	events := NewEventService(factory, nil, nil, nopLogger{})

	merger := retrieval.NewMerger(index, searcher, &stubFetcher{}, retrieval.Config{
		TopK:             6,
		HighScoreThresh:  0.85,
		MinHighScoreHits: 2,
		WebSearchCount:   8,
		MaxWebFetch:      5,
	})

	orchestrator := NewOrchestratorService(factory, agent.NewAgent(model), merger, events, nopLogger{})
	publisher := &capturePublisher{}
	runs := NewRunService(factory, orchestrator, events, publisher, nopLogger{})

	return &pipeline{
		store:        store,
		factory:      factory,
		events:       events,
		orchestrator: orchestrator,
		runs:         runs,
		publisher:    publisher,
		searcher:     searcher,
		index:        index,
		llm:          model,
	}
}

func (p *pipeline) run(t *testing.T, id uuid.UUID) *entity.Run {
	t.Helper()
	run, err := p.factory.NewUnitOfWork(context.Background()).RunRepository().FindById(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, run)
	return run
}

// createAndConfirm walks a run through decompose and confirmation, returning
// the run id and the generation the retrieval execution should carry.
func (p *pipeline) createAndConfirm(t *testing.T, names ...string) (uuid.UUID, int) {
	t.Helper()
	ctx := context.Background()

	created, err := p.runs.Create(ctx, &dto.CreateRunRequest{Query: "what is retrieval augmented generation?"})
	require.NoError(t, err)

	confirmed, err := p.runs.ConfirmSubtasks(ctx, &dto.ConfirmSubtasksRequest{
		RunId:    created.Id,
		Subtasks: names,
	})
	require.NoError(t, err)
	require.Equal(t, constant.RunStatusRunning, confirmed.Status)

	return created.Id, p.run(t, created.Id).Generation
}

// --- tests ---

func TestCreateRunHaltsForConfirmation(t *testing.T) {
	p := newPipeline(t)
	p.llm.generateFn = func(prompt string) (string, error) {
		return "- What is RAG?\n- How does vector search work?", nil
	}

	res, err := p.runs.Create(context.Background(), &dto.CreateRunRequest{Query: "explain RAG"})
	require.NoError(t, err)

	assert.Equal(t, constant.RunStatusWaitingConfirm, res.Status)
	require.Len(t, res.Subtasks, 2)
	assert.Equal(t, "What is RAG?", res.Subtasks[0].Name)
	assert.Equal(t, "How does vector search work?", res.Subtasks[1].Name)
	for _, st := range res.Subtasks {
		assert.False(t, st.Confirmed)
	}

	run := p.run(t, res.Id)
	assert.Equal(t, constant.RunStatusWaitingConfirm, run.Status)
	assert.Equal(t, 0, run.Generation)

	events, err := p.runs.Events(context.Background(), res.Id, 0)
	require.NoError(t, err)
	types := make([]string, len(events))
	for i, ev := range events {
		types[i] = ev.Type
		assert.Equal(t, int64(i+1), ev.Seq, "event seq must be contiguous from 1")
	}
	assert.Equal(t, []string{
		constant.EventRunCreated,
		constant.EventStepStarted,
		constant.EventSubtasksSuggested,
		constant.EventStepCompleted,
	}, types)
}

func TestDecomposeSemicolonList(t *testing.T) {
	p := newPipeline(t)
	p.llm.generateFn = func(prompt string) (string, error) {
		return "first question; second question", nil
	}

	res, err := p.runs.Create(context.Background(), &dto.CreateRunRequest{Query: "q"})
	require.NoError(t, err)
	require.Len(t, res.Subtasks, 2)
	assert.Equal(t, "first question", res.Subtasks[0].Name)
	assert.Equal(t, "second question", res.Subtasks[1].Name)
}

func TestConfirmRejectsEmptyNames(t *testing.T) {
	p := newPipeline(t)
	res, err := p.runs.Create(context.Background(), &dto.CreateRunRequest{Query: "q"})
	require.NoError(t, err)

	_, err = p.runs.ConfirmSubtasks(context.Background(), &dto.ConfirmSubtasksRequest{
		RunId:    res.Id,
		Subtasks: []string{"valid", "   "},
	})
	require.Error(t, err)

	// The failed confirmation must not advance the run.
	run := p.run(t, res.Id)
	assert.Equal(t, constant.RunStatusWaitingConfirm, run.Status)
	assert.Equal(t, 0, run.Generation)
}

func TestConfirmRejectsEmptyList(t *testing.T) {
	p := newPipeline(t)
	res, err := p.runs.Create(context.Background(), &dto.CreateRunRequest{Query: "q"})
	require.NoError(t, err)

	_, err = p.runs.ConfirmSubtasks(context.Background(), &dto.ConfirmSubtasksRequest{
		RunId:    res.Id,
		Subtasks: []string{},
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	run := p.run(t, res.Id)
	assert.Equal(t, constant.RunStatusWaitingConfirm, run.Status)
	assert.Equal(t, 0, run.Generation)
}

func TestConfirmReplacesSubtasksAndSchedules(t *testing.T) {
	p := newPipeline(t)
	res, err := p.runs.Create(context.Background(), &dto.CreateRunRequest{Query: "q"})
	require.NoError(t, err)

	confirmed, err := p.runs.ConfirmSubtasks(context.Background(), &dto.ConfirmSubtasksRequest{
		RunId:    res.Id,
		Subtasks: []string{"edited question", "added question"},
	})
	require.NoError(t, err)

	require.Len(t, confirmed.Subtasks, 2)
	for _, st := range confirmed.Subtasks {
		assert.True(t, st.Confirmed)
	}

	run := p.run(t, res.Id)
	assert.Equal(t, 1, run.Generation, "confirmation bumps the generation")
	assert.Equal(t, constant.StepRetrieve, run.CurrentStep)
	assert.Len(t, p.publisher.payloads, 1, "retrieval must be scheduled, not run inline")
}

func TestRetrieveRequiresConfirmedSubtasks(t *testing.T) {
	p := newPipeline(t)
	res, err := p.runs.Create(context.Background(), &dto.CreateRunRequest{Query: "q"})
	require.NoError(t, err)

	err = p.orchestrator.ExecuteFromStep(context.Background(), res.Id, constant.StepRetrieve, 0)
	require.Error(t, err)

	run := p.run(t, res.Id)
	assert.Equal(t, constant.RunStatusFailed, run.Status)
	require.NotNil(t, run.Error)
}

func TestFullPipelineCompletes(t *testing.T) {
	p := newPipeline(t)
	p.llm.streamFn = func(onChunk llm.ChunkHandler) (string, error) {
		onChunk("final ")
		onChunk("answer")
		return "final answer", nil
	}

	id, gen := p.createAndConfirm(t, "sub one", "sub two")
	require.NoError(t, p.orchestrator.ExecuteFromStep(context.Background(), id, constant.StepRetrieve, gen))

	ctx := context.Background()
	uow := p.factory.NewUnitOfWork(ctx)

	run := p.run(t, id)
	assert.Equal(t, constant.RunStatusCompleted, run.Status)

	// Two web results fetched per subtask.
	docs, err := uow.DocumentRepository().FindAllByRunId(ctx, id)
	require.NoError(t, err)
	assert.Len(t, docs, 4)
	for _, doc := range docs {
		assert.Equal(t, constant.DocumentKindWeb, doc.Kind)
		require.Len(t, doc.Sources, 1)
		assert.Equal(t, "brave", doc.Sources[0].Provider)
	}

	summaries, err := uow.SummaryRepository().FindAllByRunId(ctx, id)
	require.NoError(t, err)
	assert.Len(t, summaries, 4, "one summary per document")

	answer, err := uow.FinalAnswerRepository().FindByRunId(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, answer)
	assert.Equal(t, "final answer", answer.Content)

	steps, err := uow.StepRepository().FindAllByRunId(ctx, id)
	require.NoError(t, err)
	for _, step := range steps[1:] {
		assert.Equal(t, constant.StepStatusDone, step.Status, "step %d", step.Index)
	}

	// Streaming chunks and the completion marker are in the event log.
	events, err := p.runs.Events(ctx, id, 0)
	require.NoError(t, err)
	var chunks, done, completed int
	var lastSeq int64
	for _, ev := range events {
		require.Greater(t, ev.Seq, lastSeq, "seq must be strictly increasing")
		lastSeq = ev.Seq
		switch ev.Type {
		case constant.EventFinalAnswerChunk:
			chunks++
		case constant.EventFinalAnswerComplete:
			done++
		case constant.EventRunCompleted:
			completed++
		}
	}
	assert.Equal(t, 2, chunks)
	assert.Equal(t, 1, done)
	assert.Equal(t, 1, completed)
}

func TestWebSearchFailureDegradesToVectorOnly(t *testing.T) {
	p := newPipeline(t)
	score := 0.5
	p.index.hits = []retrieval.Hit{
		{Title: "indexed", Url: "https://example.com/indexed", Content: "cached text", Provider: constant.ProviderVector, Score: &score},
	}
	p.searcher.err = fmt.Errorf("all search providers failed: boom")

	id, gen := p.createAndConfirm(t, "only task")
	require.NoError(t, p.orchestrator.ExecuteFromStep(context.Background(), id, constant.StepRetrieve, gen))

	run := p.run(t, id)
	assert.Equal(t, constant.RunStatusCompleted, run.Status, "web search failure must not fail the run")

	ctx := context.Background()
	docs, err := p.factory.NewUnitOfWork(ctx).DocumentRepository().FindAllByRunId(ctx, id)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.NotNil(t, docs[0].Score)
	assert.Equal(t, score, *docs[0].Score)

	events, err := p.runs.Events(ctx, id, 0)
	require.NoError(t, err)
	var failedEvents int
	for _, ev := range events {
		if ev.Type == constant.EventRetrievalWebFailed {
			failedEvents++
		}
	}
	assert.Equal(t, 1, failedEvents)
}

func TestRerunFromSummarizeKeepsDocuments(t *testing.T) {
	p := newPipeline(t)
	id, gen := p.createAndConfirm(t, "sub one")
	require.NoError(t, p.orchestrator.ExecuteFromStep(context.Background(), id, constant.StepRetrieve, gen))

	ctx := context.Background()
	uow := p.factory.NewUnitOfWork(ctx)
	docsBefore, err := uow.DocumentRepository().FindAllByRunId(ctx, id)
	require.NoError(t, err)
	summariesBefore, err := uow.SummaryRepository().FindAllByRunId(ctx, id)
	require.NoError(t, err)

	rerun, err := p.runs.Rerun(ctx, &dto.RerunRequest{RunId: id, FromStep: constant.StepSummarize})
	require.NoError(t, err)
	require.NoError(t, p.orchestrator.ExecuteFromStep(ctx, id, constant.StepSummarize, p.run(t, id).Generation))
	assert.Equal(t, constant.StepSummarize, rerun.FromStep)

	docsAfter, err := uow.DocumentRepository().FindAllByRunId(ctx, id)
	require.NoError(t, err)
	require.Len(t, docsAfter, len(docsBefore), "rerun from summarize must not touch documents")
	kept := make(map[uuid.UUID]bool, len(docsBefore))
	for _, d := range docsBefore {
		kept[d.Id] = true
	}
	for _, d := range docsAfter {
		assert.True(t, kept[d.Id])
	}

	summariesAfter, err := uow.SummaryRepository().FindAllByRunId(ctx, id)
	require.NoError(t, err)
	require.Len(t, summariesAfter, len(summariesBefore))
	for _, after := range summariesAfter {
		for _, before := range summariesBefore {
			assert.NotEqual(t, before.Id, after.Id, "summaries must be regenerated")
		}
	}

	assert.Equal(t, constant.RunStatusCompleted, p.run(t, id).Status)
}

func TestRerunFromFinalizeKeepsSummaries(t *testing.T) {
	p := newPipeline(t)
	id, gen := p.createAndConfirm(t, "sub one")
	require.NoError(t, p.orchestrator.ExecuteFromStep(context.Background(), id, constant.StepRetrieve, gen))

	ctx := context.Background()
	uow := p.factory.NewUnitOfWork(ctx)
	summariesBefore, err := uow.SummaryRepository().FindAllByRunId(ctx, id)
	require.NoError(t, err)
	answerBefore, err := uow.FinalAnswerRepository().FindByRunId(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, answerBefore)

	_, err = p.runs.Rerun(ctx, &dto.RerunRequest{RunId: id, FromStep: constant.StepFinalize})
	require.NoError(t, err)
	require.NoError(t, p.orchestrator.ExecuteFromStep(ctx, id, constant.StepFinalize, p.run(t, id).Generation))

	summariesAfter, err := uow.SummaryRepository().FindAllByRunId(ctx, id)
	require.NoError(t, err)
	require.Len(t, summariesAfter, len(summariesBefore))
	kept := make(map[uuid.UUID]bool, len(summariesBefore))
	for _, s := range summariesBefore {
		kept[s.Id] = true
	}
	for _, s := range summariesAfter {
		assert.True(t, kept[s.Id], "summaries must survive a finalize rerun")
	}

	answerAfter, err := uow.FinalAnswerRepository().FindByRunId(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, answerAfter)
	assert.NotEqual(t, answerBefore.Id, answerAfter.Id)
}

func TestRerunFromRetrieveDiscardsEverything(t *testing.T) {
	p := newPipeline(t)
	id, gen := p.createAndConfirm(t, "sub one")
	require.NoError(t, p.orchestrator.ExecuteFromStep(context.Background(), id, constant.StepRetrieve, gen))

	ctx := context.Background()
	uow := p.factory.NewUnitOfWork(ctx)
	docsBefore, err := uow.DocumentRepository().FindAllByRunId(ctx, id)
	require.NoError(t, err)
	require.NotEmpty(t, docsBefore)

	_, err = p.runs.Rerun(ctx, &dto.RerunRequest{RunId: id, FromStep: constant.StepRetrieve})
	require.NoError(t, err)
	require.NoError(t, p.orchestrator.ExecuteFromStep(ctx, id, constant.StepRetrieve, p.run(t, id).Generation))

	docsAfter, err := uow.DocumentRepository().FindAllByRunId(ctx, id)
	require.NoError(t, err)
	require.Len(t, docsAfter, len(docsBefore))
	for _, after := range docsAfter {
		for _, before := range docsBefore {
			assert.NotEqual(t, before.Id, after.Id, "documents must be rebuilt")
		}
	}
}

func TestRerunEmitsInvalidationEvents(t *testing.T) {
	p := newPipeline(t)
	id, gen := p.createAndConfirm(t, "sub one")
	ctx := context.Background()
	require.NoError(t, p.orchestrator.ExecuteFromStep(ctx, id, constant.StepRetrieve, gen))

	events, err := p.runs.Events(ctx, id, 0)
	require.NoError(t, err)
	cursor := events[len(events)-1].Seq

	_, err = p.runs.Rerun(ctx, &dto.RerunRequest{RunId: id, FromStep: constant.StepSummarize})
	require.NoError(t, err)
	require.NoError(t, p.orchestrator.ExecuteFromStep(ctx, id, constant.StepSummarize, p.run(t, id).Generation))

	fresh, err := p.runs.Events(ctx, id, cursor)
	require.NoError(t, err)
	var invalidated []int
	for _, ev := range fresh {
		if ev.Type == constant.EventStepInvalidated {
			invalidated = append(invalidated, ev.Payload["step"].(int))
		}
	}
	assert.Equal(t, []int{4}, invalidated, "only steps past the rerun boundary lose their results")
}

func TestStepsRecordInputFingerprint(t *testing.T) {
	p := newPipeline(t)
	id, gen := p.createAndConfirm(t, "sub one")
	ctx := context.Background()
	require.NoError(t, p.orchestrator.ExecuteFromStep(ctx, id, constant.StepRetrieve, gen))

	uow := p.factory.NewUnitOfWork(ctx)
	steps, err := uow.StepRepository().FindAllByRunId(ctx, id)
	require.NoError(t, err)
	hashes := make(map[int]string, len(steps))
	for _, step := range steps {
		require.NotNil(t, step.InputHash, "step %d must record its input fingerprint", step.Index)
		assert.Len(t, *step.InputHash, 64)
		hashes[step.Index] = *step.InputHash
	}

	// Rerunning summarize leaves the documents untouched, so step 3 consumes
	// the same input and produces the same fingerprint.
	_, err = p.runs.Rerun(ctx, &dto.RerunRequest{RunId: id, FromStep: constant.StepSummarize})
	require.NoError(t, err)
	require.NoError(t, p.orchestrator.ExecuteFromStep(ctx, id, constant.StepSummarize, p.run(t, id).Generation))

	step3, err := uow.StepRepository().FindByRunAndIndex(ctx, id, constant.StepSummarize)
	require.NoError(t, err)
	require.NotNil(t, step3.InputHash)
	assert.Equal(t, hashes[constant.StepSummarize], *step3.InputHash)
}

// flakyEvents fails emission of one chosen event type; everything else goes
// through to the real event service.
type flakyEvents struct {
	IEventService
	failType string
}

func (f *flakyEvents) Emit(ctx context.Context, runId uuid.UUID, eventType string, payload map[string]interface{}) (*entity.RunEvent, error) {
	if eventType == f.failType {
		return nil, apperr.Provider("event sink unavailable", nil)
	}
	return f.IEventService.Emit(ctx, runId, eventType, payload)
}

func TestRecoverableStepErrorFailsRun(t *testing.T) {
	model := &stubLLM{
		generateFn: func(prompt string) (string, error) {
			return "generated answer", nil
		},
	}
	searcher := &stubSearcher{
		results: []search.Result{
			{Title: "Result One", Url: "https://example.com/one", Description: "first", Provider: "brave"},
		},
	}

	store := memory.NewStore()
	factory := memory.NewRepositoryFactory(store)
	events := &flakyEvents{
		IEventService: NewEventService(factory, nil, nil, nopLogger{}),
		failType:      constant.EventRetrievalCompleted,
	}
	merger := retrieval.NewMerger(&stubIndex{}, searcher, &stubFetcher{}, retrieval.Config{
		TopK:             6,
		HighScoreThresh:  0.85,
		MinHighScoreHits: 2,
		WebSearchCount:   8,
		MaxWebFetch:      5,
	})
	orchestrator := NewOrchestratorService(factory, agent.NewAgent(model), merger, events, nopLogger{})
	runs := NewRunService(factory, orchestrator, events, &capturePublisher{}, nopLogger{})

	ctx := context.Background()
	created, err := runs.Create(ctx, &dto.CreateRunRequest{Query: "q"})
	require.NoError(t, err)
	_, err = runs.ConfirmSubtasks(ctx, &dto.ConfirmSubtasksRequest{RunId: created.Id, Subtasks: []string{"sub one"}})
	require.NoError(t, err)

	uow := factory.NewUnitOfWork(ctx)
	run, err := uow.RunRepository().FindById(ctx, created.Id)
	require.NoError(t, err)
	require.Error(t, orchestrator.ExecuteFromStep(ctx, created.Id, constant.StepRetrieve, run.Generation))

	// Even a recoverable error surfacing at step level stops the run; no
	// later step may execute past the failure point.
	run, err = uow.RunRepository().FindById(ctx, created.Id)
	require.NoError(t, err)
	assert.Equal(t, constant.RunStatusFailed, run.Status)
	require.NotNil(t, run.Error)

	steps, err := uow.StepRepository().FindAllByRunId(ctx, created.Id)
	require.NoError(t, err)
	for _, step := range steps {
		switch step.Index {
		case constant.StepRetrieve:
			assert.Equal(t, constant.StepStatusFailed, step.Status)
		case constant.StepSummarize, constant.StepFinalize:
			assert.Equal(t, constant.StepStatusPending, step.Status, "step %d must never run", step.Index)
		}
	}

	summaries, err := uow.SummaryRepository().FindAllByRunId(ctx, created.Id)
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestStaleGenerationIsIgnored(t *testing.T) {
	p := newPipeline(t)
	id, _ := p.createAndConfirm(t, "sub one")

	ctx := context.Background()
	events, err := p.runs.Events(ctx, id, 0)
	require.NoError(t, err)
	before := len(events)

	// Generation 0 was superseded by the confirmation.
	require.NoError(t, p.orchestrator.ExecuteFromStep(ctx, id, constant.StepRetrieve, 0))

	events, err = p.runs.Events(ctx, id, 0)
	require.NoError(t, err)
	assert.Equal(t, before, len(events), "stale execution must be a no-op")
}

func TestRerunRejectsOutOfRangeStep(t *testing.T) {
	p := newPipeline(t)
	res, err := p.runs.Create(context.Background(), &dto.CreateRunRequest{Query: "q"})
	require.NoError(t, err)

	_, err = p.runs.Rerun(context.Background(), &dto.RerunRequest{RunId: res.Id, FromStep: 5})
	require.Error(t, err)
	_, err = p.runs.Rerun(context.Background(), &dto.RerunRequest{RunId: res.Id, FromStep: 0})
	require.Error(t, err)
}

func TestEventsCursorSkipsReplayed(t *testing.T) {
	p := newPipeline(t)
	res, err := p.runs.Create(context.Background(), &dto.CreateRunRequest{Query: "q"})
	require.NoError(t, err)

	all, err := p.runs.Events(context.Background(), res.Id, 0)
	require.NoError(t, err)
	require.NotEmpty(t, all)

	tail, err := p.runs.Events(context.Background(), res.Id, all[1].Seq)
	require.NoError(t, err)
	require.Len(t, tail, len(all)-2)
	assert.Equal(t, all[2].Seq, tail[0].Seq)
}

func TestEventsUnknownRun(t *testing.T) {
	p := newPipeline(t)
	_, err := p.runs.Events(context.Background(), uuid.New(), 0)
	require.Error(t, err)
}

func TestSnapshotAfterCompletion(t *testing.T) {
	p := newPipeline(t)
	id, gen := p.createAndConfirm(t, "sub one")
	require.NoError(t, p.orchestrator.ExecuteFromStep(context.Background(), id, constant.StepRetrieve, gen))

	snap, err := p.runs.Snapshot(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, constant.RunStatusCompleted, snap.Status)
	assert.Len(t, snap.Steps, 4)
	assert.NotEmpty(t, snap.Documents)
	assert.NotEmpty(t, snap.Summaries)
	require.NotNil(t, snap.FinalAnswer)
	for _, doc := range snap.Documents {
		require.NotNil(t, doc.Source, "every document surfaces its provenance")
	}

	// Snapshot is a pure read.
	again, err := p.runs.Snapshot(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, snap.Status, again.Status)
	assert.Len(t, again.Documents, len(snap.Documents))
}

func TestDecomposeFailureFailsRun(t *testing.T) {
	p := newPipeline(t)
	p.llm.generateFn = func(prompt string) (string, error) {
		return "", fmt.Errorf("model unavailable")
	}

	_, err := p.runs.Create(context.Background(), &dto.CreateRunRequest{Query: "q"})
	require.Error(t, err)
}

func TestSummarizeWithoutDocuments(t *testing.T) {
	p := newPipeline(t)
	p.searcher.results = nil
	p.searcher.err = fmt.Errorf("no providers configured")

	id, gen := p.createAndConfirm(t, "lonely task")
	require.NoError(t, p.orchestrator.ExecuteFromStep(context.Background(), id, constant.StepRetrieve, gen))

	ctx := context.Background()
	summaries, err := p.factory.NewUnitOfWork(ctx).SummaryRepository().FindAllByRunId(ctx, id)
	require.NoError(t, err)
	require.Len(t, summaries, 1, "a doc-less subtask still gets a summary")
	assert.Equal(t, uuid.Nil, summaries[0].DocumentId)
	assert.Equal(t, constant.RunStatusCompleted, p.run(t, id).Status)
}
