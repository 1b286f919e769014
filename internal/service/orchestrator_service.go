package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"ai-research-be/internal/apperr"
	"ai-research-be/internal/constant"
	"ai-research-be/internal/entity"
	"ai-research-be/internal/pkg/logger"
	"ai-research-be/internal/repository/unitofwork"
	"ai-research-be/pkg/research/agent"
	"ai-research-be/pkg/research/retrieval"

	"github.com/google/uuid"
)

type IOrchestratorService interface {
	// ExecuteFromStep runs the pipeline from the given step to completion.
	// Execution stops quietly when the run's generation no longer matches:
	// a confirm or rerun superseded this invocation.
	ExecuteFromStep(ctx context.Context, runId uuid.UUID, fromStep, generation int) error
}

type orchestratorService struct {
	uowFactory    unitofwork.RepositoryFactory
	researchAgent *agent.Agent
	merger        *retrieval.Merger
	eventService  IEventService
	log           logger.ILogger
}

func NewOrchestratorService(
	uowFactory unitofwork.RepositoryFactory,
	researchAgent *agent.Agent,
	merger *retrieval.Merger,
	eventService IEventService,
	log logger.ILogger,
) IOrchestratorService {
	return &orchestratorService{
		uowFactory:    uowFactory,
		researchAgent: researchAgent,
		merger:        merger,
		eventService:  eventService,
		log:           log,
	}
}

func (s *orchestratorService) ExecuteFromStep(ctx context.Context, runId uuid.UUID, fromStep, generation int) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	run, err := uow.RunRepository().FindById(ctx, runId)
	if err != nil {
		return err
	}
	if run == nil {
		return apperr.NotFound(fmt.Sprintf("run %s not found", runId))
	}
	if run.Generation != generation {
		s.log.Info("ORCHESTRATOR", "execution superseded before start", map[string]interface{}{
			"run_id": runId.String(),
		})
		return nil
	}

	if fromStep < constant.StepDecompose || fromStep > constant.StepFinalize {
		return apperr.Validation(fmt.Sprintf("invalid step index %d", fromStep))
	}

	if err := s.invalidateDownstream(ctx, uow, run, fromStep); err != nil {
		return err
	}

	run.Status = constant.RunStatusRunning
	run.CurrentStep = fromStep
	run.Error = nil
	if err := uow.RunRepository().Update(ctx, run); err != nil {
		return err
	}

	for stepIndex := fromStep; stepIndex <= constant.StepFinalize; stepIndex++ {
		// Re-read between steps so a concurrent confirm/rerun stops us.
		current, err := uow.RunRepository().FindById(ctx, runId)
		if err != nil {
			return err
		}
		if current == nil || current.Generation != generation {
			s.log.Info("ORCHESTRATOR", "execution superseded mid-run", map[string]interface{}{
				"run_id": runId.String(),
				"step":   stepIndex,
			})
			return nil
		}

		current.CurrentStep = stepIndex
		if err := uow.RunRepository().Update(ctx, current); err != nil {
			return err
		}

		// Recoverable failures are degraded inside steps; an error surfacing
		// here means the step could not produce its output, so the run stops.
		if err := s.executeStep(ctx, uow, current, stepIndex); err != nil {
			return s.failRun(ctx, uow, runId, stepIndex, err)
		}

		// Step 1 always halts for user confirmation.
		if stepIndex == constant.StepDecompose {
			return nil
		}
	}

	return s.completeRun(ctx, uow, runId)
}

// invalidateDownstream deletes artifacts the rerun boundary makes stale and
// resets the affected step rows. Steps 1 and 2 share a boundary: rerunning
// decomposition or retrieval discards documents, summaries and the answer;
// rerunning summarize keeps documents; rerunning finalize keeps summaries.
func (s *orchestratorService) invalidateDownstream(ctx context.Context, uow unitofwork.UnitOfWork, run *entity.Run, fromStep int) error {
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	switch {
	case fromStep <= constant.StepRetrieve:
		if err := uow.SummaryRepository().DeleteByRunId(ctx, run.Id); err != nil {
			return err
		}
		if err := uow.SourceRepository().DeleteByRunId(ctx, run.Id); err != nil {
			return err
		}
		if err := uow.DocumentRepository().DeleteByRunId(ctx, run.Id); err != nil {
			return err
		}
		if err := uow.FinalAnswerRepository().DeleteByRunId(ctx, run.Id); err != nil {
			return err
		}
	case fromStep == constant.StepSummarize:
		if err := uow.SummaryRepository().DeleteByRunId(ctx, run.Id); err != nil {
			return err
		}
		if err := uow.FinalAnswerRepository().DeleteByRunId(ctx, run.Id); err != nil {
			return err
		}
	case fromStep == constant.StepFinalize:
		if err := uow.FinalAnswerRepository().DeleteByRunId(ctx, run.Id); err != nil {
			return err
		}
	}

	steps, err := uow.StepRepository().FindAllByRunId(ctx, run.Id)
	if err != nil {
		return err
	}
	// Only steps strictly past the rerun boundary lose their state; the step
	// being rerun is reset when it starts executing again.
	var invalidated []int
	for _, step := range steps {
		if step.Index <= fromStep || step.Status == constant.StepStatusPending {
			continue
		}
		step.Status = constant.StepStatusInvalidated
		step.Output = nil
		step.InputHash = nil
		step.StartedAt = nil
		step.FinishedAt = nil
		step.Error = nil
		if err := uow.StepRepository().Update(ctx, step); err != nil {
			return err
		}
		invalidated = append(invalidated, step.Index)
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	for _, index := range invalidated {
		if _, err := s.eventService.Emit(ctx, run.Id, constant.EventStepInvalidated, map[string]interface{}{
			"step": index,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *orchestratorService) executeStep(ctx context.Context, uow unitofwork.UnitOfWork, run *entity.Run, stepIndex int) error {
	step, err := s.markStepRunning(ctx, uow, run.Id, stepIndex)
	if err != nil {
		return err
	}

	var output map[string]interface{}
	switch stepIndex {
	case constant.StepDecompose:
		output, err = s.stepDecompose(ctx, uow, run)
	case constant.StepRetrieve:
		output, err = s.stepRetrieve(ctx, uow, run)
	case constant.StepSummarize:
		output, err = s.stepSummarize(ctx, uow, run)
	case constant.StepFinalize:
		output, err = s.stepFinalize(ctx, uow, run)
	}
	if err != nil {
		s.markStepFailed(ctx, uow, step, err)
		return err
	}

	hash, err := s.stepInputHash(ctx, uow, run, stepIndex)
	if err != nil {
		return err
	}
	step.InputHash = hash

	return s.markStepDone(ctx, uow, step, output)
}

// stepInputHash fingerprints what the step consumed so a later reader can tell
// whether its output is stale relative to the current upstream state.
func (s *orchestratorService) stepInputHash(ctx context.Context, uow unitofwork.UnitOfWork, run *entity.Run, stepIndex int) (*string, error) {
	var parts []string
	switch stepIndex {
	case constant.StepDecompose:
		parts = []string{run.Query}
	case constant.StepRetrieve:
		subtasks, err := uow.SubtaskRepository().FindAllByRunId(ctx, run.Id)
		if err != nil {
			return nil, err
		}
		for _, st := range subtasks {
			parts = append(parts, st.Name)
		}
	case constant.StepSummarize:
		docs, err := uow.DocumentRepository().FindAllByRunId(ctx, run.Id)
		if err != nil {
			return nil, err
		}
		for _, doc := range docs {
			parts = append(parts, doc.Id.String())
		}
	case constant.StepFinalize:
		summaries, err := uow.SummaryRepository().FindAllByRunId(ctx, run.Id)
		if err != nil {
			return nil, err
		}
		for _, sum := range summaries {
			parts = append(parts, sum.Id.String())
		}
	}

	// Order-insensitive so the fingerprint only changes when the input set
	// itself changes.
	sort.Strings(parts)
	digest := sha256.Sum256([]byte(strings.Join(parts, "\n")))
	h := hex.EncodeToString(digest[:])
	return &h, nil
}

func (s *orchestratorService) markStepRunning(ctx context.Context, uow unitofwork.UnitOfWork, runId uuid.UUID, stepIndex int) (*entity.Step, error) {
	step, err := uow.StepRepository().FindByRunAndIndex(ctx, runId, stepIndex)
	if err != nil {
		return nil, err
	}
	if step == nil {
		return nil, apperr.NotFound(fmt.Sprintf("step %d of run %s not found", stepIndex, runId))
	}

	now := time.Now()
	step.Status = constant.StepStatusRunning
	step.StartedAt = &now
	step.FinishedAt = nil
	step.Error = nil
	if err := uow.StepRepository().Update(ctx, step); err != nil {
		return nil, err
	}

	if _, err := s.eventService.Emit(ctx, runId, constant.EventStepStarted, map[string]interface{}{
		"step": stepIndex,
	}); err != nil {
		return nil, err
	}
	return step, nil
}

func (s *orchestratorService) markStepDone(ctx context.Context, uow unitofwork.UnitOfWork, step *entity.Step, output map[string]interface{}) error {
	now := time.Now()
	step.Status = constant.StepStatusDone
	step.FinishedAt = &now
	step.Output = output
	if err := uow.StepRepository().Update(ctx, step); err != nil {
		return err
	}

	_, err := s.eventService.Emit(ctx, step.RunId, constant.EventStepCompleted, map[string]interface{}{
		"step": step.Index,
	})
	return err
}

func (s *orchestratorService) markStepFailed(ctx context.Context, uow unitofwork.UnitOfWork, step *entity.Step, stepErr error) {
	now := time.Now()
	msg := stepErr.Error()
	step.Status = constant.StepStatusFailed
	step.FinishedAt = &now
	step.Error = &msg
	if err := uow.StepRepository().Update(ctx, step); err != nil {
		s.log.Error("ORCHESTRATOR", "failed to persist step failure", map[string]interface{}{
			"run_id": step.RunId.String(),
			"step":   step.Index,
			"error":  err.Error(),
		})
	}
}

func (s *orchestratorService) failRun(ctx context.Context, uow unitofwork.UnitOfWork, runId uuid.UUID, stepIndex int, cause error) error {
	run, err := uow.RunRepository().FindById(ctx, runId)
	if err != nil {
		return err
	}
	if run == nil {
		return cause
	}

	msg := cause.Error()
	run.Status = constant.RunStatusFailed
	run.Error = &msg
	if err := uow.RunRepository().Update(ctx, run); err != nil {
		return err
	}

	if _, err := s.eventService.Emit(ctx, runId, constant.EventRunFailed, map[string]interface{}{
		"step":  stepIndex,
		"error": msg,
	}); err != nil {
		s.log.Error("ORCHESTRATOR", "failed to emit run.failed", map[string]interface{}{
			"run_id": runId.String(),
			"error":  err.Error(),
		})
	}
	return cause
}

func (s *orchestratorService) completeRun(ctx context.Context, uow unitofwork.UnitOfWork, runId uuid.UUID) error {
	run, err := uow.RunRepository().FindById(ctx, runId)
	if err != nil {
		return err
	}
	if run == nil {
		return apperr.NotFound(fmt.Sprintf("run %s not found", runId))
	}

	run.Status = constant.RunStatusCompleted
	if err := uow.RunRepository().Update(ctx, run); err != nil {
		return err
	}

	_, err = s.eventService.Emit(ctx, runId, constant.EventRunCompleted, nil)
	return err
}

// --- Step 1: decompose ---

func (s *orchestratorService) stepDecompose(ctx context.Context, uow unitofwork.UnitOfWork, run *entity.Run) (map[string]interface{}, error) {
	names, err := s.researchAgent.Decompose(ctx, run.Query)
	if err != nil {
		return nil, err
	}

	subtasks := make([]*entity.Subtask, len(names))
	for i, name := range names {
		subtasks[i] = &entity.Subtask{
			Id:        uuid.New(),
			RunId:     run.Id,
			Name:      name,
			Order:     i,
			Confirmed: false,
		}
	}

	// Full replacement; subtask identity never survives a re-decompose.
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()
	if err := uow.SubtaskRepository().DeleteByRunId(ctx, run.Id); err != nil {
		return nil, err
	}
	if err := uow.SubtaskRepository().CreateBulk(ctx, subtasks); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	run.Status = constant.RunStatusWaitingConfirm
	if err := uow.RunRepository().Update(ctx, run); err != nil {
		return nil, err
	}

	if _, err := s.eventService.Emit(ctx, run.Id, constant.EventSubtasksSuggested, map[string]interface{}{
		"subtasks": names,
	}); err != nil {
		return nil, err
	}

	return map[string]interface{}{"subtask_count": len(names)}, nil
}

// --- Step 2: retrieve ---

func (s *orchestratorService) stepRetrieve(ctx context.Context, uow unitofwork.UnitOfWork, run *entity.Run) (map[string]interface{}, error) {
	subtasks, err := uow.SubtaskRepository().FindAllByRunId(ctx, run.Id)
	if err != nil {
		return nil, err
	}
	if len(subtasks) == 0 {
		return nil, apperr.Validation("no subtasks to retrieve for")
	}
	for _, st := range subtasks {
		if !st.Confirmed {
			return nil, apperr.Validation(fmt.Sprintf("subtask %q not confirmed", st.Name))
		}
	}

	totalDocuments := 0
	for _, st := range subtasks {
		if _, err := s.eventService.Emit(ctx, run.Id, constant.EventRetrievalStarted, map[string]interface{}{
			"subtask_id": st.Id.String(),
			"subtask":    st.Name,
		}); err != nil {
			return nil, err
		}

		obs := &mergeObserver{
			service: s,
			ctx:     ctx,
			uow:     uow,
			runId:   run.Id,
			subtask: st,
		}
		hits, err := s.merger.Retrieve(ctx, st.Name, obs)
		if err != nil {
			return nil, apperr.Upstream(fmt.Sprintf("retrieval for subtask %q failed", st.Name), err)
		}
		if obs.err != nil {
			return nil, obs.err
		}
		totalDocuments += len(hits)

		if _, err := s.eventService.Emit(ctx, run.Id, constant.EventRetrievalCompleted, map[string]interface{}{
			"subtask_id": st.Id.String(),
			"documents":  len(hits),
		}); err != nil {
			return nil, err
		}
	}

	return map[string]interface{}{"documents": totalDocuments}, nil
}

// mergeObserver persists each accepted hit as a Document and mirrors merge
// progress into the event log, preserving the merger's processing order.
type mergeObserver struct {
	service *orchestratorService
	ctx     context.Context
	uow     unitofwork.UnitOfWork
	runId   uuid.UUID
	subtask *entity.Subtask
	err     error
}

func (o *mergeObserver) OnWebSearch(provider string, resultCount int) {
	if o.err != nil {
		return
	}
	_, o.err = o.service.eventService.Emit(o.ctx, o.runId, constant.EventRetrievalWebSearch, map[string]interface{}{
		"subtask_id": o.subtask.Id.String(),
		"provider":   provider,
		"results":    resultCount,
	})
}

func (o *mergeObserver) OnWebSearchFailed(searchErr error) {
	if o.err != nil {
		return
	}
	_, o.err = o.service.eventService.Emit(o.ctx, o.runId, constant.EventRetrievalWebFailed, map[string]interface{}{
		"subtask_id": o.subtask.Id.String(),
		"error":      searchErr.Error(),
	})
}

func (o *mergeObserver) OnHit(hit retrieval.Hit) {
	if o.err != nil {
		return
	}

	kind := constant.DocumentKindWeb
	if hit.Degraded {
		kind = constant.DocumentKindSnippet
	}

	var title *string
	if hit.Title != "" {
		t := hit.Title
		title = &t
	}
	var url *string
	if hit.Url != "" {
		u := hit.Url
		url = &u
	}

	metadata := map[string]interface{}{}
	if hit.Strategy != "" {
		metadata["strategy"] = hit.Strategy
	}
	if hit.Degraded {
		metadata["degraded"] = true
	}

	doc := &entity.Document{
		Id:        uuid.New(),
		RunId:     o.runId,
		SubtaskId: o.subtask.Id,
		Title:     title,
		Content:   hit.Content,
		Kind:      kind,
		Score:     hit.Score, // only vector hits carry a meaningful score
		Sources: []*entity.Source{{
			Id:       uuid.New(),
			Provider: hit.Provider,
			Url:      url,
			Metadata: metadata,
		}},
	}

	if o.err = o.uow.DocumentRepository().Create(o.ctx, doc); o.err != nil {
		return
	}

	payload := map[string]interface{}{
		"subtask_id":  o.subtask.Id.String(),
		"document_id": doc.Id.String(),
		"provider":    hit.Provider,
		"kind":        kind,
	}
	if hit.Title != "" {
		payload["title"] = hit.Title
	}
	if hit.Url != "" {
		payload["url"] = hit.Url
	}
	if hit.Score != nil {
		payload["score"] = *hit.Score
	}
	_, o.err = o.service.eventService.Emit(o.ctx, o.runId, constant.EventRetrievalCard, payload)
}

// --- Step 3: summarize ---

func (s *orchestratorService) stepSummarize(ctx context.Context, uow unitofwork.UnitOfWork, run *entity.Run) (map[string]interface{}, error) {
	subtasks, err := uow.SubtaskRepository().FindAllByRunId(ctx, run.Id)
	if err != nil {
		return nil, err
	}

	summaryCount := 0
	for _, st := range subtasks {
		docs, err := uow.DocumentRepository().FindAllBySubtaskId(ctx, st.Id)
		if err != nil {
			return nil, err
		}

		if len(docs) == 0 {
			// Still summarize so the final step sees every subtask.
			if err := s.writeSummary(ctx, uow, run.Id, st, uuid.Nil, ""); err != nil {
				return nil, err
			}
			summaryCount++
			continue
		}

		for _, doc := range docs {
			if err := s.writeSummary(ctx, uow, run.Id, st, doc.Id, doc.Content); err != nil {
				return nil, err
			}
			summaryCount++
		}
	}

	return map[string]interface{}{"summaries": summaryCount}, nil
}

func (s *orchestratorService) writeSummary(ctx context.Context, uow unitofwork.UnitOfWork, runId uuid.UUID, st *entity.Subtask, documentId uuid.UUID, content string) error {
	text, err := s.researchAgent.Summarize(ctx, st.Name, content)
	if err != nil {
		return err
	}

	summary := &entity.Summary{
		Id:         uuid.New(),
		RunId:      runId,
		SubtaskId:  st.Id,
		DocumentId: documentId,
		Text:       text,
	}
	if err := uow.SummaryRepository().Create(ctx, summary); err != nil {
		return err
	}

	payload := map[string]interface{}{
		"subtask_id": st.Id.String(),
		"summary_id": summary.Id.String(),
	}
	if documentId != uuid.Nil {
		payload["document_id"] = documentId.String()
	}
	_, err = s.eventService.Emit(ctx, runId, constant.EventSummaryGenerated, payload)
	return err
}

// --- Step 4: finalize ---

func (s *orchestratorService) stepFinalize(ctx context.Context, uow unitofwork.UnitOfWork, run *entity.Run) (map[string]interface{}, error) {
	subtasks, err := uow.SubtaskRepository().FindAllByRunId(ctx, run.Id)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(subtasks))
	for i, st := range subtasks {
		names[i] = st.Name
	}

	summaries, err := uow.SummaryRepository().FindAllByRunId(ctx, run.Id)
	if err != nil {
		return nil, err
	}
	texts := make([]string, len(summaries))
	for i, sum := range summaries {
		texts[i] = sum.Text
	}

	onChunk := func(chunk string) {
		if _, err := s.eventService.Emit(ctx, run.Id, constant.EventFinalAnswerChunk, map[string]interface{}{
			"delta": chunk,
		}); err != nil {
			s.log.Warn("ORCHESTRATOR", "failed to emit answer chunk", map[string]interface{}{
				"run_id": run.Id.String(),
				"error":  err.Error(),
			})
		}
	}

	answer, err := s.researchAgent.Finalize(ctx, run.Query, names, texts, onChunk)
	if err != nil {
		return nil, err
	}

	if err := uow.FinalAnswerRepository().DeleteByRunId(ctx, run.Id); err != nil {
		return nil, err
	}
	final := &entity.FinalAnswer{
		Id:      uuid.New(),
		RunId:   run.Id,
		Content: answer,
	}
	if err := uow.FinalAnswerRepository().Create(ctx, final); err != nil {
		return nil, err
	}

	if _, err := s.eventService.Emit(ctx, run.Id, constant.EventFinalAnswerComplete, map[string]interface{}{
		"answer_id": final.Id.String(),
		"length":    len(answer),
	}); err != nil {
		return nil, err
	}

	return map[string]interface{}{"answer_length": len(answer)}, nil
}
