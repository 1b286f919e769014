package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"ai-research-be/internal/apperr"
	"ai-research-be/internal/constant"
	"ai-research-be/internal/dto"
	"ai-research-be/internal/entity"
	"ai-research-be/internal/pkg/logger"
	"ai-research-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type IRunService interface {
	// Create persists the run, executes step 1 synchronously and returns the
	// suggested subtasks with the run in waiting_confirm.
	Create(ctx context.Context, req *dto.CreateRunRequest) (*dto.CreateRunResponse, error)
	// ConfirmSubtasks replaces the subtask list wholesale and schedules
	// execution from step 2.
	ConfirmSubtasks(ctx context.Context, req *dto.ConfirmSubtasksRequest) (*dto.ConfirmSubtasksResponse, error)
	// Rerun schedules re-execution from the given step, invalidating
	// everything downstream.
	Rerun(ctx context.Context, req *dto.RerunRequest) (*dto.RerunResponse, error)
	Snapshot(ctx context.Context, runId uuid.UUID) (*dto.RunSnapshotResponse, error)
	Events(ctx context.Context, runId uuid.UUID, afterSeq int64) ([]*dto.RunEventResponse, error)
}

type runService struct {
	uowFactory       unitofwork.RepositoryFactory
	orchestrator     IOrchestratorService
	eventService     IEventService
	publisherService IPublisherService
	log              logger.ILogger
}

func NewRunService(
	uowFactory unitofwork.RepositoryFactory,
	orchestrator IOrchestratorService,
	eventService IEventService,
	publisherService IPublisherService,
	log logger.ILogger,
) IRunService {
	return &runService{
		uowFactory:       uowFactory,
		orchestrator:     orchestrator,
		eventService:     eventService,
		publisherService: publisherService,
		log:              log,
	}
}

func (s *runService) Create(ctx context.Context, req *dto.CreateRunRequest) (*dto.CreateRunResponse, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, apperr.Validation("query must not be empty")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	run := &entity.Run{
		Id:          uuid.New(),
		Query:       query,
		Status:      constant.RunStatusCreated,
		CurrentStep: constant.StepDecompose,
		Generation:  0,
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()
	if err := uow.RunRepository().Create(ctx, run); err != nil {
		return nil, err
	}
	steps := make([]*entity.Step, 0, constant.StepFinalize)
	for i := constant.StepDecompose; i <= constant.StepFinalize; i++ {
		steps = append(steps, &entity.Step{
			Id:     uuid.New(),
			RunId:  run.Id,
			Index:  i,
			Status: constant.StepStatusPending,
		})
	}
	if err := uow.StepRepository().CreateBulk(ctx, steps); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	if _, err := s.eventService.Emit(ctx, run.Id, constant.EventRunCreated, map[string]interface{}{
		"query": query,
	}); err != nil {
		return nil, err
	}

	// Decompose runs inline; the caller gets suggestions to confirm.
	if err := s.orchestrator.ExecuteFromStep(ctx, run.Id, constant.StepDecompose, run.Generation); err != nil {
		return nil, err
	}

	fresh, err := uow.RunRepository().FindById(ctx, run.Id)
	if err != nil {
		return nil, err
	}
	subtasks, err := uow.SubtaskRepository().FindAllByRunId(ctx, run.Id)
	if err != nil {
		return nil, err
	}

	return &dto.CreateRunResponse{
		Id:       run.Id,
		Status:   fresh.Status,
		Subtasks: toSubtaskResponses(subtasks),
	}, nil
}

func (s *runService) ConfirmSubtasks(ctx context.Context, req *dto.ConfirmSubtasksRequest) (*dto.ConfirmSubtasksResponse, error) {
	names := make([]string, 0, len(req.Subtasks))
	for _, n := range req.Subtasks {
		n = strings.TrimSpace(n)
		if n == "" {
			return nil, apperr.Validation("subtask names must not be empty")
		}
		names = append(names, n)
	}
	if len(names) == 0 {
		return nil, apperr.Validation("at least one subtask is required")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	run, err := uow.RunRepository().FindById(ctx, req.RunId)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, apperr.NotFound(fmt.Sprintf("run %s not found", req.RunId))
	}

	subtasks := make([]*entity.Subtask, len(names))
	for i, name := range names {
		subtasks[i] = &entity.Subtask{
			Id:        uuid.New(),
			RunId:     run.Id,
			Name:      name,
			Order:     i,
			Confirmed: true,
		}
	}

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
	run.Generation++
	run.Status = constant.RunStatusRunning
	run.CurrentStep = constant.StepRetrieve
	run.Error = nil
	if err := uow.RunRepository().Update(ctx, run); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	if _, err := s.eventService.Emit(ctx, run.Id, constant.EventSubtasksConfirmed, map[string]interface{}{
		"subtasks": names,
	}); err != nil {
		return nil, err
	}

	if err := s.schedule(ctx, run.Id, constant.StepRetrieve, run.Generation); err != nil {
		return nil, err
	}

	return &dto.ConfirmSubtasksResponse{
		Id:       run.Id,
		Status:   run.Status,
		Subtasks: toSubtaskResponses(subtasks),
	}, nil
}

func (s *runService) Rerun(ctx context.Context, req *dto.RerunRequest) (*dto.RerunResponse, error) {
	if req.FromStep < constant.StepDecompose || req.FromStep > constant.StepFinalize {
		return nil, apperr.Validation(fmt.Sprintf("invalid step index %d", req.FromStep))
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	run, err := uow.RunRepository().FindById(ctx, req.RunId)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, apperr.NotFound(fmt.Sprintf("run %s not found", req.RunId))
	}

	run.Generation++
	run.Status = constant.RunStatusRunning
	run.CurrentStep = req.FromStep
	run.Error = nil
	if err := uow.RunRepository().Update(ctx, run); err != nil {
		return nil, err
	}

	if _, err := s.eventService.Emit(ctx, run.Id, constant.EventRerunRequested, map[string]interface{}{
		"from_step": req.FromStep,
	}); err != nil {
		return nil, err
	}

	if err := s.schedule(ctx, run.Id, req.FromStep, run.Generation); err != nil {
		return nil, err
	}

	return &dto.RerunResponse{
		Id:       run.Id,
		Status:   run.Status,
		FromStep: req.FromStep,
	}, nil
}

func (s *runService) schedule(ctx context.Context, runId uuid.UUID, fromStep, generation int) error {
	msg := dto.ExecuteRunMessage{
		RunId:      runId,
		FromStep:   fromStep,
		Generation: generation,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return s.publisherService.Publish(ctx, payload)
}

func (s *runService) Snapshot(ctx context.Context, runId uuid.UUID) (*dto.RunSnapshotResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	run, err := uow.RunRepository().FindById(ctx, runId)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, apperr.NotFound(fmt.Sprintf("run %s not found", runId))
	}

	subtasks, err := uow.SubtaskRepository().FindAllByRunId(ctx, runId)
	if err != nil {
		return nil, err
	}
	steps, err := uow.StepRepository().FindAllByRunId(ctx, runId)
	if err != nil {
		return nil, err
	}
	documents, err := uow.DocumentRepository().FindAllByRunId(ctx, runId)
	if err != nil {
		return nil, err
	}
	summaries, err := uow.SummaryRepository().FindAllByRunId(ctx, runId)
	if err != nil {
		return nil, err
	}
	answer, err := uow.FinalAnswerRepository().FindByRunId(ctx, runId)
	if err != nil {
		return nil, err
	}

	resp := &dto.RunSnapshotResponse{
		Id:          run.Id,
		Query:       run.Query,
		Status:      run.Status,
		CurrentStep: run.CurrentStep,
		Error:       run.Error,
		Subtasks:    toSubtaskResponses(subtasks),
		Steps:       make([]dto.StepResponse, 0, len(steps)),
		Documents:   make([]dto.DocumentResponse, 0, len(documents)),
		Summaries:   make([]dto.SummaryResponse, 0, len(summaries)),
		CreatedAt:   run.CreatedAt,
		UpdatedAt:   run.UpdatedAt,
	}

	for _, st := range steps {
		resp.Steps = append(resp.Steps, dto.StepResponse{
			Index:      st.Index,
			Status:     st.Status,
			Output:     st.Output,
			StartedAt:  st.StartedAt,
			FinishedAt: st.FinishedAt,
			Error:      st.Error,
		})
	}

	for _, doc := range documents {
		d := dto.DocumentResponse{
			Id:      doc.Id,
			Title:   doc.Title,
			Kind:    doc.Kind,
			Score:   doc.Score,
			Content: doc.Content,
		}
		// Only the primary provenance record is surfaced.
		if len(doc.Sources) > 0 {
			src := doc.Sources[0]
			d.Source = &dto.SourceResponse{
				Provider: src.Provider,
				Url:      src.Url,
				Metadata: src.Metadata,
			}
		}
		resp.Documents = append(resp.Documents, d)
	}

	for _, sum := range summaries {
		resp.Summaries = append(resp.Summaries, dto.SummaryResponse{
			SubtaskId: sum.SubtaskId,
			Text:      sum.Text,
		})
	}

	if answer != nil {
		resp.FinalAnswer = &answer.Content
	}

	return resp, nil
}

func (s *runService) Events(ctx context.Context, runId uuid.UUID, afterSeq int64) ([]*dto.RunEventResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	run, err := uow.RunRepository().FindById(ctx, runId)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, apperr.NotFound(fmt.Sprintf("run %s not found", runId))
	}

	events, err := s.eventService.ReadSince(ctx, runId, afterSeq)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.RunEventResponse, len(events))
	for i, ev := range events {
		out[i] = &dto.RunEventResponse{
			Seq:       ev.Seq,
			Type:      ev.Type,
			Payload:   ev.Payload,
			CreatedAt: ev.CreatedAt,
		}
	}
	return out, nil
}

func toSubtaskResponses(subtasks []*entity.Subtask) []dto.SubtaskResponse {
	out := make([]dto.SubtaskResponse, len(subtasks))
	for i, st := range subtasks {
		out[i] = dto.SubtaskResponse{
			Id:        st.Id,
			Name:      st.Name,
			Order:     st.Order,
			Confirmed: st.Confirmed,
		}
	}
	return out
}
