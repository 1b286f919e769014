package mapper

import (
	"encoding/json"

	"ai-research-be/internal/entity"
	"ai-research-be/internal/model"

	"gorm.io/datatypes"
)

type RunMapper struct{}

func NewRunMapper() *RunMapper {
	return &RunMapper{}
}

func (m *RunMapper) ToEntity(r *model.Run) *entity.Run {
	if r == nil {
		return nil
	}
	return &entity.Run{
		Id:          r.Id,
		Query:       r.Query,
		Status:      r.Status,
		CurrentStep: r.CurrentStep,
		Generation:  r.Generation,
		Error:       r.Error,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func (m *RunMapper) ToModel(r *entity.Run) *model.Run {
	if r == nil {
		return nil
	}
	return &model.Run{
		Id:          r.Id,
		Query:       r.Query,
		Status:      r.Status,
		CurrentStep: r.CurrentStep,
		Generation:  r.Generation,
		Error:       r.Error,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type StepMapper struct{}

func NewStepMapper() *StepMapper {
	return &StepMapper{}
}

func (m *StepMapper) ToEntity(s *model.Step) *entity.Step {
	if s == nil {
		return nil
	}
	var output map[string]interface{}
	if len(s.Output) > 0 {
		_ = json.Unmarshal(s.Output, &output)
	}
	return &entity.Step{
		Id:         s.Id,
		RunId:      s.RunId,
		Index:      s.Index,
		Status:     s.Status,
		InputHash:  s.InputHash,
		Output:     output,
		StartedAt:  s.StartedAt,
		FinishedAt: s.FinishedAt,
		Error:      s.Error,
	}
}

func (m *StepMapper) ToModel(s *entity.Step) *model.Step {
	if s == nil {
		return nil
	}
	var output datatypes.JSON
	if s.Output != nil {
		b, err := json.Marshal(s.Output)
		if err == nil {
			output = datatypes.JSON(b)
		}
	}
	return &model.Step{
		Id:         s.Id,
		RunId:      s.RunId,
		Index:      s.Index,
		Status:     s.Status,
		InputHash:  s.InputHash,
		Output:     output,
		StartedAt:  s.StartedAt,
		FinishedAt: s.FinishedAt,
		Error:      s.Error,
	}
}

type SubtaskMapper struct{}

func NewSubtaskMapper() *SubtaskMapper {
	return &SubtaskMapper{}
}

func (m *SubtaskMapper) ToEntity(s *model.Subtask) *entity.Subtask {
	if s == nil {
		return nil
	}
	return &entity.Subtask{
		Id:        s.Id,
		RunId:     s.RunId,
		Name:      s.Name,
		Order:     s.Order,
		Confirmed: s.Confirmed,
	}
}

func (m *SubtaskMapper) ToModel(s *entity.Subtask) *model.Subtask {
	if s == nil {
		return nil
	}
	return &model.Subtask{
		Id:        s.Id,
		RunId:     s.RunId,
		Name:      s.Name,
		Order:     s.Order,
		Confirmed: s.Confirmed,
	}
}

func (m *SubtaskMapper) ToModels(subtasks []*entity.Subtask) []*model.Subtask {
	models := make([]*model.Subtask, len(subtasks))
	for i, s := range subtasks {
		models[i] = m.ToModel(s)
	}
	return models
}
