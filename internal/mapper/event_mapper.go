package mapper

import (
	"encoding/json"

	"ai-research-be/internal/entity"
	"ai-research-be/internal/model"

	"gorm.io/datatypes"
)

type RunEventMapper struct{}

func NewRunEventMapper() *RunEventMapper {
	return &RunEventMapper{}
}

func (m *RunEventMapper) ToEntity(e *model.RunEvent) *entity.RunEvent {
	if e == nil {
		return nil
	}
	var payload map[string]interface{}
	if len(e.Payload) > 0 {
		_ = json.Unmarshal(e.Payload, &payload)
	}
	return &entity.RunEvent{
		Id:        e.Id,
		RunId:     e.RunId,
		Seq:       e.Seq,
		Type:      e.Type,
		Payload:   payload,
		CreatedAt: e.CreatedAt,
	}
}

func (m *RunEventMapper) ToModel(e *entity.RunEvent) *model.RunEvent {
	if e == nil {
		return nil
	}
	var payload datatypes.JSON
	if e.Payload != nil {
		if b, err := json.Marshal(e.Payload); err == nil {
			payload = datatypes.JSON(b)
		}
	}
	return &model.RunEvent{
		Id:        e.Id,
		RunId:     e.RunId,
		Seq:       e.Seq,
		Type:      e.Type,
		Payload:   payload,
		CreatedAt: e.CreatedAt,
	}
}

func (m *RunEventMapper) ToEntities(events []*model.RunEvent) []*entity.RunEvent {
	entities := make([]*entity.RunEvent, len(events))
	for i, e := range events {
		entities[i] = m.ToEntity(e)
	}
	return entities
}
