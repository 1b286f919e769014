package mapper

import (
	"encoding/json"

	"ai-research-be/internal/entity"
	"ai-research-be/internal/model"

	"gorm.io/datatypes"
)

type DocumentMapper struct {
	sourceMapper *SourceMapper
}

func NewDocumentMapper() *DocumentMapper {
	return &DocumentMapper{sourceMapper: NewSourceMapper()}
}

func (m *DocumentMapper) ToEntity(d *model.Document) *entity.Document {
	if d == nil {
		return nil
	}
	sources := make([]*entity.Source, len(d.Sources))
	for i := range d.Sources {
		sources[i] = m.sourceMapper.ToEntity(&d.Sources[i])
	}
	return &entity.Document{
		Id:        d.Id,
		RunId:     d.RunId,
		SubtaskId: d.SubtaskId,
		Title:     d.Title,
		Content:   d.Content,
		Kind:      d.Kind,
		Score:     d.Score,
		CreatedAt: d.CreatedAt,
		Sources:   sources,
	}
}

func (m *DocumentMapper) ToModel(d *entity.Document) *model.Document {
	if d == nil {
		return nil
	}
	return &model.Document{
		Id:        d.Id,
		RunId:     d.RunId,
		SubtaskId: d.SubtaskId,
		Title:     d.Title,
		Content:   d.Content,
		Kind:      d.Kind,
		Score:     d.Score,
		CreatedAt: d.CreatedAt,
	}
}

type SourceMapper struct{}

func NewSourceMapper() *SourceMapper {
	return &SourceMapper{}
}

func (m *SourceMapper) ToEntity(s *model.Source) *entity.Source {
	if s == nil {
		return nil
	}
	var meta map[string]interface{}
	if len(s.Metadata) > 0 {
		_ = json.Unmarshal(s.Metadata, &meta)
	}
	return &entity.Source{
		Id:         s.Id,
		DocumentId: s.DocumentId,
		Provider:   s.Provider,
		Url:        s.Url,
		Metadata:   meta,
	}
}

func (m *SourceMapper) ToModel(s *entity.Source) *model.Source {
	if s == nil {
		return nil
	}
	var meta datatypes.JSON
	if s.Metadata != nil {
		if b, err := json.Marshal(s.Metadata); err == nil {
			meta = datatypes.JSON(b)
		}
	}
	return &model.Source{
		Id:         s.Id,
		DocumentId: s.DocumentId,
		Provider:   s.Provider,
		Url:        s.Url,
		Metadata:   meta,
	}
}

type SummaryMapper struct{}

func NewSummaryMapper() *SummaryMapper {
	return &SummaryMapper{}
}

func (m *SummaryMapper) ToEntity(s *model.Summary) *entity.Summary {
	if s == nil {
		return nil
	}
	return &entity.Summary{
		Id:         s.Id,
		RunId:      s.RunId,
		SubtaskId:  s.SubtaskId,
		DocumentId: s.DocumentId,
		Text:       s.Text,
		CreatedAt:  s.CreatedAt,
	}
}

func (m *SummaryMapper) ToModel(s *entity.Summary) *model.Summary {
	if s == nil {
		return nil
	}
	return &model.Summary{
		Id:         s.Id,
		RunId:      s.RunId,
		SubtaskId:  s.SubtaskId,
		DocumentId: s.DocumentId,
		Text:       s.Text,
		CreatedAt:  s.CreatedAt,
	}
}

type FinalAnswerMapper struct{}

func NewFinalAnswerMapper() *FinalAnswerMapper {
	return &FinalAnswerMapper{}
}

func (m *FinalAnswerMapper) ToEntity(f *model.FinalAnswer) *entity.FinalAnswer {
	if f == nil {
		return nil
	}
	return &entity.FinalAnswer{
		Id:        f.Id,
		RunId:     f.RunId,
		Content:   f.Content,
		CreatedAt: f.CreatedAt,
	}
}

func (m *FinalAnswerMapper) ToModel(f *entity.FinalAnswer) *model.FinalAnswer {
	if f == nil {
		return nil
	}
	return &model.FinalAnswer{
		Id:        f.Id,
		RunId:     f.RunId,
		Content:   f.Content,
		CreatedAt: f.CreatedAt,
	}
}
