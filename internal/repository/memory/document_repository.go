package memory

import (
	"context"
	"sort"
	"time"

	"ai-research-be/internal/entity"
	"ai-research-be/internal/repository/contract"

	"github.com/google/uuid"
)

type documentRepository struct {
	store *Store
}

func NewDocumentRepository(store *Store) contract.DocumentRepository {
	return &documentRepository{store: store}
}

func (r *documentRepository) Create(ctx context.Context, document *entity.Document) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if document.Id == uuid.Nil {
		document.Id = uuid.New()
	}
	if document.CreatedAt.IsZero() {
		document.CreatedAt = time.Now()
	}
	for _, s := range document.Sources {
		if s.Id == uuid.Nil {
			s.Id = uuid.New()
		}
		s.DocumentId = document.Id
	}
	r.store.documents[document.Id] = cloneDocument(document)
	return nil
}

func (r *documentRepository) Update(ctx context.Context, document *entity.Document) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.documents[document.Id] = cloneDocument(document)
	return nil
}

func (r *documentRepository) FindAllByRunId(ctx context.Context, runId uuid.UUID) ([]*entity.Document, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.Document
	for _, d := range r.store.documents {
		if d.RunId == runId {
			out = append(out, cloneDocument(d))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *documentRepository) FindAllBySubtaskId(ctx context.Context, subtaskId uuid.UUID) ([]*entity.Document, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.Document
	for _, d := range r.store.documents {
		if d.SubtaskId == subtaskId {
			out = append(out, cloneDocument(d))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *documentRepository) DeleteByRunId(ctx context.Context, runId uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for id, d := range r.store.documents {
		if d.RunId == runId {
			delete(r.store.documents, id)
		}
	}
	return nil
}

func (r *documentRepository) Count(ctx context.Context) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return int64(len(r.store.documents)), nil
}

type sourceRepository struct {
	store *Store
}

func NewSourceRepository(store *Store) contract.SourceRepository {
	return &sourceRepository{store: store}
}

func (r *sourceRepository) Create(ctx context.Context, source *entity.Source) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if source.Id == uuid.Nil {
		source.Id = uuid.New()
	}
	doc, ok := r.store.documents[source.DocumentId]
	if ok {
		sc := *source
		doc.Sources = append(doc.Sources, &sc)
	}
	return nil
}

func (r *sourceRepository) DeleteByRunId(ctx context.Context, runId uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, d := range r.store.documents {
		if d.RunId == runId {
			d.Sources = nil
		}
	}
	return nil
}

type summaryRepository struct {
	store *Store
}

func NewSummaryRepository(store *Store) contract.SummaryRepository {
	return &summaryRepository{store: store}
}

func (r *summaryRepository) Create(ctx context.Context, summary *entity.Summary) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if summary.Id == uuid.Nil {
		summary.Id = uuid.New()
	}
	if summary.CreatedAt.IsZero() {
		summary.CreatedAt = time.Now()
	}
	c := *summary
	r.store.summaries[summary.Id] = &c
	return nil
}

func (r *summaryRepository) FindAllByRunId(ctx context.Context, runId uuid.UUID) ([]*entity.Summary, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.Summary
	for _, s := range r.store.summaries {
		if s.RunId == runId {
			c := *s
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *summaryRepository) DeleteByRunId(ctx context.Context, runId uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for id, s := range r.store.summaries {
		if s.RunId == runId {
			delete(r.store.summaries, id)
		}
	}
	return nil
}

type finalAnswerRepository struct {
	store *Store
}

func NewFinalAnswerRepository(store *Store) contract.FinalAnswerRepository {
	return &finalAnswerRepository{store: store}
}

func (r *finalAnswerRepository) Create(ctx context.Context, answer *entity.FinalAnswer) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if answer.Id == uuid.Nil {
		answer.Id = uuid.New()
	}
	if answer.CreatedAt.IsZero() {
		answer.CreatedAt = time.Now()
	}
	c := *answer
	r.store.answers[answer.Id] = &c
	return nil
}

func (r *finalAnswerRepository) FindByRunId(ctx context.Context, runId uuid.UUID) (*entity.FinalAnswer, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, a := range r.store.answers {
		if a.RunId == runId {
			c := *a
			return &c, nil
		}
	}
	return nil, nil
}

func (r *finalAnswerRepository) DeleteByRunId(ctx context.Context, runId uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for id, a := range r.store.answers {
		if a.RunId == runId {
			delete(r.store.answers, id)
		}
	}
	return nil
}
