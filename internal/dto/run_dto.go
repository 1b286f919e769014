package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateRunRequest struct {
	Query string `json:"query" validate:"required"`
}

type CreateRunResponse struct {
	Id       uuid.UUID         `json:"id"`
	Status   string            `json:"status"`
	Subtasks []SubtaskResponse `json:"subtasks"`
}

type SubtaskResponse struct {
	Id        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Order     int       `json:"order"`
	Confirmed bool      `json:"confirmed"`
}

type ConfirmSubtasksRequest struct {
	RunId    uuid.UUID
	Subtasks []string `json:"subtasks" validate:"required,min=1,dive,required"`
}

type ConfirmSubtasksResponse struct {
	Id       uuid.UUID         `json:"id"`
	Status   string            `json:"status"`
	Subtasks []SubtaskResponse `json:"subtasks"`
}

type RerunRequest struct {
	RunId    uuid.UUID
	FromStep int
}

type RerunResponse struct {
	Id       uuid.UUID `json:"id"`
	Status   string    `json:"status"`
	FromStep int       `json:"from_step"`
}

type StepResponse struct {
	Index      int                    `json:"index"`
	Status     string                 `json:"status"`
	Output     map[string]interface{} `json:"output,omitempty"`
	StartedAt  *time.Time             `json:"started_at,omitempty"`
	FinishedAt *time.Time             `json:"finished_at,omitempty"`
	Error      *string                `json:"error,omitempty"`
}

type SourceResponse struct {
	Provider string                 `json:"provider"`
	Url      *string                `json:"url,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

type DocumentResponse struct {
	Id      uuid.UUID       `json:"id"`
	Title   *string         `json:"title,omitempty"`
	Kind    string          `json:"kind"`
	Score   *float64        `json:"score,omitempty"`
	Content string          `json:"content"`
	Source  *SourceResponse `json:"source,omitempty"`
}

type SummaryResponse struct {
	SubtaskId uuid.UUID `json:"subtask_id"`
	Text      string    `json:"text"`
}

// RunSnapshotResponse is the full current state of a run; reading it twice
// without intervening work must yield identical content.
type RunSnapshotResponse struct {
	Id          uuid.UUID          `json:"id"`
	Query       string             `json:"query"`
	Status      string             `json:"status"`
	CurrentStep int                `json:"current_step"`
	Error       *string            `json:"error,omitempty"`
	Subtasks    []SubtaskResponse  `json:"subtasks"`
	Steps       []StepResponse     `json:"steps"`
	Documents   []DocumentResponse `json:"documents"`
	Summaries   []SummaryResponse  `json:"summaries"`
	FinalAnswer *string            `json:"final_answer,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

type RunEventResponse struct {
	Seq       int64                  `json:"seq"`
	Type      string                 `json:"type"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// ExecuteRunMessage rides the EXECUTE_RUN topic from the API to the worker.
// Generation guards against superseded executions after confirm/rerun.
type ExecuteRunMessage struct {
	RunId      uuid.UUID `json:"run_id"`
	FromStep   int       `json:"from_step"`
	Generation int       `json:"generation"`
}
