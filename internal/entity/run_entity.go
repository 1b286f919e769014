package entity

import (
	"time"

	"github.com/google/uuid"
)

type Run struct {
	Id          uuid.UUID
	Query       string
	Status      string
	CurrentStep int
	Generation  int
	Error       *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Step struct {
	Id         uuid.UUID
	RunId      uuid.UUID
	Index      int
	Status     string
	InputHash  *string
	Output     map[string]interface{}
	StartedAt  *time.Time
	FinishedAt *time.Time
	Error      *string
}

type Subtask struct {
	Id        uuid.UUID
	RunId     uuid.UUID
	Name      string
	Order     int
	Confirmed bool
}
