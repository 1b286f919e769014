package constant

// Run lifecycle statuses.
const (
	RunStatusCreated        = "created"
	RunStatusWaitingConfirm = "waiting_confirm"
	RunStatusRunning        = "running"
	RunStatusCompleted      = "completed"
	RunStatusFailed         = "failed"
)

// Step statuses.
const (
	StepStatusPending     = "pending"
	StepStatusRunning     = "running"
	StepStatusDone        = "done"
	StepStatusInvalidated = "invalidated"
	StepStatusFailed      = "failed"
)

// Pipeline step indexes.
const (
	StepDecompose = 1
	StepRetrieve  = 2
	StepSummarize = 3
	StepFinalize  = 4
)

// Source providers (provenance tags).
const (
	ProviderVector  = "vector"
	ProviderBrave   = "brave"
	ProviderSerper  = "serper"
	ProviderExa     = "exa"
	ProviderGitHub  = "github"
	ProviderArxiv   = "arxiv"
	ProviderSnippet = "snippet" // degraded hit built from search title+description
)

// Document kinds.
const (
	DocumentKindPrompt  = "prompt"
	DocumentKindSkill   = "skill"
	DocumentKindSnippet = "snippet"
	DocumentKindWeb     = "web"
)

// Run event types.
const (
	EventRunCreated          = "run.created"
	EventRunCompleted        = "run.completed"
	EventRunFailed           = "run.failed"
	EventRerunRequested      = "rerun.requested"
	EventStepStarted         = "step.started"
	EventStepCompleted       = "step.completed"
	EventStepInvalidated     = "step.invalidated"
	EventSubtasksSuggested   = "subtasks.suggested"
	EventSubtasksConfirmed   = "subtasks.confirmed"
	EventRetrievalStarted    = "retrieval.started"
	EventRetrievalWebSearch  = "retrieval.web_search"
	EventRetrievalWebFailed  = "retrieval.web_search_failed"
	EventRetrievalCard       = "retrieval.card"
	EventRetrievalCompleted  = "retrieval.completed"
	EventSummaryGenerated    = "summary.generated"
	EventFinalAnswerChunk    = "final.answer"
	EventFinalAnswerComplete = "final.answer.done"
)
