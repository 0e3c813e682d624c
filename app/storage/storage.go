package storage

import (
	"context"
	"time"
)

const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
)

type Interface interface {
	SaveMessage(ctx context.Context, msg Message) error
	MessagesByWorkItem(ctx context.Context, workItemID string) ([]Message, error)
	LatestCursor(ctx context.Context, workItemID string) (*Cursor, error)
	StepAt(ctx context.Context, interaction, order int) (*ScriptStep, error)
	FirstStep(ctx context.Context, interaction int) (*ScriptStep, error)
	SaveScriptStep(ctx context.Context, step ScriptStep) error
	SaveWorkItem(ctx context.Context, item WorkItem) error
	CredentialFor(ctx context.Context, projectKey, baseURL string) (*Credential, error)
	SaveCredential(ctx context.Context, cred Credential) error
	SaveEventLog(ctx context.Context, entry EventLog) error
	RecentEventLogs(ctx context.Context, limit int) ([]EventLog, error)
}

// Message is one turn of a work-item conversation. Rows are append-only;
// the insertion id defines the history order sent to the completion service.
type Message struct {
	ID               int64     `json:"id" db:"id"`
	WorkItemID       string    `json:"id_workitem" db:"id_workitem"`
	Sender           string    `json:"sender" db:"sender"`
	Message          string    `json:"message" db:"message"`
	Interaction      int       `json:"interaction" db:"interaction"`
	InteractionOrder int       `json:"interaction_order" db:"interaction_order"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// ScriptStep is one row of the operator-managed interaction script.
type ScriptStep struct {
	Interaction      int    `json:"interaction" db:"interaction"`
	InteractionOrder int    `json:"interaction_order" db:"interaction_order"`
	Prompt           string `json:"prompt" db:"prompt"`
	IsFinal          bool   `json:"is_final" db:"is_final"`
}

// Cursor is the latest logged round for a work item: the newest assistant
// message joined against the script step it belongs to.
type Cursor struct {
	Interaction      int
	InteractionOrder int
	IsFinal          bool
}

type WorkItem struct {
	WorkItemID  string    `json:"id_workitem" db:"id_workitem"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Type        string    `json:"type" db:"type"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Credential holds the Jira access data for one project, keyed by the
// issue-key prefix plus the tracker base URL.
type Credential struct {
	ProjectKey string `json:"project_key" db:"project_key"`
	BaseURL    string `json:"url" db:"url"`
	Email      string `json:"email" db:"email"`
	APIToken   string `json:"pat_token" db:"pat_token"`
}

type EventLog struct {
	ID        int64     `json:"id" db:"id"`
	Level     string    `json:"level" db:"level"`
	Message   string    `json:"message" db:"message"`
	Context   string    `json:"context" db:"context"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
