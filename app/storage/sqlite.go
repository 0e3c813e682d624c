package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const timeLayout = "2006-01-02 15:04:05"

type SQLiteStorage struct {
	db *sql.DB
}

func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db at %s: %w", dbPath, err)
	}

	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS messages (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            id_workitem TEXT NOT NULL,
            sender TEXT NOT NULL,
            message TEXT NOT NULL,
            interaction INTEGER NOT NULL DEFAULT 0,
            interaction_order INTEGER NOT NULL DEFAULT 0,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        );
        CREATE INDEX IF NOT EXISTS idx_messages_workitem ON messages (id_workitem);

        CREATE TABLE IF NOT EXISTS script_steps (
            interaction INTEGER NOT NULL,
            interaction_order INTEGER NOT NULL,
            prompt TEXT NOT NULL,
            is_final INTEGER NOT NULL DEFAULT 0,
            PRIMARY KEY (interaction, interaction_order)
        );

        CREATE TABLE IF NOT EXISTS work_items (
            id_workitem TEXT NOT NULL,
            title TEXT NOT NULL,
            description TEXT NOT NULL,
            type TEXT NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        );

        CREATE TABLE IF NOT EXISTS project_credentials (
            project_key TEXT NOT NULL,
            url TEXT NOT NULL,
            email TEXT NOT NULL,
            pat_token TEXT NOT NULL,
            PRIMARY KEY (project_key, url)
        );

        CREATE TABLE IF NOT EXISTS event_logs (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            level TEXT NOT NULL,
            message TEXT NOT NULL,
            context TEXT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        );
    `)
	if err != nil {
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) SaveMessage(ctx context.Context, msg Message) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (id_workitem, sender, message, interaction, interaction_order, created_at)
		 VALUES (?, ?, ?, ?, ?, datetime(?))`,
		msg.WorkItemID, msg.Sender, msg.Message, msg.Interaction, msg.InteractionOrder,
		msg.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		log.Printf("⚠️ Error saving message for work item %s: %v", msg.WorkItemID, err)
		return err
	}
	return nil
}

func (s *SQLiteStorage) MessagesByWorkItem(ctx context.Context, workItemID string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, id_workitem, sender, message, interaction, interaction_order, created_at
		 FROM messages
		 WHERE id_workitem = ?
		 ORDER BY id ASC`,
		workItemID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []Message
	for rows.Next() {
		var m Message
		var createdAt string
		if err = rows.Scan(&m.ID, &m.WorkItemID, &m.Sender, &m.Message, &m.Interaction, &m.InteractionOrder, &createdAt); err != nil {
			log.Printf("⚠️ Error scanning message row for work item %s: %v", workItemID, err)
			continue
		}
		m.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		history = append(history, m)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return history, nil
}

// LatestCursor returns the newest assistant round for a work item, or nil
// when the conversation has not started yet.
func (s *SQLiteStorage) LatestCursor(ctx context.Context, workItemID string) (*Cursor, error) {
	var c Cursor
	err := s.db.QueryRowContext(ctx,
		`SELECT m.interaction, m.interaction_order, COALESCE(st.is_final, 0)
		 FROM messages m
		 LEFT JOIN script_steps st
		   ON st.interaction = m.interaction AND st.interaction_order = m.interaction_order
		 WHERE m.id_workitem = ? AND m.sender = ?
		 ORDER BY m.interaction DESC, m.interaction_order DESC, m.id DESC
		 LIMIT 1`,
		workItemID, SenderAssistant,
	).Scan(&c.Interaction, &c.InteractionOrder, &c.IsFinal)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// StepAt returns the script step at exactly (interaction, order), or nil
// when the script has no such row.
func (s *SQLiteStorage) StepAt(ctx context.Context, interaction, order int) (*ScriptStep, error) {
	var step ScriptStep
	err := s.db.QueryRowContext(ctx,
		`SELECT interaction, interaction_order, prompt, is_final
		 FROM script_steps
		 WHERE interaction = ? AND interaction_order = ?`,
		interaction, order,
	).Scan(&step.Interaction, &step.InteractionOrder, &step.Prompt, &step.IsFinal)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &step, nil
}

// FirstStep returns the head row of an interaction (lowest order), or nil
// when the script has no rows for it.
func (s *SQLiteStorage) FirstStep(ctx context.Context, interaction int) (*ScriptStep, error) {
	var step ScriptStep
	err := s.db.QueryRowContext(ctx,
		`SELECT interaction, interaction_order, prompt, is_final
		 FROM script_steps
		 WHERE interaction = ?
		 ORDER BY interaction_order ASC
		 LIMIT 1`,
		interaction,
	).Scan(&step.Interaction, &step.InteractionOrder, &step.Prompt, &step.IsFinal)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &step, nil
}

func (s *SQLiteStorage) SaveScriptStep(ctx context.Context, step ScriptStep) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO script_steps (interaction, interaction_order, prompt, is_final)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (interaction, interaction_order) DO UPDATE SET prompt = excluded.prompt, is_final = excluded.is_final`,
		step.Interaction, step.InteractionOrder, step.Prompt, step.IsFinal,
	)
	return err
}

func (s *SQLiteStorage) SaveWorkItem(ctx context.Context, item WorkItem) error {
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO work_items (id_workitem, title, description, type, created_at)
		 VALUES (?, ?, ?, ?, datetime(?))`,
		item.WorkItemID, item.Title, item.Description, item.Type, item.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		log.Printf("⚠️ Error saving work item %s: %v", item.WorkItemID, err)
		return err
	}
	return nil
}

func (s *SQLiteStorage) CredentialFor(ctx context.Context, projectKey, baseURL string) (*Credential, error) {
	var cred Credential
	err := s.db.QueryRowContext(ctx,
		`SELECT project_key, url, email, pat_token
		 FROM project_credentials
		 WHERE project_key = ? AND url = ?`,
		projectKey, baseURL,
	).Scan(&cred.ProjectKey, &cred.BaseURL, &cred.Email, &cred.APIToken)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no credentials for project %s at %s", projectKey, baseURL)
	}
	if err != nil {
		return nil, err
	}
	return &cred, nil
}

func (s *SQLiteStorage) SaveCredential(ctx context.Context, cred Credential) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO project_credentials (project_key, url, email, pat_token)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (project_key, url) DO UPDATE SET email = excluded.email, pat_token = excluded.pat_token`,
		cred.ProjectKey, cred.BaseURL, cred.Email, cred.APIToken,
	)
	return err
}

func (s *SQLiteStorage) SaveEventLog(ctx context.Context, entry EventLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO event_logs (level, message, context, created_at)
		 VALUES (?, ?, ?, datetime(?))`,
		entry.Level, entry.Message, entry.Context, entry.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		log.Printf("⚠️ Error saving event log: %v", err)
		return err
	}
	return nil
}

func (s *SQLiteStorage) RecentEventLogs(ctx context.Context, limit int) ([]EventLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, level, message, COALESCE(context, ''), created_at
		 FROM event_logs
		 ORDER BY id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []EventLog
	for rows.Next() {
		var e EventLog
		var createdAt string
		if err = rows.Scan(&e.ID, &e.Level, &e.Message, &e.Context, &createdAt); err != nil {
			continue
		}
		e.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		logs = append(logs, e)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

var _ Interface = &SQLiteStorage{}
