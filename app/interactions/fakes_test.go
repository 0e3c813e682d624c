package interactions

import (
	"context"
	"fmt"
	"sync"

	"GoTrackerAI/app/models"
	"GoTrackerAI/app/storage"
	"GoTrackerAI/app/trackers"
)

type stepKey struct {
	interaction int
	order       int
}

// memoryStore is an in-memory storage.Interface with the same cursor
// semantics as the SQLite implementation.
type memoryStore struct {
	mu       sync.Mutex
	nextID   int64
	messages []storage.Message
	steps    map[stepKey]storage.ScriptStep
	items    []storage.WorkItem
	creds    map[string]storage.Credential
	logs     []storage.EventLog

	failSaveMessage bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		steps: make(map[stepKey]storage.ScriptStep),
		creds: make(map[string]storage.Credential),
	}
}

func (s *memoryStore) SaveMessage(_ context.Context, msg storage.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSaveMessage {
		return fmt.Errorf("save message: disk full")
	}
	s.nextID++
	msg.ID = s.nextID
	s.messages = append(s.messages, msg)
	return nil
}

func (s *memoryStore) MessagesByWorkItem(_ context.Context, workItemID string) ([]storage.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []storage.Message
	for _, m := range s.messages {
		if m.WorkItemID == workItemID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *memoryStore) LatestCursor(_ context.Context, workItemID string) (*storage.Cursor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *storage.Message
	for i := range s.messages {
		m := &s.messages[i]
		if m.WorkItemID != workItemID || m.Sender != storage.SenderAssistant {
			continue
		}
		if latest == nil ||
			m.Interaction > latest.Interaction ||
			(m.Interaction == latest.Interaction && m.InteractionOrder > latest.InteractionOrder) ||
			(m.Interaction == latest.Interaction && m.InteractionOrder == latest.InteractionOrder && m.ID > latest.ID) {
			latest = m
		}
	}
	if latest == nil {
		return nil, nil
	}
	cursor := &storage.Cursor{Interaction: latest.Interaction, InteractionOrder: latest.InteractionOrder}
	if step, ok := s.steps[stepKey{latest.Interaction, latest.InteractionOrder}]; ok {
		cursor.IsFinal = step.IsFinal
	}
	return cursor, nil
}

func (s *memoryStore) StepAt(_ context.Context, interaction, order int) (*storage.ScriptStep, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if step, ok := s.steps[stepKey{interaction, order}]; ok {
		return &step, nil
	}
	return nil, nil
}

func (s *memoryStore) FirstStep(_ context.Context, interaction int) (*storage.ScriptStep, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var head *storage.ScriptStep
	for key, step := range s.steps {
		if key.interaction != interaction {
			continue
		}
		if head == nil || step.InteractionOrder < head.InteractionOrder {
			copied := step
			head = &copied
		}
	}
	return head, nil
}

func (s *memoryStore) SaveScriptStep(_ context.Context, step storage.ScriptStep) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps[stepKey{step.Interaction, step.InteractionOrder}] = step
	return nil
}

func (s *memoryStore) SaveWorkItem(_ context.Context, item storage.WorkItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, item)
	return nil
}

func (s *memoryStore) CredentialFor(_ context.Context, projectKey, baseURL string) (*storage.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cred, ok := s.creds[projectKey+"|"+baseURL]; ok {
		return &cred, nil
	}
	return nil, fmt.Errorf("no credential for project %s", projectKey)
}

func (s *memoryStore) SaveCredential(_ context.Context, cred storage.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[cred.ProjectKey+"|"+cred.BaseURL] = cred
	return nil
}

func (s *memoryStore) SaveEventLog(_ context.Context, entry storage.EventLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, entry)
	return nil
}

func (s *memoryStore) RecentEventLogs(_ context.Context, limit int) ([]storage.EventLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit > len(s.logs) {
		limit = len(s.logs)
	}
	out := make([]storage.EventLog, limit)
	copy(out, s.logs[len(s.logs)-limit:])
	return out, nil
}

var _ storage.Interface = &memoryStore{}

type fakeModel struct {
	replies []string
	err     error

	calls [][]models.Message
}

func (f *fakeModel) Chat(_ context.Context, msgs []models.Message) (string, error) {
	f.calls = append(f.calls, msgs)
	if f.err != nil {
		return "", f.err
	}
	reply := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return reply, nil
}

type fakeTracker struct {
	comments   []string
	commentErr error
	subItems   []trackers.SubItem
	subItemErr error
}

func (f *fakeTracker) AddComment(_ context.Context, _ trackers.ItemRef, text string) error {
	if f.commentErr != nil {
		return f.commentErr
	}
	f.comments = append(f.comments, text)
	return nil
}

func (f *fakeTracker) CreateSubItem(_ context.Context, _ trackers.ItemRef, item trackers.SubItem) error {
	if f.subItemErr != nil {
		return f.subItemErr
	}
	f.subItems = append(f.subItems, item)
	return nil
}
