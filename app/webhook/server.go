package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"GoTrackerAI/app/dispatch"
	"GoTrackerAI/app/interactions"
	"GoTrackerAI/app/sessions"
	"GoTrackerAI/app/storage"
	"GoTrackerAI/app/trackers"
	"GoTrackerAI/app/utils"
)

const azureCommentEventType = "workitem.commented"
const jiraCommentEventType = "comment_created"

// Processor runs one conversation round for an accepted delivery.
// Satisfied by interactions.Orchestrator.
type Processor interface {
	ProcessComment(ctx context.Context, ev interactions.Event) error
	ProcessWorkItem(ctx context.Context, ev interactions.Event) error
	ProcessRejection(ctx context.Context, ev interactions.Event) error
}

// EventLogStore is the slice of storage the HTTP layer needs; satisfied by
// storage.Interface.
type EventLogStore interface {
	SaveEventLog(ctx context.Context, entry storage.EventLog) error
	RecentEventLogs(ctx context.Context, limit int) ([]storage.EventLog, error)
}

// Server validates inbound tracker webhooks, acknowledges them with 202 and
// hands the normalized event to the dispatch pool. Malformed deliveries are
// rejected with 400 before anything is persisted.
type Server struct {
	processor        Processor
	chat             *sessions.Chat
	pool             *dispatch.Pool
	store            EventLogStore
	validate         *validator.Validate
	rejectionKeyword string
	logger           *utils.AuditLogger
}

func NewServer(processor Processor, chat *sessions.Chat, pool *dispatch.Pool,
	store EventLogStore, rejectionKeyword string, logger *utils.AuditLogger) *Server {
	if rejectionKeyword == "" {
		rejectionKeyword = interactions.DefaultRejectionKeyword
	}
	return &Server{
		processor:        processor,
		chat:             chat,
		pool:             pool,
		store:            store,
		validate:         validator.New(),
		rejectionKeyword: strings.ToLower(rejectionKeyword),
		logger:           logger,
	}
}

// Handler returns the route table for the HTTP server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	handle(mux, http.MethodPost, "/webhook/workitem", s.handleAzureWorkItem)
	handle(mux, http.MethodPost, "/webhook/comment", s.handleAzureComment)
	handle(mux, http.MethodPost, "/jira/epic", s.handleJiraEpic)
	handle(mux, http.MethodPost, "/jira/comment", s.handleJiraComment)
	handle(mux, http.MethodPost, "/chat", s.handleChat)
	handle(mux, http.MethodGet, "/logs", s.handleLogs)
	return mux
}

// handle registers a route with an explicit method guard; the ServeMux in
// Go 1.21 does not support method-qualified patterns like "POST /path".
func handle(mux *http.ServeMux, method, path string, h http.HandlerFunc) {
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.Header().Set("Allow", method)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		h(w, r)
	})
}

func (s *Server) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("malformed JSON: %w", err)
	}
	if err := s.validate.Struct(dst); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func writeAccepted(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "accepted"})
}

func (s *Server) logf(format string, v ...any) {
	if s.logger != nil {
		s.logger.Printf(format, v...)
	}
}

// recordOutcome writes the round result to the event_logs table.
func (s *Server) recordOutcome(ctx context.Context, ev interactions.Event, kind string, err error) {
	entry := storage.EventLog{Level: "INFO", Message: kind + " processed"}
	if err != nil {
		entry.Level = "ERROR"
		entry.Message = kind + " failed"
	}
	detail := map[string]string{
		"delivery_id": ev.DeliveryID,
		"id_workitem": ev.WorkItemID,
	}
	if err != nil {
		detail["error_message"] = err.Error()
	}
	raw, _ := json.Marshal(detail)
	entry.Context = string(raw)
	if saveErr := s.store.SaveEventLog(ctx, entry); saveErr != nil {
		s.logf("⚠️ Could not record outcome for %s: %v", ev.WorkItemID, saveErr)
	}
	if err != nil {
		s.logf("❌ %s for work item %s: %v", kind, ev.WorkItemID, err)
	}
}

func (s *Server) submitWorkItem(ev interactions.Event) {
	err := s.pool.Submit(dispatch.Job{Key: ev.WorkItemID, Run: func(ctx context.Context) {
		s.recordOutcome(ctx, ev, "work item", s.processor.ProcessWorkItem(ctx, ev))
	}})
	if err != nil {
		s.logf("⚠️ Dropped work item %s: %v", ev.WorkItemID, err)
	}
}

func (s *Server) submitComment(ev interactions.Event) {
	rejected := strings.EqualFold(strings.TrimSpace(ev.Comment), s.rejectionKeyword)
	err := s.pool.Submit(dispatch.Job{Key: ev.WorkItemID, Run: func(ctx context.Context) {
		if rejected {
			s.recordOutcome(ctx, ev, "rejection", s.processor.ProcessRejection(ctx, ev))
			return
		}
		s.recordOutcome(ctx, ev, "comment", s.processor.ProcessComment(ctx, ev))
	}})
	if err != nil {
		s.logf("⚠️ Dropped comment for %s: %v", ev.WorkItemID, err)
	}
}

func (s *Server) handleAzureWorkItem(w http.ResponseWriter, r *http.Request) {
	var event azureItemEvent
	if err := s.decode(r, &event); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if event.Resource.Fields.Description == "" {
		writeError(w, http.StatusBadRequest, "field System.Description is required")
		return
	}

	ev := interactions.Event{
		DeliveryID:  uuid.NewString(),
		WorkItemID:  strconv.Itoa(event.Resource.ID),
		Platform:    trackers.PlatformAzureDevOps,
		Title:       event.Resource.Fields.Title,
		Description: utils.ExtractText(event.Resource.Fields.Description),
		ItemType:    event.Resource.Fields.WorkItemType,
	}
	s.logf("✅ Work item %s accepted (%s)", ev.WorkItemID, ev.DeliveryID)
	s.submitWorkItem(ev)
	writeAccepted(w)
}

func (s *Server) handleAzureComment(w http.ResponseWriter, r *http.Request) {
	var event azureCommentEvent
	if err := s.decode(r, &event); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if event.EventType != azureCommentEventType {
		writeError(w, http.StatusBadRequest, "eventType must be "+azureCommentEventType)
		return
	}
	if event.Resource.Fields.History == "" {
		writeError(w, http.StatusBadRequest, "field System.History is required")
		return
	}

	comment := utils.ExtractText(event.Resource.Fields.History)
	if strings.Contains(comment, trackers.BotCommentMarker) {
		// Our own comment echoed back; reacting would loop forever.
		writeAccepted(w)
		return
	}

	ev := interactions.Event{
		DeliveryID: uuid.NewString(),
		WorkItemID: strconv.Itoa(event.Resource.ID),
		Platform:   trackers.PlatformAzureDevOps,
		Comment:    comment,
		Title:      event.Resource.Fields.Title,
	}
	s.logf("✅ Comment on work item %s accepted (%s)", ev.WorkItemID, ev.DeliveryID)
	s.submitComment(ev)
	writeAccepted(w)
}

// jiraBaseURL reduces the issue self link to scheme plus host.
func jiraBaseURL(self string) (string, error) {
	u, err := url.Parse(self)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("issue self link %q has no scheme or host", self)
	}
	return u.Scheme + "://" + u.Host, nil
}

func (s *Server) handleJiraComment(w http.ResponseWriter, r *http.Request) {
	var event jiraCommentEvent
	if err := s.decode(r, &event); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !strings.EqualFold(event.WebhookEvent, jiraCommentEventType) {
		writeError(w, http.StatusBadRequest, "webhookEvent must be "+jiraCommentEventType)
		return
	}
	baseURL, err := jiraBaseURL(event.Issue.Self)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if strings.Contains(event.Comment.Body, trackers.BotCommentMarker) {
		writeAccepted(w)
		return
	}

	ev := interactions.Event{
		DeliveryID: uuid.NewString(),
		WorkItemID: event.Issue.Key,
		Platform:   trackers.PlatformJira,
		BaseURL:    baseURL,
		Comment:    event.Comment.Body,
	}
	s.logf("✅ Comment on issue %s accepted (%s)", ev.WorkItemID, ev.DeliveryID)
	s.submitComment(ev)
	writeAccepted(w)
}

func (s *Server) handleJiraEpic(w http.ResponseWriter, r *http.Request) {
	var event jiraEpicEvent
	if err := s.decode(r, &event); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	baseURL, err := jiraBaseURL(event.Issue.Self)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ev := interactions.Event{
		DeliveryID:  uuid.NewString(),
		WorkItemID:  event.Issue.Key,
		Platform:    trackers.PlatformJira,
		BaseURL:     baseURL,
		Title:       event.Issue.Fields.Summary,
		Description: utils.ExtractText(event.Issue.Fields.Description),
		ItemType:    "Epic",
	}
	s.logf("✅ Epic %s accepted (%s)", ev.WorkItemID, ev.DeliveryID)
	s.submitWorkItem(ev)
	writeAccepted(w)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	user := req.User
	if user == "" {
		user = "default"
	}

	reply, err := s.chat.Send(r.Context(), user, req.Message)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(chatResponse{Content: reply})
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	logs, err := s.store.RecentEventLogs(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(logs)
}
