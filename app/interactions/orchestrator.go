package interactions

import (
	"context"
	"fmt"
	"log"
	"time"

	"GoTrackerAI/app/models"
	"GoTrackerAI/app/storage"
	"GoTrackerAI/app/trackers"
	"GoTrackerAI/app/utils"
)

// Orchestrator runs one conversation round end to end: resolve the next
// scripted step, persist the user turn, request a completion over the full
// history, persist the assistant turn, and route the result back to the
// originating tracker.
type Orchestrator struct {
	store   storage.Interface
	model   models.Interface
	tracker trackers.Interface
	state   *StateMachine
	logger  *utils.AuditLogger
}

func NewOrchestrator(store storage.Interface, model models.Interface,
	tracker trackers.Interface, state *StateMachine, logger *utils.AuditLogger) *Orchestrator {
	return &Orchestrator{
		store:   store,
		model:   model,
		tracker: tracker,
		state:   state,
		logger:  logger,
	}
}

func (o *Orchestrator) logf(format string, v ...any) {
	if o.logger != nil {
		o.logger.Printf(format, v...)
		return
	}
	log.Printf(format, v...)
}

// ProcessComment handles a human comment on a known work item. An exhausted
// script is a silent success; every other failure aborts the remainder of
// the round without retry.
func (o *Orchestrator) ProcessComment(ctx context.Context, ev Event) error {
	step, err := o.state.NextStep(ctx, ev.WorkItemID, ev.Comment)
	if err != nil {
		return fmt.Errorf("resolve step for %s: %w", ev.WorkItemID, err)
	}
	if step == nil {
		o.logf("⚠️ Script exhausted for work item %s, nothing to do", ev.WorkItemID)
		return nil
	}

	reply, err := o.runRound(ctx, ev.WorkItemID, step.Prompt, step.Interaction, step.InteractionOrder)
	if err != nil {
		return err
	}

	if !step.IsFinal {
		if err := o.tracker.AddComment(ctx, ev.ref(), reply); err != nil {
			return fmt.Errorf("comment on %s: %w", ev.WorkItemID, err)
		}
		o.logf("✅ Round (%d,%d) commented on work item %s", step.Interaction, step.InteractionOrder, ev.WorkItemID)
		return nil
	}

	payloads, err := ParseTaskPayloads(reply)
	if err != nil {
		// Parse failures end the round with zero created tasks.
		o.logf("❌ Final reply for %s is not a task list: %v", ev.WorkItemID, err)
		return nil
	}
	for _, payload := range payloads {
		item := trackers.SubItem{Title: payload.Title, Description: payload.Description}
		if err := o.tracker.CreateSubItem(ctx, ev.ref(), item); err != nil {
			o.logf("❌ Could not create sub-task %q under %s: %v", payload.Title, ev.WorkItemID, err)
			continue
		}
		o.logf("✅ Sub-task %q created under work item %s", payload.Title, ev.WorkItemID)
	}
	return nil
}

// ProcessWorkItem handles an item-created event: snapshot the item, then
// run the first scripted step with the item description appended to the
// prompt. The opening round never creates sub-tasks.
func (o *Orchestrator) ProcessWorkItem(ctx context.Context, ev Event) error {
	snapshot := storage.WorkItem{
		WorkItemID:  ev.WorkItemID,
		Title:       ev.Title,
		Description: ev.Description,
		Type:        ev.ItemType,
		CreatedAt:   time.Now(),
	}
	if err := o.store.SaveWorkItem(ctx, snapshot); err != nil {
		return fmt.Errorf("save work item %s: %w", ev.WorkItemID, err)
	}

	step, err := o.store.StepAt(ctx, 1, 1)
	if err != nil {
		return fmt.Errorf("opening step: %w", err)
	}
	if step == nil {
		o.logf("⚠️ No opening script step configured, skipping work item %s", ev.WorkItemID)
		return nil
	}

	prompt := step.Prompt + " " + ev.Description
	reply, err := o.runRound(ctx, ev.WorkItemID, prompt, step.Interaction, step.InteractionOrder)
	if err != nil {
		return err
	}

	if err := o.tracker.AddComment(ctx, ev.ref(), reply); err != nil {
		return fmt.Errorf("comment on %s: %w", ev.WorkItemID, err)
	}
	o.logf("✅ Opening round commented on work item %s", ev.WorkItemID)
	return nil
}

// runRound is the shared persist, complete, persist sequence. The user
// message stays committed even when a later stage fails.
func (o *Orchestrator) runRound(ctx context.Context, workItemID, prompt string, interaction, order int) (string, error) {
	userMsg := storage.Message{
		WorkItemID:       workItemID,
		Sender:           storage.SenderUser,
		Message:          prompt,
		Interaction:      interaction,
		InteractionOrder: order,
		CreatedAt:        time.Now(),
	}
	if err := o.store.SaveMessage(ctx, userMsg); err != nil {
		return "", fmt.Errorf("persist user turn for %s: %w", workItemID, err)
	}

	history, err := o.store.MessagesByWorkItem(ctx, workItemID)
	if err != nil {
		return "", fmt.Errorf("load history for %s: %w", workItemID, err)
	}

	reply, err := o.model.Chat(ctx, toModelMessages(history))
	if err != nil {
		return "", fmt.Errorf("completion for %s: %w", workItemID, err)
	}

	assistantMsg := storage.Message{
		WorkItemID:       workItemID,
		Sender:           storage.SenderAssistant,
		Message:          reply,
		Interaction:      interaction,
		InteractionOrder: order,
		CreatedAt:        time.Now(),
	}
	if err := o.store.SaveMessage(ctx, assistantMsg); err != nil {
		return "", fmt.Errorf("persist assistant turn for %s: %w", workItemID, err)
	}
	return reply, nil
}

func toModelMessages(history []storage.Message) []models.Message {
	msgs := make([]models.Message, 0, len(history))
	for _, m := range history {
		role := models.RoleUser
		if m.Sender == storage.SenderAssistant {
			role = models.RoleAssistant
		}
		msgs = append(msgs, models.Message{Role: role, Content: m.Message})
	}
	return msgs
}
