package interactions

import (
	"context"
	"fmt"
	"strings"

	"GoTrackerAI/app/storage"
)

const (
	// DefaultApprovalKeyword advances the script to the next interaction
	// when it appears anywhere in a human comment.
	DefaultApprovalKeyword = "aceito"

	// DefaultRejectionKeyword triggers the replay flow instead of the
	// normal advancement logic.
	DefaultRejectionKeyword = "recuso"
)

// StateMachine decides which scripted step a work-item conversation runs
// next. It holds no state of its own; the cursor is re-derived from storage
// on every call.
type StateMachine struct {
	store           storage.Interface
	approvalKeyword string
}

func NewStateMachine(store storage.Interface, approvalKeyword string) *StateMachine {
	if approvalKeyword == "" {
		approvalKeyword = DefaultApprovalKeyword
	}
	return &StateMachine{store: store, approvalKeyword: strings.ToLower(approvalKeyword)}
}

// IsApproval reports whether the comment contains the approval keyword.
// Pure substring match, case-insensitive.
func (s *StateMachine) IsApproval(comment string) bool {
	return strings.Contains(strings.ToLower(comment), s.approvalKeyword)
}

// NextStep resolves the script step to execute for the incoming comment.
// A nil step with a nil error means the script is exhausted for this work
// item; the caller must treat that as a successful no-op.
func (s *StateMachine) NextStep(ctx context.Context, workItemID, comment string) (*storage.ScriptStep, error) {
	cursor, err := s.store.LatestCursor(ctx, workItemID)
	if err != nil {
		return nil, fmt.Errorf("cursor for %s: %w", workItemID, err)
	}

	interaction, order := 1, 0
	if cursor != nil {
		interaction, order = cursor.Interaction, cursor.InteractionOrder
		if s.IsApproval(comment) {
			// Approval moves to the head row of the next interaction.
			head, err := s.store.FirstStep(ctx, interaction+1)
			if err != nil {
				return nil, fmt.Errorf("head step of interaction %d: %w", interaction+1, err)
			}
			return head, nil
		}
	}

	step, err := s.store.StepAt(ctx, interaction, order+1)
	if err != nil {
		return nil, fmt.Errorf("step (%d,%d): %w", interaction, order+1, err)
	}
	return step, nil
}
