package interactions

import (
	"context"
	"fmt"
)

// rejectionPrompt replaces the human rejection comment before the round
// is replayed.
const rejectionPrompt = "Recuso. Faça uma nova sugestão."

// ProcessRejection replays the current round with an explicit new-suggestion
// instruction. The cursor is never advanced and the round is never final,
// so the outcome is always a fresh comment.
func (o *Orchestrator) ProcessRejection(ctx context.Context, ev Event) error {
	cursor, err := o.store.LatestCursor(ctx, ev.WorkItemID)
	if err != nil {
		return fmt.Errorf("cursor for %s: %w", ev.WorkItemID, err)
	}

	interaction, order := 1, 1
	if cursor != nil {
		interaction, order = cursor.Interaction, cursor.InteractionOrder
	}

	reply, err := o.runRound(ctx, ev.WorkItemID, rejectionPrompt, interaction, order)
	if err != nil {
		return err
	}

	if err := o.tracker.AddComment(ctx, ev.ref(), reply); err != nil {
		return fmt.Errorf("comment on %s: %w", ev.WorkItemID, err)
	}
	o.logf("✅ Rejection round replayed on work item %s", ev.WorkItemID)
	return nil
}
