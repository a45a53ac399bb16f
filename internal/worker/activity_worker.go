package worker

import (
	"context"
	"fmt"
	"log/slog"

	"kaslot/internal/amqp"
	"kaslot/internal/storage"
)

// ActivityRecorder stores activity log entries.
type ActivityRecorder interface {
	RecordActivity(ctx context.Context, e storage.ActivityEntry) (int64, error)
}

// ActivityWorker appends every consumed change message to the activity log.
type ActivityWorker struct {
	recorder ActivityRecorder
}

func NewActivityWorker(recorder ActivityRecorder) *ActivityWorker {
	return &ActivityWorker{recorder: recorder}
}

// HandleChange records one change. A returned error makes the consumer
// requeue the message.
func (w *ActivityWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	id, err := w.recorder.RecordActivity(ctx, storage.ActivityEntry{
		Entity:     msg.Entity,
		Action:     msg.Action,
		EntityID:   msg.ID,
		OccurredAt: msg.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("record %s %s %s: %w", msg.Entity, msg.Action, msg.ID, err)
	}

	slog.InfoContext(ctx, "Recorded change",
		"component", "worker",
		"activity_id", id,
		"entity", msg.Entity,
		"action", msg.Action,
		"id", msg.ID)
	return nil
}
