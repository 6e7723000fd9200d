package storage

import (
	"context"
	"log/slog"

	"github.com/xilidan/lingua/gateways/web/workflow"
	"github.com/xilidan/lingua/services/transcriber/entity"
)

// Archive returns a workflow hook saving every successful generation.
// Failed runs are not archived.
func Archive(store Storage, log *slog.Logger) workflow.DoneFunc {
	return func(ctx context.Context, snap workflow.Snapshot, input entity.Input) {
		if snap.State != workflow.StateDone {
			return
		}

		rec, err := store.Save(ctx, &Record{
			SessionID:   snap.ID,
			Fingerprint: Fingerprint(input),
			Mode:        snap.Mode,
			AudioName:   snap.AudioName,
			Language:    snap.Language.ID,
			Source:      snap.Source,
			Translation: snap.Translation,
		})
		if err != nil {
			log.Error("failed to archive generation",
				slog.String("session_id", snap.ID),
				slog.String("error", err.Error()))
			return
		}

		log.Debug("generation archived",
			slog.String("session_id", snap.ID),
			slog.String("record_id", rec.ID.String()))
	}
}
