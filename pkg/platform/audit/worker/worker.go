package worker

import (
	"context"
	"log/slog"

	audit "transferdesk/pkg/platform/audit"
)

// Worker drains buffered audit events into the store and then the sinks. A failed
// write is logged and the worker moves on; the business operation has already
// committed by the time an event reaches the buffer.
type Worker struct {
	store  audit.Store
	sinks  []audit.Sink
	inbox  <-chan audit.Event
	logger *slog.Logger
}

func NewWorker(store audit.Store, inbox <-chan audit.Event, sinks []audit.Sink, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{store: store, sinks: sinks, inbox: inbox, logger: logger}
}

// Run processes events until ctx is done or the inbox is closed.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.inbox:
			if !ok {
				return nil
			}
			w.Process(ctx, event)
		}
	}
}

// Process writes one event to the store and forwards it to every sink.
func (w *Worker) Process(ctx context.Context, event audit.Event) {
	if err := w.store.Append(ctx, event); err != nil {
		w.logger.ErrorContext(ctx, "audit store append failed",
			"action", event.Action,
			"case_id", event.CaseID.String(),
			"error", err,
		)
		return
	}
	for _, sink := range w.sinks {
		if err := sink.Publish(ctx, event); err != nil {
			w.logger.WarnContext(ctx, "audit sink publish failed",
				"action", event.Action,
				"error", err,
			)
		}
	}
}
