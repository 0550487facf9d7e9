package ingest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/upb/login-telemetry/internal/event"
	"github.com/upb/login-telemetry/services/notify"
	"github.com/upb/login-telemetry/store"
	"go.uber.org/zap"
)

// State identifies a stage of the ingestion pipeline. Transitions are
// linear with no retries; the Rejected* and Failed states are terminal.
type State string

const (
	StateReceived          State = "received"
	StateValidated         State = "validated"
	StateRedacted          State = "redacted"
	StateEnriched          State = "enriched"
	StatePersisted         State = "persisted"
	StateNotified          State = "notified"
	StateRejectedEmpty     State = "rejected_empty"
	StateRejectedMalformed State = "rejected_malformed"
	StateRejectedInvalid   State = "rejected_invalid"
	StateFailed            State = "failed"
)

// Notifier dispatches a persisted record to the outbound channels.
type Notifier interface {
	Dispatch(ctx context.Context, record map[string]any) notify.Result
}

// Result is the terminal outcome of one pipeline run.
type Result struct {
	State            State
	ValidationErrors []string
	Record           map[string]any
	Notifications    notify.Result
	Err              error
}

// Service sequences validation, redaction, enrichment, persistence and
// notification for each ingestion request.
type Service struct {
	store    store.Store
	notifier Notifier
	logger   *zap.Logger
}

// NewService creates the pipeline coordinator.
func NewService(st store.Store, notifier Notifier, logger *zap.Logger) *Service {
	return &Service{
		store:    st,
		notifier: notifier,
		logger:   logger,
	}
}

// Ingest runs one already-decoded event through the pipeline. The caller
// supplies the client address and the capture time, both taken once per
// request. Notification outcomes are recorded in the result but never
// change a state already reached through persistence.
func (s *Service) Ingest(ctx context.Context, payload any, ip string, now time.Time) *Result {
	log := s.logger.With(zap.String("ingest_id", uuid.NewString()))
	res := &Result{State: StateReceived}

	valid, errs := event.Validate(payload)
	if !valid {
		res.State = StateRejectedInvalid
		res.ValidationErrors = errs
		log.Info("login event rejected",
			zap.String("ip", ip),
			zap.Strings("errors", errs))
		return res
	}
	res.State = StateValidated

	// Validate guarantees the payload is an object.
	redacted := event.Redact(payload).(map[string]any)
	res.State = StateRedacted

	record := event.Enrich(redacted, ip, now)
	res.State = StateEnriched

	if err := s.store.Append(ctx, record); err != nil {
		res.State = StateFailed
		res.Err = err
		log.Error("failed to persist login record",
			zap.String("ip", ip),
			zap.Error(err))
		return res
	}
	res.State = StatePersisted
	res.Record = record
	log.Info("login record persisted", zap.String("ip", ip))

	if s.notifier != nil {
		res.Notifications = s.notifier.Dispatch(ctx, record)
		res.State = StateNotified
	}

	return res
}
