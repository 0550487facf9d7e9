package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/login-telemetry/internal/event"
	"github.com/upb/login-telemetry/services/notify"
	"github.com/upb/login-telemetry/store"
	"go.uber.org/zap"
)

// memStore records appended records in memory and can be forced to fail.
type memStore struct {
	records  []map[string]any
	failWith error
}

func (m *memStore) Append(ctx context.Context, record map[string]any) error {
	if m.failWith != nil {
		return m.failWith
	}
	m.records = append(m.records, record)
	return nil
}

func (m *memStore) Close() error { return nil }

// stubNotifier captures the dispatched record and returns a fixed result.
type stubNotifier struct {
	dispatched map[string]any
	result     notify.Result
}

func (n *stubNotifier) Dispatch(ctx context.Context, record map[string]any) notify.Result {
	n.dispatched = record
	return n.result
}

var now = time.Date(2026, 8, 23, 14, 30, 0, 0, time.UTC)

func TestIngest(t *testing.T) {
	t.Run("valid event runs the full pipeline", func(t *testing.T) {
		st := &memStore{}
		nt := &stubNotifier{}
		svc := NewService(st, nt, zap.NewNop())

		res := svc.Ingest(context.Background(), map[string]any{
			"username": "ray",
			"token":    "secret123",
			"device": map[string]any{
				"screen": map[string]any{"width": float64(2560), "height": float64(1600)},
			},
		}, "203.0.113.9", now)

		assert.Equal(t, StateNotified, res.State)
		require.Len(t, st.records, 1)

		record := st.records[0]
		assert.Equal(t, "ray", record["username"])
		assert.Equal(t, event.RedactionMarker, record["token"])
		assert.Equal(t, "203.0.113.9", record["ip"])
		assert.Equal(t, "2026-08-23T14:30:00Z", record["timestamp"])

		// The notifier sees exactly the persisted record.
		assert.Equal(t, record, nt.dispatched)
	})

	t.Run("invalid event is rejected before any side effect", func(t *testing.T) {
		st := &memStore{}
		nt := &stubNotifier{}
		svc := NewService(st, nt, zap.NewNop())

		res := svc.Ingest(context.Background(), map[string]any{
			"username": "",
			"password": "x",
		}, "203.0.113.9", now)

		assert.Equal(t, StateRejectedInvalid, res.State)
		assert.Contains(t, res.ValidationErrors, "username must be a non-empty string")
		assert.Empty(t, st.records)
		assert.Nil(t, nt.dispatched)
	})

	t.Run("persistence failure is terminal and skips notification", func(t *testing.T) {
		st := &memStore{failWith: &store.PersistenceError{Err: errors.New("disk full")}}
		nt := &stubNotifier{}
		svc := NewService(st, nt, zap.NewNop())

		res := svc.Ingest(context.Background(), map[string]any{"username": "ray"}, "203.0.113.9", now)

		assert.Equal(t, StateFailed, res.State)
		assert.Error(t, res.Err)
		assert.Nil(t, nt.dispatched)
	})

	t.Run("notification failure does not change the persisted outcome", func(t *testing.T) {
		st := &memStore{}
		nt := &stubNotifier{result: notify.Result{
			Discord: notify.ChannelResult{Attempted: true, Err: errors.New("webhook down")},
		}}
		svc := NewService(st, nt, zap.NewNop())

		res := svc.Ingest(context.Background(), map[string]any{"username": "ray"}, "203.0.113.9", now)

		assert.Equal(t, StateNotified, res.State)
		assert.Len(t, st.records, 1)
		assert.Error(t, res.Notifications.Discord.Err)
	})

	t.Run("nil notifier stops at persisted", func(t *testing.T) {
		st := &memStore{}
		svc := NewService(st, nil, zap.NewNop())

		res := svc.Ingest(context.Background(), map[string]any{"username": "ray"}, "203.0.113.9", now)

		assert.Equal(t, StatePersisted, res.State)
		assert.Len(t, st.records, 1)
	})
}
