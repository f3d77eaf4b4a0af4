package audit

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(buf *bytes.Buffer) *AuditLogger {
	a := NewAuditLoggerTo(log.New(buf, "", 0))
	a.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return a
}

func lastEvent(t *testing.T, buf *bytes.Buffer) Event {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	line := lines[len(lines)-1]
	require.True(t, strings.HasPrefix(line, "AUDIT: "))

	var event Event
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "AUDIT: ")), &event))
	return event
}

func TestAuditLogger(t *testing.T) {
	var buf bytes.Buffer
	a := newTestLogger(&buf)

	t.Run("debit", func(t *testing.T) {
		a.LogDebit("req-1", "user-1", 6)
		event := lastEvent(t, &buf)
		assert.Equal(t, EventDebit, event.EventType)
		assert.Equal(t, -1, event.Amount)
		assert.Equal(t, 6, event.Balance)
		assert.Equal(t, "req-1", event.Reference)
	})

	t.Run("refund", func(t *testing.T) {
		a.LogRefund("req-1", "user-1", 7, "malformed_output")
		event := lastEvent(t, &buf)
		assert.Equal(t, EventRefund, event.EventType)
		assert.Equal(t, map[string]any{"reason": "malformed_output"}, event.Details)
	})

	t.Run("duplicate purchase", func(t *testing.T) {
		a.LogPurchase("tok-1", "user-1", 15, 22, true)
		event := lastEvent(t, &buf)
		assert.Equal(t, EventPurchaseDuplicate, event.EventType)
		assert.Equal(t, 0, event.Amount)
		assert.Equal(t, "SKIPPED", event.Status)
	})

	t.Run("error", func(t *testing.T) {
		a.LogError("req-2", "user-2", errors.New("connection reset"))
		event := lastEvent(t, &buf)
		assert.Equal(t, "FAILED", event.Status)
		assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), event.Timestamp)
	})
}
