package hub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/lastwargame/pvp-backend/internal/catalog"
	"github.com/lastwargame/pvp-backend/internal/session"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewHub(ctx, &catalog.Catalog{}, session.Defaults(), zaptest.NewLogger(t))
}

func getSession(t *testing.T, h *Hub, code string) *session.Session {
	t.Helper()
	reply := make(chan *session.Session, 1)
	h.Inbox() <- GetSession{Code: code, Reply: reply}
	select {
	case s := <-reply:
		return s
	case <-time.After(time.Second):
		t.Fatalf("timed out looking up %s", code)
		return nil // unreachable
	}
}

func ensureSession(t *testing.T, h *Hub, code string) *session.Session {
	t.Helper()
	reply := make(chan *session.Session, 1)
	h.Inbox() <- EnsureSession{Code: code, Reply: reply}
	select {
	case s := <-reply:
		return s
	case <-time.After(time.Second):
		t.Fatalf("timed out ensuring %s", code)
		return nil // unreachable
	}
}

func TestEnsureSession_Idempotent(t *testing.T) {
	h := newTestHub(t)

	first := ensureSession(t, h, "ABC123")
	second := ensureSession(t, h, "ABC123")

	require.NotNil(t, first)
	assert.Same(t, first, second, "same code must resolve to the same session")
	assert.Same(t, first, getSession(t, h, "ABC123"))
}

func TestGetSession_UnknownCodeIsNil(t *testing.T) {
	h := newTestHub(t)

	assert.Nil(t, getSession(t, h, "NOPE42"))
}

func TestDisposedSessionUnregistersItself(t *testing.T) {
	h := newTestHub(t)

	s := ensureSession(t, h, "ABC123")
	require.True(t, s.Deliver(session.Shutdown{}))

	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatalf("session did not dispose")
	}

	require.Eventually(t, func() bool {
		reply := make(chan *session.Session, 1)
		h.Inbox() <- GetSession{Code: "ABC123", Reply: reply}
		return <-reply == nil
	}, time.Second, 10*time.Millisecond, "disposed session still registered")

	// A new session under the same code is a fresh one.
	assert.NotSame(t, s, ensureSession(t, h, "ABC123"))
}

func TestShutdownHub_DisposesAllSessions(t *testing.T) {
	h := newTestHub(t)

	s1 := ensureSession(t, h, "ABC123")
	s2 := ensureSession(t, h, "DEF456")

	h.Inbox() <- ShutdownHub{}

	for _, s := range []*session.Session{s1, s2} {
		select {
		case <-s.Done():
		case <-time.After(time.Second):
			t.Fatalf("session %s survived hub shutdown", s.ID())
		}
	}
}
