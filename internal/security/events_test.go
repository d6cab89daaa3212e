package security

import (
	"context"
	"testing"

	"github.com/libroteca/libroteca/internal/shared"
)

func TestRecorderIsNoopInTestMode(t *testing.T) {
	t.Setenv("LIBROTECA_TEST_MODE", "1")
	shared.RefreshTestMode()
	t.Cleanup(shared.RefreshTestMode)

	// Nil pool would fail on any real write attempt; the no-op contract keeps
	// test runs clean.
	rec := NewRecorder(nil, nil)
	err := rec.Record(context.Background(), Event{
		Kind:       EventDenyForbidden,
		StatusCode: 403,
		Endpoint:   "admin.users.list",
		Group:      "admin",
		Method:     "GET",
		Path:       "/admin/users",
		IP:         "203.0.113.7",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRecorderNilPoolIsSafe(t *testing.T) {
	t.Setenv("LIBROTECA_TEST_MODE", "")
	shared.RefreshTestMode()
	t.Cleanup(shared.RefreshTestMode)

	rec := NewRecorder(nil, nil)
	if err := rec.Record(context.Background(), Event{Kind: EventRateLimited}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
