package audit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
)

// fakeTx satisfies pgx.Tx for the single QueryRow call the auditor makes.
type fakeTx struct {
	pgx.Tx
	sql    string
	args   []any
	id     int64
	err    error
	called bool
}

type fakeRow struct {
	id  int64
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) == 1 {
		if p, ok := dest[0].(*int64); ok {
			*p = r.id
		}
	}
	return nil
}

func (tx *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	tx.called = true
	tx.sql = sql
	tx.args = args
	return fakeRow{id: tx.id, err: tx.err}
}

func TestAuditorRejectsIncompleteEntries(t *testing.T) {
	a := NewAuditor()
	tx := &fakeTx{}

	_, err := a.Log(context.Background(), tx, Entry{Action: ActionUserBlock, TargetType: "user"})
	if err == nil {
		t.Fatal("entry without admin id must be rejected")
	}
	_, err = a.Log(context.Background(), tx, Entry{AdminID: 1, TargetType: "user"})
	if err == nil {
		t.Fatal("entry without action must be rejected")
	}
	if tx.called {
		t.Fatal("invalid entries must never reach the database")
	}
}

func TestAuditorWritesEntryOnCallersTransaction(t *testing.T) {
	a := NewAuditor()
	tx := &fakeTx{id: 77}

	targetID := int64(42)
	entry := Entry{
		AdminID:    1,
		Action:     ActionUserRoleChange,
		TargetType: "user",
		TargetID:   &targetID,
		Details:    map[string]any{"old_role": "reader", "new_role": "moderator"},
	}
	entry.RequestInfo(httptest.NewRequest("PATCH", "/admin/users/42/role", nil), "admin.users.update_role")

	id, err := a.Log(context.Background(), tx, entry)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 77 {
		t.Fatalf("id = %d, want 77", id)
	}
	if !tx.called {
		t.Fatal("expected insert on the provided transaction")
	}

	// Details are serialized as JSON with the before/after pair.
	var details map[string]any
	raw, ok := tx.args[9].([]byte)
	if !ok {
		t.Fatalf("details arg type %T", tx.args[9])
	}
	if err := json.Unmarshal(raw, &details); err != nil {
		t.Fatalf("details not valid JSON: %v", err)
	}
	if details["old_role"] != "reader" || details["new_role"] != "moderator" {
		t.Fatalf("details = %v", details)
	}
}

func TestAuditorPropagatesWriteFailure(t *testing.T) {
	a := NewAuditor()
	tx := &fakeTx{err: errors.New("insert failed")}

	_, err := a.Log(context.Background(), tx, Entry{
		AdminID:    1,
		Action:     ActionUserBlock,
		TargetType: "user",
	})
	if err == nil {
		t.Fatal("write failure must propagate so the mutation rolls back")
	}
}
