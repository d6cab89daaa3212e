package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func testManager(t *testing.T) (*SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "libroteca_session", "secret", time.Hour, false), mr
}

func TestSessionRoundTrip(t *testing.T) {
	sm, _ := testManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	sess.Set(SessionKeyUserID, "7")
	sess.Set(SessionKeyRole, "moderator")

	rr := httptest.NewRecorder()
	if err := sm.Commit(ctx, rr, req, sess); err != nil {
		t.Fatalf("commit: %v", err)
	}
	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "libroteca_session" {
		t.Fatalf("cookies = %v", cookies)
	}

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(cookies[0])
	restored, err := sm.Load(ctx, next)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if restored.Get(SessionKeyUserID) != "7" || restored.Get(SessionKeyRole) != "moderator" {
		t.Fatalf("restored values: %q %q", restored.Get(SessionKeyUserID), restored.Get(SessionKeyRole))
	}
}

func TestSessionDestroyClearsStateAndCookie(t *testing.T) {
	sm, mr := testManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	sess.Set(SessionKeyUserID, "7")
	rr := httptest.NewRecorder()
	if err := sm.Commit(ctx, rr, req, sess); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if len(mr.Keys()) == 0 {
		t.Fatal("expected a session key in redis")
	}

	sm.Destroy(sess)
	rr = httptest.NewRecorder()
	if err := sm.Commit(ctx, rr, req, sess); err != nil {
		t.Fatalf("destroy commit: %v", err)
	}
	if len(mr.Keys()) != 0 {
		t.Fatalf("redis keys not cleared: %v", mr.Keys())
	}
	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge != -1 {
		t.Fatalf("expected expiring cookie, got %v", cookies)
	}
}

func TestSessionExpiry(t *testing.T) {
	sm, mr := testManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, _ := sm.Load(ctx, req)
	sess.Set(SessionKeyUserID, "9")
	rr := httptest.NewRecorder()
	if err := sm.Commit(ctx, rr, req, sess); err != nil {
		t.Fatalf("commit: %v", err)
	}

	mr.FastForward(2 * time.Hour)

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(rr.Result().Cookies()[0])
	restored, err := sm.Load(ctx, next)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if restored.Get(SessionKeyUserID) != "" {
		t.Fatal("expired session must come back empty")
	}
}
