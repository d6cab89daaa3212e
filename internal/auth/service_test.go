package auth

import (
	"context"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/libroteca/libroteca/internal/shared"
)

type stubRepo struct {
	usersByEmail map[string]*User
	nextID       int64
	sessions     map[string]int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		usersByEmail: make(map[string]*User),
		nextID:       1,
		sessions:     make(map[string]int64),
	}
}

func (r *stubRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	u, ok := r.usersByEmail[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (r *stubRepo) CreateUser(ctx context.Context, email, username, passwordHash string) (*User, error) {
	if _, ok := r.usersByEmail[email]; ok {
		return nil, shared.ErrDuplicate
	}
	u := &User{ID: r.nextID, Email: email, Username: username, PasswordHash: passwordHash, Role: "reader", IsActive: true}
	r.nextID++
	r.usersByEmail[email] = u
	return u, nil
}

func (r *stubRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	r.sessions[id] = userID
	return nil
}

func (r *stubRepo) DeleteSession(ctx context.Context, id string) error {
	delete(r.sessions, id)
	return nil
}

func TestRegisterHashesPassword(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)

	user, err := svc.Register(context.Background(), "ada@example.com", "ada", "correct horse")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.PasswordHash == "correct horse" {
		t.Fatal("password stored in clear")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct horse")); err != nil {
		t.Fatalf("hash does not verify: %v", err)
	}
	if user.Role != "reader" {
		t.Fatalf("role = %q, want reader", user.Role)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)

	if _, err := svc.Register(context.Background(), "ada@example.com", "ada", "password-one"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := svc.Register(context.Background(), "ada@example.com", "ada2", "password-two")
	if err != shared.ErrDuplicate {
		t.Fatalf("err = %v, want ErrDuplicate", err)
	}
}

func TestAuthenticate(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)
	if _, err := svc.Register(context.Background(), "ada@example.com", "ada", "open sesame"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	user, err := svc.Authenticate(context.Background(), "ada@example.com", "open sesame")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Email != "ada@example.com" {
		t.Fatalf("email = %q", user.Email)
	}

	if _, err := svc.Authenticate(context.Background(), "ada@example.com", "wrong"); err != shared.ErrInvalidCredentials {
		t.Fatalf("wrong password: err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Authenticate(context.Background(), "ghost@example.com", "open sesame"); err != shared.ErrInvalidCredentials {
		t.Fatalf("unknown email: err = %v, want ErrInvalidCredentials", err)
	}
}

func TestAuthenticateDeactivatedAccount(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)
	user, err := svc.Register(context.Background(), "ada@example.com", "ada", "open sesame")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	user.IsActive = false

	if _, err := svc.Authenticate(context.Background(), "ada@example.com", "open sesame"); err != ErrUserBlocked {
		t.Fatalf("err = %v, want ErrUserBlocked", err)
	}
}

func TestAuthenticateBlockedAccountMayLogIn(t *testing.T) {
	// Blocked accounts authenticate; the request gate denies them afterwards
	// on every protected endpoint.
	repo := newStubRepo()
	svc := NewService(repo)
	user, err := svc.Register(context.Background(), "ada@example.com", "ada", "open sesame")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	user.IsBlocked = true

	got, err := svc.Authenticate(context.Background(), "ada@example.com", "open sesame")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.IsBlocked {
		t.Fatal("expected the blocked flag to survive authentication")
	}
}

func TestSessionLifecycle(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)

	expires := time.Now().Add(time.Hour)
	if err := svc.RegisterSession(context.Background(), "sess-1", 7, expires, "203.0.113.1", "test-agent"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.sessions["sess-1"] != 7 {
		t.Fatalf("session not recorded: %v", repo.sessions)
	}
	if err := svc.RemoveSession(context.Background(), "sess-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := repo.sessions["sess-1"]; ok {
		t.Fatal("session not removed")
	}
}
