package owner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mbobrov/filebox/internal/config"
	"github.com/mbobrov/filebox/internal/folder"
	"golang.org/x/crypto/bcrypt"
)

func newTestAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		TokenSecret: "test-secret",
		TokenTTL:    time.Hour,
		BcryptCost:  bcrypt.MinCost,
	}
}

func TestRegisterCreatesRootFolderNamedAfterOwner(t *testing.T) {
	store := newFakeOwnerStore()
	service := NewService(store, newTestAuthConfig())

	o, root, err := service.Register(context.Background(), "alice", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if o.Name != "alice" {
		t.Fatalf("unexpected owner name: %s", o.Name)
	}
	if root.Name != "alice" || root.Path != "alice" {
		t.Fatalf("expected root folder named after the owner, got %+v", root)
	}
	if root.ParentID != nil {
		t.Fatalf("root folder must have no parent")
	}
	if o.PasswordHash == "hunter2hunter2" {
		t.Fatalf("password stored in the clear")
	}
}

func TestRegisterRejectsDuplicateName(t *testing.T) {
	store := newFakeOwnerStore()
	service := NewService(store, newTestAuthConfig())

	if _, _, err := service.Register(context.Background(), "alice", "hunter2hunter2"); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	_, _, err := service.Register(context.Background(), "alice", "otherpassword")
	if !errors.Is(err, ErrNameAlreadyExists) {
		t.Fatalf("expected ErrNameAlreadyExists, got %v", err)
	}
}

func TestRegisterValidatesCredentials(t *testing.T) {
	service := NewService(newFakeOwnerStore(), newTestAuthConfig())

	cases := []struct {
		name     string
		password string
	}{
		{"", "hunter2hunter2"},
		{"a/b", "hunter2hunter2"},
		{"alice", ""},
		{"alice", "short"},
	}
	for _, tc := range cases {
		_, _, err := service.Register(context.Background(), tc.name, tc.password)
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("(%q, %q): expected ErrInvalidCredentials, got %v", tc.name, tc.password, err)
		}
	}
}

func TestLoginIssuesValidatableToken(t *testing.T) {
	store := newFakeOwnerStore()
	service := NewService(store, newTestAuthConfig())

	registered, _, err := service.Register(context.Background(), "alice", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	o, token, err := service.Login(context.Background(), "alice", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if o.ID != registered.ID {
		t.Fatalf("login returned a different owner")
	}

	claims, err := service.ValidateAccessToken(token.AccessToken)
	if err != nil {
		t.Fatalf("ValidateAccessToken returned error: %v", err)
	}
	if claims.OwnerID != registered.ID || claims.Name != "alice" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	store := newFakeOwnerStore()
	service := NewService(store, newTestAuthConfig())

	if _, _, err := service.Register(context.Background(), "alice", "hunter2hunter2"); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	_, _, err := service.Login(context.Background(), "alice", "wrongpassword")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	_, _, err = service.Login(context.Background(), "nobody", "hunter2hunter2")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown owner, got %v", err)
	}
}

func TestValidateAccessTokenRejectsGarbage(t *testing.T) {
	service := NewService(newFakeOwnerStore(), newTestAuthConfig())

	for _, token := range []string{"", "   ", "not-a-jwt", "a.b.c"} {
		if _, err := service.ValidateAccessToken(token); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("token %q: expected ErrUnauthorized, got %v", token, err)
		}
	}
}

func TestValidateAccessTokenRejectsExpired(t *testing.T) {
	store := newFakeOwnerStore()
	service := NewService(store, newTestAuthConfig())

	if _, _, err := service.Register(context.Background(), "alice", "hunter2hunter2"); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	issued := time.Now().Add(-2 * time.Hour)
	service.nowFunc = func() time.Time { return issued }
	_, token, err := service.Login(context.Background(), "alice", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	service.nowFunc = time.Now
	if _, err := service.ValidateAccessToken(token.AccessToken); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}
}

// --- fakes ---

type fakeOwnerStore struct {
	byName map[string]Owner
}

func newFakeOwnerStore() *fakeOwnerStore {
	return &fakeOwnerStore{byName: make(map[string]Owner)}
}

func (f *fakeOwnerStore) CreateOwner(ctx context.Context, name, passwordHash string) (Owner, folder.Folder, error) {
	if _, exists := f.byName[name]; exists {
		return Owner{}, folder.Folder{}, ErrNameAlreadyExists
	}
	now := time.Now()
	o := Owner{
		ID:           uuid.New(),
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.byName[name] = o
	root := folder.Folder{
		ID:        uuid.New(),
		OwnerID:   o.ID,
		Name:      name,
		Path:      name,
		CreatedAt: now,
	}
	return o, root, nil
}

func (f *fakeOwnerStore) FindByName(ctx context.Context, name string) (Owner, error) {
	o, ok := f.byName[name]
	if !ok {
		return Owner{}, ErrOwnerNotFound
	}
	return o, nil
}
