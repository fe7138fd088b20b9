package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alphapie77/booklending-go/internal/api"
	"github.com/alphapie77/booklending-go/internal/catalog"
	"github.com/alphapie77/booklending-go/internal/credentials"
)

type fakeBackend struct {
	loginFunc      func(username, password string) (api.LoginResponse, error)
	registerFunc   func(req api.RegisterRequest) (api.RegisterResponse, error)
	logoutFunc     func() error
	updateUserFunc func(update api.ProfileUpdate) (api.UpdateUserResponse, error)
	myProfileFunc  func() (catalog.Profile, error)

	mu    sync.Mutex
	token string
}

func (f *fakeBackend) Login(_ context.Context, username, password string) (api.LoginResponse, error) {
	if f.loginFunc == nil {
		return api.LoginResponse{}, errors.New("not implemented")
	}
	return f.loginFunc(username, password)
}

func (f *fakeBackend) Register(_ context.Context, req api.RegisterRequest) (api.RegisterResponse, error) {
	if f.registerFunc == nil {
		return api.RegisterResponse{}, errors.New("not implemented")
	}
	return f.registerFunc(req)
}

func (f *fakeBackend) Logout(_ context.Context) error {
	if f.logoutFunc == nil {
		return nil
	}
	return f.logoutFunc()
}

func (f *fakeBackend) UpdateUser(_ context.Context, update api.ProfileUpdate) (api.UpdateUserResponse, error) {
	if f.updateUserFunc == nil {
		return api.UpdateUserResponse{}, errors.New("not implemented")
	}
	return f.updateUserFunc(update)
}

func (f *fakeBackend) MyProfile(_ context.Context) (catalog.Profile, error) {
	if f.myProfileFunc == nil {
		return catalog.Profile{}, errors.New("no profile")
	}
	return f.myProfileFunc()
}

func (f *fakeBackend) SetToken(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = token
}

func (f *fakeBackend) ClearToken() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = ""
}

func (f *fakeBackend) Token() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func newTestManager(t *testing.T, backend *fakeBackend, store credentials.Store) *Manager {
	t.Helper()
	m, err := New(backend, store, Config{})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(m.Close)
	return m
}

func TestRestoreWithNoRecord(t *testing.T) {
	backend := &fakeBackend{}
	m := newTestManager(t, backend, credentials.NewMemoryStore())

	if err := m.Restore(context.Background()); err != nil {
		t.Fatalf("Restore() error: %v", err)
	}
	if m.Authenticated() {
		t.Fatalf("expected unauthenticated session")
	}
	if backend.Token() != "" {
		t.Fatalf("expected no token armed")
	}
}

func TestRestoreRebuildsUserFromRecord(t *testing.T) {
	store := credentials.NewMemoryStore()
	rec := credentials.Record{
		Token:          "tok",
		UserID:         "5",
		Username:       "alice",
		Email:          "alice@example.com",
		FirstName:      "Alice",
		LastName:       "Reader",
		ProfilePicture: "/media/alice.png",
		ExpiresAt:      time.Now().Add(time.Hour),
	}
	if err := store.Save(rec); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	backend := &fakeBackend{}
	m := newTestManager(t, backend, store)
	if err := m.Restore(context.Background()); err != nil {
		t.Fatalf("Restore() error: %v", err)
	}

	user, ok := m.User()
	if !ok {
		t.Fatalf("expected authenticated user")
	}
	if user.ID != "5" || user.Username != "alice" || user.Email != "alice@example.com" ||
		user.FirstName != "Alice" || user.LastName != "Reader" ||
		user.ProfilePicture != "/media/alice.png" || user.Token != "tok" {
		t.Fatalf("user does not match persisted record: %+v", user)
	}
	if backend.Token() != "tok" {
		t.Fatalf("expected token armed, got %q", backend.Token())
	}
}

func TestRestoreExpiredRecordSignsOut(t *testing.T) {
	store := credentials.NewMemoryStore()
	_ = store.Save(credentials.Record{
		Token:     "stale",
		UserID:    "5",
		Username:  "alice",
		ExpiresAt: time.Now().Add(-time.Minute),
	})

	backend := &fakeBackend{
		logoutFunc: func() error { return errors.New("network down") },
	}
	m := newTestManager(t, backend, store)
	if err := m.Restore(context.Background()); err != nil {
		t.Fatalf("Restore() error: %v", err)
	}

	if m.Authenticated() {
		t.Fatalf("expected expired session to be signed out")
	}
	if backend.Token() != "" {
		t.Fatalf("expected no token armed after expiry cleanup")
	}
	if _, found, _ := store.Load(); found {
		t.Fatalf("expected credential record cleared")
	}
}

func TestLoginLifecycle(t *testing.T) {
	store := credentials.NewMemoryStore()
	backend := &fakeBackend{
		loginFunc: func(username, password string) (api.LoginResponse, error) {
			if username != "alice" || password != "pw" {
				return api.LoginResponse{}, &api.Error{Status: 400, Message: "Invalid credentials"}
			}
			return api.LoginResponse{Token: "t1", UserID: "1", Username: "alice"}, nil
		},
	}
	m := newTestManager(t, backend, store)

	before := time.Now()
	if err := m.Login(context.Background(), "alice", "pw"); err != nil {
		t.Fatalf("Login() error: %v", err)
	}

	user, ok := m.User()
	if !ok || user.ID != "1" || user.Username != "alice" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if backend.Token() != "t1" {
		t.Fatalf("expected token t1 armed, got %q", backend.Token())
	}

	rec, found, err := store.Load()
	if err != nil || !found {
		t.Fatalf("expected persisted record, found=%v err=%v", found, err)
	}
	want := before.Add(24 * time.Hour)
	if diff := rec.ExpiresAt.Sub(want); diff < -5*time.Second || diff > 5*time.Second {
		t.Fatalf("expected expiry ~24h ahead, got %v", rec.ExpiresAt)
	}
}

func TestLoginFailureLeavesStateUntouched(t *testing.T) {
	store := credentials.NewMemoryStore()
	backend := &fakeBackend{
		loginFunc: func(username, password string) (api.LoginResponse, error) {
			return api.LoginResponse{}, &api.Error{Status: 400, Message: "Invalid credentials"}
		},
	}
	m := newTestManager(t, backend, store)

	err := m.Login(context.Background(), "alice", "bad")
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *api.Error, got %v", err)
	}
	if apiErr.Message != "Invalid credentials" {
		t.Fatalf("expected backend message, got %q", apiErr.Message)
	}
	if m.Authenticated() {
		t.Fatalf("expected no session after failed login")
	}
	if _, found, _ := store.Load(); found {
		t.Fatalf("expected no persisted record after failed login")
	}
}

func TestLoginNetworkFailureFallsBackToGenericMessage(t *testing.T) {
	backend := &fakeBackend{
		loginFunc: func(username, password string) (api.LoginResponse, error) {
			return api.LoginResponse{}, errors.New("connection refused")
		},
	}
	m := newTestManager(t, backend, credentials.NewMemoryStore())

	err := m.Login(context.Background(), "alice", "pw")
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *api.Error, got %v", err)
	}
	if apiErr.Message != "Invalid credentials" {
		t.Fatalf("expected generic message, got %q", apiErr.Message)
	}
}

func TestRegisterEstablishesMinimalSession(t *testing.T) {
	store := credentials.NewMemoryStore()
	backend := &fakeBackend{
		registerFunc: func(req api.RegisterRequest) (api.RegisterResponse, error) {
			return api.RegisterResponse{Token: "t2", UserID: "7", Username: req.Username}, nil
		},
	}
	m := newTestManager(t, backend, store)

	if err := m.Register(context.Background(), api.RegisterRequest{Username: "bob", Password: "pw123456"}); err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	user, ok := m.User()
	if !ok || user.ID != "7" || user.Username != "bob" || user.Email != "" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if backend.Token() != "t2" {
		t.Fatalf("expected token t2 armed")
	}
}

func TestRegisterPassesFieldErrorsThrough(t *testing.T) {
	backend := &fakeBackend{
		registerFunc: func(req api.RegisterRequest) (api.RegisterResponse, error) {
			return api.RegisterResponse{}, &api.Error{
				Status: 400,
				Fields: map[string][]string{"username": {"already taken"}},
			}
		},
	}
	m := newTestManager(t, backend, credentials.NewMemoryStore())

	err := m.Register(context.Background(), api.RegisterRequest{Username: "alice"})
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *api.Error, got %v", err)
	}
	if len(apiErr.Fields["username"]) != 1 || apiErr.Fields["username"][0] != "already taken" {
		t.Fatalf("expected field errors preserved, got %+v", apiErr.Fields)
	}
}

func TestLogoutIsTotalEvenWhenNetworkFails(t *testing.T) {
	store := credentials.NewMemoryStore()
	backend := &fakeBackend{
		loginFunc: func(username, password string) (api.LoginResponse, error) {
			return api.LoginResponse{Token: "t1", UserID: "1", Username: "alice"}, nil
		},
		logoutFunc: func() error { return errors.New("network down") },
	}
	m := newTestManager(t, backend, store)

	if err := m.Login(context.Background(), "alice", "pw"); err != nil {
		t.Fatalf("Login() error: %v", err)
	}

	m.Logout(context.Background())

	if m.Authenticated() {
		t.Fatalf("expected signed-out session")
	}
	if _, ok := m.Profile(); ok {
		t.Fatalf("expected profile cleared")
	}
	if _, ok := m.Expiry(); ok {
		t.Fatalf("expected expiry cleared")
	}
	if backend.Token() != "" {
		t.Fatalf("expected token disarmed")
	}
	if _, found, _ := store.Load(); found {
		t.Fatalf("expected credential record cleared")
	}
}

func TestRefreshProfileSyncsPicture(t *testing.T) {
	store := credentials.NewMemoryStore()
	_ = store.Save(credentials.Record{
		Token:     "tok",
		UserID:    "5",
		Username:  "alice",
		ExpiresAt: time.Now().Add(time.Hour),
	})
	backend := &fakeBackend{
		myProfileFunc: func() (catalog.Profile, error) {
			return catalog.Profile{Bio: "reader", ProfilePicture: "/media/x.png"}, nil
		},
	}
	m := newTestManager(t, backend, store)
	if err := m.Restore(context.Background()); err != nil {
		t.Fatalf("Restore() error: %v", err)
	}

	m.RefreshProfile(context.Background())

	profile, ok := m.Profile()
	if !ok || profile.ProfilePicture != "/media/x.png" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
	user, _ := m.User()
	if user.ProfilePicture != "/media/x.png" {
		t.Fatalf("expected user picture synced, got %q", user.ProfilePicture)
	}
	rec, found, _ := store.Load()
	if !found || rec.ProfilePicture != "/media/x.png" {
		t.Fatalf("expected persisted picture, got %+v", rec)
	}
}

func TestRefreshProfileFailureKeepsState(t *testing.T) {
	store := credentials.NewMemoryStore()
	_ = store.Save(credentials.Record{Token: "tok", UserID: "5", Username: "alice", ExpiresAt: time.Now().Add(time.Hour)})
	backend := &fakeBackend{
		myProfileFunc: func() (catalog.Profile, error) {
			return catalog.Profile{}, errors.New("boom")
		},
	}
	m := newTestManager(t, backend, store)
	_ = m.Restore(context.Background())

	m.RefreshProfile(context.Background())

	if !m.Authenticated() {
		t.Fatalf("expected session to survive refresh failure")
	}
	if _, ok := m.Profile(); ok {
		t.Fatalf("expected no profile after failed refresh")
	}
}

func TestRefreshProfileWithoutSessionIsNoop(t *testing.T) {
	called := false
	backend := &fakeBackend{
		myProfileFunc: func() (catalog.Profile, error) {
			called = true
			return catalog.Profile{}, nil
		},
	}
	m := newTestManager(t, backend, credentials.NewMemoryStore())

	m.RefreshProfile(context.Background())
	if called {
		t.Fatalf("expected no backend call without a session")
	}
}

func TestUpdateProfileMergesAndPersists(t *testing.T) {
	store := credentials.NewMemoryStore()
	backend := &fakeBackend{
		loginFunc: func(username, password string) (api.LoginResponse, error) {
			return api.LoginResponse{Token: "t1", UserID: "1", Username: "alice"}, nil
		},
		updateUserFunc: func(update api.ProfileUpdate) (api.UpdateUserResponse, error) {
			return api.UpdateUserResponse{
				User: api.UserPayload{
					ID:        "1",
					Username:  "alice",
					Email:     "new@example.com",
					FirstName: "Alice",
					LastName:  "Borrower",
				},
				ProfilePicture: "/media/new.png",
				Profile:        catalog.Profile{Bio: "updated bio", ProfilePicture: "/media/new.png"},
			}, nil
		},
	}
	m := newTestManager(t, backend, store)
	if err := m.Login(context.Background(), "alice", "pw"); err != nil {
		t.Fatalf("Login() error: %v", err)
	}

	if err := m.UpdateProfile(context.Background(), api.ProfileUpdate{
		Fields: map[string]string{"bio": "updated bio"},
	}); err != nil {
		t.Fatalf("UpdateProfile() error: %v", err)
	}

	user, _ := m.User()
	if user.Email != "new@example.com" || user.LastName != "Borrower" || user.ProfilePicture != "/media/new.png" {
		t.Fatalf("expected merged user fields, got %+v", user)
	}
	profile, ok := m.Profile()
	if !ok || profile.Bio != "updated bio" {
		t.Fatalf("expected replaced profile, got %+v", profile)
	}
	rec, found, _ := store.Load()
	if !found || rec.Email != "new@example.com" || rec.ProfilePicture != "/media/new.png" {
		t.Fatalf("expected persisted user fields, got %+v", rec)
	}
}

func TestHandleUnauthorizedClearsLocallyWithoutNetwork(t *testing.T) {
	store := credentials.NewMemoryStore()
	logoutCalls := 0
	backend := &fakeBackend{
		loginFunc: func(username, password string) (api.LoginResponse, error) {
			return api.LoginResponse{Token: "t1", UserID: "1", Username: "alice"}, nil
		},
		logoutFunc: func() error {
			logoutCalls++
			return nil
		},
	}
	m := newTestManager(t, backend, store)
	_ = m.Login(context.Background(), "alice", "pw")

	m.HandleUnauthorized()

	if m.Authenticated() {
		t.Fatalf("expected session cleared")
	}
	if logoutCalls != 0 {
		t.Fatalf("expected no logout network call, got %d", logoutCalls)
	}
	if _, found, _ := store.Load(); found {
		t.Fatalf("expected credential record cleared")
	}
}

func TestCheckExpiryForcesLogout(t *testing.T) {
	store := credentials.NewMemoryStore()
	backend := &fakeBackend{
		loginFunc: func(username, password string) (api.LoginResponse, error) {
			return api.LoginResponse{Token: "t1", UserID: "1", Username: "alice"}, nil
		},
	}
	m := newTestManager(t, backend, store)

	fakeNow := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	m.nowFunc = func() time.Time { return fakeNow }

	if err := m.Login(context.Background(), "alice", "pw"); err != nil {
		t.Fatalf("Login() error: %v", err)
	}

	m.CheckExpiry(context.Background())
	if !m.Authenticated() {
		t.Fatalf("session must survive check before expiry")
	}

	m.nowFunc = func() time.Time { return fakeNow.Add(25 * time.Hour) }
	m.CheckExpiry(context.Background())
	if m.Authenticated() {
		t.Fatalf("expected expired session to be logged out")
	}
	if _, found, _ := store.Load(); found {
		t.Fatalf("expected credential record cleared")
	}
}

func TestWatchSignsOutExpiredSession(t *testing.T) {
	store := credentials.NewMemoryStore()
	_ = store.Save(credentials.Record{
		Token:     "tok",
		UserID:    "5",
		Username:  "alice",
		ExpiresAt: time.Now().Add(-time.Minute),
	})
	backend := &fakeBackend{}
	m, err := New(backend, store, Config{CheckInterval: 10 * time.Millisecond})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	m.StartWatch()
	m.StartWatch() // second call must not spawn another watcher

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, found, _ := store.Load(); !found {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("watcher did not clear expired session in time")
		}
		time.Sleep(5 * time.Millisecond)
	}

	m.Close()
	m.Close() // closing twice must be safe
}
