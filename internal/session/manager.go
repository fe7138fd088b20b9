package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alphapie77/booklending-go/internal/api"
	"github.com/alphapie77/booklending-go/internal/catalog"
	"github.com/alphapie77/booklending-go/internal/credentials"
)

// Backend is the slice of the API client the session manager depends on.
type Backend interface {
	Login(ctx context.Context, username, password string) (api.LoginResponse, error)
	Register(ctx context.Context, req api.RegisterRequest) (api.RegisterResponse, error)
	Logout(ctx context.Context) error
	UpdateUser(ctx context.Context, update api.ProfileUpdate) (api.UpdateUserResponse, error)
	MyProfile(ctx context.Context) (catalog.Profile, error)
	SetToken(token string)
	ClearToken()
}

type AuditLogger interface {
	Log(actor, action, target, outcome, detail string) error
}

// User is the authenticated identity as the client believes it to be.
type User struct {
	ID             catalog.ID
	Username       string
	Email          string
	FirstName      string
	LastName       string
	ProfilePicture string
	Token          string
}

const (
	defaultSessionTTL    = 24 * time.Hour
	defaultCheckInterval = 5 * time.Minute
)

// Manager is the single source of truth for the current session: who is
// logged in, until when, and what they may do. It owns the persisted
// credential record and the API client's authorization token; nothing else
// writes to either.
type Manager struct {
	backend       Backend
	store         credentials.Store
	log           *slog.Logger
	audit         AuditLogger
	ttl           time.Duration
	checkInterval time.Duration
	nowFunc       func() time.Time

	mu      sync.RWMutex
	user    *User
	profile *catalog.Profile
	expiry  time.Time

	watchOnce sync.Once
	closeOnce sync.Once
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

type Config struct {
	SessionTTL    time.Duration
	CheckInterval time.Duration
	Logger        *slog.Logger
	Audit         AuditLogger
}

func New(backend Backend, store credentials.Store, cfg Config) (*Manager, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend is required")
	}
	if store == nil {
		return nil, fmt.Errorf("credential store is required")
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = defaultCheckInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		backend:       backend,
		store:         store,
		log:           logger,
		audit:         cfg.Audit,
		ttl:           cfg.SessionTTL,
		checkInterval: cfg.CheckInterval,
		nowFunc:       time.Now,
		stopCh:        make(chan struct{}),
	}, nil
}

// Restore rebuilds the session from the persisted credential record. A
// missing record leaves the manager signed out; an expired record gets the
// same cleanup as an explicit logout. Call exactly once at startup, before
// anything consults the manager.
func (m *Manager) Restore(ctx context.Context) error {
	rec, found, err := m.store.Load()
	if err != nil {
		return fmt.Errorf("load credential record: %w", err)
	}
	if !found {
		return nil
	}

	if rec.Expired(m.nowFunc()) {
		m.log.Info("persisted session expired, signing out", "username", rec.Username)
		m.auditLog(rec.Username, "session.expired", "", "success", "detected at startup")
		// Arm the stale token so the server-side invalidation can be
		// attempted; local cleanup proceeds regardless.
		m.backend.SetToken(rec.Token)
		m.Logout(ctx)
		return nil
	}

	m.backend.SetToken(rec.Token)
	user := userFromRecord(rec)

	m.mu.Lock()
	m.user = &user
	m.expiry = rec.ExpiresAt
	m.mu.Unlock()

	m.refreshProfileAsync()
	return nil
}

// StartWatch begins the periodic re-check of the persisted expiry. Repeated
// calls are no-ops; Close stops the watcher exactly once.
func (m *Manager) StartWatch() {
	m.watchOnce.Do(func() {
		m.wg.Add(1)
		go m.watch()
	})
}

func (m *Manager) watch() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.CheckExpiry(context.Background())
		case <-m.stopCh:
			return
		}
	}
}

// CheckExpiry compares the persisted expiry against the clock and forces a
// logout once it has passed.
func (m *Manager) CheckExpiry(ctx context.Context) {
	rec, found, err := m.store.Load()
	if err != nil {
		m.log.Warn("session check failed", "error", err)
		return
	}
	if !found {
		return
	}
	if rec.Expired(m.nowFunc()) {
		m.log.Info("session expired", "username", rec.Username)
		m.auditLog(rec.Username, "session.expired", "", "success", "detected by periodic check")
		m.Logout(ctx)
	}
}

func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		close(m.stopCh)
	})
	m.wg.Wait()
}

// Login authenticates and establishes the session. Failures come back as a
// *api.Error carrying the backend's message, or "Invalid credentials" when
// the backend gave none; local state is untouched on failure.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	resp, err := m.backend.Login(ctx, username, password)
	if err != nil {
		m.log.Warn("login failed", "username", username, "error", err)
		m.auditLog(username, "session.login", "", "failed", err.Error())
		return asAPIError(err, "Invalid credentials")
	}

	now := m.nowFunc()
	rec := credentials.Record{
		Token:          resp.Token,
		UserID:         resp.UserID,
		Username:       resp.Username,
		Email:          resp.Email,
		FirstName:      resp.FirstName,
		LastName:       resp.LastName,
		ProfilePicture: resp.ProfilePicture,
		ExpiresAt:      now.Add(m.ttl),
	}
	if err := m.store.Save(rec); err != nil {
		return fmt.Errorf("persist credential record: %w", err)
	}
	m.backend.SetToken(resp.Token)

	user := userFromRecord(rec)
	m.mu.Lock()
	m.user = &user
	m.profile = nil
	m.expiry = rec.ExpiresAt
	m.mu.Unlock()

	m.auditLog(resp.Username, "session.login", "", "success", "")
	m.refreshProfileAsync()
	return nil
}

// Register creates an account and establishes a minimal session for it.
// Field-keyed validation errors are passed through inside *api.Error.
func (m *Manager) Register(ctx context.Context, req api.RegisterRequest) error {
	resp, err := m.backend.Register(ctx, req)
	if err != nil {
		m.log.Warn("registration failed", "username", req.Username, "error", err)
		m.auditLog(req.Username, "session.register", "", "failed", err.Error())
		return asRegisterError(err)
	}

	now := m.nowFunc()
	rec := credentials.Record{
		Token:     resp.Token,
		UserID:    resp.UserID,
		Username:  resp.Username,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.store.Save(rec); err != nil {
		return fmt.Errorf("persist credential record: %w", err)
	}
	m.backend.SetToken(resp.Token)

	user := userFromRecord(rec)
	m.mu.Lock()
	m.user = &user
	m.profile = nil
	m.expiry = rec.ExpiresAt
	m.mu.Unlock()

	m.auditLog(resp.Username, "session.register", "", "success", "")
	m.refreshProfileAsync()
	return nil
}

// Logout notifies the backend best-effort, then clears all local session
// state unconditionally. It never fails.
func (m *Manager) Logout(ctx context.Context) {
	if err := m.backend.Logout(ctx); err != nil {
		m.log.Warn("logout notification failed", "error", err)
	}
	m.clearLocal("session.logout")
}

// HandleUnauthorized is the 401 coordination point for the API client: the
// backend no longer honors the token, so drop local state without another
// network round trip.
func (m *Manager) HandleUnauthorized() {
	m.clearLocal("session.unauthorized")
}

func (m *Manager) clearLocal(action string) {
	if err := m.store.Clear(); err != nil {
		m.log.Warn("clear credential record failed", "error", err)
	}
	m.backend.ClearToken()

	m.mu.Lock()
	var username string
	if m.user != nil {
		username = m.user.Username
	}
	m.user = nil
	m.profile = nil
	m.expiry = time.Time{}
	m.mu.Unlock()

	m.auditLog(username, action, "", "success", "")
}

// RefreshProfile fetches the extended profile and keeps the profile picture
// in sync between the profile, the user record, and the persisted
// credentials. Failures are logged and swallowed.
func (m *Manager) RefreshProfile(ctx context.Context) {
	m.mu.RLock()
	signedIn := m.user != nil
	m.mu.RUnlock()
	if !signedIn {
		return
	}

	profile, err := m.backend.MyProfile(ctx)
	if err != nil {
		m.log.Warn("profile refresh failed", "error", err)
		return
	}

	m.mu.Lock()
	m.profile = &profile
	if m.user != nil && profile.ProfilePicture != "" {
		m.user.ProfilePicture = profile.ProfilePicture
	}
	m.mu.Unlock()

	if profile.ProfilePicture != "" {
		m.persistPicture(profile.ProfilePicture)
	}
}

func (m *Manager) refreshProfileAsync() {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.RefreshProfile(context.Background())
	}()
}

func (m *Manager) persistPicture(picture string) {
	rec, found, err := m.store.Load()
	if err != nil || !found {
		if err != nil {
			m.log.Warn("load credential record for picture sync failed", "error", err)
		}
		return
	}
	rec.ProfilePicture = picture
	if err := m.store.Save(rec); err != nil {
		m.log.Warn("persist profile picture failed", "error", err)
	}
}

// UpdateProfile submits a multipart account update and merges the response
// into both the profile and user records, persisting the changed fields.
func (m *Manager) UpdateProfile(ctx context.Context, update api.ProfileUpdate) error {
	resp, err := m.backend.UpdateUser(ctx, update)
	if err != nil {
		m.log.Warn("profile update failed", "error", err)
		return asAPIError(err, "Update failed")
	}

	m.mu.Lock()
	profile := resp.Profile
	m.profile = &profile
	if m.user != nil {
		mergeUser(m.user, resp)
	}
	m.mu.Unlock()

	m.persistUpdatedUser(resp)
	m.auditLog(resp.User.Username, "profile.update", "", "success", "")
	return nil
}

func (m *Manager) persistUpdatedUser(resp api.UpdateUserResponse) {
	rec, found, err := m.store.Load()
	if err != nil || !found {
		if err != nil {
			m.log.Warn("load credential record for profile update failed", "error", err)
		}
		return
	}
	if resp.User.Username != "" {
		rec.Username = resp.User.Username
	}
	rec.Email = resp.User.Email
	rec.FirstName = resp.User.FirstName
	rec.LastName = resp.User.LastName
	if resp.ProfilePicture != "" {
		rec.ProfilePicture = resp.ProfilePicture
	}
	if err := m.store.Save(rec); err != nil {
		m.log.Warn("persist updated user failed", "error", err)
	}
}

func mergeUser(user *User, resp api.UpdateUserResponse) {
	if resp.User.Username != "" {
		user.Username = resp.User.Username
	}
	user.Email = resp.User.Email
	user.FirstName = resp.User.FirstName
	user.LastName = resp.User.LastName
	if resp.ProfilePicture != "" {
		user.ProfilePicture = resp.ProfilePicture
	}
}

func (m *Manager) User() (User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return User{}, false
	}
	return *m.user, true
}

func (m *Manager) Profile() (catalog.Profile, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.profile == nil {
		return catalog.Profile{}, false
	}
	return *m.profile, true
}

func (m *Manager) Authenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user != nil
}

func (m *Manager) Expiry() (time.Time, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.expiry, !m.expiry.IsZero()
}

func (m *Manager) auditLog(actor, action, target, outcome, detail string) {
	if m.audit == nil {
		return
	}
	if err := m.audit.Log(actor, action, target, outcome, detail); err != nil {
		m.log.Warn("audit log failed", "error", err)
	}
}

func userFromRecord(rec credentials.Record) User {
	return User{
		ID:             rec.UserID,
		Username:       rec.Username,
		Email:          rec.Email,
		FirstName:      rec.FirstName,
		LastName:       rec.LastName,
		ProfilePicture: rec.ProfilePicture,
		Token:          rec.Token,
	}
}

func asAPIError(err error, fallback string) error {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		if apiErr.Message == "" && len(apiErr.Fields) == 0 {
			apiErr.Message = fallback
		}
		return apiErr
	}
	return &api.Error{Message: fallback}
}

func asRegisterError(err error) error {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" || len(apiErr.Fields) > 0 {
			return apiErr
		}
	}
	return &api.Error{Fields: map[string][]string{"general": {"Registration failed"}}}
}
