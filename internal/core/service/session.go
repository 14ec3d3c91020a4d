package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/yndnr/catdesk-go/internal/cli/connection"
	"github.com/yndnr/catdesk-go/internal/core/domain"
	"github.com/yndnr/catdesk-go/internal/telemetry/logger"
)

// LoginPath is the authentication endpoint.
const LoginPath = "/auth/login"

// LocalStorage is durable string key-value storage.
type LocalStorage interface {
	GetItem(key string) (string, bool, error)
	SetItem(key, value string) error
	RemoveItem(key string) error
}

// Transport sends a JSON request and decodes a 2xx JSON response into out.
// Non-2xx responses must be reported as *connection.APIError.
type Transport interface {
	DoJSON(ctx context.Context, method, path string, body, out any) error
}

// SessionObserver receives session events; the metric registry implements it.
type SessionObserver interface {
	ObserveLogin(err error)
	ObserveLogout()
}

// SessionStore holds the current session and keeps it in sync with durable
// storage. It is safe for concurrent use.
type SessionStore struct {
	mu      sync.RWMutex
	session domain.Session

	storage  LocalStorage
	api      Transport
	logger   logger.Logger
	observer SessionObserver
	now      func() time.Time
}

// SessionOption configures a SessionStore.
type SessionOption func(*SessionStore)

// WithSessionLogger sets the store's logger.
func WithSessionLogger(l logger.Logger) SessionOption {
	return func(s *SessionStore) { s.logger = l }
}

// WithSessionObserver reports logins and logouts to o.
func WithSessionObserver(o SessionObserver) SessionOption {
	return func(s *SessionStore) { s.observer = o }
}

// NewSessionStore creates an unauthenticated store. Call RestoreSession to
// pick up a previously persisted session.
func NewSessionStore(api Transport, storage LocalStorage, opts ...SessionOption) *SessionStore {
	s := &SessionStore{
		storage: storage,
		api:     api,
		logger:  logger.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("store", "session")
	return s
}

// loginResponse is the subset of the login payload the store interprets.
// The full payload is kept separately as the user profile.
type loginResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Login authenticates against the remote API and persists the session.
//
// On any failure the in-memory session and the stored keys are left as they
// were and an error matching domain.ErrAuthFailed is returned. Its message is
// the server's when the server sent one. Credentials are sent as given;
// checking the form is up to the caller.
func (s *SessionStore) Login(ctx context.Context, creds domain.Credentials) (err error) {
	defer func() {
		if s.observer != nil {
			s.observer.ObserveLogin(err)
		}
	}()

	var raw json.RawMessage
	if err := s.api.DoJSON(ctx, http.MethodPost, LoginPath, creds, &raw); err != nil {
		s.logger.Info("login rejected", "username", creds.Username, "error", err)
		return loginError(err)
	}

	var resp loginResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return domain.ErrAuthFailed.WithCause(err)
	}
	user, err := decodeUser(string(raw))
	if err != nil {
		return domain.ErrAuthFailed.WithCause(err)
	}

	next := domain.Session{
		Token:        resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		User:         user,
	}
	if err := s.persist(next); err != nil {
		return domain.ErrAuthFailed.WithCause(err)
	}

	s.mu.Lock()
	s.session = next
	s.mu.Unlock()

	s.logger.Info("logged in", "username", user.Username())
	return nil
}

// loginError turns a transport or HTTP failure into an AuthError.
func loginError(err error) error {
	out := domain.ErrAuthFailed.WithCause(err)
	if apiErr, ok := connection.AsAPIError(err); ok {
		out = out.WithStatus(apiErr.Status)
		if apiErr.Message != "" {
			out = out.WithMessage(apiErr.Message)
		}
	}
	return out
}

// storedItem is one session key as found in storage before a write.
type storedItem struct {
	key     string
	value   string
	present bool
}

var sessionKeys = []string{domain.StorageKeyToken, domain.StorageKeyRefreshToken, domain.StorageKeyUser}

// persist writes the three session keys. If any write fails the keys are put
// back to what they held before, so storage never mixes two sessions.
func (s *SessionStore) persist(next domain.Session) error {
	userJSON, err := json.Marshal(next.User)
	if err != nil {
		return err
	}

	prev := make([]storedItem, 0, len(sessionKeys))
	for _, key := range sessionKeys {
		v, ok, err := s.storage.GetItem(key)
		if err != nil {
			return domain.ErrStorage.WithCause(err)
		}
		prev = append(prev, storedItem{key: key, value: v, present: ok})
	}

	values := map[string]string{
		domain.StorageKeyToken:        next.Token,
		domain.StorageKeyRefreshToken: next.RefreshToken,
		domain.StorageKeyUser:         string(userJSON),
	}
	for _, key := range sessionKeys {
		if err := s.storage.SetItem(key, values[key]); err != nil {
			s.rollback(prev)
			return domain.ErrStorage.WithCause(err)
		}
	}
	return nil
}

func (s *SessionStore) rollback(prev []storedItem) {
	for _, item := range prev {
		var err error
		if item.present {
			err = s.storage.SetItem(item.key, item.value)
		} else {
			err = s.storage.RemoveItem(item.key)
		}
		if err != nil {
			s.logger.Error("restore stored session key", "key", item.key, "error", err)
		}
	}
}

// Logout clears the session in memory and in durable storage. It always
// clears memory; a storage failure is logged and returned afterwards.
// Logging out without a session is a no-op that succeeds.
func (s *SessionStore) Logout() error {
	s.mu.Lock()
	s.session = domain.Session{}
	s.mu.Unlock()

	var errs []error
	for _, key := range sessionKeys {
		if err := s.storage.RemoveItem(key); err != nil {
			s.logger.Warn("remove stored session key", "key", key, "error", err)
			errs = append(errs, err)
		}
	}

	if s.observer != nil {
		s.observer.ObserveLogout()
	}
	if len(errs) > 0 {
		return domain.ErrStorage.WithCause(errors.Join(errs...))
	}
	s.logger.Info("logged out")
	return nil
}

// RestoreSession loads a persisted session, if one exists.
//
// The stored profile is decoded first, so an unparsable profile fails with
// domain.ErrSessionCorrupt even when no token is stored. Memory is only
// changed when a token is present.
func (s *SessionStore) RestoreSession() error {
	token, _, err := s.storage.GetItem(domain.StorageKeyToken)
	if err != nil {
		return domain.ErrStorage.WithCause(err)
	}
	refresh, _, err := s.storage.GetItem(domain.StorageKeyRefreshToken)
	if err != nil {
		return domain.ErrStorage.WithCause(err)
	}
	rawUser, hasUser, err := s.storage.GetItem(domain.StorageKeyUser)
	if err != nil {
		return domain.ErrStorage.WithCause(err)
	}

	var user domain.User
	if hasUser {
		user, err = decodeUser(rawUser)
		if err != nil {
			return domain.ErrSessionCorrupt.WithDetails(domain.StorageKeyUser).WithCause(err)
		}
	}

	if token == "" {
		s.logger.Debug("no stored session")
		return nil
	}

	s.mu.Lock()
	s.session = domain.Session{Token: token, RefreshToken: refresh, User: user}
	s.mu.Unlock()

	s.logger.Debug("session restored", "username", user.Username())
	return nil
}

// decodeUser parses a stored or received profile. JSON null decodes to a
// nil User.
func decodeUser(raw string) (domain.User, error) {
	var user domain.User
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&user); err != nil {
		return nil, err
	}
	return user, nil
}

// IsAuthenticated reports whether a token is held.
func (s *SessionStore) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.IsAuthenticated()
}

// Token returns the current bearer token, or "".
func (s *SessionStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Token
}

// Snapshot returns a copy of the current session.
func (s *SessionStore) Snapshot() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Clone()
}

// SessionStatus describes the current session for display.
type SessionStatus struct {
	Authenticated bool        `json:"authenticated" yaml:"authenticated"`
	Username      string      `json:"username,omitempty" yaml:"username,omitempty"`
	Name          string      `json:"name,omitempty" yaml:"name,omitempty"`
	Email         string      `json:"email,omitempty" yaml:"email,omitempty"`
	HasRefresh    bool        `json:"has_refresh_token" yaml:"has_refresh_token"`
	Subject       string      `json:"subject,omitempty" yaml:"subject,omitempty"`
	IssuedAt      *time.Time  `json:"issued_at,omitempty" yaml:"issued_at,omitempty"`
	ExpiresAt     *time.Time  `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
	Expired       bool        `json:"expired" yaml:"expired"`
	User          domain.User `json:"-" yaml:"-"`
}

// Status summarises the session. Token claims are read without
// verification and never affect IsAuthenticated.
func (s *SessionStore) Status() SessionStatus {
	sess := s.Snapshot()
	st := SessionStatus{
		Authenticated: sess.IsAuthenticated(),
		Username:      sess.User.Username(),
		Name:          sess.User.DisplayName(),
		Email:         sess.User.Email(),
		HasRefresh:    sess.RefreshToken != "",
		User:          sess.User,
	}
	if claims, ok := domain.ParseTokenClaims(sess.Token); ok {
		st.Subject = claims.Subject
		if !claims.IssuedAt.IsZero() {
			iat := claims.IssuedAt
			st.IssuedAt = &iat
		}
		if !claims.ExpiresAt.IsZero() {
			exp := claims.ExpiresAt
			st.ExpiresAt = &exp
		}
		st.Expired = claims.Expired(s.now())
	}
	return st
}
