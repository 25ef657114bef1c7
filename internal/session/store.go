// Package session manages the authentication session for the route-planning
// service. It owns the bearer credential, persists it across runs, and
// resolves the authenticated identity.
//
// The store is a state machine over anonymous, restoring and authenticated.
// Exactly one state holds at any instant, and a non-nil identity implies the
// authenticated state. The store is the single writer of the persisted
// credential; every other component only reads it through the transport's
// token injection.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"evalgo.org/pathium/internal/transport"
	"evalgo.org/pathium/models"
)

// ErrNoClient is returned when the store has no transport attached.
var ErrNoClient = errors.New("session store has no transport client")

// State identifies the session lifecycle phase.
type State string

const (
	// StateAnonymous means no credential is held.
	StateAnonymous State = "anonymous"
	// StateRestoring means a persisted credential exists but its identity
	// has not been confirmed yet.
	StateRestoring State = "restoring"
	// StateAuthenticated means the credential was confirmed by the server.
	StateAuthenticated State = "authenticated"
)

// Client is the transport surface the store needs. *transport.Client
// satisfies it.
type Client interface {
	Do(ctx context.Context, method, path string, body, out interface{}) error
	DoForm(ctx context.Context, path string, form url.Values, out interface{}) error
}

// Store holds the current credential and identity.
type Store struct {
	mu        sync.RWMutex
	client    Client
	tokenFile string
	token     string
	identity  *models.User
	state     State
	subs      []func(*models.User)
}

// New creates a session store backed by the given token file. If the file
// already holds a credential the store starts in the restoring state and the
// caller should Restore it; otherwise it starts anonymous.
func New(tokenFile string) *Store {
	s := &Store{
		tokenFile: tokenFile,
		state:     StateAnonymous,
	}

	if token, err := os.ReadFile(tokenFile); err == nil {
		if t := strings.TrimSpace(string(token)); t != "" {
			s.token = t
			s.state = StateRestoring
		}
	}

	return s
}

// SetClient attaches the transport client used for auth calls. The client is
// expected to use this store as its token source.
func (s *Store) SetClient(c Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = c
}

// Token implements transport.TokenSource.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// State returns the current lifecycle state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Identity returns the confirmed identity, or nil outside the authenticated
// state.
func (s *Store) Identity() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

// IsAuthenticated reports whether a confirmed identity is present.
func (s *Store) IsAuthenticated() bool {
	return s.Identity() != nil
}

// Subscribe registers a callback invoked on every identity transition, with
// the new identity (nil on logout/invalidation). Callbacks run synchronously
// on the mutating call.
func (s *Store) Subscribe(fn func(*models.User)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// Restore confirms a persisted credential against the server. Any failure is
// a hard invalidation: the credential is discarded and the store demotes to
// anonymous without surfacing an error. Calling Restore without a stored
// credential is a no-op, so a second call after an invalidation performs no
// network request.
func (s *Store) Restore(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateRestoring {
		s.mu.Unlock()
		return nil
	}
	client := s.client
	s.mu.Unlock()

	if client == nil {
		return ErrNoClient
	}

	var user models.User
	if err := client.Do(ctx, "GET", "/auth/me", nil, &user); err != nil {
		// Expired or revoked token. Silent demotion to anonymous.
		s.invalidate()
		return nil
	}

	s.setAuthenticated(&user)
	return nil
}

// Login exchanges credentials for a token, persists it, then resolves the
// identity with the new token before returning. On failure the state is left
// unchanged and the server-provided message is surfaced when present.
func (s *Store) Login(ctx context.Context, email, password string) error {
	s.mu.RLock()
	client := s.client
	s.mu.RUnlock()
	if client == nil {
		return ErrNoClient
	}

	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	var token models.Token
	if err := client.DoForm(ctx, "/auth/login", form, &token); err != nil {
		return authError("login failed", err)
	}

	s.mu.Lock()
	s.token = token.AccessToken
	s.mu.Unlock()

	if err := s.persistToken(token.AccessToken); err != nil {
		s.invalidate()
		return fmt.Errorf("failed to persist credential: %w", err)
	}

	// Identity must reflect the new token before login resolves.
	var user models.User
	if err := client.Do(ctx, "GET", "/auth/me", nil, &user); err != nil {
		s.invalidate()
		return authError("login failed", err)
	}

	s.setAuthenticated(&user)
	return nil
}

// Register creates an account and then logs in with the same credentials.
// A registration success followed by a login failure surfaces as the login
// failure; the account exists regardless.
func (s *Store) Register(ctx context.Context, email, password string, fullName *string) error {
	s.mu.RLock()
	client := s.client
	s.mu.RUnlock()
	if client == nil {
		return ErrNoClient
	}

	req := models.RegisterRequest{
		Email:    email,
		Password: password,
		FullName: fullName,
	}
	if err := client.Do(ctx, "POST", "/auth/register", &req, nil); err != nil {
		return authError("registration failed", err)
	}

	return s.Login(ctx, email, password)
}

// Logout clears the credential and identity. It always succeeds and performs
// no network call.
func (s *Store) Logout() {
	s.invalidate()
}

func (s *Store) setAuthenticated(user *models.User) {
	s.mu.Lock()
	s.identity = user
	s.state = StateAuthenticated
	subs := append([]func(*models.User){}, s.subs...)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(user)
	}
}

func (s *Store) invalidate() {
	s.mu.Lock()
	hadIdentity := s.identity != nil
	s.token = ""
	s.identity = nil
	s.state = StateAnonymous
	subs := append([]func(*models.User){}, s.subs...)
	s.mu.Unlock()

	_ = os.Remove(s.tokenFile)

	if hadIdentity {
		for _, fn := range subs {
			fn(nil)
		}
	}
}

func (s *Store) persistToken(token string) error {
	dir := filepath.Dir(s.tokenFile)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	return os.WriteFile(s.tokenFile, []byte(token), 0600)
}

// authError maps a transport failure on an auth call to a user-facing
// message, preferring the server's structured detail field.
func authError(fallback string, err error) error {
	var apiErr *transport.APIError
	if errors.As(err, &apiErr) {
		if detail := apiErr.Detail(); detail != "" {
			return errors.New(detail)
		}
		return fmt.Errorf("%s (status %d)", fallback, apiErr.Status)
	}
	return fmt.Errorf("%s: %w", fallback, err)
}
