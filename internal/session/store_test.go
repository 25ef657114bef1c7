package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalgo.org/pathium/internal/transport"
	"evalgo.org/pathium/models"
)

// fakeAuthServer implements the auth endpoints with a single known account.
type fakeAuthServer struct {
	email    string
	password string
	token    string
	meCalls  atomic.Int64
}

func (f *fakeAuthServer) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if r.PostFormValue("username") != f.email || r.PostFormValue("password") != f.password {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail": "Invalid email or password"}`))
			return
		}
		json.NewEncoder(w).Encode(models.Token{AccessToken: f.token, TokenType: "bearer"})
	})

	mux.HandleFunc("POST /auth/register", func(w http.ResponseWriter, r *http.Request) {
		var req models.RegisterRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Email == f.email {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"detail": "A user with this email already exists"}`))
			return
		}
		f.email = req.Email
		f.password = req.Password
		json.NewEncoder(w).Encode(map[string]string{"email": req.Email})
	})

	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		f.meCalls.Add(1)
		if r.Header.Get("Authorization") != "Bearer "+f.token {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail": "Could not validate credentials"}`))
			return
		}
		json.NewEncoder(w).Encode(models.User{
			ID: 1, Email: f.email, Role: models.RoleOperator, IsActive: true, CreatedAt: time.Now(),
		})
	})

	return mux
}

func newTestStore(t *testing.T, baseURL string) (*Store, string) {
	t.Helper()
	tokenFile := filepath.Join(t.TempDir(), "token")
	store := New(tokenFile)
	client, err := transport.New(baseURL, 5*time.Second, store)
	require.NoError(t, err)
	store.SetClient(client)
	return store, tokenFile
}

func TestNewWithoutStoredToken(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "token"))
	assert.Equal(t, StateAnonymous, store.State())
	assert.Nil(t, store.Identity())
	assert.Empty(t, store.Token())
}

func TestLoginSuccess(t *testing.T) {
	auth := &fakeAuthServer{email: "op@example.com", password: "secret", token: "tok-abc"}
	srv := httptest.NewServer(auth.handler())
	defer srv.Close()

	store, tokenFile := newTestStore(t, srv.URL)

	require.NoError(t, store.Login(context.Background(), "op@example.com", "secret"))

	assert.Equal(t, StateAuthenticated, store.State())
	require.NotNil(t, store.Identity())
	assert.Equal(t, "op@example.com", store.Identity().Email)
	assert.Equal(t, "tok-abc", store.Token())

	// The stored credential is exactly the token the server returned.
	data, err := os.ReadFile(tokenFile)
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", string(data))
}

func TestLoginFailureSurfacesServerDetail(t *testing.T) {
	auth := &fakeAuthServer{email: "op@example.com", password: "secret", token: "tok-abc"}
	srv := httptest.NewServer(auth.handler())
	defer srv.Close()

	store, _ := newTestStore(t, srv.URL)

	err := store.Login(context.Background(), "op@example.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Invalid email or password", err.Error())
	assert.Equal(t, StateAnonymous, store.State())
	assert.Nil(t, store.Identity())
}

func TestRegisterChainsLogin(t *testing.T) {
	auth := &fakeAuthServer{email: "existing@example.com", password: "x", token: "tok-new"}
	srv := httptest.NewServer(auth.handler())
	defer srv.Close()

	store, _ := newTestStore(t, srv.URL)

	name := "New Operator"
	require.NoError(t, store.Register(context.Background(), "new@example.com", "hunter22", &name))
	assert.Equal(t, StateAuthenticated, store.State())
	require.NotNil(t, store.Identity())
	assert.Equal(t, "new@example.com", store.Identity().Email)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	auth := &fakeAuthServer{email: "op@example.com", password: "secret", token: "tok"}
	srv := httptest.NewServer(auth.handler())
	defer srv.Close()

	store, _ := newTestStore(t, srv.URL)

	err := store.Register(context.Background(), "op@example.com", "secret", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
	assert.Equal(t, StateAnonymous, store.State())
}

func TestRestoreValidToken(t *testing.T) {
	auth := &fakeAuthServer{email: "op@example.com", password: "secret", token: "tok-abc"}
	srv := httptest.NewServer(auth.handler())
	defer srv.Close()

	tokenFile := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(tokenFile, []byte("tok-abc"), 0600))

	store := New(tokenFile)
	assert.Equal(t, StateRestoring, store.State())

	client, err := transport.New(srv.URL, 5*time.Second, store)
	require.NoError(t, err)
	store.SetClient(client)

	require.NoError(t, store.Restore(context.Background()))
	assert.Equal(t, StateAuthenticated, store.State())
	require.NotNil(t, store.Identity())
	assert.Equal(t, "op@example.com", store.Identity().Email)
}

func TestRestoreInvalidTokenIsIdempotent(t *testing.T) {
	auth := &fakeAuthServer{email: "op@example.com", password: "secret", token: "tok-abc"}
	srv := httptest.NewServer(auth.handler())
	defer srv.Close()

	tokenFile := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(tokenFile, []byte("tok-stale"), 0600))

	store := New(tokenFile)
	client, err := transport.New(srv.URL, 5*time.Second, store)
	require.NoError(t, err)
	store.SetClient(client)

	// First restore hits the server once, demotes silently.
	require.NoError(t, store.Restore(context.Background()))
	assert.Equal(t, StateAnonymous, store.State())
	assert.Nil(t, store.Identity())
	assert.EqualValues(t, 1, auth.meCalls.Load())

	// The stale credential is gone from durable storage.
	_, statErr := os.Stat(tokenFile)
	assert.True(t, os.IsNotExist(statErr))

	// Second restore performs no network side effects.
	require.NoError(t, store.Restore(context.Background()))
	assert.Equal(t, StateAnonymous, store.State())
	assert.EqualValues(t, 1, auth.meCalls.Load())
}

func TestLogoutClearsEverything(t *testing.T) {
	auth := &fakeAuthServer{email: "op@example.com", password: "secret", token: "tok-abc"}
	srv := httptest.NewServer(auth.handler())
	defer srv.Close()

	store, tokenFile := newTestStore(t, srv.URL)
	require.NoError(t, store.Login(context.Background(), "op@example.com", "secret"))

	store.Logout()

	assert.Equal(t, StateAnonymous, store.State())
	assert.Nil(t, store.Identity())
	assert.Empty(t, store.Token())
	_, err := os.Stat(tokenFile)
	assert.True(t, os.IsNotExist(err))
}

// TestSessionInvariant drives the store through every lifecycle operation and
// checks Identity != nil exactly in the authenticated state after each step.
func TestSessionInvariant(t *testing.T) {
	auth := &fakeAuthServer{email: "op@example.com", password: "secret", token: "tok-abc"}
	srv := httptest.NewServer(auth.handler())
	defer srv.Close()

	store, _ := newTestStore(t, srv.URL)

	checkInvariant := func(step string) {
		t.Helper()
		hasIdentity := store.Identity() != nil
		isAuthenticated := store.State() == StateAuthenticated
		assert.Equal(t, isAuthenticated, hasIdentity, "invariant broken after %s", step)
	}

	checkInvariant("construction")

	store.Login(context.Background(), "op@example.com", "wrong")
	checkInvariant("failed login")

	require.NoError(t, store.Login(context.Background(), "op@example.com", "secret"))
	checkInvariant("login")

	store.Logout()
	checkInvariant("logout")

	require.NoError(t, store.Restore(context.Background()))
	checkInvariant("restore without credential")
}

func TestSubscribeReceivesTransitions(t *testing.T) {
	auth := &fakeAuthServer{email: "op@example.com", password: "secret", token: "tok-abc"}
	srv := httptest.NewServer(auth.handler())
	defer srv.Close()

	store, _ := newTestStore(t, srv.URL)

	var events []*models.User
	store.Subscribe(func(u *models.User) {
		events = append(events, u)
	})

	require.NoError(t, store.Login(context.Background(), "op@example.com", "secret"))
	store.Logout()

	require.Len(t, events, 2)
	assert.NotNil(t, events[0])
	assert.Equal(t, "op@example.com", events[0].Email)
	assert.Nil(t, events[1])
}
