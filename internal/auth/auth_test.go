package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/synapse/internal/api"
	"github.com/rcliao/synapse/internal/model"
	"github.com/rcliao/synapse/internal/session"
	"github.com/rcliao/synapse/internal/store"
)

var errRejected = &api.Error{StatusCode: 401, Message: "Could not validate credentials"}

// fakeBackend authenticates by looking at the credential the controller has
// stored, the same way the real server reads the bearer header.
type fakeBackend struct {
	creds *session.Store

	mu        sync.Mutex
	passwords map[string]string
	users     map[string]*model.User // by token
	meErr     error
	loginErr  error
	meCalls   int
}

func newFakeBackend(creds *session.Store) *fakeBackend {
	return &fakeBackend{
		creds:     creds,
		passwords: map[string]string{},
		users:     map[string]*model.User{},
	}
}

func (f *fakeBackend) addUser(email, password string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.passwords[email] = password
	tok := "tok-" + email
	f.users[tok] = &model.User{ID: "u-" + email, Email: email}
	return tok
}

func (f *fakeBackend) Login(_ context.Context, email, password string) (*model.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	if pw, ok := f.passwords[email]; !ok || pw != password {
		return nil, &api.Error{StatusCode: 401, Message: "Incorrect email or password"}
	}
	return &model.Token{AccessToken: "tok-" + email, TokenType: "bearer"}, nil
}

func (f *fakeBackend) Signup(_ context.Context, req api.SignupRequest) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.passwords[req.Email]; ok {
		return nil, &api.Error{StatusCode: 400, Message: "Email already registered"}
	}
	f.passwords[req.Email] = req.Password
	u := &model.User{ID: "u-" + req.Email, Email: req.Email, Name: req.Name}
	f.users["tok-"+req.Email] = u
	return u, nil
}

func (f *fakeBackend) Me(_ context.Context) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meCalls++
	if f.meErr != nil {
		return nil, f.meErr
	}
	u, ok := f.users[f.creds.Get()]
	if !ok {
		return nil, errRejected
	}
	return u, nil
}

func setup(t *testing.T) (*Controller, *fakeBackend, *session.Store, *store.MemStore) {
	t.Helper()
	kv := store.NewMemStore()
	creds := session.New(kv)
	backend := newFakeBackend(creds)
	return NewController(backend, creds, nil), backend, creds, kv
}

func storedToken(t *testing.T, kv store.KV) (string, bool) {
	t.Helper()
	v, ok, err := kv.Get(context.Background(), session.TokenKey)
	require.NoError(t, err)
	return v, ok
}

func TestInitialStateIsLoading(t *testing.T) {
	c, _, _, _ := setup(t)
	assert.Equal(t, Loading, c.Session().Status)

	select {
	case <-c.Ready():
		t.Fatal("ready before Start")
	default:
	}
}

func TestStartWithoutCredential(t *testing.T) {
	c, backend, _, _ := setup(t)

	s := c.Start(context.Background())
	assert.Equal(t, Unauthenticated, s.Status)
	assert.Nil(t, s.User)
	assert.Zero(t, backend.meCalls, "no identity check without a credential")
	<-c.Ready()
}

func TestStartRestoresValidCredential(t *testing.T) {
	c, backend, _, kv := setup(t)
	tok := backend.addUser("a@b.com", "pw")
	require.NoError(t, kv.Set(context.Background(), session.TokenKey, tok))

	s := c.Start(context.Background())
	require.Equal(t, Authenticated, s.Status)
	assert.Equal(t, "a@b.com", s.User.Email)
}

func TestStartClearsRejectedCredential(t *testing.T) {
	tests := []struct {
		name  string
		meErr error
	}{
		{"unknown token", nil},
		{"server error", &api.Error{StatusCode: 500, Message: "Internal Server Error"}},
		{"transport error", errors.New("connection refused")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, backend, creds, kv := setup(t)
			backend.meErr = tt.meErr
			require.NoError(t, kv.Set(context.Background(), session.TokenKey, "stale"))

			s := c.Start(context.Background())
			assert.Equal(t, Unauthenticated, s.Status)
			assert.Nil(t, s.User)
			assert.Equal(t, "", creds.Get())
			_, ok := storedToken(t, kv)
			assert.False(t, ok, "stale credential must be erased")
		})
	}
}

func TestStartRunsOnce(t *testing.T) {
	c, backend, _, kv := setup(t)
	tok := backend.addUser("a@b.com", "pw")
	require.NoError(t, kv.Set(context.Background(), session.TokenKey, tok))

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, Authenticated, c.Start(context.Background()).Status)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, backend.meCalls)
}

func TestLoginAuthenticates(t *testing.T) {
	c, backend, creds, kv := setup(t)
	backend.addUser("a@b.com", "pw")
	c.Start(context.Background())

	user, err := c.Login(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", user.Email)

	s := c.Session()
	require.Equal(t, Authenticated, s.Status)
	assert.Equal(t, "a@b.com", s.User.Email)
	assert.Equal(t, "tok-a@b.com", creds.Get())
	v, _ := storedToken(t, kv)
	assert.Equal(t, "tok-a@b.com", v)
}

func TestLoginFailureLeavesSessionUnchanged(t *testing.T) {
	c, backend, creds, kv := setup(t)
	backend.addUser("a@b.com", "pw")
	c.Start(context.Background())

	_, err := c.Login(context.Background(), "a@b.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Incorrect email or password", err.Error())
	assert.Equal(t, Unauthenticated, c.Session().Status)
	assert.Equal(t, "", creds.Get())
	_, ok := storedToken(t, kv)
	assert.False(t, ok)
}

func TestLoginIdentityFailureRestoresCredential(t *testing.T) {
	t.Run("from unauthenticated", func(t *testing.T) {
		c, backend, creds, kv := setup(t)
		backend.addUser("a@b.com", "pw")
		c.Start(context.Background())
		backend.meErr = errRejected

		_, err := c.Login(context.Background(), "a@b.com", "pw")
		require.ErrorIs(t, err, api.ErrUnauthorized)
		assert.Equal(t, Unauthenticated, c.Session().Status)
		assert.Equal(t, "", creds.Get())
		_, ok := storedToken(t, kv)
		assert.False(t, ok, "unconfirmed credential must not stay persisted")
	})

	t.Run("from authenticated", func(t *testing.T) {
		c, backend, creds, kv := setup(t)
		backend.addUser("a@b.com", "pw")
		backend.addUser("c@d.com", "pw2")
		c.Start(context.Background())
		_, err := c.Login(context.Background(), "a@b.com", "pw")
		require.NoError(t, err)

		backend.meErr = errRejected
		_, err = c.Login(context.Background(), "c@d.com", "pw2")
		require.Error(t, err)

		s := c.Session()
		assert.Equal(t, Authenticated, s.Status)
		assert.Equal(t, "a@b.com", s.User.Email)
		assert.Equal(t, "tok-a@b.com", creds.Get())
		v, _ := storedToken(t, kv)
		assert.Equal(t, "tok-a@b.com", v)
	})
}

func TestSignupThenLogin(t *testing.T) {
	c, _, creds, _ := setup(t)
	c.Start(context.Background())

	user, err := c.Signup(context.Background(), "new@b.com", "pw", model.Ptr("Ada"))
	require.NoError(t, err)
	assert.Equal(t, "new@b.com", user.Email)
	assert.Equal(t, "Ada", *user.Name)
	assert.Equal(t, Authenticated, c.Session().Status)
	assert.Equal(t, "tok-new@b.com", creds.Get())
}

func TestSignupFailureSkipsLogin(t *testing.T) {
	c, backend, _, _ := setup(t)
	backend.addUser("a@b.com", "pw")
	c.Start(context.Background())
	backend.loginErr = errors.New("login must not be called")

	_, err := c.Signup(context.Background(), "a@b.com", "pw", nil)
	require.Error(t, err)
	assert.Equal(t, "Email already registered", err.Error())
	assert.Equal(t, Unauthenticated, c.Session().Status)
}

func TestLogout(t *testing.T) {
	c, backend, creds, kv := setup(t)
	backend.addUser("a@b.com", "pw")
	c.Start(context.Background())
	_, err := c.Login(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)

	c.Logout(context.Background())
	assert.Equal(t, Session{Status: Unauthenticated}, c.Session())
	assert.Equal(t, "", creds.Get())
	_, ok := storedToken(t, kv)
	assert.False(t, ok)
}

func TestSubscribersSeeUpdateBeforeReturn(t *testing.T) {
	c, backend, _, _ := setup(t)
	backend.addUser("a@b.com", "pw")

	var seen []Status
	unsubscribe := c.Subscribe(func(s Session) { seen = append(seen, s.Status) })

	c.Start(context.Background())
	assert.Equal(t, []Status{Unauthenticated}, seen)

	_, err := c.Login(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, []Status{Unauthenticated, Authenticated}, seen)

	_, err = c.Login(context.Background(), "a@b.com", "bad")
	require.Error(t, err)
	assert.Len(t, seen, 2, "failed login publishes nothing")

	unsubscribe()
	c.Logout(context.Background())
	assert.Len(t, seen, 2)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "loading", Loading.String())
	assert.Equal(t, "unauthenticated", Unauthenticated.String())
	assert.Equal(t, "authenticated", Authenticated.String())
	assert.Equal(t, "unknown", Status(42).String())
}

func TestLoginAgainstHTTPServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/auth/login":
			var body api.LoginRequest
			json.NewDecoder(r.Body).Decode(&body)
			if body.Email != "a@b.com" || body.Password != "pw" {
				w.WriteHeader(401)
				w.Write([]byte(`{"detail":"Incorrect email or password"}`))
				return
			}
			w.Write([]byte(`{"access_token":"jwt-1","token_type":"bearer"}`))
		case "/auth/me":
			if r.Header.Get("Authorization") != "Bearer jwt-1" {
				w.WriteHeader(401)
				w.Write([]byte(`{"detail":"Could not validate credentials"}`))
				return
			}
			w.Write([]byte(`{"id":"u1","email":"a@b.com","name":null,"createdAt":"2024-01-01T00:00:00Z"}`))
		default:
			w.WriteHeader(404)
		}
	}))
	t.Cleanup(srv.Close)

	creds := session.New(store.NewMemStore())
	client, err := api.New(srv.URL, creds)
	require.NoError(t, err)
	c := NewController(client, creds, nil)

	require.Equal(t, Unauthenticated, c.Start(context.Background()).Status)

	_, err = c.Login(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)
	s := c.Session()
	require.Equal(t, Authenticated, s.Status)
	assert.Equal(t, "a@b.com", s.User.Email)
}
