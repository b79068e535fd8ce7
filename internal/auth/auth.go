// Package auth owns the session lifecycle. The Controller is the only code
// that writes the credential.
package auth

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/rcliao/synapse/internal/api"
	"github.com/rcliao/synapse/internal/logging"
	"github.com/rcliao/synapse/internal/model"
)

// Status is the session state tag.
type Status int

const (
	Loading Status = iota
	Unauthenticated
	Authenticated
)

func (s Status) String() string {
	switch s {
	case Loading:
		return "loading"
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	}
	return "unknown"
}

// Session describes whether, and as whom, the user is signed in.
// User is set only when Status is Authenticated.
type Session struct {
	Status Status
	User   *model.User
}

// Backend is the subset of the API the controller drives.
type Backend interface {
	Login(ctx context.Context, email, password string) (*model.Token, error)
	Signup(ctx context.Context, req api.SignupRequest) (*model.User, error)
	Me(ctx context.Context) (*model.User, error)
}

// Credentials holds the bearer token the Backend sends.
type Credentials interface {
	Load(ctx context.Context) error
	Get() string
	Set(ctx context.Context, token string) error
}

// Controller publishes Session changes to subscribers. Writers are
// serialized; readers never block on network calls.
type Controller struct {
	backend Backend
	creds   Credentials
	log     *zap.Logger

	// ops serializes Start, Login, Signup and Logout.
	ops       sync.Mutex
	startOnce sync.Once
	ready     chan struct{}

	mu      sync.RWMutex
	session Session
	subs    map[int]func(Session)
	nextSub int
}

// NewController returns a controller in the Loading state.
func NewController(backend Backend, creds Credentials, log *zap.Logger) *Controller {
	return &Controller{
		backend: backend,
		creds:   creds,
		log:     logging.OrNop(log),
		ready:   make(chan struct{}),
		subs:    map[int]func(Session){},
	}
}

// Session returns the current value.
func (c *Controller) Session() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// Ready is closed once Start has settled the session.
func (c *Controller) Ready() <-chan struct{} {
	return c.ready
}

// Subscribe registers fn to be called with every new Session. Calls happen
// before the operation that caused them returns. The returned func removes fn.
func (c *Controller) Subscribe(fn func(Session)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

func (c *Controller) publish(s Session) {
	c.mu.Lock()
	prev := c.session.Status
	c.session = s
	fns := make([]func(Session), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	fields := []zap.Field{zap.Stringer("from", prev), zap.Stringer("to", s.Status)}
	if s.User != nil {
		fields = append(fields, zap.String("user_id", s.User.ID))
	}
	c.log.Info("session changed", fields...)

	for _, fn := range fns {
		fn(s)
	}
}

// Start restores the persisted credential and settles the session. It runs
// once; later calls wait for the first and return the current session.
// A credential the server rejects is cleared, never surfaced as an error.
func (c *Controller) Start(ctx context.Context) Session {
	c.startOnce.Do(func() {
		c.ops.Lock()
		defer c.ops.Unlock()
		defer close(c.ready)
		c.publish(c.restore(ctx))
	})
	<-c.ready
	return c.Session()
}

func (c *Controller) restore(ctx context.Context) Session {
	if err := c.creds.Load(ctx); err != nil {
		c.log.Warn("could not read stored credential", zap.Error(err))
		return Session{Status: Unauthenticated}
	}
	if c.creds.Get() == "" {
		return Session{Status: Unauthenticated}
	}

	user, err := c.backend.Me(ctx)
	if err != nil {
		c.log.Info("stored credential rejected", zap.Error(err))
		c.setCredential(ctx, "")
		return Session{Status: Unauthenticated}
	}
	return Session{Status: Authenticated, User: user}
}

// Login exchanges email and password for a credential and confirms it.
//
// The credential is stored before the identity check so the check can carry
// it. If the check fails the previous credential is put back and the session
// is left as it was.
func (c *Controller) Login(ctx context.Context, email, password string) (*model.User, error) {
	c.ops.Lock()
	defer c.ops.Unlock()
	return c.login(ctx, email, password)
}

func (c *Controller) login(ctx context.Context, email, password string) (*model.User, error) {
	tok, err := c.backend.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	prev := c.creds.Get()
	c.setCredential(ctx, tok.AccessToken)

	user, err := c.backend.Me(ctx)
	if err != nil {
		c.setCredential(ctx, prev)
		return nil, err
	}

	c.publish(Session{Status: Authenticated, User: user})
	return user, nil
}

// Signup creates an account and then logs in with the same credentials.
// The server does not hand out a credential on signup.
func (c *Controller) Signup(ctx context.Context, email, password string, name *string) (*model.User, error) {
	c.ops.Lock()
	defer c.ops.Unlock()

	if _, err := c.backend.Signup(ctx, api.SignupRequest{Email: email, Password: password, Name: name}); err != nil {
		return nil, err
	}
	return c.login(ctx, email, password)
}

// Logout forgets the credential. It always ends Unauthenticated.
func (c *Controller) Logout(ctx context.Context) {
	c.ops.Lock()
	defer c.ops.Unlock()

	c.setCredential(ctx, "")
	c.publish(Session{Status: Unauthenticated})
}

// setCredential updates the active credential. A failure to persist only
// affects later processes, so it is logged rather than returned.
func (c *Controller) setCredential(ctx context.Context, token string) {
	if err := c.creds.Set(ctx, token); err != nil {
		c.log.Warn("could not persist credential", zap.Error(err))
	}
}
