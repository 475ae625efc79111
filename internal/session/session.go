package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/rskariadi-dev/manrura/internal/domain"
)

// CurrentUserKey is the well-known key the signed-in user is persisted under.
const CurrentUserKey = "manrura_currentUser"

var ErrCredentials = errors.New("email and password are required")

// Store is where the session is persisted between runs.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// Verifier checks credentials against the known users and returns the user and a signed token.
type Verifier interface {
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
}

type persisted struct {
	User  domain.User `json:"user"`
	Token string      `json:"token"`
}

// Session is the authenticated state of one client. The zero value is signed out.
type Session struct {
	mu    sync.RWMutex
	user  *domain.User
	token string
}

func (s *Session) CurrentUser() (*domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil, false
	}
	u := *s.user
	return &u, true
}

// Token returns the bearer token for the remote API, empty when signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) set(u *domain.User, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = u
	s.token = token
}

// Authenticator owns the session lifecycle: Init, Login, Logout.
type Authenticator struct {
	store    Store
	verifier Verifier
	session  *Session
	logger   *slog.Logger
}

func NewAuthenticator(store Store, verifier Verifier, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{
		store:    store,
		verifier: verifier,
		session:  &Session{},
		logger:   logger,
	}
}

func (a *Authenticator) Session() *Session {
	return a.session
}

// Init restores the persisted user. Anything unreadable leaves the session signed out.
func (a *Authenticator) Init() *Session {
	data, err := a.store.Get(CurrentUserKey)
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			a.logger.Warn("failed to read session", "error", err)
		}
		a.session.set(nil, "")
		return a.session
	}

	var p persisted
	if err := json.Unmarshal(data, &p); err != nil || p.User.ID == "" {
		a.logger.Warn("discarding unreadable session", "error", err)
		a.session.set(nil, "")
		return a.session
	}

	u := p.User.Sanitized()
	a.session.set(&u, p.Token)
	return a.session
}

func (a *Authenticator) Login(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrCredentials
	}

	user, token, err := a.verifier.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	u := user.Sanitized()
	data, err := json.Marshal(persisted{User: u, Token: token})
	if err != nil {
		return nil, err
	}
	if err := a.store.Set(CurrentUserKey, data); err != nil {
		a.logger.Warn("failed to persist session", "error", err)
	}

	a.session.set(&u, token)
	return &u, nil
}

func (a *Authenticator) Logout() error {
	a.session.set(nil, "")
	return a.store.Delete(CurrentUserKey)
}
