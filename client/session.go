package client

import (
	"context"
	"errors"
	"sync"
)

// Session tracks whether the API's cookie jar holds a valid session. It is
// created once, initialised once with Init and then passed to whatever needs
// to know the signed-in user.
type Session struct {
	api *API

	mu          sync.RWMutex
	initialized bool
	userID      string
}

func NewSession(api *API) *Session {
	return &Session{api: api}
}

// Init asks the server whether the current cookie is still valid. Only the
// first call contacts the server. An expired or missing session is not an
// error.
func (s *Session) Init(ctx context.Context) error {
	s.mu.RLock()
	done := s.initialized
	s.mu.RUnlock()
	if done {
		return nil
	}

	userID, err := s.api.Validate(ctx)
	if err != nil && !errors.Is(err, ErrUnauthenticated) {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		s.initialized = true
		s.userID = userID
	}
	return nil
}

func (s *Session) Login(ctx context.Context, email, password string) error {
	userID, err := s.api.Login(ctx, email, password)
	if err != nil {
		return err
	}
	s.set(userID)
	return nil
}

func (s *Session) Register(ctx context.Context, req RegisterRequest) error {
	userID, err := s.api.Register(ctx, req)
	if err != nil {
		return err
	}
	s.set(userID)
	return nil
}

// Logout clears local state even when the server cannot be reached; the
// cookie is then left to expire.
func (s *Session) Logout(ctx context.Context) error {
	s.set("")
	return s.api.Logout(ctx)
}

func (s *Session) LoggedIn() bool {
	return s.UserID() != ""
}

func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

func (s *Session) set(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initialized = true
	s.userID = userID
}
