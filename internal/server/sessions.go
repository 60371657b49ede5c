package server

import (
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/desertthunder/dclone/internal/services"
	"github.com/desertthunder/dclone/internal/shared"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// SessionCookie is the name of the cookie carrying the signed session reference.
const SessionCookie = "dclone_session"

const sessionTTL = 7 * 24 * time.Hour

// session is the server-side state of one browser.
type session struct {
	state   string
	token   *oauth2.Token
	store   services.RemoteStore
	taskIDs []string
}

// Sessions keeps browser sessions in memory, referenced by an HS256-signed JWT cookie.
//
// The cookie holds only the session id; tokens never leave the server.
type Sessions struct {
	mu       sync.Mutex
	secret   []byte
	sessions map[string]*session
	now      func() time.Time
}

// NewSessions creates an empty session table signing cookies with secret.
func NewSessions(secret string) (*Sessions, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: session_secret must be set", shared.ErrInvalidConfig)
	}
	return &Sessions{
		secret:   []byte(secret),
		sessions: map[string]*session{},
		now:      time.Now,
	}, nil
}

// ID returns the session id referenced by the request's cookie, if it is valid and known.
func (s *Sessions) ID(r *http.Request) (string, bool) {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return "", false
	}

	claims := &jwt.RegisteredClaims{}
	_, err = jwt.ParseWithClaims(c.Value, claims,
		func(t *jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[claims.Subject]; !ok {
		return "", false
	}
	return claims.Subject, true
}

// Ensure returns the request's session id, creating a session and setting its cookie when there is none.
func (s *Sessions) Ensure(w http.ResponseWriter, r *http.Request) (string, error) {
	if id, ok := s.ID(r); ok {
		return id, nil
	}

	id := shared.GenerateID()
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   id,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(sessionTTL)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("%w: failed to sign session: %v", shared.ErrInternal, err)
	}

	s.mu.Lock()
	s.sessions[id] = &session{}
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
		Expires:  now.Add(sessionTTL),
	})
	return id, nil
}

func (s *Sessions) with(id string, fn func(*session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		fn(sess)
	}
}

// SetState stores the pending OAuth state for id.
func (s *Sessions) SetState(id, state string) {
	s.with(id, func(sess *session) { sess.state = state })
}

// TakeState returns and clears the pending OAuth state for id.
func (s *Sessions) TakeState(id string) (state string) {
	s.with(id, func(sess *session) {
		state = sess.state
		sess.state = ""
	})
	return state
}

// SetToken stores token for id and drops any store built from an older token.
func (s *Sessions) SetToken(id string, token *oauth2.Token) {
	s.with(id, func(sess *session) {
		sess.token = token
		sess.store = nil
	})
}

// Token returns the token stored for id.
func (s *Sessions) Token(id string) (token *oauth2.Token) {
	s.with(id, func(sess *session) { token = sess.token })
	return token
}

// Store returns the remote store for id, building it once with build.
func (s *Sessions) Store(id string, build func(*oauth2.Token) (services.RemoteStore, error)) (services.RemoteStore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok || sess.token == nil {
		return nil, shared.ErrNotAuthenticated
	}
	if sess.store == nil {
		store, err := build(sess.token)
		if err != nil {
			return nil, err
		}
		sess.store = store
	}
	return sess.store, nil
}

// AddTask remembers that id started taskID.
func (s *Sessions) AddTask(id, taskID string) {
	s.with(id, func(sess *session) { sess.taskIDs = append(sess.taskIDs, taskID) })
}

// Tasks returns the task ids started by id, oldest first.
func (s *Sessions) Tasks(id string) (ids []string) {
	s.with(id, func(sess *session) { ids = slices.Clone(sess.taskIDs) })
	return ids
}
