package auth

import (
	"net/http"

	"github.com/gorilla/sessions"

	"linkdesk/internal/config"
	"linkdesk/internal/models"
)

const (
	sessionUserKey = "user_id"
	sessionRoleKey = "role"
)

// Sessions wraps the cookie store used for login state.
type Sessions struct {
	store *sessions.CookieStore
	name  string
}

func NewSessions(cfg config.SessionConfig) *Sessions {
	store := sessions.NewCookieStore([]byte(cfg.Secret))
	store.Options.HttpOnly = true
	store.Options.SameSite = http.SameSiteLaxMode
	store.Options.Path = "/"
	store.Options.MaxAge = cfg.MaxAge
	return &Sessions{store: store, name: cfg.Name}
}

// SaveUser records a successful login in the session cookie.
func (s *Sessions) SaveUser(w http.ResponseWriter, r *http.Request, user *models.User) error {
	session, _ := s.store.Get(r, s.name)
	session.Values[sessionUserKey] = user.ID
	session.Values[sessionRoleKey] = user.Role
	return session.Save(r, w)
}

// Clear logs the session out by expiring the cookie.
func (s *Sessions) Clear(w http.ResponseWriter, r *http.Request) error {
	session, _ := s.store.Get(r, s.name)
	session.Values = map[interface{}]interface{}{}
	session.Options.MaxAge = -1
	return session.Save(r, w)
}

// Current returns the logged-in user's ID and role, or "" when anonymous.
func (s *Sessions) Current(r *http.Request) (userID, role string) {
	session, err := s.store.Get(r, s.name)
	if err != nil {
		return "", ""
	}
	userID, _ = session.Values[sessionUserKey].(string)
	role, _ = session.Values[sessionRoleKey].(string)
	return userID, role
}
