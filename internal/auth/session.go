package auth

import (
	"net/http"

	"github.com/gorilla/sessions"
)

const (
	SessionName     = "crm-session"
	SessionUsername = "username"
)

type SessionManager struct {
	store *sessions.CookieStore
}

func NewSessionManager(secret string, maxAge int, secure bool) *SessionManager {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionManager{store: store}
}

func (m *SessionManager) Get(r *http.Request) (*sessions.Session, error) {
	return m.store.Get(r, SessionName)
}

// SetUser stores only the username; role and language are re-read from the
// datastore on every request so changes apply immediately.
func (m *SessionManager) SetUser(w http.ResponseWriter, r *http.Request, username string) error {
	session, err := m.Get(r)
	if err != nil {
		return err
	}

	session.Values[SessionUsername] = username
	return session.Save(r, w)
}

func (m *SessionManager) GetUsername(r *http.Request) (string, bool) {
	session, err := m.Get(r)
	if err != nil {
		return "", false
	}

	username, ok := session.Values[SessionUsername].(string)
	return username, ok && username != ""
}

func (m *SessionManager) Clear(w http.ResponseWriter, r *http.Request) error {
	session, err := m.Get(r)
	if err != nil {
		return err
	}

	session.Values = make(map[interface{}]interface{})
	session.Options.MaxAge = -1

	return session.Save(r, w)
}
