package web

import (
	"net/http"
	"slices"

	"github.com/gorilla/securecookie"
)

const sessionName = "brunch_runs"

// SessionManager remembers which runs a browser generated.
type SessionManager struct {
	sc    *securecookie.SecureCookie
	limit int
}

// NewSessionManager signs and encrypts the cookie with the given keys.
// Random keys are generated when hashKey is empty, so cookies do not
// survive a restart.
func NewSessionManager(hashKey, blockKey []byte, limit int) *SessionManager {
	if len(hashKey) == 0 {
		hashKey = securecookie.GenerateRandomKey(64)
		blockKey = securecookie.GenerateRandomKey(32)
	}
	if limit <= 0 {
		limit = 1
	}
	return &SessionManager{sc: securecookie.New(hashKey, blockKey), limit: limit}
}

// RunIDs returns the runs owned by the requesting browser, newest first.
func (s *SessionManager) RunIDs(r *http.Request) []string {
	c, err := r.Cookie(sessionName)
	if err != nil {
		return nil
	}
	var ids []string
	if err := s.sc.Decode(sessionName, c.Value, &ids); err != nil {
		return nil
	}
	return ids
}

// Owns reports whether the requesting browser generated run id.
func (s *SessionManager) Owns(r *http.Request, id string) bool {
	return slices.Contains(s.RunIDs(r), id)
}

// AddRunID records id in the cookie, dropping the oldest ids past the limit.
func (s *SessionManager) AddRunID(w http.ResponseWriter, r *http.Request, id string) error {
	ids := append([]string{id}, s.RunIDs(r)...)
	if len(ids) > s.limit {
		ids = ids[:s.limit]
	}
	encoded, err := s.sc.Encode(sessionName, ids)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name: sessionName, Value: encoded, Path: "/",
		HttpOnly: true, SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear drops the cookie.
func (s *SessionManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name: sessionName, Value: "", Path: "/", MaxAge: -1,
		HttpOnly: true, SameSite: http.SameSiteLaxMode,
	})
}
