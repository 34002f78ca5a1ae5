// Package account keeps the signed-in session and the cached profile of the
// terminal client in the local store.
package account

import (
	"encoding/json"
	"errors"
	"fmt"

	"focusmate/internal/localstore"
)

const (
	SessionKey = "focusmate_session_v1"
	ProfileKey = "focusmate_profile_v1"
)

// ErrNoSession is returned by LoadSession when nobody is signed in.
var ErrNoSession = errors.New("not signed in")

// Session is what the client needs to call the backend as the user.
type Session struct {
	Token     string `json:"token"`
	ServerURL string `json:"serverUrl"`
}

// Profile is the cached copy of the signed-in user.
type Profile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Image string `json:"image"`
}

// Store wraps the local store keys owned by this package.
type Store struct {
	ls *localstore.Store
}

func NewStore(ls *localstore.Store) *Store {
	return &Store{ls: ls}
}

func (s *Store) SaveSession(sess Session) error {
	return s.put(SessionKey, sess)
}

// LoadSession returns ErrNoSession when no usable session is stored.
func (s *Store) LoadSession() (Session, error) {
	var sess Session
	if err := s.get(SessionKey, &sess); err != nil {
		return Session{}, err
	}
	if sess.Token == "" {
		return Session{}, ErrNoSession
	}
	return sess, nil
}

func (s *Store) SaveProfile(p Profile) error {
	return s.put(ProfileKey, p)
}

// LoadProfile returns ErrNoSession when no profile is cached.
func (s *Store) LoadProfile() (Profile, error) {
	var p Profile
	if err := s.get(ProfileKey, &p); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Clear forgets the session and the cached profile.
func (s *Store) Clear() error {
	if err := s.ls.Remove(SessionKey); err != nil {
		return err
	}
	return s.ls.Remove(ProfileKey)
}

func (s *Store) put(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.ls.Set(key, data)
}

// get treats a missing or corrupt value as no session.
func (s *Store) get(key string, v any) error {
	data, err := s.ls.Get(key)
	if errors.Is(err, localstore.ErrNotFound) {
		return ErrNoSession
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return ErrNoSession
	}
	return nil
}
