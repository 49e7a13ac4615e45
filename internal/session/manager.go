package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"
)

type Session struct {
	ID   string
	Data *Data

	persisted bool
}

func (s *Session) UserID() string {
	return s.Data.UserID
}

func (s *Session) Authenticated() bool {
	return s.Data.UserID != ""
}

func (s *Session) AddFlash(kind, message string) {
	if s.Data.Flashes == nil {
		s.Data.Flashes = make(map[string][]string)
	}
	s.Data.Flashes[kind] = append(s.Data.Flashes[kind], message)
}

// PopFlashes returns all pending flash messages and clears them. The caller
// must save the session for the removal to stick.
func (s *Session) PopFlashes() map[string][]string {
	f := s.Data.Flashes
	s.Data.Flashes = nil
	return f
}

type Options struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

type Manager struct {
	store Store
	opts  Options
	now   func() time.Time
}

func NewManager(store Store, opts Options) *Manager {
	return &Manager{store: store, opts: opts, now: time.Now}
}

// Load returns the session named by the request cookie, or a fresh
// unsaved one when there is no cookie or the stored data is gone.
func (m *Manager) Load(r *http.Request) (*Session, error) {
	c, err := r.Cookie(m.opts.CookieName)
	if err != nil || c.Value == "" {
		return m.fresh()
	}

	data, err := m.store.Load(r.Context(), c.Value)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return m.fresh()
	}
	return &Session{ID: c.Value, Data: data, persisted: true}, nil
}

// Save persists the session and (re)sends its cookie.
func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if err := m.store.Save(ctx, s.ID, s.Data); err != nil {
		return err
	}
	s.persisted = true
	m.setCookie(w, s.ID, int(m.opts.TTL.Seconds()))
	return nil
}

// Login binds userID to the session under a new id, dropping the old one.
func (m *Manager) Login(ctx context.Context, w http.ResponseWriter, s *Session, userID string) error {
	if s.persisted {
		if err := m.store.Delete(ctx, s.ID); err != nil {
			return err
		}
	}

	id, err := newID()
	if err != nil {
		return err
	}
	s.ID = id
	s.persisted = false
	s.Data.UserID = userID
	s.Data.LastUsername = ""
	return m.Save(ctx, w, s)
}

// Logout destroys the session and expires the cookie. The returned session
// is a fresh anonymous one that can carry a flash to the next page.
func (m *Manager) Logout(ctx context.Context, w http.ResponseWriter, s *Session) (*Session, error) {
	if s.persisted {
		if err := m.store.Delete(ctx, s.ID); err != nil {
			return nil, err
		}
	}
	m.setCookie(w, "", -1)
	return m.fresh()
}

func (m *Manager) fresh() (*Session, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}
	return &Session{ID: id, Data: &Data{CreatedAt: m.now()}}, nil
}

func (m *Manager) setCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func newID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

type ctxKey struct{}

func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok
}
