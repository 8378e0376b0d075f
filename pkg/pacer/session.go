// Package pacer talks to the PACER case management system: logging in,
// caching the session cookie, and resolving docket numbers to case ids.
package pacer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/laurel/pkg/redis"
	"github.com/Ramsey-B/laurel/pkg/tracing"
)

var (
	// ErrLoginFailed is returned when PACER rejects the credentials
	ErrLoginFailed = errors.New("pacer login failed")

	// ErrSessionNotFound is returned when no cached session exists
	ErrSessionNotFound = errors.New("cached pacer session not found")
)

const (
	// DefaultTTL is how long a cached session cookie is trusted
	DefaultTTL = 2 * time.Hour

	// CacheKey is the Redis key holding the shared session cookie
	CacheKey = "pacer:session"

	cookieName = "NextGenCSO"
)

// Config holds PACER credentials and endpoints
type Config struct {
	Username string
	Password string
	// AuthURL is the login endpoint. Defaults to the production PACER
	// authentication service.
	AuthURL string
	// Timeout bounds each HTTP call to PACER
	Timeout time.Duration
}

// Session is an authenticated PACER session cookie
type Session struct {
	Cookie    string    `json:"cookie"`
	CreatedAt time.Time `json:"created_at"`
}

// IsExpired reports whether the session is older than the ttl
func (s *Session) IsExpired(ttl time.Duration) bool {
	return time.Since(s.CreatedAt) > ttl
}

// SessionManager logs into PACER and hands out the shared session cookie.
// The cookie is cached in Redis so workers share one login; when Redis is
// unavailable the manager falls back to a process-local copy.
type SessionManager struct {
	cfg    Config
	client *http.Client
	cache  *redis.Client
	logger ectologger.Logger

	mu    sync.Mutex
	local *Session
}

// NewSessionManager creates a session manager. cache may be nil.
func NewSessionManager(cfg Config, cache *redis.Client, logger ectologger.Logger) *SessionManager {
	if cfg.AuthURL == "" {
		cfg.AuthURL = "https://pacer.login.uscourts.gov/services/cso-auth"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &SessionManager{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		cache:  cache,
		logger: logger,
	}
}

// GetSession returns a valid session, logging in if none is cached
func (m *SessionManager) GetSession(ctx context.Context) (*Session, error) {
	ctx, span := tracing.StartSpan(ctx, "pacer.SessionManager.GetSession")
	defer span.End()

	if session, err := m.cached(ctx); err == nil && !session.IsExpired(DefaultTTL) {
		return session, nil
	}

	return m.Refresh(ctx)
}

// Refresh discards any cached session and logs in again
func (m *SessionManager) Refresh(ctx context.Context) (*Session, error) {
	ctx, span := tracing.StartSpan(ctx, "pacer.SessionManager.Refresh")
	defer span.End()

	session, err := m.login(ctx)
	if err != nil {
		return nil, err
	}

	m.store(ctx, session)
	m.logger.WithContext(ctx).Info("Refreshed PACER session")
	return session, nil
}

// RefreshLogin renews the login, discarding the returned session. Batch
// drivers use this to keep long runs on a fresh cookie.
func (m *SessionManager) RefreshLogin(ctx context.Context) error {
	_, err := m.Refresh(ctx)
	return err
}

type loginRequest struct {
	LoginID  string `json:"loginId"`
	Password string `json:"password"`
}

type loginResponse struct {
	NextGenCSO   string `json:"nextGenCSO"`
	LoginResult  string `json:"loginResult"`
	ErrorDescrip string `json:"errorDescription"`
}

func (m *SessionManager) login(ctx context.Context) (*Session, error) {
	body, err := json.Marshal(loginRequest{LoginID: m.cfg.Username, Password: m.cfg.Password})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.AuthURL, strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		m.logger.WithContext(ctx).WithError(err).Error("PACER login request failed")
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		m.logger.WithContext(ctx).WithFields(map[string]any{"status": resp.StatusCode}).Error("PACER login returned non-200")
		return nil, fmt.Errorf("%w: status %d", ErrLoginFailed, resp.StatusCode)
	}

	var result loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	if result.LoginResult != "0" || result.NextGenCSO == "" {
		m.logger.WithContext(ctx).WithFields(map[string]any{"error": result.ErrorDescrip}).Error("PACER rejected login")
		return nil, fmt.Errorf("%w: %s", ErrLoginFailed, result.ErrorDescrip)
	}

	return &Session{
		Cookie:    result.NextGenCSO,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (m *SessionManager) cached(ctx context.Context) (*Session, error) {
	if m.cache != nil {
		raw, err := m.cache.Get(ctx, CacheKey)
		if err == nil {
			var session Session
			if err := json.Unmarshal([]byte(raw), &session); err == nil {
				return &session, nil
			}
		} else if !redis.IsNil(err) {
			m.logger.WithContext(ctx).WithError(err).Warn("Failed to read PACER session from cache")
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.local != nil {
		return m.local, nil
	}
	return nil, ErrSessionNotFound
}

func (m *SessionManager) store(ctx context.Context, session *Session) {
	m.mu.Lock()
	m.local = session
	m.mu.Unlock()

	if m.cache == nil {
		return
	}
	raw, err := json.Marshal(session)
	if err != nil {
		return
	}
	if err := m.cache.Set(ctx, CacheKey, string(raw), DefaultTTL); err != nil {
		m.logger.WithContext(ctx).WithError(err).Warn("Failed to cache PACER session")
	}
}

// Apply sets the session cookie on an outgoing PACER request
func (s *Session) Apply(req *http.Request) {
	req.AddCookie(&http.Cookie{Name: cookieName, Value: s.Cookie})
}

// CourtHost returns the ECF hostname for a court
func CourtHost(courtID string) string {
	return fmt.Sprintf("ecf.%s.uscourts.gov", url.PathEscape(courtID))
}
