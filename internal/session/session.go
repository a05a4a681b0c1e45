package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	SessionCookie  = "session"
	RememberCookie = "remember_token"
	ConsentCookie  = "consent"

	KindSession  = "session"
	KindRemember = "remember"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims identify the user; Kind keeps remember tokens from being used as
// short-lived session tokens and the other way round.
type Claims struct {
	Role string `json:"role"`
	Kind string `json:"kind"`
	jwt.RegisteredClaims
}

type Options struct {
	Secret      string
	SessionTTL  time.Duration
	RememberTTL time.Duration
	ConsentTTL  time.Duration
	Secure      bool
}

// Manager issues and verifies HS256 tokens and writes the auth cookies.
type Manager struct {
	secret      []byte
	sessionTTL  time.Duration
	rememberTTL time.Duration
	consentTTL  time.Duration
	secure      bool
	now         func() time.Time
}

func NewManager(opts Options) *Manager {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = time.Hour
	}
	if opts.RememberTTL <= 0 {
		opts.RememberTTL = 365 * 24 * time.Hour
	}
	if opts.ConsentTTL <= 0 {
		opts.ConsentTTL = 30 * 24 * time.Hour
	}
	return &Manager{
		secret:      []byte(opts.Secret),
		sessionTTL:  opts.SessionTTL,
		rememberTTL: opts.RememberTTL,
		consentTTL:  opts.ConsentTTL,
		secure:      opts.Secure,
		now:         time.Now,
	}
}

// Issue signs a token of the given kind for userID.
func (m *Manager) Issue(userID uuid.UUID, role, kind string) (string, time.Time, error) {
	ttl := m.sessionTTL
	if kind == KindRemember {
		ttl = m.rememberTTL
	}
	now := m.now()
	expiresAt := now.Add(ttl)

	claims := Claims{
		Role: role,
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Parse verifies tokenString and checks that it is of the expected kind.
func (m *Manager) Parse(tokenString, kind string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Kind != kind {
		return nil, ErrInvalidToken
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (m *Manager) SetSessionCookie(c *gin.Context, token string) {
	m.setCookie(c, SessionCookie, token, m.sessionTTL, true)
}

func (m *Manager) SetRememberCookie(c *gin.Context, token string) {
	m.setCookie(c, RememberCookie, token, m.rememberTTL, true)
}

// ClearAuthCookies expires both the session and the remember cookie.
func (m *Manager) ClearAuthCookies(c *gin.Context) {
	m.setCookie(c, SessionCookie, "", -1, true)
	m.setCookie(c, RememberCookie, "", -1, true)
}

func (m *Manager) SetConsent(c *gin.Context) {
	m.setCookie(c, ConsentCookie, "yes", m.consentTTL, false)
}

func (m *Manager) ClearConsent(c *gin.Context) {
	m.setCookie(c, ConsentCookie, "", -1, false)
}

func (m *Manager) setCookie(c *gin.Context, name, value string, ttl time.Duration, httpOnly bool) {
	maxAge := int(ttl / time.Second)
	if ttl < 0 {
		maxAge = -1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", "", m.secure, httpOnly)
}
