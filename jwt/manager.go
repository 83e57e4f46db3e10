package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenMalformed is returned when a token cannot be decoded.
	ErrTokenMalformed = errors.New("malformed token")
	// ErrTokenInvalid is returned when a token fails verification.
	ErrTokenInvalid = errors.New("invalid token")
)

// Config configures a [Manager].
type Config struct {
	Secret []byte
	TTL    time.Duration
	Issuer string
	Leeway time.Duration
}

// Claims are the access-token claims issued by the notes service. The username is
// the subject.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Username returns the token subject.
func (c *Claims) Username() string {
	return c.Subject
}

// Expiry returns the expiry time, zero when the token has none.
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// Expired reports whether the token expired before now.
func (c *Claims) Expired(now time.Time) bool {
	exp := c.Expiry()
	return !exp.IsZero() && !now.Before(exp)
}

// Manager issues and verifies HS256 tokens.
type Manager struct {
	config Config
}

// NewManager validates cfg and returns a manager.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) < 32 {
		return nil, errors.New("hs256 secret must be at least 32 bytes")
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	return &Manager{config: cfg}, nil
}

// Issue signs a token for username with the given role.
func (m *Manager) Issue(username, role string) (string, error) {
	if username == "" {
		return "", errors.New("empty username")
	}
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.TTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.config.Secret)
}

// Parse verifies signature, algorithm, expiry and issuer.
func (m *Manager) Parse(tokenStr string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	token, err := jwt.NewParser(options...).ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return m.config.Secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// Inspect decodes claims without verifying the signature. Use it only to display
// what the server put in a token.
func Inspect(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
	return claims, nil
}
