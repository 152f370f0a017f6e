package session

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTTL is the lifetime of an issued session token.
const DefaultTTL = 10 * time.Minute

var (
	// ErrInvalidToken covers bad signatures, malformed tokens and wrong algorithms.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned when the exp claim has passed.
	ErrTokenExpired = errors.New("token has expired")
)

// Subject is the authenticated identity a token is issued for.
type Subject struct {
	ID   int64
	NIC  string
	Name string
}

// Claims is the signed payload of a session token.
type Claims struct {
	ID   int64  `json:"id"`
	NIC  string `json:"nic"`
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// Token is a signed session token and its absolute expiry.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Issuer signs and verifies HS256 session tokens.
type Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer builds an Issuer. An empty secret is rejected.
func NewIssuer(secret []byte, issuer string, ttl time.Duration) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, errors.New("session: signing secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	key := make([]byte, len(secret))
	copy(key, secret)
	return &Issuer{secret: key, issuer: issuer, ttl: ttl, now: time.Now}, nil
}

// TTL returns the configured token lifetime.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue signs a token for s that expires after the configured TTL.
func (i *Issuer) Issue(s Subject) (Token, error) {
	now := i.now()
	exp := now.Add(i.ttl)
	claims := Claims{
		ID:   s.ID,
		NIC:  s.NIC,
		Name: s.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(s.ID, 10),
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign session token: %w", err)
	}
	return Token{Value: signed, ExpiresAt: exp.Truncate(time.Second)}, nil
}

// Parse verifies the signature and expiry of token and returns its claims.
func (i *Issuer) Parse(token string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (any, error) {
		return i.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
