package auth

import (
	"context"
	"crypto/rsa"
	"crypto/subtle"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ClientID is the subject reported for callers that present the shared secret.
const ClientID = "puch-client"

// Authenticator validates a bearer credential and hands out a grant for it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*AccessGrant, bool)
}

// AccessGrant is what a successful authentication yields. It lives for the
// duration of one call and is never stored.
type AccessGrant struct {
	Subject   string
	Scopes    []string
	ExpiresAt *time.Time
}

// HasScope reports whether the grant covers scope, honouring the "*" wildcard.
func (g *AccessGrant) HasScope(scope string) bool {
	for _, s := range g.Scopes {
		if s == "*" || s == scope {
			return true
		}
	}

	return false
}

/*
TokenAuthenticator accepts exactly one shared secret. The comparison is
constant time but otherwise plain equality: no trimming, no case folding.
*/
type TokenAuthenticator struct {
	secret []byte
}

func NewTokenAuthenticator(secret string) *TokenAuthenticator {
	return &TokenAuthenticator{secret: []byte(secret)}
}

func (a *TokenAuthenticator) Authenticate(
	_ context.Context, token string,
) (*AccessGrant, bool) {
	if len(a.secret) == 0 {
		return nil, false
	}

	if subtle.ConstantTimeCompare([]byte(token), a.secret) != 1 {
		return nil, false
	}

	return &AccessGrant{
		Subject: ClientID,
		Scopes:  []string{"*"},
	}, true
}

/*
JWTAuthenticator verifies RS256 bearer tokens against a single public key.
Issuer and audience are only checked when configured.
*/
type JWTAuthenticator struct {
	key    *rsa.PublicKey
	parser *jwt.Parser
}

func NewJWTAuthenticator(key *rsa.PublicKey, issuer, audience string) *JWTAuthenticator {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
	}

	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}

	return &JWTAuthenticator{
		key:    key,
		parser: jwt.NewParser(opts...),
	}
}

// LoadPublicKey reads a PEM encoded RSA public key from path.
func LoadPublicKey(path string) (*rsa.PublicKey, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read public key: %w", err)
	}

	key, err := jwt.ParseRSAPublicKeyFromPEM(buf)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}

	return key, nil
}

type scopedClaims struct {
	Scope string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

func (a *JWTAuthenticator) Authenticate(
	_ context.Context, token string,
) (*AccessGrant, bool) {
	claims := &scopedClaims{}

	parsed, err := a.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return a.key, nil
	})

	if err != nil || !parsed.Valid {
		return nil, false
	}

	grant := &AccessGrant{
		Subject: claims.Subject,
		Scopes:  strings.Fields(claims.Scope),
	}

	if len(grant.Scopes) == 0 {
		grant.Scopes = []string{"*"}
	}

	if claims.ExpiresAt != nil {
		expires := claims.ExpiresAt.Time
		grant.ExpiresAt = &expires
	}

	return grant, true
}
