package security

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"encoding/hex"
	"errors"
	"maps"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
)

var (
	// ErrInvalidToken is returned when a token is malformed, expired or signed by another issuer.
	ErrInvalidToken = errors.New("invalid token")
)

// Payload is the set of claims carried by an access token.
type Payload map[string]any

// Application claims carried in a Payload.
const (
	SubjectClaim = "sub" // recipient id
	RoleClaim    = "role"
	EmailClaim   = "email"
	PurposeClaim = "purpose"
)

// Token is an issued access token and the instant it stops being valid.
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
}

// Encrypter turns a payload into an opaque, signed access token.
type Encrypter interface {
	Encrypt(payload Payload) (Token, error)
}

// Decrypter verifies a token issued by an Encrypter and returns its payload.
type Decrypter interface {
	Decrypt(token string) (Payload, error)
}

// reserved claims are owned by the provider and cannot be overridden by the payload.
var reserved = []string{"iss", "aud", "iat", "nbf", "exp", "jti"}

// TokenProvider signs and verifies JWT access tokens using RS256 or ES256 (private/public key).
type TokenProvider struct {
	privateKey crypto.Signer
	publicKey  crypto.PublicKey
	issuer     string
	audience   string
	ttl        time.Duration
	clock      clockwork.Clock
}

// NewTokenProvider returns a TokenProvider that signs with the given private key (RS256 or ES256).
// issuer and audience are set on every token and checked on Decrypt.
func NewTokenProvider(privateKey crypto.Signer, publicKey crypto.PublicKey, issuer, audience string, ttl time.Duration, clock clockwork.Clock) *TokenProvider {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &TokenProvider{
		privateKey: privateKey,
		publicKey:  publicKey,
		issuer:     issuer,
		audience:   audience,
		ttl:        ttl,
		clock:      clock,
	}
}

// WithTTL returns a copy of the provider that issues tokens valid for ttl. Keys, issuer and
// audience are shared, so tokens of either provider verify with both.
func (p *TokenProvider) WithTTL(ttl time.Duration) *TokenProvider {
	cp := *p
	cp.ttl = ttl
	return &cp
}

// TTL returns the lifetime of issued tokens.
func (p *TokenProvider) TTL() time.Duration { return p.ttl }

// Encrypt signs payload together with iss, aud, iat, exp and a random jti.
func (p *TokenProvider) Encrypt(payload Payload) (Token, error) {
	jti, err := generateJTI()
	if err != nil {
		return Token{}, err
	}
	now := p.clock.Now().UTC().Truncate(time.Second)
	expiresAt := now.Add(p.ttl)

	claims := jwt.MapClaims{}
	maps.Copy(claims, payload)
	for _, k := range reserved {
		delete(claims, k)
	}
	claims["jti"] = jti
	claims["iss"] = p.issuer
	claims["aud"] = []string{p.audience}
	claims["iat"] = jwt.NewNumericDate(now)
	claims["exp"] = jwt.NewNumericDate(expiresAt)

	token, err := p.sign(claims)
	if err != nil {
		return Token{}, err
	}
	return Token{AccessToken: token, ExpiresAt: expiresAt}, nil
}

func (p *TokenProvider) sign(claims jwt.Claims) (string, error) {
	var method jwt.SigningMethod
	switch p.privateKey.Public().(type) {
	case *rsa.PublicKey:
		method = jwt.SigningMethodRS256
	case *ecdsa.PublicKey:
		method = jwt.SigningMethodES256
	default:
		return "", ErrInvalidToken
	}
	t := jwt.NewWithClaims(method, claims)
	return t.SignedString(p.privateKey)
}

// Decrypt parses and validates the token (signature, exp, iss, aud) and returns its claims.
func (p *TokenProvider) Decrypt(tokenString string) (Payload, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); ok {
			return p.publicKey, nil
		}
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); ok {
			return p.publicKey, nil
		}
		return nil, ErrInvalidToken
	},
		jwt.WithIssuer(p.issuer),
		jwt.WithAudience(p.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.clock.Now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return Payload(claims), nil
}

// String returns the string claim k, or "" if absent or not a string.
func (pl Payload) String(k string) string {
	s, _ := pl[k].(string)
	return s
}

func generateJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
