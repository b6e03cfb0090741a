// Package token encodes and decodes the signed JWT artifacts issued by the
// authentication core.
//
// The codec verifies the signature before trusting any claim: expiry and
// blacklist decisions downstream only ever see claims from a token that
// passed signature verification. Rotating the signing key invalidates every
// previously issued token; that is an operational concern documented on
// [Config], not something the codec compensates for.
package token

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Kind discriminates access from refresh tokens via the token_type claim.
type Kind string

const (
	// KindAccess marks short-lived tokens presented on every request.
	KindAccess Kind = "access"
	// KindRefresh marks long-lived tokens exchanged for new pairs.
	KindRefresh Kind = "refresh"
)

// SigningMethod selects the signature algorithm.
type SigningMethod string

const (
	// MethodHS256 signs with a shared secret.
	MethodHS256 SigningMethod = "hs256"
	// MethodEd25519 signs with an Ed25519 key pair.
	MethodEd25519 SigningMethod = "ed25519"
)

var (
	// ErrExpired is returned for a structurally valid, correctly signed
	// token whose expiry has passed.
	ErrExpired = errors.New("token expired")
	// ErrSignature is returned when signature verification fails.
	ErrSignature = errors.New("token signature invalid")
	// ErrMalformed is returned for tokens that cannot be parsed at all.
	ErrMalformed = errors.New("token malformed")
	// ErrSigning is returned when a token cannot be issued from the given
	// claims.
	ErrSigning = errors.New("token signing failed")
)

// Config holds the signing material and verification hardening knobs.
// Key and algorithm are fixed at construction; rotation requires building a
// new Codec and accepts that all outstanding tokens become invalid.
type Config struct {
	Method       SigningMethod
	Secret       []byte // HS256
	PrivateKey   []byte // Ed25519, raw or PEM
	PublicKey    []byte // Ed25519, raw or PEM
	Issuer       string
	Leeway       time.Duration
	MaxFutureIAT time.Duration
}

// Claims is the payload carried by every issued token. Immutable once
// signed; the jti (RegisteredClaims.ID) is the revocation key.
type Claims struct {
	UserID     string `json:"user_id"`
	TokenType  Kind   `json:"token_type"`
	Email      string `json:"email,omitempty"`
	IsStaff    bool   `json:"is_staff,omitempty"`
	IsVerified bool   `json:"is_verified,omitempty"`
	jwt.RegisteredClaims
}

// Codec signs and verifies token claims with a fixed method and key.
type Codec struct {
	config Config
}

// normalizeMethod folds the accepted spellings ("HS256", "EdDSA",
// "ed25519", any case) onto the canonical constants. An empty method
// means HS256.
func normalizeMethod(m SigningMethod) (SigningMethod, error) {
	switch strings.ToLower(string(m)) {
	case "", "hs256":
		return MethodHS256, nil
	case "ed25519", "eddsa":
		return MethodEd25519, nil
	default:
		return "", errors.New("unsupported signing method")
	}
}

// NewCodec validates cfg and returns a ready Codec.
func NewCodec(cfg Config) (*Codec, error) {
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.MaxFutureIAT == 0 {
		cfg.MaxFutureIAT = 10 * time.Minute
	}
	if cfg.MaxFutureIAT < 0 || cfg.MaxFutureIAT > 24*time.Hour {
		return nil, errors.New("invalid MaxFutureIAT configuration")
	}

	method, err := normalizeMethod(cfg.Method)
	if err != nil {
		return nil, err
	}
	cfg.Method = method

	switch cfg.Method {
	case MethodHS256:
		if len(cfg.Secret) < 32 {
			return nil, errors.New("hs256 requires a secret of at least 32 bytes")
		}
	case MethodEd25519:
		if _, err := parseEdPrivateKey(cfg.PrivateKey); err != nil {
			return nil, err
		}
		if _, err := parseEdPublicKey(cfg.PublicKey); err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("unsupported signing method")
	}

	return &Codec{config: cfg}, nil
}

// Sign serializes and signs claims. The caller supplies subject, jti, kind,
// and expiry; issuer is stamped from the codec configuration.
func (c *Codec) Sign(claims *Claims) (string, error) {
	if claims == nil || claims.UserID == "" || claims.ID == "" {
		return "", fmt.Errorf("%w: missing subject or token id", ErrSigning)
	}
	if claims.TokenType != KindAccess && claims.TokenType != KindRefresh {
		return "", fmt.Errorf("%w: unknown token kind %q", ErrSigning, claims.TokenType)
	}
	if claims.ExpiresAt == nil {
		return "", fmt.Errorf("%w: missing expiry", ErrSigning)
	}

	claims.Issuer = c.config.Issuer
	if claims.Subject == "" {
		claims.Subject = claims.UserID
	}

	tok := jwt.NewWithClaims(c.method(), claims)
	signed, err := tok.SignedString(c.signKey())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSigning, err)
	}
	return signed, nil
}

// Parse verifies signature, algorithm, issuer, and expiry, and returns the
// decoded claims. Errors are classified as ErrExpired, ErrSignature, or
// ErrMalformed so callers can map them without string matching.
func (c *Codec) Parse(tokenStr string) (*Claims, error) {
	if strings.TrimSpace(tokenStr) == "" {
		return nil, ErrMalformed
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{c.method().Alg()}),
	}
	if c.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(c.config.Leeway))
	}
	if c.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(c.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	tok, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != c.method().Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return c.verifyKey()
	})
	if err != nil {
		return nil, classifyParseError(err)
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, ErrMalformed
	}
	if claims.IssuedAt != nil && c.config.MaxFutureIAT > 0 {
		if claims.IssuedAt.Time.After(time.Now().Add(c.config.MaxFutureIAT)) {
			return nil, fmt.Errorf("%w: iat too far in the future", ErrMalformed)
		}
	}

	return claims, nil
}

func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrSignature
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}

func (c *Codec) method() jwt.SigningMethod {
	switch c.config.Method {
	case MethodEd25519:
		return jwt.SigningMethodEdDSA
	default:
		return jwt.SigningMethodHS256
	}
}

func (c *Codec) signKey() interface{} {
	switch c.config.Method {
	case MethodEd25519:
		key, _ := parseEdPrivateKey(c.config.PrivateKey)
		return key
	default:
		return c.config.Secret
	}
}

func (c *Codec) verifyKey() (interface{}, error) {
	switch c.config.Method {
	case MethodEd25519:
		return parseEdPublicKey(c.config.PublicKey)
	default:
		return c.config.Secret, nil
	}
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
