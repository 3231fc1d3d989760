package token

import (
	"crypto/ed25519"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Kind distinguishes the two credential variants. It is embedded in the
// signed claims and immutable once issued.
type Kind string

const (
	// KindAccess is the short-lived credential authorizing API calls.
	KindAccess Kind = "access"
	// KindRefresh is the long-lived credential used only to mint new access
	// tokens.
	KindRefresh Kind = "refresh"
)

// SigningMethod selects the signature algorithm.
type SigningMethod string

const (
	// MethodHS256 signs with HMAC-SHA256 over a shared symmetric secret.
	MethodHS256 SigningMethod = "hs256"
	// MethodEd25519 signs with an Ed25519 key pair.
	MethodEd25519 SigningMethod = "ed25519"
)

var (
	// ErrMalformed is returned when the token structure cannot be parsed.
	ErrMalformed = errors.New("malformed token")
	// ErrInvalid is returned when signature or claim verification fails.
	ErrInvalid = errors.New("invalid token")
	// ErrExpired is returned when a correctly signed token is past expiry.
	ErrExpired = errors.New("token expired")
)

// Claims is the structured data embedded and signed inside a token.
// ExpiresAt must be strictly after IssuedAt; [Codec.Encode] enforces it.
type Claims struct {
	Kind  Kind              `json:"kind"`
	Extra map[string]string `json:"ext,omitempty"`
	jwt.RegisteredClaims
}

// NewClaims builds claims for one token of the given kind, expiring ttl
// after now. The jti must be unique per issued token.
func NewClaims(subject string, kind Kind, jti string, now time.Time, ttl time.Duration) *Claims {
	return &Claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

// Config holds the immutable codec parameters.
type Config struct {
	SigningMethod SigningMethod
	// Secret is the HMAC key for hs256.
	Secret []byte
	// PrivateKey/PublicKey hold the ed25519 pair (raw or PEM).
	PrivateKey []byte
	PublicKey  []byte
	// Issuer, when set, is stamped on encode and required on decode.
	Issuer string
	// Leeway is the explicit clock-skew grace window. Zero means strict.
	Leeway time.Duration
	// TimeFunc is the injected clock. Nil falls back to time.Now.
	TimeFunc func() time.Time
}

// Codec signs and verifies tokens against a fixed key and algorithm.
type Codec struct {
	config Config
}

// NewCodec validates the configuration and returns an immutable codec.
func NewCodec(cfg Config) (*Codec, error) {
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.Secret) == 0 {
			return nil, errors.New("hs256 requires a secret")
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
	if cfg.TimeFunc == nil {
		cfg.TimeFunc = time.Now
	}

	return &Codec{config: cfg}, nil
}

// Encode serializes claims into a signed, URL-safe token string. Repeated
// calls with identical claims produce identical output; callers vary the
// issued-at timestamp and jti per mint.
func (c *Codec) Encode(claims *Claims) (string, error) {
	if claims == nil {
		return "", errors.New("nil claims")
	}
	if claims.Subject == "" {
		return "", errors.New("claims require a subject")
	}
	if claims.Kind != KindAccess && claims.Kind != KindRefresh {
		return "", errors.New("claims require a valid kind")
	}
	if claims.IssuedAt == nil || claims.ExpiresAt == nil ||
		!claims.ExpiresAt.Time.After(claims.IssuedAt.Time) {
		return "", errors.New("claims expiry must be after issued-at")
	}
	if c.config.Issuer != "" {
		claims.Issuer = c.config.Issuer
	}

	signKey, err := c.signKey()
	if err != nil {
		return "", err
	}

	return jwt.NewWithClaims(c.method(), claims).SignedString(signKey)
}

// Decode verifies signature integrity and expiry and returns the embedded
// claims. Signature verification runs before the expiry check; failures map
// to [ErrMalformed], [ErrInvalid], or [ErrExpired].
func (c *Codec) Decode(tokenStr string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{c.method().Alg()}),
		jwt.WithTimeFunc(c.config.TimeFunc),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if c.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(c.config.Leeway))
	}
	if c.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(c.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	parsed, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return c.verifyKey()
	})
	if err != nil {
		return nil, mapParseError(err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalid
	}
	if claims.Kind != KindAccess && claims.Kind != KindRefresh {
		return nil, ErrMalformed
	}

	return claims, nil
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	default:
		return ErrInvalid
	}
}

func (c *Codec) method() jwt.SigningMethod {
	switch c.config.SigningMethod {
	case MethodEd25519:
		return jwt.SigningMethodEdDSA
	default:
		return jwt.SigningMethodHS256
	}
}

func (c *Codec) signKey() (interface{}, error) {
	switch c.config.SigningMethod {
	case MethodEd25519:
		return parseEdPrivateKey(c.config.PrivateKey)
	default:
		return c.config.Secret, nil
	}
}

func (c *Codec) verifyKey() (interface{}, error) {
	switch c.config.SigningMethod {
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
