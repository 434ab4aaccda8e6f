// internal/infrastructure/auth/jwtauth/validator.go
// Bearer JWT verification for the API. Tokens are either HS256-signed with a
// shared secret or RS256-signed by an identity provider publishing a JWKS
// document. The user id is read from a configurable claim.
//
// Dependencies:
//   - github.com/golang-jwt/jwt/v5
//   - internal/infrastructure/monitoring/logging
//   - pkg/errors
package jwtauth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	stdliberrors "errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/turtacn/MedRemind/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MedRemind/pkg/errors"
)

const (
	defaultUserClaim      = "sub"
	defaultRefreshEvery   = 15 * time.Minute
	defaultRequestTimeout = 5 * time.Second
)

var (
	ErrTokenMalformed        = errors.New(errors.ErrCodeUnauthorized, "token malformed")
	ErrTokenExpired          = errors.New(errors.ErrCodeUnauthorized, "token expired")
	ErrTokenInvalidSignature = errors.New(errors.ErrCodeUnauthorized, "token signature invalid")
	ErrTokenInvalidClaims    = errors.New(errors.ErrCodeUnauthorized, "token claims rejected")
	ErrTokenNoUser           = errors.New(errors.ErrCodeUnauthorized, "token carries no user id")
)

// Config selects the key source. Exactly one of Secret or JWKSURL is set.
type Config struct {
	Secret              string
	JWKSURL             string
	Issuer              string
	Audience            string
	UserClaim           string
	JWKSRefreshInterval time.Duration
	RequestTimeout      time.Duration
}

// Identity is what a verified token says about its bearer.
type Identity struct {
	UserID    string
	Issuer    string
	ExpiresAt time.Time
}

// Option customises a Validator.
type Option func(*Validator)

// WithHTTPClient replaces the client used to fetch the JWKS document.
func WithHTTPClient(c *http.Client) Option {
	return func(v *Validator) { v.httpClient = c }
}

// Validator verifies bearer tokens.
type Validator struct {
	cfg        Config
	parser     *jwt.Parser
	httpClient *http.Client
	keys       *jwksCache
	logger     logging.Logger
}

// NewValidator checks cfg and prepares the key source. A JWKS document is
// fetched lazily on the first token with an unknown kid.
func NewValidator(cfg Config, logger logging.Logger, opts ...Option) (*Validator, error) {
	if (cfg.Secret == "") == (cfg.JWKSURL == "") {
		return nil, errors.New(errors.CodeInvalidParam, "exactly one of secret or jwks_url must be set")
	}
	if cfg.UserClaim == "" {
		cfg.UserClaim = defaultUserClaim
	}
	if cfg.JWKSRefreshInterval <= 0 {
		cfg.JWKSRefreshInterval = defaultRefreshEvery
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	v := &Validator{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		logger:     logger.Named("jwtauth"),
	}
	for _, opt := range opts {
		opt(v)
	}

	popts := []jwt.ParserOption{jwt.WithExpirationRequired(), jwt.WithLeeway(30 * time.Second)}
	if cfg.Secret != "" {
		popts = append(popts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	} else {
		popts = append(popts, jwt.WithValidMethods([]string{"RS256", "RS384", "RS512"}))
		v.keys = &jwksCache{
			url:    cfg.JWKSURL,
			client: v.httpClient,
			maxAge: cfg.JWKSRefreshInterval,
			logger: v.logger,
			keys:   map[string]*rsa.PublicKey{},
		}
	}
	if cfg.Issuer != "" {
		popts = append(popts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		popts = append(popts, jwt.WithAudience(cfg.Audience))
	}
	v.parser = jwt.NewParser(popts...)
	return v, nil
}

// Verify parses and checks rawToken.
func (v *Validator) Verify(ctx context.Context, rawToken string) (*Identity, error) {
	claims := jwt.MapClaims{}
	_, err := v.parser.ParseWithClaims(rawToken, claims, func(t *jwt.Token) (interface{}, error) {
		if v.keys == nil {
			return []byte(v.cfg.Secret), nil
		}
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, ErrTokenMalformed
		}
		return v.keys.get(ctx, kid)
	})
	if err != nil {
		switch {
		case stdliberrors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrTokenMalformed
		case stdliberrors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case stdliberrors.Is(err, jwt.ErrTokenSignatureInvalid), stdliberrors.Is(err, jwt.ErrTokenUnverifiable):
			return nil, ErrTokenInvalidSignature
		default:
			return nil, ErrTokenInvalidClaims.WithDetail(err.Error()).WithCause(err)
		}
	}

	user, _ := claims[v.cfg.UserClaim].(string)
	if user == "" {
		return nil, ErrTokenNoUser
	}
	id := &Identity{UserID: user}
	id.Issuer, _ = claims.GetIssuer()
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		id.ExpiresAt = exp.Time
	}
	return id, nil
}

// jwksCache holds the provider's RSA signing keys by kid.
type jwksCache struct {
	mu      sync.RWMutex
	keys    map[string]*rsa.PublicKey
	fetched time.Time
	maxAge  time.Duration
	url     string
	client  *http.Client
	logger  logging.Logger
}

func (c *jwksCache) get(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	c.mu.RLock()
	key, ok := c.keys[kid]
	stale := time.Since(c.fetched) > c.maxAge
	c.mu.RUnlock()
	if ok && !stale {
		return key, nil
	}
	if err := c.refresh(ctx); err != nil {
		if ok {
			c.logger.Warn("JWKS refresh failed, using cached key", logging.String("kid", kid), logging.Err(err))
			return key, nil
		}
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if key, ok := c.keys[kid]; ok {
		return key, nil
	}
	return nil, fmt.Errorf("no signing key for kid %q", kid)
}

type jwk struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func (c *jwksCache) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "fetch JWKS")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.New(errors.ErrCodeServiceUnavailable, "fetch JWKS: "+resp.Status)
	}

	var doc struct {
		Keys []jwk `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "decode JWKS")
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" || (k.Use != "" && k.Use != "sig") {
			continue
		}
		pub, err := rsaKey(k)
		if err != nil {
			c.logger.Warn("skipping undecodable JWK", logging.String("kid", k.Kid), logging.Err(err))
			continue
		}
		keys[k.Kid] = pub
	}

	c.mu.Lock()
	c.keys = keys
	c.fetched = time.Now()
	c.mu.Unlock()
	c.logger.Debug("JWKS refreshed", logging.Int("keys", len(keys)))
	return nil
}

func rsaKey(k jwk) (*rsa.PublicKey, error) {
	n, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("modulus: %w", err)
	}
	e, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("exponent: %w", err)
	}
	exp := 0
	for _, b := range e {
		exp = exp<<8 | int(b)
	}
	if exp == 0 {
		return nil, fmt.Errorf("exponent is zero")
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(n), E: exp}, nil
}

//Personal.AI order the ending
