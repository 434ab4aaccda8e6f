// internal/interfaces/http/middleware/auth.go
//
// Bearer-token authentication for the /api/v1 tree. Tokens are validated by a
// TokenValidator; the resolved user id is placed on the request context where
// handlers and the logger pick it up.
//
// Dependencies:
//   - internal/infrastructure/monitoring/logging
//   - pkg/errors
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/turtacn/MedRemind/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MedRemind/pkg/errors"
)

type contextKey int

const (
	claimsContextKey contextKey = iota
	userHolderContextKey
)

// userHolder lets outer middleware see the user resolved further in.
type userHolder struct{ userID string }

func withUserHolder(ctx context.Context, h *userHolder) context.Context {
	return context.WithValue(ctx, userHolderContextKey, h)
}

// Claims is the identity behind a validated token.
type Claims struct {
	UserID string `json:"user_id"`
}

// TokenValidator validates bearer tokens.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*Claims, error)
}

// StaticTokenValidator accepts a fixed token -> user id table.
type StaticTokenValidator map[string]string

// NewStaticTokenValidator copies tokens so later config reloads do not race.
func NewStaticTokenValidator(tokens map[string]string) StaticTokenValidator {
	v := make(StaticTokenValidator, len(tokens))
	for tok, user := range tokens {
		if tok != "" && user != "" {
			v[tok] = user
		}
	}
	return v
}

// ValidateToken implements TokenValidator.
func (v StaticTokenValidator) ValidateToken(_ context.Context, token string) (*Claims, error) {
	user, ok := v[token]
	if !ok {
		return nil, errors.New(errors.ErrCodeUnauthorized, "invalid token")
	}
	return &Claims{UserID: user}, nil
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	// SkipPaths bypass authentication entirely.
	SkipPaths []string
	// AnonymousUserID is used for every request when no validator is set.
	AnonymousUserID string
}

// AuthMiddleware provides HTTP authentication middleware.
type AuthMiddleware struct {
	validator TokenValidator
	config    AuthConfig
	logger    logging.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware. A nil validator turns
// authentication off and attributes requests to config.AnonymousUserID.
func NewAuthMiddleware(validator TokenValidator, config AuthConfig, logger logging.Logger) *AuthMiddleware {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if config.AnonymousUserID == "" {
		config.AnonymousUserID = "local-user"
	}
	return &AuthMiddleware{validator: validator, config: config, logger: logger.Named("auth")}
}

// Handler enforces authentication. Requests without valid credentials receive
// 401 Unauthorized.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.shouldSkip(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		if m.validator == nil {
			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), &Claims{UserID: m.config.AnonymousUserID})))
			return
		}

		header := r.Header.Get("Authorization")
		if header == "" {
			writeUnauthorized(w, "no authorization header provided")
			return
		}
		token, ok := extractBearerToken(header)
		if !ok {
			writeUnauthorized(w, "invalid token format")
			return
		}

		claims, err := m.validator.ValidateToken(r.Context(), token)
		if err != nil {
			m.logger.Warn("token validation failed",
				logging.String("path", r.URL.Path),
				logging.String("request_id", logging.RequestIDFromContext(r.Context())),
				logging.Err(err))
			writeUnauthorized(w, "token verification failed")
			return
		}
		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
	})
}

func (m *AuthMiddleware) shouldSkip(path string) bool {
	for _, skip := range m.config.SkipPaths {
		if path == skip || strings.HasPrefix(path, skip+"/") {
			return true
		}
	}
	return false
}

func withClaims(ctx context.Context, c *Claims) context.Context {
	ctx = context.WithValue(ctx, claimsContextKey, c)
	if h, ok := ctx.Value(userHolderContextKey).(*userHolder); ok {
		h.userID = c.UserID
	}
	return logging.ContextWithUserID(ctx, c.UserID)
}

// extractBearerToken returns the token of a "Bearer <token>" header.
func extractBearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// ContextGetClaims retrieves the claims from the request context.
func ContextGetClaims(ctx context.Context) *Claims {
	claims, ok := ctx.Value(claimsContextKey).(*Claims)
	if !ok {
		return nil
	}
	return claims
}

// ContextGetUserID returns the authenticated user id, or "".
func ContextGetUserID(ctx context.Context) string {
	if claims := ContextGetClaims(ctx); claims != nil {
		return claims.UserID
	}
	return ""
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="medremind"`)
	writeError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Unauthorized - "+message)
}

//Personal.AI order the ending
