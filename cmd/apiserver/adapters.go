package main

import (
	"context"

	"github.com/turtacn/MedRemind/internal/bootstrap"
	"github.com/turtacn/MedRemind/internal/config"
	"github.com/turtacn/MedRemind/internal/infrastructure/auth/jwtauth"
	"github.com/turtacn/MedRemind/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MedRemind/internal/interfaces/http/handlers"
	"github.com/turtacn/MedRemind/internal/interfaces/http/middleware"
)

// healthCheckers adapts the infrastructure probes for HealthHandler.
func healthCheckers(infra *bootstrap.Infrastructure) []handlers.HealthChecker {
	checks := infra.Checks()
	out := make([]handlers.HealthChecker, 0, len(checks))
	for _, c := range checks {
		out = append(out, handlers.CheckerFunc{ComponentName: c.Name, Fn: c.Fn})
	}
	return out
}

// jwtTokens exposes a jwtauth.Validator as a middleware.TokenValidator.
type jwtTokens struct{ v *jwtauth.Validator }

func (j jwtTokens) ValidateToken(ctx context.Context, token string) (*middleware.Claims, error) {
	id, err := j.v.Verify(ctx, token)
	if err != nil {
		return nil, err
	}
	return &middleware.Claims{UserID: id.UserID}, nil
}

// tokenValidator returns nil when auth is disabled, which the middleware
// treats as a single anonymous user.
func tokenValidator(a config.AuthConfig, logger logging.Logger) (middleware.TokenValidator, error) {
	if !a.Enabled {
		return nil, nil
	}
	if a.Mode != "jwt" {
		return middleware.NewStaticTokenValidator(a.Tokens), nil
	}
	v, err := jwtauth.NewValidator(jwtauth.Config{
		Secret:              a.JWT.Secret,
		JWKSURL:             a.JWT.JWKSURL,
		Issuer:              a.JWT.Issuer,
		Audience:            a.JWT.Audience,
		UserClaim:           a.JWT.UserClaim,
		JWKSRefreshInterval: a.JWT.JWKSRefreshInterval,
	}, logger)
	if err != nil {
		return nil, err
	}
	return jwtTokens{v}, nil
}

//Personal.AI order the ending
