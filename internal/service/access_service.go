package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/consultancy-portal-api/internal/auth"
	"github.com/consultancy-portal-api/internal/config"
	"github.com/consultancy-portal-api/internal/models"
	"github.com/consultancy-portal-api/internal/ratelimit"
	"github.com/rs/zerolog"
)

// APIKeySubject is the token subject reported for X-Admin-Key requests
const APIKeySubject = "api-key"

type gate struct {
	role     string
	password *auth.PasswordChecker
	limiter  ratelimit.Limiter
}

// accessService is the concrete implementation of AccessService
type accessService struct {
	gates  map[Gate]gate
	tokens *auth.TokenManager
	intake ratelimit.Limiter
	apiKey []byte
	log    zerolog.Logger
}

// newAccessService creates a new AccessService
func newAccessService(deps Deps, cfg config.AuthConfig, log zerolog.Logger) *accessService {
	return &accessService{
		gates: map[Gate]gate{
			GateAdmin: {
				role:     auth.RoleAdmin,
				password: auth.NewPasswordChecker(cfg.AdminPassword),
				limiter:  deps.AdminGate,
			},
			GateKYC: {
				role:     auth.RoleKYCReviewer,
				password: auth.NewPasswordChecker(cfg.KYCReviewPassword),
				limiter:  deps.ReviewGate,
			},
		},
		tokens: deps.Tokens,
		intake: deps.Intake,
		apiKey: []byte(cfg.AdminAPIKey),
		log:    log.With().Str("service", "access").Logger(),
	}
}

func rateLimited(d ratelimit.Decision) error {
	retry := d.RetryAfter
	if retry < time.Second {
		retry = time.Second
	}
	return &models.RateLimitError{RetryAfter: retry}
}

// Login checks password against the gate. Failures count towards a per-IP
// lockout; success clears the counter.
func (s *accessService) Login(ctx context.Context, name Gate, ip, password string) (*models.TokenResponse, error) {
	g, ok := s.gates[name]
	if !ok {
		return nil, fmt.Errorf("gate %q: %w", name, models.ErrNotFound)
	}
	log := s.log.With().Str("gate", string(name)).Str("ip", ip).Logger()

	status, err := g.limiter.Status(ctx, ip)
	if err != nil {
		return nil, fmt.Errorf("check limiter: %w", err)
	}
	if status.Locked {
		return nil, rateLimited(status)
	}

	if !g.password.Matches(password) {
		d, err := g.limiter.Hit(ctx, ip)
		if err != nil {
			return nil, fmt.Errorf("record failed attempt: %w", err)
		}
		if d.Locked {
			log.Warn().Dur("retry_after", d.RetryAfter).Msg("Gate locked after repeated failures")
			return nil, rateLimited(d)
		}
		log.Info().Int("attempts_remaining", d.Remaining).Msg("Invalid gate password")
		return nil, &models.InvalidCredentialsError{AttemptsRemaining: d.Remaining}
	}

	if err := g.limiter.Reset(ctx, ip); err != nil {
		log.Warn().Err(err).Msg("Failed to reset gate limiter")
	}

	token, expires, err := s.tokens.Issue(string(name), g.role)
	if err != nil {
		return nil, err
	}

	log.Info().Str("role", g.role).Msg("Gate login succeeded")
	return &models.TokenResponse{
		Token:     token,
		TokenType: "Bearer",
		Role:      g.role,
		ExpiresAt: expires,
	}, nil
}

// Authenticate prefers the static admin key when the header is present
func (s *accessService) Authenticate(bearer, apiKey string) (*auth.Claims, error) {
	if apiKey != "" {
		if len(s.apiKey) == 0 || subtle.ConstantTimeCompare(s.apiKey, []byte(apiKey)) != 1 {
			return nil, fmt.Errorf("admin key: %w", models.ErrUnauthorized)
		}
		claims := &auth.Claims{Role: auth.RoleAdmin}
		claims.Subject = APIKeySubject
		return claims, nil
	}

	if bearer == "" {
		return nil, fmt.Errorf("missing credentials: %w", models.ErrUnauthorized)
	}
	claims, err := s.tokens.Validate(bearer)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, models.ErrUnauthorized)
	}
	return claims, nil
}

// AdmitIntake counts one submission attempt for ip
func (s *accessService) AdmitIntake(ctx context.Context, ip string) error {
	status, err := s.intake.Status(ctx, ip)
	if err != nil {
		return fmt.Errorf("check intake limiter: %w", err)
	}
	if status.Locked {
		return rateLimited(status)
	}

	if _, err := s.intake.Hit(ctx, ip); err != nil {
		return fmt.Errorf("record intake attempt: %w", err)
	}
	return nil
}
