// Package identity verifies identity-provider ID tokens against the provider's JWKS.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/lllypuk/eventboard/internal/config"
	"github.com/lllypuk/eventboard/internal/domain/errs"
)

// Token validation errors. All of them wrap errs.ErrInvalidInput.
var (
	ErrInvalidToken    = fmt.Errorf("%w: invalid identity token", errs.ErrInvalidInput)
	ErrTokenExpired    = fmt.Errorf("%w: identity token expired", errs.ErrInvalidInput)
	ErrMissingSubject  = fmt.Errorf("%w: identity token has no subject", errs.ErrInvalidInput)
	ErrJWKSFetchFailed = errors.New("failed to fetch JWKS")
)

// Default configuration values.
const (
	DefaultLeeway          = 30 * time.Second
	DefaultRefreshInterval = time.Hour
)

// Claims are the identity claims a verified token carries.
type Claims struct {
	Subject   string
	Name      string
	Email     string
	ExpiresAt time.Time
}

// JWTValidator verifies signed ID tokens offline with cached provider keys.
type JWTValidator struct {
	keyfunc jwt.Keyfunc
	config  config.AuthConfig
	logger  *slog.Logger
	cancel  context.CancelFunc
}

// NewJWTValidator fetches the JWKS at cfg.JWKSURL and keeps it refreshed in the
// background until Close.
func NewJWTValidator(cfg config.AuthConfig, logger *slog.Logger) (*JWTValidator, error) {
	if cfg.JWKSURL == "" {
		return nil, fmt.Errorf("%w: JWKS URL is required", ErrJWKSFetchFailed)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RefreshInterval == 0 {
		cfg.RefreshInterval = DefaultRefreshInterval
	}

	logger.Info("initializing identity token validator",
		slog.String("jwks_url", cfg.JWKSURL),
		slog.Duration("refresh_interval", cfg.RefreshInterval),
	)

	ctx, cancel := context.WithCancel(context.Background())

	storage, err := jwkset.NewStorageFromHTTP(cfg.JWKSURL, jwkset.HTTPClientStorageOptions{
		Ctx:             ctx,
		RefreshInterval: cfg.RefreshInterval,
		RefreshErrorHandler: func(_ context.Context, err error) {
			logger.Error("failed to refresh JWKS", slog.Any("error", err))
		},
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %w", ErrJWKSFetchFailed, err)
	}

	jwks, err := keyfunc.New(keyfunc.Options{Ctx: ctx, Storage: storage})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %w", ErrJWKSFetchFailed, err)
	}

	v := NewJWTValidatorWithKeyfunc(cfg, jwks.Keyfunc, logger)
	v.cancel = cancel
	return v, nil
}

// NewJWTValidatorWithKeyfunc creates a validator resolving signing keys with kf.
func NewJWTValidatorWithKeyfunc(cfg config.AuthConfig, kf jwt.Keyfunc, logger *slog.Logger) *JWTValidator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Leeway == 0 {
		cfg.Leeway = DefaultLeeway
	}
	return &JWTValidator{keyfunc: kf, config: cfg, logger: logger}
}

// Validate verifies the token signature, expiry, issuer and audience and
// returns its identity claims.
func (v *JWTValidator) Validate(ctx context.Context, tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithLeeway(v.config.Leeway),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	}
	if v.config.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(v.config.Issuer))
	}
	if v.config.Audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(v.config.Audience))
	}

	token, err := jwt.Parse(tokenString, v.keyfunc, parserOpts...)
	if err != nil {
		v.logger.DebugContext(ctx, "identity token rejected", slog.String("error", err.Error()))
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	c := &Claims{}
	c.Subject, _ = claims["sub"].(string)
	if c.Subject == "" {
		return nil, ErrMissingSubject
	}
	c.Name, _ = claims["name"].(string)
	c.Email, _ = claims["email"].(string)
	if exp, expErr := claims.GetExpirationTime(); expErr == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}

	return c, nil
}

// Close stops the background JWKS refresh.
func (v *JWTValidator) Close() error {
	if v.cancel != nil {
		v.cancel()
	}
	return nil
}
