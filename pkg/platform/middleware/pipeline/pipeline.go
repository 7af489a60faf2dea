// Package pipeline authenticates calls from the identity platform's
// authentication pipeline. The pipeline signs a short-lived HS256 JWT with a
// shared secret and sends it as a bearer token.
package pipeline

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "profilegate/pkg/domain-errors"
	"profilegate/pkg/platform/httputil"
	"profilegate/pkg/requestcontext"
)

// Audience is the aud claim every pipeline token must carry.
const Audience = "profilegate"

// MinSecretLength is the shortest accepted HS256 secret in bytes.
const MinSecretLength = 32

const defaultLeeway = 30 * time.Second

// Claims are the JWT claims of a pipeline token. Subject names the calling
// pipeline (for example the tenant's action id).
type Claims struct {
	TenantID string `json:"tenant_id,omitempty"`
	jwt.RegisteredClaims
}

// Verifier issues and validates pipeline tokens.
type Verifier struct {
	key      []byte
	audience string
	leeway   time.Duration
	now      func() time.Time
}

type Option func(*Verifier)

// WithClock overrides the verifier clock.
func WithClock(now func() time.Time) Option {
	return func(v *Verifier) {
		if now != nil {
			v.now = now
		}
	}
}

// WithLeeway sets the allowed clock skew for exp/nbf/iat checks.
func WithLeeway(d time.Duration) Option {
	return func(v *Verifier) {
		if d >= 0 {
			v.leeway = d
		}
	}
}

// NewVerifier builds a Verifier for secret.
func NewVerifier(secret string, opts ...Option) (*Verifier, error) {
	if len(secret) < MinSecretLength {
		return nil, dErrors.New(dErrors.CodeMisconfigured, "pipeline secret must be at least 32 bytes")
	}
	v := &Verifier{
		key:      []byte(secret),
		audience: Audience,
		leeway:   defaultLeeway,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Issue mints a token for subject valid for ttl.
func (v *Verifier) Issue(subject, tenantID string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "subject is required")
	}
	now := v.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		TenantID: tenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Audience:  jwt.ClaimStrings{v.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	})
	signed, err := token.SignedString(v.key)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "sign pipeline token")
	}
	return signed, nil
}

// Verify parses and validates a token. Only HS256 is accepted, and exp, aud
// and sub are required.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return v.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(v.leeway),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "token expired")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid token")
	}
	if claims.Subject == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token has no subject")
	}
	return claims, nil
}

// RequirePipeline rejects requests without a valid pipeline bearer token and
// stores the token subject in the request context.
func RequirePipeline(v *Verifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				logger.WarnContext(ctx, "unauthorized pipeline call - missing bearer token",
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing bearer token"))
				return
			}

			claims, err := v.Verify(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized pipeline call - invalid token",
					"error", err,
					"request_id", requestID,
				)
				httputil.WriteError(w, err)
				return
			}

			ctx = requestcontext.WithPipelineSubject(ctx, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
