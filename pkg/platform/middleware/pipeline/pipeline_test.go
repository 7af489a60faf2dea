package pipeline

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"

	dErrors "profilegate/pkg/domain-errors"
	"profilegate/pkg/requestcontext"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type PipelineSuite struct {
	suite.Suite
	now      time.Time
	verifier *Verifier
}

func TestPipelineSuite(t *testing.T) {
	suite.Run(t, new(PipelineSuite))
}

func (s *PipelineSuite) SetupTest() {
	s.now = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	v, err := NewVerifier(testSecret, WithClock(func() time.Time { return s.now }), WithLeeway(0))
	s.Require().NoError(err)
	s.verifier = v
}

func (s *PipelineSuite) TestNewVerifierRejectsShortSecret() {
	_, err := NewVerifier("short")
	s.True(dErrors.HasCode(err, dErrors.CodeMisconfigured))
}

func (s *PipelineSuite) TestIssueAndVerify() {
	token, err := s.verifier.Issue("post-login-action", "tenant-eu", time.Minute)
	s.Require().NoError(err)

	claims, err := s.verifier.Verify(token)
	s.Require().NoError(err)
	s.Equal("post-login-action", claims.Subject)
	s.Equal("tenant-eu", claims.TenantID)
	s.NotEmpty(claims.ID)
}

func (s *PipelineSuite) TestVerifyRejects() {
	s.Run("expired", func() {
		token, err := s.verifier.Issue("action", "", time.Minute)
		s.Require().NoError(err)
		s.now = s.now.Add(2 * time.Minute)
		defer func() { s.now = s.now.Add(-2 * time.Minute) }()

		_, err = s.verifier.Verify(token)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		s.Contains(err.Error(), "expired")
	})

	s.Run("wrong secret", func() {
		other, err := NewVerifier(strings.Repeat("z", 32), WithClock(func() time.Time { return s.now }))
		s.Require().NoError(err)
		token, err := other.Issue("action", "", time.Minute)
		s.Require().NoError(err)
		_, err = s.verifier.Verify(token)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("wrong audience", func() {
		token := s.sign(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   "action",
			Audience:  jwt.ClaimStrings{"someone-else"},
			ExpiresAt: jwt.NewNumericDate(s.now.Add(time.Minute)),
		})
		_, err := s.verifier.Verify(token)
		s.Error(err)
	})

	s.Run("missing expiry", func() {
		token := s.sign(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:  "action",
			Audience: jwt.ClaimStrings{Audience},
		})
		_, err := s.verifier.Verify(token)
		s.Error(err)
	})

	s.Run("missing subject", func() {
		token := s.sign(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{Audience},
			ExpiresAt: jwt.NewNumericDate(s.now.Add(time.Minute)),
		})
		_, err := s.verifier.Verify(token)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("other algorithm", func() {
		token := s.sign(jwt.SigningMethodHS512, jwt.RegisteredClaims{
			Subject:   "action",
			Audience:  jwt.ClaimStrings{Audience},
			ExpiresAt: jwt.NewNumericDate(s.now.Add(time.Minute)),
		})
		_, err := s.verifier.Verify(token)
		s.Error(err)
	})
}

func (s *PipelineSuite) TestRequirePipeline() {
	var subject string
	handler := RequirePipeline(s.verifier, slog.New(slog.DiscardHandler))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject = requestcontext.PipelineSubject(r.Context())
			w.WriteHeader(http.StatusNoContent)
		}),
	)
	valid, err := s.verifier.Issue("post-login-action", "", time.Minute)
	s.Require().NoError(err)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer " + valid, http.StatusNoContent},
		{"lowercase scheme", "bearer " + valid, http.StatusNoContent},
		{"missing", "", http.StatusUnauthorized},
		{"basic auth", "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
		{"empty token", "Bearer   ", http.StatusUnauthorized},
		{"garbage", "Bearer not.a.jwt", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			subject = ""
			req := httptest.NewRequest(http.MethodPost, "/v1/actions/pre-login", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			s.Equal(tc.status, w.Code)
			if tc.status == http.StatusNoContent {
				s.Equal("post-login-action", subject)
			} else {
				s.Empty(subject)
				s.Contains(w.Body.String(), "unauthorized")
			}
		})
	}
}

func (s *PipelineSuite) sign(method jwt.SigningMethod, claims jwt.RegisteredClaims) string {
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(testSecret))
	s.Require().NoError(err)
	return token
}
