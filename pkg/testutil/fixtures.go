package testutil

import (
	"time"

	"profilegate/internal/progressive"
)

// TestIDs provides stable identifiers for deterministic test data.
var TestIDs = struct {
	UserID1   string
	UserID2   string
	ClientID1 string
}{
	UserID1:   "auth0|11111111",
	UserID2:   "auth0|22222222",
	ClientID1: "client-cccc0001",
}

// LoginBuilder provides a fluent interface for building identity contexts.
// The zero login is an enabled app on pp.core.v1 with an empty profile.
type LoginBuilder struct {
	ic progressive.IdentityContext
}

// NewLogin creates a builder for TestIDs.UserID1 on TestIDs.ClientID1.
func NewLogin() *LoginBuilder {
	return &LoginBuilder{ic: progressive.IdentityContext{
		UserID: TestIDs.UserID1,
		App: progressive.AppConfig{
			ClientID:  TestIDs.ClientID1,
			Enabled:   progressive.EnabledMarker,
			PolicyKey: "pp.core.v1",
			BundleKey: progressive.BundleGlobalV1,
		},
		Request: progressive.LoginRequest{
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			IP:        "192.0.2.44",
		},
	}}
}

func (b *LoginBuilder) ForUser(userID string) *LoginBuilder {
	b.ic.UserID = userID
	return b
}

func (b *LoginBuilder) WithPolicy(policyKey string) *LoginBuilder {
	b.ic.App.PolicyKey = policyKey
	return b
}

func (b *LoginBuilder) WithBundle(bundleKey string) *LoginBuilder {
	b.ic.App.BundleKey = bundleKey
	return b
}

func (b *LoginBuilder) Disabled() *LoginBuilder {
	b.ic.App.Enabled = ""
	return b
}

func (b *LoginBuilder) WithName(first, last string) *LoginBuilder {
	if first != "" {
		b.ic.Profile.FirstName = &first
	}
	if last != "" {
		b.ic.Profile.LastName = &last
	}
	return b
}

// WithLegal records an acceptance of bundleKey.
func (b *LoginBuilder) WithLegal(bundleKey string) *LoginBuilder {
	b.ic.Consents.Legal = &progressive.LegalConsent{
		Accepted:   true,
		AcceptedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		BundleKey:  bundleKey,
		PolicyKey:  b.ic.App.PolicyKey,
		Source:     progressive.SourceTag,
	}
	return b
}

func (b *LoginBuilder) WithMarketing(status progressive.MarketingStatus) *LoginBuilder {
	b.ic.Consents.Marketing = &progressive.MarketingConsent{
		Status:    status,
		UpdatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		BundleKey: b.ic.App.BundleKey,
		PolicyKey: b.ic.App.PolicyKey,
		Source:    progressive.SourceTag,
	}
	return b
}

// Build returns the identity context.
func (b *LoginBuilder) Build() progressive.IdentityContext {
	return b.ic
}
