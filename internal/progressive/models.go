package progressive

import (
	"strings"
	"time"
)

// Client metadata keys recognised on the calling application.
const (
	ConfigKeyEnabled = "pp_enabled"
	ConfigKeyPolicy  = "pp_policy_key"
	ConfigKeyBundle  = "consent_bundle_key"
)

// EnabledMarker is the only pp_enabled value that activates progressive
// profiling. Anything else, including "TRUE" or "1", leaves the app disabled.
const EnabledMarker = "true"

// SourceTag is stamped on every consent record this engine writes.
const SourceTag = "progressive_profiling"

// User metadata namespaces owned by the identity platform.
const (
	NamespaceProfile  = "profile"
	NamespaceConsents = "consents"
)

// Field names exchanged with the rendering collaborator.
type Field string

const (
	FieldFirstName       Field = "first_name"
	FieldLastName        Field = "last_name"
	FieldLegalAccept     Field = "legal_accept"
	FieldMarketingStatus Field = "marketing_status"
)

// AppConfig is the progressive profiling view of a client's metadata.
type AppConfig struct {
	ClientID  string
	Enabled   string
	PolicyKey string
	BundleKey string
}

// AppConfigFromMetadata reads the recognised keys from client metadata.
// Values are taken verbatim; resolution decides whether they are usable.
func AppConfigFromMetadata(clientID string, metadata map[string]string) AppConfig {
	return AppConfig{
		ClientID:  clientID,
		Enabled:   metadata[ConfigKeyEnabled],
		PolicyKey: metadata[ConfigKeyPolicy],
		BundleKey: metadata[ConfigKeyBundle],
	}
}

// IsEnabled reports whether the app carries the exact enabled marker.
func (c AppConfig) IsEnabled() bool {
	return c.Enabled == EnabledMarker
}

// Profile holds the optional profile fields. A nil pointer means the key is
// absent from storage; the engine never stores empty strings.
type Profile struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
}

// Has reports whether the field is present and non-blank.
func (p Profile) Has(f Field) bool {
	return strings.TrimSpace(p.value(f)) != ""
}

func (p Profile) value(f Field) string {
	var v *string
	switch f {
	case FieldFirstName:
		v = p.FirstName
	case FieldLastName:
		v = p.LastName
	}
	if v == nil {
		return ""
	}
	return *v
}

// MarketingStatus is the user's marketing communication choice.
type MarketingStatus string

const (
	MarketingOptIn  MarketingStatus = "opt_in"
	MarketingOptOut MarketingStatus = "opt_out"
	MarketingUnset  MarketingStatus = "unset"
)

// ParseMarketingStatus accepts only an explicit choice. "unset", blank and
// unknown strings all report false so no record is written for them.
func ParseMarketingStatus(s string) (MarketingStatus, bool) {
	switch MarketingStatus(strings.TrimSpace(s)) {
	case MarketingOptIn:
		return MarketingOptIn, true
	case MarketingOptOut:
		return MarketingOptOut, true
	default:
		return MarketingUnset, false
	}
}

// LegalConsent records acceptance of the legal terms under a bundle version.
type LegalConsent struct {
	Accepted   bool      `json:"accepted"`
	AcceptedAt time.Time `json:"accepted_at"`
	BundleKey  string    `json:"bundle_key"`
	PolicyKey  string    `json:"policy_key"`
	Source     string    `json:"source"`
}

// SatisfiedFor reports whether the record is an acceptance of bundleKey.
// A record accepted under an older bundle is stale and must be re-collected.
func (l *LegalConsent) SatisfiedFor(bundleKey string) bool {
	if l == nil || bundleKey == "" {
		return false
	}
	return l.Accepted && l.BundleKey == bundleKey
}

// MarketingConsent records an explicit marketing choice.
type MarketingConsent struct {
	Status    MarketingStatus `json:"status"`
	UpdatedAt time.Time       `json:"updated_at"`
	BundleKey string          `json:"bundle_key"`
	PolicyKey string          `json:"policy_key"`
	Source    string          `json:"source"`
}

// Consents is the consents namespace of user metadata.
type Consents struct {
	Legal     *LegalConsent     `json:"legal,omitempty"`
	Marketing *MarketingConsent `json:"marketing,omitempty"`
}

// MarketingStatus returns the stored choice for prefill, or unset.
func (c Consents) MarketingStatus() MarketingStatus {
	if c.Marketing == nil {
		return MarketingUnset
	}
	if status, ok := ParseMarketingStatus(string(c.Marketing.Status)); ok {
		return status
	}
	return MarketingUnset
}

// LoginRequest carries request attributes used only for the audit trail.
type LoginRequest struct {
	UserAgent string
	IP        string
}

// IdentityContext is everything the engine reads for one login transaction.
type IdentityContext struct {
	UserID   string
	App      AppConfig
	Profile  Profile
	Consents Consents
	Request  LoginRequest
}
