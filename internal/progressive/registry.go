package progressive

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"

	dErrors "profilegate/pkg/domain-errors"
)

// MaxScreens caps how many screens a single interruption may present.
const MaxScreens = 3

// ScreenID names a pre-built form screen. By convention it is a list of groups
// joined by "__"; each group is an area followed by field tokens, and an "opt"
// suffix marks a field optional:
//
//	name_first_lastopt__consent_legal_mktopt
type ScreenID string

const screenGroupSeparator = "__"

// ScreenField is one field a screen collects.
type ScreenField struct {
	Field    Field
	Optional bool
}

var fieldTokens = map[string]Field{
	"first": FieldFirstName,
	"last":  FieldLastName,
	"legal": FieldLegalAccept,
	"mkt":   FieldMarketingStatus,
}

var fieldAreas = map[Field]string{
	FieldFirstName:       "name",
	FieldLastName:        "name",
	FieldLegalAccept:     "consent",
	FieldMarketingStatus: "consent",
}

// Fields parses the naming convention into the fields the screen collects.
func (s ScreenID) Fields() ([]ScreenField, error) {
	if s == "" {
		return nil, errors.New("empty screen id")
	}
	var fields []ScreenField
	for _, group := range strings.Split(string(s), screenGroupSeparator) {
		tokens := strings.Split(group, "_")
		if len(tokens) < 2 {
			return nil, fmt.Errorf("screen %q: group %q has no fields", s, group)
		}
		area := tokens[0]
		for _, tok := range tokens[1:] {
			optional := strings.HasSuffix(tok, "opt")
			field, ok := fieldTokens[strings.TrimSuffix(tok, "opt")]
			if !ok {
				return nil, fmt.Errorf("screen %q: unknown field token %q", s, tok)
			}
			if fieldAreas[field] != area {
				return nil, fmt.Errorf("screen %q: field %q does not belong to area %q", s, field, area)
			}
			fields = append(fields, ScreenField{Field: field, Optional: optional})
		}
	}
	return fields, nil
}

// Collects reports whether the screen collects field f, required or not.
func (s ScreenID) Collects(f Field) bool {
	fields, err := s.Fields()
	if err != nil {
		return false
	}
	for _, sf := range fields {
		if sf.Field == f {
			return true
		}
	}
	return false
}

// IsConsentBearing reports whether the screen collects legal acceptance.
func (s ScreenID) IsConsentBearing() bool {
	return s.Collects(FieldLegalAccept)
}

// Policy selects the screens and form variant for an application.
type Policy struct {
	Key         string
	FormVariant string
	Screens     []ScreenID
}

// HasConsentScreen reports whether any screen of the policy collects legal
// acceptance, which makes a consent bundle mandatory.
func (p Policy) HasConsentScreen() bool {
	for _, s := range p.Screens {
		if s.IsConsentBearing() {
			return true
		}
	}
	return false
}

// Collects reports whether any screen of the policy collects field f.
func (p Policy) Collects(f Field) bool {
	return collectedBy(p.Screens, f)
}

// ConsentBundle references an external consent-management configuration.
// Bumping the key forces every user to accept the legal terms again.
type ConsentBundle struct {
	Key string
	// ReceiptPurposeIDs is reserved for the external consent-receipt system.
	ReceiptPurposeIDs []string
}

// Form maps a form variant to the rendering collaborator's form identifier.
type Form struct {
	Variant string
	ID      string
}

// ScreenCheck reports whether stored data already satisfies a screen's
// required fields. It must be pure.
type ScreenCheck func(profile Profile, consents Consents, bundleKey string) bool

// ScreenValidator validates a submission for one screen, returning a *Denial
// carrying a user-facing message on failure.
type ScreenValidator func(sub Submission) error

// Tables is the raw content of a Registry.
type Tables struct {
	Policies   map[string]Policy
	Bundles    map[string]ConsentBundle
	Forms      map[string]Form
	Checks     map[ScreenID]ScreenCheck
	Validators map[ScreenID]ScreenValidator
}

// Registry is the read-only lookup table consulted by both phases. It is
// built once and never mutated, so it is safe for concurrent use.
type Registry struct {
	policies   map[string]Policy
	bundles    map[string]ConsentBundle
	forms      map[string]Form
	checks     map[ScreenID]ScreenCheck
	validators map[ScreenID]ScreenValidator
}

// NewRegistry freezes t into a Registry. The maps are copied so later changes
// to t do not leak in.
func NewRegistry(t Tables) *Registry {
	policies := make(map[string]Policy, len(t.Policies))
	for k, p := range t.Policies {
		p.Screens = slices.Clone(p.Screens)
		policies[k] = p
	}
	bundles := make(map[string]ConsentBundle, len(t.Bundles))
	for k, b := range t.Bundles {
		b.ReceiptPurposeIDs = slices.Clone(b.ReceiptPurposeIDs)
		bundles[k] = b
	}
	return &Registry{
		policies:   policies,
		bundles:    bundles,
		forms:      maps.Clone(t.Forms),
		checks:     maps.Clone(t.Checks),
		validators: maps.Clone(t.Validators),
	}
}

// Policy looks up a policy by key.
func (r *Registry) Policy(key string) (Policy, bool) {
	p, ok := r.policies[key]
	if !ok {
		return Policy{}, false
	}
	p.Screens = slices.Clone(p.Screens)
	return p, true
}

// Bundle looks up a consent bundle by key.
func (r *Registry) Bundle(key string) (ConsentBundle, bool) {
	b, ok := r.bundles[key]
	return b, ok
}

// Form looks up a form by variant.
func (r *Registry) Form(variant string) (Form, bool) {
	f, ok := r.forms[variant]
	return f, ok
}

// Check returns the completeness check registered for screen.
func (r *Registry) Check(screen ScreenID) (ScreenCheck, bool) {
	c, ok := r.checks[screen]
	return c, ok && c != nil
}

// Validator returns the submission validator registered for screen.
func (r *Registry) Validator(screen ScreenID) (ScreenValidator, bool) {
	v, ok := r.validators[screen]
	return v, ok && v != nil
}

// PolicyKeys returns the registered policy keys in sorted order.
func (r *Registry) PolicyKeys() []string {
	keys := make([]string, 0, len(r.policies))
	for k := range r.policies {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Tables returns a copy of the registry content, used as the base when an
// overlay is merged in.
func (r *Registry) Tables() Tables {
	frozen := NewRegistry(Tables{
		Policies:   r.policies,
		Bundles:    r.bundles,
		Forms:      r.forms,
		Checks:     r.checks,
		Validators: r.validators,
	})
	return Tables{
		Policies:   frozen.policies,
		Bundles:    frozen.bundles,
		Forms:      frozen.forms,
		Checks:     frozen.checks,
		Validators: frozen.validators,
	}
}

// ValidationReport lists registry defects found by Validate.
type ValidationReport struct {
	Errors   []string
	Warnings []string
}

// Err returns a misconfigured domain error when the report holds errors.
func (v ValidationReport) Err() error {
	if len(v.Errors) == 0 {
		return nil
	}
	return dErrors.New(dErrors.CodeMisconfigured, "invalid registry: "+strings.Join(v.Errors, "; "))
}

// Validate walks every policy and reports what would make a login hard-deny
// at runtime. Policies above MaxScreens are warnings because the decision
// path degrades by rendering the first MaxScreens pending screens.
func (r *Registry) Validate() ValidationReport {
	var report ValidationReport
	for _, key := range r.PolicyKeys() {
		p := r.policies[key]
		if p.Key != key {
			report.Errors = append(report.Errors, fmt.Sprintf("policy %q: key mismatch %q", key, p.Key))
		}
		if _, ok := r.forms[p.FormVariant]; !ok {
			report.Errors = append(report.Errors, fmt.Sprintf("policy %q: unknown form variant %q", key, p.FormVariant))
		}
		if len(p.Screens) == 0 {
			report.Errors = append(report.Errors, fmt.Sprintf("policy %q: no screens", key))
		}
		if len(p.Screens) > MaxScreens {
			report.Warnings = append(report.Warnings, fmt.Sprintf("policy %q: %d screens exceeds max %d", key, len(p.Screens), MaxScreens))
		}
		for _, s := range p.Screens {
			if _, err := s.Fields(); err != nil {
				report.Errors = append(report.Errors, fmt.Sprintf("policy %q: %v", key, err))
			}
			if _, ok := r.Check(s); !ok {
				report.Errors = append(report.Errors, fmt.Sprintf("policy %q: screen %q has no completeness check", key, s))
			}
			if _, ok := r.Validator(s); !ok {
				report.Errors = append(report.Errors, fmt.Sprintf("policy %q: screen %q has no validator", key, s))
			}
		}
		if p.HasConsentScreen() && len(r.bundles) == 0 {
			report.Errors = append(report.Errors, fmt.Sprintf("policy %q: consent screen but no bundles registered", key))
		}
	}
	for variant, f := range r.forms {
		if f.ID == "" {
			report.Errors = append(report.Errors, fmt.Sprintf("form %q: empty form id", variant))
		}
	}
	sort.Strings(report.Errors)
	return report
}
