package progressive

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"profilegate/internal/audit"
	"profilegate/internal/platform/privacy"
	"profilegate/internal/platform/tracer"
	"profilegate/internal/progressive/metrics"
	dErrors "profilegate/pkg/domain-errors"
	"profilegate/pkg/platform/validation"
	"profilegate/pkg/requestcontext"
)

const (
	phasePreLogin       = "pre_login"
	phasePostSubmission = "post_submission"
)

// Auditor records decision events. *audit.Publisher satisfies it.
type Auditor interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Option func(*Service)

// Service runs the two login phases against a frozen Registry. It holds no
// per-login state and is safe for concurrent use.
type Service struct {
	registry   *Registry
	auditor    Auditor
	metrics    *metrics.Metrics
	tracer     tracer.Tracer
	logger     *slog.Logger
	pseudonyms *privacy.Pseudonymizer
}

// New builds a Service. The registry is required; every other collaborator
// defaults to a no-op.
func New(registry *Registry, opts ...Option) *Service {
	if registry == nil {
		panic("progressive: registry is required")
	}
	svc := &Service{
		registry: registry,
		tracer:   tracer.NewNoop(),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// WithMetrics sets the metrics instance for the service.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLogger sets the logger instance for the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTracer sets the tracer used for per-phase spans.
func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithAuditor records every render, deny and persist decision.
func WithAuditor(a Auditor) Option {
	return func(s *Service) {
		s.auditor = a
	}
}

// WithPseudonymizer sets the key used to pseudonymise user IDs in logs, spans
// and audit events. Without one an unkeyed digest is used.
func WithPseudonymizer(p *privacy.Pseudonymizer) Option {
	return func(s *Service) {
		s.pseudonyms = p
	}
}

// Registry returns the registry the service decides against.
func (s *Service) Registry() *Registry {
	return s.registry
}

// resolution is the configuration both phases must agree on.
type resolution struct {
	policy    Policy
	form      Form
	bundleKey string
}

// resolve performs the gate-independent lookups shared by both phases. Any
// failure is a coded configuration denial; nothing falls back to a default.
func (s *Service) resolve(app AppConfig) (*resolution, *Denial) {
	policyKey := strings.TrimSpace(app.PolicyKey)
	if policyKey == "" {
		return nil, configDenial(DenyPolicy, "client %q has no %s", app.ClientID, ConfigKeyPolicy)
	}
	policy, ok := s.registry.Policy(policyKey)
	if !ok {
		return nil, configDenial(DenyPolicy, "client %q references unknown policy %q", app.ClientID, policyKey)
	}

	form, ok := s.registry.Form(policy.FormVariant)
	if !ok || form.ID == "" {
		return nil, configDenial(DenyForm, "policy %q references unknown form variant %q", policy.Key, policy.FormVariant)
	}

	bundleKey := strings.TrimSpace(app.BundleKey)
	if policy.HasConsentScreen() {
		if bundleKey == "" {
			return nil, configDenial(DenyBundle, "policy %q collects consent but client %q has no %s", policy.Key, app.ClientID, ConfigKeyBundle)
		}
		if _, ok := s.registry.Bundle(bundleKey); !ok {
			return nil, configDenial(DenyBundle, "client %q references unknown bundle %q", app.ClientID, bundleKey)
		}
	} else if _, ok := s.registry.Bundle(bundleKey); !ok {
		bundleKey = ""
	}

	for _, screen := range policy.Screens {
		_, hasCheck := s.registry.Check(screen)
		_, hasValidator := s.registry.Validator(screen)
		if !hasCheck || !hasValidator {
			d := configDenial(DenyScreen, "policy %q screen %q lacks a completeness check or validator", policy.Key, screen)
			d.Screen = screen
			return nil, d
		}
	}

	return &resolution{policy: policy, form: form, bundleKey: bundleKey}, nil
}

// pending recomputes the capped pending list. Both phases call it with the
// same snapshot so the screens validated are exactly the screens shown.
func (s *Service) pending(res *resolution, ic IdentityContext) ([]ScreenID, []string, *Denial) {
	pending, err := s.registry.PendingScreens(res.policy, ic.Profile, ic.Consents, res.bundleKey)
	if err != nil {
		if d, ok := AsDenial(err); ok {
			return nil, nil, d
		}
		return nil, nil, configDenial(DenyScreen, "%v", err)
	}
	capped, warnings := capScreens(pending)
	return capped, warnings, nil
}

func checkIdentity(ic IdentityContext) error {
	if err := validation.CheckStringLength("user_id", ic.UserID, validation.MaxUserIDLength); err != nil {
		return err
	}
	return nil
}

// PreLogin decides whether the login continues, is denied, or is suspended to
// render a form. It never issues writes.
func (s *Service) PreLogin(ctx context.Context, ic IdentityContext) (*Decision, error) {
	if err := ctx.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "pre-login cancelled")
	}
	if err := checkIdentity(ic); err != nil {
		return nil, err
	}

	start := time.Now()
	ctx, span := s.tracer.Start(ctx, tracer.SpanPreLogin,
		tracer.String(tracer.AttrSubject, s.subject(ic.UserID)),
		tracer.String(tracer.AttrClientID, ic.App.ClientID),
	)
	d := s.preLogin(ic)
	s.finish(ctx, span, phasePreLogin, ic, d, start)
	return d, nil
}

func (s *Service) preLogin(ic IdentityContext) *Decision {
	if !ic.App.IsEnabled() {
		return continueDecision("")
	}

	res, denial := s.resolve(ic.App)
	if denial != nil {
		return denyDecision(ic.App.PolicyKey, denial)
	}

	pending, warnings, denial := s.pending(res, ic)
	if denial != nil {
		return denyDecision(res.policy.Key, denial)
	}
	if len(pending) == 0 {
		return continueDecision(res.policy.Key)
	}

	return &Decision{
		Outcome: OutcomeRender,
		Render: &RenderCommand{
			FormID:  res.form.ID,
			Prefill: buildPrefill(res, pending, ic),
		},
		Warnings:  warnings,
		PolicyKey: res.policy.Key,
		BundleKey: res.bundleKey,
		Pending:   pending,
	}
}

func buildPrefill(res *resolution, pending []ScreenID, ic IdentityContext) Prefill {
	prefill := Prefill{
		ScreenID:        pending[0],
		ScreenIDs:       pending,
		PolicyKey:       res.policy.Key,
		BundleKey:       res.bundleKey,
		MarketingStatus: ic.Consents.MarketingStatus(),
	}
	if ic.Profile.Has(FieldFirstName) {
		prefill.FirstName = *ic.Profile.FirstName
	}
	if ic.Profile.Has(FieldLastName) {
		prefill.LastName = *ic.Profile.LastName
	}
	return prefill
}

// PostSubmission re-resolves configuration, re-derives the pending screens
// and validates raw against each of them in order. Only when every screen
// passes are the merge-writes returned in the decision. raw may be nil when
// the form was abandoned.
func (s *Service) PostSubmission(ctx context.Context, ic IdentityContext, raw map[string]any) (*Decision, error) {
	if err := ctx.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "post-submission cancelled")
	}
	if err := checkIdentity(ic); err != nil {
		return nil, err
	}
	if err := validation.CheckSliceCount("fields", len(raw), validation.MaxSubmittedFields); err != nil {
		return nil, err
	}

	start := time.Now()
	ctx, span := s.tracer.Start(ctx, tracer.SpanPostSubmission,
		tracer.String(tracer.AttrSubject, s.subject(ic.UserID)),
		tracer.String(tracer.AttrClientID, ic.App.ClientID),
	)
	d := s.postSubmission(ctx, span, ic, raw)
	s.finish(ctx, span, phasePostSubmission, ic, d, start)
	return d, nil
}

func (s *Service) postSubmission(ctx context.Context, span tracer.Span, ic IdentityContext, raw map[string]any) *Decision {
	if !ic.App.IsEnabled() {
		return continueDecision("")
	}

	res, denial := s.resolve(ic.App)
	if denial != nil {
		return denyDecision(ic.App.PolicyKey, denial)
	}

	pending, warnings, denial := s.pending(res, ic)
	if denial != nil {
		return denyDecision(res.policy.Key, denial)
	}
	if len(pending) == 0 {
		d := continueDecision(res.policy.Key)
		d.BundleKey = res.bundleKey
		return d
	}

	sub := ParseSubmission(raw)
	for _, screen := range pending {
		validate, _ := s.registry.Validator(screen)
		if err := validate(sub); err != nil {
			s.metrics.IncrementValidationFailure(string(screen))
			span.AddEvent(tracer.EventValidation, tracer.String(tracer.AttrScreen, string(screen)))
			d, ok := AsDenial(err)
			if !ok {
				d = fieldDenial(err.Error())
			}
			d.Screen = screen
			denied := denyDecision(res.policy.Key, d)
			denied.BundleKey = res.bundleKey
			denied.Pending = pending
			denied.Warnings = warnings
			return denied
		}
	}

	now := requestcontext.Now(ctx).UTC()
	profile := buildProfilePatch(pending, sub)
	consents := buildConsentPatch(res.policy, res.bundleKey, sub, now)

	return &Decision{
		Outcome:   OutcomeContinue,
		Writes:    metadataWrites(profile, consents),
		Warnings:  warnings,
		PolicyKey: res.policy.Key,
		BundleKey: res.bundleKey,
		Pending:   pending,
	}
}

// Persist issues d's writes through w. A failed write is logged and counted
// but never turns the decision into a denial; the error is returned for
// callers that want to surface it.
func (s *Service) Persist(ctx context.Context, w MetadataWriter, userID string, d *Decision) error {
	return applyWrites(ctx, w, userID, d, func(namespace string, err error) {
		s.metrics.IncrementWriteFailure(namespace)
		s.logger.ErrorContext(ctx, "metadata merge failed",
			"error", err,
			"namespace", namespace,
			"subject", s.subject(userID),
			"request_id", requestcontext.RequestID(ctx),
		)
	})
}

func (s *Service) subject(userID string) string {
	return s.pseudonyms.Pseudonym(userID)
}

// finish records the decision on every observability channel.
func (s *Service) finish(ctx context.Context, span tracer.Span, phase string, ic IdentityContext, d *Decision, start time.Time) {
	code := ""
	if d.Denial != nil {
		code = string(d.Denial.Code)
	}

	span.SetAttributes(
		tracer.String(tracer.AttrPolicyKey, d.PolicyKey),
		tracer.String(tracer.AttrOutcome, string(d.Outcome)),
		tracer.String(tracer.AttrDenyCode, code),
		tracer.Int(tracer.AttrPendingCount, len(d.Pending)),
		tracer.Int(tracer.AttrWritesIssued, len(d.Writes)),
	)
	if len(d.Warnings) > 0 {
		span.AddEvent(tracer.EventScreenOverflow)
		s.metrics.IncrementScreenOverflow()
	}
	span.End(nil)

	s.metrics.IncrementDecision(phase, string(d.Outcome), code)
	s.metrics.ObserveDecisionLatency(phase, time.Since(start))

	attrs := []any{
		"phase", phase,
		"outcome", d.Outcome,
		"client_id", ic.App.ClientID,
		"policy_key", d.PolicyKey,
		"pending", len(d.Pending),
		"writes", len(d.Writes),
		"request_id", requestcontext.RequestID(ctx),
	}
	if subject := s.subject(ic.UserID); subject != "" {
		attrs = append(attrs, "subject", subject)
	}
	switch {
	case d.Denial != nil && d.Denial.IsConfiguration():
		s.logger.ErrorContext(ctx, "progressive profiling misconfigured",
			append(attrs, "code", code, "detail", d.Denial.Detail)...)
	case d.Denial != nil:
		s.logger.InfoContext(ctx, "progressive profiling submission rejected",
			append(attrs, "screen", d.Denial.Screen)...)
	default:
		s.logger.DebugContext(ctx, "progressive profiling decision", attrs...)
	}
	for _, w := range d.Warnings {
		s.logger.WarnContext(ctx, "progressive profiling screen overflow",
			"warning", w, "policy_key", d.PolicyKey, "request_id", requestcontext.RequestID(ctx))
	}

	s.emitAudit(ctx, phase, ic, d, code)
}

func (s *Service) emitAudit(ctx context.Context, phase string, ic IdentityContext, d *Decision, code string) {
	if s.auditor == nil {
		return
	}
	action, ok := auditAction(phase, d)
	if !ok {
		return
	}
	screens := make([]string, 0, len(d.Pending))
	for _, p := range d.Pending {
		screens = append(screens, string(p))
	}
	reason := code
	if d.Denial != nil && reason == "" {
		reason = string(d.Denial.Screen)
	}
	event := audit.Event{
		Timestamp: requestcontext.Now(ctx).UTC(),
		Subject:   s.subject(ic.UserID),
		ClientID:  ic.App.ClientID,
		Action:    action,
		PolicyKey: d.PolicyKey,
		BundleKey: d.BundleKey,
		Decision:  string(d.Outcome),
		Reason:    reason,
		Screens:   screens,
		Device:    audit.DeviceSummary(ic.Request.UserAgent),
		IPPrefix:  privacy.AnonymizeIP(ic.Request.IP),
		RequestID: requestcontext.RequestID(ctx),
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "error", err, "action", action)
	}
}

// auditAction maps a decision to its audit action. Silent continues are not
// audited: they happen on every login and carry no information.
func auditAction(phase string, d *Decision) (audit.Action, bool) {
	switch d.Outcome {
	case OutcomeRender:
		return audit.ActionPromptRendered, true
	case OutcomeDeny:
		if phase == phasePostSubmission && !d.Denial.IsConfiguration() {
			return audit.ActionSubmissionRejected, true
		}
		return audit.ActionLoginDenied, true
	case OutcomeContinue:
		if len(d.Writes) > 0 {
			return audit.ActionProfileCollected, true
		}
	}
	return "", false
}
