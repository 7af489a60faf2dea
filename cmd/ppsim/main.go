// Package main simulates a progressive profiling login loop against an
// in-memory user store: pre-login, form submission, persistence, and a
// second pre-login to confirm the user is no longer prompted.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"profilegate/internal/platform/logger"
	"profilegate/internal/progressive"
	"profilegate/internal/progressive/store"
)

type options struct {
	UserID    string
	PolicyKey string
	BundleKey string
	Overlay   string
	Fields    map[string]any
}

type step struct {
	Phase    string                    `json:"phase"`
	Outcome  progressive.Outcome       `json:"outcome"`
	FormID   string                    `json:"form_id,omitempty"`
	Vars     *progressive.Prefill      `json:"vars,omitempty"`
	Deny     string                    `json:"deny,omitempty"`
	Code     progressive.DenyCode      `json:"code,omitempty"`
	Warnings []string                  `json:"warnings,omitempty"`
	Stored   map[string]map[string]any `json:"stored,omitempty"`
}

func main() {
	opts := options{}
	fields := flag.String("fields", `{}`, "Submitted form fields as a JSON object")
	flag.StringVar(&opts.UserID, "user-id", "sim|user-1", "User ID")
	flag.StringVar(&opts.PolicyKey, "policy", "pp.core.v1", "Policy key configured on the app")
	flag.StringVar(&opts.BundleKey, "bundle", progressive.BundleGlobalV1, "Consent bundle key configured on the app")
	flag.StringVar(&opts.Overlay, "overlay", "", "Optional registry overlay YAML")
	verbose := flag.Bool("v", false, "Log decisions to stderr")
	flag.Parse()

	if err := json.Unmarshal([]byte(*fields), &opts.Fields); err != nil {
		fmt.Fprintf(os.Stderr, "error: -fields must be a JSON object: %v\n", err)
		os.Exit(2)
	}

	log := slog.New(slog.DiscardHandler)
	if *verbose {
		log = logger.NewWithWriter(os.Stderr, "debug")
	}

	if err := simulate(context.Background(), os.Stdout, log, opts); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func simulate(ctx context.Context, out io.Writer, log *slog.Logger, opts options) error {
	registry := progressive.DefaultRegistry()
	if opts.Overlay != "" {
		r, _, err := progressive.LoadOverlay(opts.Overlay, registry)
		if err != nil {
			return err
		}
		registry = r
	}

	svc := progressive.New(registry, progressive.WithLogger(log))
	users := store.NewInMemoryMetadataStore()
	app := progressive.AppConfigFromMetadata("ppsim", map[string]string{
		progressive.ConfigKeyEnabled: progressive.EnabledMarker,
		progressive.ConfigKeyPolicy:  opts.PolicyKey,
		progressive.ConfigKeyBundle:  opts.BundleKey,
	})

	var steps []step
	first, err := svc.PreLogin(ctx, users.Load(opts.UserID, app))
	if err != nil {
		return err
	}
	steps = append(steps, toStep("pre_login", first, nil))

	if first.Outcome == progressive.OutcomeRender {
		post, err := svc.PostSubmission(ctx, users.Load(opts.UserID, app), opts.Fields)
		if err != nil {
			return err
		}
		if err := svc.Persist(ctx, users, opts.UserID, post); err != nil {
			return err
		}
		steps = append(steps, toStep("post_submission", post, snapshot(users, opts.UserID)))

		again, err := svc.PreLogin(ctx, users.Load(opts.UserID, app))
		if err != nil {
			return err
		}
		steps = append(steps, toStep("next_login", again, nil))
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(steps)
}

func toStep(phase string, d *progressive.Decision, stored map[string]map[string]any) step {
	s := step{Phase: phase, Outcome: d.Outcome, Warnings: d.Warnings, Stored: stored}
	if d.Render != nil {
		s.FormID = d.Render.FormID
		s.Vars = &d.Render.Prefill
	}
	if d.Denial != nil {
		s.Deny = d.Denial.Message
		s.Code = d.Denial.Code
	}
	return s
}

func snapshot(users *store.InMemoryMetadataStore, userID string) map[string]map[string]any {
	return map[string]map[string]any{
		progressive.NamespaceProfile:  users.Namespace(userID, progressive.NamespaceProfile),
		progressive.NamespaceConsents: users.Namespace(userID, progressive.NamespaceConsents),
	}
}
