package handler

import (
	"strings"

	"profilegate/internal/progressive"
	dErrors "profilegate/pkg/domain-errors"
	"profilegate/pkg/platform/validation"
)

// ActionRequest is the body the pipeline posts for both phases. Fields is
// only read by post-submission and may be absent when the form was abandoned.
type ActionRequest struct {
	User    UserPayload    `json:"user"`
	Client  ClientPayload  `json:"client"`
	Request RequestPayload `json:"request"`
	Fields  map[string]any `json:"fields,omitempty"`
}

type UserPayload struct {
	UserID       string         `json:"user_id"`
	UserMetadata map[string]any `json:"user_metadata"`
}

type ClientPayload struct {
	ClientID string            `json:"client_id"`
	Metadata map[string]string `json:"metadata"`
}

type RequestPayload struct {
	UserAgent string `json:"user_agent"`
	IP        string `json:"ip"`
}

func (r *ActionRequest) Sanitize() {
	r.User.UserID = strings.TrimSpace(r.User.UserID)
	r.Client.ClientID = strings.TrimSpace(r.Client.ClientID)
	r.Request.IP = strings.TrimSpace(r.Request.IP)
}

func (r *ActionRequest) Validate() error {
	if r.User.UserID == "" {
		return dErrors.New(dErrors.CodeValidation, "user.user_id is required")
	}
	if err := validation.CheckStringLength("user.user_id", r.User.UserID, validation.MaxUserIDLength); err != nil {
		return err
	}
	if r.Client.ClientID == "" {
		return dErrors.New(dErrors.CodeValidation, "client.client_id is required")
	}
	if err := validation.CheckStringLength("client.client_id", r.Client.ClientID, validation.MaxConfigKeyLength); err != nil {
		return err
	}
	if err := validation.CheckSliceCount("fields", len(r.Fields), validation.MaxSubmittedFields); err != nil {
		return err
	}
	return nil
}

// IdentityContext converts the payload into the engine's view of the login.
// Namespaces that are missing or not objects read as empty.
func (r *ActionRequest) IdentityContext() progressive.IdentityContext {
	profile, _ := r.User.UserMetadata[progressive.NamespaceProfile].(map[string]any)
	consents, _ := r.User.UserMetadata[progressive.NamespaceConsents].(map[string]any)
	return progressive.IdentityContext{
		UserID:   r.User.UserID,
		App:      progressive.AppConfigFromMetadata(r.Client.ClientID, r.Client.Metadata),
		Profile:  progressive.ProfileFromMetadata(profile),
		Consents: progressive.ConsentsFromMetadata(consents),
		Request: progressive.LoginRequest{
			UserAgent: r.Request.UserAgent,
			IP:        r.Request.IP,
		},
	}
}

// ActionResponse tells the pipeline what to do with the login.
type ActionResponse struct {
	Outcome  progressive.Outcome `json:"outcome"`
	Deny     *DenyPayload        `json:"deny,omitempty"`
	Render   *RenderPayload      `json:"render,omitempty"`
	Commands []CommandPayload    `json:"commands,omitempty"`
	Warnings []string            `json:"warnings,omitempty"`
}

type DenyPayload struct {
	Code    progressive.DenyCode `json:"code,omitempty"`
	Message string               `json:"message"`
}

type RenderPayload struct {
	FormID string              `json:"form_id"`
	Vars   progressive.Prefill `json:"vars"`
}

// CommandPayload is one set_user_metadata instruction. The patch holds only
// the keys to merge into the namespace.
type CommandPayload struct {
	Type      string `json:"type"`
	Namespace string `json:"namespace"`
	Patch     any    `json:"patch"`
}

const commandSetUserMetadata = "set_user_metadata"

// toResponse maps a decision onto the wire. Denial details stay server-side.
func toResponse(d *progressive.Decision) ActionResponse {
	res := ActionResponse{Outcome: d.Outcome, Warnings: d.Warnings}
	if d.Denial != nil {
		res.Deny = &DenyPayload{Code: d.Denial.Code, Message: d.Denial.Message}
	}
	if d.Render != nil {
		res.Render = &RenderPayload{FormID: d.Render.FormID, Vars: d.Render.Prefill}
	}
	for _, w := range d.Writes {
		res.Commands = append(res.Commands, CommandPayload{
			Type:      commandSetUserMetadata,
			Namespace: w.Namespace,
			Patch:     w.Patch(),
		})
	}
	return res
}
