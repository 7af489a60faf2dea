package progressive

// Outcome is what the pipeline must do with the login transaction.
type Outcome string

const (
	OutcomeContinue Outcome = "continue"
	OutcomeDeny     Outcome = "deny"
	OutcomeRender   Outcome = "render"
)

// Decision is the result of one phase. Exactly one of Denial or Render is set
// for deny and render outcomes; Writes is only populated by a successful
// post-submission.
type Decision struct {
	Outcome  Outcome
	Denial   *Denial
	Render   *RenderCommand
	Writes   []MetadataWrite
	Warnings []string

	// PolicyKey, BundleKey and Pending describe how the decision was reached,
	// for logs and audit.
	PolicyKey string
	BundleKey string
	Pending   []ScreenID
}

// RenderCommand asks the pipeline to suspend and show a form.
type RenderCommand struct {
	FormID  string
	Prefill Prefill
}

// Prefill is the field map handed to the rendering collaborator. Profile
// values are only included when stored; nothing is invented.
type Prefill struct {
	ScreenID        ScreenID        `json:"screen_id"`
	ScreenIDs       []ScreenID      `json:"screen_ids"`
	PolicyKey       string          `json:"policy_key"`
	BundleKey       string          `json:"bundle_key,omitempty"`
	FirstName       string          `json:"first_name,omitempty"`
	LastName        string          `json:"last_name,omitempty"`
	MarketingStatus MarketingStatus `json:"marketing_status"`
}

// MetadataWrite is one merge-write into a user metadata namespace.
type MetadataWrite struct {
	Namespace string
	Profile   *ProfilePatch
	Consents  *ConsentPatch
}

// Patch returns the namespace payload for serialisation.
func (w MetadataWrite) Patch() any {
	if w.Profile != nil {
		return w.Profile
	}
	return w.Consents
}

func continueDecision(policyKey string) *Decision {
	return &Decision{Outcome: OutcomeContinue, PolicyKey: policyKey}
}

func denyDecision(policyKey string, d *Denial) *Decision {
	return &Decision{Outcome: OutcomeDeny, Denial: d, PolicyKey: policyKey}
}
