package audit

import "time"

// Event records one progressive profiling decision. It never carries raw
// personal data: the user is identified by a keyed pseudonym and the client
// IP is truncated to its network prefix.
type Event struct {
	ID        string
	Timestamp time.Time
	Subject   string
	ClientID  string
	Action    Action
	PolicyKey string
	BundleKey string
	Decision  string
	Reason    string
	Screens   []string
	Device    string
	IPPrefix  string
	RequestID string
}

// Action names the decision phase and result being recorded.
type Action string

const (
	ActionPromptRendered     Action = "pp_prompt_rendered"
	ActionLoginDenied        Action = "pp_login_denied"
	ActionSubmissionRejected Action = "pp_submission_rejected"
	ActionProfileCollected   Action = "pp_profile_collected"
)

// IsValid reports whether a is a known action.
func (a Action) IsValid() bool {
	switch a {
	case ActionPromptRendered, ActionLoginDenied, ActionSubmissionRejected, ActionProfileCollected:
		return true
	}
	return false
}
