package progressive

import (
	"errors"
	"fmt"
)

// DenyCode classifies configuration denials for operator triage.
// Field validation denials carry no code.
type DenyCode string

const (
	DenyPolicy DenyCode = "PP_POLICY"
	DenyForm   DenyCode = "PP_FORM"
	DenyBundle DenyCode = "PP_BUNDLE"
	DenyScreen DenyCode = "PP_SCREEN"
)

// Denial is a hard deny of the login attempt. Message is shown to the user;
// Detail is for logs and never leaves the process.
type Denial struct {
	Code    DenyCode
	Message string
	Detail  string
	Screen  ScreenID
}

// Error implements the error interface.
func (d *Denial) Error() string {
	if d.Detail != "" {
		return d.Message + ": " + d.Detail
	}
	return d.Message
}

// IsConfiguration reports whether the denial stems from app or registry
// configuration rather than user input.
func (d *Denial) IsConfiguration() bool {
	return d.Code != ""
}

// AsDenial extracts a *Denial from err.
func AsDenial(err error) (*Denial, bool) {
	var d *Denial
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}

func configDenial(code DenyCode, format string, args ...any) *Denial {
	return &Denial{
		Code:    code,
		Message: fmt.Sprintf("Sign-in cannot be completed because this application is misconfigured (%s). Please contact support.", code),
		Detail:  fmt.Sprintf(format, args...),
	}
}

func fieldDenial(message string) *Denial {
	return &Denial{Message: message}
}
