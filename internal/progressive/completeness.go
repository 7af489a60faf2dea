package progressive

import "fmt"

// IsScreenSatisfied reports whether stored data satisfies the screen's
// required fields. Optional fields never influence the result. A screen with
// no registered check is a PP_SCREEN denial, never a silent pass.
func (r *Registry) IsScreenSatisfied(screen ScreenID, profile Profile, consents Consents, bundleKey string) (bool, error) {
	check, ok := r.Check(screen)
	if !ok {
		d := configDenial(DenyScreen, "screen %q has no completeness check", screen)
		d.Screen = screen
		return false, d
	}
	return check(profile, consents, bundleKey), nil
}

// PendingScreens filters the policy's screens down to those whose check fails,
// preserving policy order. Both phases call this with the same inputs so that
// what was asked for before the form is exactly what gets validated after it.
func (r *Registry) PendingScreens(policy Policy, profile Profile, consents Consents, bundleKey string) ([]ScreenID, error) {
	var pending []ScreenID
	for _, screen := range policy.Screens {
		ok, err := r.IsScreenSatisfied(screen, profile, consents, bundleKey)
		if err != nil {
			return nil, err
		}
		if !ok {
			pending = append(pending, screen)
		}
	}
	return pending, nil
}

// capScreens bounds the pending list to MaxScreens. Overflow is reported as a
// warning and does not block the login.
func capScreens(pending []ScreenID) ([]ScreenID, []string) {
	if len(pending) <= MaxScreens {
		return pending, nil
	}
	warning := fmt.Sprintf("%d pending screens exceed max %d; dropped %v", len(pending), MaxScreens, pending[MaxScreens:])
	return pending[:MaxScreens], []string{warning}
}
