package progressive

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ProfilePatch carries only the profile keys being set. Absent keys are left
// untouched by the merge, so a blank resubmission never clears a stored value.
type ProfilePatch struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
}

// IsEmpty reports whether the patch sets nothing.
func (p ProfilePatch) IsEmpty() bool {
	return p.FirstName == nil && p.LastName == nil
}

// ConsentPatch carries only the consent sub-records being replaced.
type ConsentPatch struct {
	Legal     *LegalConsent     `json:"legal,omitempty"`
	Marketing *MarketingConsent `json:"marketing,omitempty"`
}

// IsEmpty reports whether the patch sets nothing.
func (p ConsentPatch) IsEmpty() bool {
	return p.Legal == nil && p.Marketing == nil
}

// buildProfilePatch writes only fields collected by a pending screen, after
// sanitisation, and only when non-blank. A field the user was not asked for
// has not been validated and is never persisted.
func buildProfilePatch(pending []ScreenID, sub Submission) ProfilePatch {
	var patch ProfilePatch
	if collectedBy(pending, FieldFirstName) {
		if v := SanitizeText(sub.FirstName); v != "" {
			patch.FirstName = &v
		}
	}
	if collectedBy(pending, FieldLastName) {
		if v := SanitizeText(sub.LastName); v != "" {
			patch.LastName = &v
		}
	}
	return patch
}

func collectedBy(screens []ScreenID, f Field) bool {
	for _, s := range screens {
		if s.Collects(f) {
			return true
		}
	}
	return false
}

// buildConsentPatch stamps records with the server clock and the currently
// resolved policy and bundle keys; client-supplied timestamps are ignored.
// Marketing is only recorded when some screen of the policy offers the choice.
func buildConsentPatch(policy Policy, bundleKey string, sub Submission, now time.Time) ConsentPatch {
	var patch ConsentPatch
	if policy.HasConsentScreen() && sub.LegalAccept {
		patch.Legal = &LegalConsent{
			Accepted:   true,
			AcceptedAt: now,
			BundleKey:  bundleKey,
			PolicyKey:  policy.Key,
			Source:     SourceTag,
		}
	}
	if !policy.Collects(FieldMarketingStatus) {
		return patch
	}
	if status, ok := ParseMarketingStatus(sub.MarketingStatus); ok {
		patch.Marketing = &MarketingConsent{
			Status:    status,
			UpdatedAt: now,
			BundleKey: bundleKey,
			PolicyKey: policy.Key,
			Source:    SourceTag,
		}
	}
	return patch
}

func metadataWrites(profile ProfilePatch, consents ConsentPatch) []MetadataWrite {
	var writes []MetadataWrite
	if !profile.IsEmpty() {
		writes = append(writes, MetadataWrite{Namespace: NamespaceProfile, Profile: &profile})
	}
	if !consents.IsEmpty() {
		writes = append(writes, MetadataWrite{Namespace: NamespaceConsents, Consents: &consents})
	}
	return writes
}

// MetadataWriter applies merge-writes to the identity platform's user
// metadata. Merges must be additive over unrelated keys in the namespace.
type MetadataWriter interface {
	MergeProfile(ctx context.Context, userID string, patch ProfilePatch) error
	MergeConsents(ctx context.Context, userID string, patch ConsentPatch) error
}

// Apply issues the decision's writes against w. The writes are independent:
// a failed profile merge does not prevent the consents merge. All failures
// are returned joined.
func Apply(ctx context.Context, w MetadataWriter, userID string, d *Decision) error {
	return applyWrites(ctx, w, userID, d, nil)
}

func applyWrites(ctx context.Context, w MetadataWriter, userID string, d *Decision, onErr func(namespace string, err error)) error {
	if d == nil {
		return nil
	}
	var errs []error
	for _, write := range d.Writes {
		var err error
		switch {
		case write.Profile != nil:
			err = w.MergeProfile(ctx, userID, *write.Profile)
		case write.Consents != nil:
			err = w.MergeConsents(ctx, userID, *write.Consents)
		}
		if err != nil {
			if onErr != nil {
				onErr(write.Namespace, err)
			}
			errs = append(errs, fmt.Errorf("merge %s: %w", write.Namespace, err))
		}
	}
	return errors.Join(errs...)
}
