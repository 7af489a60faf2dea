package progressive

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	profiles    []ProfilePatch
	consents    []ConsentPatch
	profileErr  error
	consentsErr error
}

func (w *recordingWriter) MergeProfile(_ context.Context, _ string, p ProfilePatch) error {
	w.profiles = append(w.profiles, p)
	return w.profileErr
}

func (w *recordingWriter) MergeConsents(_ context.Context, _ string, p ConsentPatch) error {
	w.consents = append(w.consents, p)
	return w.consentsErr
}

func TestBuildProfilePatch(t *testing.T) {
	t.Run("blank optional field is absent", func(t *testing.T) {
		patch := buildProfilePatch([]ScreenID{ScreenFirstNameLastOptional}, Submission{FirstName: " Jane ", LastName: "  "})
		require.NotNil(t, patch.FirstName)
		assert.Equal(t, "Jane", *patch.FirstName)
		assert.Nil(t, patch.LastName)
	})

	t.Run("fields outside pending screens are dropped", func(t *testing.T) {
		patch := buildProfilePatch([]ScreenID{ScreenLegal}, Submission{FirstName: "Jane", LastName: "Doe"})
		assert.True(t, patch.IsEmpty())
	})
}

func TestBuildConsentPatch(t *testing.T) {
	now := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	core, _ := DefaultRegistry().Policy("pp.core.v1")
	name, _ := DefaultRegistry().Policy("pp.name.v1")
	full, _ := DefaultRegistry().Policy("pp.full.v1")

	t.Run("legal and opt out", func(t *testing.T) {
		patch := buildConsentPatch(core, BundleGlobalV1, Submission{LegalAccept: true, MarketingStatus: "opt_out"}, now)
		require.NotNil(t, patch.Legal)
		assert.Equal(t, LegalConsent{Accepted: true, AcceptedAt: now, BundleKey: BundleGlobalV1, PolicyKey: "pp.core.v1", Source: SourceTag}, *patch.Legal)
		require.NotNil(t, patch.Marketing)
		assert.Equal(t, MarketingOptOut, patch.Marketing.Status)
		assert.Equal(t, now, patch.Marketing.UpdatedAt)
	})

	t.Run("unset marketing writes nothing", func(t *testing.T) {
		for _, status := range []string{"", "unset", "OPT_IN", "sure"} {
			patch := buildConsentPatch(core, BundleGlobalV1, Submission{LegalAccept: true, MarketingStatus: status}, now)
			assert.Nil(t, patch.Marketing, status)
		}
	})

	t.Run("no consent screen means no legal record", func(t *testing.T) {
		patch := buildConsentPatch(name, "", Submission{LegalAccept: true, MarketingStatus: "opt_in"}, now)
		assert.True(t, patch.IsEmpty())
	})

	t.Run("marketing only where offered", func(t *testing.T) {
		patch := buildConsentPatch(full, BundleGlobalV1, Submission{LegalAccept: true, MarketingStatus: "opt_in"}, now)
		assert.NotNil(t, patch.Legal)
		assert.Nil(t, patch.Marketing)
	})
}

func TestApply(t *testing.T) {
	first := "Jane"
	d := &Decision{
		Outcome: OutcomeContinue,
		Writes: metadataWrites(
			ProfilePatch{FirstName: &first},
			ConsentPatch{Legal: &LegalConsent{Accepted: true}},
		),
	}

	t.Run("issues both writes", func(t *testing.T) {
		w := &recordingWriter{}
		require.NoError(t, Apply(context.Background(), w, "u1", d))
		assert.Len(t, w.profiles, 1)
		assert.Len(t, w.consents, 1)
	})

	t.Run("writes are independent", func(t *testing.T) {
		w := &recordingWriter{profileErr: errors.New("profile api down")}
		err := Apply(context.Background(), w, "u1", d)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "merge profile")
		assert.Len(t, w.consents, 1)
	})

	t.Run("nil decision", func(t *testing.T) {
		assert.NoError(t, Apply(context.Background(), &recordingWriter{}, "u1", nil))
	})

	t.Run("patch payload", func(t *testing.T) {
		assert.Equal(t, d.Writes[0].Profile, d.Writes[0].Patch())
		assert.Equal(t, d.Writes[1].Consents, d.Writes[1].Patch())
	})
}
