package progressive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSubmission(t *testing.T) {
	t.Run("nil map is all blank", func(t *testing.T) {
		assert.Equal(t, Submission{}, ParseSubmission(nil))
	})

	t.Run("typed fields", func(t *testing.T) {
		sub := ParseSubmission(map[string]any{
			"first_name":       "Jane",
			"last_name":        "",
			"legal_accept":     "yes",
			"marketing_status": " opt_in ",
			"unexpected":       "ignored",
		})
		assert.Equal(t, Submission{FirstName: "Jane", LegalAccept: true, MarketingStatus: "opt_in"}, sub)
	})

	t.Run("wrong types read as blank", func(t *testing.T) {
		sub := ParseSubmission(map[string]any{
			"first_name":   42,
			"last_name":    []any{"Doe"},
			"legal_accept": 1,
		})
		assert.Equal(t, Submission{}, sub)
	})
}

func TestProfileFromMetadata(t *testing.T) {
	p := ProfileFromMetadata(map[string]any{
		"first_name": " Jane ",
		"last_name":  "",
		"phone":      "+15550100",
	})
	require.NotNil(t, p.FirstName)
	assert.Equal(t, "Jane", *p.FirstName)
	assert.Nil(t, p.LastName)

	assert.Equal(t, Profile{}, ProfileFromMetadata(nil))
	assert.Equal(t, Profile{}, ProfileFromMetadata(map[string]any{"first_name": false}))
}

func TestConsentsFromMetadata(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	c := ConsentsFromMetadata(map[string]any{
		"legal": map[string]any{
			"accepted":    true,
			"accepted_at": at.Format(time.RFC3339Nano),
			"bundle_key":  BundleGlobalV1,
			"policy_key":  "pp.core.v1",
			"source":      SourceTag,
		},
		"marketing": map[string]any{"status": "opt_in"},
	})
	require.NotNil(t, c.Legal)
	assert.True(t, c.Legal.SatisfiedFor(BundleGlobalV1))
	assert.True(t, at.Equal(c.Legal.AcceptedAt))
	assert.Equal(t, MarketingOptIn, c.MarketingStatus())

	t.Run("malformed records", func(t *testing.T) {
		c := ConsentsFromMetadata(map[string]any{
			"legal":     map[string]any{"accepted": "true", "bundle_key": BundleGlobalV1},
			"marketing": map[string]any{"status": "maybe"},
		})
		assert.False(t, c.Legal.SatisfiedFor(BundleGlobalV1))
		assert.Nil(t, c.Marketing)
		assert.Equal(t, MarketingUnset, c.MarketingStatus())
	})
}

func TestAppConfigFromMetadata(t *testing.T) {
	cfg := AppConfigFromMetadata("c1", map[string]string{
		"pp_enabled":         "true",
		"pp_policy_key":      "pp.core.v1",
		"consent_bundle_key": BundleGlobalV1,
	})
	assert.True(t, cfg.IsEnabled())
	assert.Equal(t, "pp.core.v1", cfg.PolicyKey)

	for _, v := range []string{"", "TRUE", "1", "yes", " true"} {
		assert.False(t, AppConfig{Enabled: v}.IsEnabled(), "%q", v)
	}
}
