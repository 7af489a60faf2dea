package progressive

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateText(t *testing.T) {
	cases := []struct {
		name     string
		value    string
		required bool
		wantMsg  string
	}{
		{name: "valid", value: "  Jane ", required: true},
		{name: "unicode", value: "Zoë", required: true},
		{name: "blank required", value: "   ", required: true, wantMsg: "First name is required."},
		{name: "blank optional", value: "", required: false},
		{name: "script tag", value: "<script>alert(1)</script>", required: true, wantMsg: "First name contains invalid characters."},
		{name: "template braces", value: "{{7*7}}", required: false, wantMsg: "First name contains invalid characters."},
		{name: "backslash", value: `Ja\ne`, required: true, wantMsg: "First name contains invalid characters."},
		{name: "control character", value: "Ja\x00ne", required: true, wantMsg: "First name contains invalid characters."},
		{name: "too long", value: strings.Repeat("a", 101), required: true, wantMsg: "First name must be at most 100 characters."},
		{name: "limit in runes", value: strings.Repeat("é", 100), required: true},
		{name: "unsafe beats length", value: strings.Repeat("<", 200), required: true, wantMsg: "First name contains invalid characters."},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateText("First name", tc.value, tc.required)
			if tc.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			d, ok := AsDenial(err)
			require.True(t, ok)
			assert.Equal(t, tc.wantMsg, d.Message)
			assert.False(t, d.IsConfiguration())
		})
	}
}

func TestSanitizeText(t *testing.T) {
	assert.Equal(t, "Jane", SanitizeText("  Jane\t"))
	assert.Equal(t, strings.Repeat("é", 100), SanitizeText(strings.Repeat("é", 120)))
	assert.Equal(t, "", SanitizeText("   "))
}

func TestIsTruthy(t *testing.T) {
	for _, v := range []any{true, "true", "yes", "1", " true "} {
		assert.True(t, IsTruthy(v), "%#v", v)
	}
	for _, v := range []any{false, nil, "", "TRUE", "Yes", "on", "0", 1, 1.0, []string{"true"}} {
		assert.False(t, IsTruthy(v), "%#v", v)
	}
}
