package progressive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	dErrors "profilegate/pkg/domain-errors"
)

type RegistrySuite struct {
	suite.Suite
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) TestScreenFields() {
	s.Run("single group with optional field", func() {
		fields, err := ScreenFirstNameLastOptional.Fields()
		s.Require().NoError(err)
		s.Equal([]ScreenField{
			{Field: FieldFirstName},
			{Field: FieldLastName, Optional: true},
		}, fields)
	})

	s.Run("multi group", func() {
		fields, err := ScreenProfileConsent.Fields()
		s.Require().NoError(err)
		s.Len(fields, 4)
		s.Equal(FieldLegalAccept, fields[2].Field)
		s.False(fields[2].Optional)
		s.True(fields[3].Optional)
	})

	s.Run("rejects unknown tokens and wrong areas", func() {
		for _, id := range []ScreenID{"", "name", "name_middle", "consent_first", "name_first__"} {
			_, err := id.Fields()
			s.Error(err, "screen %q", id)
		}
	})

	s.Run("consent bearing", func() {
		s.True(ScreenLegal.IsConsentBearing())
		s.True(ScreenProfileConsent.IsConsentBearing())
		s.False(ScreenFullName.IsConsentBearing())
		s.True(ScreenLegalMarketing.Collects(FieldMarketingStatus))
		s.False(ScreenLegal.Collects(FieldMarketingStatus))
	})
}

func (s *RegistrySuite) TestDefaultRegistryIsValid() {
	report := DefaultRegistry().Validate()
	s.Empty(report.Errors)
	s.Empty(report.Warnings)
	s.NoError(report.Err())
	s.Equal([]string{"pp.consent.v1", "pp.core.v1", "pp.full.v1", "pp.name.v1", "pp.stepped.v1"}, DefaultRegistry().PolicyKeys())
}

func (s *RegistrySuite) TestValidateReportsDefects() {
	tables := DefaultTables()
	tables.Policies["pp.broken.v1"] = Policy{
		Key:         "pp.broken.v1",
		FormVariant: "pp_missing",
		Screens:     []ScreenID{"name_middle", ScreenFirstName, ScreenFullName, ScreenLegal},
	}
	tables.Policies["pp.empty.v1"] = Policy{Key: "pp.other.v1", FormVariant: FormSingle}
	delete(tables.Validators, ScreenLegal)

	report := NewRegistry(tables).Validate()

	joined := report.Errors
	assert.Contains(s.T(), joined, `policy "pp.broken.v1": unknown form variant "pp_missing"`)
	assert.Contains(s.T(), joined, `policy "pp.broken.v1": screen "name_middle" has no completeness check`)
	assert.Contains(s.T(), joined, `policy "pp.full.v1": screen "consent_legal" has no validator`)
	assert.Contains(s.T(), joined, `policy "pp.empty.v1": no screens`)
	assert.Contains(s.T(), joined, `policy "pp.empty.v1": key mismatch "pp.other.v1"`)
	s.Len(report.Warnings, 1)
	s.True(dErrors.HasCode(report.Err(), dErrors.CodeMisconfigured))
}

func (s *RegistrySuite) TestRegistryIsIsolatedFromTables() {
	tables := DefaultTables()
	reg := NewRegistry(tables)

	tables.Policies["pp.core.v1"].Screens[0] = ScreenLegal
	delete(tables.Forms, FormSingle)

	p, ok := reg.Policy("pp.core.v1")
	s.Require().True(ok)
	s.Equal(ScreenProfileConsent, p.Screens[0])
	_, ok = reg.Form(FormSingle)
	s.True(ok)

	p.Screens[0] = ScreenLegal
	again, _ := reg.Policy("pp.core.v1")
	s.Equal(ScreenProfileConsent, again.Screens[0])
}

func TestPolicyHasConsentScreen(t *testing.T) {
	reg := DefaultRegistry()
	core, ok := reg.Policy("pp.core.v1")
	require.True(t, ok)
	assert.True(t, core.HasConsentScreen())
	assert.True(t, core.Collects(FieldMarketingStatus))

	name, ok := reg.Policy("pp.name.v1")
	require.True(t, ok)
	assert.False(t, name.HasConsentScreen())
	assert.False(t, name.Collects(FieldMarketingStatus))
}
