package progressive

import "sync"

// Built-in screens.
const (
	ScreenFirstName             ScreenID = "name_first"
	ScreenFullName              ScreenID = "name_first_last"
	ScreenFirstNameLastOptional ScreenID = "name_first_lastopt"
	ScreenLegal                 ScreenID = "consent_legal"
	ScreenLegalMarketing        ScreenID = "consent_legal_mktopt"
	ScreenProfileConsent        ScreenID = "name_first_lastopt__consent_legal_mktopt"
)

// Built-in form variants.
const (
	FormSingle  = "pp_single"
	FormStepped = "pp_stepped"
)

// Built-in consent bundles.
const (
	BundleGlobalV1 = "ot.bundle.global.v1"
	BundleEUV1     = "ot.bundle.eu.v1"
)

func hasFirstName(p Profile, _ Consents, _ string) bool {
	return p.Has(FieldFirstName)
}

func hasFullName(p Profile, _ Consents, _ string) bool {
	return p.Has(FieldFirstName) && p.Has(FieldLastName)
}

func hasLegal(_ Profile, c Consents, bundleKey string) bool {
	return c.Legal.SatisfiedFor(bundleKey)
}

func hasFirstNameAndLegal(p Profile, c Consents, bundleKey string) bool {
	return hasFirstName(p, c, bundleKey) && hasLegal(p, c, bundleKey)
}

func validateFirstName(sub Submission) error {
	return ValidateText("First name", sub.FirstName, true)
}

func validateLastName(sub Submission) error {
	return ValidateText("Last name", sub.LastName, true)
}

func validateOptionalLastName(sub Submission) error {
	return ValidateText("Last name", sub.LastName, false)
}

func validateLegal(sub Submission) error {
	if !sub.LegalAccept {
		return fieldDenial("You must accept the Terms of Service and Privacy Policy to continue.")
	}
	return nil
}

// allOf runs validators in order and returns the first failure.
func allOf(validators ...ScreenValidator) ScreenValidator {
	return func(sub Submission) error {
		for _, v := range validators {
			if err := v(sub); err != nil {
				return err
			}
		}
		return nil
	}
}

// DefaultTables returns a fresh copy of the built-in registry content.
// Marketing status has no validator: any value other than opt_in/opt_out is
// simply not persisted.
func DefaultTables() Tables {
	return Tables{
		Policies: map[string]Policy{
			"pp.core.v1": {
				Key:         "pp.core.v1",
				FormVariant: FormSingle,
				Screens:     []ScreenID{ScreenProfileConsent},
			},
			"pp.name.v1": {
				Key:         "pp.name.v1",
				FormVariant: FormSingle,
				Screens:     []ScreenID{ScreenFirstName},
			},
			"pp.consent.v1": {
				Key:         "pp.consent.v1",
				FormVariant: FormSingle,
				Screens:     []ScreenID{ScreenLegalMarketing},
			},
			"pp.stepped.v1": {
				Key:         "pp.stepped.v1",
				FormVariant: FormStepped,
				Screens:     []ScreenID{ScreenFirstNameLastOptional, ScreenLegalMarketing},
			},
			"pp.full.v1": {
				Key:         "pp.full.v1",
				FormVariant: FormStepped,
				Screens:     []ScreenID{ScreenFullName, ScreenLegal},
			},
		},
		Bundles: map[string]ConsentBundle{
			BundleGlobalV1: {Key: BundleGlobalV1},
			BundleEUV1:     {Key: BundleEUV1},
		},
		Forms: map[string]Form{
			FormSingle:  {Variant: FormSingle, ID: "ap_pp_single"},
			FormStepped: {Variant: FormStepped, ID: "ap_pp_stepped"},
		},
		Checks: map[ScreenID]ScreenCheck{
			ScreenFirstName:             hasFirstName,
			ScreenFullName:              hasFullName,
			ScreenFirstNameLastOptional: hasFirstName,
			ScreenLegal:                 hasLegal,
			ScreenLegalMarketing:        hasLegal,
			ScreenProfileConsent:        hasFirstNameAndLegal,
		},
		Validators: map[ScreenID]ScreenValidator{
			ScreenFirstName:             validateFirstName,
			ScreenFullName:              allOf(validateFirstName, validateLastName),
			ScreenFirstNameLastOptional: allOf(validateFirstName, validateOptionalLastName),
			ScreenLegal:                 validateLegal,
			ScreenLegalMarketing:        validateLegal,
			ScreenProfileConsent:        allOf(validateFirstName, validateOptionalLastName, validateLegal),
		},
	}
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	return NewRegistry(DefaultTables())
})

// DefaultRegistry returns the process-wide built-in registry.
func DefaultRegistry() *Registry {
	return defaultRegistry()
}
