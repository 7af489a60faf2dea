package progressive

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	dErrors "profilegate/pkg/domain-errors"
	"profilegate/pkg/platform/validation"
)

// overlayFile is the YAML layout of a registry overlay:
//
//	policies:
//	  pp.partner.v1:
//	    form_variant: pp_single
//	    screens: [name_first_lastopt, consent_legal_mktopt]
//	bundles:
//	  ot.bundle.global.v2:
//	    receipt_purpose_ids: [b1c5...]
//	forms:
//	  pp_single: ap_pp_single_v2
//
// Checks and validators are code and cannot be added by an overlay, so every
// screen named must already be known to the base registry.
type overlayFile struct {
	Policies map[string]overlayPolicy `yaml:"policies"`
	Bundles  map[string]overlayBundle `yaml:"bundles"`
	Forms    map[string]string        `yaml:"forms"`
}

type overlayPolicy struct {
	FormVariant string   `yaml:"form_variant"`
	Screens     []string `yaml:"screens"`
}

type overlayBundle struct {
	ReceiptPurposeIDs []string `yaml:"receipt_purpose_ids"`
}

// LoadOverlay reads the overlay at path and merges it over base.
func LoadOverlay(path string, base *Registry) (*Registry, ValidationReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ValidationReport{}, dErrors.Wrap(err, dErrors.CodeMisconfigured, "read registry overlay")
	}
	return ParseOverlay(data, base)
}

// ParseOverlay merges the YAML overlay in data over base and validates the
// result. Entries in the overlay replace base entries with the same key. The
// returned registry is only non-nil when validation found no errors; the
// report is returned either way so warnings can be logged.
func ParseOverlay(data []byte, base *Registry) (*Registry, ValidationReport, error) {
	if base == nil {
		base = DefaultRegistry()
	}

	var file overlayFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, ValidationReport{}, dErrors.Wrap(err, dErrors.CodeMisconfigured, "parse registry overlay")
	}

	if err := checkOverlayLimits(file); err != nil {
		return nil, ValidationReport{}, err
	}

	tables := base.Tables()
	for key, p := range file.Policies {
		screens := make([]ScreenID, 0, len(p.Screens))
		for _, s := range p.Screens {
			screens = append(screens, ScreenID(strings.TrimSpace(s)))
		}
		tables.Policies[key] = Policy{
			Key:         key,
			FormVariant: strings.TrimSpace(p.FormVariant),
			Screens:     screens,
		}
	}
	for key, b := range file.Bundles {
		tables.Bundles[key] = ConsentBundle{Key: key, ReceiptPurposeIDs: b.ReceiptPurposeIDs}
	}
	for variant, id := range file.Forms {
		tables.Forms[variant] = Form{Variant: variant, ID: strings.TrimSpace(id)}
	}

	merged := NewRegistry(tables)
	report := merged.Validate()
	if err := report.Err(); err != nil {
		return nil, report, err
	}
	return merged, report, nil
}

func checkOverlayLimits(file overlayFile) error {
	if err := validation.CheckSliceCount("policies", len(file.Policies), validation.MaxOverlayPolicies); err != nil {
		return err
	}
	keys := make([]string, 0, len(file.Policies)+len(file.Bundles)+len(file.Forms))
	for k := range file.Policies {
		keys = append(keys, k)
	}
	for k := range file.Bundles {
		keys = append(keys, k)
	}
	for k := range file.Forms {
		keys = append(keys, k)
	}
	for _, k := range keys {
		if strings.TrimSpace(k) == "" || k != strings.TrimSpace(k) {
			return dErrors.New(dErrors.CodeMisconfigured, fmt.Sprintf("overlay key %q must be non-blank without surrounding whitespace", k))
		}
		if err := validation.CheckStringLength("overlay key", k, validation.MaxConfigKeyLength); err != nil {
			return err
		}
	}
	return nil
}
