package progressive

import (
	"strings"
	"time"
)

// Submission is the typed view of the fields posted back by the form.
type Submission struct {
	FirstName       string
	LastName        string
	LegalAccept     bool
	MarketingStatus string
}

// ParseSubmission converts the untyped field map at the system boundary. A nil
// map (abandoned or skipped form) yields an all-blank submission, and values
// of an unexpected type are read as blank, so both fall through to ordinary
// field validation.
func ParseSubmission(raw map[string]any) Submission {
	if raw == nil {
		return Submission{}
	}
	return Submission{
		FirstName:       stringValue(raw[string(FieldFirstName)]),
		LastName:        stringValue(raw[string(FieldLastName)]),
		LegalAccept:     IsTruthy(raw[string(FieldLegalAccept)]),
		MarketingStatus: strings.TrimSpace(stringValue(raw[string(FieldMarketingStatus)])),
	}
}

func stringValue(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

// ProfileFromMetadata reads the profile namespace of stored user metadata.
// Non-string and blank values are treated as absent.
func ProfileFromMetadata(m map[string]any) Profile {
	var p Profile
	if v := strings.TrimSpace(stringValue(m[string(FieldFirstName)])); v != "" {
		p.FirstName = &v
	}
	if v := strings.TrimSpace(stringValue(m[string(FieldLastName)])); v != "" {
		p.LastName = &v
	}
	return p
}

// ConsentsFromMetadata reads the consents namespace of stored user metadata.
// Malformed sub-records are ignored, which makes a legal record count as
// missing and re-triggers collection.
func ConsentsFromMetadata(m map[string]any) Consents {
	var c Consents
	if legal, ok := m["legal"].(map[string]any); ok {
		accepted, _ := legal["accepted"].(bool)
		c.Legal = &LegalConsent{
			Accepted:   accepted,
			AcceptedAt: timeValue(legal["accepted_at"]),
			BundleKey:  stringValue(legal["bundle_key"]),
			PolicyKey:  stringValue(legal["policy_key"]),
			Source:     stringValue(legal["source"]),
		}
	}
	if marketing, ok := m["marketing"].(map[string]any); ok {
		if status, ok := ParseMarketingStatus(stringValue(marketing["status"])); ok {
			c.Marketing = &MarketingConsent{
				Status:    status,
				UpdatedAt: timeValue(marketing["updated_at"]),
				BundleKey: stringValue(marketing["bundle_key"]),
				PolicyKey: stringValue(marketing["policy_key"]),
				Source:    stringValue(marketing["source"]),
			}
		}
	}
	return c
}

func timeValue(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}
		}
		return parsed
	}
	return time.Time{}
}
