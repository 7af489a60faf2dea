package audit

import (
	"strings"

	"github.com/mssola/useragent"
)

// DeviceSummary reduces a User-Agent header to "browser/os/platform" with
// major browser version only, enough to spot a misbehaving client without
// fingerprinting the user.
func DeviceSummary(userAgent string) string {
	if strings.TrimSpace(userAgent) == "" {
		return "unknown"
	}
	ua := useragent.New(userAgent)
	if ua.Bot() {
		return "bot"
	}

	browser, version := ua.Browser()
	browser = strings.ToLower(strings.TrimSpace(browser))
	if browser == "" {
		browser = "unknown"
	}
	if major, _, _ := strings.Cut(version, "."); major != "" {
		browser += " " + major
	}

	os := strings.ToLower(strings.TrimSpace(ua.OSInfo().Name))
	if os == "" {
		os = "unknown"
	}

	platform := "desktop"
	if ua.Mobile() {
		platform = "mobile"
	}
	return browser + "/" + os + "/" + platform
}
