// Package main issues pipeline bearer tokens for local testing of the action
// endpoints. The token is signed with PP_PIPELINE_SECRET or -secret.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"profilegate/pkg/platform/middleware/pipeline"
)

const defaultTokenTTL = 15 * time.Minute

type tokenOutput struct {
	Token     string            `json:"token"`
	Type      string            `json:"type"`
	ExpiresIn string            `json:"expires_in"`
	Subject   string            `json:"subject"`
	TenantID  string            `json:"tenant_id,omitempty"`
	Usage     map[string]string `json:"usage"`
}

func main() {
	secret := flag.String("secret", os.Getenv("PP_PIPELINE_SECRET"), "HS256 secret shared with the server")
	subject := flag.String("subject", "identity-pipeline", "Token subject (the calling pipeline)")
	tenantID := flag.String("tenant-id", "", "Tenant ID (optional)")
	ttl := flag.Duration("ttl", defaultTokenTTL, "Token time-to-live")
	asJSON := flag.Bool("json", false, "Output as JSON")
	flag.Parse()

	v, err := pipeline.NewVerifier(*secret)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	token, err := v.Issue(*subject, *tenantID, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error issuing token: %v\n", err)
		os.Exit(1)
	}

	if !*asJSON {
		fmt.Println(token)
		return
	}

	out := tokenOutput{
		Token:     token,
		Type:      "Bearer",
		ExpiresIn: ttl.String(),
		Subject:   *subject,
		TenantID:  *tenantID,
		Usage: map[string]string{
			"curl": fmt.Sprintf("curl -H 'Authorization: Bearer %s' -H 'Content-Type: application/json' -d @login.json http://localhost:8080/v1/actions/pre-login", token),
		},
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "error encoding output: %v\n", err)
		os.Exit(1)
	}
}
