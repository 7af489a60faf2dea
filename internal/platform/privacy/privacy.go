// Package privacy keeps personal identifiers out of logs, traces and audit
// records.
package privacy

import (
	"encoding/hex"
	"fmt"
	"net"

	"golang.org/x/crypto/blake2b"
)

// AnonymizeIP truncates an IP address to its network portion: IPv4 to /24,
// IPv6 to /48. Returns "unknown" for empty input and "invalid" when the
// address cannot be parsed.
func AnonymizeIP(ip string) string {
	if ip == "" || ip == "unknown" {
		return "unknown"
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "invalid"
	}

	if v4 := parsed.To4(); v4 != nil {
		return fmt.Sprintf("%d.%d.%d.0", v4[0], v4[1], v4[2])
	}

	return fmt.Sprintf("%02x%02x:%02x%02x:%02x%02x::",
		parsed[0], parsed[1],
		parsed[2], parsed[3],
		parsed[4], parsed[5])
}

// pseudonymSize is the digest length in bytes; 16 bytes keeps log lines short
// while remaining collision-free for any realistic user population.
const pseudonymSize = 16

// Pseudonymizer derives stable, keyed pseudonyms for platform user IDs so
// operators can correlate a user's decisions without storing the raw ID.
type Pseudonymizer struct {
	key []byte
}

// NewPseudonymizer returns a Pseudonymizer keyed with key. blake2b accepts keys
// of at most 64 bytes; longer keys are rejected.
func NewPseudonymizer(key []byte) (*Pseudonymizer, error) {
	if len(key) > blake2b.Size {
		return nil, fmt.Errorf("pseudonym key must be at most %d bytes", blake2b.Size)
	}
	k := make([]byte, len(key))
	copy(k, key)
	return &Pseudonymizer{key: k}, nil
}

// Pseudonym returns the hex-encoded keyed digest of userID. Empty input maps
// to an empty pseudonym.
func (p *Pseudonymizer) Pseudonym(userID string) string {
	if userID == "" {
		return ""
	}
	var key []byte
	if p != nil {
		key = p.key
	}
	h, err := blake2b.New(pseudonymSize, key)
	if err != nil {
		// Unreachable: key length is checked in NewPseudonymizer.
		return ""
	}
	h.Write([]byte(userID))
	return hex.EncodeToString(h.Sum(nil))
}
