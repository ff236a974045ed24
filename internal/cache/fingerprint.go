package cache

import (
	"crypto/md5"
	"encoding/hex"
	"strings"

	"github.com/strategen/strategen/internal/generation"
)

// fingerprintVersion tags every cache key. Bump it whenever input
// normalization or the generated document schema changes so stale entries
// can never be served after a deploy.
const fingerprintVersion = "v2"

// Fingerprint returns the deterministic cache key for a generation input:
// a stable hash over the versioned, ordered concatenation of normalized
// fields.
func Fingerprint(input generation.Input) string {
	input = input.Normalize()
	parts := []string{
		fingerprintVersion,
		strings.ToLower(input.Goal),
		strings.ToLower(input.Audience),
		strings.ToLower(input.Industry),
		strings.ToLower(input.Platform),
		strings.ToLower(input.ContentType),
		strings.ToLower(input.Experience),
	}
	sum := md5.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
