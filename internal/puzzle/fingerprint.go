package puzzle

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Fingerprint computes a content fingerprint over the semantic payload:
// the lowercased question plus the option set sorted out of display order.
// Two candidates asking the same thing with shuffled options collide, which
// is exactly what the dedup reservation needs.
func Fingerprint(p *Puzzle) string {
	opts := make([]string, len(p.Options))
	for i, o := range p.Options {
		opts[i] = strings.ToLower(strings.TrimSpace(o))
	}
	sort.Strings(opts)

	h := sha256.New()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(p.Question))))
	for _, o := range opts {
		h.Write([]byte{0})
		h.Write([]byte(o))
	}
	return hex.EncodeToString(h.Sum(nil))
}
