package orchestrator

import (
	"unicode/utf8"

	"github.com/openclaw/openclaw/internal/capability"
)

const DefaultMaxPayloadBytes = 64 * 1024 // 64KB

// Guard bounds what a capability result may send back to a backend.
type Guard struct {
	MaxPayloadBytes int
}

func NewGuard() *Guard {
	return &Guard{MaxPayloadBytes: DefaultMaxPayloadBytes}
}

// Sanitize truncates oversized text payloads on a rune boundary. Structured
// payloads pass through.
func (g *Guard) Sanitize(res capability.Result) capability.Result {
	s, ok := res.Payload.(string)
	if !ok || g.MaxPayloadBytes <= 0 || len(s) <= g.MaxPayloadBytes {
		return res
	}
	cut := g.MaxPayloadBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	res.Payload = s[:cut] + "\n[truncated: response exceeded size limit]"
	return res
}
