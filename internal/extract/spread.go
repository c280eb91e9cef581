package extract

import (
	"log/slog"

	"github.com/MeKo-Tech/screenmark/internal/embed"
	"github.com/MeKo-Tech/screenmark/internal/payload"
)

// maxSpreadTrialLen bounds the payload-length sweep. Canonical payloads are
// four colon-joined fields and sit well under this.
const maxSpreadTrialLen = 96

// decodeSpreadCorrelation demodulates the spread-spectrum layer. The chip
// seed depends only on the payload length, so the strategy sweeps plausible
// lengths, correlates each, and keeps the structurally valid decode with the
// strongest correlation.
func (e *Engine) decodeSpreadCorrelation(shot *capture) (candidate, bool) {
	best := candidate{}
	found := false
	for length := payload.MinCandidateLen; length <= maxSpreadTrialLen; length++ {
		value, confidence := embed.CorrelateSpread(shot.buf, length, e.cfg.Spread)
		if value == "" || !payload.StructurallyValid(value) {
			continue
		}
		if !found || confidence > best.confidence {
			best = candidate{value: value, confidence: confidence}
			found = true
		}
	}
	if found {
		slog.Debug("spread correlation hit", "length", len(best.value), "confidence", best.confidence)
	}
	return best, found
}
