// Package diff bounds raw diff text to the payload budget accepted by the
// inference provider.
package diff

// MaxBytes is the payload budget for a single review request.
const MaxBytes = 100000

// TruncationMarker is appended to a diff that exceeded the budget.
const TruncationMarker = "\n\n... [diff truncated due to size limits]"

// Payload is bounded diff text plus size metadata. EffectiveSize is always
// len(Text); when Truncated it equals the budget plus the marker length.
type Payload struct {
	Text          string
	OriginalSize  int
	EffectiveSize int
	Truncated     bool
}

// IsEmpty reports whether there is nothing to review. An empty payload is
// a non-error terminal state for the pipeline.
func (p Payload) IsEmpty() bool {
	return p.EffectiveSize == 0
}

// Bound enforces maxBytes on the UTF-8 encoding of text. Sizes are measured
// in bytes, not code points. Oversized input is cut at the byte boundary --
// a multi-byte rune straddling the cut is split, which is accepted for
// size-bounding purposes -- and the truncation marker is appended.
// Re-applying Bound to an already-bounded payload is a no-op.
func Bound(text string, maxBytes int) Payload {
	size := len(text)
	if size == 0 {
		return Payload{}
	}

	if size <= maxBytes {
		return Payload{
			Text:          text,
			OriginalSize:  size,
			EffectiveSize: size,
		}
	}

	// Fixed point: output of a previous Bound is budget + marker and ends
	// with the marker. Leave it alone instead of truncating again.
	if size <= maxBytes+len(TruncationMarker) && hasMarkerSuffix(text) {
		return Payload{
			Text:          text,
			OriginalSize:  size,
			EffectiveSize: size,
			Truncated:     true,
		}
	}

	bounded := text[:maxBytes] + TruncationMarker
	return Payload{
		Text:          bounded,
		OriginalSize:  size,
		EffectiveSize: len(bounded),
		Truncated:     true,
	}
}

func hasMarkerSuffix(text string) bool {
	if len(text) < len(TruncationMarker) {
		return false
	}
	return text[len(text)-len(TruncationMarker):] == TruncationMarker
}
