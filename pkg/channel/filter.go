package channel

import (
	"strings"
	"unicode/utf8"
)

const messagePreviewLimit = 240

// AllowFromSet normalizes allow_from values into a lookup set. It returns nil when no
// sender is listed.
func AllowFromSet(allowFrom []string) map[string]struct{} {
	if len(allowFrom) == 0 {
		return nil
	}

	allowed := make(map[string]struct{}, len(allowFrom))
	for _, value := range allowFrom {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		allowed[trimmed] = struct{}{}
	}

	if len(allowed) == 0 {
		return nil
	}

	return allowed
}

// SenderAllowed checks a sender against an allow set. An empty set accepts everyone.
func SenderAllowed(allowed map[string]struct{}, senderID string) bool {
	if len(allowed) == 0 {
		return true
	}

	_, ok := allowed[strings.TrimSpace(senderID)]
	return ok
}

// PreviewText returns at most messagePreviewLimit bytes of text, cut on a rune boundary.
func PreviewText(text string) string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) <= messagePreviewLimit {
		return trimmed
	}

	cut := messagePreviewLimit
	for cut > 0 && !utf8.RuneStart(trimmed[cut]) {
		cut--
	}

	return trimmed[:cut] + "..."
}
