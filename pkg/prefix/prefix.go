// Package prefix detects command prefixes at the start of message content.
//
// Every matcher reports the byte offset where the argument text begins. The offset is only
// meaningful when the matcher reports a match.
package prefix

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"

	"vkcommands/pkg/bus"
	"vkcommands/pkg/peer"
)

const (
	groupMentionLead = "[club"
	userMentionLead  = "[id"
)

// Comparison selects how HasStringPrefix compares the literal with the text.
type Comparison int

const (
	// Ordinal compares bytes exactly.
	Ordinal Comparison = iota
	// IgnoreCase compares with simple Unicode case folding.
	IgnoreCase
	// Fold compares with full Unicode case folding, so "STRASSE" matches "straße".
	Fold
)

// Content returns the message's effective text: Text when set, otherwise Body.
func Content(msg *bus.Message) string {
	if msg == nil {
		return ""
	}
	if msg.Text != "" {
		return msg.Text
	}

	return msg.Body
}

// HasCharPrefix reports whether text begins with ch.
func HasCharPrefix(text string, ch rune) (int, bool) {
	if text == "" {
		return 0, false
	}

	first, size := utf8.DecodeRuneInString(text)
	if first != ch {
		return 0, false
	}

	return size, true
}

// HasStringPrefix reports whether text begins with literal under the given comparison.
func HasStringPrefix(text string, literal string, cmp Comparison) (int, bool) {
	if text == "" {
		return 0, false
	}

	switch cmp {
	case IgnoreCase:
		return simpleFoldPrefix(text, literal)
	case Fold:
		return foldedPrefix(text, literal)
	default:
		if !strings.HasPrefix(text, literal) {
			return 0, false
		}
		return len(literal), true
	}
}

// simpleFoldPrefix matches literal rune by rune under simple Unicode case folding. Case
// pairs may differ in UTF-8 width, so the offset is measured in text.
func simpleFoldPrefix(text string, literal string) (int, bool) {
	end := 0
	for _, want := range literal {
		if end >= len(text) {
			return 0, false
		}

		got, size := utf8.DecodeRuneInString(text[end:])
		if !equalFoldRune(got, want) {
			return 0, false
		}
		end += size
	}

	return end, true
}

func equalFoldRune(a, b rune) bool {
	if a == b {
		return true
	}
	if a > b {
		a, b = b, a
	}

	r := unicode.SimpleFold(a)
	for r != a && r < b {
		r = unicode.SimpleFold(r)
	}

	return r == b
}

// foldedPrefix finds the shortest rune-aligned prefix of text whose folding equals the
// folding of literal. Folding can change byte lengths, so the offset is measured in text.
func foldedPrefix(text string, literal string) (int, bool) {
	want := cases.Fold().String(literal)
	if want == "" {
		return 0, true
	}

	folder := cases.Fold()
	for end := range text {
		if end == 0 {
			continue
		}
		folded := folder.String(text[:end])
		if folded == want {
			return end, true
		}
		if !strings.HasPrefix(want, folded) {
			return 0, false
		}
	}

	if folder.String(text) == want {
		return len(text), true
	}

	return 0, false
}

// HasMentionPrefix reports whether text begins with a mention of targetID followed by a space.
//
// Users are mentioned as "[id123|Name] " and communities as "[club45|Name] ", where the
// community's textual id is the magnitude of its negative peer id. A zero target is a caller
// error and yields peer.ErrOutOfRange.
func HasMentionPrefix(text string, targetID int64) (int, bool, error) {
	var lead string
	switch {
	case targetID < 0:
		lead = groupMentionLead
	case targetID > 0:
		lead = userMentionLead
	default:
		return 0, false, fmt.Errorf("mention target %d: %w", targetID, peer.ErrOutOfRange)
	}

	if !strings.HasPrefix(text, lead) {
		return 0, false, nil
	}

	pipe := strings.IndexByte(text[len(lead):], '|')
	if pipe == -1 {
		return 0, false, nil
	}
	pipe += len(lead)

	closing := strings.IndexByte(text[pipe+1:], ']')
	if closing == -1 {
		return 0, false, nil
	}
	closing += pipe + 1

	if closing+1 >= len(text) || text[closing+1] != ' ' {
		return 0, false, nil
	}

	id, ok := parseMentionID(text[len(lead):pipe])
	if !ok {
		return 0, false, nil
	}
	if targetID < 0 {
		id = -id
	}
	if id != targetID {
		return 0, false, nil
	}

	return closing + 2, true, nil
}

// parseMentionID accepts only plain decimal digits.
func parseMentionID(raw string) (int64, bool) {
	if raw == "" || raw[0] < '0' || raw[0] > '9' {
		return 0, false
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}

	return id, true
}
