package gateway

import (
	"unicode/utf8"

	"vkcommands/pkg/config"
	"vkcommands/pkg/prefix"
)

const defaultPrefix = "!"

// Matcher applies the configured prefix policy: a mention of the bot first, then the
// literal prefix.
type Matcher struct {
	literal    string
	ignoreCase bool
	mention    bool
}

// NewMatcher builds the policy from dispatch settings; an empty prefix means "!".
func NewMatcher(cfg config.DispatchConfig) Matcher {
	literal := cfg.Prefix
	if literal == "" {
		literal = defaultPrefix
	}

	return Matcher{literal: literal, ignoreCase: cfg.IgnoreCase, mention: cfg.Mention}
}

// match returns where arguments begin in content. selfID is the bot's own peer id, zero
// when the channel cannot be mentioned by id.
func (m Matcher) Match(content string, selfID int64) (int, bool) {
	if m.mention && selfID != 0 {
		if argStart, ok, err := prefix.HasMentionPrefix(content, selfID); err == nil && ok {
			return argStart, true
		}
	}

	if !m.ignoreCase && utf8.RuneCountInString(m.literal) == 1 {
		ch, _ := utf8.DecodeRuneInString(m.literal)
		return prefix.HasCharPrefix(content, ch)
	}

	cmp := prefix.Ordinal
	if m.ignoreCase {
		cmp = prefix.Fold
	}

	return prefix.HasStringPrefix(content, m.literal, cmp)
}
