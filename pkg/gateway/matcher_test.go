package gateway

import (
	"testing"

	"vkcommands/pkg/config"
)

func TestMatcher(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     config.DispatchConfig
		content string
		selfID  int64
		wantOK  bool
		wantArg string
	}{
		{name: "default prefix", content: "!ping", wantOK: true, wantArg: "ping"},
		{name: "no prefix", content: "ping"},
		{name: "string prefix", cfg: config.DispatchConfig{Prefix: "bot "}, content: "bot ping", wantOK: true, wantArg: "ping"},
		{name: "case sensitive", cfg: config.DispatchConfig{Prefix: "bot "}, content: "BOT ping"},
		{name: "ignore case", cfg: config.DispatchConfig{Prefix: "bot ", IgnoreCase: true}, content: "BOT ping", wantOK: true, wantArg: "ping"},
		{name: "mention", cfg: config.DispatchConfig{Mention: true}, content: "[club45|Bot] ping", selfID: -45, wantOK: true, wantArg: "ping"},
		{name: "mention disabled", content: "[club45|Bot] ping", selfID: -45},
		{name: "mention other community", cfg: config.DispatchConfig{Mention: true}, content: "[club46|Bot] ping", selfID: -45},
		{name: "mention unknown self", cfg: config.DispatchConfig{Mention: true}, content: "[club45|Bot] ping"},
		{name: "mention falls back to prefix", cfg: config.DispatchConfig{Mention: true}, content: "!ping", selfID: -45, wantOK: true, wantArg: "ping"},
	}

	for _, tt := range tests {
		m := NewMatcher(tt.cfg)
		pos, ok := m.Match(tt.content, tt.selfID)
		if ok != tt.wantOK {
			t.Fatalf("%s: ok = %v, want %v", tt.name, ok, tt.wantOK)
		}
		if ok && tt.content[pos:] != tt.wantArg {
			t.Fatalf("%s: args = %q, want %q", tt.name, tt.content[pos:], tt.wantArg)
		}
	}
}
