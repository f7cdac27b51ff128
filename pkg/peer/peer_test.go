package peer

import (
	"errors"
	"math"
	"testing"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id   int64
		want Kind
	}{
		{id: -1, want: KindGroup},
		{id: -555, want: KindGroup},
		{id: math.MinInt64, want: KindGroup},
		{id: 1, want: KindUser},
		{id: 123, want: KindUser},
		{id: ChatThreshold - 1, want: KindUser},
		{id: ChatThreshold, want: KindChat},
		{id: ChatThreshold + 1, want: KindChat},
		{id: math.MaxInt64, want: KindChat},
	}

	for _, tt := range tests {
		got, err := Classify(tt.id)
		if err != nil {
			t.Fatalf("Classify(%d) error: %v", tt.id, err)
		}
		if got != tt.want {
			t.Fatalf("Classify(%d) = %s, want %s", tt.id, got, tt.want)
		}
	}
}

func TestClassifyZero(t *testing.T) {
	t.Parallel()

	kind, err := Classify(0)
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("Classify(0) error = %v, want %v", err, ErrOutOfRange)
	}
	if kind != KindUnknown {
		t.Fatalf("Classify(0) kind = %s, want %s", kind, KindUnknown)
	}
}

func TestKindString(t *testing.T) {
	t.Parallel()

	if got := KindChat.String(); got != "chat" {
		t.Fatalf("KindChat.String() = %q, want %q", got, "chat")
	}
	if got := Kind(42).String(); got != "unknown" {
		t.Fatalf("Kind(42).String() = %q, want %q", got, "unknown")
	}
}
